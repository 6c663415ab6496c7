// Package render draws the connectivity graph of an assembly.
//
// ToDOT produces Graphviz DOT text; RenderSVG lays it out with the embedded
// Graphviz from github.com/goccy/go-graphviz, so no system install is needed.
//
//	dot := render.ToDOT(result.Graph, render.Options{Report: &result.Report})
//	svg, err := render.RenderSVG(ctx, dot)
package render

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/chazu/trestle/pkg/assembly"
	"github.com/chazu/trestle/pkg/errors"
	"github.com/chazu/trestle/pkg/scene"
)

// Options configures graph rendering.
type Options struct {
	// Report, when set, colors components with violations: red for errors,
	// amber for warnings.
	Report *assembly.Report
	// Roles adds the detected role of each component to its label.
	Roles bool
}

// ToDOT converts a connectivity graph to an undirected DOT graph. Components
// that touch nothing are drawn with a bold outline; inserted connectors are
// dashed.
func ToDOT(g *assembly.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14];\n")
	buf.WriteString("  overlap=false;\n")
	buf.WriteString("\n")

	severity := severities(opts.Report)
	isolated := make(map[string]bool)
	for _, n := range g.Isolated() {
		isolated[n] = true
	}

	for _, n := range g.Nodes() {
		attrs := []string{fmt.Sprintf("label=%q", label(n, opts.Roles))}
		style := []string{"rounded", "filled"}
		if scene.IsConnector(n) {
			style = append(style, "dashed")
		}
		if isolated[n] {
			style = append(style, "bold")
		}
		attrs = append(attrs, fmt.Sprintf("style=%q", strings.Join(style, ",")))
		if s, ok := severity[n]; ok {
			attrs = append(attrs, "fillcolor="+fill(s))
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		fmt.Fprintf(&buf, "  %q -- %q;\n", e.A, e.B)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func label(name string, roles bool) string {
	if !roles {
		return name
	}
	var rs []string
	if scene.IsGroundContact(name) {
		rs = append(rs, "ground")
	}
	if scene.IsSupportedSurface(name) {
		rs = append(rs, "surface")
	}
	if scene.IsBackOrArm(name) {
		rs = append(rs, "back/arm")
	}
	if len(rs) == 0 {
		return name
	}
	return name + "\n" + strings.Join(rs, ", ")
}

// severities maps each component to the worst severity reported for it.
func severities(r *assembly.Report) map[string]assembly.Severity {
	out := make(map[string]assembly.Severity)
	if r == nil {
		return out
	}
	for _, v := range r.Violations {
		if v.Component == "" {
			continue
		}
		if cur, ok := out[v.Component]; !ok || v.Severity > cur {
			out[v.Component] = v.Severity
		}
	}
	return out
}

func fill(s assembly.Severity) string {
	if s == assembly.SeverityError {
		return "\"#f4cccc\""
	}
	return "\"#fff2cc\""
}

// RenderSVG renders DOT text to SVG.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render")
	}
	return buf.Bytes(), nil
}
