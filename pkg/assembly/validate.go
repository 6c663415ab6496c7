package assembly

import (
	"github.com/google/uuid"

	"github.com/chazu/trestle/pkg/scene"
)

// Result is the outcome of one validation run.
type Result struct {
	Components []scene.Component `json:"components"`
	Graph      *Graph            `json:"graph"`
	Report     Report            `json:"report"`
}

// Validator runs the repair passes in a fixed order: ground contact,
// connectivity, support alignment, connection snapping, pattern checks.
type Validator struct {
	opts Options
}

// New creates a Validator. Zero option fields take their defaults.
func New(opts Options) *Validator {
	return &Validator{opts: opts.withDefaults()}
}

// Options returns the effective options.
func (v *Validator) Options() Options {
	return v.opts
}

// Validate repairs a copy of comps and reports what it did. The input is not
// modified. When conns is nil the connections are derived with
// DefaultConnections. Validate never fails; problems it cannot repair are
// returned as violations.
func (v *Validator) Validate(comps []scene.Component, conns Connections, patterns []PatternSpec) Result {
	opts := v.opts
	runID := uuid.NewString()
	log := opts.Logger.With("run", runID[:8])
	opts.Logger = log

	rep := Report{RunID: runID}
	rep.merge(lint(comps))

	if conns == nil {
		conns = DefaultConnections(comps, opts)
		log.Debug("derived connections", "pairs", len(conns.Pairs()))
	}

	out := scene.Clone(comps)
	cycles := 1
	if opts.Rerun {
		cycles = 2
	}

	var g *Graph
	for cycle := 0; cycle < cycles; cycle++ {
		var r Report

		out, _, r = ResolveGround(out, opts)
		rep.merge(r)

		g = BuildConnectivity(out, opts.Tolerance)
		log.Debug("connectivity built", "nodes", g.Len(), "edges", len(g.Edges()))

		var aligned SupportResult
		out, aligned, r = AlignSupports(out, g, opts)
		rep.merge(r)

		var snapped SnapResult
		out, snapped, r = SnapConnections(out, g, conns, aligned.Surfaces(), opts)
		rep.merge(r)

		if len(snapped.Moved) == 0 && len(snapped.Bridged) == 0 {
			break
		}
	}

	g = BuildConnectivity(out, opts.Tolerance)
	rep.merge(CheckPatterns(out, patterns, opts))

	rep.Violations = dedupe(rep.Violations)
	log.Info("validated", "components", len(out), "adjustments", len(rep.Adjustments), "violations", len(rep.Violations))
	return Result{Components: out, Graph: g, Report: rep}
}

// lint reports per-component input problems once per run.
func lint(comps []scene.Component) Report {
	var rep Report
	for _, c := range comps {
		op, ok := c.Primary()
		if !ok {
			rep.warn(PassInput, c.Name, "no operations; passed through unchanged")
			continue
		}
		if _, _, known := MetricsOf(*op); !known {
			rep.warn(PassInput, c.Name, "unrecognized shape %q; using center anchor only", op.Op)
			continue
		}
		// Planes are flat by construction.
		if x, y, z, ok := halfExtents(op.Shape); ok && (x <= 0 || y <= 0 || (z <= 0 && op.Kind() != scene.ShapePlane)) {
			rep.warn(PassInput, c.Name, "degenerate %s (%.4g x %.4g x %.4g)", op.Kind(), 2*x, 2*y, 2*z)
		}
	}
	return rep
}

// dedupe drops repeated violations, which a second cycle reproduces.
func dedupe(vs []Violation) []Violation {
	seen := make(map[Violation]bool, len(vs))
	out := vs[:0]
	for _, v := range vs {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
