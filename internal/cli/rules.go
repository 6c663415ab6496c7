package cli

import (
	"fmt"
	"io"
	"math"

	"github.com/spf13/cobra"

	"github.com/chazu/trestle/pkg/rules"
)

func newRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules <file.rules> <components.json>",
		Short: "Evaluate a rule file against an assembly and print what it declares",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			comps, err := readComponents(args[1], cmd.InOrStdin())
			if err != nil {
				return err
			}
			r, err := rules.NewEngine().LoadFile(args[0], comps)
			if err != nil {
				return err
			}
			printRules(cmd.OutOrStdout(), args[0], r)
			return nil
		},
	}
}

func printRules(w io.Writer, title string, r *rules.Rules) {
	fmt.Fprintln(w, styleTitle.Render(title))

	pairs := r.Connections.Pairs()
	fmt.Fprintf(w, "  connections %s\n", styleNumber.Render(fmt.Sprint(len(pairs))))
	for _, p := range pairs {
		fmt.Fprintf(w, "    %s %s %s\n", p.A, styleDim.Render(iconArrow), p.B)
	}

	fmt.Fprintf(w, "  patterns %s\n", styleNumber.Render(fmt.Sprint(len(r.Patterns))))
	for _, p := range r.Patterns {
		fmt.Fprintf(w, "    %s\n", p)
	}

	overrides := []struct {
		name string
		set  bool
		val  string
	}{
		{"tolerance", r.Tolerance != nil, fmtFloat(r.Tolerance, 1)},
		{"support-reach", r.SupportReach != nil, fmtFloat(r.SupportReach, 1)},
		{"pattern-tolerance", r.PatternTolerance != nil, fmtFloat(r.PatternTolerance, 1)},
		{"angle-tolerance-deg", r.AngleTolerance != nil, fmtFloat(r.AngleTolerance, 180/math.Pi)},
		{"rerun", r.Rerun != nil, fmtBool(r.Rerun)},
		{"bridge-fixed-pairs", r.BridgeFixedPairs != nil, fmtBool(r.BridgeFixedPairs)},
	}
	for _, o := range overrides {
		if o.set {
			fmt.Fprintf(w, "  %s %s\n", o.name, styleNumber.Render(o.val))
		}
	}
}

func fmtFloat(f *float64, scale float64) string {
	if f == nil {
		return ""
	}
	return fmt.Sprintf("%g", *f*scale)
}

func fmtBool(b *bool) string {
	if b == nil {
		return ""
	}
	return fmt.Sprint(*b)
}
