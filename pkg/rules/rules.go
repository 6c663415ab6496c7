// Package rules evaluates rule files: small Lisp programs that declare which
// components of an assembly connect, which groups must be mirrored or
// radial, and validator overrides.
//
//	; table.rules
//	(tolerance 0.002)
//	(connect "Table_Top" (names-matching "leg"))
//	(mirror (names-matching "leg") :axis :x)
//
// Evaluation runs in a zygomys sandbox with no filesystem access.
package rules

import (
	"github.com/chazu/trestle/pkg/assembly"
)

// Rules is everything a rule file declared.
type Rules struct {
	Connections assembly.Connections
	Patterns    []assembly.PatternSpec

	Tolerance        *float64
	SupportReach     *float64
	PatternTolerance *float64
	AngleTolerance   *float64
	Rerun            *bool
	BridgeFixedPairs *bool
}

func newRules() *Rules {
	return &Rules{Connections: make(assembly.Connections)}
}

// Apply returns opts with every override the rules set.
func (r *Rules) Apply(opts assembly.Options) assembly.Options {
	if r == nil {
		return opts
	}
	if r.Tolerance != nil {
		opts.Tolerance = *r.Tolerance
	}
	if r.SupportReach != nil {
		opts.SupportReach = *r.SupportReach
	}
	if r.PatternTolerance != nil {
		opts.PatternTolerance = *r.PatternTolerance
	}
	if r.AngleTolerance != nil {
		opts.AngleTolerance = *r.AngleTolerance
	}
	if r.Rerun != nil {
		opts.Rerun = *r.Rerun
	}
	if r.BridgeFixedPairs != nil {
		opts.BridgeFixedPairs = *r.BridgeFixedPairs
	}
	return opts
}

// ConnectionsOrNil returns the declared connections, or nil when the file
// declared none so the validator falls back to its defaults.
func (r *Rules) ConnectionsOrNil() assembly.Connections {
	if r == nil || len(r.Connections) == 0 {
		return nil
	}
	return r.Connections
}
