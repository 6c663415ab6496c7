package assembly

import (
	"io"
	"math"

	"github.com/charmbracelet/log"
)

// Options tunes the validator. The zero value is not useful; start from
// DefaultOptions.
type Options struct {
	// Tolerance is the touch and snap distance, in scene units.
	Tolerance float64 `toml:"tolerance"`
	// SupportReach is how far a support's top may sit from a surface's
	// bottom and still be counted as carrying it.
	SupportReach float64 `toml:"support_reach"`
	// PatternTolerance is the position tolerance of mirror checks.
	PatternTolerance float64 `toml:"pattern_tolerance"`
	// AngleTolerance is the allowed deviation of radial gaps, in radians.
	AngleTolerance float64 `toml:"angle_tolerance"`
	// Rerun repeats ground, support and snap once more after snapping.
	Rerun bool `toml:"rerun"`
	// BridgeFixedPairs inserts a connector cylinder between declared pairs
	// that are both pinned in place instead of moving one of them.
	BridgeFixedPairs bool `toml:"bridge_fixed_pairs"`
	// ConnectorRadius is the radius of inserted connectors.
	ConnectorRadius float64 `toml:"connector_radius"`

	Logger *log.Logger `toml:"-"`
}

// DefaultOptions returns millimetre tolerance on a metre-scale scene.
func DefaultOptions() Options {
	return Options{
		Tolerance:        0.001,
		SupportReach:     0.1,
		PatternTolerance: 0.01,
		AngleTolerance:   2 * math.Pi / 180,
		ConnectorRadius:  0.01,
	}
}

// withDefaults fills zero fields from DefaultOptions.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Tolerance <= 0 {
		o.Tolerance = d.Tolerance
	}
	if o.SupportReach <= 0 {
		o.SupportReach = d.SupportReach
	}
	if o.PatternTolerance <= 0 {
		o.PatternTolerance = d.PatternTolerance
	}
	if o.AngleTolerance <= 0 {
		o.AngleTolerance = d.AngleTolerance
	}
	if o.ConnectorRadius <= 0 {
		o.ConnectorRadius = d.ConnectorRadius
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	return o
}
