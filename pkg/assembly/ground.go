package assembly

import (
	"math"

	"github.com/chazu/trestle/pkg/scene"
)

// GroundResult describes what ResolveGround did.
type GroundResult struct {
	// Grounded lists the ground-contact components that were measured.
	Grounded []string
	// Adjustment is the lowest ground-contact z before the shift; every
	// component moved down by this amount.
	Adjustment float64
	Applied    bool
}

// ResolveGround shifts the whole assembly vertically so the lowest point of
// its ground-contact components lies on z = 0. Relative positions are kept.
// With no measurable ground-contact component the input is returned
// unchanged and a warning is reported.
func ResolveGround(comps []scene.Component, opts Options) ([]scene.Component, GroundResult, Report) {
	opts = opts.withDefaults()
	out := scene.Clone(comps)
	var res GroundResult
	var rep Report

	lowest := math.Inf(1)
	for _, c := range out {
		if !scene.IsGroundContact(c.Name) {
			continue
		}
		m := measureComponent(c)
		if !m.present {
			continue
		}
		res.Grounded = append(res.Grounded, c.Name)
		lowest = math.Min(lowest, m.bounds.Min.Z)
	}

	if len(res.Grounded) == 0 {
		rep.warn(PassGround, "", "no ground-contact components; assembly left in place")
		return out, res, rep
	}

	res.Adjustment = lowest
	if near(lowest, 0) {
		opts.Logger.Debug("ground already resolved", "components", len(res.Grounded))
		return out, res, rep
	}

	delta := scene.Vec3{Z: -lowest}
	for i := range out {
		if len(out[i].Operations) == 0 {
			continue
		}
		translate(&out[i], delta)
	}
	res.Applied = true
	rep.adjust(PassGround, "*", delta, "shifted assembly by %.4g so lowest base point is on the ground", -lowest)
	opts.Logger.Debug("ground resolved", "adjustment", lowest, "components", len(res.Grounded))
	return out, res, rep
}
