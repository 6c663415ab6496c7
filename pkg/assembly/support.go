package assembly

import (
	"math"
	"slices"

	"github.com/chazu/trestle/pkg/scene"
)

// SupportResult maps each aligned surface to the supports it now rests on.
type SupportResult struct {
	Aligned map[string][]string
}

// Surfaces returns the aligned surface names, sorted.
func (r SupportResult) Surfaces() []string {
	out := make([]string, 0, len(r.Aligned))
	for s := range r.Aligned {
		out = append(out, s)
	}
	slices.Sort(out)
	return out
}

// AlignSupports seats every supported surface on its supports. Surfaces are
// handled lowest first. The supports of a surface are the ground-contact
// components whose top is not above the surface's top and which either touch
// the surface in g or stand inside its footprint. Legs standing inside the
// footprint count however short they are, unless a lower surface already
// rests on them; every other candidate must reach within SupportReach of the
// surface's bottom. The surface is moved so its bottom sits on the highest
// support top; every support is then stretched to span from the ground to
// that height.
func AlignSupports(comps []scene.Component, g *Graph, opts Options) ([]scene.Component, SupportResult, Report) {
	opts = opts.withDefaults()
	out := scene.Clone(comps)
	res := SupportResult{Aligned: make(map[string][]string)}
	var rep Report

	var surfaces []int
	lows := make(map[int]float64)
	for i, c := range out {
		if !scene.IsSupportedSurface(c.Name) {
			continue
		}
		m := measureComponent(c)
		if !m.present {
			continue
		}
		surfaces = append(surfaces, i)
		lows[i] = m.bottom()
	}
	slices.SortStableFunc(surfaces, func(a, b int) int {
		switch {
		case lows[a] < lows[b]:
			return -1
		case lows[a] > lows[b]:
			return 1
		}
		return 0
	})

	claimed := make(map[int]bool)
	for _, si := range surfaces {
		surface := out[si].Name
		ms := measureComponent(out[si])
		supports := findSupports(out, si, ms, g, claimed, opts)

		if len(supports) == 0 {
			// A base resting on the floor has nothing under it.
			if !scene.IsGroundContact(surface) {
				rep.warn(PassSupport, surface, "no supports found; alignment skipped")
			}
			continue
		}

		target := math.Inf(-1)
		for _, j := range supports {
			target = math.Max(target, measureComponent(out[j]).top())
		}
		if target <= opts.Tolerance {
			rep.warn(PassSupport, surface, "supports do not rise above the ground; alignment skipped")
			continue
		}

		if dz := target - ms.bottom(); !near(dz, 0) {
			translate(&out[si], scene.Vec3{Z: dz})
			rep.adjust(PassSupport, surface, scene.Vec3{Z: dz}, "seated on supports at z=%.4g", target)
		}

		names := make([]string, 0, len(supports))
		for _, j := range supports {
			claimed[j] = true
			names = append(names, out[j].Name)
			before := measureComponent(out[j]).top()
			if spanGround(&out[j], target) {
				rep.adjust(PassSupport, out[j].Name, scene.Vec3{Z: target - before}, "spans ground to %.4g under %s", target, surface)
			}
		}
		res.Aligned[surface] = names
		opts.Logger.Debug("surface aligned", "surface", surface, "supports", len(names), "height", target)
	}
	return out, res, rep
}

func findSupports(comps []scene.Component, si int, ms measure, g *Graph, claimed map[int]bool, opts Options) []int {
	surface := comps[si].Name
	var out []int
	for j, c := range comps {
		if j == si || !scene.IsGroundContact(c.Name) {
			continue
		}
		m := measureComponent(c)
		if !m.present {
			continue
		}
		top := m.top()
		if top > ms.top()+opts.Tolerance {
			continue
		}
		inside := ms.bounds.ContainsXY(m.center(), opts.Tolerance)
		if !inside && (g == nil || !g.Touching(surface, c.Name)) {
			continue
		}
		// Bases double as surfaces and keep the reach limit.
		leg := inside && !claimed[j] && !scene.IsSupportedSurface(c.Name)
		if leg || math.Abs(top-ms.bottom()) <= opts.SupportReach {
			out = append(out, j)
		}
	}
	return out
}
