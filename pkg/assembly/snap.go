package assembly

import (
	"math"

	"github.com/chazu/trestle/pkg/scene"
)

// SnapResult lists what SnapConnections changed.
type SnapResult struct {
	Moved   []string
	Bridged []string
}

// SnapConnections closes the gaps between declared pairs that neither touch
// nor have their chosen anchors within Tolerance.
//
// Back and arm parts connect their bottom anchor to the other side's top.
// Otherwise each side uses its highest priority anchor, preferring the one
// facing the other component.
//
// Exactly one side moves. Ground-contact components, the names in pinned
// and anything already moved by this pass are fixed; the free side of a pair
// moves, and when both or neither are fixed the later component in the list
// does. With BridgeFixedPairs a pair with both sides fixed gets a connector
// cylinder between the anchors instead. A ground-contact component that has
// to move only moves horizontally; a vertical gap left behind is reported as
// an error.
func SnapConnections(comps []scene.Component, g *Graph, conns Connections, pinned []string, opts Options) ([]scene.Component, SnapResult, Report) {
	opts = opts.withDefaults()
	out := scene.Clone(comps)
	var res SnapResult
	var rep Report

	index := make(map[string]int, len(out))
	fixed := make(map[string]bool, len(out))
	for i, c := range out {
		index[c.Name] = i
		if scene.IsGroundContact(c.Name) {
			fixed[c.Name] = true
		}
	}
	for _, name := range pinned {
		fixed[name] = true
	}
	moved := make(map[string]bool)

	for _, p := range conns.Pairs() {
		ia, okA := index[p.A]
		ib, okB := index[p.B]
		if !okA || !okB {
			for _, n := range []string{p.A, p.B} {
				if _, ok := index[n]; !ok {
					rep.warn(PassSnap, n, "declared connection names an unknown component")
				}
			}
			continue
		}
		ma, mb := measureComponent(out[ia]), measureComponent(out[ib])
		if !ma.present || !mb.present {
			rep.warn(PassSnap, p.A+"/"+p.B, "connection skipped: component has no operations")
			continue
		}

		touching := g != nil && g.Touching(p.A, p.B) && !moved[p.A] && !moved[p.B]
		touching = touching || ma.bounds.Touches(mb.bounds, opts.Tolerance)
		pa, pb := chooseAnchors(p.A, p.B, ma, mb)
		if touching || pa.Dist(pb) <= opts.Tolerance {
			continue
		}

		fa, fb := fixed[p.A] || moved[p.A], fixed[p.B] || moved[p.B]
		if fa && fb && opts.BridgeFixedPairs {
			name := scene.ConnectorPrefix + p.A + "_" + p.B
			if _, exists := index[name]; !exists {
				out = append(out, connector(name, pa, pb, opts.ConnectorRadius))
				index[name] = len(out) - 1
				res.Bridged = append(res.Bridged, name)
				rep.adjust(PassSnap, name, pb.Sub(pa), "inserted connector between %s and %s", p.A, p.B)
			}
			continue
		}

		mover, from, to := ib, pb, pa
		switch {
		case fa && !fb:
		case fb && !fa:
			mover, from, to = ia, pa, pb
		case ia > ib:
			mover, from, to = ia, pa, pb
		}
		delta := to.Sub(from)
		name := out[mover].Name
		if scene.IsGroundContact(name) && math.Abs(delta.Z) > opts.Tolerance {
			rep.fail(PassSnap, name, "connection to %s left open by %.4g: closing it would lift it off the ground", otherOf(p, name), delta.Z)
			delta.Z = 0
			if delta.Norm() <= opts.Tolerance {
				continue
			}
		}
		translate(&out[mover], delta)
		moved[name] = true
		res.Moved = append(res.Moved, name)
		rep.adjust(PassSnap, name, delta, "snapped to %s", otherOf(p, name))
		opts.Logger.Debug("snapped", "component", name, "delta", delta)
	}
	return out, res, rep
}

func otherOf(p Pair, name string) string {
	if p.A == name {
		return p.B
	}
	return p.A
}

func chooseAnchors(a, b string, ma, mb measure) (scene.Vec3, scene.Vec3) {
	backA, backB := scene.IsBackOrArm(a), scene.IsBackOrArm(b)
	switch {
	case backA && !backB:
		return ma.anchor(AnchorBottom), mb.anchor(AnchorTop)
	case backB && !backA:
		return ma.anchor(AnchorTop), mb.anchor(AnchorBottom)
	}
	return ma.anchors.Best(mb.center()).Point, mb.anchors.Best(ma.center()).Point
}

// connector returns a cylinder running from p to q.
func connector(name string, p, q scene.Vec3, radius float64) scene.Component {
	d := q.Sub(p)
	length := d.Norm()
	theta := math.Acos(d.Z / length)
	phi := math.Atan2(d.Y, d.X)
	return scene.Component{
		Name: name,
		Operations: []scene.Operation{scene.NewOperation(
			scene.Cylinder{Radius: radius, Height: length, Segments: 16},
			scene.Transform{
				Location: p.Add(d.Scale(0.5)),
				Rotation: scene.Vec3{Y: theta, Z: phi},
				Scale:    scene.One,
			},
		)},
	}
}
