package assembly

import (
	"math"

	"github.com/chazu/trestle/pkg/scene"
)

// epsilon is the smallest change the passes bother to apply. Anything below
// it counts as already in place, which keeps repeated runs a fixed point.
const epsilon = 1e-9

func near(a, b float64) bool { return math.Abs(a-b) <= epsilon }

// translate moves every geometric operation of c rigidly by delta. Curves
// move their anchors; everything else moves its location. Unknown operations
// after the first are modifiers and carry no placement.
func translate(c *scene.Component, delta scene.Vec3) {
	for i := range c.Operations {
		op := &c.Operations[i]
		if i > 0 && op.Kind() == scene.ShapeUnknown {
			continue
		}
		translateOp(op, delta)
	}
}

func translateOp(op *scene.Operation, delta scene.Vec3) {
	b, ok := op.Shape.(scene.Bezier)
	if !ok {
		op.Transform.Location = op.Transform.Location.Add(delta)
		return
	}
	s := op.Transform.Scale
	if s.X == 0 || s.Y == 0 || s.Z == 0 {
		op.Transform.Location = op.Transform.Location.Add(delta)
		return
	}
	local := scene.Vec3{X: delta.X / s.X, Y: delta.Y / s.Y, Z: delta.Z / s.Z}
	anchors := make([]scene.Vec3, len(b.Anchors))
	for i, a := range b.Anchors {
		anchors[i] = a.Add(local)
	}
	b.Anchors = anchors
	op.Shape = b
}

// spanGround reshapes a support so it runs from z = 0 to z = target. It
// reports whether anything changed. Shapes without a height parameter are
// translated so their top meets target instead.
func spanGround(c *scene.Component, target float64) bool {
	op, ok := c.Primary()
	if !ok {
		return false
	}
	before := op.Transform.Location.Z
	sz := math.Abs(op.Transform.Scale.Z)

	var changed bool
	switch sh := op.Shape.(type) {
	case scene.Box:
		changed = setHeight(op, &sh.Height, target, sz)
		op.Shape = sh
	case scene.Cylinder:
		changed = setHeight(op, &sh.Height, target, sz)
		op.Shape = sh
	case scene.Cone:
		changed = setHeight(op, &sh.Height, target, sz)
		op.Shape = sh
	case scene.Prism:
		// Prism vertices span 2*(height+tilt).
		if sz == 0 || target/(2*sz)-sh.Tilt <= 0 {
			return liftRigid(c, target)
		}
		h := target/(2*sz) - sh.Tilt
		changed = !near(sh.Height, h) || !near(op.Transform.Location.Z, target/2) || !op.Transform.Rotation.IsZero()
		sh.Height = h
		op.Shape = sh
		op.Transform.Location.Z = target / 2
		op.Transform.Rotation = scene.Vec3{}
	case scene.Bezier:
		return rescaleCurve(c, target)
	default:
		return liftRigid(c, target)
	}

	// Secondary shapes follow the primary vertically.
	if dz := op.Transform.Location.Z - before; changed && dz != 0 {
		for i := 1; i < len(c.Operations); i++ {
			if c.Operations[i].Kind() != scene.ShapeUnknown {
				translateOp(&c.Operations[i], scene.Vec3{Z: dz})
			}
		}
	}
	return changed
}

// liftRigid zeroes the rotation of a support that has no height parameter
// and translates it so its top meets target.
func liftRigid(c *scene.Component, target float64) bool {
	op, _ := c.Primary()
	rotated := !op.Transform.Rotation.IsZero()
	op.Transform.Rotation = scene.Vec3{}
	return liftTop(c, target) || rotated
}

func setHeight(op *scene.Operation, height *float64, target, sz float64) bool {
	if sz == 0 {
		return false
	}
	h := target / sz
	changed := !near(*height, h) || !near(op.Transform.Location.Z, target/2) || !op.Transform.Rotation.IsZero()
	*height = h
	op.Transform.Location.Z = target / 2
	op.Transform.Rotation = scene.Vec3{}
	return changed
}

// liftTop translates c vertically so its top anchor sits at target.
func liftTop(c *scene.Component, target float64) bool {
	m := measureComponent(*c)
	dz := target - m.top()
	if near(dz, 0) {
		return false
	}
	translate(c, scene.Vec3{Z: dz})
	return true
}

// rescaleCurve maps the world z range of a curve's anchors onto [0, target].
func rescaleCurve(c *scene.Component, target float64) bool {
	op, _ := c.Primary()
	b := op.Shape.(scene.Bezier)
	t := op.Transform
	if len(b.Anchors) == 0 || t.Scale.Z == 0 {
		return false
	}

	pts := curveWorld(b, t)
	lo, hi := pts[0].Z, pts[0].Z
	for _, p := range pts {
		lo = math.Min(lo, p.Z)
		hi = math.Max(hi, p.Z)
	}
	if hi-lo <= epsilon {
		return liftTop(c, target)
	}
	if near(lo, 0) && near(hi, target) {
		return false
	}

	anchors := make([]scene.Vec3, len(b.Anchors))
	for i, p := range pts {
		z := (p.Z - lo) / (hi - lo) * target
		anchors[i] = b.Anchors[i]
		anchors[i].Z = (z - t.Location.Z) / t.Scale.Z
	}
	b.Anchors = anchors
	op.Shape = b
	return true
}
