package assembly

import (
	"math"

	"github.com/chazu/trestle/pkg/scene"
)

// AnchorLabel names a structurally meaningful point on a component.
type AnchorLabel string

const (
	AnchorTop    AnchorLabel = "top"
	AnchorBottom AnchorLabel = "bottom"
	AnchorCenter AnchorLabel = "center"
)

// Anchor is a labeled world-space point. Higher priority wins when a
// connection has to pick one.
type Anchor struct {
	Label    AnchorLabel
	Point    scene.Vec3
	Priority int
}

// Anchors is the set of anchors of one operation, keyed by label.
type Anchors map[AnchorLabel]Anchor

// Best returns the highest priority anchor. Ties go to the anchor facing
// toward: top when toward lies above the center, bottom otherwise.
func (a Anchors) Best(toward scene.Vec3) Anchor {
	best, ok := a[AnchorCenter]
	for _, label := range []AnchorLabel{AnchorTop, AnchorBottom} {
		cand, has := a[label]
		if !has {
			continue
		}
		if !ok || cand.Priority > best.Priority {
			best, ok = cand, true
			continue
		}
		if cand.Priority == best.Priority && best.Label != AnchorCenter {
			above := toward.Z > a[AnchorCenter].Point.Z
			if (above && label == AnchorTop) || (!above && label == AnchorBottom) {
				best = cand
			}
		}
	}
	return best
}

// Bounds is an axis-aligned box in world space.
type Bounds struct {
	Min, Max scene.Vec3
}

// Touches reports whether b and o overlap or lie within tol of each other on
// all three axes.
func (b Bounds) Touches(o Bounds, tol float64) bool {
	return b.Min.X <= o.Max.X+tol && o.Min.X <= b.Max.X+tol &&
		b.Min.Y <= o.Max.Y+tol && o.Min.Y <= b.Max.Y+tol &&
		b.Min.Z <= o.Max.Z+tol && o.Min.Z <= b.Max.Z+tol
}

// ContainsXY reports whether p lies inside the xy footprint of b, grown by tol.
func (b Bounds) ContainsXY(p scene.Vec3, tol float64) bool {
	return p.X >= b.Min.X-tol && p.X <= b.Max.X+tol &&
		p.Y >= b.Min.Y-tol && p.Y <= b.Max.Y+tol
}

// halfExtents returns the half size of s along x, y and z before scaling.
// ok is false for shapes with no analytic extent.
func halfExtents(s scene.Shape) (x, y, z float64, ok bool) {
	switch sh := s.(type) {
	case scene.Box:
		return sh.Width / 2, sh.Depth / 2, sh.Height / 2, true
	case scene.Cylinder:
		return sh.Radius, sh.Radius, sh.Height / 2, true
	case scene.Cone:
		return sh.Radius, sh.Radius, sh.Height / 2, true
	case scene.Sphere:
		return sh.Radius, sh.Radius, sh.Radius, true
	case scene.Torus:
		r := sh.MajorRadius + sh.MinorRadius
		return r, r, sh.MinorRadius, true
	case scene.Plane:
		return sh.Width / 2, sh.Depth / 2, 0, true
	case scene.Prism:
		return sh.RMax, sh.RMax, sh.Height + sh.Tilt, true
	default:
		return 0, 0, 0, false
	}
}

func centerOnly(loc scene.Vec3) (Bounds, Anchors) {
	return Bounds{Min: loc, Max: loc}, Anchors{
		AnchorCenter: {Label: AnchorCenter, Point: loc, Priority: 0},
	}
}

// MetricsOf computes the world bounds and anchors of op. Rotation is ignored.
// For shapes it cannot measure it returns center-only anchors at the
// operation's location, point bounds and ok == false.
func MetricsOf(op scene.Operation) (Bounds, Anchors, bool) {
	t := op.Transform
	loc := t.Location

	if b, isCurve := op.Shape.(scene.Bezier); isCurve {
		return curveMetrics(b, t)
	}

	hx, hy, hz, ok := halfExtents(op.Shape)
	if !ok {
		bounds, anchors := centerOnly(loc)
		return bounds, anchors, false
	}
	half := scene.Vec3{
		X: hx * math.Abs(t.Scale.X),
		Y: hy * math.Abs(t.Scale.Y),
		Z: hz * math.Abs(t.Scale.Z),
	}
	bounds := Bounds{Min: loc.Sub(half), Max: loc.Add(half)}
	up := scene.Vec3{Z: half.Z}
	return bounds, Anchors{
		AnchorTop:    {Label: AnchorTop, Point: loc.Add(up), Priority: 1},
		AnchorBottom: {Label: AnchorBottom, Point: loc.Sub(up), Priority: 1},
		AnchorCenter: {Label: AnchorCenter, Point: loc, Priority: 0},
	}, true
}

// curveWorld maps the anchors of a curve into world space.
func curveWorld(b scene.Bezier, t scene.Transform) []scene.Vec3 {
	pts := make([]scene.Vec3, len(b.Anchors))
	for i, a := range b.Anchors {
		pts[i] = t.Location.Add(t.Scale.Mul(a))
	}
	return pts
}

func curveMetrics(b scene.Bezier, t scene.Transform) (Bounds, Anchors, bool) {
	pts := curveWorld(b, t)
	if len(pts) == 0 {
		bounds, anchors := centerOnly(t.Location)
		return bounds, anchors, false
	}

	bounds := Bounds{Min: pts[0], Max: pts[0]}
	low, high := pts[0], pts[0]
	var sum scene.Vec3
	for _, p := range pts {
		bounds.Min = scene.Vec3{X: math.Min(bounds.Min.X, p.X), Y: math.Min(bounds.Min.Y, p.Y), Z: math.Min(bounds.Min.Z, p.Z)}
		bounds.Max = scene.Vec3{X: math.Max(bounds.Max.X, p.X), Y: math.Max(bounds.Max.Y, p.Y), Z: math.Max(bounds.Max.Z, p.Z)}
		if p.Z < low.Z {
			low = p
		}
		if p.Z > high.Z {
			high = p
		}
		sum = sum.Add(p)
	}
	return bounds, Anchors{
		AnchorTop:    {Label: AnchorTop, Point: high, Priority: 1},
		AnchorBottom: {Label: AnchorBottom, Point: low, Priority: 1},
		AnchorCenter: {Label: AnchorCenter, Point: sum.Scale(1 / float64(len(pts))), Priority: 0},
	}, true
}

// measure is the metrics of a component's primary operation. present is
// false when the component has no operations at all.
type measure struct {
	bounds  Bounds
	anchors Anchors
	known   bool
	present bool
}

func measureComponent(c scene.Component) measure {
	op, ok := c.Primary()
	if !ok {
		return measure{}
	}
	b, a, known := MetricsOf(*op)
	return measure{bounds: b, anchors: a, known: known, present: true}
}

func (m measure) top() float64    { return m.anchor(AnchorTop).Z }
func (m measure) bottom() float64 { return m.anchor(AnchorBottom).Z }
func (m measure) center() scene.Vec3 {
	return m.anchors[AnchorCenter].Point
}

// anchor falls back to the center for center-only shapes.
func (m measure) anchor(label AnchorLabel) scene.Vec3 {
	if a, ok := m.anchors[label]; ok {
		return a.Point
	}
	return m.anchors[AnchorCenter].Point
}
