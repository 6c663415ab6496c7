// Package export realizes validated components as kernel solids and writes
// the scene artifact: a JSON scene carrying components and meshes, plus one
// STL file per component.
package export

import (
	"io"
	"math"

	"github.com/charmbracelet/log"

	"github.com/chazu/trestle/pkg/kernel"
	"github.com/chazu/trestle/pkg/scene"
)

const (
	// planeThickness is the slab thickness planes are realized with.
	planeThickness = 1e-3
	// curveRadius is the tube radius of realized bezier curves.
	curveRadius = 0.005
)

// Builder turns components into solids with a kernel. The builder is
// read-only and never mutates the components it is given.
type Builder struct {
	kernel kernel.Kernel
	logger *log.Logger
}

// NewBuilder returns a builder on k. A nil logger discards output.
func NewBuilder(k kernel.Kernel, logger *log.Logger) *Builder {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Builder{kernel: k, logger: logger}
}

// Solid realizes c as the union of its operations. It reports false when
// no operation produced geometry.
func (b *Builder) Solid(c scene.Component) (kernel.Solid, bool) {
	var out kernel.Solid
	for i, op := range c.Operations {
		s, ok := b.operation(op)
		if !ok {
			if op.Kind() == scene.ShapeUnknown && i == 0 {
				b.logger.Warn("skipping unrecognized operation", "component", c.Name, "op", op.Op)
			}
			continue
		}
		if out == nil {
			out = s
		} else {
			out = b.kernel.Union(out, s)
		}
	}
	return out, out != nil
}

// Meshes tessellates every component that has geometry, one mesh each, in
// input order.
func (b *Builder) Meshes(comps []scene.Component) ([]*kernel.Mesh, error) {
	var meshes []*kernel.Mesh
	for _, c := range comps {
		s, ok := b.Solid(c)
		if !ok {
			b.logger.Warn("component has no geometry", "component", c.Name)
			continue
		}
		m, err := b.kernel.ToMesh(s)
		if err != nil {
			return nil, err
		}
		m.Component = c.Name
		meshes = append(meshes, m)
	}
	return meshes, nil
}

func (b *Builder) operation(op scene.Operation) (kernel.Solid, bool) {
	k := b.kernel
	t := op.Transform
	sx, sy, sz := t.Scale.X, t.Scale.Y, t.Scale.Z
	radial := math.Max(math.Abs(sx), math.Abs(sy))

	var s kernel.Solid
	switch sh := op.Shape.(type) {
	case scene.Box:
		s = positive(k.Box, sh.Width*sx, sh.Depth*sy, sh.Height*sz)
	case scene.Cylinder:
		if sh.Radius > 0 && sh.Height > 0 {
			s = k.Cylinder(sh.Height*math.Abs(sz), sh.Radius*radial, sh.Segments)
		}
	case scene.Sphere:
		if r := sh.Radius * math.Max(radial, math.Abs(sz)); r > 0 {
			s = k.Sphere(r)
		}
	case scene.Cone:
		if sh.Radius > 0 && sh.Height > 0 {
			s = k.Cone(sh.Height*math.Abs(sz), sh.Radius*radial)
		}
	case scene.Torus:
		s = b.torus(sh, radial, math.Abs(sz))
	case scene.Plane:
		s = positive(k.Box, sh.Width*sx, sh.Depth*sy, planeThickness)
	case scene.Prism:
		r := (sh.RMin + sh.RMax) / 2 * radial
		h := 2 * (sh.Height + sh.Tilt) * math.Abs(sz)
		if r > 0 && h > 0 {
			s = k.Cylinder(h, r, sh.Sides)
		}
	case scene.Bezier:
		// Curve anchors are already placed; no rotation or translation.
		return b.curve(sh, t)
	}
	if s == nil {
		return nil, false
	}

	if !t.Rotation.IsZero() {
		s = k.Rotate(s, degrees(t.Rotation.X), degrees(t.Rotation.Y), degrees(t.Rotation.Z))
	}
	if !t.Location.IsZero() {
		s = k.Translate(s, t.Location.X, t.Location.Y, t.Location.Z)
	}
	return s, true
}

// torus approximates a ring as an annular cylinder of the tube's thickness.
func (b *Builder) torus(sh scene.Torus, radial, sz float64) kernel.Solid {
	outer := (sh.MajorRadius + sh.MinorRadius) * radial
	inner := (sh.MajorRadius - sh.MinorRadius) * radial
	h := 2 * sh.MinorRadius * sz
	if outer <= 0 || h <= 0 {
		return nil
	}
	ring := b.kernel.Cylinder(h, outer, sh.MajorSegments)
	if inner <= 0 {
		return ring
	}
	return b.kernel.Difference(ring, b.kernel.Cylinder(2*h, inner, sh.MajorSegments))
}

// curve realizes a bezier as tubes along its control polygon.
func (b *Builder) curve(sh scene.Bezier, t scene.Transform) (kernel.Solid, bool) {
	var out kernel.Solid
	for i := 1; i < len(sh.Anchors); i++ {
		p := t.Location.Add(t.Scale.Mul(sh.Anchors[i-1]))
		q := t.Location.Add(t.Scale.Mul(sh.Anchors[i]))
		seg, ok := b.segment(p, q)
		if !ok {
			continue
		}
		if out == nil {
			out = seg
		} else {
			out = b.kernel.Union(out, seg)
		}
	}
	return out, out != nil
}

// segment is a cylinder from p to q.
func (b *Builder) segment(p, q scene.Vec3) (kernel.Solid, bool) {
	d := q.Sub(p)
	length := d.Norm()
	if length == 0 {
		return nil, false
	}
	s := b.kernel.Cylinder(length, curveRadius, 8)
	s = b.kernel.Rotate(s, 0, degrees(math.Acos(d.Z/length)), degrees(math.Atan2(d.Y, d.X)))
	mid := p.Add(d.Scale(0.5))
	return b.kernel.Translate(s, mid.X, mid.Y, mid.Z), true
}

func positive(box func(x, y, z float64) kernel.Solid, x, y, z float64) kernel.Solid {
	x, y, z = math.Abs(x), math.Abs(y), math.Abs(z)
	if x == 0 || y == 0 || z == 0 {
		return nil
	}
	return box(x, y, z)
}

func degrees(rad float64) float64 { return rad * 180 / math.Pi }
