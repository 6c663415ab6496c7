// Package sdfx implements kernel.Kernel with the github.com/deadsy/sdfx
// signed distance field library.
package sdfx

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/trestle/pkg/errors"
	"github.com/chazu/trestle/pkg/kernel"
)

var _ kernel.Kernel = (*Kernel)(nil)

// DefaultMeshCells is the marching cubes resolution along the longest axis.
const DefaultMeshCells = 64

type solid struct {
	s sdf.SDF3
}

func (s *solid) BoundingBox() (min, max [3]float64) {
	bb := s.s.BoundingBox()
	return [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}, [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
}

// Kernel is the sdfx backend.
type Kernel struct {
	cells int
}

// Option configures a Kernel.
type Option func(*Kernel)

// WithMeshCells sets the marching cubes resolution.
func WithMeshCells(n int) Option {
	return func(k *Kernel) {
		if n > 0 {
			k.cells = n
		}
	}
}

// New returns an sdfx kernel.
func New(opts ...Option) *Kernel {
	k := &Kernel{cells: DefaultMeshCells}
	for _, o := range opts {
		o(k)
	}
	return k
}

func unwrap(s kernel.Solid) sdf.SDF3 { return s.(*solid).s }
func wrap(s sdf.SDF3) kernel.Solid   { return &solid{s: s} }

// must panics on constructor errors. sdfx only rejects non-positive sizes,
// which callers filter out before reaching the kernel.
func must(s sdf.SDF3, err error) kernel.Solid {
	if err != nil {
		panic(fmt.Sprintf("sdfx: %v", err))
	}
	return wrap(s)
}

// Box creates a box centered on the origin.
func (k *Kernel) Box(x, y, z float64) kernel.Solid {
	return must(sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, 0))
}

// Cylinder creates a z-aligned cylinder centered on the origin. Segments is
// ignored; SDF surfaces are smooth.
func (k *Kernel) Cylinder(height, radius float64, segments int) kernel.Solid {
	return must(sdf.Cylinder3D(height, radius, 0))
}

// Sphere creates a sphere centered on the origin.
func (k *Kernel) Sphere(radius float64) kernel.Solid {
	return must(sdf.Sphere3D(radius))
}

// Cone creates a z-aligned cone centered on the origin, base down.
func (k *Kernel) Cone(height, radius float64) kernel.Solid {
	return must(sdf.Cone3D(height, radius, 0, 0))
}

// Union returns the union of two solids.
func (k *Kernel) Union(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Union3D(unwrap(a), unwrap(b)))
}

// Difference returns a - b.
func (k *Kernel) Difference(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Difference3D(unwrap(a), unwrap(b)))
}

// Intersection returns the intersection of two solids.
func (k *Kernel) Intersection(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Intersect3D(unwrap(a), unwrap(b)))
}

// Translate moves a solid by (x, y, z).
func (k *Kernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	return wrap(sdf.Transform3D(unwrap(s), sdf.Translate3d(v3.Vec{X: x, Y: y, Z: z})))
}

// Rotate rotates a solid by Euler angles in degrees, applied X then Y then Z.
func (k *Kernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	rad := func(deg float64) float64 { return deg * math.Pi / 180 }
	m := sdf.RotateZ(rad(z)).Mul(sdf.RotateY(rad(y))).Mul(sdf.RotateX(rad(x)))
	return wrap(sdf.Transform3D(unwrap(s), m))
}

// ToMesh tessellates a solid with marching cubes. Vertices are not shared;
// every triangle carries its face normal.
func (k *Kernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	triangles := render.ToTriangles(unwrap(s), render.NewMarchingCubesUniform(k.cells))

	n := len(triangles) * 3
	m := &kernel.Mesh{
		Vertices: make([]float32, 0, n*3),
		Normals:  make([]float32, 0, n*3),
		Indices:  make([]uint32, 0, n),
	}
	for i, tri := range triangles {
		normal := tri.Normal()
		for j := 0; j < 3; j++ {
			v := tri[j]
			m.Vertices = append(m.Vertices, float32(v.X), float32(v.Y), float32(v.Z))
			m.Normals = append(m.Normals, float32(normal.X), float32(normal.Y), float32(normal.Z))
			m.Indices = append(m.Indices, uint32(i*3+j))
		}
	}
	return m, nil
}

// SaveSTL tessellates a solid and writes it as a binary STL file.
func (k *Kernel) SaveSTL(s kernel.Solid, path string) error {
	triangles := render.ToTriangles(unwrap(s), render.NewMarchingCubesUniform(k.cells))
	if err := render.SaveSTL(path, triangles); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
	}
	return nil
}
