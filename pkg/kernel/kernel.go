// Package kernel defines the geometry kernel the exporter realizes
// components with. Backends (see kernel/sdfx) provide solids, booleans and
// tessellation behind this interface.
package kernel

// Solid is an opaque handle to a kernel solid.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel builds and tessellates solids. Every primitive is centered on the
// origin with its axis along z.
type Kernel interface {
	// Primitives
	Box(x, y, z float64) Solid
	Cylinder(height, radius float64, segments int) Solid
	Sphere(radius float64) Solid
	Cone(height, radius float64) Solid

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees

	// Output
	ToMesh(s Solid) (*Mesh, error)
	SaveSTL(s Solid, path string) error
}
