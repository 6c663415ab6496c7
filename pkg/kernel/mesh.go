package kernel

import "math"

// Mesh is a triangle mesh. All arrays are flat: vertices and normals have
// 3 floats per vertex, indices 3 per triangle.
type Mesh struct {
	Vertices  []float32 `json:"vertices"`
	Normals   []float32 `json:"normals"`
	Indices   []uint32  `json:"indices"`
	Component string    `json:"component"` // which component this came from
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Bounds returns the axis-aligned bounds of the vertices. An empty mesh
// returns zero bounds.
func (m *Mesh) Bounds() (min, max [3]float64) {
	if m.IsEmpty() {
		return min, max
	}
	for i := range 3 {
		min[i], max[i] = math.Inf(1), math.Inf(-1)
	}
	for v := 0; v+2 < len(m.Vertices); v += 3 {
		for i := range 3 {
			f := float64(m.Vertices[v+i])
			min[i] = math.Min(min[i], f)
			max[i] = math.Max(max[i], f)
		}
	}
	return min, max
}
