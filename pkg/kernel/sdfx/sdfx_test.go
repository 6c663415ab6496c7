package sdfx

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/chazu/trestle/pkg/kernel"
)

func checkBounds(t *testing.T, min, max, wantMin, wantMax [3]float64, tol float64) {
	t.Helper()
	for i := 0; i < 3; i++ {
		if math.Abs(min[i]-wantMin[i]) > tol {
			t.Errorf("min[%d] = %f, expected ~%f", i, min[i], wantMin[i])
		}
		if math.Abs(max[i]-wantMax[i]) > tol {
			t.Errorf("max[%d] = %f, expected ~%f", i, max[i], wantMax[i])
		}
	}
}

func TestBoxIsCentered(t *testing.T) {
	k := New()
	min, max := k.Box(1.2, 0.8, 0.03).BoundingBox()
	checkBounds(t, min, max, [3]float64{-0.6, -0.4, -0.015}, [3]float64{0.6, 0.4, 0.015}, 1e-6)
}

func TestPrimitivesMesh(t *testing.T) {
	k := New(WithMeshCells(24))
	tests := []struct {
		name  string
		solid kernel.Solid
	}{
		{"box", k.Box(1, 1, 1)},
		{"cylinder", k.Cylinder(0.72, 0.03, 32)},
		{"sphere", k.Sphere(0.05)},
		{"cone", k.Cone(1, 0.5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mesh, err := k.ToMesh(tt.solid)
			if err != nil {
				t.Fatalf("ToMesh failed: %v", err)
			}
			if mesh.IsEmpty() || mesh.TriangleCount() == 0 {
				t.Fatal("mesh is empty")
			}
			if len(mesh.Vertices) != len(mesh.Normals) {
				t.Fatalf("vertices length %d != normals length %d", len(mesh.Vertices), len(mesh.Normals))
			}
			if len(mesh.Indices) != mesh.TriangleCount()*3 {
				t.Fatalf("indices length %d != triangles*3", len(mesh.Indices))
			}
		})
	}
}

func TestCylinderBounds(t *testing.T) {
	k := New()
	min, max := k.Cylinder(0.72, 0.03, 32).BoundingBox()
	checkBounds(t, min, max, [3]float64{-0.03, -0.03, -0.36}, [3]float64{0.03, 0.03, 0.36}, 1e-6)
}

func TestTranslate(t *testing.T) {
	k := New()
	moved := k.Translate(k.Box(10, 10, 10), 100, 200, 300)
	min, max := moved.BoundingBox()
	checkBounds(t, min, max, [3]float64{95, 195, 295}, [3]float64{105, 205, 305}, 0.5)
}

func TestRotate(t *testing.T) {
	k := New()
	// A long box along X rotated 90 degrees around Z extends along Y.
	min, max := k.Rotate(k.Box(100, 10, 10), 0, 0, 90).BoundingBox()
	if x := max[0] - min[0]; math.Abs(x-10) > 1 {
		t.Errorf("rotated X extent = %f, expected ~10", x)
	}
	if y := max[1] - min[1]; math.Abs(y-100) > 1 {
		t.Errorf("rotated Y extent = %f, expected ~100", y)
	}
}

func TestBooleans(t *testing.T) {
	k := New(WithMeshCells(32))
	a := k.Box(1, 1, 1)
	b := k.Translate(k.Box(1, 1, 1), 0.5, 0, 0)

	for name, s := range map[string]kernel.Solid{
		"union":        k.Union(a, b),
		"difference":   k.Difference(a, k.Cylinder(1.2, 0.2, 32)),
		"intersection": k.Intersection(a, b),
	} {
		t.Run(name, func(t *testing.T) {
			mesh, err := k.ToMesh(s)
			if err != nil {
				t.Fatalf("ToMesh failed: %v", err)
			}
			if mesh.IsEmpty() {
				t.Fatalf("%s mesh is empty", name)
			}
		})
	}

	min, max := k.Union(a, b).BoundingBox()
	checkBounds(t, min, max, [3]float64{-0.5, -0.5, -0.5}, [3]float64{1, 0.5, 0.5}, 1e-6)
}

func TestSaveSTL(t *testing.T) {
	k := New(WithMeshCells(16))
	path := filepath.Join(t.TempDir(), "box.stl")
	if err := k.SaveSTL(k.Box(1, 1, 1), path); err != nil {
		t.Fatalf("SaveSTL: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	// Binary STL: 80 byte header, 4 byte count, 50 bytes per triangle.
	if info.Size() <= 84 {
		t.Errorf("STL file too small: %d bytes", info.Size())
	}
}
