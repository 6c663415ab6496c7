package scene

import (
	"encoding/json"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Vec3 is a 3D point or vector. It encodes to JSON as [x, y, z].
type Vec3 struct {
	X, Y, Z float64
}

// One is the identity scale.
var One = Vec3{1, 1, 1}

func (v Vec3) r3() r3.Vec      { return r3.Vec{X: v.X, Y: v.Y, Z: v.Z} }
func fromR3(v r3.Vec) Vec3     { return Vec3{v.X, v.Y, v.Z} }
func (v Vec3) Add(o Vec3) Vec3 { return fromR3(r3.Add(v.r3(), o.r3())) }
func (v Vec3) Sub(o Vec3) Vec3 { return fromR3(r3.Sub(v.r3(), o.r3())) }

// Scale multiplies every component by f.
func (v Vec3) Scale(f float64) Vec3 { return fromR3(r3.Scale(f, v.r3())) }

// Mul is the component-wise product.
func (v Vec3) Mul(o Vec3) Vec3 { return Vec3{v.X * o.X, v.Y * o.Y, v.Z * o.Z} }

// Norm is the Euclidean length.
func (v Vec3) Norm() float64 { return r3.Norm(v.r3()) }

// Dist is the Euclidean distance between v and o.
func (v Vec3) Dist(o Vec3) float64 { return r3.Norm(r3.Sub(v.r3(), o.r3())) }

// IsZero reports whether all components are exactly zero.
func (v Vec3) IsZero() bool { return v == Vec3{} }

func (v Vec3) String() string {
	return fmt.Sprintf("(%.4g, %.4g, %.4g)", v.X, v.Y, v.Z)
}

// MarshalJSON encodes v as a three element array.
func (v Vec3) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]float64{v.X, v.Y, v.Z})
}

// UnmarshalJSON accepts a two or three element array; a missing Z is zero.
func (v *Vec3) UnmarshalJSON(data []byte) error {
	var xs []float64
	if err := json.Unmarshal(data, &xs); err != nil {
		return fmt.Errorf("vec3: %w", err)
	}
	switch len(xs) {
	case 2:
		*v = Vec3{xs[0], xs[1], 0}
	case 3:
		*v = Vec3{xs[0], xs[1], xs[2]}
	default:
		return fmt.Errorf("vec3: expected 2 or 3 elements, got %d", len(xs))
	}
	return nil
}
