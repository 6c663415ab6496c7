package scene

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ShapeKind distinguishes between primitive shapes.
type ShapeKind int

const (
	ShapeUnknown  ShapeKind = iota // unrecognized operation, passed through
	ShapeBox                       // width x depth x height, centered
	ShapeCylinder                  // radius, height along z, centered
	ShapeSphere                    // radius
	ShapeCone                      // base radius, height along z, centered
	ShapeTorus                     // major/minor radius in the xy plane
	ShapePlane                     // width x depth, zero thickness
	ShapePrism                     // n-sided prism with jittered radii
	ShapeBezier                    // curve through anchors in the local frame
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeBox:
		return "box"
	case ShapeCylinder:
		return "cylinder"
	case ShapeSphere:
		return "sphere"
	case ShapeCone:
		return "cone"
	case ShapeTorus:
		return "torus"
	case ShapePlane:
		return "plane"
	case ShapePrism:
		return "prism"
	case ShapeBezier:
		return "bezier"
	default:
		return "unknown"
	}
}

// opAliases maps the final dotted segment of an operation tag to a shape.
// Generators emit several spellings for the same primitive.
var opAliases = map[string]ShapeKind{
	"box":                     ShapeBox,
	"cube":                    ShapeBox,
	"build_box_mesh":          ShapeBox,
	"primitive_cube_add":      ShapeBox,
	"new_cube":                ShapeBox,
	"cylinder":                ShapeCylinder,
	"build_cylinder_mesh":     ShapeCylinder,
	"primitive_cylinder_add":  ShapeCylinder,
	"new_cylinder":            ShapeCylinder,
	"sphere":                  ShapeSphere,
	"build_sphere_mesh":       ShapeSphere,
	"primitive_uv_sphere_add": ShapeSphere,
	"cone":                    ShapeCone,
	"build_cone_mesh":         ShapeCone,
	"primitive_cone_add":      ShapeCone,
	"torus":                   ShapeTorus,
	"build_torus_mesh":        ShapeTorus,
	"primitive_torus_add":     ShapeTorus,
	"plane":                   ShapePlane,
	"build_plane_mesh":        ShapePlane,
	"primitive_plane_add":     ShapePlane,
	"new_plane":               ShapePlane,
	"prism":                   ShapePrism,
	"build_prism_mesh":        ShapePrism,
	"build_convex_mesh":       ShapePrism,
	"bezier":                  ShapeBezier,
	"bezier_curve":            ShapeBezier,
	"align_bezier":            ShapeBezier,
}

// ParseShapeKind resolves an operation tag such as "mesh.build_box_mesh",
// "build_box_mesh" or "bpy.ops.mesh.primitive_cube_add" to a ShapeKind.
func ParseShapeKind(op string) ShapeKind {
	name := strings.ToLower(strings.TrimSpace(op))
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return opAliases[name]
}

// Shape is the typed parameter record of an operation. The set of
// implementations is closed; switch on the concrete type.
type Shape interface {
	Kind() ShapeKind
	shape() // restricts implementations to this package
}

// Box is a rectangular solid centered on its location.
type Box struct {
	Width, Depth, Height float64
}

// Cylinder is a z-aligned cylinder centered on its location.
type Cylinder struct {
	Radius, Height float64
	Segments       int
}

// Sphere is a UV sphere.
type Sphere struct {
	Radius          float64
	Segments, Rings int
}

// Cone is a z-aligned cone centered on its location.
type Cone struct {
	Radius, Height float64
	Segments       int
}

// Torus lies in the xy plane.
type Torus struct {
	MajorRadius, MinorRadius     float64
	MajorSegments, MinorSegments int
}

// Plane is a flat rectangle in the xy plane.
type Plane struct {
	Width, Depth float64
}

// Prism is an n-sided prism whose vertices spread over [-(Height+Tilt), Height+Tilt].
type Prism struct {
	Sides        int
	RMin, RMax   float64
	Height, Tilt float64
}

// Bezier is a curve. Anchors are in the operation's local frame; the world
// position of an anchor is location + scale*anchor.
type Bezier struct {
	Anchors         []Vec3
	VectorLocations []int
	Resolution      int
	ToMesh          bool
}

// Unknown carries the raw params of an operation that is not a recognized
// primitive (modifiers, shading calls, unparseable params).
type Unknown struct {
	Params map[string]json.RawMessage
}

func (Box) Kind() ShapeKind      { return ShapeBox }
func (Cylinder) Kind() ShapeKind { return ShapeCylinder }
func (Sphere) Kind() ShapeKind   { return ShapeSphere }
func (Cone) Kind() ShapeKind     { return ShapeCone }
func (Torus) Kind() ShapeKind    { return ShapeTorus }
func (Plane) Kind() ShapeKind    { return ShapePlane }
func (Prism) Kind() ShapeKind    { return ShapePrism }
func (Bezier) Kind() ShapeKind   { return ShapeBezier }
func (Unknown) Kind() ShapeKind  { return ShapeUnknown }

func (Box) shape()      {}
func (Cylinder) shape() {}
func (Sphere) shape()   {}
func (Cone) shape()     {}
func (Torus) shape()    {}
func (Plane) shape()    {}
func (Prism) shape()    {}
func (Bezier) shape()   {}
func (Unknown) shape()  {}

// ---------------------------------------------------------------------------
// Params decoding
// ---------------------------------------------------------------------------

// paramReader pulls typed fields out of a raw params object and remembers
// which keys it consumed so the rest can be passed through.
type paramReader struct {
	raw  map[string]json.RawMessage
	used map[string]bool
	err  error
}

func newParamReader(raw map[string]json.RawMessage) *paramReader {
	return &paramReader{raw: raw, used: make(map[string]bool)}
}

func (p *paramReader) decode(key string, dst any) bool {
	msg, ok := p.raw[key]
	if !ok || p.err != nil {
		return false
	}
	p.used[key] = true
	if err := json.Unmarshal(msg, dst); err != nil {
		p.err = fmt.Errorf("param %q: %w", key, err)
		return false
	}
	return true
}

func (p *paramReader) float(key string, def float64) float64 {
	var v float64
	if p.decode(key, &v) {
		return v
	}
	return def
}

func (p *paramReader) int(key string, def int) int {
	var v float64
	if p.decode(key, &v) {
		return int(v)
	}
	return def
}

func (p *paramReader) bool(key string, def bool) bool {
	var v bool
	if p.decode(key, &v) {
		return v
	}
	return def
}

// extra returns the params that were not consumed.
func (p *paramReader) extra() map[string]json.RawMessage {
	var out map[string]json.RawMessage
	for k, v := range p.raw {
		if p.used[k] {
			continue
		}
		if out == nil {
			out = make(map[string]json.RawMessage)
		}
		out[k] = v
	}
	return out
}

// decodeShape builds the typed shape for kind. Parameter defaults follow the
// mesh builders the generators target. Params that fail to decode degrade the
// operation to Unknown so the rest of the batch still validates.
func decodeShape(kind ShapeKind, raw map[string]json.RawMessage) (Shape, map[string]json.RawMessage) {
	p := newParamReader(raw)
	var s Shape

	switch kind {
	case ShapeBox:
		s = Box{
			Width:  p.float("width", 1),
			Depth:  p.float("depth", 1),
			Height: p.float("height", 1),
		}
	case ShapeCylinder:
		s = Cylinder{
			Radius:   p.float("radius", 1),
			Height:   p.float("height", 2),
			Segments: p.int("segments", 32),
		}
	case ShapeSphere:
		s = Sphere{
			Radius:   p.float("radius", 1),
			Segments: p.int("segments", 32),
			Rings:    p.int("rings", 16),
		}
	case ShapeCone:
		s = Cone{
			Radius:   p.float("radius", 1),
			Height:   p.float("height", 2),
			Segments: p.int("segments", 32),
		}
	case ShapeTorus:
		s = Torus{
			MajorRadius:   p.float("major_radius", 1),
			MinorRadius:   p.float("minor_radius", 0.25),
			MajorSegments: p.int("major_segments", 32),
			MinorSegments: p.int("minor_segments", 16),
		}
	case ShapePlane:
		s = Plane{
			Width: p.float("width", 1),
			Depth: p.float("depth", 1),
		}
	case ShapePrism:
		s = Prism{
			Sides:  p.int("n", 6),
			RMin:   p.float("r_min", 1),
			RMax:   p.float("r_max", 1.5),
			Height: p.float("height", 0.3),
			Tilt:   p.float("tilt", 0.3),
		}
	case ShapeBezier:
		var anchors []Vec3
		p.decode("anchors", &anchors)
		var vl []int
		p.decode("vector_locations", &vl)
		s = Bezier{
			Anchors:         anchors,
			VectorLocations: vl,
			Resolution:      p.int("resolution", 0),
			ToMesh:          p.bool("to_mesh", true),
		}
	default:
		return Unknown{Params: raw}, nil
	}

	if p.err != nil {
		return Unknown{Params: raw}, nil
	}
	return s, p.extra()
}

// encodeShape flattens s back into a params object, merged with extra.
func encodeShape(s Shape, extra map[string]json.RawMessage) map[string]any {
	out := make(map[string]any, len(extra)+4)
	for k, v := range extra {
		out[k] = v
	}

	switch sh := s.(type) {
	case Box:
		out["width"], out["depth"], out["height"] = sh.Width, sh.Depth, sh.Height
	case Cylinder:
		out["radius"], out["height"], out["segments"] = sh.Radius, sh.Height, sh.Segments
	case Sphere:
		out["radius"], out["segments"], out["rings"] = sh.Radius, sh.Segments, sh.Rings
	case Cone:
		out["radius"], out["height"], out["segments"] = sh.Radius, sh.Height, sh.Segments
	case Torus:
		out["major_radius"], out["minor_radius"] = sh.MajorRadius, sh.MinorRadius
		out["major_segments"], out["minor_segments"] = sh.MajorSegments, sh.MinorSegments
	case Plane:
		out["width"], out["depth"] = sh.Width, sh.Depth
	case Prism:
		out["n"], out["r_min"], out["r_max"] = sh.Sides, sh.RMin, sh.RMax
		out["height"], out["tilt"] = sh.Height, sh.Tilt
	case Bezier:
		anchors := sh.Anchors
		if anchors == nil {
			anchors = []Vec3{}
		}
		out["anchors"] = anchors
		if sh.VectorLocations != nil {
			out["vector_locations"] = sh.VectorLocations
		}
		if sh.Resolution != 0 {
			out["resolution"] = sh.Resolution
		}
		out["to_mesh"] = sh.ToMesh
	case Unknown:
		for k, v := range sh.Params {
			out[k] = v
		}
	}
	return out
}
