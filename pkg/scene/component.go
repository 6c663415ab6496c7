package scene

import (
	"encoding/json"
	"fmt"
)

// Transform places an operation in the world. Rotation is Euler XYZ in radians.
type Transform struct {
	Location Vec3 `json:"location"`
	Rotation Vec3 `json:"rotation"`
	Scale    Vec3 `json:"scale"`
}

// Identity returns the transform with zero location/rotation and unit scale.
func Identity() Transform {
	return Transform{Scale: One}
}

// IsIdentity reports whether t is the identity transform.
func (t Transform) IsIdentity() bool {
	return t == Identity()
}

// UnmarshalJSON fills missing fields with identity defaults.
func (t *Transform) UnmarshalJSON(data []byte) error {
	var raw struct {
		Location *Vec3 `json:"location"`
		Rotation *Vec3 `json:"rotation"`
		Scale    *Vec3 `json:"scale"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("transform: %w", err)
	}
	*t = Identity()
	if raw.Location != nil {
		t.Location = *raw.Location
	}
	if raw.Rotation != nil {
		t.Rotation = *raw.Rotation
	}
	if raw.Scale != nil {
		t.Scale = *raw.Scale
	}
	return nil
}

// MaterialSpec is the materials agent's assignment for a component. Advisory
// only; the validator never reads it.
type MaterialSpec struct {
	Path   string         `json:"material_path,omitempty"`
	Params map[string]any `json:"material_params,omitempty"`
}

// Operation is one generator call: a shape and where to put it.
type Operation struct {
	Op        string    // original operation tag, e.g. "mesh.build_box_mesh"
	Shape     Shape     // typed params
	Transform Transform // placement

	extra map[string]json.RawMessage // params not modeled by Shape
}

// NewOperation builds an operation with the canonical tag for s.
func NewOperation(s Shape, t Transform) Operation {
	return Operation{Op: canonicalOp(s.Kind()), Shape: s, Transform: t}
}

func canonicalOp(k ShapeKind) string {
	switch k {
	case ShapeBezier:
		return "draw.bezier_curve"
	case ShapeUnknown:
		return "unknown"
	default:
		return "mesh.build_" + k.String() + "_mesh"
	}
}

// Kind is shorthand for o.Shape.Kind(), treating a nil shape as unknown.
func (o Operation) Kind() ShapeKind {
	if o.Shape == nil {
		return ShapeUnknown
	}
	return o.Shape.Kind()
}

type operationJSON struct {
	Operation string                     `json:"operation"`
	Params    map[string]json.RawMessage `json:"params,omitempty"`
	Transform *Transform                 `json:"transform,omitempty"`
}

// MarshalJSON writes the generator wire shape.
func (o Operation) MarshalJSON() ([]byte, error) {
	shape := o.Shape
	if shape == nil {
		shape = Unknown{}
	}
	out := struct {
		Operation string         `json:"operation"`
		Params    map[string]any `json:"params"`
		Transform *Transform     `json:"transform,omitempty"`
	}{
		Operation: o.Op,
		Params:    encodeShape(shape, o.extra),
	}
	// Modifier calls carry no placement; keep it that way on the way out.
	if shape.Kind() != ShapeUnknown || !o.Transform.IsIdentity() {
		t := o.Transform
		out.Transform = &t
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the generator wire shape. Unrecognized operations and
// unparseable params become Unknown shapes rather than errors.
func (o *Operation) UnmarshalJSON(data []byte) error {
	var in operationJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("operation: %w", err)
	}
	o.Op = in.Operation
	o.Shape, o.extra = decodeShape(ParseShapeKind(in.Operation), in.Params)
	o.Transform = Identity()
	if in.Transform != nil {
		o.Transform = *in.Transform
	}
	return nil
}

// Component is a named part of the assembly. The name encodes its role
// ("Table_Leg_2", "Chair_Seat").
type Component struct {
	Name       string        `json:"name"`
	Operations []Operation   `json:"operations"`
	Material   *MaterialSpec `json:"material,omitempty"`
}

// Primary returns the first operation, which carries the component's geometry.
func (c *Component) Primary() (*Operation, bool) {
	if len(c.Operations) == 0 {
		return nil, false
	}
	return &c.Operations[0], true
}

// Clone returns a deep copy of c.
func (c Component) Clone() Component {
	out := Component{Name: c.Name}
	if c.Operations != nil {
		out.Operations = make([]Operation, len(c.Operations))
		for i, op := range c.Operations {
			out.Operations[i] = op.clone()
		}
	}
	if c.Material != nil {
		m := *c.Material
		if c.Material.Params != nil {
			m.Params = make(map[string]any, len(c.Material.Params))
			for k, v := range c.Material.Params {
				m.Params[k] = v
			}
		}
		out.Material = &m
	}
	return out
}

func (o Operation) clone() Operation {
	out := o
	if b, ok := o.Shape.(Bezier); ok {
		b.Anchors = append([]Vec3(nil), b.Anchors...)
		b.VectorLocations = append([]int(nil), b.VectorLocations...)
		out.Shape = b
	}
	if u, ok := o.Shape.(Unknown); ok && u.Params != nil {
		params := make(map[string]json.RawMessage, len(u.Params))
		for k, v := range u.Params {
			params[k] = v
		}
		out.Shape = Unknown{Params: params}
	}
	if o.extra != nil {
		out.extra = make(map[string]json.RawMessage, len(o.extra))
		for k, v := range o.extra {
			out.extra[k] = v
		}
	}
	return out
}

// Clone deep-copies a component list.
func Clone(cs []Component) []Component {
	if cs == nil {
		return nil
	}
	out := make([]Component, len(cs))
	for i, c := range cs {
		out[i] = c.Clone()
	}
	return out
}

// Index returns the position of the component named name, or -1.
func Index(cs []Component, name string) int {
	for i := range cs {
		if cs[i].Name == name {
			return i
		}
	}
	return -1
}
