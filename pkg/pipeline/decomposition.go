package pipeline

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/chazu/trestle/pkg/assembly"
	"github.com/chazu/trestle/pkg/errors"
	"github.com/chazu/trestle/pkg/scene"
)

// Decomposition is the decomposer's breakdown of an object into parts.
type Decomposition struct {
	Description          string   `json:"description"`
	Components           []Part   `json:"components"`
	SpatialRelationships []string `json:"spatial_relationships,omitempty"`
}

// Part is one group of identical components.
type Part struct {
	Name        string   `json:"name"`
	Quantity    int      `json:"quantity"`
	Description string   `json:"description,omitempty"`
	Geometry    Geometry `json:"geometric_properties"`
}

// Geometry holds the free-text shape hints for a part. Only the
// arrangement fields are interpreted.
type Geometry struct {
	Shape             string `json:"shape,omitempty"`
	Proportions       string `json:"proportions,omitempty"`
	Identical         bool   `json:"identical,omitempty"`
	MirroredPositions string `json:"mirrored_positions,omitempty"`
	RadialArrangement string `json:"radial_arrangement,omitempty"`
}

// ReadDecomposition decodes a decomposition document.
func ReadDecomposition(r io.Reader) (*Decomposition, error) {
	var d Decomposition
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode decomposition")
	}
	for i, p := range d.Components {
		if p.Name == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "part %d has no name", i)
		}
	}
	return &d, nil
}

// PatternsFor turns the arrangement hints of multi-quantity parts into
// pattern declarations over the generated components. A part's members are
// the components named after it ("Armrest", "Armrest_1", "Armrest_Left").
// Mirrored parts need two members, radial parts three.
func (d *Decomposition) PatternsFor(comps []scene.Component) []assembly.PatternSpec {
	if d == nil {
		return nil
	}
	var specs []assembly.PatternSpec
	for _, p := range d.Components {
		if p.Quantity < 2 {
			continue
		}
		members := membersOf(p.Name, comps)
		switch {
		case p.Geometry.RadialArrangement != "" && len(members) >= 3:
			specs = append(specs, assembly.PatternSpec{Kind: assembly.PatternRadial, Members: members})
		case p.Geometry.MirroredPositions != "" && len(members) >= 2:
			specs = append(specs, assembly.PatternSpec{
				Kind:    assembly.PatternMirror,
				Members: members,
				Axis:    mirrorAxis(p.Geometry.MirroredPositions),
			})
		}
	}
	return specs
}

func membersOf(part string, comps []scene.Component) []string {
	key := strings.ToLower(part)
	var out []string
	for _, c := range comps {
		if scene.IsConnector(c.Name) {
			continue
		}
		name := strings.ToLower(c.Name)
		if name == key || strings.HasPrefix(name, key+"_") {
			out = append(out, c.Name)
		}
	}
	return out
}

// mirrorAxis reads "left and right" as a mirror across x and "front and
// back" as a mirror across y.
func mirrorAxis(hint string) assembly.Axis {
	h := strings.ToLower(hint)
	switch {
	case strings.Contains(h, "left") || strings.Contains(h, "right"):
		return assembly.AxisX
	case strings.Contains(h, "front") || strings.Contains(h, "back"):
		return assembly.AxisY
	default:
		return assembly.AxisAny
	}
}
