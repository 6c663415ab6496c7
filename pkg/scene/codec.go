package scene

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/chazu/trestle/pkg/errors"
)

// Decode reads a component list. The top level may be the bare array the
// generators emit or an object with a "components" field.
func Decode(r io.Reader) ([]Component, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read components")
	}
	return Unmarshal(data)
}

// Unmarshal is Decode over a byte slice.
func Unmarshal(data []byte) ([]Component, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "empty component document")
	}

	var comps []Component
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &comps); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode component list")
		}
	case '{':
		var doc struct {
			Components []Component `json:"components"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode component document")
		}
		comps = doc.Components
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "expected array or object, got %q", data[0])
	}

	seen := make(map[string]int, len(comps))
	for i, c := range comps {
		if c.Name == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "component %d has no name", i)
		}
		if j, dup := seen[c.Name]; dup {
			return nil, errors.New(errors.ErrCodeInvalidInput, "components %d and %d share the name %q", j, i, c.Name)
		}
		seen[c.Name] = i
	}
	return comps, nil
}

// Encode writes comps as an indented JSON array.
func Encode(w io.Writer, comps []Component) error {
	if comps == nil {
		comps = []Component{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(comps); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode components")
	}
	return nil
}
