package pipeline

import (
	"context"
	"os"

	"github.com/chazu/trestle/pkg/errors"
	"github.com/chazu/trestle/pkg/scene"
)

// AcceptAll accepts every prompt.
type AcceptAll struct{}

func (AcceptAll) Classify(context.Context, string) (Classification, error) {
	return Classification{Accepted: true, Reason: "accepted without classification"}, nil
}

// StaticDecomposer returns the same decomposition for every prompt. A nil
// decomposition yields an empty one.
type StaticDecomposer struct {
	Decomposition *Decomposition
}

func (s StaticDecomposer) Decompose(_ context.Context, prompt string) (*Decomposition, error) {
	if s.Decomposition == nil {
		return &Decomposition{Description: prompt}, nil
	}
	d := *s.Decomposition
	d.Components = append([]Part(nil), s.Decomposition.Components...)
	d.SpatialRelationships = append([]string(nil), s.Decomposition.SpatialRelationships...)
	return &d, nil
}

// FixtureGenerator reads the component list from a file instead of
// generating it.
type FixtureGenerator struct {
	Path string
}

func (g FixtureGenerator) Generate(ctx context.Context, _ *Decomposition) ([]scene.Component, error) {
	f, err := os.Open(g.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", g.Path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "open %s", g.Path)
	}
	defer f.Close()
	return scene.Decode(f)
}

// PassthroughMaterials leaves every component as it is.
type PassthroughMaterials struct{}

func (PassthroughMaterials) AssignMaterials(_ context.Context, comps []scene.Component) ([]scene.Component, error) {
	return comps, nil
}
