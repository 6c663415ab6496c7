package export

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/trestle/pkg/errors"
	"github.com/chazu/trestle/pkg/kernel"
	"github.com/chazu/trestle/pkg/scene"
)

// SceneFile is the name of the JSON scene inside an export directory.
const SceneFile = "scene.json"

// Scene is the JSON document written by WriteScene.
type Scene struct {
	Components []scene.Component `json:"components"`
	Meshes     []*kernel.Mesh    `json:"meshes,omitempty"`
}

// WriteScene writes components and their meshes as indented JSON.
func WriteScene(w io.Writer, comps []scene.Component, meshes []*kernel.Mesh) error {
	if comps == nil {
		comps = []scene.Component{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Scene{Components: comps, Meshes: meshes}); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode scene")
	}
	return nil
}

// Artifact describes what an export wrote.
type Artifact struct {
	Dir    string   `json:"dir"`
	Scene  string   `json:"scene"`
	STL    []string `json:"stl,omitempty"`
	Meshes int      `json:"meshes"`
}

// Exporter writes a scene directory: scene.json and, when STL is set, one
// <component>.stl per component with geometry.
type Exporter struct {
	Builder *Builder
	Dir     string
	STL     bool
	// Meshes embeds tessellated meshes in scene.json.
	Meshes bool
}

// Export realizes comps and writes the artifact. It stops between
// components when ctx is cancelled.
func (e *Exporter) Export(ctx context.Context, comps []scene.Component) (Artifact, error) {
	art := Artifact{Dir: e.Dir, Scene: filepath.Join(e.Dir, SceneFile)}
	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return art, errors.Wrap(errors.ErrCodeInternal, err, "create %s", e.Dir)
	}

	var meshes []*kernel.Mesh
	if e.Meshes {
		var err error
		if meshes, err = e.Builder.Meshes(comps); err != nil {
			return art, errors.Wrap(errors.ErrCodeInternal, err, "tessellate")
		}
		art.Meshes = len(meshes)
	}

	f, err := os.Create(art.Scene)
	if err != nil {
		return art, errors.Wrap(errors.ErrCodeInternal, err, "create %s", art.Scene)
	}
	if err := WriteScene(f, comps, meshes); err != nil {
		f.Close()
		return art, err
	}
	if err := f.Close(); err != nil {
		return art, errors.Wrap(errors.ErrCodeInternal, err, "close %s", art.Scene)
	}

	if !e.STL {
		return art, nil
	}
	for _, c := range comps {
		if err := ctx.Err(); err != nil {
			return art, errors.Wrap(errors.ErrCodeTimeout, err, "export cancelled")
		}
		s, ok := e.Builder.Solid(c)
		if !ok {
			continue
		}
		path := filepath.Join(e.Dir, FileName(c.Name)+".stl")
		if err := e.Builder.kernel.SaveSTL(s, path); err != nil {
			return art, err
		}
		art.STL = append(art.STL, path)
	}
	return art, nil
}

// FileName maps a component name to a safe file stem.
func FileName(name string) string {
	stem := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if stem == "" {
		return "component"
	}
	return stem
}
