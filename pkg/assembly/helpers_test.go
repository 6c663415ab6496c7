package assembly

import (
	"math"
	"testing"

	"github.com/chazu/trestle/pkg/scene"
)

const eps = 1e-9

func at(x, y, z float64) scene.Transform {
	return scene.Transform{Location: scene.Vec3{X: x, Y: y, Z: z}, Scale: scene.One}
}

func part(name string, s scene.Shape, t scene.Transform) scene.Component {
	return scene.Component{Name: name, Operations: []scene.Operation{scene.NewOperation(s, t)}}
}

func box(name string, w, d, h float64, t scene.Transform) scene.Component {
	return part(name, scene.Box{Width: w, Depth: d, Height: h}, t)
}

func cylinder(name string, r, h float64, t scene.Transform) scene.Component {
	return part(name, scene.Cylinder{Radius: r, Height: h, Segments: 32}, t)
}

// table is a top resting near four legs of slightly different heights.
func table() []scene.Component {
	return []scene.Component{
		box("Table_Top", 1.2, 0.8, 0.03, at(0, 0, 0.75)),
		cylinder("Table_Leg_1", 0.03, 0.70, at(0.5, 0.3, 0.35)),
		cylinder("Table_Leg_2", 0.03, 0.71, at(-0.5, 0.3, 0.355)),
		cylinder("Table_Leg_3", 0.03, 0.72, at(0.5, -0.3, 0.36)),
		cylinder("Table_Leg_4", 0.03, 0.705, at(-0.5, -0.3, 0.3525)),
	}
}

// shortLegTable has one leg far shorter than the others, beyond SupportReach.
func shortLegTable() []scene.Component {
	return []scene.Component{
		box("Table_Top", 1.2, 0.8, 0.03, at(0, 0, 0.75)),
		cylinder("Table_Leg_1", 0.03, 0.72, at(0.5, 0.3, 0.36)),
		cylinder("Table_Leg_2", 0.03, 0.72, at(-0.5, 0.3, 0.36)),
		cylinder("Table_Leg_3", 0.03, 0.72, at(0.5, -0.3, 0.36)),
		cylinder("Table_Leg_4", 0.03, 0.50, at(-0.5, -0.3, 0.25)),
	}
}

// chair has a backrest hovering 0.15 above the seat's top face.
func chair() []scene.Component {
	return []scene.Component{
		box("Chair_Seat", 0.5, 0.5, 0.05, at(0, 0, 0.475)),
		box("Chair_Leg_1", 0.04, 0.04, 0.45, at(0.2, 0.2, 0.225)),
		box("Chair_Leg_2", 0.04, 0.04, 0.45, at(-0.2, 0.2, 0.225)),
		box("Chair_Leg_3", 0.04, 0.04, 0.45, at(0.2, -0.2, 0.225)),
		box("Chair_Leg_4", 0.04, 0.04, 0.45, at(-0.2, -0.2, 0.225)),
		box("Chair_Backrest", 0.5, 0.05, 0.5, at(0, -0.225, 0.9)),
	}
}

func find(t *testing.T, comps []scene.Component, name string) scene.Component {
	t.Helper()
	i := scene.Index(comps, name)
	if i < 0 {
		t.Fatalf("component %q not found", name)
	}
	return comps[i]
}

func metrics(t *testing.T, comps []scene.Component, name string) measure {
	t.Helper()
	m := measureComponent(find(t, comps, name))
	if !m.present {
		t.Fatalf("component %q has no operations", name)
	}
	return m
}

func approx(a, b float64) bool {
	return math.Abs(a-b) <= eps
}

func approxVec(a, b scene.Vec3) bool {
	return a.Dist(b) <= eps
}

func hasViolation(r Report, pass Pass, component string, sev Severity) bool {
	for _, v := range r.Violations {
		if v.Pass == pass && v.Component == component && v.Severity == sev {
			return true
		}
	}
	return false
}
