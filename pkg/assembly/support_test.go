package assembly

import (
	"testing"

	"github.com/chazu/trestle/pkg/scene"
)

func align(t *testing.T, comps []scene.Component) ([]scene.Component, SupportResult, Report) {
	t.Helper()
	opts := DefaultOptions()
	return AlignSupports(comps, BuildConnectivity(comps, opts.Tolerance), opts)
}

func TestAlignSupportsTable(t *testing.T) {
	out, res, rep := align(t, table())

	if got := res.Aligned["Table_Top"]; len(got) != 4 {
		t.Fatalf("supports = %v, want four legs", got)
	}
	for i := 1; i <= 4; i++ {
		name := "Table_Leg_" + string(rune('0'+i))
		leg := find(t, out, name).Operations[0]
		cyl := leg.Shape.(scene.Cylinder)
		if !approx(cyl.Height, 0.72) {
			t.Errorf("%s height = %v, want 0.72", name, cyl.Height)
		}
		if !approx(leg.Transform.Location.Z, 0.36) {
			t.Errorf("%s z = %v, want 0.36", name, leg.Transform.Location.Z)
		}
		if leg.Transform.Location.X == 0 {
			t.Errorf("%s lost its horizontal position", name)
		}
	}

	top := metrics(t, out, "Table_Top")
	if !approx(top.bottom(), 0.72) {
		t.Errorf("top bottom = %v, want flush at 0.72", top.bottom())
	}
	if !approx(top.center().Z, 0.735) {
		t.Errorf("top z = %v, want 0.735", top.center().Z)
	}
	if len(rep.Violations) != 0 {
		t.Errorf("unexpected violations: %v", rep.Violations)
	}
}

func TestAlignSupportsUsesMaximum(t *testing.T) {
	out, _, _ := align(t, table())
	var maxTop float64
	for _, c := range out {
		if scene.IsGroundContact(c.Name) {
			if top := measureComponent(c).top(); top > maxTop {
				maxTop = top
			}
		}
	}
	if bottom := metrics(t, out, "Table_Top").bottom(); !approx(bottom, maxTop) {
		t.Errorf("surface bottom %v != max support top %v", bottom, maxTop)
	}
}

func TestAlignSupportsZeroesRotation(t *testing.T) {
	comps := table()
	comps[1].Operations[0].Transform.Rotation = scene.Vec3{X: 0.05}
	out, _, _ := align(t, comps)
	if r := find(t, out, "Table_Leg_1").Operations[0].Transform.Rotation; !r.IsZero() {
		t.Errorf("rotation = %v, want zero", r)
	}
}

func TestAlignSupportsCurveAndSphere(t *testing.T) {
	comps := []scene.Component{
		box("Stool_Seat", 0.4, 0.4, 0.04, at(0, 0, 0.52)),
		part("Stool_Leg_Curve", scene.Bezier{Anchors: []scene.Vec3{{X: 0.1, Z: 0}, {X: 0.12, Z: 0.25}, {X: 0.1, Z: 0.48}}}, at(0, 0, 0)),
		part("Stool_Foot", scene.Sphere{Radius: 0.05}, at(-0.1, 0, 0.42)),
	}
	out, res, _ := align(t, comps)
	if len(res.Aligned["Stool_Seat"]) != 2 {
		t.Fatalf("supports = %v", res.Aligned["Stool_Seat"])
	}

	curve := metrics(t, out, "Stool_Leg_Curve")
	if !approx(curve.bounds.Min.Z, 0) || !approx(curve.bounds.Max.Z, 0.48) {
		t.Errorf("curve z range = [%v, %v], want [0, 0.48]", curve.bounds.Min.Z, curve.bounds.Max.Z)
	}
	if !approx(metrics(t, out, "Stool_Foot").top(), 0.48) {
		t.Errorf("sphere top = %v, want 0.48", metrics(t, out, "Stool_Foot").top())
	}
	if !approx(metrics(t, out, "Stool_Seat").bottom(), 0.48) {
		t.Errorf("seat bottom = %v", metrics(t, out, "Stool_Seat").bottom())
	}
}

func TestAlignSupportsStretchesShortLeg(t *testing.T) {
	out, res, rep := align(t, shortLegTable())
	if got := res.Aligned["Table_Top"]; len(got) != 4 {
		t.Fatalf("supports = %v, want all four legs", got)
	}
	leg := metrics(t, out, "Table_Leg_4")
	if !approx(leg.bounds.Min.Z, 0) || !approx(leg.bounds.Max.Z, 0.72) {
		t.Errorf("short leg z range = [%v, %v], want [0, 0.72]", leg.bounds.Min.Z, leg.bounds.Max.Z)
	}
	if !approx(metrics(t, out, "Table_Top").bottom(), 0.72) {
		t.Errorf("top bottom = %v, want 0.72", metrics(t, out, "Table_Top").bottom())
	}
	if len(rep.Violations) != 0 {
		t.Errorf("unexpected violations: %v", rep.Violations)
	}
}

func TestAlignSupportsBaseKeepsReach(t *testing.T) {
	comps := []scene.Component{
		box("Cabinet_Base", 0.8, 0.4, 0.1, at(0, 0, 0.05)),
		box("Cabinet_Shelf", 0.8, 0.4, 0.02, at(0, 0, 0.61)),
	}
	out, res, _ := align(t, comps)
	if _, ok := res.Aligned["Cabinet_Shelf"]; ok {
		t.Errorf("shelf rests on the base: %v", res.Aligned)
	}
	if top := metrics(t, out, "Cabinet_Base").top(); !approx(top, 0.1) {
		t.Errorf("base top = %v, want 0.1", top)
	}
}

func TestAlignSupportsNoSupports(t *testing.T) {
	comps := []scene.Component{
		box("Desk_Top", 1, 0.5, 0.03, at(0, 0, 0.75)),
		box("Desk_Leg", 0.05, 0.05, 0.3, at(3, 3, 0.15)),
	}
	out, res, rep := align(t, comps)
	if len(res.Aligned) != 0 {
		t.Fatalf("unexpected alignment: %v", res.Aligned)
	}
	if !hasViolation(rep, PassSupport, "Desk_Top", SeverityWarning) {
		t.Errorf("expected support warning, got %v", rep.Violations)
	}
	if z := out[0].Operations[0].Transform.Location.Z; z != 0.75 {
		t.Errorf("top moved to %v", z)
	}
}

func TestAlignSupportsSkipsOutOfReach(t *testing.T) {
	comps := []scene.Component{
		box("Shelf_Low", 0.8, 0.3, 0.02, at(0, 0, 0.31)),
		box("Shelf_High", 0.8, 0.3, 0.02, at(0, 0, 1.01)),
		box("Bookcase_Leg", 0.02, 0.02, 0.3, at(0.3, 0.1, 0.15)),
	}
	_, res, _ := align(t, comps)
	if got := res.Aligned["Shelf_Low"]; len(got) != 1 {
		t.Errorf("low shelf supports = %v", got)
	}
	if _, ok := res.Aligned["Shelf_High"]; ok {
		t.Error("high shelf should not reach the leg")
	}
}
