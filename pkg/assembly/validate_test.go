package assembly

import (
	"testing"

	"github.com/chazu/trestle/pkg/scene"
)

func sameGeometry(t *testing.T, a, b []scene.Component) {
	t.Helper()
	if len(a) != len(b) {
		t.Fatalf("component count %d != %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Name != b[i].Name {
			t.Fatalf("component %d: %q != %q", i, a[i].Name, b[i].Name)
		}
		ma, mb := measureComponent(a[i]), measureComponent(b[i])
		if ma.present != mb.present {
			t.Fatalf("%s: presence differs", a[i].Name)
		}
		if !ma.present {
			continue
		}
		if !approxVec(ma.bounds.Min, mb.bounds.Min) || !approxVec(ma.bounds.Max, mb.bounds.Max) {
			t.Errorf("%s: bounds %+v != %+v", a[i].Name, ma.bounds, mb.bounds)
		}
	}
}

func TestValidateTableScenario(t *testing.T) {
	in := table()
	res := New(DefaultOptions()).Validate(in, nil, nil)

	for i := 1; i <= 4; i++ {
		leg := find(t, res.Components, "Table_Leg_"+string(rune('0'+i))).Operations[0]
		if h := leg.Shape.(scene.Cylinder).Height; !approx(h, 0.72) {
			t.Errorf("leg %d height = %v, want 0.72", i, h)
		}
		if z := leg.Transform.Location.Z; !approx(z, 0.36) {
			t.Errorf("leg %d z = %v, want 0.36", i, z)
		}
	}
	if z := metrics(t, res.Components, "Table_Top").bottom(); !approx(z, 0.72) {
		t.Errorf("top bottom = %v, want 0.72", z)
	}
	if res.Report.HasErrors() {
		t.Errorf("unexpected errors: %v", res.Report.Errors())
	}
	if res.Report.RunID == "" {
		t.Error("report has no run id")
	}
	for _, leg := range []string{"Table_Leg_1", "Table_Leg_2", "Table_Leg_3", "Table_Leg_4"} {
		if !res.Graph.Touching("Table_Top", leg) {
			t.Errorf("final graph: top does not touch %s", leg)
		}
	}

	// The caller's list is left alone.
	if h := in[1].Operations[0].Shape.(scene.Cylinder).Height; h != 0.70 {
		t.Errorf("input mutated: leg height %v", h)
	}
}

func TestValidateChairScenario(t *testing.T) {
	res := New(DefaultOptions()).Validate(chair(), nil, nil)
	out := res.Components

	back := metrics(t, out, "Chair_Backrest").anchor(AnchorBottom)
	seat := metrics(t, out, "Chair_Seat")
	if d := back.Dist(seat.anchor(AnchorTop)); d > DefaultOptions().Tolerance {
		t.Errorf("back/seat gap = %v", d)
	}
	if !approx(seat.bottom(), 0.45) {
		t.Errorf("seat bottom = %v, want 0.45", seat.bottom())
	}
	for _, c := range out {
		if !scene.IsGroundContact(c.Name) {
			continue
		}
		m := measureComponent(c)
		if !approx(m.bottom(), 0) || !approx(m.top(), seat.bottom()) {
			t.Errorf("%s spans [%v, %v], want [0, %v]", c.Name, m.bottom(), m.top(), seat.bottom())
		}
	}
}

func TestValidateIsFixedPoint(t *testing.T) {
	scenes := map[string][]scene.Component{
		"table": table(),
		"chair": chair(),
	}
	for name, comps := range scenes {
		t.Run(name, func(t *testing.T) {
			v := New(DefaultOptions())
			first := v.Validate(comps, nil, nil)
			second := v.Validate(first.Components, nil, nil)
			if second.Report.Changed() {
				t.Errorf("second run adjusted: %v", second.Report.Adjustments)
			}
			sameGeometry(t, first.Components, second.Components)
		})
	}
}

func TestValidateShortLegStaysGrounded(t *testing.T) {
	res := New(DefaultOptions()).Validate(shortLegTable(), nil, nil)

	leg := metrics(t, res.Components, "Table_Leg_4")
	if !approx(leg.bounds.Min.Z, 0) || !approx(leg.bounds.Max.Z, 0.72) {
		t.Errorf("short leg z range = [%v, %v], want [0, 0.72]", leg.bounds.Min.Z, leg.bounds.Max.Z)
	}
	if !res.Graph.Touching("Table_Top", "Table_Leg_4") {
		t.Error("top does not touch the short leg")
	}
	if len(res.Report.Violations) != 0 {
		t.Errorf("unexpected violations: %v", res.Report.Violations)
	}
}

// bench has a seat floating off to the side, declared to sit on one of two
// legs of different heights. Snapping drops the seat onto the taller leg,
// which only then places the shorter one under it.
func bench() ([]scene.Component, Connections) {
	return []scene.Component{
		box("Bench_Seat", 0.8, 0.4, 0.05, at(2, 0, 1)),
		box("Bench_Leg_1", 0.05, 0.05, 0.45, at(0, 0, 0.225)),
		box("Bench_Leg_2", 0.05, 0.05, 0.40, at(0.3, 0, 0.2)),
	}, Connections{"Bench_Seat": {"Bench_Leg_1"}}
}

func TestValidateRerun(t *testing.T) {
	opts := DefaultOptions()
	comps, conns := bench()
	single := New(opts).Validate(comps, conns, nil)
	opts.Rerun = true
	double := New(opts).Validate(comps, conns, nil)

	for _, res := range []Result{single, double} {
		if b := metrics(t, res.Components, "Bench_Seat").bottom(); !approx(b, 0.45) {
			t.Errorf("seat bottom = %v, want 0.45", b)
		}
	}
	if top := metrics(t, single.Components, "Bench_Leg_2").top(); !approx(top, 0.40) {
		t.Errorf("single pass: short leg top = %v, want 0.40", top)
	}
	if single.Graph.Touching("Bench_Seat", "Bench_Leg_2") {
		t.Error("single pass: short leg already touches the seat")
	}

	leg := metrics(t, double.Components, "Bench_Leg_2")
	if !approx(leg.bounds.Min.Z, 0) || !approx(leg.bounds.Max.Z, 0.45) {
		t.Errorf("rerun: short leg z range = [%v, %v], want [0, 0.45]", leg.bounds.Min.Z, leg.bounds.Max.Z)
	}
	if !double.Graph.Touching("Bench_Seat", "Bench_Leg_2") {
		t.Error("rerun: short leg does not touch the seat")
	}
}

func TestValidateRerunIsNoOpWhenSettled(t *testing.T) {
	opts := DefaultOptions()
	single := New(opts).Validate(chair(), nil, nil)
	opts.Rerun = true
	double := New(opts).Validate(chair(), nil, nil)

	sameGeometry(t, single.Components, double.Components)
	if len(single.Report.Adjustments) != len(double.Report.Adjustments) {
		t.Errorf("rerun changed adjustments: %d vs %d", len(single.Report.Adjustments), len(double.Report.Adjustments))
	}
}

func TestValidateDegradesGracefully(t *testing.T) {
	comps := append(table(),
		scene.Component{Name: "Table_Runner"},
		scene.Component{Name: "Table_Ornament", Operations: []scene.Operation{{
			Op:        "object.text_add",
			Shape:     scene.Unknown{},
			Transform: at(0, 0, 0.9),
		}}},
	)
	res := New(DefaultOptions()).Validate(comps, nil, nil)

	if !hasViolation(res.Report, PassInput, "Table_Runner", SeverityWarning) {
		t.Errorf("expected warning for empty component, got %v", res.Report.Violations)
	}
	if !hasViolation(res.Report, PassInput, "Table_Ornament", SeverityWarning) {
		t.Errorf("expected warning for unknown shape, got %v", res.Report.Violations)
	}
	if len(res.Components) != len(comps) {
		t.Fatalf("components dropped: %d of %d", len(res.Components), len(comps))
	}
	if len(res.Components[5].Operations) != 0 {
		t.Error("empty component gained operations")
	}
	if h := find(t, res.Components, "Table_Leg_1").Operations[0].Shape.(scene.Cylinder).Height; !approx(h, 0.72) {
		t.Errorf("rest of the table was not repaired: leg height %v", h)
	}
}

func TestValidateReportsPatternFailures(t *testing.T) {
	comps := table()
	comps[1].Operations[0].Transform.Location.Y = 0.1
	patterns := []PatternSpec{{
		Kind:    PatternMirror,
		Members: []string{"Table_Leg_1", "Table_Leg_2", "Table_Leg_3", "Table_Leg_4"},
		Axis:    AxisX,
	}}
	res := New(DefaultOptions()).Validate(comps, nil, patterns)
	if !res.Report.HasErrors() {
		t.Fatal("expected a pattern error")
	}
	if y := find(t, res.Components, "Table_Leg_1").Operations[0].Transform.Location.Y; y != 0.1 {
		t.Errorf("pattern check moved the leg to y=%v", y)
	}
}

func TestValidateWarnsOnDegenerateShapes(t *testing.T) {
	comps := append(table(),
		box("Table_Decal", 0, 0.1, 0.1, at(2, 2, 0.5)),
		part("Table_Mat", scene.Plane{Width: 1, Depth: 1}, at(3, 3, 0)),
	)
	res := New(DefaultOptions()).Validate(comps, nil, nil)
	if !hasViolation(res.Report, PassInput, "Table_Decal", SeverityWarning) {
		t.Errorf("expected warning for zero-width box, got %v", res.Report.Violations)
	}
	if hasViolation(res.Report, PassInput, "Table_Mat", SeverityWarning) {
		t.Error("flat plane reported as degenerate")
	}
}
