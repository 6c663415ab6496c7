package assembly

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/chazu/trestle/pkg/scene"
)

// Axis selects the mirror plane of a symmetry check. Both planes pass
// through the origin.
type Axis int

const (
	// AxisAny accepts a reflection across either plane.
	AxisAny Axis = iota
	// AxisX reflects x to -x.
	AxisX
	// AxisY reflects y to -y.
	AxisY
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	default:
		return "any"
	}
}

// ParseAxis accepts "x", "y" or "any" (also "").
func ParseAxis(s string) (Axis, error) {
	switch s {
	case "x", "X":
		return AxisX, nil
	case "y", "Y":
		return AxisY, nil
	case "", "any":
		return AxisAny, nil
	}
	return AxisAny, fmt.Errorf("unknown mirror axis %q", s)
}

// MirrorSymmetric reports whether reflecting a's (x, y) across axis lands
// within tol of b's (x, y). Heights are ignored.
func MirrorSymmetric(a, b scene.Vec3, axis Axis, tol float64) bool {
	switch axis {
	case AxisX:
		return math.Hypot(-a.X-b.X, a.Y-b.Y) <= tol
	case AxisY:
		return math.Hypot(a.X-b.X, -a.Y-b.Y) <= tol
	default:
		return MirrorSymmetric(a, b, AxisX, tol) || MirrorSymmetric(a, b, AxisY, tol)
	}
}

// RadialArrangement reports whether points are evenly spaced in angle around
// their xy centroid: every gap between consecutive angles, including the
// wrap-around gap, must be within angleTol of 2π/N. Fewer than three points
// never form an arrangement.
func RadialArrangement(points []scene.Vec3, angleTol float64) bool {
	n := len(points)
	if n < 3 {
		return false
	}
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i, p := range points {
		xs[i], ys[i] = p.X, p.Y
	}
	cx, cy := stat.Mean(xs, nil), stat.Mean(ys, nil)

	angles := make([]float64, n)
	for i := range points {
		angles[i] = math.Atan2(ys[i]-cy, xs[i]-cx)
	}
	slices.Sort(angles)

	gaps := make([]float64, n)
	for i := 0; i < n-1; i++ {
		gaps[i] = angles[i+1] - angles[i]
	}
	gaps[n-1] = angles[0] + 2*math.Pi - angles[n-1]

	want := 2 * math.Pi / float64(n)
	floats.AddConst(-want, gaps)
	return math.Max(math.Abs(floats.Min(gaps)), math.Abs(floats.Max(gaps))) <= angleTol
}

// PatternKind is the geometric relation a group of components must satisfy.
type PatternKind int

const (
	PatternMirror PatternKind = iota
	PatternRadial
)

func (k PatternKind) String() string {
	if k == PatternRadial {
		return "radial"
	}
	return "mirror"
}

// PatternSpec declares a group of same-role components and the pattern they
// form.
type PatternSpec struct {
	Kind    PatternKind
	Members []string
	Axis    Axis // mirror only
}

func (p PatternSpec) String() string {
	if p.Kind == PatternMirror {
		return fmt.Sprintf("mirror(%s) %v", p.Axis, p.Members)
	}
	return fmt.Sprintf("radial %v", p.Members)
}

// CheckPatterns evaluates each declared pattern against the component
// centers and reports failures as errors. Geometry is never changed.
func CheckPatterns(comps []scene.Component, specs []PatternSpec, opts Options) Report {
	opts = opts.withDefaults()
	var rep Report

	index := make(map[string]int, len(comps))
	for i, c := range comps {
		index[c.Name] = i
	}

	for _, spec := range specs {
		var centers []scene.Vec3
		var names []string
		for _, name := range spec.Members {
			i, ok := index[name]
			if !ok {
				rep.warn(PassPattern, name, "%s pattern member not found", spec.Kind)
				continue
			}
			m := measureComponent(comps[i])
			if !m.present {
				rep.warn(PassPattern, name, "%s pattern member has no operations", spec.Kind)
				continue
			}
			centers = append(centers, m.center())
			names = append(names, name)
		}

		switch spec.Kind {
		case PatternMirror:
			if len(centers) < 2 {
				rep.fail(PassPattern, "", "%s: fewer than two members to compare", spec)
				continue
			}
			for i := range centers {
				if !hasMirrorPartner(centers, i, spec.Axis, opts.PatternTolerance) {
					rep.fail(PassPattern, names[i], "no mirror partner across %s axis", spec.Axis)
				}
			}
		case PatternRadial:
			if !RadialArrangement(centers, opts.AngleTolerance) {
				rep.fail(PassPattern, "", "%s: members are not evenly spaced around their centroid", spec)
			}
		}
		opts.Logger.Debug("pattern checked", "pattern", spec.String())
	}
	return rep
}

func hasMirrorPartner(centers []scene.Vec3, i int, axis Axis, tol float64) bool {
	for j := range centers {
		if j != i && MirrorSymmetric(centers[i], centers[j], axis, tol) {
			return true
		}
	}
	return false
}
