package assembly

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"github.com/chazu/trestle/pkg/scene"
)

// Connections declares which components are meant to touch, independent of
// where they currently are. Declarations are symmetric.
type Connections map[string][]string

// Add declares a connection between a and b.
func (c Connections) Add(a, b string) {
	if a == b || slices.Contains(c[a], b) {
		return
	}
	c[a] = append(c[a], b)
}

// Pair is a declared connection with A < B.
type Pair struct {
	A, B string
}

// Pairs returns each declared connection once, sorted.
func (c Connections) Pairs() []Pair {
	seen := make(map[Pair]bool)
	var out []Pair
	for a, targets := range c {
		for _, b := range targets {
			if a == b {
				continue
			}
			p := Pair{A: a, B: b}
			if b < a {
				p = Pair{A: b, B: a}
			}
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	slices.SortFunc(out, func(x, y Pair) int {
		if c := cmp.Compare(x.A, y.A); c != 0 {
			return c
		}
		return cmp.Compare(x.B, y.B)
	})
	return out
}

// DefaultConnections derives a connection map from names and positions when
// none is supplied: every supported surface connects to the ground-contact
// components standing inside its footprint, and every back or arm part
// connects to the nearest seat.
func DefaultConnections(comps []scene.Component, opts Options) Connections {
	opts = opts.withDefaults()
	conns := make(Connections)

	ms := make([]measure, len(comps))
	for i, c := range comps {
		ms[i] = measureComponent(c)
	}

	for i, s := range comps {
		if !ms[i].present || !scene.IsSupportedSurface(s.Name) || scene.IsGroundContact(s.Name) {
			continue
		}
		for j, c := range comps {
			if i == j || !ms[j].present || !scene.IsGroundContact(c.Name) {
				continue
			}
			if ms[i].bounds.ContainsXY(ms[j].center(), opts.Tolerance) {
				conns.Add(s.Name, c.Name)
			}
		}
	}

	for i, c := range comps {
		if !ms[i].present || !scene.IsBackOrArm(c.Name) {
			continue
		}
		seat, best := -1, math.Inf(1)
		for j, s := range comps {
			if i == j || !ms[j].present || !isSeat(s.Name) {
				continue
			}
			if d := ms[i].center().Dist(ms[j].center()); d < best {
				seat, best = j, d
			}
		}
		if seat >= 0 {
			conns.Add(c.Name, comps[seat].Name)
		}
	}
	return conns
}

func isSeat(name string) bool {
	return scene.IsSupportedSurface(name) && !scene.IsBackOrArm(name) && strings.Contains(strings.ToLower(name), "seat")
}
