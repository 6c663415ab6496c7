package assembly

import (
	"cmp"
	"encoding/json"
	"slices"

	"github.com/chazu/trestle/pkg/scene"
)

// Edge is an unordered pair of touching components, A < B.
type Edge struct {
	A string `json:"a"`
	B string `json:"b"`
}

// Graph is the symmetric touch relation between components. It is derived
// from geometry and rebuilt on every run.
type Graph struct {
	nodes []string
	adj   map[string]map[string]struct{}
}

// BuildConnectivity returns the graph of components whose bounds overlap or
// lie within tol on all three axes. Every component is a node, including
// those without operations, which never touch anything.
func BuildConnectivity(comps []scene.Component, tol float64) *Graph {
	g := &Graph{
		nodes: make([]string, 0, len(comps)),
		adj:   make(map[string]map[string]struct{}, len(comps)),
	}
	ms := make([]measure, len(comps))
	for i, c := range comps {
		g.nodes = append(g.nodes, c.Name)
		g.adj[c.Name] = make(map[string]struct{})
		ms[i] = measureComponent(c)
	}

	for i := range comps {
		if !ms[i].present {
			continue
		}
		for j := i + 1; j < len(comps); j++ {
			if !ms[j].present {
				continue
			}
			if ms[i].bounds.Touches(ms[j].bounds, tol) {
				g.link(comps[i].Name, comps[j].Name)
			}
		}
	}
	return g
}

func (g *Graph) link(a, b string) {
	if a == b {
		return
	}
	g.adj[a][b] = struct{}{}
	g.adj[b][a] = struct{}{}
}

// Nodes returns component names in input order.
func (g *Graph) Nodes() []string {
	return slices.Clone(g.nodes)
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Neighbors returns the sorted names touching name.
func (g *Graph) Neighbors(name string) []string {
	set := g.adj[name]
	out := make([]string, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

// Touching reports whether a and b share an edge.
func (g *Graph) Touching(a, b string) bool {
	_, ok := g.adj[a][b]
	return ok
}

// Edges returns every edge once, sorted.
func (g *Graph) Edges() []Edge {
	var out []Edge
	for a, set := range g.adj {
		for b := range set {
			if a < b {
				out = append(out, Edge{A: a, B: b})
			}
		}
	}
	slices.SortFunc(out, func(x, y Edge) int {
		if c := cmp.Compare(x.A, y.A); c != 0 {
			return c
		}
		return cmp.Compare(x.B, y.B)
	})
	return out
}

// Isolated returns the names with no neighbors, in input order.
func (g *Graph) Isolated() []string {
	var out []string
	for _, n := range g.nodes {
		if len(g.adj[n]) == 0 {
			out = append(out, n)
		}
	}
	return out
}

// MarshalJSON encodes the graph as its node list and sorted edges.
func (g *Graph) MarshalJSON() ([]byte, error) {
	edges := g.Edges()
	if edges == nil {
		edges = []Edge{}
	}
	return json.Marshal(struct {
		Nodes []string `json:"nodes"`
		Edges []Edge   `json:"edges"`
	}{g.nodes, edges})
}
