package graph

import (
	"log/slog"
	"sort"

	"github.com/hollowprose/graphein/core/config"
)

// Connectivity is the fragmentation report for one graph. A heavily
// fragmented graph is a valid result, not a failure; the analyzer
// reports component structure as-is.
type Connectivity struct {
	Components        int
	GiantSize         int
	GiantFraction     float64
	IsolatedNodes     int
	ComponentSizeDist []int
}

// Analyzer computes structural metrics over the trusted edge set.
type Analyzer struct {
	cfg config.GraphConfig
}

func NewAnalyzer(cfg config.GraphConfig) *Analyzer {
	return &Analyzer{cfg: cfg}
}

// Connectivity runs union-find over trusted edges and reports the
// component structure.
func (a *Analyzer) Connectivity(g *Graph) Connectivity {
	uf := newUnionFind(len(g.Nodes))
	for _, e := range g.TrustedEdges() {
		uf.union(g.nodeIdx[e.Key.A], g.nodeIdx[e.Key.B])
	}
	return connectivityFrom(uf, len(g.Nodes))
}

func connectivityFrom(uf *unionFind, n int) Connectivity {
	sizes := uf.componentSizes()
	c := Connectivity{Components: len(sizes)}
	for _, s := range sizes {
		c.ComponentSizeDist = append(c.ComponentSizeDist, s)
		if s > c.GiantSize {
			c.GiantSize = s
		}
		if s == 1 {
			c.IsolatedNodes++
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(c.ComponentSizeDist)))
	if n > 0 {
		c.GiantFraction = float64(c.GiantSize) / float64(n)
	}
	return c
}

// Hub is a node that both carries high degree and structurally holds
// the graph together.
type Hub struct {
	Middle string
	Degree int

	// ComponentDelta is how many extra components appear when the node
	// is removed on top of the other hub candidates. Mutually
	// redundant connectors mask each other under single-node removal,
	// so the percolation check conditions on the rest of the
	// candidate set.
	ComponentDelta int
}

// Hubs selects degree-percentile candidates and keeps only those whose
// removal measurably fragments the graph. High-degree nodes whose
// removal changes nothing are structurally redundant, not hubs.
func (a *Analyzer) Hubs(g *Graph) []Hub {
	trusted := g.TrustedEdges()
	degree := make(map[string]int, len(g.Nodes))
	for _, e := range trusted {
		degree[e.Key.A]++
		degree[e.Key.B]++
	}
	if len(degree) == 0 {
		return nil
	}

	degs := make([]int, 0, len(degree))
	for _, d := range degree {
		degs = append(degs, d)
	}
	sort.Ints(degs)
	cut := degs[int(float64(len(degs)-1)*a.cfg.HubDegreePercentile)]

	candidates := make(map[string]bool)
	for n, d := range degree {
		if d >= cut {
			candidates[n] = true
		}
	}

	allRemoved := a.componentsWithout(g, trusted, candidates)
	var hubs []Hub
	for n := range candidates {
		// Put this candidate back; if that reconnects components the
		// joint removal had split, the candidate is load-bearing.
		delta := allRemoved - a.componentsWithoutExcept(g, trusted, candidates, n)
		if delta >= a.cfg.HubComponentDelta {
			hubs = append(hubs, Hub{Middle: n, Degree: degree[n], ComponentDelta: delta})
		}
	}
	sort.Slice(hubs, func(i, j int) bool {
		if hubs[i].Degree != hubs[j].Degree {
			return hubs[i].Degree > hubs[j].Degree
		}
		return hubs[i].Middle < hubs[j].Middle
	})

	slog.Debug("hub detection complete",
		"cut_degree", cut,
		"candidates", len(candidates),
		"hubs", len(hubs))
	return hubs
}

// componentsWithout counts the components of the graph after deleting
// a node set. Deleted nodes are not counted as singleton components.
func (a *Analyzer) componentsWithout(g *Graph, trusted []*Edge, removed map[string]bool) int {
	uf := newUnionFind(len(g.Nodes))
	for _, e := range trusted {
		if removed[e.Key.A] || removed[e.Key.B] {
			continue
		}
		uf.union(g.nodeIdx[e.Key.A], g.nodeIdx[e.Key.B])
	}
	return len(uf.componentSizes()) - len(removed)
}

// componentsWithoutExcept is componentsWithout with one node of the
// removal set restored.
func (a *Analyzer) componentsWithoutExcept(g *Graph, trusted []*Edge, removed map[string]bool, keep string) int {
	uf := newUnionFind(len(g.Nodes))
	for _, e := range trusted {
		if (removed[e.Key.A] && e.Key.A != keep) || (removed[e.Key.B] && e.Key.B != keep) {
			continue
		}
		uf.union(g.nodeIdx[e.Key.A], g.nodeIdx[e.Key.B])
	}
	return len(uf.componentSizes()) - (len(removed) - 1)
}
