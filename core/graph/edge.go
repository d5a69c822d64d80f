// Package graph derives the middle-type compatibility graph from the
// corpus index and analyzes its structure: connectivity, hubs, and
// coverage economy. The builder owns the edge table; it never writes
// back into the index.
package graph

// EdgeKey is a canonical unordered middle-type pair (A < B), so edge
// symmetry holds by construction rather than by bookkeeping.
type EdgeKey struct {
	A, B string
}

// Key normalizes a pair into canonical order.
func Key(a, b string) EdgeKey {
	if b < a {
		a, b = b, a
	}
	return EdgeKey{A: a, B: b}
}

// Edge is one compatibility relation with its evidence under both
// windowing schemes. Unstable edges stay in the table for audit but
// are excluded from analyzer input.
type Edge struct {
	Key EdgeKey

	// Count and AltCount are co-occurrence tallies under the primary
	// and alternative windows.
	Count    int
	AltCount int

	// Legal is the thresholded primary-window verdict.
	Legal bool

	// Stable is true when both windows agree on legality.
	Stable bool
}

// Graph is the derived compatibility graph for one corpus version.
type Graph struct {
	// Nodes lists middle types in sorted order.
	Nodes []string

	// Edges holds every observed pair, stable or not.
	Edges map[EdgeKey]*Edge

	// Agreement is the fraction of observed pairs on which the two
	// windowing schemes agreed.
	Agreement float64

	// Sound records whether Agreement cleared the configured gate.
	Sound bool

	nodeIdx map[string]int
}

// TrustedEdges returns the legal, robustness-stable edges the analyzer
// may rely on.
func (g *Graph) TrustedEdges() []*Edge {
	out := make([]*Edge, 0, len(g.Edges))
	for _, e := range g.Edges {
		if e.Legal && e.Stable {
			out = append(out, e)
		}
	}
	return out
}

// UnstableCount reports how many observed pairs failed the robustness
// check.
func (g *Graph) UnstableCount() int {
	n := 0
	for _, e := range g.Edges {
		if !e.Stable {
			n++
		}
	}
	return n
}

// Lookup fetches an edge regardless of argument order.
func (g *Graph) Lookup(a, b string) (*Edge, bool) {
	e, ok := g.Edges[Key(a, b)]
	return e, ok
}
