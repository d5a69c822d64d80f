package classify

import (
	"github.com/hollowprose/graphein/core/graph"
	"github.com/hollowprose/graphein/core/index"
)

// vectorFromLines builds the behavioral embedding of one middle type
// over a line subset: normalized positional histogram, line-boundary
// rates, and co-occurrence profile. Deriving everything from the same
// line structure keeps global and per-section vectors in one feature
// space, which the cross-context stability check depends on. All
// components are in [0, 1] so no axis dominates the distance metric.
func vectorFromLines(middle string, lines []index.Line, g *graph.Graph, maxDegree, bins int) []float64 {
	posHist := make([]int, bins)
	occ, ini, fin := 0, 0, 0
	for _, ln := range lines {
		n := len(ln.Middles)
		for i, m := range ln.Middles {
			if m != middle {
				continue
			}
			occ++
			if i == 0 {
				ini++
			}
			if i == n-1 {
				fin++
			}
			b := 0
			if n > 1 {
				b = i * bins / n
				if b >= bins {
					b = bins - 1
				}
			}
			posHist[b]++
		}
	}

	v := make([]float64, 0, bins+4)
	for _, c := range posHist {
		if occ > 0 {
			v = append(v, float64(c)/float64(occ))
		} else {
			v = append(v, 0)
		}
	}
	if occ > 0 {
		v = append(v, float64(ini)/float64(occ), float64(fin)/float64(occ))
	} else {
		v = append(v, 0, 0)
	}

	deg, mean := cooccurProfile(middle, g)
	if maxDegree > 0 {
		v = append(v, float64(deg)/float64(maxDegree))
	} else {
		v = append(v, 0)
	}
	v = append(v, mean)
	return v
}

// cooccurProfile reports trusted degree and a saturating mean edge
// count for one middle.
func cooccurProfile(middle string, g *graph.Graph) (degree int, meanCount float64) {
	if g == nil {
		return 0, 0
	}
	var total int
	for _, e := range g.TrustedEdges() {
		if e.Key.A != middle && e.Key.B != middle {
			continue
		}
		degree++
		total += e.Count
	}
	if degree == 0 {
		return 0, 0
	}
	mean := float64(total) / float64(degree)
	// Squash into [0, 1); counts are unbounded.
	return degree, mean / (mean + 1)
}

// maxTrustedDegree is the normalization constant for degree features.
func maxTrustedDegree(g *graph.Graph) int {
	if g == nil {
		return 0
	}
	deg := make(map[string]int)
	for _, e := range g.TrustedEdges() {
		deg[e.Key.A]++
		deg[e.Key.B]++
	}
	max := 0
	for _, d := range deg {
		if d > max {
			max = d
		}
	}
	return max
}
