package classify

import "math"

// MeanSilhouette computes the mean silhouette coefficient of a
// clustering. Points in singleton clusters contribute zero, matching
// the usual convention.
func MeanSilhouette(vectors [][]float64, assignments []int, k int) float64 {
	n := len(vectors)
	if n < 2 || k < 2 {
		return 0
	}

	clusterSize := make([]int, k)
	for _, c := range assignments {
		clusterSize[c]++
	}

	var total float64
	for i, v := range vectors {
		own := assignments[i]
		if clusterSize[own] <= 1 {
			continue
		}

		// Mean distance to each cluster.
		sums := make([]float64, k)
		for j, w := range vectors {
			if i == j {
				continue
			}
			sums[assignments[j]] += dist(v, w)
		}

		a := sums[own] / float64(clusterSize[own]-1)
		b := -1.0
		for c := 0; c < k; c++ {
			if c == own || clusterSize[c] == 0 {
				continue
			}
			m := sums[c] / float64(clusterSize[c])
			if b < 0 || m < b {
				b = m
			}
		}
		if b < 0 {
			continue
		}

		max := a
		if b > max {
			max = b
		}
		if max > 0 {
			total += (b - a) / max
		}
	}
	return total / float64(n)
}

func dist(a, b []float64) float64 {
	return math.Sqrt(sqDist(a, b))
}
