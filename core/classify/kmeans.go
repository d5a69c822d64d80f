package classify

import (
	"math"
	"math/rand"
)

// kmeansResult is one converged clustering.
type kmeansResult struct {
	k           int
	assignments []int
	centroids   [][]float64
	objective   float64
}

// kmeans runs seeded Lloyd iterations with k-means++ initialization,
// multiple restarts, and convergence detection on the objective. The
// best restart (lowest within-cluster sum of squares) wins.
func kmeans(vectors [][]float64, k, maxIter, restarts int, seed int64) *kmeansResult {
	if len(vectors) == 0 || k < 1 || k > len(vectors) {
		return nil
	}
	rng := rand.New(rand.NewSource(seed))

	var best *kmeansResult
	for r := 0; r < restarts; r++ {
		res := kmeansOnce(vectors, k, maxIter, rng)
		if best == nil || res.objective < best.objective {
			best = res
		}
	}
	return best
}

const convergenceThreshold = 1e-6

func kmeansOnce(vectors [][]float64, k, maxIter int, rng *rand.Rand) *kmeansResult {
	centroids := initPlusPlus(vectors, k, rng)
	assignments := make([]int, len(vectors))
	counts := make([]int, k)

	prevObj := math.Inf(1)
	var obj float64
	for iter := 0; iter < maxIter; iter++ {
		obj = 0
		for i, v := range vectors {
			bestC, bestD := 0, math.Inf(1)
			for c, cen := range centroids {
				if d := sqDist(v, cen); d < bestD {
					bestC, bestD = c, d
				}
			}
			assignments[i] = bestC
			obj += bestD
		}

		dim := len(vectors[0])
		next := make([][]float64, k)
		for c := range next {
			next[c] = make([]float64, dim)
			counts[c] = 0
		}
		for i, v := range vectors {
			c := assignments[i]
			counts[c]++
			for d, x := range v {
				next[c][d] += x
			}
		}
		for c := range next {
			if counts[c] == 0 {
				// Empty cluster: reseed from the point farthest from
				// its centroid.
				next[c] = append([]float64(nil), farthestPoint(vectors, centroids, assignments)...)
				continue
			}
			for d := range next[c] {
				next[c][d] /= float64(counts[c])
			}
		}
		centroids = next

		if prevObj-obj < convergenceThreshold*math.Max(1, obj) {
			break
		}
		prevObj = obj
	}

	return &kmeansResult{
		k:           k,
		assignments: assignments,
		centroids:   centroids,
		objective:   obj,
	}
}

// initPlusPlus seeds centroids with the k-means++ scheme: each next
// centroid is sampled proportionally to squared distance from the
// nearest existing one.
func initPlusPlus(vectors [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, append([]float64(nil), vectors[rng.Intn(len(vectors))]...))

	dists := make([]float64, len(vectors))
	for len(centroids) < k {
		total := 0.0
		for i, v := range vectors {
			d := math.Inf(1)
			for _, c := range centroids {
				if sd := sqDist(v, c); sd < d {
					d = sd
				}
			}
			dists[i] = d
			total += d
		}
		if total == 0 {
			// All remaining points coincide with a centroid.
			centroids = append(centroids, append([]float64(nil), vectors[rng.Intn(len(vectors))]...))
			continue
		}
		target := rng.Float64() * total
		acc := 0.0
		pick := len(vectors) - 1
		for i, d := range dists {
			acc += d
			if acc >= target {
				pick = i
				break
			}
		}
		centroids = append(centroids, append([]float64(nil), vectors[pick]...))
	}
	return centroids
}

func farthestPoint(vectors [][]float64, centroids [][]float64, assignments []int) []float64 {
	bestI, bestD := 0, -1.0
	for i, v := range vectors {
		d := sqDist(v, centroids[assignments[i]])
		if d > bestD {
			bestI, bestD = i, d
		}
	}
	return vectors[bestI]
}

func sqDist(a, b []float64) float64 {
	var s float64
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return s
}

// nearestCentroid assigns one vector against learned centroids.
func nearestCentroid(v []float64, centroids [][]float64) int {
	best, bestD := 0, math.Inf(1)
	for c, cen := range centroids {
		if d := sqDist(v, cen); d < bestD {
			best, bestD = c, d
		}
	}
	return best
}
