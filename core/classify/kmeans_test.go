package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Two tight blobs far apart; any sane k=2 run separates them exactly.
func blobVectors() [][]float64 {
	return [][]float64{
		{0.0, 0.0}, {0.1, 0.0}, {0.0, 0.1}, {0.1, 0.1},
		{5.0, 5.0}, {5.1, 5.0}, {5.0, 5.1}, {5.1, 5.1},
	}
}

func TestKmeansSeparatesBlobs(t *testing.T) {
	res := kmeans(blobVectors(), 2, 50, 4, 7)
	require.NotNil(t, res)
	require.Len(t, res.assignments, 8)

	first := res.assignments[0]
	for i := 1; i < 4; i++ {
		assert.Equal(t, first, res.assignments[i], "point %d", i)
	}
	second := res.assignments[4]
	assert.NotEqual(t, first, second)
	for i := 5; i < 8; i++ {
		assert.Equal(t, second, res.assignments[i], "point %d", i)
	}
}

func TestKmeansDeterministicPerSeed(t *testing.T) {
	a := kmeans(blobVectors(), 2, 50, 4, 99)
	b := kmeans(blobVectors(), 2, 50, 4, 99)
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.Equal(t, a.assignments, b.assignments)
	assert.Equal(t, a.centroids, b.centroids)
	assert.Equal(t, a.objective, b.objective)
}

func TestKmeansDegenerateInputs(t *testing.T) {
	assert.Nil(t, kmeans(nil, 2, 50, 4, 1))
	assert.Nil(t, kmeans(blobVectors(), 0, 50, 4, 1))
	assert.Nil(t, kmeans(blobVectors(), 9, 50, 4, 1))
}

func TestNearestCentroid(t *testing.T) {
	centroids := [][]float64{{0, 0}, {5, 5}}
	assert.Equal(t, 0, nearestCentroid([]float64{0.2, 0.1}, centroids))
	assert.Equal(t, 1, nearestCentroid([]float64{4.8, 5.3}, centroids))
}

func TestMeanSilhouetteSeparation(t *testing.T) {
	vectors := blobVectors()
	good := []int{0, 0, 0, 0, 1, 1, 1, 1}
	bad := []int{0, 1, 0, 1, 0, 1, 0, 1}

	gs := MeanSilhouette(vectors, good, 2)
	bs := MeanSilhouette(vectors, bad, 2)

	assert.Greater(t, gs, 0.9)
	assert.Greater(t, gs, bs)
	assert.Less(t, bs, 0.1)
}

func TestMeanSilhouetteDegenerate(t *testing.T) {
	assert.Zero(t, MeanSilhouette(blobVectors(), []int{0, 0, 0, 0, 0, 0, 0, 0}, 1))
	assert.Zero(t, MeanSilhouette([][]float64{{1}}, []int{0}, 2))
}

func TestMeanSilhouetteIdenticalPoints(t *testing.T) {
	vectors := [][]float64{{1, 1}, {1, 1}, {1, 1}, {1, 1}}
	sil := MeanSilhouette(vectors, []int{0, 0, 1, 1}, 2)
	assert.Zero(t, sil)
}
