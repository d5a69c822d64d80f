package hypothesis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPearson(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	y := []float64{2.1, 3.9, 6.2, 7.8, 10.1, 12.0, 14.2, 15.9, 18.1, 19.8}

	r, p, err := Pearson(x, y)
	require.NoError(t, err)
	assert.Greater(t, r, 0.99)
	assert.Less(t, p, 1e-6)

	neg := make([]float64, len(y))
	for i, v := range y {
		neg[i] = -v
	}
	r, _, err = Pearson(x, neg)
	require.NoError(t, err)
	assert.Less(t, r, -0.99)
}

func TestPearsonDegenerate(t *testing.T) {
	var degen *DegeneracyError

	_, _, err := Pearson([]float64{1, 2}, []float64{1, 2})
	require.ErrorAs(t, err, &degen)

	_, _, err = Pearson([]float64{1, 1, 1, 1}, []float64{1, 2, 3, 4})
	require.ErrorAs(t, err, &degen)
	assert.Equal(t, "zero variance input", degen.Reason)
}

func TestSpearmanMonotoneNonlinear(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	y := make([]float64, len(x))
	for i, v := range x {
		y[i] = v * v * v
	}
	rho, p, err := Spearman(x, y)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, rho, 1e-9)
	assert.Less(t, p, 1e-6)
}

func TestRanksTieAveraging(t *testing.T) {
	assert.Equal(t, []float64{1, 2.5, 2.5, 4}, ranks([]float64{1, 2, 2, 3}))
	assert.Equal(t, []float64{2, 2, 2}, ranks([]float64{7, 7, 7}))
	assert.Equal(t, []float64{3, 1, 2}, ranks([]float64{9, 4, 5}))
}

func TestChiSquare(t *testing.T) {
	chi2, p, dof, err := ChiSquare([][]float64{{50, 5}, {5, 50}})
	require.NoError(t, err)
	assert.Equal(t, 1, dof)
	assert.Greater(t, chi2, 50.0)
	assert.Less(t, p, 1e-6)

	chi2, p, _, err = ChiSquare([][]float64{{25, 25}, {25, 25}})
	require.NoError(t, err)
	assert.Zero(t, chi2)
	assert.InDelta(t, 1.0, p, 1e-9)
}

func TestChiSquareDegenerate(t *testing.T) {
	var degen *DegeneracyError

	_, _, _, err := ChiSquare([][]float64{{1, 2}})
	require.ErrorAs(t, err, &degen)

	_, _, _, err = ChiSquare([][]float64{{0, 0}, {3, 4}})
	require.ErrorAs(t, err, &degen)
	assert.Contains(t, degen.Reason, "empty row")

	_, _, _, err = ChiSquare([][]float64{{1, 0}, {3, 0}})
	require.ErrorAs(t, err, &degen)
	assert.Contains(t, degen.Reason, "empty column")

	_, _, _, err = ChiSquare([][]float64{{0, 0}, {0, 0}})
	require.ErrorAs(t, err, &degen)
}

func TestANOVA(t *testing.T) {
	separated := [][]float64{
		{1.0, 1.1, 0.9, 1.05},
		{5.0, 5.2, 4.8, 5.1},
		{9.0, 9.1, 8.9, 9.2},
	}
	f, p, err := ANOVA(separated)
	require.NoError(t, err)
	assert.Greater(t, f, 100.0)
	assert.Less(t, p, 1e-6)

	similar := [][]float64{
		{1.0, 2.0, 3.0, 4.0},
		{1.1, 2.1, 2.9, 4.1},
	}
	_, p, err = ANOVA(similar)
	require.NoError(t, err)
	assert.Greater(t, p, 0.5)
}

func TestANOVADegenerate(t *testing.T) {
	var degen *DegeneracyError

	_, _, err := ANOVA([][]float64{{1, 2, 3}})
	require.ErrorAs(t, err, &degen)

	_, _, err = ANOVA([][]float64{{1, 2}, {3}})
	require.ErrorAs(t, err, &degen)

	_, _, err = ANOVA([][]float64{{2, 2}, {5, 5}})
	require.ErrorAs(t, err, &degen)
	assert.Contains(t, degen.Reason, "variance")
}

func TestMannWhitney(t *testing.T) {
	u, p, err := MannWhitney([]float64{1, 2}, []float64{3, 4})
	require.NoError(t, err)
	assert.Zero(t, u)
	assert.InDelta(t, 0.121, p, 0.01)

	// A clear shift on a larger sample drives the p-value down.
	a := []float64{1, 1.2, 0.8, 1.1, 0.9, 1.3, 0.7, 1.05}
	b := []float64{5, 5.2, 4.8, 5.1, 4.9, 5.3, 4.7, 5.05}
	_, p, err = MannWhitney(a, b)
	require.NoError(t, err)
	assert.Less(t, p, 0.001)
}

func TestMannWhitneyDegenerate(t *testing.T) {
	var degen *DegeneracyError

	_, _, err := MannWhitney([]float64{1}, []float64{2, 3})
	require.ErrorAs(t, err, &degen)

	_, _, err = MannWhitney([]float64{4, 4}, []float64{4, 4})
	require.ErrorAs(t, err, &degen)
}

func TestEntropy(t *testing.T) {
	assert.InDelta(t, math.Log(4), Entropy([]float64{1, 1, 1, 1}), 1e-9)
	assert.Zero(t, Entropy([]float64{10, 0, 0}))
	assert.Zero(t, Entropy(nil))
}

func TestMutualInformation(t *testing.T) {
	mi, hx, hy, err := MutualInformation([][]float64{{10, 0}, {0, 10}})
	require.NoError(t, err)
	assert.InDelta(t, math.Log(2), mi, 1e-9)
	assert.InDelta(t, math.Log(2), hx, 1e-9)
	assert.InDelta(t, math.Log(2), hy, 1e-9)

	mi, _, _, err = MutualInformation([][]float64{{5, 5}, {5, 5}})
	require.NoError(t, err)
	assert.InDelta(t, 0, mi, 1e-9)

	var degen *DegeneracyError
	_, _, _, err = MutualInformation(nil)
	require.ErrorAs(t, err, &degen)
}
