package hypothesis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Pearson computes the correlation coefficient with a two-sided
// t-distribution p-value.
func Pearson(x, y []float64) (r, p float64, err error) {
	if len(x) != len(y) || len(x) < 3 {
		return 0, 0, &DegeneracyError{Test: "pearson", Reason: "need paired samples of length >= 3"}
	}
	if constant(x) || constant(y) {
		return 0, 0, &DegeneracyError{Test: "pearson", Reason: "zero variance input"}
	}
	r = stat.Correlation(x, y, nil)
	n := float64(len(x))
	if math.Abs(r) >= 1 {
		return r, 0, nil
	}
	t := r * math.Sqrt((n-2)/(1-r*r))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: n - 2}
	p = 2 * dist.Survival(math.Abs(t))
	return r, p, nil
}

// Spearman is Pearson over fractional ranks.
func Spearman(x, y []float64) (rho, p float64, err error) {
	if len(x) != len(y) || len(x) < 3 {
		return 0, 0, &DegeneracyError{Test: "spearman", Reason: "need paired samples of length >= 3"}
	}
	return Pearson(ranks(x), ranks(y))
}

// ranks assigns average ranks, ties shared.
func ranks(x []float64) []float64 {
	idx := make([]int, len(x))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool { return x[idx[i]] < x[idx[j]] })

	out := make([]float64, len(x))
	for i := 0; i < len(idx); {
		j := i
		for j+1 < len(idx) && x[idx[j+1]] == x[idx[i]] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			out[idx[k]] = avg
		}
		i = j + 1
	}
	return out
}

// ChiSquare tests independence on a contingency table of counts.
func ChiSquare(table [][]float64) (chi2, p float64, dof int, err error) {
	rows := len(table)
	if rows < 2 || len(table[0]) < 2 {
		return 0, 0, 0, &DegeneracyError{Test: "chi_square", Reason: "table needs at least 2x2 cells"}
	}
	cols := len(table[0])

	rowSum := make([]float64, rows)
	colSum := make([]float64, cols)
	var total float64
	for i, row := range table {
		for j, c := range row {
			rowSum[i] += c
			colSum[j] += c
			total += c
		}
	}
	if total == 0 {
		return 0, 0, 0, &DegeneracyError{Test: "chi_square", Reason: "empty table"}
	}
	for i := range rowSum {
		if rowSum[i] == 0 {
			return 0, 0, 0, &DegeneracyError{Test: "chi_square", Reason: "singular table: empty row"}
		}
	}
	for j := range colSum {
		if colSum[j] == 0 {
			return 0, 0, 0, &DegeneracyError{Test: "chi_square", Reason: "singular table: empty column"}
		}
	}

	for i := range table {
		for j, obs := range table[i] {
			exp := rowSum[i] * colSum[j] / total
			d := obs - exp
			chi2 += d * d / exp
		}
	}
	dof = (rows - 1) * (cols - 1)
	p = distuv.ChiSquared{K: float64(dof)}.Survival(chi2)
	return chi2, p, dof, nil
}

// ANOVA is the one-way F test over two or more groups.
func ANOVA(groups [][]float64) (f, p float64, err error) {
	if len(groups) < 2 {
		return 0, 0, &DegeneracyError{Test: "anova", Reason: "need at least 2 groups"}
	}
	var grand, n float64
	for _, g := range groups {
		if len(g) < 2 {
			return 0, 0, &DegeneracyError{Test: "anova", Reason: "group with fewer than 2 samples"}
		}
		for _, v := range g {
			grand += v
			n++
		}
	}
	grand /= n

	var ssBetween, ssWithin float64
	for _, g := range groups {
		m := stat.Mean(g, nil)
		ssBetween += float64(len(g)) * (m - grand) * (m - grand)
		for _, v := range g {
			ssWithin += (v - m) * (v - m)
		}
	}
	dfB := float64(len(groups) - 1)
	dfW := n - float64(len(groups))
	if ssWithin == 0 {
		return 0, 0, &DegeneracyError{Test: "anova", Reason: "zero within-group variance"}
	}
	f = (ssBetween / dfB) / (ssWithin / dfW)
	p = distuv.F{D1: dfB, D2: dfW}.Survival(f)
	return f, p, nil
}

// MannWhitney is the two-sample rank test with the normal
// approximation (tie-corrected variance).
func MannWhitney(a, b []float64) (u, p float64, err error) {
	na, nb := float64(len(a)), float64(len(b))
	if na < 2 || nb < 2 {
		return 0, 0, &DegeneracyError{Test: "mann_whitney", Reason: "need at least 2 samples per group"}
	}

	all := make([]float64, 0, len(a)+len(b))
	all = append(all, a...)
	all = append(all, b...)
	if constant(all) {
		return 0, 0, &DegeneracyError{Test: "mann_whitney", Reason: "zero variance input"}
	}
	r := ranks(all)

	var ra float64
	for i := range a {
		ra += r[i]
	}
	u = ra - na*(na+1)/2

	mu := na * nb / 2
	n := na + nb
	tieCorr := tieCorrection(all)
	sigma := math.Sqrt(na * nb / 12 * ((n + 1) - tieCorr/(n*(n-1))))
	if sigma == 0 {
		return u, 0, &DegeneracyError{Test: "mann_whitney", Reason: "all observations tied"}
	}
	z := (u - mu) / sigma
	p = 2 * distuv.Normal{Mu: 0, Sigma: 1}.Survival(math.Abs(z))
	return u, p, nil
}

func tieCorrection(x []float64) float64 {
	counts := make(map[float64]float64)
	for _, v := range x {
		counts[v]++
	}
	var c float64
	for _, t := range counts {
		c += t*t*t - t
	}
	return c
}

// Entropy is the Shannon entropy (nats) of a count vector, normalized
// internally into a distribution.
func Entropy(counts []float64) float64 {
	var total float64
	for _, c := range counts {
		total += c
	}
	if total == 0 {
		return 0
	}
	p := make([]float64, len(counts))
	for i, c := range counts {
		p[i] = c / total
	}
	return stat.Entropy(p)
}

// MutualInformation computes I(X;Y) over a discretized joint count
// table, together with the marginal entropies.
func MutualInformation(joint [][]float64) (mi, hx, hy float64, err error) {
	if len(joint) == 0 || len(joint[0]) == 0 {
		return 0, 0, 0, &DegeneracyError{Test: "mutual_information", Reason: "empty joint table"}
	}
	rows, cols := len(joint), len(joint[0])
	rowSum := make([]float64, rows)
	colSum := make([]float64, cols)
	var total float64
	for i := range joint {
		for j, c := range joint[i] {
			rowSum[i] += c
			colSum[j] += c
			total += c
		}
	}
	if total == 0 {
		return 0, 0, 0, &DegeneracyError{Test: "mutual_information", Reason: "empty joint table"}
	}

	hx = Entropy(rowSum)
	hy = Entropy(colSum)
	for i := range joint {
		for j, c := range joint[i] {
			if c == 0 {
				continue
			}
			pxy := c / total
			px := rowSum[i] / total
			py := colSum[j] / total
			mi += pxy * math.Log(pxy/(px*py))
		}
	}
	if mi < 0 {
		// Floating point noise near independence.
		mi = 0
	}
	return mi, hx, hy, nil
}

func constant(x []float64) bool {
	for _, v := range x[1:] {
		if v != x[0] {
			return false
		}
	}
	return true
}
