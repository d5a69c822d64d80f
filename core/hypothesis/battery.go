package hypothesis

import (
	"context"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/hollowprose/graphein/core/classify"
	"github.com/hollowprose/graphein/core/config"
)

// RegisterBuiltin registers the standard battery. Thresholds are fixed
// here, before anything runs, and derive only from configuration.
func RegisterBuiltin(h *Harness, pcfg config.PermutationConfig, alpha, silhouetteFloor float64) error {
	tests := []Test{
		&FuncTest{
			TestID: "section-class-association",
			Thresh: Threshold{Alpha: alpha, MinSamples: 20},
			Fn:     sectionClassAssociation,
		},
		&FuncTest{
			TestID: "regime-frequency-anova",
			Thresh: Threshold{Alpha: alpha, MinSamples: 10},
			Fn:     regimeFrequencyANOVA,
		},
		&FuncTest{
			TestID: "freq-degree-correlation",
			Thresh: Threshold{Alpha: alpha, MinEffect: 0.2, MinSamples: 10},
			Fn:     freqDegreeCorrelation,
		},
		&FuncTest{
			TestID: "section-class-mi",
			Thresh: Threshold{Alpha: alpha, MinSamples: 20},
			Fn:     sectionClassMI,
		},
		&FuncTest{
			TestID: "hazard-density-permutation",
			Thresh: Threshold{Alpha: alpha, MinSamples: 4},
			Fn:     hazardDensityPermutation(pcfg),
		},
		&FuncTest{
			TestID: "cluster-quality-silhouette",
			Thresh: Threshold{MinEffect: silhouetteFloor, MinSamples: 1, Alpha: 1},
			Fn:     clusterQuality,
		},
	}
	for _, t := range tests {
		if err := h.Register(t); err != nil {
			return err
		}
	}
	return nil
}

// classSectionTable cross-tabulates class membership against section
// occurrence counts.
func classSectionTable(in *Inputs) ([][]float64, int) {
	classIdx := make(map[string]int)
	sectionIdx := make(map[string]int)
	type cell struct{ c, s int }
	counts := make(map[cell]float64)
	total := 0

	for _, m := range in.Index.Middles() {
		a, ok := in.Classification.Assignments[m]
		if !ok || a.Class == "" {
			continue
		}
		ci, ok := classIdx[a.Class]
		if !ok {
			ci = len(classIdx)
			classIdx[a.Class] = ci
		}
		for sec, n := range in.Index.Stats(m).Sections {
			si, ok := sectionIdx[sec]
			if !ok {
				si = len(sectionIdx)
				sectionIdx[sec] = si
			}
			counts[cell{ci, si}] += float64(n)
			total += n
		}
	}

	table := make([][]float64, len(classIdx))
	for i := range table {
		table[i] = make([]float64, len(sectionIdx))
	}
	for c, n := range counts {
		table[c.c][c.s] = n
	}
	return table, total
}

func sectionClassAssociation(_ context.Context, in *Inputs) (*Result, error) {
	table, n := classSectionTable(in)
	chi2, p, _, err := ChiSquare(table)
	if err != nil {
		return nil, err
	}
	// Cramer's V as the effect size.
	k := len(table)
	if len(table[0]) < k {
		k = len(table[0])
	}
	v := 0.0
	if n > 0 && k > 1 {
		v = chi2 / (float64(n) * float64(k-1))
		if v > 0 {
			v = sqrtClamp(v)
		}
	}
	return &Result{Statistic: chi2, PValue: p, EffectSize: v, SampleSize: n}, nil
}

func sectionClassMI(_ context.Context, in *Inputs) (*Result, error) {
	table, n := classSectionTable(in)
	mi, hx, hy, err := MutualInformation(table)
	if err != nil {
		return nil, err
	}
	// G-test relation: 2*N*MI is asymptotically chi-squared.
	dof := (len(table) - 1) * (len(table[0]) - 1)
	if dof < 1 {
		return nil, &DegeneracyError{Test: "section-class-mi", Reason: "degenerate table"}
	}
	p := distuv.ChiSquared{K: float64(dof)}.Survival(2 * float64(n) * mi)

	norm := 0.0
	if hmin := minF(hx, hy); hmin > 0 {
		norm = mi / hmin
	}
	return &Result{Statistic: mi, PValue: p, EffectSize: norm, SampleSize: n}, nil
}

func regimeFrequencyANOVA(_ context.Context, in *Inputs) (*Result, error) {
	byRegime := make(map[string][]float64)
	n := 0
	for _, m := range in.Index.Middles() {
		ms := in.Index.Stats(m)
		reg, best := "", 0
		for r, c := range ms.Regimes {
			if c > best || (c == best && r < reg) {
				reg, best = r, c
			}
		}
		if reg == "" {
			continue
		}
		byRegime[reg] = append(byRegime[reg], float64(ms.Freq))
		n++
	}

	regs := make([]string, 0, len(byRegime))
	for r := range byRegime {
		regs = append(regs, r)
	}
	sort.Strings(regs)
	groups := make([][]float64, 0, len(regs))
	for _, r := range regs {
		groups = append(groups, byRegime[r])
	}

	f, p, err := ANOVA(groups)
	if err != nil {
		return nil, err
	}
	return &Result{Statistic: f, PValue: p, EffectSize: f, SampleSize: n}, nil
}

func freqDegreeCorrelation(_ context.Context, in *Inputs) (*Result, error) {
	deg := make(map[string]int)
	for _, e := range in.Graph.TrustedEdges() {
		deg[e.Key.A]++
		deg[e.Key.B]++
	}
	var x, y []float64
	for _, m := range in.Index.Middles() {
		x = append(x, float64(in.Index.Stats(m).Freq))
		y = append(y, float64(deg[m]))
	}
	rho, p, err := Spearman(x, y)
	if err != nil {
		return nil, err
	}
	return &Result{Statistic: rho, PValue: p, EffectSize: rho, SampleSize: len(x)}, nil
}

// hazardDensityPermutation splits folio hazard densities across the
// two most frequent regimes and permutation-tests the mean difference.
func hazardDensityPermutation(pcfg config.PermutationConfig) func(ctx context.Context, in *Inputs) (*Result, error) {
	return func(ctx context.Context, in *Inputs) (*Result, error) {
		profiles := in.Index.Profiles(in.Classification.Hazard, nil)
		byRegime := make(map[string][]float64)
		for _, p := range profiles {
			if p.Regime == "" {
				continue
			}
			byRegime[p.Regime] = append(byRegime[p.Regime], p.HazardDensity)
		}
		if len(byRegime) < 2 {
			return nil, &DegeneracyError{Test: "hazard-density-permutation", Reason: "need folios in at least 2 regimes"}
		}

		regs := make([]string, 0, len(byRegime))
		for r := range byRegime {
			regs = append(regs, r)
		}
		sort.Slice(regs, func(i, j int) bool {
			if len(byRegime[regs[i]]) != len(byRegime[regs[j]]) {
				return len(byRegime[regs[i]]) > len(byRegime[regs[j]])
			}
			return regs[i] < regs[j]
		})
		a, b := byRegime[regs[0]], byRegime[regs[1]]

		var cp *Checkpointer
		if pcfg.CheckpointEvery > 0 && pcfg.CheckpointDir != "" {
			var err error
			cp, err = NewCheckpointer(pcfg.CheckpointDir)
			if err != nil {
				return nil, err
			}
		}
		pt := &PermutationTest{
			ID:              "hazard-density-permutation",
			Shuffles:        pcfg.Shuffles,
			Seed:            pcfg.Seed,
			CheckpointEvery: pcfg.CheckpointEvery,
			Checkpointer:    cp,
		}
		out, err := pt.Run(ctx, a, b)
		if err != nil {
			return nil, err
		}
		return &Result{
			Statistic:  out.Observed,
			PValue:     out.PValue,
			EffectSize: out.Observed,
			SampleSize: len(a) + len(b),
			Seed:       pcfg.Seed,
			Shuffles:   out.Done,
		}, nil
	}
}

func clusterQuality(_ context.Context, in *Inputs) (*Result, error) {
	if in.Classification.ChosenK == 0 {
		return nil, &DegeneracyError{Test: "cluster-quality-silhouette", Reason: "no cluster stage ran"}
	}
	sil := in.Classification.Silhouette
	n := 0
	for _, a := range in.Classification.Assignments {
		if a.State == classify.ClusterAssigned || (a.State == classify.Validated && a.Silhouette != 0) {
			n++
		}
	}
	return &Result{Statistic: sil, EffectSize: sil, SampleSize: n}, nil
}

func sqrtClamp(x float64) float64 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}
	return math.Sqrt(x)
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
