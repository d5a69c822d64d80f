package classify

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/hollowprose/graphein/core/config"
	"github.com/hollowprose/graphein/core/graph"
	"github.com/hollowprose/graphein/core/index"
)

// Result is the full classification outcome for one corpus snapshot.
type Result struct {
	Assignments map[string]*Assignment

	// ChosenK and Silhouette describe the cluster stage; ChosenK is
	// zero when every middle resolved by rule.
	ChosenK    int
	Silhouette float64

	clusterCentroids [][]float64
}

// Hazard reports whether a middle belongs to a hazard-participating
// class.
func (r *Result) Hazard(middle string) bool {
	a, ok := r.Assignments[middle]
	return ok && a.Hazard
}

// Role reports the assigned role of a middle, or "".
func (r *Result) Role(middle string) string {
	if a, ok := r.Assignments[middle]; ok {
		return a.Role
	}
	return ""
}

// Engine runs the two-stage classification procedure.
type Engine struct {
	rules []compiledRule
	ccfg  config.ClassifyConfig
	kcfg  config.ClusterConfig
	bins  int
}

// NewEngine compiles the rule stage. Pattern compilation failures are
// configuration errors and fatal.
func NewEngine(ccfg config.ClassifyConfig, kcfg config.ClusterConfig, bins int) (*Engine, error) {
	rules, err := compileRules(ccfg.Rules)
	if err != nil {
		return nil, &config.Error{Field: "classify.rules", Reason: err.Error()}
	}
	return &Engine{rules: rules, ccfg: ccfg, kcfg: kcfg, bins: bins}, nil
}

// Classify assigns every observed middle type. Stage one applies
// morphological rules; stage two clusters the remainder on behavioral
// features with k chosen by silhouette. Middles the cluster stage
// cannot separate are reported AMBIGUOUS, never guessed.
func (e *Engine) Classify(ix *index.Index, g *graph.Graph) *Result {
	lines := ix.Lines()
	middles := ix.Middles()
	res := &Result{Assignments: make(map[string]*Assignment, len(middles))}

	var unresolved []string
	for _, m := range middles {
		ms := ix.Stats(m)
		if r, ok := applyRules(e.rules, m, ms.Prefixes); ok {
			res.Assignments[m] = &Assignment{
				Middle: m,
				Class:  r.name,
				Role:   r.role,
				Hazard: r.hazard,
				State:  RuleAssigned,
			}
			continue
		}
		res.Assignments[m] = &Assignment{Middle: m, State: Unclassified}
		unresolved = append(unresolved, m)
	}

	if len(unresolved) > 0 {
		e.clusterStage(res, unresolved, lines, g)
	}
	e.validate(res, lines, g)

	counts := make(map[State]int)
	for _, a := range res.Assignments {
		counts[a.State]++
	}
	slog.Info("classification complete",
		"middles", len(middles),
		"rule_assigned", counts[RuleAssigned],
		"cluster_assigned", counts[ClusterAssigned],
		"validated", counts[Validated],
		"ambiguous", counts[Ambiguous],
		"chosen_k", res.ChosenK)
	return res
}

// clusterStage clusters unresolved middles, sweeping k over the
// configured range and keeping the silhouette-maximizing clustering.
func (e *Engine) clusterStage(res *Result, unresolved []string, lines []index.Line, g *graph.Graph) {
	maxDeg := maxTrustedDegree(g)
	vectors := make([][]float64, len(unresolved))
	for i, m := range unresolved {
		vectors[i] = vectorFromLines(m, lines, g, maxDeg, e.bins)
	}

	kMax := e.kcfg.KMax
	if kMax > len(unresolved)-1 {
		kMax = len(unresolved) - 1
	}
	var best *kmeansResult
	bestSil := -1.0
	for k := e.kcfg.KMin; k <= kMax; k++ {
		km := kmeans(vectors, k, e.kcfg.MaxIterations, e.kcfg.Restarts, e.kcfg.Seed)
		if km == nil {
			continue
		}
		sil := MeanSilhouette(vectors, km.assignments, k)
		if sil > bestSil {
			best, bestSil = km, sil
		}
	}

	if best == nil || bestSil < e.kcfg.SilhouetteFloor {
		for _, m := range unresolved {
			res.Assignments[m].State = Ambiguous
		}
		if best != nil {
			res.Silhouette = bestSil
		}
		return
	}

	res.ChosenK = best.k
	res.Silhouette = bestSil
	res.clusterCentroids = best.centroids
	for i, m := range unresolved {
		a := res.Assignments[m]
		a.Class = fmt.Sprintf("cluster_%d", best.assignments[i])
		a.Role = a.Class
		a.State = ClusterAssigned
		a.Silhouette = bestSil
	}
}

// validate promotes assignments reproduced across enough section
// strata. Rule assignments are context-free, so presence in the
// required number of sections suffices; cluster assignments must land
// on the same centroid when features are recomputed per section.
func (e *Engine) validate(res *Result, lines []index.Line, g *graph.Graph) {
	bySection := make(map[string][]index.Line)
	var sections []string
	for _, ln := range lines {
		if ln.Section == "" {
			continue
		}
		if _, ok := bySection[ln.Section]; !ok {
			sections = append(sections, ln.Section)
		}
		bySection[ln.Section] = append(bySection[ln.Section], ln)
	}
	sort.Strings(sections)
	if len(sections) < e.ccfg.StabilitySections {
		return
	}
	maxDeg := maxTrustedDegree(g)

	for m, a := range res.Assignments {
		switch a.State {
		case RuleAssigned:
			n := 0
			for _, sec := range sections {
				if middlePresent(m, bySection[sec]) {
					n++
				}
			}
			if n >= e.ccfg.StabilitySections {
				a.State = Validated
			}
		case ClusterAssigned:
			n := 0
			for _, sec := range sections {
				sub := bySection[sec]
				if !middlePresent(m, sub) {
					continue
				}
				v := vectorFromLines(m, sub, g, maxDeg, e.bins)
				if fmt.Sprintf("cluster_%d", nearestCentroid(v, res.clusterCentroids)) == a.Class {
					n++
				}
			}
			if n >= e.ccfg.StabilitySections {
				a.State = Validated
			}
		}
	}
}

func middlePresent(middle string, lines []index.Line) bool {
	for _, ln := range lines {
		for _, m := range ln.Middles {
			if m == middle {
				return true
			}
		}
	}
	return false
}
