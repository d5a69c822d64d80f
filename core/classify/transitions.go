package classify

import (
	"log/slog"
	"math/rand"
	"sort"

	"github.com/hollowprose/graphein/core/index"
)

// TransitionTable is the ordered class-bigram table with forbidden
// pairs flagged. "Never observed" alone is not enough to forbid a
// transition; sparse corpora produce spurious zeros, so a zero must
// also be improbable under a shuffled baseline.
type TransitionTable struct {
	Transitions []Transition
	Shuffles    int
	Seed        int64
}

// Forbidden lists only the flagged pairs.
func (t *TransitionTable) Forbidden() []Transition {
	var out []Transition
	for _, tr := range t.Transitions {
		if tr.Forbidden {
			out = append(out, tr)
		}
	}
	return out
}

// ScanTransitions builds the observed class-bigram table over line
// sequences and tests every zero cell against a permutation baseline:
// class labels are globally shuffled, line lengths preserved, and the
// null bigram counts re-tallied per shuffle. A pair is forbidden when
// the baseline expects at least MinExpected occurrences and the
// probability of a zero under the null falls below alpha.
func (e *Engine) ScanTransitions(ix *index.Index, res *Result, shuffles int, seed int64, alpha float64) *TransitionTable {
	lineClasses, flat := classSequences(ix.Lines(), res)

	observed := countBigrams(lineClasses)

	classes := make(map[string]bool)
	for _, c := range flat {
		classes[c] = true
	}
	classList := make([]string, 0, len(classes))
	for c := range classes {
		classList = append(classList, c)
	}
	sort.Strings(classList)

	type cell struct {
		total int
		zeros int
	}
	null := make(map[[2]string]*cell)
	for _, from := range classList {
		for _, to := range classList {
			null[[2]string{from, to}] = &cell{}
		}
	}

	rng := rand.New(rand.NewSource(seed))
	work := append([]string(nil), flat...)
	lens := make([]int, len(lineClasses))
	for i, lc := range lineClasses {
		lens[i] = len(lc)
	}
	for s := 0; s < shuffles; s++ {
		rng.Shuffle(len(work), func(i, j int) { work[i], work[j] = work[j], work[i] })
		counts := countBigrams(reshape(work, lens))
		for key, c := range null {
			n := counts[key]
			c.total += n
			if n == 0 {
				c.zeros++
			}
		}
	}

	table := &TransitionTable{Shuffles: shuffles, Seed: seed}
	for _, from := range classList {
		for _, to := range classList {
			key := [2]string{from, to}
			c := null[key]
			tr := Transition{
				From:     from,
				To:       to,
				Observed: observed[key],
				Expected: float64(c.total) / float64(shuffles),
			}
			// Additive smoothing keeps the estimate off exact zero.
			tr.PValue = float64(c.zeros+1) / float64(shuffles+1)
			if tr.Observed == 0 && tr.Expected >= e.ccfg.MinExpected && tr.PValue <= alpha {
				tr.Forbidden = true
				tr.Category = categorize(from, to, res)
			}
			if tr.Observed > 0 || tr.Forbidden || tr.Expected >= e.ccfg.MinExpected {
				table.Transitions = append(table.Transitions, tr)
			}
		}
	}

	slog.Info("transition scan complete",
		"classes", len(classList),
		"cells", len(table.Transitions),
		"forbidden", len(table.Forbidden()),
		"shuffles", shuffles)
	return table
}

// classSequences maps line middles to class names, skipping middles
// with no usable assignment.
func classSequences(lines []index.Line, res *Result) ([][]string, []string) {
	var seqs [][]string
	var flat []string
	for _, ln := range lines {
		var seq []string
		for _, m := range ln.Middles {
			a, ok := res.Assignments[m]
			if !ok || a.Class == "" {
				continue
			}
			seq = append(seq, a.Class)
		}
		if len(seq) > 0 {
			seqs = append(seqs, seq)
			flat = append(flat, seq...)
		}
	}
	return seqs, flat
}

func countBigrams(seqs [][]string) map[[2]string]int {
	counts := make(map[[2]string]int)
	for _, seq := range seqs {
		for i := 0; i+1 < len(seq); i++ {
			counts[[2]string{seq[i], seq[i+1]}]++
		}
	}
	return counts
}

func reshape(flat []string, lens []int) [][]string {
	out := make([][]string, len(lens))
	off := 0
	for i, n := range lens {
		out[i] = flat[off : off+n]
		off += n
	}
	return out
}

// categorize assigns the enumerated hazard kind of a forbidden pair.
func categorize(from, to string, res *Result) HazardCategory {
	if from == to {
		return HazardRepeat
	}
	fromHazard := classHazard(from, res)
	toHazard := classHazard(to, res)
	switch {
	case toHazard && !fromHazard:
		return HazardEntry
	case fromHazard && !toHazard:
		return HazardExit
	default:
		return HazardCross
	}
}

func classHazard(class string, res *Result) bool {
	for _, a := range res.Assignments {
		if a.Class == class {
			return a.Hazard
		}
	}
	return false
}
