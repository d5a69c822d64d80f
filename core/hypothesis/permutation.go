package hypothesis

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"

	"gonum.org/v1/gonum/stat"
)

// PermutationTest compares two sample means against a shuffled null.
// Each shuffle draws its own rand source derived from (seed, shuffle
// index), so a run is bit-reproducible for a fixed seed and a resumed
// run continues the exact same shuffle sequence it would have produced
// uninterrupted.
type PermutationTest struct {
	ID       string
	Shuffles int
	Seed     int64

	// CheckpointEvery persists progress after this many shuffles when
	// a Checkpointer is attached; zero disables checkpointing.
	CheckpointEvery int
	Checkpointer    *Checkpointer
}

// PermutationOutcome carries the observed statistic and the estimated
// p-value, plus how many shuffles actually ran.
type PermutationOutcome struct {
	Observed float64
	PValue   float64
	Done     int
}

// Run estimates P(|null mean diff| >= |observed|). Cancellation
// surfaces ctx.Err(); work since the last checkpoint is discarded, and
// nothing partial escapes as a final result.
func (t *PermutationTest) Run(ctx context.Context, a, b []float64) (*PermutationOutcome, error) {
	if len(a) < 2 || len(b) < 2 {
		return nil, &DegeneracyError{Test: t.ID, Reason: "need at least 2 samples per group"}
	}
	pool := make([]float64, 0, len(a)+len(b))
	pool = append(pool, a...)
	pool = append(pool, b...)
	if constant(pool) {
		return nil, &DegeneracyError{Test: t.ID, Reason: "zero variance input"}
	}

	observed := stat.Mean(a, nil) - stat.Mean(b, nil)
	absObs := abs(observed)

	start, exceed := 0, 0
	if t.Checkpointer != nil {
		if cp, err := t.Checkpointer.load(t.ID); err == nil {
			if cp.Seed != t.Seed || cp.Shuffles != t.Shuffles {
				return nil, ErrCheckpointParamsDrift
			}
			start, exceed = cp.Done, cp.Exceed
			slog.Info("permutation test resumed",
				"test", t.ID, "done", start, "shuffles", t.Shuffles)
		} else if !errors.Is(err, ErrCheckpointNotFound) {
			return nil, err
		}
	}

	work := make([]float64, len(pool))
	for s := start; s < t.Shuffles; s++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		copy(work, pool)
		rng := rand.New(rand.NewSource(t.Seed + int64(s)))
		rng.Shuffle(len(work), func(i, j int) { work[i], work[j] = work[j], work[i] })

		diff := stat.Mean(work[:len(a)], nil) - stat.Mean(work[len(a):], nil)
		if abs(diff) >= absObs {
			exceed++
		}

		done := s + 1
		if t.Checkpointer != nil && t.CheckpointEvery > 0 && done%t.CheckpointEvery == 0 && done < t.Shuffles {
			cp := &permCheckpoint{
				TestID:   t.ID,
				Seed:     t.Seed,
				Shuffles: t.Shuffles,
				Done:     done,
				Exceed:   exceed,
			}
			if err := t.Checkpointer.save(cp); err != nil {
				return nil, err
			}
		}
	}

	if t.Checkpointer != nil {
		t.Checkpointer.clear(t.ID)
	}
	return &PermutationOutcome{
		Observed: observed,
		PValue:   float64(exceed+1) / float64(t.Shuffles+1),
		Done:     t.Shuffles,
	}, nil
}
