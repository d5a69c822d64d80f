package hypothesis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hollowprose/graphein/core/classify"
	"github.com/hollowprose/graphein/core/config"
	"github.com/hollowprose/graphein/core/graph"
	"github.com/hollowprose/graphein/core/index"
)

// Inputs is the read-only snapshot every test runs against. Tests
// never mutate it; findings flow out through results only.
type Inputs struct {
	Index          *index.Index
	Graph          *graph.Graph
	Classification *classify.Result
}

// Test is one registered hypothesis test. The threshold is declared at
// registration time and must not depend on anything computed during
// Run.
type Test interface {
	ID() string
	Threshold() Threshold
	Run(ctx context.Context, in *Inputs) (*Result, error)
}

// FuncTest adapts a plain function into a Test.
type FuncTest struct {
	TestID string
	Thresh Threshold
	Fn     func(ctx context.Context, in *Inputs) (*Result, error)
}

func (t *FuncTest) ID() string           { return t.TestID }
func (t *FuncTest) Threshold() Threshold { return t.Thresh }
func (t *FuncTest) Run(ctx context.Context, in *Inputs) (*Result, error) {
	return t.Fn(ctx, in)
}

// Harness executes registered tests over a shared read-only snapshot
// with a bounded worker pool. Tests are independent: one timing out or
// degenerating never blocks the rest of the battery.
type Harness struct {
	mu    sync.Mutex
	tests map[string]Test
	order []string
	cfg   config.HarnessConfig
}

func NewHarness(cfg config.HarnessConfig) *Harness {
	return &Harness{
		tests: make(map[string]Test),
		cfg:   cfg,
	}
}

// Register adds a test; duplicate ids are rejected so a threshold can
// never be silently replaced after registration.
func (h *Harness) Register(t Test) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.tests[t.ID()]; ok {
		return fmt.Errorf("test %q already registered", t.ID())
	}
	h.tests[t.ID()] = t
	h.order = append(h.order, t.ID())
	return nil
}

// IDs lists registered tests in registration order.
func (h *Harness) IDs() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.order...)
}

// RunAll executes the whole battery.
func (h *Harness) RunAll(ctx context.Context, in *Inputs) []*Result {
	return h.Run(ctx, in, h.IDs())
}

// Run executes the named tests on the worker pool and returns results
// in request order. Unknown ids produce INCONCLUSIVE results naming
// the miss rather than aborting the batch.
func (h *Harness) Run(ctx context.Context, in *Inputs, ids []string) []*Result {
	jobs := make(chan int, len(ids))
	results := make([]*Result, len(ids))

	var wg sync.WaitGroup
	for w := 0; w < h.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = h.runOne(ctx, in, ids[i])
			}
		}()
	}
	for i := range ids {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return results
}

func (h *Harness) runOne(parent context.Context, in *Inputs, id string) *Result {
	h.mu.Lock()
	t, ok := h.tests[id]
	h.mu.Unlock()
	if !ok {
		return &Result{
			TestID:  id,
			Verdict: VerdictInconclusive,
			Detail:  ErrUnknownTest.Error(),
		}
	}

	ctx, cancel := context.WithTimeout(parent, h.cfg.TestTimeout)
	defer cancel()

	start := time.Now()
	res, err := t.Run(ctx, in)
	elapsed := time.Since(start)

	switch {
	case err == nil:
		res.TestID = id
		res.Elapsed = elapsed
		judge(t.Threshold(), res)
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		res = &Result{
			TestID:  id,
			Verdict: VerdictInconclusive,
			Detail:  fmt.Sprintf("timed out after %s", h.cfg.TestTimeout),
			Elapsed: elapsed,
		}
	default:
		var degen *DegeneracyError
		detail := err.Error()
		if errors.As(err, &degen) {
			detail = degen.Reason
		}
		res = &Result{
			TestID:  id,
			Verdict: VerdictInconclusive,
			Detail:  detail,
			Elapsed: elapsed,
		}
	}

	slog.Info("hypothesis test finished",
		"test", id,
		"verdict", string(res.Verdict),
		"p_value", res.PValue,
		"effect", res.EffectSize,
		"n", res.SampleSize,
		"elapsed", elapsed)
	return res
}
