// Package hypothesis runs the registered battery of statistical tests
// against index, graph, and classification outputs. Every test
// declares its threshold before execution and reports a structured
// verdict; degenerate inputs produce INCONCLUSIVE, never a crash or a
// silently skipped test.
package hypothesis

import (
	"errors"
	"fmt"
	"time"
)

// Verdict is the pre-registered-threshold outcome of one test run.
type Verdict string

const (
	VerdictPass         Verdict = "PASS"
	VerdictFail         Verdict = "FAIL"
	VerdictInconclusive Verdict = "INCONCLUSIVE"
)

// DegeneracyError marks a statistically degenerate input: zero
// variance, a singular table, an empty stratum. The harness converts
// it into an INCONCLUSIVE result and continues.
type DegeneracyError struct {
	Test   string
	Reason string
}

func (e *DegeneracyError) Error() string {
	return fmt.Sprintf("%s: degenerate input: %s", e.Test, e.Reason)
}

var ErrUnknownTest = errors.New("unknown test id")

// Threshold is a pre-registered decision rule. It is fixed at test
// registration; nothing may adjust it after a run starts, which is
// what keeps the battery falsifiable.
type Threshold struct {
	// Alpha is the significance level a p-value must beat for PASS.
	Alpha float64

	// MinEffect, when nonzero, additionally requires the absolute
	// effect size to reach this magnitude.
	MinEffect float64

	// MinSamples marks runs on smaller samples INCONCLUSIVE.
	MinSamples int
}

// Result is the structured outcome of one test run.
type Result struct {
	TestID     string        `json:"test_id"`
	Statistic  float64       `json:"statistic"`
	PValue     float64       `json:"p_value"`
	EffectSize float64       `json:"effect_size"`
	SampleSize int           `json:"sample_size"`
	Verdict    Verdict       `json:"verdict"`
	Detail     string        `json:"detail,omitempty"`
	Elapsed    time.Duration `json:"elapsed"`
	Seed       int64         `json:"seed,omitempty"`
	Shuffles   int           `json:"shuffles,omitempty"`
}

// judge applies a pre-registered threshold to a computed statistic.
func judge(t Threshold, r *Result) {
	if r.SampleSize < t.MinSamples {
		r.Verdict = VerdictInconclusive
		r.Detail = fmt.Sprintf("sample size %d below pre-registered minimum %d", r.SampleSize, t.MinSamples)
		return
	}
	if r.PValue <= t.Alpha && abs(r.EffectSize) >= t.MinEffect {
		r.Verdict = VerdictPass
		return
	}
	r.Verdict = VerdictFail
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
