// Package report aggregates per-stage outcomes into the run report.
// Per-token and per-test failures are contained where they happen;
// this is where they all become visible, so a run never ends in silent
// partial success.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/hollowprose/graphein/core/corpus"
	"github.com/hollowprose/graphein/core/hypothesis"
)

// Run is one pipeline run's aggregate outcome.
type Run struct {
	CorpusVersion string    `json:"corpus_version"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`

	TokensTotal  int            `json:"tokens_total"`
	TokensParsed int            `json:"tokens_parsed"`
	ParseFails   map[string]int `json:"parse_fails,omitempty"`

	EdgePairs     int     `json:"edge_pairs"`
	TrustedEdges  int     `json:"trusted_edges"`
	UnstableEdges int     `json:"unstable_edges"`
	Agreement     float64 `json:"agreement"`
	GraphSound    bool    `json:"graph_sound"`

	TestsRun     int `json:"tests_run"`
	Passed       int `json:"passed"`
	Failed       int `json:"failed"`
	Inconclusive int `json:"inconclusive"`

	RegistryConflictsRetried int `json:"registry_conflicts_retried,omitempty"`
}

// NewRun starts a report for one corpus version.
func NewRun(corpusVersion string) *Run {
	return &Run{
		CorpusVersion: corpusVersion,
		StartedAt:     time.Now().UTC(),
		ParseFails:    make(map[string]int),
	}
}

// RecordParse folds decomposition outcomes into the report.
func (r *Run) RecordParse(total, parsed int, fails map[corpus.FailReason]int) {
	r.TokensTotal = total
	r.TokensParsed = parsed
	for reason, n := range fails {
		r.ParseFails[reason.String()] = n
	}
}

// RecordTests folds harness results into the report.
func (r *Run) RecordTests(results []*hypothesis.Result) {
	for _, res := range results {
		r.TestsRun++
		switch res.Verdict {
		case hypothesis.VerdictPass:
			r.Passed++
		case hypothesis.VerdictFail:
			r.Failed++
		default:
			r.Inconclusive++
		}
	}
}

// Finish stamps the end time.
func (r *Run) Finish() { r.FinishedAt = time.Now().UTC() }

// WriteText prints the human-readable run summary.
func (r *Run) WriteText(w io.Writer) {
	fmt.Fprintf(w, "run %s\n", shortVersion(r.CorpusVersion))
	fmt.Fprintf(w, "  tokens: %d total, %d parsed\n", r.TokensTotal, r.TokensParsed)
	if len(r.ParseFails) > 0 {
		reasons := make([]string, 0, len(r.ParseFails))
		for reason := range r.ParseFails {
			reasons = append(reasons, reason)
		}
		sort.Strings(reasons)
		for _, reason := range reasons {
			fmt.Fprintf(w, "    unparseable/%s: %d\n", reason, r.ParseFails[reason])
		}
	}
	if r.EdgePairs > 0 {
		fmt.Fprintf(w, "  graph: %d pairs, %d trusted, %d unstable (agreement %.3f, sound=%v)\n",
			r.EdgePairs, r.TrustedEdges, r.UnstableEdges, r.Agreement, r.GraphSound)
	}
	if r.TestsRun > 0 {
		fmt.Fprintf(w, "  tests: %d run, %d pass, %d fail, %d inconclusive\n",
			r.TestsRun, r.Passed, r.Failed, r.Inconclusive)
	}
	if r.RegistryConflictsRetried > 0 {
		fmt.Fprintf(w, "  registry: %d version conflicts retried\n", r.RegistryConflictsRetried)
	}
}

// WriteJSON emits the machine-readable report.
func (r *Run) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func shortVersion(v string) string {
	if len(v) > 12 {
		return v[:12]
	}
	if v == "" {
		return "(no corpus)"
	}
	return v
}
