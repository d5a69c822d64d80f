package cmd

import (
	"errors"

	"github.com/hollowprose/graphein/core/classify"
	"github.com/hollowprose/graphein/core/config"
	"github.com/hollowprose/graphein/core/corpus"
	"github.com/hollowprose/graphein/core/graph"
	"github.com/hollowprose/graphein/core/index"
	"github.com/hollowprose/graphein/core/report"
)

// loadIndex runs Decomposer -> Index over one corpus snapshot and
// folds parse outcomes into the report.
func loadIndex(cfg *config.Config, corpusPath string, run *report.Run) (*index.Index, *corpus.Snapshot, error) {
	snap, err := corpus.LoadSnapshot(corpusPath)
	if err != nil {
		return nil, nil, err
	}
	run.CorpusVersion = snap.Version

	dec, err := corpus.NewDecomposer(corpus.NewGrammar(cfg.Grammar))
	if err != nil {
		return nil, nil, err
	}
	tokens := corpus.DecomposeAll(dec, snap)

	ix := index.New(cfg.Index.PositionBins)
	ix.Ingest(snap.Version, tokens, cfg.Index.Shards)

	total, parsed := ix.TokenCount()
	run.RecordParse(total, parsed, ix.UnparseableCounts())
	return ix, snap, nil
}

// buildGraph derives the compatibility graph and records robustness
// outcomes. An instability gate failure is reported, not fatal: the
// graph is still returned for audit, flagged unsound.
func buildGraph(cfg *config.Config, ix *index.Index, run *report.Run) (*graph.Graph, error) {
	g, err := graph.NewBuilder(cfg.Graph).Build(ix)
	if err != nil {
		var unstable *graph.InstabilityError
		if !errors.As(err, &unstable) {
			return nil, err
		}
	}
	run.EdgePairs = len(g.Edges)
	run.TrustedEdges = len(g.TrustedEdges())
	run.UnstableEdges = g.UnstableCount()
	run.Agreement = g.Agreement
	run.GraphSound = g.Sound
	return g, nil
}

func newAnalyzer(cfg *config.Config) *graph.Analyzer {
	return graph.NewAnalyzer(cfg.Graph)
}

// coverageInputs extracts the folio-coverage feature sets and observed
// frequencies the coverage optimizer consumes.
func coverageInputs(ix *index.Index) (map[string]map[string]bool, map[string]int) {
	features := make(map[string]map[string]bool)
	freq := make(map[string]int)
	for _, m := range ix.Middles() {
		ms := ix.Stats(m)
		fs := make(map[string]bool, len(ms.Folios))
		for f := range ms.Folios {
			fs[f] = true
		}
		features[m] = fs
		freq[m] = ms.Freq
	}
	return features, freq
}

// classifyStage runs the two-stage classification over index + graph,
// returning the engine too so callers can reuse it for the transition
// scan.
func classifyStage(cfg *config.Config, ix *index.Index, g *graph.Graph) (*classify.Engine, *classify.Result, error) {
	eng, err := classify.NewEngine(cfg.Classify, cfg.Cluster, cfg.Index.PositionBins)
	if err != nil {
		return nil, nil, err
	}
	return eng, eng.Classify(ix, g), nil
}
