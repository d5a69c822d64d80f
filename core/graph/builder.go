package graph

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/hollowprose/graphein/core/config"
	"github.com/hollowprose/graphein/core/index"
)

// InstabilityError reports a graph whose two windowing schemes agree on
// too few pairs to trust. The graph itself is still returned for audit;
// downstream hub and coverage analysis must not run on it.
type InstabilityError struct {
	Agreement float64
	Gate      float64
}

func (e *InstabilityError) Error() string {
	return fmt.Sprintf("graph robustness gate failed: window agreement %.3f below gate %.3f", e.Agreement, e.Gate)
}

// Builder derives compatibility edges from the index under a primary
// and an alternative windowing scheme.
type Builder struct {
	cfg config.GraphConfig
}

// NewBuilder validates nothing; the config is already validated at
// startup.
func NewBuilder(cfg config.GraphConfig) *Builder {
	return &Builder{cfg: cfg}
}

// Build counts co-occurrences under both schemes, thresholds legality,
// and runs the per-edge robustness check. A failing overall gate comes
// back as *InstabilityError alongside the (audit-retained) graph.
func (b *Builder) Build(ix *index.Index) (*Graph, error) {
	lines := ix.Lines()

	primary := countWindows(windows(lines, b.cfg.Window, b.cfg.RecordLines))
	alt := countWindows(windows(lines, b.cfg.AltWindow, b.cfg.RecordLines))

	g := &Graph{
		Nodes:   ix.Middles(),
		Edges:   make(map[EdgeKey]*Edge, len(primary)),
		nodeIdx: make(map[string]int),
	}
	for i, n := range g.Nodes {
		g.nodeIdx[n] = i
	}

	keys := make(map[EdgeKey]bool, len(primary)+len(alt))
	for k := range primary {
		keys[k] = true
	}
	for k := range alt {
		keys[k] = true
	}

	agreed := 0
	for k := range keys {
		e := &Edge{
			Key:      k,
			Count:    primary[k],
			AltCount: alt[k],
		}
		e.Legal = e.Count >= b.cfg.MinCooccurrence
		altLegal := e.AltCount >= b.cfg.MinCooccurrence
		e.Stable = e.Legal == altLegal
		if e.Stable {
			agreed++
		}
		g.Edges[k] = e
	}

	if len(g.Edges) > 0 {
		g.Agreement = float64(agreed) / float64(len(g.Edges))
	} else {
		g.Agreement = 1.0
	}
	g.Sound = g.Agreement >= b.cfg.AgreementGate

	slog.Info("compatibility graph built",
		"nodes", len(g.Nodes),
		"pairs", len(g.Edges),
		"trusted", len(g.TrustedEdges()),
		"unstable", g.UnstableCount(),
		"agreement", fmt.Sprintf("%.3f", g.Agreement),
		"window", string(b.cfg.Window),
		"alt_window", string(b.cfg.AltWindow))

	if !g.Sound {
		return g, &InstabilityError{Agreement: g.Agreement, Gate: b.cfg.AgreementGate}
	}
	return g, nil
}

// windows materializes the middle sets of each context window under a
// scheme. Record windows are consecutive non-overlapping line blocks
// within a folio; folio windows span the whole folio.
func windows(lines []index.Line, w config.Window, recordLines int) [][]string {
	switch w {
	case config.WindowLine:
		out := make([][]string, 0, len(lines))
		for _, ln := range lines {
			out = append(out, ln.Middles)
		}
		return out

	case config.WindowRecord:
		var out [][]string
		var block []string
		blockFolio := ""
		n := 0
		flush := func() {
			if len(block) > 0 {
				out = append(out, block)
			}
			block = nil
			n = 0
		}
		for _, ln := range lines {
			if ln.FolioID != blockFolio {
				flush()
				blockFolio = ln.FolioID
			}
			block = append(block, ln.Middles...)
			n++
			if n >= recordLines {
				flush()
			}
		}
		flush()
		return out

	case config.WindowFolio:
		var out [][]string
		byFolio := make(map[string][]string)
		var order []string
		for _, ln := range lines {
			if _, ok := byFolio[ln.FolioID]; !ok {
				order = append(order, ln.FolioID)
			}
			byFolio[ln.FolioID] = append(byFolio[ln.FolioID], ln.Middles...)
		}
		for _, f := range order {
			out = append(out, byFolio[f])
		}
		return out
	}
	return nil
}

// countWindows tallies unordered pair co-occurrence across windows.
// Windows are independent, so counting fans out over workers and the
// partial maps merge associatively.
func countWindows(ws [][]string) map[EdgeKey]int {
	const workers = 4
	if len(ws) == 0 {
		return map[EdgeKey]int{}
	}

	parts := make([]map[EdgeKey]int, workers)
	var wg sync.WaitGroup
	jobs := make(chan []string, len(ws))
	for i := 0; i < workers; i++ {
		part := make(map[EdgeKey]int)
		parts[i] = part
		wg.Add(1)
		go func() {
			defer wg.Done()
			for w := range jobs {
				countWindow(w, part)
			}
		}()
	}
	for _, w := range ws {
		jobs <- w
	}
	close(jobs)
	wg.Wait()

	total := make(map[EdgeKey]int)
	for _, p := range parts {
		for k, c := range p {
			total[k] += c
		}
	}
	return total
}

// countWindow increments each distinct pair present in one window once.
// Repeats within a window do not inflate the pair count.
func countWindow(middles []string, counts map[EdgeKey]int) {
	if len(middles) < 2 {
		return
	}
	uniq := make(map[string]bool, len(middles))
	for _, m := range middles {
		uniq[m] = true
	}
	if len(uniq) < 2 {
		return
	}
	distinct := make([]string, 0, len(uniq))
	for m := range uniq {
		distinct = append(distinct, m)
	}
	sort.Strings(distinct)
	for i := 0; i < len(distinct); i++ {
		for j := i + 1; j < len(distinct); j++ {
			counts[EdgeKey{A: distinct[i], B: distinct[j]}]++
		}
	}
}
