// Package index aggregates decomposed tokens into per-middle-type
// frequency, positional, and contextual statistics. The index owns the
// raw counts; every downstream stage reads it without mutating it.
package index

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/hollowprose/graphein/core/corpus"
)

// MiddleStats holds the exact aggregate statistics for one middle type.
type MiddleStats struct {
	Middle string

	// Freq is the exact occurrence count across the snapshot.
	Freq int

	// PosHist is the positional histogram over fixed-width bins of
	// relative line position. The bin count is declared at
	// construction and never changes.
	PosHist []int

	Sections map[string]int
	Regimes  map[string]int
	Folios   map[string]int
	Prefixes map[string]int
	Suffixes map[string]int
}

// Line preserves the middle sequence of one corpus line, in token
// order. The graph builder derives its co-occurrence windows from
// these.
type Line struct {
	ID      string
	FolioID string
	Section string
	Regime  string
	Middles []string
}

// Index is the aggregated corpus view. Ingest is idempotent per corpus
// version: feeding the same immutable snapshot twice leaves the index
// bit-identical.
type Index struct {
	mu sync.RWMutex

	bins    int
	version string

	stats     map[string]*MiddleStats
	lines     []Line
	lineIdx   map[string]int
	folioIDs  []string
	unparsed  map[corpus.FailReason]int
	tokenN    int
	parsedN   int
	perFolioN map[string]int
}

// New creates an empty index with a fixed positional bin count.
func New(bins int) *Index {
	return &Index{
		bins:      bins,
		stats:     make(map[string]*MiddleStats),
		lineIdx:   make(map[string]int),
		unparsed:  make(map[corpus.FailReason]int),
		perFolioN: make(map[string]int),
	}
}

// shard is a partial aggregation built by one ingestion worker.
type shard struct {
	stats    map[string]*MiddleStats
	unparsed map[corpus.FailReason]int
	parsedN  int
	folioN   map[string]int
}

func newShard() *shard {
	return &shard{
		stats:    make(map[string]*MiddleStats),
		unparsed: make(map[corpus.FailReason]int),
		folioN:   make(map[string]int),
	}
}

// Ingest aggregates a decomposed token stream. Tokens are sharded by
// folio across workers and the partial counters merged; counter
// addition is associative so the merge order never changes the result.
func (ix *Index) Ingest(version string, tokens []corpus.Token, workers int) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if version != "" && version == ix.version {
		slog.Debug("index ingest skipped, version already ingested", "version", version)
		return
	}
	ix.reset()
	ix.version = version
	ix.tokenN = len(tokens)

	// Line structure is order-sensitive, so it is built in one pass
	// before the sharded counting.
	lineLen := make(map[string]int, 256)
	for _, t := range tokens {
		li, ok := ix.lineIdx[t.LineID]
		if !ok {
			li = len(ix.lines)
			ix.lineIdx[t.LineID] = li
			ix.lines = append(ix.lines, Line{
				ID:      t.LineID,
				FolioID: t.FolioID,
				Section: t.Section,
				Regime:  t.Regime,
			})
		}
		if !t.Unparseable {
			ix.lines[li].Middles = append(ix.lines[li].Middles, t.Middle)
		}
		lineLen[t.LineID]++
	}

	if workers < 1 {
		workers = 1
	}
	groups := groupByFolio(tokens)
	shards := make([]*shard, workers)
	var wg sync.WaitGroup
	jobs := make(chan []corpus.Token, len(groups))
	for w := 0; w < workers; w++ {
		shards[w] = newShard()
		wg.Add(1)
		go func(s *shard) {
			defer wg.Done()
			for batch := range jobs {
				s.ingest(batch, lineLen, ix.bins)
			}
		}(shards[w])
	}
	for _, g := range groups {
		jobs <- g
	}
	close(jobs)
	wg.Wait()

	for _, s := range shards {
		ix.merge(s)
	}

	seen := make(map[string]bool, len(ix.perFolioN))
	for _, t := range tokens {
		if !seen[t.FolioID] {
			seen[t.FolioID] = true
			ix.folioIDs = append(ix.folioIDs, t.FolioID)
		}
	}

	slog.Info("corpus indexed",
		"version", shortVersion(version),
		"tokens", ix.tokenN,
		"parsed", ix.parsedN,
		"middle_types", len(ix.stats),
		"lines", len(ix.lines),
		"folios", len(ix.folioIDs))
}

func (ix *Index) reset() {
	ix.stats = make(map[string]*MiddleStats)
	ix.lines = nil
	ix.lineIdx = make(map[string]int)
	ix.folioIDs = nil
	ix.unparsed = make(map[corpus.FailReason]int)
	ix.tokenN = 0
	ix.parsedN = 0
	ix.perFolioN = make(map[string]int)
}

func groupByFolio(tokens []corpus.Token) [][]corpus.Token {
	byFolio := make(map[string][]corpus.Token)
	var order []string
	for _, t := range tokens {
		if _, ok := byFolio[t.FolioID]; !ok {
			order = append(order, t.FolioID)
		}
		byFolio[t.FolioID] = append(byFolio[t.FolioID], t)
	}
	out := make([][]corpus.Token, 0, len(order))
	for _, id := range order {
		out = append(out, byFolio[id])
	}
	return out
}

func (s *shard) ingest(tokens []corpus.Token, lineLen map[string]int, bins int) {
	for _, t := range tokens {
		s.folioN[t.FolioID]++
		if t.Unparseable {
			s.unparsed[t.Reason]++
			continue
		}
		s.parsedN++
		ms, ok := s.stats[t.Middle]
		if !ok {
			ms = &MiddleStats{
				Middle:   t.Middle,
				PosHist:  make([]int, bins),
				Sections: make(map[string]int),
				Regimes:  make(map[string]int),
				Folios:   make(map[string]int),
				Prefixes: make(map[string]int),
				Suffixes: make(map[string]int),
			}
			s.stats[t.Middle] = ms
		}
		ms.Freq++
		ms.PosHist[posBin(t.Pos, lineLen[t.LineID], bins)]++
		if t.Section != "" {
			ms.Sections[t.Section]++
		}
		if t.Regime != "" {
			ms.Regimes[t.Regime]++
		}
		ms.Folios[t.FolioID]++
		if t.Prefix != "" {
			ms.Prefixes[t.Prefix]++
		}
		if t.Suffix != "" {
			ms.Suffixes[t.Suffix]++
		}
	}
}

// posBin maps a token position to its fixed-width relative bin.
func posBin(pos, lineLen, bins int) int {
	if lineLen <= 1 {
		return 0
	}
	b := pos * bins / lineLen
	if b >= bins {
		b = bins - 1
	}
	return b
}

func (ix *Index) merge(s *shard) {
	for mid, src := range s.stats {
		dst, ok := ix.stats[mid]
		if !ok {
			ix.stats[mid] = src
			continue
		}
		dst.Freq += src.Freq
		for i, c := range src.PosHist {
			dst.PosHist[i] += c
		}
		mergeCounts(dst.Sections, src.Sections)
		mergeCounts(dst.Regimes, src.Regimes)
		mergeCounts(dst.Folios, src.Folios)
		mergeCounts(dst.Prefixes, src.Prefixes)
		mergeCounts(dst.Suffixes, src.Suffixes)
	}
	for r, c := range s.unparsed {
		ix.unparsed[r] += c
	}
	for f, c := range s.folioN {
		ix.perFolioN[f] += c
	}
	ix.parsedN += s.parsedN
}

func mergeCounts(dst, src map[string]int) {
	for k, v := range src {
		dst[k] += v
	}
}

func shortVersion(v string) string {
	if len(v) > 12 {
		return v[:12]
	}
	return v
}

// Version reports the ingested corpus version.
func (ix *Index) Version() string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.version
}

// Stats returns the aggregate for one middle type, or nil when the
// middle never occurs.
func (ix *Index) Stats(middle string) *MiddleStats {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.stats[middle]
}

// Middles lists all observed middle types in deterministic order.
func (ix *Index) Middles() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]string, 0, len(ix.stats))
	for m := range ix.stats {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// Lines returns the corpus line structure in first-appearance order.
func (ix *Index) Lines() []Line {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.lines
}

// UnparseableCounts reports contained parse failures by reason.
func (ix *Index) UnparseableCounts() map[corpus.FailReason]int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make(map[corpus.FailReason]int, len(ix.unparsed))
	for r, c := range ix.unparsed {
		out[r] = c
	}
	return out
}

// TokenCount reports total and successfully parsed token counts.
func (ix *Index) TokenCount() (total, parsed int) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.tokenN, ix.parsedN
}
