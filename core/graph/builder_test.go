package graph

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hollowprose/graphein/core/config"
	"github.com/hollowprose/graphein/core/corpus"
	"github.com/hollowprose/graphein/core/index"
)

type testLine struct {
	folio   string
	middles []string
}

func buildIndex(t *testing.T, lines []testLine) *index.Index {
	t.Helper()
	var tokens []corpus.Token
	for li, ln := range lines {
		lineID := fmt.Sprintf("%s.l%d", ln.folio, li)
		for pos, mid := range ln.middles {
			tokens = append(tokens, corpus.Token{
				Raw: mid, Middle: mid, Pos: pos,
				LineID: lineID, FolioID: ln.folio,
			})
		}
	}
	ix := index.New(4)
	ix.Ingest("v1", tokens, 2)
	return ix
}

func TestEdgeKeyCanonical(t *testing.T) {
	assert.Equal(t, Key("b", "a"), Key("a", "b"))
	assert.Equal(t, EdgeKey{A: "a", B: "b"}, Key("b", "a"))
}

func TestLookupOrderless(t *testing.T) {
	ix := buildIndex(t, []testLine{{folio: "f1", middles: []string{"a", "b"}}})
	b := NewBuilder(config.GraphConfig{
		Window: config.WindowLine, AltWindow: config.WindowFolio,
		RecordLines: 3, MinCooccurrence: 1, AgreementGate: 0.9,
	})
	g, err := b.Build(ix)
	require.NoError(t, err)

	ab, ok := g.Lookup("a", "b")
	require.True(t, ok)
	ba, ok := g.Lookup("b", "a")
	require.True(t, ok)
	assert.Same(t, ab, ba)
}

func TestBuildCountsDistinctPairsOncePerWindow(t *testing.T) {
	// Repeats inside a window must not inflate the pair count.
	ix := buildIndex(t, []testLine{
		{folio: "f1", middles: []string{"a", "b", "a", "b", "a"}},
		{folio: "f2", middles: []string{"a", "b"}},
	})
	b := NewBuilder(config.GraphConfig{
		Window: config.WindowLine, AltWindow: config.WindowFolio,
		RecordLines: 3, MinCooccurrence: 1, AgreementGate: 0.9,
	})
	g, err := b.Build(ix)
	require.NoError(t, err)

	e, ok := g.Lookup("a", "b")
	require.True(t, ok)
	assert.Equal(t, 2, e.Count)
	assert.Equal(t, 2, e.AltCount)
	assert.True(t, e.Legal)
	assert.True(t, e.Stable)
}

// Folios of identical lines make the line and folio schemes agree on
// every pair, so the robustness gate passes.
func stableCorpus() []testLine {
	var lines []testLine
	for grp := 0; grp < 8; grp++ {
		middles := make([]string, 5)
		for i := range middles {
			middles[i] = fmt.Sprintf("m%02d_%d", grp, i)
		}
		for folio := 0; folio < 3; folio++ {
			f := fmt.Sprintf("g%02d_f%d", grp, folio)
			for rep := 0; rep < 3; rep++ {
				lines = append(lines, testLine{folio: f, middles: middles})
			}
		}
	}
	return lines
}

func TestBuildRobustnessGatePasses(t *testing.T) {
	ix := buildIndex(t, stableCorpus())
	b := NewBuilder(config.GraphConfig{
		Window: config.WindowLine, AltWindow: config.WindowFolio,
		RecordLines: 3, MinCooccurrence: 2, AgreementGate: 0.9,
	})
	g, err := b.Build(ix)
	require.NoError(t, err)

	assert.True(t, g.Sound)
	assert.Equal(t, 1.0, g.Agreement)
	assert.Zero(t, g.UnstableCount())

	// 8 groups of 5 middles, all 10 within-group pairs, none across.
	assert.Len(t, g.Nodes, 40)
	assert.Len(t, g.Edges, 80)
	assert.Len(t, g.TrustedEdges(), 80)

	// Line window sees each pair 3 times per folio across 3 folios;
	// the folio window collapses that to once per folio.
	e, ok := g.Lookup("m00_0", "m00_1")
	require.True(t, ok)
	assert.Equal(t, 9, e.Count)
	assert.Equal(t, 3, e.AltCount)
}

func TestBuildRobustnessGateFails(t *testing.T) {
	// Two disjoint lines on one folio: the folio window invents four
	// cross-line pairs the line window never sees.
	ix := buildIndex(t, []testLine{
		{folio: "f1", middles: []string{"a", "b"}},
		{folio: "f1", middles: []string{"c", "d"}},
	})
	b := NewBuilder(config.GraphConfig{
		Window: config.WindowLine, AltWindow: config.WindowFolio,
		RecordLines: 3, MinCooccurrence: 1, AgreementGate: 0.9,
	})
	g, err := b.Build(ix)

	var instErr *InstabilityError
	require.ErrorAs(t, err, &instErr)
	assert.InDelta(t, 2.0/6.0, instErr.Agreement, 1e-12)
	assert.Equal(t, 0.9, instErr.Gate)

	// The graph survives for audit even when unsound.
	require.NotNil(t, g)
	assert.False(t, g.Sound)
	assert.Equal(t, 4, g.UnstableCount())
	assert.Len(t, g.TrustedEdges(), 2)
}

func TestBuildEmptyIndex(t *testing.T) {
	ix := index.New(4)
	ix.Ingest("v1", nil, 1)
	b := NewBuilder(config.GraphConfig{
		Window: config.WindowLine, AltWindow: config.WindowFolio,
		RecordLines: 3, MinCooccurrence: 1, AgreementGate: 0.9,
	})
	g, err := b.Build(ix)
	require.NoError(t, err)
	assert.Empty(t, g.Edges)
	assert.True(t, g.Sound)
}

func TestWindowsRecordBlocks(t *testing.T) {
	lines := []index.Line{
		{ID: "l1", FolioID: "f1", Middles: []string{"a"}},
		{ID: "l2", FolioID: "f1", Middles: []string{"b"}},
		{ID: "l3", FolioID: "f1", Middles: []string{"c"}},
		{ID: "l4", FolioID: "f2", Middles: []string{"d"}},
	}

	// Width 2: f1 splits into {a,b} and {c}; the folio boundary forces
	// {d} into its own block even though the previous one is short.
	got := windows(lines, config.WindowRecord, 2)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"a", "b"}, got[0])
	assert.Equal(t, []string{"c"}, got[1])
	assert.Equal(t, []string{"d"}, got[2])

	got = windows(lines, config.WindowFolio, 2)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"a", "b", "c"}, got[0])

	got = windows(lines, config.WindowLine, 2)
	require.Len(t, got, 4)
}
