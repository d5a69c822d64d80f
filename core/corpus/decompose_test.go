package corpus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hollowprose/graphein/core/config"
)

func testGrammar(t *testing.T) *Grammar {
	t.Helper()
	return NewGrammar(config.GrammarConfig{
		Prefixes:     []string{"qo", "o", "ch"},
		Suffixes:     []string{"aiin", "iin", "in", "y"},
		MinMiddleLen: 1,
	})
}

func newTestDecomposer(t *testing.T, g *Grammar) *Decomposer {
	t.Helper()
	d, err := NewDecomposer(g)
	require.NoError(t, err)
	return d
}

func TestDecomposeSplits(t *testing.T) {
	d := newTestDecomposer(t, testGrammar(t))

	tests := []struct {
		raw                    string
		prefix, middle, suffix string
	}{
		{"qokaiin", "qo", "k", "aiin"},
		{"qok", "qo", "k", ""},
		{"kaiin", "", "k", "aiin"},
		{"ked", "", "ked", ""},
		{"chtor", "ch", "tor", ""},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			tok := d.Decompose(tt.raw, "l1", "f1", "A", "r1", 0)
			require.False(t, tok.Unparseable, "reason: %s", tok.Reason)
			assert.Equal(t, tt.prefix, tok.Prefix)
			assert.Equal(t, tt.middle, tok.Middle)
			assert.Equal(t, tt.suffix, tok.Suffix)
		})
	}
}

func TestDecomposeLongestMatchWins(t *testing.T) {
	d := newTestDecomposer(t, testGrammar(t))

	// "qo" must beat "o" on the left, "aiin" must beat "iin" and "in"
	// on the right.
	tok := d.Decompose("qotaiin", "l1", "f1", "", "", 0)
	require.False(t, tok.Unparseable)
	assert.Equal(t, "qo", tok.Prefix)
	assert.Equal(t, "aiin", tok.Suffix)
	assert.Equal(t, "t", tok.Middle)
}

func TestDecomposeDeterministic(t *testing.T) {
	g := testGrammar(t)
	a := newTestDecomposer(t, g)
	b := newTestDecomposer(t, g)

	words := []string{"qokaiin", "otedy", "chol", "qo", "kaiin", "xzq", "ok"}
	for _, w := range words {
		ta := a.Decompose(w, "l", "f", "", "", 0)
		tb := b.Decompose(w, "l", "f", "", "", 0)
		assert.Equal(t, ta.Prefix, tb.Prefix, w)
		assert.Equal(t, ta.Middle, tb.Middle, w)
		assert.Equal(t, ta.Suffix, tb.Suffix, w)
		assert.Equal(t, ta.Reason, tb.Reason, w)
	}
}

func TestDecomposeFailureReasons(t *testing.T) {
	g := NewGrammar(config.GrammarConfig{
		Prefixes:       []string{"qo"},
		Suffixes:       []string{"aiin"},
		MinMiddleLen:   2,
		MiddleAlphabet: "kted",
	})
	d := newTestDecomposer(t, g)

	t.Run("empty middle", func(t *testing.T) {
		tok := d.Decompose("qo", "l", "f", "", "", 0)
		require.True(t, tok.Unparseable)
		assert.Equal(t, FailEmptyMiddle, tok.Reason)
	})

	t.Run("unknown affix material", func(t *testing.T) {
		tok := d.Decompose("qoxzaiin", "l", "f", "", "", 0)
		require.True(t, tok.Unparseable)
		assert.Equal(t, FailUnknownAffix, tok.Reason)
	})

	t.Run("empty token", func(t *testing.T) {
		tok := d.Decompose("", "l", "f", "", "", 0)
		require.True(t, tok.Unparseable)
		assert.Equal(t, FailEmptyMiddle, tok.Reason)
	})
}

func TestDecomposeRoundTrip(t *testing.T) {
	d := newTestDecomposer(t, testGrammar(t))

	// A grammar-conformant synthetic corpus: every combination of
	// optional affixes around alphabet middles.
	prefixes := []string{"", "qo", "o", "ch"}
	suffixes := []string{"", "aiin", "iin", "in", "y"}
	middles := []string{"k", "t", "ked", "tchd"}

	for _, p := range prefixes {
		for _, m := range middles {
			for _, s := range suffixes {
				raw := p + m + s
				tok := d.Decompose(raw, "l", "f", "", "", 0)
				require.False(t, tok.Unparseable, "token %q reason %s", raw, tok.Reason)
				assert.Equal(t, raw, tok.Recompose(), "token %q", raw)
			}
		}
	}
}

func TestDecomposeFallbackWhenFullStripTooShort(t *testing.T) {
	g := NewGrammar(config.GrammarConfig{
		Prefixes:     []string{"qo"},
		Suffixes:     []string{"y"},
		MinMiddleLen: 2,
	})
	d := newTestDecomposer(t, g)

	// Stripping both affixes leaves "k" (too short); dropping the
	// suffix leaves "ky" which satisfies the minimum.
	tok := d.Decompose("qoky", "l", "f", "", "", 0)
	require.False(t, tok.Unparseable)
	assert.Equal(t, "qo", tok.Prefix)
	assert.Equal(t, "ky", tok.Middle)
	assert.Equal(t, "", tok.Suffix)
	assert.Equal(t, "qoky", tok.Recompose())
}
