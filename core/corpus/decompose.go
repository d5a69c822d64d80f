package corpus

import (
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/hollowprose/graphein/core/config"
)

// DecomposeCacheSize bounds the memo cache. Corpus tokens repeat
// heavily, so a modest cache covers almost every lookup.
const DecomposeCacheSize = 8192

// split is a cached decomposition outcome keyed by raw string. All
// token fields other than the split are positional and never cached.
type split struct {
	prefix, middle, suffix string
	reason                 FailReason
}

// Grammar is the compiled form of a config.GrammarConfig: affix
// inventories sorted longest-first with ties broken by the configured
// priority order, so a scan is deterministic across runs.
type Grammar struct {
	prefixes []affix
	suffixes []affix
	minMid   int
	alphabet map[rune]bool
}

type affix struct {
	text     string
	priority int
}

// NewGrammar compiles an injected grammar rule set.
func NewGrammar(gc config.GrammarConfig) *Grammar {
	g := &Grammar{
		prefixes: compileAffixes(gc.Prefixes),
		suffixes: compileAffixes(gc.Suffixes),
		minMid:   gc.MinMiddleLen,
	}
	if gc.MiddleAlphabet != "" {
		g.alphabet = make(map[rune]bool, len(gc.MiddleAlphabet))
		for _, r := range gc.MiddleAlphabet {
			g.alphabet[r] = true
		}
	}
	return g
}

func compileAffixes(raw []string) []affix {
	out := make([]affix, 0, len(raw))
	for i, s := range raw {
		if s == "" {
			continue
		}
		out = append(out, affix{text: s, priority: i})
	}
	// Longest-match-wins; equal lengths fall back to inventory order.
	sort.SliceStable(out, func(i, j int) bool {
		if len(out[i].text) != len(out[j].text) {
			return len(out[i].text) > len(out[j].text)
		}
		return out[i].priority < out[j].priority
	})
	return out
}

// longestPrefix returns the highest-priority longest recognized prefix
// of s, or "" when none matches.
func (g *Grammar) longestPrefix(s string) string {
	for _, a := range g.prefixes {
		if strings.HasPrefix(s, a.text) {
			return a.text
		}
	}
	return ""
}

func (g *Grammar) longestSuffix(s string) string {
	for _, a := range g.suffixes {
		if strings.HasSuffix(s, a.text) {
			return a.text
		}
	}
	return ""
}

func (g *Grammar) middleOK(mid string) bool {
	if len(mid) < g.minMid {
		return false
	}
	if g.alphabet == nil {
		return true
	}
	for _, r := range mid {
		if !g.alphabet[r] {
			return false
		}
	}
	return true
}

// Decomposer splits raw tokens under a fixed grammar. It is safe for
// concurrent use; the split core is pure and the cache is internally
// synchronized.
type Decomposer struct {
	grammar *Grammar
	cache   *lru.Cache[string, split]
}

// NewDecomposer builds a decomposer with a memo cache over the pure
// split function.
func NewDecomposer(g *Grammar) (*Decomposer, error) {
	cache, err := lru.New[string, split](DecomposeCacheSize)
	if err != nil {
		return nil, err
	}
	return &Decomposer{grammar: g, cache: cache}, nil
}

// Decompose splits one raw token and attaches the supplied positional
// context. Malformed tokens come back tagged Unparseable with a
// specific reason; the error surface is in the token, not a Go error,
// because parse failures are contained per spec.
func (d *Decomposer) Decompose(raw, lineID, folioID, section, regime string, pos int) Token {
	sp, ok := d.cache.Get(raw)
	if !ok {
		sp = d.grammar.split(raw)
		d.cache.Add(raw, sp)
	}
	tok := Token{
		Raw:     raw,
		Pos:     pos,
		LineID:  lineID,
		FolioID: folioID,
		Section: section,
		Regime:  regime,
	}
	if sp.reason != FailNone {
		tok.Unparseable = true
		tok.Reason = sp.reason
		return tok
	}
	tok.Prefix, tok.Middle, tok.Suffix = sp.prefix, sp.middle, sp.suffix
	return tok
}

// split is the pure decomposition core. Candidate strips are tried in a
// fixed order so equal runs always produce equal triples:
//
//  1. longest prefix + longest suffix
//  2. longest prefix only
//  3. longest suffix only
//  4. bare middle
//
// The first candidate with a valid middle wins. Longer total affix
// coverage always comes first in that order, and prefix-led strips
// outrank suffix-led strips of equal coverage.
func (g *Grammar) split(raw string) split {
	if raw == "" {
		return split{reason: FailEmptyMiddle}
	}
	p := g.longestPrefix(raw)
	s := g.longestSuffix(raw)

	type candidate struct{ p, s string }
	cands := make([]candidate, 0, 4)
	if p != "" && s != "" {
		if len(p)+len(s) <= len(raw) {
			cands = append(cands, candidate{p, s})
		}
	}
	if p != "" {
		cands = append(cands, candidate{p, ""})
	}
	if s != "" {
		cands = append(cands, candidate{"", s})
	}
	cands = append(cands, candidate{"", ""})

	// Prefix-led and suffix-led strips of equal coverage are ordered by
	// the list above; resort only by total affix length so the longest
	// coverage is preferred while the tie-break stays fixed.
	sort.SliceStable(cands, func(i, j int) bool {
		return len(cands[i].p)+len(cands[i].s) > len(cands[j].p)+len(cands[j].s)
	})

	sawShort := false
	for _, c := range cands {
		mid := raw[len(c.p) : len(raw)-len(c.s)]
		if g.middleOK(mid) {
			return split{prefix: c.p, middle: mid, suffix: c.s}
		}
		if len(mid) < g.minMid {
			sawShort = true
		}
	}

	// Overlapping prefix/suffix claims with no surviving fallback is a
	// genuinely ambiguous split; everything else failed on middle
	// content or length.
	if p != "" && s != "" && len(p)+len(s) > len(raw) {
		return split{reason: FailAmbiguousSplit}
	}
	if sawShort {
		return split{reason: FailEmptyMiddle}
	}
	return split{reason: FailUnknownAffix}
}
