// Package corpus decomposes raw corpus tokens into prefix/middle/suffix
// triples under an injected segmentation grammar and loads token streams
// from flat corpus snapshots.
package corpus

import "fmt"

// FailReason classifies why a token could not be decomposed.
type FailReason int

const (
	// FailNone marks a successfully decomposed token.
	FailNone FailReason = iota

	// FailAmbiguousSplit means the recognized prefix and suffix claims
	// overlap inside the token and no fallback strip yields a valid
	// middle.
	FailAmbiguousSplit

	// FailEmptyMiddle means affix stripping consumed the whole token
	// or left a middle shorter than the grammar minimum.
	FailEmptyMiddle

	// FailUnknownAffix means the candidate middle contains material
	// outside the grammar's middle alphabet, so some affix-like run is
	// unrecognized.
	FailUnknownAffix
)

var failNames = map[FailReason]string{
	FailNone:           "none",
	FailAmbiguousSplit: "ambiguous_split",
	FailEmptyMiddle:    "empty_middle",
	FailUnknownAffix:   "unknown_affix",
}

func (r FailReason) String() string {
	if s, ok := failNames[r]; ok {
		return s
	}
	return fmt.Sprintf("FailReason(%d)", int(r))
}

// Token is one decomposed corpus token. Unparseable tokens are tagged
// and carried through, never silently dropped; downstream stages decide
// whether to skip them.
type Token struct {
	Raw    string
	Prefix string
	Middle string
	Suffix string

	// Pos is the zero-based token position within its line.
	Pos     int
	LineID  string
	FolioID string
	Section string
	Regime  string

	Unparseable bool
	Reason      FailReason
}

// Recompose rebuilds the raw string from the decomposed parts. For any
// parseable token Recompose() == Raw.
func (t Token) Recompose() string {
	return t.Prefix + t.Middle + t.Suffix
}
