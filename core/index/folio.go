package index

import "sort"

// FolioProfile aggregates per-folio context tags with class-derived
// densities. Profiles combine index counts with classification output,
// so they are computed on demand rather than stored at ingest.
type FolioProfile struct {
	FolioID string
	Section string
	Regime  string

	// TokenCount is the total token count on the folio, parse
	// failures included.
	TokenCount int

	// HazardDensity is the fraction of parsed tokens whose middle
	// participates in a hazard class.
	HazardDensity float64

	// EscapeDensity is the fraction of parsed tokens whose middle
	// belongs to an escape-role class.
	EscapeDensity float64
}

// Profiles computes one profile per folio. The hazard and escape
// predicates come from the classification engine; the index supplies
// only counts and tags.
func (ix *Index) Profiles(hazard, escape func(middle string) bool) []FolioProfile {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	type acc struct {
		section, regime string
		parsed          int
		hazardN         int
		escapeN         int
	}
	accs := make(map[string]*acc, len(ix.folioIDs))
	for _, f := range ix.folioIDs {
		accs[f] = &acc{}
	}
	for _, ln := range ix.lines {
		a, ok := accs[ln.FolioID]
		if !ok {
			continue
		}
		if a.section == "" {
			a.section = ln.Section
		}
		if a.regime == "" {
			a.regime = ln.Regime
		}
		for _, mid := range ln.Middles {
			a.parsed++
			if hazard != nil && hazard(mid) {
				a.hazardN++
			}
			if escape != nil && escape(mid) {
				a.escapeN++
			}
		}
	}

	out := make([]FolioProfile, 0, len(accs))
	for _, f := range ix.folioIDs {
		a := accs[f]
		p := FolioProfile{
			FolioID:    f,
			Section:    a.section,
			Regime:     a.regime,
			TokenCount: ix.perFolioN[f],
		}
		if a.parsed > 0 {
			p.HazardDensity = float64(a.hazardN) / float64(a.parsed)
			p.EscapeDensity = float64(a.escapeN) / float64(a.parsed)
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FolioID < out[j].FolioID })
	return out
}
