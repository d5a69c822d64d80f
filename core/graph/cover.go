package graph

import "sort"

// CoverageReport compares a greedy set-cover baseline against the
// empirically observed usage ordering over the same feature universe.
// The rationing ratio is a first-class output: how much less the
// observed corpus leans on hubs than a coverage-optimal selection
// would.
type CoverageReport struct {
	FeatureCount int

	BaselineSelection []string
	BaselineCovered   int
	BaselineComplete  bool

	ObservedSelection []string
	ObservedCovered   int
	ObservedComplete  bool

	BaselineHubFraction float64
	ObservedHubFraction float64

	// RationingRatio = (baseline hub fraction - observed hub fraction)
	// / baseline hub fraction. Zero when the baseline uses no hubs.
	RationingRatio float64
}

// Coverage runs greedy set cover over per-middle feature sets, then
// replays the observed usage ordering (descending frequency) over the
// same universe.
func (a *Analyzer) Coverage(features map[string]map[string]bool, freq map[string]int, hubs []Hub) CoverageReport {
	universe := make(map[string]bool)
	for _, fs := range features {
		for f := range fs {
			universe[f] = true
		}
	}
	rep := CoverageReport{FeatureCount: len(universe)}
	if len(universe) == 0 {
		rep.BaselineComplete = true
		rep.ObservedComplete = true
		return rep
	}

	hubSet := make(map[string]bool, len(hubs))
	for _, h := range hubs {
		hubSet[h.Middle] = true
	}

	rep.BaselineSelection, rep.BaselineCovered = greedyCover(features, len(universe))
	rep.BaselineComplete = rep.BaselineCovered == len(universe)
	rep.BaselineHubFraction = hubFraction(rep.BaselineSelection, hubSet)

	rep.ObservedSelection, rep.ObservedCovered = observedCover(features, freq, len(universe))
	rep.ObservedComplete = rep.ObservedCovered == len(universe)
	rep.ObservedHubFraction = hubFraction(rep.ObservedSelection, hubSet)

	if rep.BaselineHubFraction > 0 {
		rep.RationingRatio = (rep.BaselineHubFraction - rep.ObservedHubFraction) / rep.BaselineHubFraction
	}
	return rep
}

// greedyCover repeatedly takes the middle covering the most uncovered
// features; ties break on name so runs are reproducible.
func greedyCover(features map[string]map[string]bool, universeSize int) ([]string, int) {
	mids := make([]string, 0, len(features))
	for m := range features {
		mids = append(mids, m)
	}
	sort.Strings(mids)

	covered := make(map[string]bool, universeSize)
	var selection []string
	for len(covered) < universeSize {
		best := ""
		bestGain := 0
		for _, m := range mids {
			gain := 0
			for f := range features[m] {
				if !covered[f] {
					gain++
				}
			}
			if gain > bestGain {
				best, bestGain = m, gain
			}
		}
		if bestGain == 0 {
			break
		}
		selection = append(selection, best)
		for f := range features[best] {
			covered[f] = true
		}
	}
	return selection, len(covered)
}

// observedCover walks middles by descending observed frequency, taking
// any that still contributes coverage.
func observedCover(features map[string]map[string]bool, freq map[string]int, universeSize int) ([]string, int) {
	mids := make([]string, 0, len(features))
	for m := range features {
		mids = append(mids, m)
	}
	sort.Slice(mids, func(i, j int) bool {
		if freq[mids[i]] != freq[mids[j]] {
			return freq[mids[i]] > freq[mids[j]]
		}
		return mids[i] < mids[j]
	})

	covered := make(map[string]bool, universeSize)
	var selection []string
	for _, m := range mids {
		gain := 0
		for f := range features[m] {
			if !covered[f] {
				gain++
			}
		}
		if gain == 0 {
			continue
		}
		selection = append(selection, m)
		for f := range features[m] {
			covered[f] = true
		}
		if len(covered) == universeSize {
			break
		}
	}
	return selection, len(covered)
}

func hubFraction(selection []string, hubs map[string]bool) float64 {
	if len(selection) == 0 {
		return 0
	}
	n := 0
	for _, m := range selection {
		if hubs[m] {
			n++
		}
	}
	return float64(n) / float64(len(selection))
}
