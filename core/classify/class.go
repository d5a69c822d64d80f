// Package classify assigns instruction classes and functional roles to
// middle types through a two-stage procedure (morphological rules, then
// silhouette-selected clustering) and scans the class transition table
// for forbidden pairs. It reads the index and graph; it never writes
// back into either.
package classify

import "fmt"

// State is the classification confidence for one middle type.
type State int

const (
	Unclassified State = iota
	RuleAssigned
	ClusterAssigned
	Validated
	Ambiguous
)

var stateNames = map[State]string{
	Unclassified:    "UNCLASSIFIED",
	RuleAssigned:    "RULE_ASSIGNED",
	ClusterAssigned: "CLUSTER_ASSIGNED",
	Validated:       "VALIDATED",
	Ambiguous:       "AMBIGUOUS",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Assignment is one middle type's classification outcome.
type Assignment struct {
	Middle string
	Class  string
	Role   string
	Hazard bool
	State  State

	// Silhouette is the mean silhouette of the chosen clustering;
	// meaningful only for cluster-stage assignments.
	Silhouette float64
}

// HazardCategory is the enumerated kind of a forbidden transition.
type HazardCategory int

const (
	HazardRepeat HazardCategory = iota
	HazardEntry
	HazardExit
	HazardCross
)

var hazardNames = map[HazardCategory]string{
	HazardRepeat: "repeat",
	HazardEntry:  "entry",
	HazardExit:   "exit",
	HazardCross:  "cross",
}

func (h HazardCategory) String() string {
	if n, ok := hazardNames[h]; ok {
		return n
	}
	return fmt.Sprintf("HazardCategory(%d)", int(h))
}

// Transition is one ordered class pair from the observed bigram table.
type Transition struct {
	From string
	To   string

	Observed  int
	Expected  float64
	PValue    float64
	Forbidden bool
	Category  HazardCategory
}
