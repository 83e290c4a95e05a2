package domain

import "strings"

// CycleAction describes how a cycle would be broken at a candidate key.
type CycleAction uint8

const (
	// CycleActionForceBuild rebuilds the candidate without consulting the dropped dependency.
	CycleActionForceBuild CycleAction = iota
	// CycleActionSupplyPriorValue feeds the candidate's last recorded value to the waiting requester.
	CycleActionSupplyPriorValue
)

func (a CycleAction) String() string {
	switch a {
	case CycleActionForceBuild:
		return "force-build"
	case CycleActionSupplyPriorValue:
		return "supply-prior-value"
	default:
		return "unknown"
	}
}

// CycleCandidate is one way of breaking a detected cycle.
type CycleCandidate struct {
	Key    BuildKey
	Action CycleAction
}

// Cycle is a detected dependency loop.
// Keys starts and ends with the same key.
type Cycle struct {
	Keys       []BuildKey
	Candidates []CycleCandidate
}

// Path renders the loop as "a -> b -> a".
func (c Cycle) Path() string {
	parts := make([]string, len(c.Keys))
	for i, k := range c.Keys {
		parts[i] = k.String()
	}
	return strings.Join(parts, " -> ")
}
