package reconcile

import (
	"maps"
	"slices"
)

// Snapshot is the plain-data persisted form of a State.
type Snapshot struct {
	Analysis RawAnalysis                  `json:"analysis" yaml:"analysis"`
	Choices  map[string]map[string]string `json:"choices" yaml:"choices"`
}

// Snapshot captures the state for persistence.
func (s *State) Snapshot() Snapshot {
	return Snapshot{
		Analysis: s.analysis.Raw(),
		Choices:  s.choices.Wire(),
	}
}

// RestoreState rebuilds a State from a snapshot. The analysis is validated
// again and an integrity failure aborts the restore. Choices are replayed
// through RecordChoice; those that no longer apply are dropped and returned
// as the second value.
func RestoreState(snap Snapshot) (*State, []error, error) {
	analysis, err := BuildAnalysisResult(snap.Analysis)
	if err != nil {
		return nil, nil, err
	}
	state := NewState(analysis)

	var dropped []error
	for _, code := range slices.Sorted(maps.Keys(snap.Choices)) {
		c, err := ParseCategory(code)
		if err != nil {
			dropped = append(dropped, err)
			continue
		}
		for _, original := range slices.Sorted(maps.Keys(snap.Choices[code])) {
			if err := state.RecordChoice(c, original, snap.Choices[code][original]); err != nil {
				dropped = append(dropped, err)
			}
		}
	}
	return state, dropped, nil
}
