package reconcile

import (
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/errors"
)

// State is the reconciliation state of one session: an immutable analysis
// plus the user's choices so far. It is not safe for concurrent use; the
// workflow machine serializes access.
type State struct {
	analysis *AnalysisResult
	choices  UserChoices
}

// NewState starts a state with no choices.
func NewState(analysis *AnalysisResult) *State {
	return &State{analysis: analysis}
}

// Analysis returns the immutable analysis result.
func (s *State) Analysis() *AnalysisResult {
	return s.analysis
}

// Choices returns a copy of the recorded choices.
func (s *State) Choices() UserChoices {
	return s.choices.clone()
}

// RecordChoice confirms roleName for the pending value original in c.
// original must be pending in c and roleName one of its candidates;
// otherwise an InvalidChoiceError is returned and the choices are unchanged.
// Re-recording replaces the previous choice.
func (s *State) RecordChoice(c Category, original, roleName string) error {
	if !c.Valid() {
		return errors.NewInvalidChoiceError(c.String(), original, roleName, "unknown category")
	}
	pending, ok := s.analysis.Pending(c, original)
	if !ok {
		reason := "value is not pending in this category"
		if _, auto := s.analysis.Auto(c, original); auto {
			reason = "value is already auto-matched"
		}
		return errors.NewInvalidChoiceError(c.String(), original, roleName, reason)
	}
	if !pending.HasCandidate(roleName) {
		return errors.NewInvalidChoiceError(c.String(), original, roleName, "role is not among the candidates")
	}
	s.choices.set(c, original, roleName)
	return nil
}

// ClearChoice withdraws the choice for original in c. It reports whether a
// choice was removed; clearing an absent choice is a no-op.
func (s *State) ClearChoice(c Category, original string) bool {
	if !c.Valid() {
		return false
	}
	return s.choices.remove(c, original)
}

// IsReadyToSubmit reports whether every pending value has a choice.
// Submission does not depend on it.
func (s *State) IsReadyToSubmit() bool {
	return s.PendingRemaining() == 0
}

// PendingRemaining counts pending values without a choice.
func (s *State) PendingRemaining() int {
	n := 0
	for _, c := range Categories() {
		for _, p := range s.analysis.sets[c].PendingMatches {
			if _, ok := s.choices.Get(c, p.Original); !ok {
				n++
			}
		}
	}
	return n
}
