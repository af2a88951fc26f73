package reconcile

import (
	"encoding/json"
	"strings"

	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/errors"
)

// AnalysisResult is a validated, immutable analysis outcome. All accessors
// return copies.
type AnalysisResult struct {
	sets    [numCategories]CategoryMatchSet
	unique  [numCategories][]string
	pending [numCategories]map[string]int
	auto    [numCategories]map[string]int
}

// BuildAnalysisResult validates raw per category and returns the immutable
// result. Entries with a blank original are dropped. Duplicate originals
// (within auto, within pending, or across both), pending entries without
// candidates and negative scores are rejected with a DataIntegrityError;
// nothing is repaired.
func BuildAnalysisResult(raw RawAnalysis) (*AnalysisResult, error) {
	a := &AnalysisResult{}
	for _, c := range Categories() {
		set, err := buildSet(c, raw.AutoMatches.For(c), raw.PendingMatches.For(c))
		if err != nil {
			return nil, err
		}
		a.sets[c] = set
		a.unique[c] = distinct(raw.Unique(c))

		a.auto[c] = make(map[string]int, len(set.AutoMatches))
		for i, m := range set.AutoMatches {
			a.auto[c][m.Original] = i
		}
		a.pending[c] = make(map[string]int, len(set.PendingMatches))
		for i, p := range set.PendingMatches {
			a.pending[c][p.Original] = i
		}
	}
	return a, nil
}

func buildSet(c Category, autos []AutoMatch, pendings []PendingMatch) (CategoryMatchSet, error) {
	set := CategoryMatchSet{
		AutoMatches:    make([]AutoMatch, 0, len(autos)),
		PendingMatches: make([]PendingMatch, 0, len(pendings)),
	}
	seenAuto := make(map[string]struct{}, len(autos))

	for _, m := range autos {
		if isBlank(m.Original) {
			continue
		}
		if _, dup := seenAuto[m.Original]; dup {
			return set, errors.NewDataIntegrityError(c.String(), m.Original, "duplicate original in auto matches")
		}
		seenAuto[m.Original] = struct{}{}
		set.AutoMatches = append(set.AutoMatches, m)
	}

	seenPending := make(map[string]struct{}, len(pendings))
	for _, p := range pendings {
		if isBlank(p.Original) {
			continue
		}
		if _, dup := seenPending[p.Original]; dup {
			return set, errors.NewDataIntegrityError(c.String(), p.Original, "duplicate original in pending matches")
		}
		if _, both := seenAuto[p.Original]; both {
			return set, errors.NewDataIntegrityError(c.String(), p.Original, "original is both auto-matched and pending")
		}
		if len(p.Candidates) == 0 {
			return set, errors.NewDataIntegrityError(c.String(), p.Original, "pending match has no candidates")
		}
		for _, cand := range p.Candidates {
			if cand.Score < 0 {
				return set, errors.NewDataIntegrityError(c.String(), p.Original, "candidate "+cand.RoleName+" has a negative score")
			}
			if isBlank(cand.RoleName) {
				return set, errors.NewDataIntegrityError(c.String(), p.Original, "candidate has an empty role name")
			}
		}
		seenPending[p.Original] = struct{}{}
		set.PendingMatches = append(set.PendingMatches, p.clone())
	}
	return set, nil
}

// Set returns a copy of the match set for c.
func (a *AnalysisResult) Set(c Category) CategoryMatchSet {
	if !c.Valid() {
		return CategoryMatchSet{}
	}
	return a.sets[c].clone()
}

// Pending looks up the pending entry for original in c.
func (a *AnalysisResult) Pending(c Category, original string) (PendingMatch, bool) {
	if !c.Valid() {
		return PendingMatch{}, false
	}
	i, ok := a.pending[c][original]
	if !ok {
		return PendingMatch{}, false
	}
	return a.sets[c].PendingMatches[i].clone(), true
}

// Auto looks up the auto match for original in c.
func (a *AnalysisResult) Auto(c Category, original string) (AutoMatch, bool) {
	if !c.Valid() {
		return AutoMatch{}, false
	}
	i, ok := a.auto[c][original]
	if !ok {
		return AutoMatch{}, false
	}
	return a.sets[c].AutoMatches[i], true
}

// Unique returns the distinct survey values collected for c.
func (a *AnalysisResult) Unique(c Category) []string {
	if !c.Valid() {
		return nil
	}
	return append([]string(nil), a.unique[c]...)
}

// Unmatched returns the distinct values of c that the backend neither matched
// nor found candidates for, in collection order.
func (a *AnalysisResult) Unmatched(c Category) []string {
	if !c.Valid() {
		return nil
	}
	var out []string
	for _, v := range a.unique[c] {
		if _, ok := a.auto[c][v]; ok {
			continue
		}
		if _, ok := a.pending[c][v]; ok {
			continue
		}
		out = append(out, v)
	}
	return out
}

// HasPending reports whether any category has a value awaiting a choice.
func (a *AnalysisResult) HasPending() bool {
	return a.PendingCount() > 0
}

// PendingCount returns the number of pending values across all categories.
func (a *AnalysisResult) PendingCount() int {
	n := 0
	for _, c := range Categories() {
		n += len(a.sets[c].PendingMatches)
	}
	return n
}

// AutoCount returns the number of auto-matched values across all categories.
func (a *AnalysisResult) AutoCount() int {
	n := 0
	for _, c := range Categories() {
		n += len(a.sets[c].AutoMatches)
	}
	return n
}

// Raw converts the result back to the wire shape. Lists are never nil.
func (a *AnalysisResult) Raw() RawAnalysis {
	var raw RawAnalysis
	for _, c := range Categories() {
		set := a.sets[c].clone()
		raw.AutoMatches.Set(c, set.AutoMatches)
		raw.PendingMatches.Set(c, set.PendingMatches)
		raw.SetUnique(c, append(make([]string, 0, len(a.unique[c])), a.unique[c]...))
	}
	return raw
}

// MarshalJSON encodes the result in the backend's wire shape.
func (a *AnalysisResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Raw())
}

// UnmarshalJSON decodes the wire shape and re-validates it.
func (a *AnalysisResult) UnmarshalJSON(data []byte) error {
	var raw RawAnalysis
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.WrapParse("json", "", err)
	}
	built, err := BuildAnalysisResult(raw)
	if err != nil {
		return err
	}
	*a = *built
	return nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func distinct(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if isBlank(v) {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
