package reconcile

import (
	"encoding/json"
)

// MatchTypeManual tags a resolution the user confirmed by hand.
const MatchTypeManual = "manual"

// Resolution is the final outcome for one source value.
// UID is empty while unknown; user-confirmed roles get theirs from a RoleCatalog.
type Resolution struct {
	Original  string `json:"original" yaml:"original"`
	RoleName  string `json:"role_name,omitempty" yaml:"role_name,omitempty"`
	UID       string `json:"uid,omitempty" yaml:"uid,omitempty"`
	Resolved  bool   `json:"resolved" yaml:"resolved"`
	MatchType string `json:"match_type,omitempty" yaml:"match_type,omitempty"`
}

// ResolvedMapping lists, per category, one Resolution for every auto and
// pending value: auto matches first, then pending values, each in backend order.
type ResolvedMapping struct {
	entries [numCategories][]Resolution
	index   [numCategories]map[string]int
}

// ResolveMapping derives the mapping from state. It is a pure function of
// the analysis and the choices.
func ResolveMapping(s *State) ResolvedMapping {
	var rm ResolvedMapping
	for _, c := range Categories() {
		set := s.analysis.sets[c]
		entries := make([]Resolution, 0, len(set.AutoMatches)+len(set.PendingMatches))
		for _, m := range set.AutoMatches {
			entries = append(entries, Resolution{
				Original:  m.Original,
				RoleName:  m.Matched,
				UID:       m.UID,
				Resolved:  true,
				MatchType: m.Type,
			})
		}
		for _, p := range set.PendingMatches {
			r := Resolution{Original: p.Original}
			if role, ok := s.choices.Get(c, p.Original); ok {
				r.RoleName = role
				r.Resolved = true
				r.MatchType = MatchTypeManual
			}
			entries = append(entries, r)
		}
		rm.setEntries(c, entries)
	}
	return rm
}

func (rm *ResolvedMapping) setEntries(c Category, entries []Resolution) {
	rm.entries[c] = entries
	rm.index[c] = make(map[string]int, len(entries))
	for i, e := range entries {
		rm.index[c][e.Original] = i
	}
}

// Get returns the resolution for original in c.
func (rm ResolvedMapping) Get(c Category, original string) (Resolution, bool) {
	if !c.Valid() {
		return Resolution{}, false
	}
	i, ok := rm.index[c][original]
	if !ok {
		return Resolution{}, false
	}
	return rm.entries[c][i], true
}

// Entries returns the ordered resolutions for c.
func (rm ResolvedMapping) Entries(c Category) []Resolution {
	if !c.Valid() {
		return nil
	}
	return append([]Resolution(nil), rm.entries[c]...)
}

// Len returns the number of entries across all categories.
func (rm ResolvedMapping) Len() int {
	n := 0
	for _, e := range rm.entries {
		n += len(e)
	}
	return n
}

// Unresolved returns the entries still awaiting a choice, keyed by category.
// Categories without unresolved entries are omitted.
func (rm ResolvedMapping) Unresolved() map[Category][]Resolution {
	out := make(map[Category][]Resolution)
	for _, c := range Categories() {
		for _, e := range rm.entries[c] {
			if !e.Resolved {
				out[c] = append(out[c], e)
			}
		}
	}
	return out
}

// MarshalJSON encodes {"TU": [...], "TV": [...], "IV": [...]}.
func (rm ResolvedMapping) MarshalJSON() ([]byte, error) {
	out := make(map[string][]Resolution, numCategories)
	for _, c := range Categories() {
		entries := rm.entries[c]
		if entries == nil {
			entries = []Resolution{}
		}
		out[c.String()] = entries
	}
	return json.Marshal(out)
}

// RoleCatalog looks up the UID of a canonical role name.
type RoleCatalog interface {
	UID(roleName string) (string, bool)
}

// ResolveUIDs fills in the UID of resolved entries that lack one by looking
// the role up in catalog. Entries whose role is unknown keep an empty UID.
// The input mapping is not modified.
func ResolveUIDs(rm ResolvedMapping, catalog RoleCatalog) ResolvedMapping {
	if catalog == nil {
		return rm
	}
	var out ResolvedMapping
	for _, c := range Categories() {
		entries := append([]Resolution(nil), rm.entries[c]...)
		for i := range entries {
			e := &entries[i]
			if !e.Resolved || e.UID != "" || e.RoleName == "" {
				continue
			}
			if uid, ok := catalog.UID(e.RoleName); ok {
				e.UID = uid
			}
		}
		out.setEntries(c, entries)
	}
	return out
}
