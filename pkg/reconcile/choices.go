package reconcile

import (
	"encoding/json"
	"sort"
)

// UserChoices is the sparse record of roles the user picked for pending
// values: category → original → chosen role name. The zero value is empty
// and ready to use.
type UserChoices struct {
	m [numCategories]map[string]string
}

// Get returns the chosen role for original in c.
func (u UserChoices) Get(c Category, original string) (string, bool) {
	if !c.Valid() {
		return "", false
	}
	role, ok := u.m[c][original]
	return role, ok
}

// Len returns the number of recorded choices across all categories.
func (u UserChoices) Len() int {
	n := 0
	for _, m := range u.m {
		n += len(m)
	}
	return n
}

// LenFor returns the number of recorded choices in c.
func (u UserChoices) LenFor(c Category) int {
	if !c.Valid() {
		return 0
	}
	return len(u.m[c])
}

// Originals returns the originals with a choice in c, sorted.
func (u UserChoices) Originals(c Category) []string {
	if !c.Valid() {
		return nil
	}
	out := make([]string, 0, len(u.m[c]))
	for k := range u.m[c] {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Wire returns the choices keyed by category code. All three codes are
// always present so the processing backend sees a complete object.
func (u UserChoices) Wire() map[string]map[string]string {
	out := make(map[string]map[string]string, numCategories)
	for _, c := range Categories() {
		inner := make(map[string]string, len(u.m[c]))
		for k, v := range u.m[c] {
			inner[k] = v
		}
		out[c.String()] = inner
	}
	return out
}

// MarshalJSON encodes the wire form.
func (u UserChoices) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.Wire())
}

// ChoicesFromWire rebuilds choices from their wire form without checking
// them against an analysis. Unknown category codes are skipped.
func ChoicesFromWire(wire map[string]map[string]string) UserChoices {
	var u UserChoices
	for code, inner := range wire {
		c, err := ParseCategory(code)
		if err != nil {
			continue
		}
		for original, role := range inner {
			u.set(c, original, role)
		}
	}
	return u
}

func (u *UserChoices) set(c Category, original, role string) {
	if u.m[c] == nil {
		u.m[c] = make(map[string]string)
	}
	u.m[c][original] = role
}

func (u *UserChoices) remove(c Category, original string) bool {
	if _, ok := u.m[c][original]; !ok {
		return false
	}
	delete(u.m[c], original)
	return true
}

func (u UserChoices) clone() UserChoices {
	var out UserChoices
	for i, m := range u.m {
		if len(m) == 0 {
			continue
		}
		out.m[i] = make(map[string]string, len(m))
		for k, v := range m {
			out.m[i][k] = v
		}
	}
	return out
}
