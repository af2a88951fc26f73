// Package reconcile holds the reconciliation data model and engine: the
// per-category auto/pending partition produced by the matching backend, the
// user's confirmations of ambiguous values, and the resolved mapping derived
// from both.
//
// Everything in this package is pure and synchronous. Ownership of a State
// and its lifecycle belongs to the workflow machine.
package reconcile

// Candidate is one suggested catalog role for an ambiguous value.
// Candidates keep the order the backend returned them in.
type Candidate struct {
	RoleName string `json:"role_name" yaml:"role_name"`
	Score    int    `json:"score" yaml:"score"`
}

// AutoMatch is a value resolved without human input. Type is a provenance
// tag (exact, normalized, alias) used for display only.
type AutoMatch struct {
	Original string `json:"original" yaml:"original"`
	Matched  string `json:"matched" yaml:"matched"`
	UID      string `json:"uid" yaml:"uid"`
	Type     string `json:"type" yaml:"type"`
}

// PendingMatch is a value that needs a human to pick one of its candidates.
type PendingMatch struct {
	Original   string      `json:"original" yaml:"original"`
	Candidates []Candidate `json:"candidates" yaml:"candidates"`
}

// HasCandidate reports whether roleName is one of the candidates.
func (p PendingMatch) HasCandidate(roleName string) bool {
	for _, c := range p.Candidates {
		if c.RoleName == roleName {
			return true
		}
	}
	return false
}

// Best returns the highest-scored candidate, first wins on ties.
func (p PendingMatch) Best() (Candidate, bool) {
	if len(p.Candidates) == 0 {
		return Candidate{}, false
	}
	best := p.Candidates[0]
	for _, c := range p.Candidates[1:] {
		if c.Score > best.Score {
			best = c
		}
	}
	return best, true
}

func (p PendingMatch) clone() PendingMatch {
	return PendingMatch{
		Original:   p.Original,
		Candidates: append([]Candidate(nil), p.Candidates...),
	}
}

// CategoryMatchSet is the analysis outcome for one category. Originals are
// unique within each list and never appear in both.
type CategoryMatchSet struct {
	AutoMatches    []AutoMatch    `json:"auto_matches" yaml:"auto_matches"`
	PendingMatches []PendingMatch `json:"pending_matches" yaml:"pending_matches"`
}

func (s CategoryMatchSet) clone() CategoryMatchSet {
	out := CategoryMatchSet{
		AutoMatches:    append(make([]AutoMatch, 0, len(s.AutoMatches)), s.AutoMatches...),
		PendingMatches: make([]PendingMatch, 0, len(s.PendingMatches)),
	}
	for _, p := range s.PendingMatches {
		out.PendingMatches = append(out.PendingMatches, p.clone())
	}
	return out
}

// AutoMatches groups auto matches by category code on the wire.
type AutoMatches struct {
	TU []AutoMatch `json:"TU" yaml:"TU"`
	TV []AutoMatch `json:"TV" yaml:"TV"`
	IV []AutoMatch `json:"IV" yaml:"IV"`
}

// For returns the list for c.
func (a AutoMatches) For(c Category) []AutoMatch {
	switch c {
	case TU:
		return a.TU
	case TV:
		return a.TV
	case IV:
		return a.IV
	}
	return nil
}

// Set replaces the list for c.
func (a *AutoMatches) Set(c Category, v []AutoMatch) {
	switch c {
	case TU:
		a.TU = v
	case TV:
		a.TV = v
	case IV:
		a.IV = v
	}
}

// PendingMatches groups pending matches by category code on the wire.
type PendingMatches struct {
	TU []PendingMatch `json:"TU" yaml:"TU"`
	TV []PendingMatch `json:"TV" yaml:"TV"`
	IV []PendingMatch `json:"IV" yaml:"IV"`
}

// For returns the list for c.
func (p PendingMatches) For(c Category) []PendingMatch {
	switch c {
	case TU:
		return p.TU
	case TV:
		return p.TV
	case IV:
		return p.IV
	}
	return nil
}

// Set replaces the list for c.
func (p *PendingMatches) Set(c Category, v []PendingMatch) {
	switch c {
	case TU:
		p.TU = v
	case TV:
		p.TV = v
	case IV:
		p.IV = v
	}
}

// RawAnalysis is the analysis payload exactly as the matching backend sends it.
// It is unvalidated; BuildAnalysisResult turns it into an AnalysisResult.
type RawAnalysis struct {
	UniqueTU       []string       `json:"unique_tu" yaml:"unique_tu"`
	UniqueTV       []string       `json:"unique_tv" yaml:"unique_tv"`
	UniqueIV       []string       `json:"unique_iv" yaml:"unique_iv"`
	PendingMatches PendingMatches `json:"pending_matches" yaml:"pending_matches"`
	AutoMatches    AutoMatches    `json:"auto_matches" yaml:"auto_matches"`
}

// Unique returns the distinct survey values collected for c.
func (r RawAnalysis) Unique(c Category) []string {
	switch c {
	case TU:
		return r.UniqueTU
	case TV:
		return r.UniqueTV
	case IV:
		return r.UniqueIV
	}
	return nil
}

// SetUnique replaces the distinct values for c.
func (r *RawAnalysis) SetUnique(c Category, v []string) {
	switch c {
	case TU:
		r.UniqueTU = v
	case TV:
		r.UniqueTV = v
	case IV:
		r.UniqueIV = v
	}
}
