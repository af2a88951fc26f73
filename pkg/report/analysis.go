package report

import (
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/constants"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/reconcile"
)

// AnalysisRow is one line of the confirmation table shown after analysis.
type AnalysisRow struct {
	Value      string                `json:"value" yaml:"value"`
	Role       string                `json:"role" yaml:"role"`
	Found      bool                  `json:"found" yaml:"found"`
	Type       string                `json:"type" yaml:"type"`
	UID        string                `json:"uid,omitempty" yaml:"uid,omitempty"`
	Candidates []reconcile.Candidate `json:"candidates,omitempty" yaml:"candidates,omitempty"`
	Selected   string                `json:"selected,omitempty" yaml:"selected,omitempty"`
}

// AnalysisHeader is the column header of the confirmation table.
var AnalysisHeader = []string{"Исходное значение", "Сопоставленная роль", "Найдено", "Тип", "UID"}

// ProjectAnalysis lists the auto matches of c followed by its pending values.
// Pending rows carry their candidates and are marked not found.
func ProjectAnalysis(analysis *reconcile.AnalysisResult, c reconcile.Category) []AnalysisRow {
	set := analysis.Set(c)
	rows := make([]AnalysisRow, 0, len(set.AutoMatches)+len(set.PendingMatches))
	for _, m := range set.AutoMatches {
		rows = append(rows, AnalysisRow{
			Value: m.Original,
			Role:  m.Matched,
			Found: true,
			Type:  m.Type,
			UID:   m.UID,
		})
	}
	for _, p := range set.PendingMatches {
		rows = append(rows, AnalysisRow{
			Value:      p.Original,
			Role:       constants.NotFoundLabel,
			Found:      false,
			Type:       constants.NotFoundLabel,
			Candidates: p.Candidates,
		})
	}
	return rows
}

// ApplyChoices marks the candidate the user picked on each pending row of c.
func ApplyChoices(rows []AnalysisRow, choices reconcile.UserChoices, c reconcile.Category) []AnalysisRow {
	out := make([]AnalysisRow, len(rows))
	copy(out, rows)
	for i := range out {
		if out[i].Found {
			continue
		}
		if role, ok := choices.Get(c, out[i].Value); ok {
			out[i].Selected = role
		}
	}
	return out
}

// Cells renders the row under AnalysisHeader. A pending row with a
// selection shows the selected role.
func (r AnalysisRow) Cells() []string {
	role := r.Role
	if r.Selected != "" {
		role = r.Selected
	}
	found := "❌"
	if r.Found {
		found = "✅"
	}
	return []string{r.Value, role, found, r.Type, r.UID}
}
