package report

import (
	"encoding/json"
	"fmt"

	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/constants"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/reconcile"
)

// ProcessResult is the processing backend's response: processed rows, the
// indices of rows whose role counts disagree, and one summary per category.
type ProcessResult struct {
	ProcessID     string
	Rows          []Row
	HighlightRows []int
	Summaries     [3]Summary
}

type processWire struct {
	ProcessID     string  `json:"process_id,omitempty"`
	Data          []Row   `json:"data"`
	HighlightRows []int   `json:"highlight_rows"`
	TUSummary     Summary `json:"tu_summary"`
	TVSummary     Summary `json:"tv_summary"`
	IVSummary     Summary `json:"iv_summary"`
}

// Summary returns the summary for c.
func (p *ProcessResult) Summary(c reconcile.Category) Summary {
	if !c.Valid() {
		return nil
	}
	return p.Summaries[c]
}

// Views projects the rows with their highlight flags.
func (p *ProcessResult) Views() []RowView {
	return ProjectRows(p.Rows, p.HighlightRows)
}

// HighlightCount counts highlight indices that fall on an actual row.
func (p *ProcessResult) HighlightCount() int {
	n := 0
	for _, v := range p.Views() {
		if v.Highlight {
			n++
		}
	}
	return n
}

// MarshalJSON encodes the backend wire shape.
func (p ProcessResult) MarshalJSON() ([]byte, error) {
	w := processWire{
		ProcessID:     p.ProcessID,
		Data:          p.Rows,
		HighlightRows: p.HighlightRows,
		TUSummary:     p.Summaries[reconcile.TU],
		TVSummary:     p.Summaries[reconcile.TV],
		IVSummary:     p.Summaries[reconcile.IV],
	}
	if w.Data == nil {
		w.Data = []Row{}
	}
	if w.HighlightRows == nil {
		w.HighlightRows = []int{}
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes the backend wire shape.
func (p *ProcessResult) UnmarshalJSON(data []byte) error {
	var w processWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*p = ProcessResult{
		ProcessID:     w.ProcessID,
		Rows:          w.Data,
		HighlightRows: w.HighlightRows,
	}
	p.Summaries[reconcile.TU] = w.TUSummary
	p.Summaries[reconcile.TV] = w.TVSummary
	p.Summaries[reconcile.IV] = w.IVSummary
	return nil
}

// HighlightWarning returns the row-count mismatch warning, or "" when no
// rows are highlighted.
func HighlightWarning(n int) string {
	if n <= 0 {
		return ""
	}
	return fmt.Sprintf(constants.HighlightWarningFormat, n)
}
