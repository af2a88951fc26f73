package output

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/reconcile"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/report"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/workflow"
)

// AnalysisTables renders the confirmation table of every category that has
// values. Pending rows list their candidates and show the role selected so
// far in place of the not-found label.
func AnalysisTables(snap workflow.Snapshot) Tables {
	if snap.Analysis == nil {
		return nil
	}
	choices := reconcile.ChoicesFromWire(snap.Choices)

	var out Tables
	for _, c := range reconcile.Categories() {
		rows := report.ApplyChoices(report.ProjectAnalysis(snap.Analysis, c), choices, c)
		if len(rows) == 0 {
			continue
		}
		data := Data{
			Title:   c.Title(),
			Headers: append(append([]string{}, report.AnalysisHeader...), "Кандидаты"),
		}
		for _, r := range rows {
			data.Rows = append(data.Rows, append(r.Cells(), candidates(r.Candidates)))
		}
		out = append(out, data)
	}
	return out
}

func candidates(cs []reconcile.Candidate) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = fmt.Sprintf("%s (%d)", c.RoleName, c.Score)
	}
	return strings.Join(parts, "; ")
}

// SummaryTables renders the per-category summaries of a processed result.
func SummaryTables(result *report.ProcessResult) Tables {
	var out Tables
	for _, c := range reconcile.Categories() {
		rows := report.ProjectSummary(result.Summary(c))
		if len(rows) == 0 {
			continue
		}
		data := Data{
			Title:           c.Title(),
			Headers:         report.SummaryHeader,
			ColumnAlignment: []Align{AlignLeft, AlignLeft, AlignCenter, AlignLeft, AlignLeft},
		}
		for _, r := range rows {
			data.Rows = append(data.Rows, r.Cells())
		}
		out = append(out, data)
	}
	return out
}

// ResultTable renders the processed rows. Highlighted rows are marked with
// "!" in the first column.
func ResultTable(result *report.ProcessResult) Data {
	data := Data{
		Headers: append([]string{"#"}, report.Columns(result.Rows)...),
	}
	if w := report.HighlightWarning(result.HighlightCount()); w != "" {
		data.Title = w
	}
	for _, v := range result.Views() {
		marker := strconv.Itoa(v.Index)
		if v.Highlight {
			marker += " !"
		}
		row := make([]string, 0, len(data.Headers))
		row = append(row, marker)
		for _, col := range data.Headers[1:] {
			row = append(row, v.Row.Cell(col))
		}
		data.Rows = append(data.Rows, row)
	}
	return data
}

// SessionTable renders the state of one session as a property table.
func SessionTable(id string, snap workflow.Snapshot) Data {
	rows := [][]string{
		{"Session", id},
		{"Status", snap.Status.String()},
		{"Ready", strconv.FormatBool(snap.Ready)},
		{"Pending", strconv.Itoa(snap.PendingRemaining)},
	}
	if snap.Settings != nil {
		rows = append(rows,
			[]string{"Survey", snap.Settings.SurveyFile},
			[]string{"Roles", snap.Settings.RolesFile},
		)
	}
	if snap.Result != nil {
		rows = append(rows,
			[]string{"Process ID", snap.Result.ProcessID},
			[]string{"Highlighted", strconv.Itoa(snap.Result.HighlightCount())},
		)
	}
	if snap.Error != "" {
		rows = append(rows, []string{"Error", snap.Error})
	}
	if snap.DownloadError != "" {
		rows = append(rows, []string{"Download error", snap.DownloadError})
	}
	if !snap.UpdatedAt.IsZero() {
		rows = append(rows, []string{"Updated", snap.UpdatedAt.Format("2006-01-02 15:04:05")})
	}
	return Data{Headers: []string{"Property", "Value"}, Rows: rows}
}

// PreviewTables renders the header and first rows of each previewed sheet
// in workbook order.
func PreviewTables(p *workflow.FilePreview) Tables {
	var out Tables
	for _, name := range p.SheetNames {
		sheet, ok := p.Sheets[name]
		if !ok {
			continue
		}
		out = append(out, SheetTable(name, sheet))
	}
	return out
}

// SheetTable renders one sheet preview titled with the sheet name.
func SheetTable(name string, sheet workflow.SheetPreview) Data {
	data := Data{Title: name, Headers: []string(sheet.Columns)}
	for _, row := range sheet.PreviewData {
		cells := make([]string, len(sheet.Columns))
		for i, col := range sheet.Columns {
			cells[i] = row.Cell(col)
		}
		data.Rows = append(data.Rows, cells)
	}
	return data
}
