package report

import (
	"io"
	"strconv"

	md "github.com/nao1215/markdown"

	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/reconcile"
)

// WriteMarkdown writes a processed result as a markdown report: the row
// table with highlighted rows marked, then one summary table per category.
func WriteMarkdown(w io.Writer, result *ProcessResult) error {
	doc := md.NewMarkdown(w)

	doc.H2("Результаты по строкам")
	if warning := HighlightWarning(result.HighlightCount()); warning != "" {
		doc.PlainText(md.Bold(warning)).LF()
	}

	views := result.Views()
	if len(views) == 0 {
		doc.PlainText("Нет данных для отображения").LF()
	} else {
		header := append([]string{"#"}, Columns(result.Rows)...)
		rows := make([][]string, 0, len(views))
		for _, v := range views {
			marker := strconv.Itoa(v.Index)
			if v.Highlight {
				marker = "⚠️ " + marker
			}
			rows = append(rows, append([]string{marker}, cellsFor(header[1:], v.Row)...))
		}
		doc.Table(md.TableSet{Header: header, Rows: rows})
	}

	doc.H2("Сводные списки ролей")
	for _, c := range reconcile.Categories() {
		doc.H3(c.Title())
		summary := ProjectSummary(result.Summary(c))
		if len(summary) == 0 {
			doc.PlainText(md.Italic("Нет данных")).LF()
			continue
		}
		rows := make([][]string, len(summary))
		for i, r := range summary {
			rows[i] = r.Cells()
		}
		doc.Table(md.TableSet{Header: SummaryHeader, Rows: rows})
	}

	if result.ProcessID != "" {
		doc.PlainText(md.Code(result.ProcessID)).LF()
	}

	return doc.Build()
}

// cellsFor renders row under columns; rows may have columns the first row lacks.
func cellsFor(columns []string, row Row) []string {
	out := make([]string, len(columns))
	for i, col := range columns {
		out[i] = row.Cell(col)
	}
	return out
}
