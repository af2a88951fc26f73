// Package session provides the workflow commands of the obrabotka CLI.
// Each command loads a saved session, drives one step of the workflow and
// saves the session back, so a survey can be reconciled across several
// invocations.
package session

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	obrabotka "github.com/EvTKi/Obrabotka-Jeka-remake"
	"github.com/EvTKi/Obrabotka-Jeka-remake/cmd/application"
	"github.com/EvTKi/Obrabotka-Jeka-remake/internal/cmd/emoji"
	"github.com/EvTKi/Obrabotka-Jeka-remake/internal/cmd/output"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/reconcile"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/report"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/save"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/workflow"
)

// View is the structured output of the workflow commands.
type View struct {
	SessionID        string                          `json:"session_id" yaml:"session_id"`
	Path             string                          `json:"path" yaml:"path"`
	Status           workflow.Status                 `json:"status" yaml:"status"`
	Ready            bool                            `json:"ready" yaml:"ready"`
	PendingRemaining int                             `json:"pending_remaining" yaml:"pending_remaining"`
	Error            string                          `json:"error,omitempty" yaml:"error,omitempty"`
	Analysis         map[string][]report.AnalysisRow `json:"analysis,omitempty" yaml:"analysis,omitempty"`
	Result           *report.ProcessResult           `json:"result,omitempty" yaml:"result,omitempty"`
}

func newView(s *obrabotka.Session, path string) View {
	snap := s.Snapshot()
	v := View{
		SessionID:        s.ID,
		Path:             path,
		Status:           snap.Status,
		Ready:            snap.Ready,
		PendingRemaining: snap.PendingRemaining,
		Error:            snap.Error,
		Result:           snap.Result,
	}
	if snap.Analysis != nil {
		choices := reconcile.ChoicesFromWire(snap.Choices)
		v.Analysis = make(map[string][]report.AnalysisRow)
		for _, c := range reconcile.Categories() {
			rows := report.ApplyChoices(report.ProjectAnalysis(snap.Analysis, c), choices, c)
			if len(rows) > 0 {
				v.Analysis[c.String()] = rows
			}
		}
	}
	return v
}

// sessionPath resolves a session argument: an existing file is used as is,
// anything else is taken as a session id inside the session directory.
func sessionPath(app application.Application, ref string) string {
	if _, err := os.Stat(ref); err == nil {
		return ref
	}
	if filepath.Ext(ref) == "" && !strings.ContainsRune(ref, filepath.Separator) {
		return filepath.Join(app.SessionDir(), ref+save.FormatJSON.Ext())
	}
	return ref
}

// load restores the session saved at ref. Choices that no longer apply to
// the saved analysis are reported and dropped.
func load(cmd *cobra.Command, app application.Application, ref string) (obrabotka.Client, *obrabotka.Session, string, error) {
	client, err := app.Client()
	if err != nil {
		return nil, nil, "", err
	}
	path := sessionPath(app, ref)
	s, dropped, err := client.LoadSession(path)
	if err != nil {
		return nil, nil, "", err
	}
	for _, d := range dropped {
		app.Logger().Warn().Err(d).Str("session_id", s.ID).Msg("Dropped saved choice")
	}
	if len(dropped) > 0 {
		hint(cmd, "%s Dropped %d saved choices that no longer match the analysis", emoji.Warning, len(dropped))
	}
	return client, s, path, nil
}

// store saves the session back to path.
func store(app application.Application, client obrabotka.Client, s *obrabotka.Session, path string) error {
	if err := client.SaveSession(s.ID, save.WithPath(path)); err != nil {
		return err
	}
	app.Logger().Debug().Str("session_id", s.ID).Str("path", path).Msg("Session stored")
	return nil
}

// render writes data in the configured format. Table output uses the
// given tables; structured formats print data.
func render(w io.Writer, app application.Application, data any, tables output.Tables) error {
	format, err := output.ParseFormat(app.OutputFormat())
	if err != nil {
		return err
	}
	format = output.DetectFormat(string(format))
	if format == output.FormatTable {
		return output.NewFormatter(format).Format(w, tables)
	}
	return output.NewFormatter(format).Format(w, data)
}

// tablesFor picks the tables that describe a session in its current state.
func tablesFor(s *obrabotka.Session) output.Tables {
	snap := s.Snapshot()
	tables := output.Tables{output.SessionTable(s.ID, snap)}
	switch {
	case snap.Result != nil:
		tables = append(tables, output.SummaryTables(snap.Result)...)
	case snap.Analysis != nil:
		tables = append(tables, output.AnalysisTables(snap)...)
	}
	return tables
}

func hint(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.ErrOrStderr(), format+"\n", args...)
}
