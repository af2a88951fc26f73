package session

import (
	"github.com/spf13/cobra"

	"github.com/EvTKi/Obrabotka-Jeka-remake/cmd/application"
	"github.com/EvTKi/Obrabotka-Jeka-remake/internal/cmd/output"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/report"
)

// NewSubmitCommand creates the submit command.
func NewSubmitCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "submit SESSION",
		GroupID: "workflow",
		Short:   "Process a confirmed session",
		Long: `Submit sends the analysis and every confirmed choice to the matching
backend for processing. Pending values left unconfirmed are processed
as not found.

The processed rows are printed with rows whose role count does not match
marked, followed by one summary per category. A failed submission can be
retried with the same command.`,
		Example: `  obrabotka submit session.json
  obrabotka submit session.json --markdown > отчет.md`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubmit(cmd, app, args[0])
		},
	}
	cmd.Flags().Bool("markdown", false, "print the report as markdown")
	return cmd
}

func runSubmit(cmd *cobra.Command, app application.Application, ref string) error {
	client, s, path, err := load(cmd, app, ref)
	if err != nil {
		return err
	}

	app.Logger().Info().Str("session_id", s.ID).Msg("Submitting session")
	submitErr := s.Submit(cmd.Context())
	if err := store(app, client, s, path); err != nil {
		return err
	}
	if submitErr != nil {
		return submitErr
	}

	result := s.Snapshot().Result
	if markdown, _ := cmd.Flags().GetBool("markdown"); markdown {
		return report.WriteMarkdown(cmd.OutOrStdout(), result)
	}

	tables := append(output.Tables{output.ResultTable(result)}, output.SummaryTables(result)...)
	if err := render(cmd.OutOrStdout(), app, newView(s, path), tables); err != nil {
		return err
	}
	hint(cmd, "Download the workbook: obrabotka download %s", path)
	return nil
}
