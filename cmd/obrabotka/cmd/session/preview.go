package session

import (
	"github.com/spf13/cobra"

	"github.com/EvTKi/Obrabotka-Jeka-remake/cmd/application"
	"github.com/EvTKi/Obrabotka-Jeka-remake/internal/cmd/output"
)

// NewPreviewCommand creates the preview command.
func NewPreviewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "preview WORKBOOK",
		GroupID: "workflow",
		Short:   "List the sheets and columns of a workbook",
		Long: `Preview uploads a workbook to the matching backend and lists its sheets
with the column headers and first rows of each, so the column names for
"obrabotka analyze" can be picked. With --sheet only that sheet is read.`,
		Example: `  obrabotka preview опрос.xlsx
  obrabotka preview роли.xlsx --sheet Роли -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPreview(cmd, app, args[0])
		},
	}
	cmd.Flags().String("sheet", "", "read only this sheet")
	return cmd
}

func runPreview(cmd *cobra.Command, app application.Application, path string) error {
	f, err := readFile(path)
	if err != nil {
		return err
	}
	if err := f.Validate("file"); err != nil {
		return err
	}
	matcher, err := app.Matcher()
	if err != nil {
		return err
	}

	sheet, _ := cmd.Flags().GetString("sheet")
	app.Logger().Debug().Str("file", f.Name).Str("sheet", sheet).Msg("Previewing workbook")

	var data any
	var tables output.Tables
	if sheet != "" {
		s, err := matcher.SheetData(cmd.Context(), f, sheet)
		if err != nil {
			return err
		}
		data, tables = s, output.Tables{output.SheetTable(sheet, *s)}
	} else {
		p, err := matcher.Preview(cmd.Context(), f)
		if err != nil {
			return err
		}
		data, tables = p, output.PreviewTables(p)
	}

	return render(cmd.OutOrStdout(), app, data, tables)
}
