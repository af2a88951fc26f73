package session

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/EvTKi/Obrabotka-Jeka-remake/cmd/application"
	"github.com/EvTKi/Obrabotka-Jeka-remake/internal/cmd/emoji"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/constants"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/errors"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/save"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/workflow"
)

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "analyze",
		GroupID: "workflow",
		Short:   "Analyze a survey against a role catalog",
		Long: `Analyze uploads a survey and a roles workbook to the matching backend
and starts a new session. Values matched automatically are listed with
their roles; ambiguous values are listed with their candidates and must
be confirmed with "obrabotka choose" before the session is submitted.

The session is saved to the session directory, or to --out.`,
		Example: `  obrabotka analyze --survey опрос.xlsx --roles роли.xlsx
  obrabotka analyze --survey опрос.xlsx --roles роли.xlsx \
    --operation-col Ведение --operation-col "Ведение 2" \
    --replace "ПС=Подстанция" --out session.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAnalyze(cmd, app)
		},
	}

	cmd.Flags().String("survey", "", "survey workbook (.xlsx, .xls)")
	cmd.Flags().String("roles", "", "roles workbook (.xlsx, .xls)")
	cmd.Flags().String("control-col", constants.DefaultControlColumn, "survey column with control (ТУ) values")
	cmd.Flags().StringArray("operation-col", []string{constants.DefaultOperationColumn}, "survey column with operation (ТВ/ИВ) values, repeatable")
	cmd.Flags().String("role-col", constants.DefaultRoleColumn, "roles column with role names")
	cmd.Flags().String("uid-col", constants.DefaultUIDColumn, "roles column with UIDs")
	cmd.Flags().StringArray("replace", nil, "text replacement applied before matching as old=new, repeatable")
	cmd.Flags().String("out", "", "session file to write (.json or .yaml)")

	return cmd
}

func runAnalyze(cmd *cobra.Command, app application.Application) error {
	req, err := analysisRequestFromFlags(cmd)
	if err != nil {
		return err
	}

	client, err := app.Client()
	if err != nil {
		return err
	}
	s, err := client.NewSession()
	if err != nil {
		return err
	}

	app.Logger().Info().
		Str("session_id", s.ID).
		Str("survey", req.SurveyFile.Name).
		Str("roles", req.RolesFile.Name).
		Msg("Analyzing survey")

	if err := s.StartAnalysis(cmd.Context(), req); err != nil {
		return err
	}

	path, _ := cmd.Flags().GetString("out")
	if path == "" {
		path = filepath.Join(app.SessionDir(), s.ID+save.FormatJSON.Ext())
	}
	if err := store(app, client, s, path); err != nil {
		return err
	}

	if err := render(cmd.OutOrStdout(), app, newView(s, path), tablesFor(s)); err != nil {
		return err
	}

	snap := s.Snapshot()
	if snap.Ready {
		hint(cmd, "%s Session %s is ready: obrabotka submit %s", emoji.Success, s.ID, path)
	} else {
		hint(cmd, "%d values need confirmation: obrabotka choose %s --category ТУ --value ... --role ...", snap.PendingRemaining, path)
	}
	return nil
}

func analysisRequestFromFlags(cmd *cobra.Command) (workflow.AnalysisRequest, error) {
	flags := cmd.Flags()
	surveyPath, _ := flags.GetString("survey")
	rolesPath, _ := flags.GetString("roles")
	controlCol, _ := flags.GetString("control-col")
	operationCols, _ := flags.GetStringArray("operation-col")
	roleCol, _ := flags.GetString("role-col")
	uidCol, _ := flags.GetString("uid-col")
	replace, _ := flags.GetStringArray("replace")

	req := workflow.AnalysisRequest{
		ControlColumn:    controlCol,
		OperationColumns: operationCols,
		RoleColumn:       roleCol,
		UIDColumn:        uidCol,
	}

	var err error
	if req.SurveyFile, err = readFile(surveyPath); err != nil {
		return req, err
	}
	if req.RolesFile, err = readFile(rolesPath); err != nil {
		return req, err
	}
	if req.Replacements, err = parseReplacements(replace); err != nil {
		return req, err
	}
	return req, nil
}

// readFile reads a workbook from disk. An empty path yields an empty File
// so that request validation reports it together with any other problem.
func readFile(path string) (workflow.File, error) {
	if path == "" {
		return workflow.File{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return workflow.File{}, errors.NewNotFoundError("file", path)
		}
		return workflow.File{}, errors.WrapIO("read", path, err)
	}
	return workflow.File{Name: filepath.Base(path), Content: data}, nil
}

func parseReplacements(values []string) ([]workflow.Replacement, error) {
	out := make([]workflow.Replacement, 0, len(values))
	for _, v := range values {
		old, repl, ok := strings.Cut(v, "=")
		if !ok || old == "" {
			return nil, errors.NewInputValidationError("replacement must be old=new: "+v, "replace")
		}
		out = append(out, workflow.Replacement{Old: old, New: repl})
	}
	return out, nil
}
