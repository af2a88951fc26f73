package session

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	obrabotka "github.com/EvTKi/Obrabotka-Jeka-remake"
	"github.com/EvTKi/Obrabotka-Jeka-remake/cmd/application"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/errors"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/logging"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/reconcile"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/report"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/workflow"
)

const processResponse = `{
  "data": [{"Объект": "Объект 1", "Управление": "Объект 1"}, {"Объект": "ПС", "Управление": "ПС Тестовая"}],
  "highlight_rows": [1],
  "tu_summary": {
    "Объект 1": {"role_name": "ТУ Объект 1", "found": true, "uid": "UID001", "match_type": "exact"},
    "ПС Тестовая": {"role_name": "ТУ ПС Тестовая", "found": true, "uid": "UID002", "match_type": "manual"}
  },
  "tv_summary": {},
  "iv_summary": {},
  "process_id": "proc_42"
}`

type fakeMatcher struct {
	mu        sync.Mutex
	analyzed  []workflow.AnalysisRequest
	processed []workflow.ProcessRequest
}

func (f *fakeMatcher) Analyze(_ context.Context, req workflow.AnalysisRequest) (reconcile.RawAnalysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.analyzed = append(f.analyzed, req)
	return reconcile.RawAnalysis{
		UniqueTU: []string{"Объект 1", "ПС Тестовая"},
		AutoMatches: reconcile.AutoMatches{TU: []reconcile.AutoMatch{
			{Original: "Объект 1", Matched: "ТУ Объект 1", UID: "UID001", Type: "exact"},
		}},
		PendingMatches: reconcile.PendingMatches{TU: []reconcile.PendingMatch{
			{Original: "ПС Тестовая", Candidates: []reconcile.Candidate{
				{RoleName: "ТУ ПС Тестовая", Score: 85},
				{RoleName: "ТУ Тестовая Подстанция", Score: 78},
			}},
		}},
	}, nil
}

func (f *fakeMatcher) Process(_ context.Context, req workflow.ProcessRequest) (*report.ProcessResult, error) {
	f.mu.Lock()
	f.processed = append(f.processed, req)
	f.mu.Unlock()
	var result report.ProcessResult
	if err := json.Unmarshal([]byte(processResponse), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (f *fakeMatcher) Download(_ context.Context, processID string) ([]byte, error) {
	return []byte("xlsx:" + processID), nil
}

func (f *fakeMatcher) Health(context.Context) error { return nil }

const sheetResponse = `{"columns": ["Объект", "Управление"], "preview_data": [{"Объект": "ПС", "Управление": "ПС Тестовая"}]}`

func (f *fakeMatcher) Preview(_ context.Context, file workflow.File) (*workflow.FilePreview, error) {
	var sheet workflow.SheetPreview
	if err := json.Unmarshal([]byte(sheetResponse), &sheet); err != nil {
		return nil, err
	}
	return &workflow.FilePreview{
		SheetNames: []string{"Лист1", "Пустой"},
		Sheets:     map[string]workflow.SheetPreview{"Лист1": sheet, "Пустой": {}},
	}, nil
}

func (f *fakeMatcher) SheetData(ctx context.Context, file workflow.File, sheet string) (*workflow.SheetPreview, error) {
	p, _ := f.Preview(ctx, file)
	s, err := p.Sheet(sheet)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

type testEnv struct {
	app     *application.Mock
	matcher *fakeMatcher
	dir     string
	format  string
}

// newTestEnv builds an application whose every command gets a fresh
// client, the way separate CLI invocations do.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{matcher: &fakeMatcher{}, dir: t.TempDir(), format: "json"}
	env.app = &application.Mock{
		ClientFunc: func() (obrabotka.Client, error) {
			return obrabotka.New(
				obrabotka.WithCollaborator(env.matcher),
				obrabotka.WithLogger(logging.NewNopLogger()),
			)
		},
		MatcherFunc:      func() (application.Matcher, error) { return env.matcher, nil },
		OutputFormatFunc: func() string { return env.format },
		SessionDirFunc:   func() string { return filepath.Join(env.dir, "sessions") },
	}
	return env
}

func (e *testEnv) run(args ...string) (string, string, error) {
	root := &cobra.Command{Use: "obrabotka", SilenceUsage: true, SilenceErrors: true}
	root.AddGroup(&cobra.Group{ID: "workflow", Title: "Workflow Commands:"})
	root.AddCommand(
		NewAnalyzeCommand(e.app),
		NewChooseCommand(e.app),
		NewStatusCommand(e.app),
		NewSubmitCommand(e.app),
		NewDownloadCommand(e.app),
		NewPreviewCommand(e.app),
	)
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func (e *testEnv) workbooks(t *testing.T) (string, string) {
	t.Helper()
	survey := filepath.Join(e.dir, "survey.xlsx")
	roles := filepath.Join(e.dir, "roles.xlsx")
	require.NoError(t, os.WriteFile(survey, []byte("PK survey"), 0o600))
	require.NoError(t, os.WriteFile(roles, []byte("PK roles"), 0o600))
	return survey, roles
}

func (e *testEnv) analyze(t *testing.T, extra ...string) (View, string) {
	t.Helper()
	survey, roles := e.workbooks(t)
	path := filepath.Join(e.dir, "session.json")
	args := append([]string{"analyze", "--survey", survey, "--roles", roles, "--out", path}, extra...)
	stdout, _, err := e.run(args...)
	require.NoError(t, err)
	return decodeView(t, stdout), path
}

func decodeView(t *testing.T, s string) View {
	t.Helper()
	var v View
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func TestFullWorkflow(t *testing.T) {
	env := newTestEnv(t)

	view, path := env.analyze(t, "--replace", "ПС=Подстанция")
	assert.Equal(t, workflow.StatusAwaitingConfirmation, view.Status)
	assert.False(t, view.Ready)
	assert.Equal(t, 1, view.PendingRemaining)
	require.Len(t, view.Analysis["TU"], 2)
	assert.Equal(t, "ТУ Объект 1", view.Analysis["TU"][0].Role)

	require.Len(t, env.matcher.analyzed, 1)
	req := env.matcher.analyzed[0]
	assert.Equal(t, "survey.xlsx", req.SurveyFile.Name)
	assert.Equal(t, []workflow.Replacement{{Old: "ПС", New: "Подстанция"}}, req.Replacements)

	stdout, stderr, err := env.run("choose", path, "--category", "ТУ", "--value", "ПС Тестовая", "--role", "ТУ ПС Тестовая")
	require.NoError(t, err)
	view = decodeView(t, stdout)
	assert.True(t, view.Ready)
	assert.Equal(t, "ТУ ПС Тестовая", view.Analysis["TU"][1].Selected)
	assert.Contains(t, stderr, "All values confirmed")

	stdout, _, err = env.run("submit", path)
	require.NoError(t, err)
	view = decodeView(t, stdout)
	assert.Equal(t, workflow.StatusCompleted, view.Status)
	require.NotNil(t, view.Result)
	assert.Equal(t, "proc_42", view.Result.ProcessID)

	require.Len(t, env.matcher.processed, 1)
	assert.Equal(t, map[string]string{"ПС Тестовая": "ТУ ПС Тестовая"}, env.matcher.processed[0].UserChoices["TU"])

	target := filepath.Join(env.dir, "result.xlsx")
	stdout, _, err = env.run("download", path, "-O", target)
	require.NoError(t, err)
	assert.Equal(t, target+"\n", stdout)
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "xlsx:proc_42", string(data))

	stdout, _, err = env.run("status", path)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusCompleted, decodeView(t, stdout).Status)
}

func TestAnalyzeDefaultsToSessionDir(t *testing.T) {
	env := newTestEnv(t)
	survey, roles := env.workbooks(t)

	stdout, _, err := env.run("analyze", "--survey", survey, "--roles", roles)
	require.NoError(t, err)
	view := decodeView(t, stdout)
	assert.Equal(t, filepath.Join(env.dir, "sessions", view.SessionID+".json"), view.Path)

	stdout, _, err = env.run("status", view.SessionID)
	require.NoError(t, err)
	assert.Equal(t, view.SessionID, decodeView(t, stdout).SessionID)
}

func TestAnalyzeValidation(t *testing.T) {
	env := newTestEnv(t)
	survey, _ := env.workbooks(t)

	_, _, err := env.run("analyze", "--survey", survey, "--out", filepath.Join(env.dir, "s.json"))
	assert.True(t, errors.IsInputValidation(err))
	assert.Empty(t, env.matcher.analyzed)
	assert.NoFileExists(t, filepath.Join(env.dir, "s.json"))

	_, _, err = env.run("analyze", "--survey", filepath.Join(env.dir, "missing.xlsx"), "--roles", survey)
	assert.True(t, errors.IsNotFound(err))

	_, _, err = env.run("analyze", "--survey", survey, "--roles", survey, "--replace", "no-separator")
	assert.True(t, errors.IsInputValidation(err))
}

func TestChooseRejectsUnknownRole(t *testing.T) {
	env := newTestEnv(t)
	_, path := env.analyze(t)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	_, _, err = env.run("choose", path, "--category", "TU", "--value", "ПС Тестовая", "--role", "ТУ Чужая")
	assert.True(t, errors.IsInvalidChoice(err))

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	_, _, err = env.run("choose", path, "--category", "XX", "--value", "ПС Тестовая", "--role", "ТУ ПС Тестовая")
	assert.True(t, errors.IsInputValidation(err))

	_, _, err = env.run("choose", path, "--category", "TU", "--value", "ПС Тестовая")
	assert.True(t, errors.IsInputValidation(err))
}

func TestChooseClear(t *testing.T) {
	env := newTestEnv(t)
	_, path := env.analyze(t)

	_, _, err := env.run("choose", path, "--category", "TU", "--value", "ПС Тестовая", "--role", "ТУ Тестовая Подстанция")
	require.NoError(t, err)

	stdout, _, err := env.run("choose", path, "--category", "TU", "--value", "ПС Тестовая", "--clear")
	require.NoError(t, err)
	view := decodeView(t, stdout)
	assert.False(t, view.Ready)
	assert.Empty(t, view.Analysis["TU"][1].Selected)

	_, stderr, err := env.run("choose", path, "--category", "TU", "--value", "ПС Тестовая", "--clear")
	require.NoError(t, err)
	assert.Contains(t, stderr, "No choice was recorded")
}

func TestChooseFromFile(t *testing.T) {
	env := newTestEnv(t)
	_, path := env.analyze(t)

	bad := filepath.Join(env.dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("TU:\n  ПС Тестовая: ТУ Нет Такой\n"), 0o600))
	_, _, err := env.run("choose", path, "--from", bad)
	assert.True(t, errors.IsInvalidChoice(err))

	good := filepath.Join(env.dir, "choices.yaml")
	require.NoError(t, os.WriteFile(good, []byte("ТУ:\n  ПС Тестовая: ТУ ПС Тестовая\n"), 0o600))
	stdout, _, err := env.run("choose", path, "--from", good)
	require.NoError(t, err)
	assert.True(t, decodeView(t, stdout).Ready)
}

func TestSubmitMarkdown(t *testing.T) {
	env := newTestEnv(t)
	_, path := env.analyze(t)

	stdout, _, err := env.run("submit", path, "--markdown")
	require.NoError(t, err)
	assert.Contains(t, stdout, "## Результаты по строкам")
	assert.Contains(t, stdout, report.HighlightWarning(1))

	_, _, err = env.run("submit", path)
	assert.True(t, errors.IsInvalidTransition(err))
}

func TestDownloadBeforeSubmit(t *testing.T) {
	env := newTestEnv(t)
	_, path := env.analyze(t)

	_, _, err := env.run("download", path, "-O", filepath.Join(env.dir, "out.xlsx"))
	assert.True(t, errors.IsInvalidTransition(err))
}

func TestStatusMissingSession(t *testing.T) {
	env := newTestEnv(t)
	_, _, err := env.run("status", "no-such-session")
	assert.True(t, errors.IsNotFound(err))
}

func TestTableOutput(t *testing.T) {
	env := newTestEnv(t)
	env.format = "table"
	survey, roles := env.workbooks(t)

	stdout, _, err := env.run("analyze", "--survey", survey, "--roles", roles, "--out", filepath.Join(env.dir, "s.yaml"))
	require.NoError(t, err)
	assert.Contains(t, stdout, reconcile.TU.Title())
	assert.Contains(t, stdout, "ТУ ПС Тестовая (85)")
	assert.Contains(t, stdout, "awaitingConfirmation")
	assert.FileExists(t, filepath.Join(env.dir, "s.yaml"))
}

func TestParseReplacements(t *testing.T) {
	got, err := parseReplacements([]string{"ПС=Подстанция", "ё="})
	require.NoError(t, err)
	assert.Equal(t, []workflow.Replacement{{Old: "ПС", New: "Подстанция"}, {Old: "ё", New: ""}}, got)

	_, err = parseReplacements([]string{"=x"})
	assert.True(t, errors.IsInputValidation(err))
}

func TestPreview(t *testing.T) {
	env := newTestEnv(t)
	survey, _ := env.workbooks(t)

	stdout, _, err := env.run("preview", survey)
	require.NoError(t, err)
	var preview workflow.FilePreview
	require.NoError(t, json.Unmarshal([]byte(stdout), &preview))
	assert.Equal(t, []string{"Лист1", "Пустой"}, preview.SheetNames)
	assert.Equal(t, workflow.ColumnNames{"Объект", "Управление"}, preview.Sheets["Лист1"].Columns)

	stdout, _, err = env.run("preview", survey, "--sheet", "Лист1")
	require.NoError(t, err)
	var sheet workflow.SheetPreview
	require.NoError(t, json.Unmarshal([]byte(stdout), &sheet))
	require.Len(t, sheet.PreviewData, 1)
	assert.Equal(t, "ПС Тестовая", sheet.PreviewData[0].Cell("Управление"))

	_, _, err = env.run("preview", survey, "--sheet", "Нет")
	assert.True(t, errors.IsNotFound(err))
}

func TestPreviewTable(t *testing.T) {
	env := newTestEnv(t)
	env.format = "table"
	survey, _ := env.workbooks(t)

	stdout, _, err := env.run("preview", survey)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Лист1")
	assert.Contains(t, stdout, "ПС Тестовая")
}

func TestPreviewRejectsNonWorkbook(t *testing.T) {
	env := newTestEnv(t)
	notes := filepath.Join(env.dir, "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("text"), 0o600))

	_, _, err := env.run("preview", notes)
	assert.True(t, errors.IsInputValidation(err))
}
