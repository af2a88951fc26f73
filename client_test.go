package obrabotka

import (
	"bytes"
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/errors"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/logging"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/reconcile"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/report"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/roles"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/save"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/workflow"
)

type stubBackend struct{}

func (stubBackend) Analyze(context.Context, workflow.AnalysisRequest) (reconcile.RawAnalysis, error) {
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

func (stubBackend) Process(context.Context, workflow.ProcessRequest) (*report.ProcessResult, error) {
	return &report.ProcessResult{ProcessID: "proc_7"}, nil
}

func (stubBackend) Download(context.Context, string) ([]byte, error) {
	return []byte("xlsx"), nil
}

func request() workflow.AnalysisRequest {
	return workflow.AnalysisRequest{
		SurveyFile:       workflow.File{Name: "survey.xlsx", Content: []byte("PK")},
		RolesFile:        workflow.File{Name: "roles.xlsx", Content: []byte("PK")},
		ControlColumn:    "Управление",
		OperationColumns: []string{"Ведение"},
		RoleColumn:       "Роль",
		UIDColumn:        "UID",
	}
}

func newTestClient(t *testing.T, opts ...Option) Client {
	t.Helper()
	opts = append([]Option{
		WithCollaborator(stubBackend{}),
		WithLogger(logging.NewNopLogger()),
	}, opts...)
	c, err := New(opts...)
	require.NoError(t, err)
	return c
}

func TestNewRequiresCollaborator(t *testing.T) {
	_, err := New()
	require.Error(t, err)

	_, err = New(WithCollaborator(nil))
	assert.True(t, errors.IsInputValidation(err))

	_, err = New(WithCollaborator(stubBackend{}), WithSessionTTL(0))
	assert.True(t, errors.IsInputValidation(err))
}

func TestSessionLifecycle(t *testing.T) {
	c := newTestClient(t)

	var created, removed []string
	c.OnSessionCreated(func(id string) { created = append(created, id) })
	c.OnSessionRemoved(func(id string) { removed = append(removed, id) })

	s, err := c.NewSession()
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, workflow.StatusIdle, s.Status())

	got, err := c.Session(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.Len(t, c.List(), 1)

	require.NoError(t, c.DeleteSession(s.ID))
	_, err = c.Session(s.ID)
	assert.True(t, errors.IsNotFound(err))
	assert.True(t, errors.IsNotFound(c.DeleteSession(s.ID)))

	assert.Equal(t, []string{s.ID}, created)
	assert.Equal(t, []string{s.ID}, removed)
}

func TestSessionsAreIndependent(t *testing.T) {
	c := newTestClient(t)
	a, err := c.NewSession()
	require.NoError(t, err)
	b, err := c.NewSession()
	require.NoError(t, err)

	require.NoError(t, a.StartAnalysis(context.Background(), request()))
	assert.Equal(t, workflow.StatusAwaitingConfirmation, a.Status())
	assert.Equal(t, workflow.StatusIdle, b.Status())
}

func TestTransitionHooksCarrySessionID(t *testing.T) {
	c := newTestClient(t)

	type event struct {
		id       string
		from, to workflow.Status
	}
	var mu sync.Mutex
	var events []event
	c.OnTransition(func(id string, from, to workflow.Status) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, event{id, from, to})
	})

	s, err := c.NewSession()
	require.NoError(t, err)
	require.NoError(t, s.StartAnalysis(context.Background(), request()))

	assert.Equal(t, []event{
		{s.ID, workflow.StatusIdle, workflow.StatusAnalyzing},
		{s.ID, workflow.StatusAnalyzing, workflow.StatusAwaitingConfirmation},
	}, events)
}

func TestMaxSessions(t *testing.T) {
	c := newTestClient(t, WithMaxSessions(1))
	_, err := c.NewSession()
	require.NoError(t, err)
	_, err = c.NewSession()
	assert.True(t, errors.IsBusy(err))
}

func TestMaxSessionsConcurrent(t *testing.T) {
	const limit = 5
	c := newTestClient(t, WithMaxSessions(limit))

	var created atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.NewSession(); err == nil {
				created.Add(1)
			} else {
				assert.True(t, errors.IsBusy(err))
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, limit, created.Load())
	assert.Len(t, c.List(), limit)
}

func TestSessionExpiry(t *testing.T) {
	c := newTestClient(t, WithSessionTTL(20*time.Millisecond))
	s, err := c.NewSession()
	require.NoError(t, err)

	time.Sleep(40 * time.Millisecond)
	_, err = c.Session(s.ID)
	assert.True(t, errors.IsNotFound(err))
}

func TestRoleCatalogAttachesUIDs(t *testing.T) {
	catalog := roles.New(roles.Role{Name: "ТУ ПС Тестовая", UID: "UID042"})
	c := newTestClient(t, WithRoleCatalog(catalog))

	s, err := c.NewSession()
	require.NoError(t, err)
	require.NoError(t, s.StartAnalysis(context.Background(), request()))
	require.NoError(t, s.RecordChoice(reconcile.TU, "ПС Тестовая", "ТУ ПС Тестовая"))

	res, ok := s.Snapshot().Mapping.Get(reconcile.TU, "ПС Тестовая")
	require.True(t, ok)
	assert.Equal(t, "UID042", res.UID)
}

func TestSaveAndLoadSession(t *testing.T) {
	for _, name := range []string{"session.json", "session.yaml"} {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t)
			s, err := c.NewSession()
			require.NoError(t, err)
			require.NoError(t, s.StartAnalysis(context.Background(), request()))
			require.NoError(t, s.RecordChoice(reconcile.TU, "ПС Тестовая", "ТУ ПС Тестовая"))

			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, c.SaveSession(s.ID, save.WithPath(path)))

			other := newTestClient(t)
			loaded, dropped, err := other.LoadSession(path)
			require.NoError(t, err)
			assert.Empty(t, dropped)
			assert.Equal(t, s.ID, loaded.ID)
			assert.Equal(t, workflow.StatusAwaitingConfirmation, loaded.Status())
			assert.True(t, loaded.Snapshot().Ready)

			got, err := other.Session(s.ID)
			require.NoError(t, err)
			assert.Same(t, loaded, got)
		})
	}
}

func TestImportSessionCompleted(t *testing.T) {
	c := newTestClient(t)
	s, err := c.NewSession()
	require.NoError(t, err)
	require.NoError(t, s.StartAnalysis(context.Background(), request()))
	require.NoError(t, s.Submit(context.Background()))

	var buf bytes.Buffer
	require.NoError(t, c.SaveSession(s.ID, save.WithWriter(&buf)))

	other := newTestClient(t)
	loaded, _, err := other.ImportSession(&buf, save.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusCompleted, loaded.Status())

	data, err := loaded.Download(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "xlsx", string(data))
}

func TestLoadSessionMissingFile(t *testing.T) {
	c := newTestClient(t)
	_, _, err := c.LoadSession(filepath.Join(t.TempDir(), "nope.json"))
	assert.True(t, errors.IsNotFound(err))
}
