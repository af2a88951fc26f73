package filter

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	obrabotka "github.com/EvTKi/Obrabotka-Jeka-remake"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/errors"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/logging"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/reconcile"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/report"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/workflow"
)

type backend struct{}

func (backend) Analyze(context.Context, workflow.AnalysisRequest) (reconcile.RawAnalysis, error) {
	return reconcile.RawAnalysis{
		UniqueTU: []string{"ПС Тестовая"},
		PendingMatches: reconcile.PendingMatches{TU: []reconcile.PendingMatch{
			{Original: "ПС Тестовая", Candidates: []reconcile.Candidate{{RoleName: "ТУ ПС Тестовая", Score: 85}}},
		}},
	}, nil
}

func (backend) Process(context.Context, workflow.ProcessRequest) (*report.ProcessResult, error) {
	return &report.ProcessResult{ProcessID: "proc_1"}, nil
}

func (backend) Download(context.Context, string) ([]byte, error) {
	return nil, nil
}

func analysisRequest() workflow.AnalysisRequest {
	return workflow.AnalysisRequest{
		SurveyFile:       workflow.File{Name: "survey.xlsx", Content: []byte("PK")},
		RolesFile:        workflow.File{Name: "roles.xlsx", Content: []byte("PK")},
		ControlColumn:    "Управление",
		OperationColumns: []string{"Ведение"},
		RoleColumn:       "Роль",
		UIDColumn:        "UID",
	}
}

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// sessions returns an idle, an awaiting (not ready) and a ready session,
// created one minute apart.
func sessions(t *testing.T) []*obrabotka.Session {
	t.Helper()
	now := base
	client, err := obrabotka.New(
		obrabotka.WithCollaborator(backend{}),
		obrabotka.WithLogger(logging.NewNopLogger()),
		obrabotka.WithClock(func() time.Time { return now }),
	)
	require.NoError(t, err)

	var out []*obrabotka.Session
	for i := 0; i < 3; i++ {
		s, err := client.NewSession()
		require.NoError(t, err)
		out = append(out, s)
		now = now.Add(time.Minute)
	}
	ctx := context.Background()
	require.NoError(t, out[1].StartAnalysis(ctx, analysisRequest()))
	require.NoError(t, out[2].StartAnalysis(ctx, analysisRequest()))
	require.NoError(t, out[2].RecordChoice(reconcile.TU, "ПС Тестовая", "ТУ ПС Тестовая"))
	return out
}

func ids(list []*obrabotka.Session) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		out = append(out, s.ID)
	}
	return out
}

func TestParseSessionFilter(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/v1/sessions?status=idle,completed&ready=true&sort=updated_at&order=DESC&limit=5&offset=2&created_after=2025-01-01T00:00:00Z", nil)
	f, err := ParseSessionFilter(r)
	require.NoError(t, err)

	assert.Equal(t, []workflow.Status{workflow.StatusIdle, workflow.StatusCompleted}, f.Statuses)
	require.NotNil(t, f.Ready)
	assert.True(t, *f.Ready)
	assert.Equal(t, SortUpdated, f.Sort)
	assert.Equal(t, "desc", f.Order)
	assert.Equal(t, 5, f.Limit)
	assert.Equal(t, 2, f.Offset)
	require.NotNil(t, f.CreatedAfter)
	assert.Nil(t, f.CreatedBefore)
}

func TestParseSessionFilterDefaults(t *testing.T) {
	f, err := ParseSessionFilter(httptest.NewRequest("GET", "/api/v1/sessions?limit=abc", nil))
	require.NoError(t, err)
	assert.Equal(t, 100, f.Limit)
	assert.Zero(t, f.Offset)
	assert.Empty(t, f.Statuses)
	assert.Nil(t, f.Ready)
}

func TestParseSessionFilterRejects(t *testing.T) {
	for _, query := range []string{"status=done", "ready=maybe", "sort=name", "order=up"} {
		t.Run(query, func(t *testing.T) {
			_, err := ParseSessionFilter(httptest.NewRequest("GET", "/api/v1/sessions?"+query, nil))
			assert.True(t, errors.IsInputValidation(err))
		})
	}
}

func TestApply(t *testing.T) {
	all := sessions(t)
	yes, no := true, false
	after := base.Add(30 * time.Second)

	tests := []struct {
		name     string
		filter   SessionFilter
		expected []string
		total    int
	}{
		{"everything", SessionFilter{}, ids(all), 3},
		{"by status", SessionFilter{Statuses: []workflow.Status{workflow.StatusAwaitingConfirmation}}, ids(all[1:]), 2},
		{"ready", SessionFilter{Ready: &yes}, ids(all[2:]), 1},
		{"not ready", SessionFilter{Ready: &no}, ids(all[:2]), 2},
		{"created after", SessionFilter{CreatedAfter: &after}, ids(all[1:]), 2},
		{"newest first", SessionFilter{Sort: SortCreated, Order: "desc"}, []string{all[2].ID, all[1].ID, all[0].ID}, 3},
		{"paged", SessionFilter{Limit: 1, Offset: 1}, ids(all[1:2]), 3},
		{"offset past end", SessionFilter{Offset: 10}, []string{}, 3},
		{"by status name", SessionFilter{Sort: SortStatus}, []string{all[1].ID, all[2].ID, all[0].ID}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, total := tt.filter.Apply(all)
			assert.Equal(t, tt.expected, ids(page))
			assert.Equal(t, tt.total, total)
		})
	}
}
