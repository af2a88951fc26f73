package handlers

import (
	"net/http"
	"time"

	obrabotka "github.com/EvTKi/Obrabotka-Jeka-remake"
	"github.com/EvTKi/Obrabotka-Jeka-remake/internal/server/filter"
	"github.com/EvTKi/Obrabotka-Jeka-remake/internal/server/response"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/logging"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/workflow"
)

// SessionView is a session with its full workflow snapshot.
type SessionView struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	workflow.Snapshot
}

// SessionSummary is the list form of a session.
type SessionSummary struct {
	ID               string          `json:"id"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	Status           workflow.Status `json:"status"`
	Ready            bool            `json:"ready"`
	PendingRemaining int             `json:"pending_remaining"`
	ProcessID        string          `json:"process_id,omitempty"`
	Error            string          `json:"error,omitempty"`
}

func viewOf(s *obrabotka.Session) SessionView {
	return SessionView{ID: s.ID, CreatedAt: s.CreatedAt, Snapshot: s.Snapshot()}
}

func summaryOf(s *obrabotka.Session) SessionSummary {
	snap := s.Snapshot()
	sum := SessionSummary{
		ID:               s.ID,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        snap.UpdatedAt,
		Status:           snap.Status,
		Ready:            snap.Ready,
		PendingRemaining: snap.PendingRemaining,
		Error:            snap.Error,
	}
	if snap.Result != nil {
		sum.ProcessID = snap.Result.ProcessID
	}
	return sum
}

// HandleCreateSession handles POST /api/v1/sessions.
func (h *Handlers) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	client, err := h.app.Client()
	if err != nil {
		response.ServiceUnavailable(w, "Session client not available")
		return
	}
	s, err := client.NewSession()
	if err != nil {
		fail(w, r, err)
		return
	}
	logging.FromContext(r.Context()).Debug().Str("session_id", s.ID).Msg("Session created over HTTP")
	response.Created(w, viewOf(s))
}

// HandleListSessions handles GET /api/v1/sessions with filter and paging
// query parameters.
func (h *Handlers) HandleListSessions(w http.ResponseWriter, r *http.Request) {
	f, err := filter.ParseSessionFilter(r)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	client, err := h.app.Client()
	if err != nil {
		response.ServiceUnavailable(w, "Session client not available")
		return
	}

	page, total := f.Apply(client.List())
	items := make([]SessionSummary, 0, len(page))
	for _, s := range page {
		items = append(items, summaryOf(s))
	}
	response.OK(w, map[string]any{
		"sessions": items,
		"count":    len(items),
		"total":    total,
		"offset":   f.Offset,
		"limit":    f.Limit,
	})
}

// HandleGetSession handles GET /api/v1/sessions/{id}.
func (h *Handlers) HandleGetSession(w http.ResponseWriter, r *http.Request, id string) {
	s, ok := h.session(w, r, id)
	if !ok {
		return
	}
	response.OK(w, viewOf(s))
}

// HandleDeleteSession handles DELETE /api/v1/sessions/{id}.
func (h *Handlers) HandleDeleteSession(w http.ResponseWriter, r *http.Request, id string) {
	client, err := h.app.Client()
	if err != nil {
		response.ServiceUnavailable(w, "Session client not available")
		return
	}
	if err := client.DeleteSession(id); err != nil {
		response.ErrorFromType(w, err)
		return
	}
	h.cache.Forget(id)
	w.WriteHeader(http.StatusNoContent)
}

// HandleResetSession handles POST /api/v1/sessions/{id}/reset.
func (h *Handlers) HandleResetSession(w http.ResponseWriter, r *http.Request, id string) {
	s, ok := h.session(w, r, id)
	if !ok {
		return
	}
	s.Reset()
	h.cache.Forget(id)
	response.OK(w, viewOf(s))
}
