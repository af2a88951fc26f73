package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/EvTKi/Obrabotka-Jeka-remake/internal/server/response"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/constants"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/logging"
)

// HandleHealth handles GET /api/v1/health (liveness).
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, map[string]any{
		"status":  "healthy",
		"service": "obrabotka-api",
		"version": h.app.Version(),
	})
}

// HandleReady handles GET /api/v1/ready. The service is ready once the
// session client exists and the matching backend answers its health check.
func (h *Handlers) HandleReady(w http.ResponseWriter, r *http.Request) {
	client, err := h.app.Client()
	if err != nil {
		response.ServiceUnavailable(w, "Session client not available")
		return
	}
	matcher, err := h.app.Matcher()
	if err != nil {
		response.ServiceUnavailable(w, "Matching backend not configured")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), constants.HealthTimeout)
	defer cancel()
	if err := matcher.Health(ctx); err != nil {
		logging.FromContext(r.Context()).Warn().Err(err).Msg("Matching backend not ready")
		response.ServiceUnavailable(w, "Matching backend unreachable: "+err.Error())
		return
	}

	response.OK(w, map[string]any{
		"status":            "ready",
		"uptime":            time.Since(h.startTime).Round(time.Second).String(),
		"sessions":          len(client.List()),
		"cache":             h.cache.Stats(),
		"websocket_clients": h.wsHub.ClientCount(),
		"sse_clients":       h.sseBroadcaster.ClientCount(),
	})
}
