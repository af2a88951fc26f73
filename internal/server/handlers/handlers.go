// Package handlers provides the HTTP handlers of the reconciliation API.
package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	obrabotka "github.com/EvTKi/Obrabotka-Jeka-remake"
	"github.com/EvTKi/Obrabotka-Jeka-remake/cmd/application"
	"github.com/EvTKi/Obrabotka-Jeka-remake/internal/server/cache"
	"github.com/EvTKi/Obrabotka-Jeka-remake/internal/server/response"
	"github.com/EvTKi/Obrabotka-Jeka-remake/internal/server/sse"
	ws "github.com/EvTKi/Obrabotka-Jeka-remake/internal/server/websocket"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/logging"
)

// Handlers provides access to all HTTP handlers.
type Handlers struct {
	app            application.Application
	cache          *cache.Cache
	wsHub          *ws.Hub
	sseBroadcaster *sse.Broadcaster
	upgrader       websocket.Upgrader
	logger         *zerolog.Logger
	startTime      time.Time
}

// New creates a new Handlers instance.
func New(
	app application.Application,
	cache *cache.Cache,
	wsHub *ws.Hub,
	sseBroadcaster *sse.Broadcaster,
	upgrader websocket.Upgrader,
	logger *zerolog.Logger,
) *Handlers {
	return &Handlers{
		app:            app,
		cache:          cache,
		wsHub:          wsHub,
		sseBroadcaster: sseBroadcaster,
		upgrader:       upgrader,
		logger:         logger,
		startTime:      time.Now(),
	}
}

// session resolves the session for id, writing the error response when it
// cannot.
func (h *Handlers) session(w http.ResponseWriter, r *http.Request, id string) (*obrabotka.Session, bool) {
	client, err := h.app.Client()
	if err != nil {
		logging.FromContext(r.Context()).Error().Err(err).Msg("Session client unavailable")
		response.ServiceUnavailable(w, "Session client not available")
		return nil, false
	}
	s, err := client.Session(id)
	if err != nil {
		response.ErrorFromType(w, err)
		return nil, false
	}
	return s, true
}

// fail writes err and logs it at a level matching its class.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	log := logging.FromContext(r.Context())
	switch {
	case isClientError(err):
		log.Debug().Err(err).Msg("Request rejected")
	default:
		log.Error().Err(err).Msg("Request failed")
	}
	response.ErrorFromType(w, err)
}
