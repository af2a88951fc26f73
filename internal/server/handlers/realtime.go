package handlers

import (
	"net/http"

	"github.com/google/uuid"

	ws "github.com/EvTKi/Obrabotka-Jeka-remake/internal/server/websocket"
)

// HandleWebSocket handles GET /api/v1/updates/ws. The optional session query
// parameter limits the stream to one session.
func (h *Handlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := ws.NewClient(uuid.NewString(), r.URL.Query().Get("session"), h.wsHub, conn)
	h.wsHub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}

// HandleSSE handles GET /api/v1/updates/stream.
func (h *Handlers) HandleSSE(w http.ResponseWriter, r *http.Request) {
	h.sseBroadcaster.ServeHTTP(w, r)
}
