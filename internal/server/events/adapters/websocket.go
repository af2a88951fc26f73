// Package adapters connects the event broker to the real-time transports.
package adapters

import (
	"github.com/EvTKi/Obrabotka-Jeka-remake/internal/server/events"
	ws "github.com/EvTKi/Obrabotka-Jeka-remake/internal/server/websocket"
)

// WebSocketSubscriber adapts the WebSocket hub to the Subscriber interface.
type WebSocketSubscriber struct {
	hub *ws.Hub
}

// NewWebSocketSubscriber creates a new WebSocket subscriber.
func NewWebSocketSubscriber(hub *ws.Hub) *WebSocketSubscriber {
	return &WebSocketSubscriber{hub: hub}
}

// Send delivers an event to all WebSocket clients.
func (w *WebSocketSubscriber) Send(event events.Event) error {
	w.hub.Broadcast(ws.Message{
		Type:      string(event.Type),
		SessionID: SessionID(event),
		Timestamp: event.Timestamp,
		Data:      event.Data,
	})
	return nil
}

// Close is a no-op for WebSocket (hub manages its own lifecycle).
func (w *WebSocketSubscriber) Close() error {
	return nil
}

// SessionID returns the session an event belongs to, or "" for global events.
func SessionID(event events.Event) string {
	switch d := event.Data.(type) {
	case events.TransitionData:
		return d.SessionID
	case events.SessionData:
		return d.SessionID
	}
	return ""
}
