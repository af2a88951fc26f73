// Package events fans session events out to the real-time transports.
//
// Client hooks publish to a Broker, which forwards every event to each
// subscribed transport (WebSocket, SSE).
package events

import "time"

// EventType represents the type of session event.
type EventType string

// Event types for session changes.
const (
	SessionCreated    EventType = "session.created"
	SessionTransition EventType = "session.transition"
	SessionRemoved    EventType = "session.removed"

	// Client events (from transport layers).
	ClientConnected EventType = "client.connected"
)

// Event represents a session event with type, timestamp, and data.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// TransitionData is the payload of a SessionTransition event.
type TransitionData struct {
	SessionID string `json:"session_id"`
	From      string `json:"from"`
	To        string `json:"to"`
}

// SessionData is the payload of SessionCreated and SessionRemoved events.
type SessionData struct {
	SessionID string `json:"session_id"`
}
