package events

// Subscriber consumes broker events on behalf of one transport.
type Subscriber interface {
	// Send delivers an event. It must not block the broker.
	Send(Event) error

	// Close shuts the subscriber down.
	Close() error
}
