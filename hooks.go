package obrabotka

import (
	"sync"

	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/workflow"
)

// Compile-time interface check to ensure proper implementation.
var _ Hooks = (*client)(nil)

// Hook function types for session events
type (
	// SessionCreatedHook is called when a session is created or loaded
	SessionCreatedHook func(sessionID string)

	// TransitionHook is called when a session changes status
	TransitionHook func(sessionID string, from, to workflow.Status)

	// SessionRemovedHook is called when a session is deleted or expires
	SessionRemovedHook func(sessionID string)
)

// Hooks provides access to event callback registration.
type Hooks interface {
	OnSessionCreated(SessionCreatedHook)
	OnTransition(TransitionHook)
	OnSessionRemoved(SessionRemovedHook)
}

// OnSessionCreated registers a callback for new sessions.
func (c *client) OnSessionCreated(fn SessionCreatedHook) {
	c.hooks.onSessionCreated(fn)
}

// OnTransition registers a callback for session status changes.
func (c *client) OnTransition(fn TransitionHook) {
	c.hooks.onTransition(fn)
}

// OnSessionRemoved registers a callback for removed sessions.
func (c *client) OnSessionRemoved(fn SessionRemovedHook) {
	c.hooks.onSessionRemoved(fn)
}

// hooks manages event callbacks for session changes
type hooks struct {
	mu         sync.RWMutex
	created    []SessionCreatedHook
	transition []TransitionHook
	removed    []SessionRemovedHook
}

func newHooks() *hooks {
	return &hooks{}
}

func (h *hooks) onSessionCreated(fn SessionCreatedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.created = append(h.created, fn)
}

func (h *hooks) onTransition(fn TransitionHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.transition = append(h.transition, fn)
}

func (h *hooks) onSessionRemoved(fn SessionRemovedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removed = append(h.removed, fn)
}

func (h *hooks) triggerCreated(id string) {
	h.mu.RLock()
	fns := append([]SessionCreatedHook(nil), h.created...)
	h.mu.RUnlock()
	for _, fn := range fns {
		fn(id)
	}
}

func (h *hooks) triggerTransition(id string, from, to workflow.Status) {
	h.mu.RLock()
	fns := append([]TransitionHook(nil), h.transition...)
	h.mu.RUnlock()
	for _, fn := range fns {
		fn(id, from, to)
	}
}

func (h *hooks) triggerRemoved(id string) {
	h.mu.RLock()
	fns := append([]SessionRemovedHook(nil), h.removed...)
	h.mu.RUnlock()
	for _, fn := range fns {
		fn(id)
	}
}
