// Package obrabotka is the entry point for role reconciliation sessions.
// A Client keeps many independent sessions, each driving one survey through
// analysis, manual confirmation of ambiguous matches, processing and download.
//
// Example usage:
//
//	client, err := obrabotka.New(
//	    obrabotka.WithCollaborator(transport.New("http://localhost:8000")),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	session, err := client.NewSession()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := session.StartAnalysis(ctx, req); err != nil {
//	    log.Fatal(err)
//	}
//	_ = session.RecordChoice(reconcile.TU, "ПС Тестовая", "ТУ ПС Тестовая")
//	if err := session.Submit(ctx); err != nil {
//	    log.Fatal(err)
//	}
package obrabotka

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/errors"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/workflow"
)

// Compile-time interface check to ensure proper implementation.
var _ Client = (*client)(nil)

// Client manages reconciliation sessions.
type Client interface {

	// Sessions creates, looks up and removes sessions
	Sessions

	// Persistence saves and restores sessions
	Persistence

	// Hooks provides access to event callback registration
	Hooks
}

// Sessions creates, looks up and removes sessions.
type Sessions interface {
	// NewSession starts an idle session
	NewSession() (*Session, error)

	// Session returns a live session
	Session(id string) (*Session, error)

	// List returns live sessions, oldest first
	List() []*Session

	// DeleteSession removes a session
	DeleteSession(id string) error
}

// Session is one reconciliation session.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	*workflow.Machine `json:"-"`
}

// client is the internal implementation of the Client interface.
type client struct {
	options *options

	// sessions expire after options.sessionTTL without access
	sessions *cache.Cache
	hooks    *hooks

	// admit serializes the session cap check with the insert.
	admit sync.Mutex
}

// New creates a new Client with the given options.
func New(opts ...Option) (Client, error) {
	o, err := defaults().apply(opts...)
	if err != nil {
		return nil, err
	}
	if o.collaborator == nil {
		return nil, errors.NewConfigError("client", "a matching backend collaborator is required", nil)
	}

	c := &client{
		options:  o,
		sessions: cache.New(o.sessionTTL, o.cleanupInterval),
		hooks:    newHooks(),
	}
	c.sessions.OnEvicted(func(id string, _ any) {
		o.logger.Debug().Str("session_id", id).Msg("Session removed")
		c.hooks.triggerRemoved(id)
	})
	return c, nil
}

// NewSession starts an idle session.
func (c *client) NewSession() (*Session, error) {
	c.admit.Lock()
	if c.options.maxSessions > 0 && c.sessions.ItemCount() >= c.options.maxSessions {
		c.sessions.DeleteExpired()
		if c.sessions.ItemCount() >= c.options.maxSessions {
			c.admit.Unlock()
			return nil, &errors.BusyError{Requested: "newSession", InFlight: "session limit"}
		}
	}
	s := c.newSession(uuid.NewString(), c.options.now())
	c.sessions.SetDefault(s.ID, s)
	c.admit.Unlock()

	c.options.logger.Info().Str("session_id", s.ID).Msg("Session created")
	c.hooks.triggerCreated(s.ID)
	return s, nil
}

// newSession builds a session whose transitions feed the client hooks.
func (c *client) newSession(id string, created time.Time) *Session {
	logger := c.options.logger.With().Str("session_id", id).Logger()
	opts := []workflow.Option{
		workflow.WithLogger(&logger),
		workflow.WithClock(c.options.now),
	}
	if c.options.catalog != nil {
		opts = append(opts, workflow.WithRoleCatalog(c.options.catalog))
	}

	s := &Session{
		ID:        id,
		CreatedAt: created,
		Machine:   workflow.New(c.options.collaborator, opts...),
	}
	s.OnTransition(func(from, to workflow.Status) {
		c.hooks.triggerTransition(id, from, to)
	})
	return s
}

// Session returns a live session and extends its lifetime.
func (c *client) Session(id string) (*Session, error) {
	v, ok := c.sessions.Get(id)
	if !ok {
		return nil, errors.NewNotFoundError("session", id)
	}
	s := v.(*Session)
	c.sessions.SetDefault(id, s)
	return s, nil
}

// List returns live sessions, oldest first.
func (c *client) List() []*Session {
	items := c.sessions.Items()
	out := make([]*Session, 0, len(items))
	for _, item := range items {
		out = append(out, item.Object.(*Session))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// DeleteSession removes a session. Any in-flight call is invalidated.
func (c *client) DeleteSession(id string) error {
	v, ok := c.sessions.Get(id)
	if !ok {
		return errors.NewNotFoundError("session", id)
	}
	v.(*Session).Reset()
	c.sessions.Delete(id)
	return nil
}
