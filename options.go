package obrabotka

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/constants"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/errors"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/logging"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/reconcile"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/workflow"
)

// options holds the client configuration.
type options struct {
	collaborator    workflow.Collaborator
	catalog         reconcile.RoleCatalog
	logger          *zerolog.Logger
	sessionTTL      time.Duration
	cleanupInterval time.Duration
	maxSessions     int
	now             func() time.Time
}

func defaults() *options {
	return &options{
		logger:          logging.Default(),
		sessionTTL:      constants.SessionTTL,
		cleanupInterval: constants.SessionCleanupInterval,
		maxSessions:     constants.MaxSessions,
		now:             time.Now,
	}
}

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// Option configures a Client.
type Option func(*options) error

// WithCollaborator sets the matching backend. It is required.
func WithCollaborator(c workflow.Collaborator) Option {
	return func(o *options) error {
		if c == nil {
			return errors.NewInputValidationError("collaborator cannot be nil", "collaborator")
		}
		o.collaborator = c
		return nil
	}
}

// WithRoleCatalog sets the catalog used to attach UIDs to confirmed roles.
func WithRoleCatalog(catalog reconcile.RoleCatalog) Option {
	return func(o *options) error {
		o.catalog = catalog
		return nil
	}
}

// WithLogger sets the logger sessions log through.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) error {
		if logger != nil {
			o.logger = logger
		}
		return nil
	}
}

// WithSessionTTL sets how long an untouched session is kept.
func WithSessionTTL(ttl time.Duration) Option {
	return func(o *options) error {
		if ttl <= 0 {
			return errors.NewInputValidationError("session ttl must be positive", "session_ttl")
		}
		o.sessionTTL = ttl
		if o.cleanupInterval > ttl {
			o.cleanupInterval = ttl
		}
		return nil
	}
}

// WithMaxSessions caps the number of live sessions. Zero disables the cap.
func WithMaxSessions(n int) Option {
	return func(o *options) error {
		if n < 0 {
			return errors.NewInputValidationError("max sessions cannot be negative", "max_sessions")
		}
		o.maxSessions = n
		return nil
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) error {
		if now != nil {
			o.now = now
		}
		return nil
	}
}
