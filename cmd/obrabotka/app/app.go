// Package app provides the application context and dependency management
// for the obrabotka CLI. It centralizes configuration, logging and the
// lazily built matching backend and session client.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	obrabotka "github.com/EvTKi/Obrabotka-Jeka-remake"
	"github.com/EvTKi/Obrabotka-Jeka-remake/cmd/application"
	"github.com/EvTKi/Obrabotka-Jeka-remake/internal/transport"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/errors"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/roles"
)

// Ensure App implements application.Application at compile time.
var _ application.Application = (*App)(nil)

// App represents the obrabotka application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	// Lazily initialized singletons
	mu      sync.Mutex
	matcher application.Matcher
	client  obrabotka.Client
}

// Option configures an App.
type Option func(*App) error

// WithConfig uses config instead of loading one from the environment.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		if config == nil {
			return errors.NewConfigError("app", "config cannot be nil", nil)
		}
		a.config = config
		return nil
	}
}

// WithMatcher replaces the HTTP matching backend.
func WithMatcher(m application.Matcher) Option {
	return func(a *App) error {
		a.matcher = m
		return nil
	}
}

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	if app.config == nil {
		config, err := LoadConfig("")
		if err != nil {
			return nil, err
		}
		app.config = config
	}

	logger := NewLogger(app.config)
	app.logger = &logger

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// Matcher returns the matching backend, creating it on first use.
func (a *App) Matcher() (application.Matcher, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.matcherLocked(), nil
}

func (a *App) matcherLocked() application.Matcher {
	if a.matcher != nil {
		return a.matcher
	}

	opts := []transport.Option{transport.WithLogger(a.logger)}
	if a.config.MatcherAPIKey != "" {
		opts = append(opts, transport.WithAPIKey(a.config.MatcherAPIKey, transport.AuthenticatorFor(a.config.MatcherAuth)))
	}
	if a.config.MatcherTimeout > 0 {
		opts = append(opts, transport.WithTimeout(a.config.MatcherTimeout))
	}
	a.matcher = transport.New(a.config.MatcherURL, opts...)
	return a.matcher
}

// Client returns the session client, creating it on first use.
// It is thread-safe and only one client is ever created.
func (a *App) Client() (obrabotka.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.client != nil {
		return a.client, nil
	}

	opts := []obrabotka.Option{
		obrabotka.WithCollaborator(a.matcherLocked()),
		obrabotka.WithLogger(a.logger),
		obrabotka.WithSessionTTL(a.config.SessionTTL),
		obrabotka.WithMaxSessions(a.config.MaxSessions),
	}
	if a.config.RolesCatalog != "" {
		catalog, err := roles.Load(a.config.RolesCatalog)
		if err != nil {
			return nil, err
		}
		a.logger.Debug().
			Str("path", a.config.RolesCatalog).
			Int("roles", catalog.Len()).
			Msg("Loaded role catalog")
		opts = append(opts, obrabotka.WithRoleCatalog(catalog))
	}

	client, err := obrabotka.New(opts...)
	if err != nil {
		return nil, err
	}
	a.client = client
	return client, nil
}

// Shutdown invalidates in-flight work of every live session.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	client := a.client
	a.mu.Unlock()

	if client == nil {
		return nil
	}
	for _, s := range client.List() {
		if s.Status().Busy() {
			a.logger.Warn().Str("session_id", s.ID).Msg("Abandoning in-flight session on shutdown")
			s.Reset()
		}
	}
	return nil
}

// SessionDir returns the directory CLI session files are kept in.
func (a *App) SessionDir() string {
	return a.config.SessionDir
}

// ServerAPIKey returns the key the HTTP service requires when auth is on.
func (a *App) ServerAPIKey() string {
	return a.config.ServerAPIKey
}
