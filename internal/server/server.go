// Package server provides the HTTP API over reconciliation sessions. Session
// hooks feed an event broker that fans transitions out to WebSocket and SSE
// clients.
package server

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/EvTKi/Obrabotka-Jeka-remake/cmd/application"
	"github.com/EvTKi/Obrabotka-Jeka-remake/internal/server/cache"
	"github.com/EvTKi/Obrabotka-Jeka-remake/internal/server/events"
	"github.com/EvTKi/Obrabotka-Jeka-remake/internal/server/events/adapters"
	"github.com/EvTKi/Obrabotka-Jeka-remake/internal/server/sse"
	ws "github.com/EvTKi/Obrabotka-Jeka-remake/internal/server/websocket"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/workflow"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	app            application.Application
	cache          *cache.Cache
	broker         *events.Broker
	wsHub          *ws.Hub
	sseBroadcaster *sse.Broadcaster
	upgrader       websocket.Upgrader
	logger         *zerolog.Logger
	config         Config
	ctx            context.Context
	cancel         context.CancelFunc
	wg             sync.WaitGroup
	startTime      time.Time
}

// New creates a server and connects the session hooks to its broker.
func New(app application.Application, cfg Config) (*Server, error) {
	logger := app.Logger()

	if cfg.DownloadCacheTTL <= 0 {
		cfg.DownloadCacheTTL = DefaultConfig().DownloadCacheTTL
	}
	if cfg.PathPrefix == "" {
		cfg.PathPrefix = DefaultConfig().PathPrefix
	}

	broker := events.NewBroker(logger)
	wsHub := ws.NewHub(logger)
	sseBroadcaster := sse.NewBroadcaster(logger)
	broker.Subscribe(adapters.NewWebSocketSubscriber(wsHub))
	broker.Subscribe(adapters.NewSSESubscriber(sseBroadcaster))

	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		app:            app,
		cache:          cache.New(cfg.DownloadCacheTTL, cfg.DownloadCacheTTL*2),
		broker:         broker,
		wsHub:          wsHub,
		sseBroadcaster: sseBroadcaster,
		logger:         logger,
		config:         cfg,
		ctx:            ctx,
		cancel:         cancel,
		startTime:      time.Now(),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}

	if err := s.connectHooks(); err != nil {
		cancel()
		return nil, err
	}
	logger.Debug().Str("addr", cfg.Addr()).Msg("Server instance created")
	return s, nil
}

// checkOrigin accepts any origin unless CORS is restricted to a list.
func (s *Server) checkOrigin(r *http.Request) bool {
	origins := s.config.CORSOrigins
	if !s.config.CORSEnabled || len(origins) == 0 || slices.Contains(origins, "*") {
		return true
	}
	origin := r.Header.Get("Origin")
	return origin == "" || slices.Contains(origins, origin)
}

// connectHooks publishes session lifecycle and transition events and drops
// cached downloads of sessions that were reset or removed.
func (s *Server) connectHooks() error {
	client, err := s.app.Client()
	if err != nil {
		return err
	}

	client.OnSessionCreated(func(id string) {
		s.broker.Publish(events.SessionCreated, events.SessionData{SessionID: id})
	})

	client.OnTransition(func(id string, from, to workflow.Status) {
		if to == workflow.StatusIdle || to == workflow.StatusAnalyzing {
			s.cache.Forget(id)
		}
		s.broker.Publish(events.SessionTransition, events.TransitionData{
			SessionID: id,
			From:      from.String(),
			To:        to.String(),
		})
		s.logger.Debug().
			Str("session_id", id).
			Str("from", from.String()).
			Str("to", to.String()).
			Msg("Transition event published")
	})

	client.OnSessionRemoved(func(id string) {
		s.cache.Forget(id)
		s.broker.Publish(events.SessionRemoved, events.SessionData{SessionID: id})
	})

	return nil
}

// Start starts background services (broker, WebSocket hub, SSE broadcaster).
func (s *Server) Start() {
	for _, run := range []func(context.Context){s.broker.Run, s.wsHub.Run, s.sseBroadcaster.Run} {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			run(s.ctx)
		}()
	}
	s.logger.Debug().Msg("Background services started")
}

// Handler returns the routed handler with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	return s.setupRouter()
}

// Shutdown stops the background services and waits for them until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down server background services")
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info().Msg("Background services shut down")
		return nil
	case <-ctx.Done():
		s.logger.Warn().Msg("Background services shutdown timed out")
		return ctx.Err()
	}
}

// Cache returns the download cache.
func (s *Server) Cache() *cache.Cache {
	return s.cache
}

// Broker returns the event broker.
func (s *Server) Broker() *events.Broker {
	return s.broker
}

// Config returns the server configuration.
func (s *Server) Config() Config {
	return s.config
}
