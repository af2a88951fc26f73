package server

import (
	"net/http"

	"github.com/EvTKi/Obrabotka-Jeka-remake/internal/server/handlers"
	"github.com/EvTKi/Obrabotka-Jeka-remake/internal/server/middleware"
	"github.com/EvTKi/Obrabotka-Jeka-remake/internal/server/response"
)

// setupRouter creates the HTTP handler with routes and middleware.
func (s *Server) setupRouter() http.Handler {
	mux := http.NewServeMux()

	h := handlers.New(
		s.app,
		s.cache,
		s.wsHub,
		s.sseBroadcaster,
		s.upgrader,
		s.logger,
	)

	s.registerRoutes(mux, h)
	return s.applyMiddleware(mux)
}

// withID adapts a session handler to a route carrying {id}.
func withID(fn func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fn(w, r, r.PathValue("id"))
	}
}

// registerRoutes registers all HTTP routes.
func (s *Server) registerRoutes(mux *http.ServeMux, h *handlers.Handlers) {
	p := s.config.PathPrefix

	mux.HandleFunc("GET /favicon.ico", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// Public health endpoints
	mux.HandleFunc("GET /health", h.HandleHealth)
	mux.HandleFunc("GET "+p+"/health", h.HandleHealth)
	mux.HandleFunc("GET "+p+"/ready", h.HandleReady)

	// Workbook preview
	mux.HandleFunc("POST "+p+"/preview", h.HandlePreview)

	// Sessions
	mux.HandleFunc("POST "+p+"/sessions", h.HandleCreateSession)
	mux.HandleFunc("GET "+p+"/sessions", h.HandleListSessions)
	mux.HandleFunc("GET "+p+"/sessions/{id}", withID(h.HandleGetSession))
	mux.HandleFunc("DELETE "+p+"/sessions/{id}", withID(h.HandleDeleteSession))

	// Workflow
	mux.HandleFunc("POST "+p+"/sessions/{id}/analyze", withID(h.HandleAnalyze))
	mux.HandleFunc("GET "+p+"/sessions/{id}/analysis", withID(h.HandleAnalysis))
	mux.HandleFunc("PUT "+p+"/sessions/{id}/choices", withID(h.HandleRecordChoice))
	mux.HandleFunc("DELETE "+p+"/sessions/{id}/choices", withID(h.HandleClearChoice))
	mux.HandleFunc("POST "+p+"/sessions/{id}/submit", withID(h.HandleSubmit))
	mux.HandleFunc("GET "+p+"/sessions/{id}/download", withID(h.HandleDownload))
	mux.HandleFunc("GET "+p+"/sessions/{id}/report", withID(h.HandleReport))
	mux.HandleFunc("POST "+p+"/sessions/{id}/reset", withID(h.HandleResetSession))

	// Real-time endpoints
	mux.HandleFunc("GET "+p+"/updates/ws", h.HandleWebSocket)
	mux.HandleFunc("GET "+p+"/updates/stream", h.HandleSSE)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "Route not found", r.Method+" "+r.URL.Path)
	})
}

// applyMiddleware wraps handler with the middleware chain. Recovery is
// outermost so it also covers the logger.
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	cfg := s.config
	chain := []func(http.Handler) http.Handler{
		middleware.Recovery(s.logger),
		middleware.RequestID,
		middleware.Logger(s.logger),
	}

	if cfg.CORSEnabled {
		corsConfig := middleware.DefaultCORSConfig()
		if len(cfg.CORSOrigins) > 0 {
			corsConfig.AllowedOrigins = cfg.CORSOrigins
		} else {
			corsConfig.AllowAll = true
		}
		chain = append(chain, middleware.CORS(corsConfig))
	}

	if cfg.AuthEnabled {
		authConfig := middleware.DefaultAuthConfig()
		authConfig.Enabled = true
		authConfig.APIKey = cfg.APIKey
		if cfg.AuthHeader != "" {
			authConfig.HeaderName = cfg.AuthHeader
		}
		authConfig.PublicPaths = append(authConfig.PublicPaths, cfg.PathPrefix+"/health", cfg.PathPrefix+"/ready")
		chain = append(chain, middleware.Auth(authConfig, s.logger))
	}

	if cfg.RateLimit > 0 {
		chain = append(chain, middleware.RateLimit(middleware.NewRateLimiter(cfg.RateLimit, s.logger)))
	}

	return middleware.Chain(chain...)(handler)
}
