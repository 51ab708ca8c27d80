// Package server provides the HTTP server implementation.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/statehub/internal/auth"
	"github.com/vyrodovalexey/statehub/internal/config"
	"github.com/vyrodovalexey/statehub/internal/handler"
	"github.com/vyrodovalexey/statehub/internal/middleware"
	"github.com/vyrodovalexey/statehub/internal/model"
	"github.com/vyrodovalexey/statehub/internal/store"
)

// Server represents the HTTP server.
type Server struct {
	httpServer    *http.Server
	router        *mux.Router
	config        *config.Config
	logger        *zap.Logger
	authenticator auth.Authenticator
	wsHandler     *handler.WebSocketHandler
	shuttingDown  atomic.Bool
}

// New creates a new Server instance. A nil authenticator disables
// authentication.
func New(
	cfg *config.Config,
	logger *zap.Logger,
	stateStore store.Store,
	authenticator auth.Authenticator,
) *Server {
	router := mux.NewRouter()

	s := &Server{
		router:        router,
		config:        cfg,
		logger:        logger,
		authenticator: authenticator,
	}

	s.setupMiddleware()
	s.setupRoutes(stateStore)
	s.setupHTTPServer()

	return s
}

// setupMiddleware configures the middleware chain. Track runs first so every
// later middleware sees the request ID and operation name.
func (s *Server) setupMiddleware() {
	chain := []middleware.Middleware{
		middleware.Recovery(s.logger),
		middleware.Track(),
	}
	if s.config.MetricsEnabled {
		chain = append(chain, middleware.Metrics())
	}
	chain = append(chain,
		middleware.Logging(s.logger),
		middleware.CORS([]string{"*"}),
	)
	if s.authenticator != nil {
		chain = append(chain, middleware.Auth(s.authenticator, s.logger))
	}

	for _, m := range chain {
		s.router.Use(mux.MiddlewareFunc(m))
	}
}

// setupRoutes configures the API routes.
func (s *Server) setupRoutes(stateStore store.Store) {
	s.wsHandler = handler.NewWebSocketHandler(s.logger)
	s.wsHandler.RegisterRoutes(s.router)
	stateStore.Watch(s.wsHandler.Publish)

	restHandler := handler.NewRESTHandler(stateStore, s.logger, s.config.IDField)
	restHandler.RegisterRoutes(s.router)

	s.router.HandleFunc("/ready", s.readiness).Methods(http.MethodGet).Name("ready")

	if s.config.MetricsEnabled {
		s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet).Name("metrics")
	}

	// Preflight requests need a matching route for the middleware chain,
	// and with it CORS, to run.
	s.router.PathPrefix("/").Methods(http.MethodOptions).Name("preflight").HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		},
	)
}

// readiness reports 503 once shutdown has begun so load balancers drain
// the instance.
func (s *Server) readiness(w http.ResponseWriter, _ *http.Request) {
	status, code := "ready", http.StatusOK
	if s.shuttingDown.Load() {
		status, code = "shutting_down", http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(model.NewSuccessResponse(handler.ReadyResponse{Status: status}))
}

// setupHTTPServer configures the HTTP server.
func (s *Server) setupHTTPServer() {
	s.httpServer = &http.Server{
		Addr:              s.config.Address(),
		Handler:           s.router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MB
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting server",
		zap.String("address", s.config.Address()),
		zap.Bool("metrics_enabled", s.config.MetricsEnabled),
		zap.String("auth_mode", s.config.AuthMode),
	)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server listen and serve: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")
	s.shuttingDown.Store(true)

	// Subscribers go first so their close frames are not cut off.
	if s.wsHandler != nil {
		s.wsHandler.CloseAllConnections()
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info("server shutdown complete")
	return nil
}

// Router returns the server's router for testing purposes.
func (s *Server) Router() *mux.Router {
	return s.router
}
