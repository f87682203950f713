package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/jackzampolin/easel/internal/api"
	"github.com/jackzampolin/easel/internal/config"
	"github.com/jackzampolin/easel/internal/server/endpoints"
	"github.com/jackzampolin/easel/internal/svcctx"
)

// Server is the main Easel HTTP server. It also drives the background
// completion pool for sessions planned with background fill.
type Server struct {
	httpServer *http.Server
	configMgr  *config.Manager
	services   *svcctx.Services
	logger     *slog.Logger

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry

	authToken string

	mu      sync.RWMutex
	running bool
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1)
	Host string
	// Port is the port to listen on (default: 8383)
	Port int
	// AuthToken guards the session endpoints. Empty disables auth.
	AuthToken string
	// Services holds the wired core services
	Services *svcctx.Services
	// ConfigManager provides configuration with hot-reload support
	ConfigManager *config.Manager
	// SwaggerSpecPath is the path to swagger.json
	SwaggerSpecPath string
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8383
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Services == nil {
		return nil, errors.New("services are required")
	}

	s := &Server{
		configMgr: cfg.ConfigManager,
		services:  cfg.Services,
		logger:    cfg.Logger,
		authToken: cfg.AuthToken,
	}

	// Create endpoint registry and register all endpoints
	s.endpointRegistry = api.NewRegistry()
	for _, ep := range endpoints.All(endpoints.Config{SwaggerSpecPath: cfg.SwaggerSpecPath}) {
		s.endpointRegistry.Register(ep)
	}

	// Set up HTTP server
	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux, s.requireAuth)

	s.httpServer = &http.Server{
		Addr:    net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler: s.withServices(mux),
		// Generation with wait=true holds the connection while the image
		// model renders, so write timeouts stay generous.
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// Start starts the HTTP server and the completion pool.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	poolCtx, cancelPool := context.WithCancel(context.Background())
	defer cancelPool()

	poolDone := make(chan struct{})
	if s.services.Completions != nil {
		go func() {
			defer close(poolDone)
			s.services.Completions.Start(poolCtx)
		}()
	} else {
		close(poolDone)
	}

	// Start HTTP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			cancelPool()
			<-poolDone
			s.setNotRunning()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown(cancelPool, poolDone)
}

// shutdown performs graceful shutdown of the HTTP server and completion pool.
func (s *Server) shutdown(cancelPool context.CancelFunc, poolDone chan struct{}) error {
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	cancelPool()
	select {
	case <-poolDone:
	case <-shutdownCtx.Done():
		s.logger.Error("completion pool did not drain in time")
	}

	if s.services.Store != nil {
		if err := s.services.Store.Close(); err != nil {
			s.logger.Error("session store close error", "error", err)
		}
	}

	s.setNotRunning()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// withServices wraps a handler to enrich the request context with services.
func (s *Server) withServices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if s.services != nil {
			ctx = svcctx.WithServices(ctx, s.services)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// currentAuthToken returns the active auth token, preferring the hot-reloaded
// config over the value the server was constructed with.
func (s *Server) currentAuthToken() string {
	if s.configMgr != nil {
		return s.configMgr.Get().ResolvedAuthToken()
	}
	return s.authToken
}

// requireAuth is middleware that checks the bearer token on guarded routes.
// An empty configured token disables the check.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := s.currentAuthToken()
		if token == "" {
			next(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		const prefix = "Bearer "
		if len(header) <= len(prefix) || header[:len(prefix)] != prefix ||
			subtle.ConstantTimeCompare([]byte(header[len(prefix):]), []byte(token)) != 1 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"invalid or missing bearer token"}`))
			return
		}
		next(w, r)
	}
}
