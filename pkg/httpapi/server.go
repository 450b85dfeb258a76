// Package httpapi serves the fragment registry as a JSON REST API, with an
// optional Prometheus /metrics endpoint.
package httpapi

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mimic-ai/mimic/pkg/logger"
	"github.com/mimic-ai/mimic/pkg/metrics"
	"github.com/mimic-ai/mimic/pkg/registry"
)

const (
	surface         = "http"
	shutdownTimeout = 10 * time.Second
	maxBodyBytes    = 1 << 20
)

// SnapshotSource hands out the registry snapshot to serve a request from.
type SnapshotSource interface {
	Current() *registry.Snapshot
	Generation() uint64
}

// ServerConfig holds the configuration for the API server
type ServerConfig struct {
	Addr string
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Addr == "" {
		return errors.New("address cannot be empty")
	}
	if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		return errors.Wrapf(err, "invalid address '%s'", c.Addr)
	}
	return nil
}

// Server is the REST API over a registry store.
type Server struct {
	router   *mux.Router
	store    SnapshotSource
	config   *ServerConfig
	metrics  *metrics.Metrics
	gatherer *prometheus.Registry
	server   *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics records request metrics and exposes reg on /metrics.
func WithMetrics(m *metrics.Metrics, reg *prometheus.Registry) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = reg
	}
}

// NewServer creates a new API server
func NewServer(store SnapshotSource, config *ServerConfig, opts ...Option) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid server configuration")
	}

	s := &Server{
		router: mux.NewRouter(),
		store:  store,
		config: config,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()
	return s, nil
}

// setupRoutes configures all the HTTP routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/fragments", s.handleListFragments).Methods("GET")
	api.HandleFunc("/fragments/{category}/{name}", s.handleGetFragment).Methods("GET")
	api.HandleFunc("/tags", s.handleListTags).Methods("GET")
	api.HandleFunc("/groups", s.handleListGroups).Methods("GET")
	api.HandleFunc("/status", s.handleStatus).Methods("GET")
	api.HandleFunc("/compose", s.handleCompose).Methods("POST")
	api.HandleFunc("/recommend", s.handleRecommend).Methods("POST")
	api.HandleFunc("/resolve", s.handleResolve).Methods("POST")

	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	if s.gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods("GET")
	}

	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.loggingMiddleware)
}

// Handler is the router wrapped in CORS handling. Preflight requests are
// answered here since they match none of the method-restricted routes.
func (s *Server) Handler() http.Handler {
	return s.corsMiddleware(s.router)
}

// requestIDMiddleware tags the request's context logger with an id.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := logger.WithField(r.Context(), "request_id", id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// loggingMiddleware logs HTTP requests and records their metrics.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		var err error
		if rw.statusCode >= http.StatusBadRequest {
			err = errors.Errorf("status %d", rw.statusCode)
		}
		s.metrics.ObserveRequest(surface, routeName(r), err, duration.Seconds())

		logger.G(r.Context()).WithFields(map[string]any{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rw.statusCode,
			"duration":    duration,
			"remote_addr": r.RemoteAddr,
		}).Info("HTTP request")
	})
}

// corsMiddleware adds CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func routeName(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// writeJSONResponse writes a JSON response
func (s *Server) writeJSONResponse(w http.ResponseWriter, r *http.Request, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.G(r.Context()).WithError(err).Error("failed to encode JSON response")
	}
}

// writeErrorResponse writes an error response
func (s *Server) writeErrorResponse(w http.ResponseWriter, r *http.Request, statusCode int, message string, err error) {
	if err != nil {
		logger.G(r.Context()).WithError(err).Warn(message)
		message = message + ": " + err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := map[string]any{
		"error":   message,
		"status":  statusCode,
		"success": false,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.G(r.Context()).WithError(err).Error("failed to encode error response")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, target any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		return errors.Wrap(err, "invalid request body")
	}
	return nil
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.G(ctx).WithField("addr", s.config.Addr).Info("starting HTTP API")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return errors.Wrap(err, "http server failed")
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}
