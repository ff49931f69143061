// Package server exposes the rule engine over HTTP.
//
// Routes:
//
//	GET  /healthz       liveness and build version
//	GET  /v1/rules      the rule catalog
//	POST /v1/analyze    analyze one extraction record (request body)
//
// POST /v1/analyze accepts the query parameters "repo", naming the record
// in the resulting bundle, and "rules", a comma-separated subset of rule
// codes. The response carries the single-record summary and, when any
// rule fired, the finding bundle. Nothing is persisted.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/metacheck/pkg/pipeline"
)

const (
	// DefaultTimeout bounds one request, liveness probes included.
	DefaultTimeout = 2 * time.Minute

	// DefaultMaxBody caps the size of an uploaded record.
	DefaultMaxBody = 10 << 20

	shutdownTimeout = 10 * time.Second
)

// Server serves the HTTP API.
type Server struct {
	runner  *pipeline.Runner
	logger  *log.Logger
	timeout time.Duration
	maxBody int64
	router  chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithMaxBody sets the maximum accepted record size in bytes.
func WithMaxBody(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBody = n
		}
	}
}

// New creates a server running records through runner.
// If logger is nil, the runner's logger is used.
func New(runner *pipeline.Runner, logger *log.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = runner.Logger
	}
	s := &Server{
		runner:  runner,
		logger:  logger,
		timeout: DefaultTimeout,
		maxBody: DefaultMaxBody,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/rules", s.handleRules)
		r.Get("/rules/{code}", s.handleRule)
		r.Post("/analyze", s.handleAnalyze)
	})
	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// logRequests writes one structured line per request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		logf := s.logger.Info
		if status >= 500 {
			logf = s.logger.Error
		}
		logf("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
