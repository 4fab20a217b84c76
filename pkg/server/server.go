// Package server exposes one visualization session over HTTP.
//
// The server holds a single [session.Session] for the lifetime of the
// process. Clients read and move its threshold and fetch renders of the
// current point set:
//
//	GET  /healthz
//	GET  /stats
//	GET  /threshold
//	PUT  /threshold/{value}
//	PUT  /transform/{name}
//	GET  /render.{format}?threshold=&transform=&palette=&scale=&quality=
//
// Query parameters on /render override the session for that request only.
// Rendered artifacts go through the pipeline runner and its cache.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	bverrors "github.com/matzehuels/binvis/pkg/errors"
	"github.com/matzehuels/binvis/pkg/pipeline"
	"github.com/matzehuels/binvis/pkg/session"
)

// Server serves one session.
type Server struct {
	sess      *session.Session
	runner    *pipeline.Runner
	inputHash string
	defaults  pipeline.Options
	logger    *log.Logger
	router    chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDefaults sets the render options applied when a request names none.
func WithDefaults(opts pipeline.Options) Option {
	return func(s *Server) { s.defaults = opts }
}

// New creates a server over sess. inputHash is the content hash of the
// bytes the session's histogram was built from and keys the artifact cache.
func New(sess *session.Session, runner *pipeline.Runner, inputHash string, opts ...Option) *Server {
	s := &Server{
		sess:      sess,
		runner:    runner,
		inputHash: inputHash,
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.runner == nil {
		s.runner = pipeline.NewRunner(nil, nil, s.logger)
	}
	s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/stats", s.handleStats)
	r.Get("/threshold", s.handleGetThreshold)
	r.Put("/threshold/{value}", s.handleSetThreshold)
	r.Put("/transform/{name}", s.handleSetTransform)
	r.Get("/render.{format}", s.handleRender)

	s.router = r
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("serving", "addr", addr, "session", s.sess.ID)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return ctx.Err()
	}
}

// =============================================================================
// Responses
// =============================================================================

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case bverrors.IsValidation(err), bverrors.Is(err, bverrors.ErrCodeUnsupported):
		status = http.StatusBadRequest
	case errors.Is(err, context.Canceled):
		status = 499
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "request_id", RequestID(r.Context()), "err", err)
	}
	writeJSON(w, status, errorResponse{
		Error: bverrors.UserMessage(err),
		Code:  string(bverrors.GetCode(err)),
	})
}
