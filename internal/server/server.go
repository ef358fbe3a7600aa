// Package server exposes the issue solver over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"issuesolver/internal/auth"
	"issuesolver/internal/models"
	"issuesolver/internal/services"
)

// Translator renders text into the caller's language.
type Translator interface {
	Translate(ctx context.Context, userID, text, lang string) (string, error)
}

// ModelCatalog lists selectable models.
type ModelCatalog interface {
	ListModelGroups() ([]models.LLMModelGroup, error)
}

type Deps struct {
	Solver     services.IssueSolverService
	Sessions   services.ChatSessionService
	Translator Translator
	Models     ModelCatalog
	Verifier   *auth.Verifier
	Logger     *log.Logger
}

type Options struct {
	AllowedOrigin  string
	RequestTimeout time.Duration
}

// Server serves the JSON API.
type Server struct {
	Deps
	opts Options
	mux  *http.ServeMux
}

// New creates a new server.
func New(deps Deps, opts Options) *Server {
	if opts.AllowedOrigin == "" {
		opts.AllowedOrigin = "*"
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 2 * time.Minute
	}
	if deps.Logger == nil {
		deps.Logger = log.Default()
	}
	s := &Server{Deps: deps, opts: opts, mux: http.NewServeMux()}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	protect := func(h http.HandlerFunc) http.Handler {
		return auth.Middleware(s.Verifier, h)
	}

	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.mux.Handle("POST /issue-solver", protect(s.handleCreateIssue))
	s.mux.Handle("PATCH /issue-solver", protect(s.handleIssueAction))
	s.mux.Handle("GET /issue-solver", protect(s.handleListIssues))
	s.mux.Handle("GET /issue-solver/{id}", protect(s.handleGetIssue))

	s.mux.Handle("POST /sessions", protect(s.handleCreateSession))
	s.mux.Handle("GET /sessions", protect(s.handleListSessions))
	s.mux.Handle("DELETE /sessions/{id}", protect(s.handleDeleteSession))

	s.mux.Handle("POST /translate", protect(s.handleTranslate))
	s.mux.Handle("GET /models", protect(s.handleModels))
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return requestLogger(s.Logger, corsMiddleware(s.opts.AllowedOrigin, s.mux))
}

// Start serves on addr until ctx is cancelled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.RequestTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.Logger.Info("server stopped")
	return nil
}

// workContext detaches coordinator calls from client disconnects so results
// already being generated are still persisted; the request timeout still applies.
func (s *Server) workContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(r.Context()), s.opts.RequestTimeout)
}
