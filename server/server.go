// Package server exposes sessions over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/vegasq/csvview/session"
)

// Options configures the API surface.
type Options struct {
	MaxUploadBytes int64    // request body cap; 0 disables the cap
	RateLimitRPS   float64  // per-client requests per second; 0 disables limiting
	RateLimitBurst int      // per-client burst
	CORSOrigins    []string // allowed origins; empty disables CORS headers

	// SweepInterval is how often idle sessions are expired while Run is
	// serving. Zero selects one minute.
	SweepInterval time.Duration
}

// Server serves the session API.
type Server struct {
	sessions *session.Manager
	logger   *slog.Logger
	opts     Options
	router   chi.Router
}

// New builds a server over the given session manager.
func New(sessions *session.Manager, logger *slog.Logger, opts Options) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = time.Minute
	}
	s := &Server{sessions: sessions, logger: logger, opts: opts}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	if len(s.opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
			ExposedHeaders: []string{"X-Request-Id", "Retry-After"},
			MaxAge:         300,
		}))
	}
	if s.opts.RateLimitRPS > 0 {
		r.Use(newRateLimiter(s.opts.RateLimitRPS, s.opts.RateLimitBurst).Handler)
	}
	if s.opts.MaxUploadBytes > 0 {
		r.Use(limitBody(s.opts.MaxUploadBytes))
	}

	r.Get("/healthz", s.handleHealth)

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)

		r.Route("/{session}", func(r chi.Router) {
			r.Delete("/", s.handleCloseSession)

			r.Get("/tables", s.handleListTables)
			r.Route("/tables/{table}", func(r chi.Router) {
				r.Put("/", s.handleUploadTable)
				r.Get("/", s.handlePreviewTable)
				r.Delete("/", s.handleRemoveTable)
				r.Post("/filter", s.handleFilter)
				r.Post("/sort", s.handleSort)
				r.Post("/chart", s.handleChart)
			})

			r.Post("/join", s.handleJoin)
			r.Get("/join/columns", s.handleJoinColumns)
			r.Post("/query", s.handleQuery)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "no such route", Kind: KindNotFound})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed", Kind: KindBadRequest})
	})
	return r
}

// Run serves on addr until ctx is canceled, then shuts down gracefully.
// Idle sessions are expired in the background while serving.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run over an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go s.sessions.Run(sweepCtx, s.opts.SweepInterval)

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.logger.Info("http api listening", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.logger.Info("http api shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
