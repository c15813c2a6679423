// Package server exposes the dashboard over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/komsit37/pf/pkg/pf/pipeline"
)

type Options struct {
	Addr string
	// RequestsPerSecond limits API calls; 0 disables limiting.
	RequestsPerSecond float64
	// RefreshEvery runs background refresh cycles; 0 disables them.
	RefreshEvery time.Duration
}

type Server struct {
	d      *pipeline.Dashboard
	opts   Options
	logger *zap.Logger
	router chi.Router
}

func New(d *pipeline.Dashboard, opts Options, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{d: d, opts: opts, logger: logger}
	s.router = s.routes()
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.logger))
	if s.opts.RequestsPerSecond > 0 {
		burst := int(s.opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		r.Use(rateLimit(rate.NewLimiter(rate.Limit(s.opts.RequestsPerSecond), burst), s.logger))
	}

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/portfolio", s.handlePortfolio)
		r.Post("/refresh", s.handleRefresh)
		r.Get("/holdings", s.handleListHoldings)
		r.Post("/holdings", s.handleUpsertHolding)
		r.Delete("/holdings/{ticker}", s.handleRemoveHolding)
		r.Post("/reset", s.handleReset)
		r.Put("/currency", s.handleCurrency)
		r.Get("/detail/{ticker}", s.handleDetail)
		r.Get("/logo/{ticker}", s.handleLogo)
	})
	return r
}

// Run serves until ctx is cancelled, refreshing in the background when
// RefreshEvery is set.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if s.opts.RefreshEvery > 0 {
		go func() {
			_ = s.d.Watch(ctx, s.opts.RefreshEvery, nil)
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", s.opts.Addr))
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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}
