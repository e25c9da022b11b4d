package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/roberjo/AuraStream-sub001/internal/config"
	"github.com/roberjo/AuraStream-sub001/internal/infra/api/apiv1"
	"github.com/roberjo/AuraStream-sub001/internal/infra/api/auth"
	"github.com/roberjo/AuraStream-sub001/internal/infra/metrics"
)

// RouterDeps are the pieces the HTTP surface is assembled from. Limiter may
// be nil to disable rate limiting.
type RouterDeps struct {
	API     *apiv1.Server
	Auth    *auth.Manager
	Limiter Limiter
	Log     *zerolog.Logger
}

// NewRouter wires the guard chain, the generated v1 routes and /metrics.
func NewRouter(cfg *config.Config, d RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		RequestID(),
		RequestLog(d.Log),
		Recover(d.Log),
		Timeout(cfg.HTTP.RequestTimeout),
	)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		apiv1.WriteError(w, r, http.StatusNotFound, apiv1.CodeNotFound, "route not found")
	})

	// Wrapper middlewares apply last-first: authentication runs before the limiter.
	apiv1.RegisterAPIV1(r, d.API,
		RateLimit(d.Limiter, cfg.RateLimit.Requests, cfg.RateLimit.Window, d.Log),
		Authenticate(d.Auth, d.Log),
	)
	return r
}

// Server owns the listener lifecycle.
type Server struct {
	srv *http.Server
	log *zerolog.Logger
}

func NewServer(cfg *config.Config, handler http.Handler, logger *zerolog.Logger) *Server {
	l := logger.With().Str("component", "HTTPServer").Logger()
	return &Server{
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
			Handler:           handler,
			ReadTimeout:       cfg.HTTP.ReadTimeout,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      cfg.HTTP.WriteTimeout,
		},
		log: &l,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.srv.Addr).Msg("HTTP server listening")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	s.log.Info().Msg("HTTP server stopped")
	return nil
}
