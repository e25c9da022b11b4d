package api

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/roberjo/AuraStream-sub001/internal/infra/api/apiv1"
	"github.com/roberjo/AuraStream-sub001/internal/infra/api/auth"
	"github.com/roberjo/AuraStream-sub001/internal/infra/logging"
	"github.com/roberjo/AuraStream-sub001/internal/infra/redis"
)

// requiresAuth reports whether the generated wrapper marked the operation
// as bearer-protected.
func requiresAuth(r *http.Request) bool {
	return r.Context().Value(apiv1.BearerAuthScopes) != nil
}

// Authenticate verifies the bearer token on protected operations.
func Authenticate(m *auth.Manager, logger *zerolog.Logger) apiv1.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !requiresAuth(r) {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := m.ParseFromRequest(r)
			if err != nil {
				logging.With(r.Context(), logger).Debug().Err(err).Msg("auth rejected")
				apiv1.WriteError(w, r, http.StatusUnauthorized, apiv1.CodeUnauthorized, err.Error())
				return
			}
			ctx := auth.WithClaims(r.Context(), claims)
			ctx = logging.WithSubject(ctx, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Limiter is a per-key fixed-window counter.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RateLimit caps protected operations per subject. A limiter failure lets
// the request through.
func RateLimit(l Limiter, limit int, window time.Duration, logger *zerolog.Logger) apiv1.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		if l == nil || limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !requiresAuth(r) {
				next.ServeHTTP(w, r)
				return
			}
			ok, err := l.Allow(r.Context(), redis.ClientKey(clientOf(r), r.Method), limit, window)
			if err != nil {
				logging.With(r.Context(), logger).Warn().Err(err).Msg("rate limiter unavailable")
			} else if !ok {
				w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				apiv1.WriteError(w, r, http.StatusTooManyRequests, apiv1.CodeRateLimited, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientOf(r *http.Request) string {
	if c := auth.FromContext(r.Context()); c != nil && c.Subject != "" {
		return c.Subject
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
