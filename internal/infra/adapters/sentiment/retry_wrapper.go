package sentiment

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/roberjo/AuraStream-sub001/internal/domain"
	"github.com/roberjo/AuraStream-sub001/internal/domain/model"
	"github.com/roberjo/AuraStream-sub001/internal/domain/ports/adapter"
	"github.com/roberjo/AuraStream-sub001/internal/infra/logging"
	"github.com/roberjo/AuraStream-sub001/internal/infra/metrics"
)

var _ adapter.SentimentBackend = (*retryingBackend)(nil)

// retryingBackend retries a transient failure exactly once after delay and
// records latency and outcome per provider.
type retryingBackend struct {
	inner adapter.SentimentBackend
	delay time.Duration
	log   *zerolog.Logger
}

func NewRetryingBackend(inner adapter.SentimentBackend, delay time.Duration, logger *zerolog.Logger) adapter.SentimentBackend {
	return &retryingBackend{inner: inner, delay: delay, log: logger}
}

func (r *retryingBackend) Name() string { return r.inner.Name() }

func (r *retryingBackend) Classify(ctx context.Context, text, language string) (model.Classification, error) {
	res, err := r.call(ctx, text, language)
	if err == nil || !domain.IsTransient(err) {
		return res, err
	}

	kind := domain.KindOf(err)
	metrics.IncBackendRetry(r.Name(), string(kind))
	logging.With(ctx, r.log).Warn().
		Str("provider", r.Name()).
		Str("kind", string(kind)).
		Msg("backend retry attempt=1")

	select {
	case <-time.After(r.delay):
	case <-ctx.Done():
		return model.Classification{}, classifyContextError(ctx.Err())
	}
	return r.call(ctx, text, language)
}

func (r *retryingBackend) call(ctx context.Context, text, language string) (model.Classification, error) {
	start := time.Now()
	res, err := r.inner.Classify(ctx, text, language)
	if err != nil && ctx.Err() != nil && !domain.IsTransient(err) {
		err = classifyContextError(ctx.Err())
	}
	metrics.ObserveBackendCall(r.Name(), time.Since(start), err == nil)
	return res, err
}

func (r *retryingBackend) Ping(ctx context.Context) error {
	return r.inner.Ping(ctx)
}
