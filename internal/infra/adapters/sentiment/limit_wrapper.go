package sentiment

import (
	"context"

	"github.com/roberjo/AuraStream-sub001/internal/domain/model"
	"github.com/roberjo/AuraStream-sub001/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.SentimentBackend = (*limitedBackend)(nil)

type limitedBackend struct {
	inner adapter.SentimentBackend
	sem   chan struct{}
}

// NewLimitedBackend caps in-flight Classify calls. Waiting for a slot
// respects ctx, so a caller's deadline still applies while queued.
func NewLimitedBackend(inner adapter.SentimentBackend, maxConcurrent int) adapter.SentimentBackend {
	if maxConcurrent <= 0 {
		return inner
	}
	return &limitedBackend{
		inner: inner,
		sem:   make(chan struct{}, maxConcurrent),
	}
}

func (l *limitedBackend) Name() string { return l.inner.Name() }

func (l *limitedBackend) Classify(ctx context.Context, text, language string) (model.Classification, error) {
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return model.Classification{}, classifyContextError(ctx.Err())
	}
	defer func() { <-l.sem }()
	return l.inner.Classify(ctx, text, language)
}

func (l *limitedBackend) Ping(ctx context.Context) error {
	return l.inner.Ping(ctx)
}
