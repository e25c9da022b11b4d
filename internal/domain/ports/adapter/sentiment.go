package adapter

import (
	"context"

	"github.com/roberjo/AuraStream-sub001/internal/domain/model"
)

// SentimentBackend is the port for an inference provider. Implementations
// map their transport failures onto domain.ErrBackendUnavailable and
// domain.ErrBackendTimeout so callers can decide on a retry.
type SentimentBackend interface {
	Name() string
	Classify(ctx context.Context, text, language string) (model.Classification, error)
	// Ping is a cheap reachability check used by health checks and job pre-flight.
	Ping(ctx context.Context) error
}
