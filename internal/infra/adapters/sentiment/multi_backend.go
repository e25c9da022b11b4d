// File: internal/infra/adapters/sentiment/multi_backend.go
package sentiment

import (
	"context"
	"errors"
	"strings"

	"github.com/roberjo/AuraStream-sub001/internal/domain"
	"github.com/roberjo/AuraStream-sub001/internal/domain/model"
	"github.com/roberjo/AuraStream-sub001/internal/domain/ports/adapter"
)

var _ adapter.SentimentBackend = (*MultiBackend)(nil)

// MultiBackend tries providers in order. Only BackendUnavailable falls
// through to the next provider; input errors and timeouts are returned as is.
type MultiBackend struct {
	order      []string
	byProvider map[string]adapter.SentimentBackend
}

func NewMultiBackend(order []string, byProvider map[string]adapter.SentimentBackend) *MultiBackend {
	m := &MultiBackend{byProvider: byProvider}
	for _, p := range order {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" || byProvider[p] == nil {
			continue
		}
		m.order = append(m.order, p)
	}
	return m
}

func (m *MultiBackend) Name() string {
	if len(m.order) == 0 {
		return "none"
	}
	return m.order[0]
}

func (m *MultiBackend) Classify(ctx context.Context, text, language string) (model.Classification, error) {
	if len(m.order) == 0 {
		return model.Classification{}, errors.New("no sentiment backend configured")
	}
	var err error
	for _, p := range m.order {
		var res model.Classification
		res, err = m.byProvider[p].Classify(ctx, text, language)
		if err == nil {
			return res, nil
		}
		if !errors.Is(err, domain.ErrBackendUnavailable) || ctx.Err() != nil {
			return model.Classification{}, err
		}
	}
	return model.Classification{}, err
}

// Ping succeeds when any provider answers.
func (m *MultiBackend) Ping(ctx context.Context) error {
	var err error
	for _, p := range m.order {
		if err = m.byProvider[p].Ping(ctx); err == nil {
			return nil
		}
	}
	if err == nil {
		err = errors.New("no sentiment backend configured")
	}
	return err
}
