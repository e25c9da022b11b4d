//go:build !integration

package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/roberjo/AuraStream-sub001/internal/domain"
	"github.com/roberjo/AuraStream-sub001/internal/domain/model"
)

func TestRequestRouter(t *testing.T) {
	env := newTestEnv()
	r := NewRequestRouter(env.analysis(time.Second), env.jobUC())
	ctx := context.Background()

	t.Run("should route sync requests to the dispatcher", func(t *testing.T) {
		res, err := r.Route(ctx, RouteRequest{Mode: "sync", Request: model.AnalysisRequest{Text: "I love this product!"}})
		if err != nil || res.Mode != ModeSync || res.Result == nil || res.Job != nil {
			t.Fatalf("unexpected routing %+v %v", res, err)
		}
	})

	t.Run("should route async requests to the orchestrator", func(t *testing.T) {
		res, err := r.Route(ctx, RouteRequest{Mode: "ASYNC", Items: items("a", "b")})
		if err != nil || res.Mode != ModeAsync || res.Job == nil || res.Job.Status != model.JobStatusSubmitted {
			t.Fatalf("unexpected routing %+v %v", res, err)
		}
	})

	t.Run("should reject a missing or unknown mode", func(t *testing.T) {
		for _, m := range []string{"", "batch"} {
			if _, err := r.Route(ctx, RouteRequest{Mode: m}); !errors.Is(err, domain.ErrInput) {
				t.Errorf("mode %q: expected InputError, got %v", m, err)
			}
		}
	})

	t.Run("should pass downstream errors through unchanged", func(t *testing.T) {
		env.backend.errFor["boom"] = domain.ErrBackendUnavailable
		_, err := r.Route(ctx, RouteRequest{Mode: "sync", Request: model.AnalysisRequest{Text: "boom"}})
		if !errors.Is(err, domain.ErrBackendUnavailable) {
			t.Errorf("expected BackendUnavailable, got %v", err)
		}
	})
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthUC(t *testing.T) {
	ok := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })
	slow := pingFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	t.Run("should report ok when every component answers", func(t *testing.T) {
		rep := NewHealthUseCase(map[string]Pinger{"backend": ok, "cache_store": ok}, "1.2.3", time.Second).Check(context.Background())
		if rep.Status != HealthOK || rep.Version != "1.2.3" || len(rep.Components) != 2 {
			t.Errorf("unexpected report %+v", rep)
		}
	})

	t.Run("should report degraded on any failing component", func(t *testing.T) {
		rep := NewHealthUseCase(map[string]Pinger{"backend": ok, "job_store": down, "cache_store": slow}, "", 10*time.Millisecond).Check(context.Background())
		if rep.Status != HealthDegraded {
			t.Errorf("expected degraded, got %s", rep.Status)
		}
		if rep.Components["job_store"].Healthy || rep.Components["cache_store"].Healthy {
			t.Errorf("expected failing components to be marked, got %+v", rep.Components)
		}
		if !rep.Components["backend"].Healthy {
			t.Error("expected backend healthy")
		}
	})

	t.Run("should check components concurrently", func(t *testing.T) {
		start := time.Now()
		rep := NewHealthUseCase(map[string]Pinger{"a": slow, "b": slow, "c": slow, "d": slow}, "", 50*time.Millisecond).Check(context.Background())
		if elapsed := time.Since(start); elapsed > 150*time.Millisecond {
			t.Errorf("expected one timeout window for all checks, took %v", elapsed)
		}
		if len(rep.Components) != 4 || rep.Status != HealthDegraded {
			t.Errorf("unexpected report %+v", rep)
		}
	})
}
