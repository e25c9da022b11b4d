//go:build !integration

package sched

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/roberjo/AuraStream-sub001/internal/infra/logging"
)

type countingResubmitter struct{ calls atomic.Int32 }

func (c *countingResubmitter) ResubmitStale(context.Context) (int, error) {
	c.calls.Add(1)
	return 1, nil
}

type countingSweeper struct{ calls atomic.Int32 }

func (c *countingSweeper) Sweep(context.Context) (int, error) {
	if c.calls.Add(1) == 1 {
		return 0, errors.New("transient")
	}
	return 3, nil
}

func TestResubmitSweeper_RunsUntilCancelled(t *testing.T) {
	r := &countingResubmitter{}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := NewResubmitSweeper(5*time.Millisecond, r, logging.Nop()).Run(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected the context error, got %v", err)
	}
	if r.calls.Load() < 2 {
		t.Errorf("expected several sweeps, got %d", r.calls.Load())
	}
}

func TestCacheSweeper_KeepsGoingAfterErrors(t *testing.T) {
	s := &countingSweeper{}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_ = NewCacheSweeper(5*time.Millisecond, s, logging.Nop()).Run(ctx)
	if s.calls.Load() < 2 {
		t.Errorf("expected the sweeper to retry after an error, got %d calls", s.calls.Load())
	}
}
