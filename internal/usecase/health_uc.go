package usecase

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Compile-time check
var _ HealthUseCase = (*healthUC)(nil)

type HealthStatus string

const (
	HealthOK       HealthStatus = "ok"
	HealthDegraded HealthStatus = "degraded"
)

// Pinger is anything that can report its own reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

type ComponentHealth struct {
	Healthy bool
	Error   string
	Latency time.Duration
}

type HealthReport struct {
	Status     HealthStatus
	Version    string
	Timestamp  time.Time
	Components map[string]ComponentHealth
}

type HealthUseCase interface {
	Check(ctx context.Context) HealthReport
}

type healthUC struct {
	components map[string]Pinger
	version    string
	timeout    time.Duration
}

// NewHealthUseCase checks every named component concurrently, each bounded by timeout.
func NewHealthUseCase(components map[string]Pinger, version string, timeout time.Duration) *healthUC {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &healthUC{components: components, version: version, timeout: timeout}
}

func (h *healthUC) Check(ctx context.Context) HealthReport {
	rep := HealthReport{
		Status:     HealthOK,
		Version:    h.version,
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]ComponentHealth, len(h.components)),
	}

	names := make([]string, 0, len(h.components))
	for name := range h.components {
		names = append(names, name)
	}
	results := make([]ComponentHealth, len(names))
	// Failures are reported per component, so no goroutine returns an error.
	var g errgroup.Group
	for i, name := range names {
		p := h.components[name]
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, h.timeout)
			defer cancel()
			start := time.Now()
			err := p.Ping(cctx)
			results[i] = ComponentHealth{Healthy: err == nil, Latency: time.Since(start)}
			if err != nil {
				results[i].Error = err.Error()
			}
			return nil
		})
	}
	_ = g.Wait()
	for i, name := range names {
		rep.Components[name] = results[i]
	}

	for _, c := range rep.Components {
		if !c.Healthy {
			rep.Status = HealthDegraded
			break
		}
	}
	return rep
}
