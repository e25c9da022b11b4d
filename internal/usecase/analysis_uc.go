// File: internal/usecase/analysis_uc.go
package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/roberjo/AuraStream-sub001/internal/domain"
	"github.com/roberjo/AuraStream-sub001/internal/domain/model"
	"github.com/roberjo/AuraStream-sub001/internal/domain/ports/adapter"
	"github.com/roberjo/AuraStream-sub001/internal/infra/logging"
	"github.com/roberjo/AuraStream-sub001/internal/infra/metrics"
)

// Compile-time check
var _ AnalysisUseCase = (*analysisUC)(nil)

// DispatchState names a step of a synchronous request.
type DispatchState string

const (
	StateReceived       DispatchState = "RECEIVED"
	StateRedacting      DispatchState = "REDACTING"
	StateFingerprinting DispatchState = "FINGERPRINTING"
	StateCacheLookup    DispatchState = "CACHE_LOOKUP"
	StateHit            DispatchState = "HIT"
	StateMiss           DispatchState = "MISS"
	StateComputing      DispatchState = "COMPUTING"
	StateCacheStore     DispatchState = "CACHE_STORE"
	StateResponding     DispatchState = "RESPONDING"
	StateDone           DispatchState = "DONE"
	StateFailed         DispatchState = "FAILED"
)

type AnalysisUseCase interface {
	// AnalyzeSync classifies one text within the compute deadline.
	AnalyzeSync(ctx context.Context, req model.AnalysisRequest) (*model.AnalysisResult, error)
	// Invalidate drops the cached result for the given input.
	Invalidate(ctx context.Context, req model.AnalysisRequest) error
}

type AnalysisConfig struct {
	ComputeDeadline time.Duration
	MaxTextLength   int
}

type analysisUC struct {
	pipe *analysisPipeline
	cfg  AnalysisConfig
	log  *zerolog.Logger
	now  func() time.Time
}

func NewAnalysisUseCase(redactor Redactor, fp Fingerprinter, cache ResultCache, backend adapter.SentimentBackend, cfg AnalysisConfig, logger *zerolog.Logger) *analysisUC {
	if cfg.ComputeDeadline <= 0 {
		cfg.ComputeDeadline = 800 * time.Millisecond
	}
	if cfg.MaxTextLength <= 0 {
		cfg.MaxTextLength = model.MaxTextLengthSync
	}
	return &analysisUC{
		pipe: &analysisPipeline{redactor: redactor, fp: fp, cache: cache, backend: backend},
		cfg:  cfg,
		log:  logger,
		now:  time.Now,
	}
}

func (a *analysisUC) AnalyzeSync(ctx context.Context, req model.AnalysisRequest) (res *model.AnalysisResult, err error) {
	start := a.now()
	log := logging.With(ctx, a.log)
	defer logging.TraceDuration(log, "AnalysisUC.AnalyzeSync")()

	state := StateReceived
	step := func(s DispatchState) {
		log.Trace().Str("from", string(state)).Str("to", string(s)).Msg("dispatch")
		state = s
	}
	outcome := "miss"
	defer func() {
		if err != nil {
			step(StateFailed)
			outcome = string(domain.KindOf(err))
		}
		metrics.ObserveSyncRequest(outcome, a.now().Sub(start))
	}()

	req, verr := req.Validate(a.cfg.MaxTextLength)
	if verr != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInput, verr)
	}

	step(StateRedacting)
	redacted, report, err := a.pipe.redact(ctx, log, req.Text)
	if err != nil {
		return nil, err
	}

	step(StateFingerprinting)
	fp := a.pipe.fp.Fingerprint(redacted, req.Language, req.Options)

	step(StateCacheLookup)
	var (
		result model.Classification
		hit    bool
	)
	if e, ok := a.pipe.cache.Lookup(ctx, fp); ok {
		step(StateHit)
		result, hit = e.Result, true
		outcome = "hit"
	} else {
		step(StateMiss)
		step(StateComputing)
		cctx, cancel := context.WithTimeout(ctx, a.cfg.ComputeDeadline)
		out, cerr := a.pipe.cache.ComputeOnMiss(cctx, fp, a.pipe.compute(redacted, req.Language))
		cancel()
		if cerr != nil {
			return nil, cerr
		}
		step(StateCacheStore)
		result, hit = out.Result, out.Hit
		if hit {
			outcome = "hit"
		}
	}

	step(StateResponding)
	now := a.now()
	res = &model.AnalysisResult{
		RequestID:      logging.RequestID(ctx),
		Language:       req.Language,
		Classification: result,
		Detail:         req.Options.Detail,
		CacheHit:       hit,
		PIIDetected:    report.Detected(),
		ProcessingTime: now.Sub(start),
		CompletedAt:    now,
	}
	step(StateDone)
	log.Debug().
		Str("text", logging.Preview(redacted, false)).
		Bool("cache_hit", hit).
		Str("label", string(result.Label)).
		Msg("sync analysis done")
	return res, nil
}

func (a *analysisUC) Invalidate(ctx context.Context, req model.AnalysisRequest) error {
	req, verr := req.Validate(model.MaxTextLengthAsync)
	if verr != nil {
		return fmt.Errorf("%w: %v", domain.ErrInput, verr)
	}
	redacted, _, err := a.pipe.redactor.Redact(req.Text)
	if err != nil {
		return err
	}
	return a.pipe.cache.Invalidate(ctx, a.pipe.fp.Fingerprint(redacted, req.Language, req.Options))
}
