package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/roberjo/AuraStream-sub001/internal/domain"
	"github.com/roberjo/AuraStream-sub001/internal/domain/model"
	"github.com/roberjo/AuraStream-sub001/internal/domain/ports/adapter"
)

// Redactor strips PII before text goes anywhere else.
type Redactor interface {
	Redact(text string) (string, model.RedactionReport, error)
}

// Fingerprinter derives cache keys from redacted text.
type Fingerprinter interface {
	Fingerprint(redactedText, language string, opts model.Options) model.Fingerprint
}

// analysisPipeline is the redact -> fingerprint -> cache -> backend path
// shared by the sync dispatcher and the job worker.
type analysisPipeline struct {
	redactor Redactor
	fp       Fingerprinter
	cache    ResultCache
	backend  adapter.SentimentBackend
}

type pipelineOutcome struct {
	Fingerprint model.Fingerprint
	Result      model.Classification
	CacheHit    bool
	PIIDetected bool
}

func (p *analysisPipeline) redact(ctx context.Context, log *zerolog.Logger, text string) (string, model.RedactionReport, error) {
	redacted, report, err := p.redactor.Redact(text)
	if err != nil {
		return "", report, err
	}
	if report.Detected() {
		ev := log.Debug().Str("risk", string(report.Risk()))
		for cat, n := range report.Counts {
			ev = ev.Int(string(cat), n)
		}
		ev.Msg("pii redacted")
	}
	return redacted, report, nil
}

// compute is the function handed to the cache on a miss.
func (p *analysisPipeline) compute(redacted, language string) ComputeFunc {
	return func(ctx context.Context) (model.Classification, error) {
		res, err := p.backend.Classify(ctx, redacted, language)
		if err != nil {
			return model.Classification{}, err
		}
		if !res.Label.Valid() {
			return model.Classification{}, fmt.Errorf("%w: backend returned label %q", domain.ErrBackendUnavailable, res.Label)
		}
		return res, nil
	}
}

// runItem processes one already validated request without a caller deadline
// beyond ctx. Used for job items.
func (p *analysisPipeline) runItem(ctx context.Context, log *zerolog.Logger, req model.AnalysisRequest) (pipelineOutcome, error) {
	redacted, report, err := p.redact(ctx, log, req.Text)
	if err != nil {
		return pipelineOutcome{}, err
	}
	fp := p.fp.Fingerprint(redacted, req.Language, req.Options)
	out, err := p.cache.GetOrCompute(ctx, fp, p.compute(redacted, req.Language))
	if err != nil {
		return pipelineOutcome{Fingerprint: fp}, err
	}
	return pipelineOutcome{
		Fingerprint: fp,
		Result:      out.Result,
		CacheHit:    out.Hit,
		PIIDetected: report.Detected(),
	}, nil
}
