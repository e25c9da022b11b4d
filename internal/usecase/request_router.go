package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/roberjo/AuraStream-sub001/internal/domain"
	"github.com/roberjo/AuraStream-sub001/internal/domain/model"
)

// Compile-time check
var _ RequestRouter = (*requestRouter)(nil)

type Mode string

const (
	ModeSync  Mode = "sync"
	ModeAsync Mode = "async"
)

// ParseMode accepts the explicit mode field; anything else is an input error.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeSync, ModeAsync:
		return m, nil
	}
	return "", fmt.Errorf("%w: %v", domain.ErrInput, model.ValidationMode)
}

type RouteRequest struct {
	Mode     string
	Request  model.AnalysisRequest   // sync
	Items    []model.AnalysisRequest // async
	SourceID string
}

// RouteResult carries exactly one of Result or Job.
type RouteResult struct {
	Mode   Mode
	Result *model.AnalysisResult
	Job    *model.Job
}

type RequestRouter interface {
	Route(ctx context.Context, req RouteRequest) (*RouteResult, error)
}

type requestRouter struct {
	analysis AnalysisUseCase
	jobs     JobUseCase
}

func NewRequestRouter(analysis AnalysisUseCase, jobs JobUseCase) *requestRouter {
	return &requestRouter{analysis: analysis, jobs: jobs}
}

// Route delegates by mode and returns downstream results and errors as is.
func (r *requestRouter) Route(ctx context.Context, req RouteRequest) (*RouteResult, error) {
	mode, err := ParseMode(req.Mode)
	if err != nil {
		return nil, err
	}
	switch mode {
	case ModeSync:
		res, err := r.analysis.AnalyzeSync(ctx, req.Request)
		if err != nil {
			return nil, err
		}
		return &RouteResult{Mode: mode, Result: res}, nil
	default:
		job, err := r.jobs.Submit(ctx, req.Items, req.SourceID)
		if err != nil {
			return nil, err
		}
		return &RouteResult{Mode: mode, Job: job}, nil
	}
}
