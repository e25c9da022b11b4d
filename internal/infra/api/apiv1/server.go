package apiv1

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/rs/zerolog"

	"github.com/roberjo/AuraStream-sub001/internal/domain/model"
	"github.com/roberjo/AuraStream-sub001/internal/infra/api/auth"
	"github.com/roberjo/AuraStream-sub001/internal/infra/logging"
	"github.com/roberjo/AuraStream-sub001/internal/usecase"
)

// Compile-time check
var _ ServerInterface = (*Server)(nil)

// maxBodyBytes covers a full async batch of maximum-length items.
const maxBodyBytes = 128 << 20

type Server struct {
	router   usecase.RequestRouter
	analysis usecase.AnalysisUseCase
	jobs     usecase.JobUseCase
	health   usecase.HealthUseCase
	log      *zerolog.Logger
}

func NewServer(router usecase.RequestRouter, analysis usecase.AnalysisUseCase, jobs usecase.JobUseCase, health usecase.HealthUseCase, logger *zerolog.Logger) *Server {
	l := logger.With().Str("component", "apiv1").Logger()
	return &Server{router: router, analysis: analysis, jobs: jobs, health: health, log: &l}
}

// RegisterAPIV1 mounts the generated routes on r. Middlewares run inside the
// operation wrapper, after the security scopes are set on the context.
func RegisterAPIV1(r chi.Router, srv *Server, mws ...MiddlewareFunc) {
	HandlerWithOptions(srv, ChiServerOptions{
		BaseRouter:       r,
		Middlewares:      mws,
		ErrorHandlerFunc: ParamErrorHandler,
	})
}

func (s *Server) Analyze(w http.ResponseWriter, r *http.Request) {
	var body AnalyzeJSONRequestBody
	if !s.decode(w, r, &body) {
		return
	}

	route := usecase.RouteRequest{Mode: string(body.Mode), SourceID: deref(body.SourceId)}
	route.Request = model.AnalysisRequest{
		Text:     deref(body.Text),
		Language: deref(body.Language),
		Options:  toOptions(body.Options),
	}
	if body.Items != nil {
		route.Items = make([]model.AnalysisRequest, len(*body.Items))
		for i, it := range *body.Items {
			route.Items[i] = toRequest(it)
		}
	}

	res, err := s.router.Route(r.Context(), route)
	if err != nil {
		writeDomainError(w, r, s.log, err)
		return
	}
	if res.Job != nil {
		writeJSON(w, http.StatusAccepted, toJobAccepted(res.Job))
		return
	}
	w.Header().Set("X-Cache-Hit", strconv.FormatBool(res.Result.CacheHit))
	writeJSON(w, http.StatusOK, toSentimentResult(res.Result))
}

func (s *Server) GetJob(w http.ResponseWriter, r *http.Request, jobId openapi_types.UUID) {
	job, err := s.jobs.Status(r.Context(), jobId.String())
	if err != nil {
		writeDomainError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toJobStatus(job))
}

func (s *Server) CancelJob(w http.ResponseWriter, r *http.Request, jobId openapi_types.UUID) {
	job, err := s.jobs.Cancel(r.Context(), jobId.String())
	if err != nil {
		writeDomainError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toJobStatus(job))
}

func (s *Server) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	if !auth.FromContext(r.Context()).IsAdmin() {
		WriteError(w, r, http.StatusForbidden, CodeForbidden, "admin role required")
		return
	}
	var body InvalidateCacheJSONRequestBody
	if !s.decode(w, r, &body) {
		return
	}
	if err := s.analysis.Invalidate(r.Context(), toRequest(body)); err != nil {
		writeDomainError(w, r, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// componentUnavailable replaces driver errors, which can carry hosts and credentials.
const componentUnavailable = "unavailable"

func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	rep := s.health.Check(r.Context())
	out := Health{
		Status:     HealthStatus(rep.Status),
		Version:    rep.Version,
		Timestamp:  rep.Timestamp,
		Components: make(map[string]ComponentStatus, len(rep.Components)),
	}
	for name, c := range rep.Components {
		ms := c.Latency.Milliseconds()
		cs := ComponentStatus{Status: ComponentStatusStatusOk, LatencyMs: &ms}
		if !c.Healthy {
			logging.With(r.Context(), s.log).Warn().Str("check", name).Str("error", c.Error).Msg("health check failed")
			cs.Status = ComponentStatusStatusError
			cs.Error = ptr(componentUnavailable)
		}
		out.Components[name] = cs
	}
	status := http.StatusOK
	if rep.Status != usecase.HealthOK {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, out)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
	if err == nil {
		return true
	}
	msg := "invalid request body"
	var mbe *http.MaxBytesError
	switch {
	case errors.Is(err, io.EOF):
		msg = "request body is required"
	case errors.As(err, &mbe):
		msg = "request body too large"
	}
	WriteError(w, r, http.StatusBadRequest, CodeInput, msg)
	return false
}

func toOptions(o *Options) model.Options {
	if o == nil || o.Detail == nil {
		return model.Options{}
	}
	return model.Options{Detail: model.Detail(*o.Detail)}
}

func toRequest(it Item) model.AnalysisRequest {
	return model.AnalysisRequest{Text: it.Text, Language: deref(it.Language), Options: toOptions(it.Options)}
}

func toSentimentResult(res *model.AnalysisResult) SentimentResult {
	ms := res.ProcessingTime.Milliseconds()
	out := SentimentResult{
		Sentiment:        SentimentResultSentiment(res.Classification.Label),
		Score:            res.Classification.Confidence(),
		LanguageCode:     ptr(res.Language),
		PiiDetected:      ptr(res.PIIDetected),
		ProcessingTimeMs: &ms,
		CacheHit:         res.CacheHit,
		RequestId:        res.RequestID,
	}
	if res.Detail == model.DetailFull {
		out.Scores = scoresOf(res.Classification)
	}
	return out
}

func toJobAccepted(job *model.Job) JobAccepted {
	return JobAccepted{
		JobId:               openapi_types.UUID(uuid.MustParse(job.ID)),
		Status:              string(job.Status),
		Message:             ptr("job submitted"),
		CreatedAt:           job.CreatedAt.UTC(),
		EstimatedCompletion: ptr(job.EstimatedCompletion().UTC()),
	}
}

// toJobStatus never carries fingerprints or item text.
func toJobStatus(job *model.Job) JobStatus {
	out := JobStatus{
		JobId:     openapi_types.UUID(uuid.MustParse(job.ID)),
		Status:    JobStatusStatus(job.Status),
		CreatedAt: job.CreatedAt.UTC(),
		Progress:  job.Progress(),
	}
	if job.SourceID != "" {
		out.SourceId = ptr(job.SourceID)
	}
	if job.CompletedAt != nil {
		out.CompletedAt = ptr(job.CompletedAt.UTC())
	}
	if job.Status == model.JobStatusFailed && job.LastError != "" {
		code := "JOB_FAILED"
		if job.Cancelled {
			code = "CANCELLED"
		}
		out.Error = &ItemError{Code: code, Message: job.LastError}
	}

	items := make([]ItemResult, len(job.Items))
	for i, it := range job.Items {
		ir := ItemResult{Index: it.Index, Status: ItemResultStatus(it.Status)}
		if ir.Status == "" {
			ir.Status = ItemResultStatusPending
		}
		if it.Result != nil {
			ir.Sentiment = ptr(string(it.Result.Label))
			ir.Score = ptr(it.Result.Confidence())
			ir.CacheHit = ptr(it.CacheHit)
			if it.Options.Detail == model.DetailFull {
				ir.Scores = scoresOf(*it.Result)
			}
		}
		if it.ErrorKind != "" {
			ir.Error = &ItemError{Code: itemErrorCode(it.ErrorKind), Message: it.ErrorMessage}
		}
		items[i] = ir
	}
	out.Items = &items
	return out
}

func scoresOf(c model.Classification) *map[string]float64 {
	m := make(map[string]float64, len(c.Scores))
	for k, v := range c.Scores {
		m[string(k)] = v
	}
	return &m
}

func ptr[T any](v T) *T { return &v }

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

