//go:build !integration

package apiv1_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/roberjo/AuraStream-sub001/internal/domain/model"
	"github.com/roberjo/AuraStream-sub001/internal/infra/adapters/sentiment"
	apiv1 "github.com/roberjo/AuraStream-sub001/internal/infra/api/apiv1"
	"github.com/roberjo/AuraStream-sub001/internal/infra/api/auth"
	"github.com/roberjo/AuraStream-sub001/internal/infra/fingerprint"
	"github.com/roberjo/AuraStream-sub001/internal/infra/logging"
	"github.com/roberjo/AuraStream-sub001/internal/infra/memory"
	"github.com/roberjo/AuraStream-sub001/internal/infra/security"
	"github.com/roberjo/AuraStream-sub001/internal/usecase"
)

//
// -------------------- test helpers --------------------
//

type pinger func(context.Context) error

func (p pinger) Ping(ctx context.Context) error { return p(ctx) }

type testServer struct {
	mux  *chi.Mux
	jobs usecase.JobUseCase
	role string
}

func newTestServer(t *testing.T, health map[string]usecase.Pinger) *testServer {
	t.Helper()
	log := logging.Nop()
	redactor, fp, backend := security.NewRedactor(), fingerprint.NewEngine(), sentiment.NewLexiconBackend()
	cache := usecase.NewResultCache(memory.NewCacheStore(), usecase.ResultCacheConfig{
		TTL: time.Hour, MaxTTL: 24 * time.Hour, ComputeTimeout: time.Second,
		MarkerTTL: 2 * time.Second, PollInterval: 5 * time.Millisecond,
	}, log)
	analysis := usecase.NewAnalysisUseCase(redactor, fp, cache, backend, usecase.AnalysisConfig{ComputeDeadline: time.Second}, log)
	jobs := usecase.NewJobUseCase(memory.NewJobRepo(), redactor, fp, cache, backend, usecase.JobConfig{}, log)
	if health == nil {
		health = map[string]usecase.Pinger{"backend": backend}
	}
	srv := apiv1.NewServer(usecase.NewRequestRouter(analysis, jobs), analysis, jobs,
		usecase.NewHealthUseCase(health, "test", time.Second), log)

	ts := &testServer{mux: chi.NewRouter(), jobs: jobs, role: auth.RoleClient}
	withClaims := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c := &auth.Claims{Role: ts.role, RegisteredClaims: jwt.RegisteredClaims{Subject: "tester"}}
			next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), c)))
		})
	}
	apiv1.RegisterAPIV1(ts.mux, srv, withClaims)
	return ts
}

func (ts *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.mux.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("want %d, got %d, body=%s", status, rec.Code, rec.Body.String())
	}
	body := decode[apiv1.ErrorResponse](t, rec)
	if body.Error.Code != code {
		t.Errorf("want code %s, got %+v", code, body.Error)
	}
}

//
// -------------------- tests --------------------
//

func TestAnalyze_Sync(t *testing.T) {
	ts := newTestServer(t, nil)

	t.Run("should classify and then serve from cache", func(t *testing.T) {
		body := `{"mode":"sync","text":"I love this product!"}`
		rec := ts.do(http.MethodPost, "/v1/analyze", body)
		if rec.Code != http.StatusOK {
			t.Fatalf("want 200, got %d, body=%s", rec.Code, rec.Body.String())
		}
		if rec.Header().Get("X-Cache-Hit") != "false" {
			t.Errorf("expected a miss first, got %q", rec.Header().Get("X-Cache-Hit"))
		}
		res := decode[apiv1.SentimentResult](t, rec)
		if res.Sentiment != apiv1.POSITIVE || res.Scores != nil {
			t.Errorf("unexpected basic result %+v", res)
		}

		rec = ts.do(http.MethodPost, "/v1/analyze", body)
		if rec.Header().Get("X-Cache-Hit") != "true" {
			t.Errorf("expected a cache hit, got %q", rec.Header().Get("X-Cache-Hit"))
		}
	})

	t.Run("should include scores for full detail", func(t *testing.T) {
		rec := ts.do(http.MethodPost, "/v1/analyze", `{"mode":"sync","text":"terrible service","options":{"detail":"full"}}`)
		res := decode[apiv1.SentimentResult](t, rec)
		if res.Scores == nil || len(*res.Scores) == 0 {
			t.Errorf("expected scores, got %+v", res)
		}
	})

	t.Run("should flag pii without echoing it", func(t *testing.T) {
		rec := ts.do(http.MethodPost, "/v1/analyze", `{"mode":"sync","text":"My SSN is 123-45-6789"}`)
		if strings.Contains(rec.Body.String(), "123-45-6789") || strings.Contains(rec.Body.String(), "fp:") {
			t.Fatalf("response leaked input or fingerprint: %s", rec.Body.String())
		}
		res := decode[apiv1.SentimentResult](t, rec)
		if res.PiiDetected == nil || !*res.PiiDetected {
			t.Errorf("expected pii_detected, got %+v", res)
		}
	})
}

func TestAnalyze_InputErrors(t *testing.T) {
	ts := newTestServer(t, nil)
	cases := map[string]string{
		"missing body":       "",
		"malformed json":     `{"mode":`,
		"missing mode":       `{"text":"hi"}`,
		"unknown mode":       `{"mode":"batch","text":"hi"}`,
		"empty text":         `{"mode":"sync","text":"   "}`,
		"bad language":       `{"mode":"sync","text":"hi","language":"xx-yy"}`,
		"no async items":     `{"mode":"async","items":[]}`,
		"sync text too long": `{"mode":"sync","text":"` + strings.Repeat("a", model.MaxTextLengthSync+1) + `"}`,
	}
	for name, body := range cases {
		t.Run("should reject "+name, func(t *testing.T) {
			expectError(t, ts.do(http.MethodPost, "/v1/analyze", body), http.StatusBadRequest, apiv1.CodeInput)
		})
	}
}

func TestJobs_Lifecycle(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(http.MethodPost, "/v1/analyze",
		`{"mode":"async","source_id":"crm","items":[{"text":"I love it"},{"text":"call 555-123-4567"},{"text":"awful","options":{"detail":"full"}}]}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("want 202, got %d, body=%s", rec.Code, rec.Body.String())
	}
	acc := decode[apiv1.JobAccepted](t, rec)
	if acc.Status != string(model.JobStatusSubmitted) || acc.EstimatedCompletion == nil {
		t.Fatalf("unexpected accept body %+v", acc)
	}
	if !acc.EstimatedCompletion.After(acc.CreatedAt) {
		t.Errorf("expected estimate after creation")
	}

	if err := ts.jobs.Process(context.Background(), acc.JobId.String()); err != nil {
		t.Fatalf("process: %v", err)
	}

	rec = ts.do(http.MethodGet, "/v1/jobs/"+acc.JobId.String(), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
	raw := rec.Body.String()
	if strings.Contains(raw, "fp:") || strings.Contains(raw, "555-123-4567") || strings.Contains(raw, "fingerprint") {
		t.Fatalf("status leaked fingerprint or input: %s", raw)
	}
	st := decode[apiv1.JobStatus](t, rec)
	if st.Status != apiv1.JobStatusStatusCOMPLETED || st.Progress != 100 || st.CompletedAt == nil {
		t.Errorf("unexpected status %+v", st)
	}
	if st.SourceId == nil || *st.SourceId != "crm" || st.Items == nil || len(*st.Items) != 3 {
		t.Fatalf("unexpected items/source %+v", st)
	}
	items := *st.Items
	if items[0].Scores != nil || items[2].Scores == nil {
		t.Errorf("expected scores only for full detail items")
	}
}

func TestJobs_Errors(t *testing.T) {
	ts := newTestServer(t, nil)

	t.Run("should reject a malformed id", func(t *testing.T) {
		expectError(t, ts.do(http.MethodGet, "/v1/jobs/not-a-uuid", ""), http.StatusBadRequest, apiv1.CodeInput)
	})
	t.Run("should 404 an unknown job", func(t *testing.T) {
		expectError(t, ts.do(http.MethodGet, "/v1/jobs/6f1c1c52-8a51-4e0b-9d0b-7cf3b1f2a0aa", ""), http.StatusNotFound, apiv1.CodeNotFound)
	})
	t.Run("should cancel a submitted job", func(t *testing.T) {
		acc := decode[apiv1.JobAccepted](t, ts.do(http.MethodPost, "/v1/analyze", `{"mode":"async","items":[{"text":"x"}]}`))
		rec := ts.do(http.MethodDelete, "/v1/jobs/"+acc.JobId.String(), "")
		if rec.Code != http.StatusOK {
			t.Fatalf("want 200, got %d", rec.Code)
		}
		st := decode[apiv1.JobStatus](t, rec)
		if st.Status != apiv1.JobStatusStatusFAILED || st.Error == nil || st.Error.Code != "CANCELLED" {
			t.Errorf("unexpected cancel result %+v", st)
		}
	})
}

func TestInvalidateCache(t *testing.T) {
	ts := newTestServer(t, nil)

	t.Run("should require the admin role", func(t *testing.T) {
		expectError(t, ts.do(http.MethodPost, "/v1/cache/invalidate", `{"text":"I love it"}`), http.StatusForbidden, apiv1.CodeForbidden)
	})

	t.Run("should drop the entry for admins", func(t *testing.T) {
		ts.role = auth.RoleAdmin
		_ = ts.do(http.MethodPost, "/v1/analyze", `{"mode":"sync","text":"I love it"}`)
		rec := ts.do(http.MethodPost, "/v1/cache/invalidate", `{"text":"I love it"}`)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("want 204, got %d, body=%s", rec.Code, rec.Body.String())
		}
		rec = ts.do(http.MethodPost, "/v1/analyze", `{"mode":"sync","text":"I love it"}`)
		if rec.Header().Get("X-Cache-Hit") != "false" {
			t.Errorf("expected a miss after invalidation")
		}
	})
}

func TestHealth(t *testing.T) {
	t.Run("should be ok with reachable components", func(t *testing.T) {
		rec := newTestServer(t, nil).do(http.MethodGet, "/health", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("want 200, got %d", rec.Code)
		}
		if h := decode[apiv1.Health](t, rec); h.Status != apiv1.HealthStatusOk || h.Version != "test" {
			t.Errorf("unexpected health %+v", h)
		}
	})

	t.Run("should be degraded with 503 when a component fails", func(t *testing.T) {
		down := pinger(func(context.Context) error {
			return errors.New("dial tcp db.internal:5432: password authentication failed for user aurastream")
		})
		rec := newTestServer(t, map[string]usecase.Pinger{"job_store": down}).do(http.MethodGet, "/health", "")
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("want 503, got %d", rec.Code)
		}
		if raw := rec.Body.String(); strings.Contains(raw, "db.internal") || strings.Contains(raw, "password") {
			t.Fatalf("health leaked the driver error: %s", raw)
		}
		h := decode[apiv1.Health](t, rec)
		js := h.Components["job_store"]
		if h.Status != apiv1.HealthStatusDegraded || js.Status != apiv1.ComponentStatusStatusError {
			t.Errorf("unexpected health %+v", h)
		}
		if js.Error == nil || *js.Error != "unavailable" {
			t.Errorf("expected a fixed component error, got %v", js.Error)
		}
	})
}
