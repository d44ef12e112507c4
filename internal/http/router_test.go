package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"call-outcome-service/internal/app"
	"call-outcome-service/internal/classifier"
	"call-outcome-service/internal/observability/metrics"
	"call-outcome-service/internal/schema"
	"call-outcome-service/internal/sentiment"
)

func newTestApp(ready bool) *app.Application {
	neutral := sentiment.Func(func(string) sentiment.Scores {
		return sentiment.Scores{Breakdown: map[string]float64{}}
	})
	a := &app.Application{
		Metrics:    metrics.NewMetrics(prometheus.NewRegistry()),
		Validator:  schema.MustNew(),
		Classifier: classifier.New(neutral),
	}
	a.SetReady(ready)
	return a
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Liveness(t *testing.T) {
	rec := do(t, NewRouter(newTestApp(false)), http.MethodGet, "/v1/liveness", "")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestRouter_Readiness(t *testing.T) {
	tests := []struct {
		ready bool
		want  int
	}{
		{false, http.StatusServiceUnavailable},
		{true, http.StatusOK},
	}

	for _, tt := range tests {
		rec := do(t, NewRouter(newTestApp(tt.ready)), http.MethodGet, "/v1/readiness", "")
		if rec.Code != tt.want {
			t.Errorf("ready=%v: expected %d, got %d", tt.ready, tt.want, rec.Code)
		}
	}
}

func TestRouter_Classify(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantLabel  classifier.Label
		wantReason classifier.Reason
		wantScore  int
	}{
		{
			name:       "completion",
			body:       `{"text":"Great, your appointment is booked for Tuesday.","durationSeconds":40}`,
			wantLabel:  classifier.LabelSuccess,
			wantReason: classifier.ReasonCompletion,
			wantScore:  3,
		},
		{
			name:       "null text with short duration",
			body:       `{"text":null,"durationSeconds":10}`,
			wantLabel:  classifier.LabelFailure,
			wantReason: classifier.ReasonFailure,
			wantScore:  -2,
		},
		{
			name:       "integral float duration",
			body:       `{"text":null,"durationSeconds":10.0}`,
			wantLabel:  classifier.LabelFailure,
			wantReason: classifier.ReasonFailure,
			wantScore:  -2,
		},
		{
			name:       "empty object",
			body:       `{}`,
			wantLabel:  classifier.LabelFailure,
			wantReason: classifier.ReasonFailure,
			wantScore:  0,
		},
	}

	h := NewRouter(newTestApp(true))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/v1/classify", tt.body)
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected JSON content type, got %q", ct)
			}

			var got classifier.Result
			if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if got.Label != tt.wantLabel || got.Reason != tt.wantReason || got.Score != tt.wantScore {
				t.Errorf("got %s/%s/%d, want %s/%s/%d",
					got.Label, got.Reason, got.Score, tt.wantLabel, tt.wantReason, tt.wantScore)
			}
			if len(got.Trace) != 7 {
				t.Errorf("expected 7 trace steps, got %d", len(got.Trace))
			}
		})
	}
}

func TestRouter_Classify_ResponseKeys(t *testing.T) {
	rec := do(t, NewRouter(newTestApp(true)), http.MethodPost, "/v1/classify", `{"text":"bye"}`)

	var body map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	for _, key := range []string{"label", "reason", "explanation", "finalScore", "debug", "trace"} {
		if _, ok := body[key]; !ok {
			t.Errorf("missing response key %q", key)
		}
	}
}

func TestRouter_Classify_BadRequest(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not JSON", `{"text":`},
		{"wrong text type", `{"text":42}`},
		{"fractional duration", `{"text":"hi","durationSeconds":1.5}`},
		{"unknown field", `{"text":"hi","speaker":"agent"}`},
		{"duration out of range", `{"text":"hi","durationSeconds":1e300}`},
	}

	h := NewRouter(newTestApp(true))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/v1/classify", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
			var body errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.Error == "" {
				t.Errorf("expected JSON error body, got %q", rec.Body.String())
			}
			if strings.Contains(body.Error, "Go struct") {
				t.Errorf("expected decoder internals hidden, got %q", body.Error)
			}
		})
	}
}

func TestRouter_Classify_NotReady(t *testing.T) {
	rec := do(t, NewRouter(newTestApp(false)), http.MethodPost, "/v1/classify", `{"text":"hi"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

func TestRouter_Lexicon(t *testing.T) {
	rec := do(t, NewRouter(newTestApp(true)), http.MethodGet, "/v1/lexicon", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var got map[string][]string
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	for _, category := range []string{"completion", "partial_success", "failure", "misunderstanding", "goodbye"} {
		if len(got[category]) == 0 {
			t.Errorf("expected patterns for %q", category)
		}
	}
	if len(got["goodbye"]) != 4 {
		t.Errorf("expected 4 goodbye patterns, got %d", len(got["goodbye"]))
	}
}
