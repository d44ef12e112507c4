package http

import (
	"encoding/json"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"call-outcome-service/internal/app"
	"call-outcome-service/internal/classifier"
	"call-outcome-service/internal/schema"
)

// maxRequestBytes caps a classify request body.
const maxRequestBytes = 1 << 20

// classifyRequest is the POST /v1/classify body. The schema admits integral
// numbers such as 40.0, so the duration is decoded as a float.
type classifyRequest struct {
	Text            *string  `json:"text"`
	DurationSeconds *float64 `json:"durationSeconds"`
}

// duration truncates the requested duration to whole seconds.
func (req classifyRequest) duration() (*int, bool) {
	if req.DurationSeconds == nil {
		return nil, true
	}
	f := *req.DurationSeconds
	if math.IsNaN(f) || math.Abs(f) > math.MaxInt32 {
		return nil, false
	}
	d := int(f)
	return &d, true
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewRouter constructs the HTTP router for the service.
func NewRouter(application *app.Application) http.Handler {
	r := chi.NewRouter()

	// Basic middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(hlog.NewHandler(log.Logger))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("requestId", middleware.GetReqID(r.Context())).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("HTTP request")
	}))

	// Health endpoints
	r.Get("/v1/liveness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/v1/readiness", func(w http.ResponseWriter, _ *http.Request) {
		if !application.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	// API routes
	r.Route("/v1", func(r chi.Router) {
		r.Post("/classify", classifyHandler(application))
		r.Get("/lexicon", lexiconHandler(application))
	})

	return r
}

func classifyHandler(application *app.Application) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !application.Ready() || application.Classifier == nil {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "sentiment lexicon not provisioned"})
			return
		}

		raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "request body too large or unreadable"})
			return
		}
		if err := application.Validator.Validate(schema.KindClassifyRequest, raw); err != nil {
			hlog.FromRequest(r).Debug().Err(err).Msg("Classify request rejected")
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}

		var req classifyRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			hlog.FromRequest(r).Debug().Err(err).Msg("Classify request undecodable")
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}
		duration, ok := req.duration()
		if !ok {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "durationSeconds out of range"})
			return
		}
		var text string
		if req.Text != nil {
			text = *req.Text
		}

		start := time.Now()
		res := application.Classifier.Classify(text, duration)
		application.Metrics.RecordClassification(
			string(res.Label), string(res.Reason), res.Score, res.Debug.Sentiment,
			res.Debug.MisunderstandCount >= classifier.MisunderstandThreshold,
			res.Debug.DurationPenaltyApplied == 1,
			time.Since(start).Seconds(),
		)

		writeJSON(w, http.StatusOK, res)
	}
}

func lexiconHandler(application *app.Application) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if application.Classifier == nil {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "classifier not started"})
			return
		}
		out := make(map[string][]string)
		for _, set := range application.Classifier.Lexicon().Sets() {
			out[string(set.Category())] = set.Patterns()
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}
