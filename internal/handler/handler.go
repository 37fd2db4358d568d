package handler

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/deskmate-core-poc/server/internal/agent/contract"
	"github.com/deskmate-core-poc/server/internal/agent/model"
	"github.com/deskmate-core-poc/server/internal/agent/runner"
	"github.com/deskmate-core-poc/server/internal/cache"
	errx "github.com/deskmate-core-poc/server/internal/core/error"
	"github.com/deskmate-core-poc/server/internal/ratelimit"
	"github.com/deskmate-core-poc/server/internal/telemetry"
	logx "github.com/deskmate-core-poc/server/pkg/logger"
)

// maxBodyBytes caps the inbound payload before JSON decoding.
const maxBodyBytes = 64 << 10

// Orchestrator produces a validated answer for one support question.
type Orchestrator interface {
	Run(ctx context.Context, q model.Question) (*contract.Answer, model.RunStats, error)
}

// AskRequest is the inbound payload for POST /v1/answers.
type AskRequest struct {
	Issue  string `json:"issue"`
	OS     string `json:"os"`
	Device string `json:"device"`
}

type errorDetail struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Fields  []string `json:"fields,omitempty"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type rateLimitedBody struct {
	Error             errorDetail `json:"error"`
	RetryAfterSeconds int64       `json:"retry_after_seconds"`
}

type statsBody struct {
	telemetry.Snapshot
	Cache cache.Stats `json:"cache"`
}

// Handler wires admission control, the response cache, and the orchestrator
// behind the HTTP surface.
type Handler struct {
	limiter  *ratelimit.Limiter
	cache    *cache.Cache
	runner   Orchestrator
	recorder *telemetry.Recorder
}

func New(limiter *ratelimit.Limiter, store *cache.Cache, orch Orchestrator, rec *telemetry.Recorder) *Handler {
	return &Handler{
		limiter:  limiter,
		cache:    store,
		runner:   orch,
		recorder: rec,
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(AccessLog)

	r.Post("/v1/answers", h.handleAnswer)
	r.Get("/v1/stats", h.handleStats)
	r.Get("/healthz", h.handleHealth)
	return r
}

// handleAnswer runs the admission -> cache -> orchestrator pipeline. A denied
// or invalid request never reaches the orchestrator, and every exit records
// exactly one telemetry outcome.
func (h *Handler) handleAnswer(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	identity := callerIdentity(r)

	record := func(outcome telemetry.Outcome, stats model.RunStats) {
		h.recorder.Record(telemetry.Record{
			Outcome:  outcome,
			Identity: identity,
			Duration: time.Since(start),
			Stats:    stats,
		})
	}

	q, fields, err := decodeAskRequest(w, r)
	if err != nil || len(fields) > 0 {
		record(telemetry.OutcomeInputInvalid, model.RunStats{})
		writeJSON(w, http.StatusBadRequest, errorBody{Error: errorDetail{
			Code:    string(telemetry.OutcomeInputInvalid),
			Message: errx.InvalidInputMessage,
			Fields:  fields,
		}})
		return
	}

	if !h.limiter.Consume(identity) {
		record(telemetry.OutcomeRateLimited, model.RunStats{})
		h.writeRateLimited(w, identity)
		return
	}
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(int(h.limiter.Remaining(identity))))

	key, err := cache.Fingerprint(q)
	if err != nil {
		// run uncached rather than fail the request
		logx.Warn().Err(err).Msg("question fingerprint failed")
		key = ""
	}
	if key != "" {
		if cached, ok := h.cache.Get(key); ok {
			record(telemetry.OutcomeCacheHit, model.RunStats{})
			w.Header().Set("X-Cache", "hit")
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}
	w.Header().Set("X-Cache", "miss")

	answer, stats, err := h.runner.Run(r.Context(), q)
	if err != nil {
		outcome := outcomeForError(err)
		record(outcome, stats)
		writeRunError(w, outcome, err)
		return
	}

	if key != "" {
		h.cache.Set(key, answer)
	}
	record(telemetry.OutcomeSuccess, stats)
	writeJSON(w, http.StatusOK, answer)
}

func (h *Handler) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statsBody{
		Snapshot: h.recorder.Snapshot(),
		Cache:    h.cache.Stats(),
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeRateLimited(w http.ResponseWriter, identity string) {
	retry := int64(math.Ceil(h.limiter.RetryAfter(identity).Seconds()))
	if retry < 1 {
		retry = 1
	}
	w.Header().Set("Retry-After", strconv.FormatInt(retry, 10))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(int(h.limiter.Remaining(identity))))
	writeJSON(w, http.StatusTooManyRequests, rateLimitedBody{
		Error: errorDetail{
			Code:    string(telemetry.OutcomeRateLimited),
			Message: errx.RateLimitedMessage,
		},
		RetryAfterSeconds: retry,
	})
}

// decodeAskRequest enforces the body cap and strict field set, then reports
// which normalized fields fail validation.
func decodeAskRequest(w http.ResponseWriter, r *http.Request) (model.Question, []string, error) {
	var req AskRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return model.Question{}, nil, err
	}

	q := model.Question{Issue: req.Issue, OS: req.OS, Device: req.Device}.Normalize()

	var fields []string
	if q.Issue == "" {
		fields = append(fields, "issue")
	}
	if !model.IsSupportedOS(q.OS) {
		fields = append(fields, "os")
	}
	if q.Device == "" {
		fields = append(fields, "device")
	}
	return q, fields, nil
}

// writeRunError turns an orchestrator failure into a generic structured body.
// Internal error text never reaches the caller.
func writeRunError(w http.ResponseWriter, outcome telemetry.Outcome, err error) {
	status := http.StatusInternalServerError
	message := errx.SystemErrorMessage
	var appErr *errx.AppError
	if errors.As(err, &appErr) {
		status = appErr.Status
		message = appErr.Message
	}
	writeJSON(w, status, errorBody{Error: errorDetail{
		Code:    string(outcome),
		Message: message,
	}})
}

func outcomeForError(err error) telemetry.Outcome {
	switch {
	case errors.Is(err, runner.ErrBudgetExhausted):
		return telemetry.OutcomeBudgetExhausted
	case errors.Is(err, runner.ErrExtraction):
		return telemetry.OutcomeExtractionFailed
	case errors.Is(err, runner.ErrSchemaMismatch):
		return telemetry.OutcomeSchemaMismatch
	default:
		return telemetry.OutcomeModelError
	}
}

// callerIdentity resolves the rate-limit key for a request. Proxied callers
// are identified by the first X-Forwarded-For hop, direct callers by their
// remote host.
func callerIdentity(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if first := strings.TrimSpace(strings.Split(xff, ",")[0]); first != "" {
			return first
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "anonymous"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logx.Error().Err(err).Msg("response encode failed")
	}
}
