package telemetry

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/deskmate-core-poc/server/internal/agent/model"
	logx "github.com/deskmate-core-poc/server/pkg/logger"
)

const identityHashLen = 12

// Outcome classifies how a request terminated. Every request produces
// exactly one record with one of these values.
type Outcome string

const (
	OutcomeSuccess          Outcome = "success"
	OutcomeCacheHit         Outcome = "cache_hit"
	OutcomeRateLimited      Outcome = "rate_limited"
	OutcomeInputInvalid     Outcome = "input_invalid"
	OutcomeBudgetExhausted  Outcome = "budget_exhausted"
	OutcomeExtractionFailed Outcome = "extraction_failed"
	OutcomeSchemaMismatch   Outcome = "schema_mismatch"
	OutcomeModelError       Outcome = "model_error"
)

// Record is one terminal request event. Identity is the raw caller
// identity; only its salted hash ever leaves the recorder.
type Record struct {
	Outcome  Outcome
	Identity string
	Duration time.Duration
	Stats    model.RunStats
}

// Snapshot is the counter view served by the stats endpoint.
type Snapshot struct {
	UptimeSeconds int64            `json:"uptime_seconds"`
	Outcomes      map[string]int64 `json:"outcomes"`
}

// Recorder emits one structured log event per terminal outcome and keeps
// in-memory outcome counters.
type Recorder struct {
	salt    string
	started time.Time

	mu     sync.Mutex
	counts map[Outcome]int64
}

func NewRecorder(cfg model.TelemetryConfig) *Recorder {
	return &Recorder{
		salt:    cfg.Salt,
		started: time.Now(),
		counts:  make(map[Outcome]int64),
	}
}

// IdentityHash returns a short salted digest of a request identity.
func (r *Recorder) IdentityHash(identity string) string {
	sum := sha256.Sum256([]byte(r.salt + identity))
	return hex.EncodeToString(sum[:])[:identityHashLen]
}

// Record counts the outcome and logs it. Raw issue text and the unhashed
// identity stay out of the event.
func (r *Recorder) Record(rec Record) {
	r.mu.Lock()
	r.counts[rec.Outcome]++
	r.mu.Unlock()

	evt := logx.Info().
		Str("outcome", string(rec.Outcome)).
		Str("identity_hash", r.IdentityHash(rec.Identity)).
		Dur("duration", rec.Duration)
	if rec.Outcome == OutcomeSuccess {
		evt = evt.
			Int("rounds", rec.Stats.Rounds).
			Int("tool_calls", rec.Stats.ToolCalls).
			Int("prompt_tokens", rec.Stats.PromptTokens).
			Int("completion_tokens", rec.Stats.CompletionTokens).
			Float64("cost_usd", rec.Stats.CostUSD)
	}
	evt.Msg("request outcome")
}

func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int64, len(r.counts))
	for k, v := range r.counts {
		out[string(k)] = v
	}
	return Snapshot{
		UptimeSeconds: int64(time.Since(r.started).Seconds()),
		Outcomes:      out,
	}
}
