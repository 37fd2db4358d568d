package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/deskmate-core-poc/server/internal/agent/model"
)

func TestRecorder_CountsOutcomes(t *testing.T) {
	rec := NewRecorder(model.TelemetryConfig{Salt: "test-salt"})
	rec.Record(Record{Outcome: OutcomeSuccess, Identity: "203.0.113.7", Duration: 120 * time.Millisecond})
	rec.Record(Record{Outcome: OutcomeSuccess, Identity: "203.0.113.7", Duration: 90 * time.Millisecond})
	rec.Record(Record{Outcome: OutcomeRateLimited, Identity: "203.0.113.7"})

	snap := rec.Snapshot()
	assert.Equal(t, int64(2), snap.Outcomes[string(OutcomeSuccess)])
	assert.Equal(t, int64(1), snap.Outcomes[string(OutcomeRateLimited)])
	assert.Zero(t, snap.Outcomes[string(OutcomeModelError)])
	assert.GreaterOrEqual(t, snap.UptimeSeconds, int64(0))
}

func TestRecorder_IdentityHash(t *testing.T) {
	rec := NewRecorder(model.TelemetryConfig{Salt: "test-salt"})
	first := rec.IdentityHash("203.0.113.7")

	assert.Regexp(t, "^[0-9a-f]{12}$", first)
	assert.Equal(t, first, rec.IdentityHash("203.0.113.7"), "same identity hashes the same")
	assert.NotEqual(t, first, rec.IdentityHash("203.0.113.8"))

	other := NewRecorder(model.TelemetryConfig{Salt: "other-salt"})
	assert.NotEqual(t, first, other.IdentityHash("203.0.113.7"), "salt must change the digest")
}
