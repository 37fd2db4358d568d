package runner

import (
	"github.com/cloudwego/eino/schema"

	"github.com/deskmate-core-poc/server/internal/agent/model"
)

// Phase names the orchestration states a run moves through.
type Phase string

const (
	PhaseDrafting       Phase = "drafting"
	PhaseToolDispatch   Phase = "tool_dispatch"
	PhaseFinalizing     Phase = "finalizing"
	PhaseCitationRepair Phase = "citation_repair"
	PhaseDone           Phase = "done"
	PhaseFailed         Phase = "failed"
)

// RunState carries one run's conversation and counters. A fresh state is
// created per request; nothing in it is shared across requests.
type RunState struct {
	Phase         Phase
	History       []*schema.Message
	Round         int
	ToolCallIDSeq int
	Stats         model.RunStats
}
