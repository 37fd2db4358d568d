package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"golang.org/x/sync/errgroup"

	"github.com/deskmate-core-poc/server/internal/agent/contract"
	"github.com/deskmate-core-poc/server/internal/agent/model"
	"github.com/deskmate-core-poc/server/internal/agent/parsers"
	"github.com/deskmate-core-poc/server/internal/agent/prompts"
	"github.com/deskmate-core-poc/server/internal/agent/tools"
	errx "github.com/deskmate-core-poc/server/internal/core/error"
	logx "github.com/deskmate-core-poc/server/pkg/logger"
)

const (
	DefaultMaxToolRounds   = 3
	DefaultToolConcurrency = 4
)

// Terminal failure classes. Wrapped into the errors Run returns, so callers
// can classify outcomes with errors.Is.
var (
	ErrModel           = errors.New("language model request failed")
	ErrBudgetExhausted = errors.New("tool-call budget exhausted")
	ErrExtraction      = errors.New("no valid structured response")
	ErrSchemaMismatch  = errors.New("schema mismatch")
)

// Runner drives the multi-round conversation that turns a support question
// into a validated Answer.
type Runner struct {
	chatModel   einomodel.ToolCallingChatModel
	repairModel einomodel.ToolCallingChatModel
	registry    *tools.Registry
	validator   *contract.Validator
	cfg         model.AgentModelConfig
	pricing     model.Pricing
}

// New wires the runner. The tool capability set is bound to the drafting
// model once; the citation repair round talks to the unbound model.
func New(base einomodel.ToolCallingChatModel, registry *tools.Registry, validator *contract.Validator, cfg model.AgentModelConfig) (*Runner, error) {
	if cfg.MaxToolRounds <= 0 {
		cfg.MaxToolRounds = DefaultMaxToolRounds
	}
	if cfg.ToolConcurrency <= 0 {
		cfg.ToolConcurrency = DefaultToolConcurrency
	}

	armed, err := base.WithTools(registry.Infos())
	if err != nil {
		return nil, fmt.Errorf("bind tools: %w", err)
	}

	return &Runner{
		chatModel:   armed,
		repairModel: base,
		registry:    registry,
		validator:   validator,
		cfg:         cfg,
		pricing:     model.ResolvePricing(cfg.Model),
	}, nil
}

// Run executes the orchestration state machine for one question and returns
// the validated answer plus usage totals for the run.
func (r *Runner) Run(ctx context.Context, q model.Question) (*contract.Answer, model.RunStats, error) {
	state := &RunState{Phase: PhaseDrafting}

	systemPrompt, err := prompts.RenderSystem(ctx)
	if err != nil {
		state.Phase = PhaseFailed
		return nil, state.Stats, errx.New(err, http.StatusInternalServerError, errx.SystemErrorMessage)
	}
	state.History = []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(prompts.UserMessage(q)),
	}

	var final *schema.Message
	for {
		logx.Debug().Str("phase", string(state.Phase)).Int("round", state.Round).Msg("assistant drafting")
		out, err := r.chatModel.Generate(ctx, state.History)
		if err != nil {
			state.Phase = PhaseFailed
			return nil, state.Stats, errx.New(fmt.Errorf("%w: %v", ErrModel, err), http.StatusBadGateway, errx.ModelErrorMessage)
		}
		r.recordUsage(out, state)
		backfillToolCallIDs(out, state)
		state.History = append(state.History, out)

		if len(out.ToolCalls) == 0 {
			final = out
			break
		}

		state.Phase = PhaseToolDispatch
		logx.Debug().Str("phase", string(state.Phase)).Int("tool_count", len(out.ToolCalls)).Msg("dispatching tools")
		state.History = append(state.History, r.dispatchToolCalls(ctx, out.ToolCalls)...)
		state.Round++
		state.Stats.Rounds = state.Round
		state.Stats.ToolCalls += len(out.ToolCalls)

		if state.Round >= r.cfg.MaxToolRounds {
			state.Phase = PhaseFailed
			return nil, state.Stats, errx.New(fmt.Errorf("%w after %d rounds", ErrBudgetExhausted, state.Round), http.StatusBadGateway, errx.ToolBudgetMessage)
		}
		state.Phase = PhaseDrafting
	}

	state.Phase = PhaseFinalizing
	answer, err := r.finalize(final.Content)
	if err != nil {
		state.Phase = PhaseFailed
		return nil, state.Stats, err
	}

	if !contract.HasDistinctSources(answer.Citations) {
		state.Phase = PhaseCitationRepair
		r.repairCitations(ctx, state, answer)
	}

	state.Phase = PhaseDone
	logx.Debug().Str("phase", string(state.Phase)).Int("rounds", state.Round).Int("tool_calls", state.Stats.ToolCalls).Msg("assistant answer ready")
	return answer, state.Stats, nil
}

// finalize turns the model's closing message into a validated Answer.
func (r *Runner) finalize(content string) (*contract.Answer, error) {
	payload, err := parsers.ExtractPayload(content)
	if err != nil {
		return nil, errx.New(fmt.Errorf("%w: %v", ErrExtraction, err), http.StatusBadGateway, errx.ExtractionErrorMessage)
	}
	var answer contract.Answer
	if err := parsers.Decode(payload, &answer); err != nil {
		return nil, errx.New(fmt.Errorf("%w: %v", ErrExtraction, err), http.StatusBadGateway, errx.ExtractionErrorMessage)
	}
	contract.Clamp(&answer)
	if err := r.validator.Validate(&answer); err != nil {
		logx.Warn().Err(err).Msg("assistant answer failed validation")
		return nil, errx.New(fmt.Errorf("%w: %v", ErrSchemaMismatch, err), http.StatusBadGateway, errx.SchemaMismatchMessage)
	}
	return &answer, nil
}

// repairCitations asks the model for replacement citations from different
// domains and splices them in. Best-effort: any failure along the way keeps
// the original, already-valid citation list.
func (r *Runner) repairCitations(ctx context.Context, state *RunState, answer *contract.Answer) {
	request, err := prompts.RenderCitationRepair(ctx, answer.Citations)
	if err != nil {
		logx.Warn().Err(err).Msg("citation repair render failed, keeping original citations")
		return
	}

	history := append(state.History, schema.UserMessage(request))
	out, err := r.repairModel.Generate(ctx, history)
	if err != nil {
		logx.Warn().Err(err).Msg("citation repair request failed, keeping original citations")
		return
	}
	r.recordUsage(out, state)

	payload, err := parsers.ExtractArray(out.Content)
	if err != nil {
		logx.Warn().Err(err).Msg("citation repair reply had no array, keeping original citations")
		return
	}
	var fresh []contract.Citation
	if err := parsers.Decode(payload, &fresh); err != nil || len(fresh) == 0 {
		logx.Warn().Msg("citation repair reply not decodable, keeping original citations")
		return
	}

	// First 2 originals, then new ones, capped at the contract maximum. The
	// splice is not re-checked for diversity.
	spliced := make([]contract.Citation, 0, contract.MaxCitations)
	spliced = append(spliced, answer.Citations[:2]...)
	for _, c := range fresh {
		if len(spliced) == contract.MaxCitations {
			break
		}
		spliced = append(spliced, c)
	}

	candidate := *answer
	candidate.Citations = spliced
	contract.Clamp(&candidate)
	if err := r.validator.Validate(&candidate); err != nil {
		logx.Warn().Err(err).Msg("spliced citations failed validation, keeping original citations")
		return
	}
	*answer = candidate
}

// dispatchToolCalls executes one round's tool invocations concurrently,
// bounded by the configured limit. Results come back in the original call
// order, each carrying its originating tool_call_id. A failing tool degrades
// to a structured failure marker, never an error.
func (r *Runner) dispatchToolCalls(ctx context.Context, calls []schema.ToolCall) []*schema.Message {
	results := make([]*schema.Message, len(calls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.ToolConcurrency)
	for i, call := range calls {
		g.Go(func() error {
			out, err := r.registry.Dispatch(gctx, call.Function.Name, call.Function.Arguments)
			if err != nil {
				logx.Warn().Str("tool", call.Function.Name).Err(err).Msg("tool call failed")
				out = toolFailureMarker(call.Function.Name, err)
			}
			results[i] = &schema.Message{
				Role:       schema.Tool,
				Content:    out,
				ToolCallID: call.ID,
			}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func toolFailureMarker(name string, err error) string {
	marker, _ := json.Marshal(map[string]string{
		"error":  "tool_failed",
		"tool":   name,
		"detail": err.Error(),
	})
	return string(marker)
}

// Some providers omit tool_call IDs. Results must carry the originating id
// back, so synthesize one when it is missing.
func backfillToolCallIDs(out *schema.Message, state *RunState) {
	for i := range out.ToolCalls {
		if strings.TrimSpace(out.ToolCalls[i].ID) == "" {
			state.ToolCallIDSeq++
			out.ToolCalls[i].ID = fmt.Sprintf("call_%d", state.ToolCallIDSeq)
		}
	}
}

func (r *Runner) recordUsage(out *schema.Message, state *RunState) {
	if out == nil || out.ResponseMeta == nil || out.ResponseMeta.Usage == nil {
		return
	}
	usage := out.ResponseMeta.Usage
	state.Stats.AddUsage(usage, r.pricing)
	logx.Debug().
		Str("model", r.cfg.Model).
		Int("prompt_tokens", usage.PromptTokens).
		Int("completion_tokens", usage.CompletionTokens).
		Int("total_tokens", usage.TotalTokens).
		Float64("run_cost_usd", state.Stats.CostUSD).
		Msg("LLM usage")
}
