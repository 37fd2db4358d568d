package prompts

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/deskmate-core-poc/server/internal/agent/contract"
	"github.com/deskmate-core-poc/server/internal/agent/model"
	"github.com/deskmate-core-poc/server/internal/agent/tools"
)

//go:embed template/system_prompt.txt
var systemPrompt string

//go:embed template/citation_repair_prompt.txt
var citationRepairPrompt string

// RenderSystem renders the agent system prompt. Known tokens are replaced
// directly; the template body carries literal JSON braces, so it never goes
// through a template engine.
func RenderSystem(ctx context.Context) (string, error) {
	content := strings.NewReplacer(
		"{search_tool}", tools.ToolSearch,
		"{fetch_tool}", tools.ToolFetchPage,
		"{diagram_tool}", tools.ToolGenerateDiagram,
		"{os_list}", strings.Join(model.SupportedOS, ", "),
	).Replace(systemPrompt)

	return wrapMessage(ctx, schema.SystemMessage(content))
}

// RenderCitationRepair renders the follow-up request for replacement
// citations, embedding the current citation list as JSON context.
func RenderCitationRepair(ctx context.Context, citations []contract.Citation) (string, error) {
	current, err := json.Marshal(citations)
	if err != nil {
		return "", fmt.Errorf("citation repair render: %w", err)
	}
	content := strings.NewReplacer(
		"{current_citations}", string(current),
	).Replace(citationRepairPrompt)

	return wrapMessage(ctx, schema.UserMessage(content))
}

// UserMessage formats the caller's question as the opening user turn.
func UserMessage(q model.Question) string {
	return fmt.Sprintf("Issue: %s\nOperating system: %s\nDevice: %s", q.Issue, q.OS, q.Device)
}

// wrapMessage routes a rendered message through the Eino prompt component so
// prompt callbacks fire.
func wrapMessage(ctx context.Context, msg *schema.Message) (string, error) {
	tpl := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("messages", false),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"messages": []*schema.Message{msg},
	})
	if err != nil {
		return "", fmt.Errorf("prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("prompt render: empty result")
	}
	return msgs[0].Content, nil
}
