package prompts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskmate-core-poc/server/internal/agent/contract"
	"github.com/deskmate-core-poc/server/internal/agent/model"
	"github.com/deskmate-core-poc/server/internal/agent/tools"
)

func TestRenderSystem(t *testing.T) {
	got, err := RenderSystem(context.Background())
	require.NoError(t, err)

	for _, name := range []string{tools.ToolSearch, tools.ToolFetchPage, tools.ToolGenerateDiagram} {
		assert.Contains(t, got, name)
	}
	for _, label := range model.SupportedOS {
		assert.Contains(t, got, label)
	}
	assert.NotContains(t, got, "{search_tool}")
	assert.NotContains(t, got, "{fetch_tool}")
	assert.NotContains(t, got, "{diagram_tool}")
	assert.NotContains(t, got, "{os_list}")
}

func TestRenderCitationRepair(t *testing.T) {
	got, err := RenderCitationRepair(context.Background(), []contract.Citation{
		{URL: "https://support.example.com/a", Title: "A"},
		{URL: "https://docs.example.com/b", Title: "B"},
	})
	require.NoError(t, err)

	assert.Contains(t, got, "https://support.example.com/a")
	assert.Contains(t, got, "https://docs.example.com/b")
	assert.Contains(t, got, "JSON array")
	assert.NotContains(t, got, "{current_citations}")
}

func TestUserMessage(t *testing.T) {
	got := UserMessage(model.Question{Issue: "No sound after update", OS: "Linux", Device: "Laptop"})
	assert.Equal(t, "Issue: No sound after update\nOperating system: Linux\nDevice: Laptop", got)
}
