package tools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_DispatchDiagram(t *testing.T) {
	r := NewRegistry(testToolsConfig())

	out, err := r.Dispatch(context.Background(), ToolGenerateDiagram, `{"spec": "A -> B"}`)
	require.NoError(t, err)

	var decoded DiagramOutput
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.True(t, strings.HasPrefix(decoded.SVG, "<svg"))
}

func TestRegistry_DispatchSearchWithoutKey(t *testing.T) {
	r := NewRegistry(testToolsConfig())

	out, err := r.Dispatch(context.Background(), ToolSearch, `{"query": "screen flicker"}`)
	require.NoError(t, err)

	var decoded SearchOutput
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Len(t, decoded.Results, 3)
}

func TestRegistry_UnknownTool(t *testing.T) {
	r := NewRegistry(testToolsConfig())

	_, err := r.Dispatch(context.Background(), "reboot_user", `{}`)
	assert.ErrorContains(t, err, "unknown tool")
}

func TestRegistry_MalformedArguments(t *testing.T) {
	r := NewRegistry(testToolsConfig())

	_, err := r.Dispatch(context.Background(), ToolSearch, `{"query": `)
	assert.Error(t, err)
}

func TestRegistry_InfosMatchDispatchNames(t *testing.T) {
	r := NewRegistry(testToolsConfig())

	names := make([]string, 0, 3)
	for _, info := range r.Infos() {
		names = append(names, info.Name)
	}
	assert.ElementsMatch(t, []string{ToolSearch, ToolFetchPage, ToolGenerateDiagram}, names)
}
