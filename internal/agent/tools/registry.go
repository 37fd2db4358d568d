package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino/schema"

	"github.com/deskmate-core-poc/server/internal/agent/model"
)

// Tool names declared to the language model. Dispatch matches on exactly
// this closed set.
const (
	ToolSearch          = "search"
	ToolFetchPage       = "fetch_page"
	ToolGenerateDiagram = "generate_diagram"
)

// Registry owns the three tool adapters and routes invocation requests to
// them by name.
type Registry struct {
	searcher *Searcher
	fetcher  *Fetcher
}

func NewRegistry(cfg model.ToolsConfig) *Registry {
	return &Registry{
		searcher: NewSearcher(cfg),
		fetcher:  NewFetcher(cfg),
	}
}

// Infos declares the capability set advertised to the model.
func (r *Registry) Infos() []*schema.ToolInfo {
	return []*schema.ToolInfo{
		{
			Name: ToolSearch,
			Desc: "Search the web for current troubleshooting documentation, vendor support pages, and community fixes. Use before answering anything version- or product-specific.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {
					Type:     "string",
					Desc:     "Search keywords, e.g. \"Windows 11 printer spooler stuck\".",
					Required: true,
				},
				"top_k": {
					Type: "number",
					Desc: "Maximum number of results to return (default: 5, max: 10).",
				},
			}),
		},
		{
			Name: ToolFetchPage,
			Desc: "Fetch a page found via search and return its readable text and headings. Use it to quote exact wording for citations.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"url": {
					Type:     "string",
					Desc:     "Absolute http(s) URL of the page to read.",
					Required: true,
				},
			}),
		},
		{
			Name: ToolGenerateDiagram,
			Desc: "Render a left-to-right flow diagram as SVG from a short arrow-separated description, e.g. \"Open Settings -> Network -> Reset\".",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"spec": {
					Type:     "string",
					Desc:     "Flow description. Separate stages with ->, \"to\", or \"then\".",
					Required: true,
				},
			}),
		},
	}
}

// Dispatch executes one tool invocation and returns its JSON-encoded result.
// The capability set is closed; unknown names come back as an error for the
// caller to absorb.
func (r *Registry) Dispatch(ctx context.Context, name, args string) (string, error) {
	switch name {
	case ToolSearch:
		var in SearchInput
		if err := json.Unmarshal([]byte(args), &in); err != nil {
			return "", fmt.Errorf("%s arguments: %w", name, err)
		}
		return marshalResult(r.searcher.Search(ctx, &in))
	case ToolFetchPage:
		var in FetchInput
		if err := json.Unmarshal([]byte(args), &in); err != nil {
			return "", fmt.Errorf("%s arguments: %w", name, err)
		}
		return marshalResult(r.fetcher.Fetch(ctx, in.URL))
	case ToolGenerateDiagram:
		var in DiagramInput
		if err := json.Unmarshal([]byte(args), &in); err != nil {
			return "", fmt.Errorf("%s arguments: %w", name, err)
		}
		return marshalResult(GenerateDiagram(in.Spec))
	default:
		return "", fmt.Errorf("unknown tool %q", name)
	}
}

func marshalResult(v any) (string, error) {
	out, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode tool result: %w", err)
	}
	return string(out), nil
}
