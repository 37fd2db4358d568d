package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/deskmate-core-poc/server/internal/agent/model"
	logx "github.com/deskmate-core-poc/server/pkg/logger"
)

// ===================================
// Search Tool
// ===================================

const (
	DefaultTopK = 5
	maxTopK     = 10
)

type SearchInput struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

type SearchOutput struct {
	Results []SearchResult `json:"results"`
}

// braveResponse mirrors the fields we read from the provider payload.
type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

type Searcher struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewSearcher(cfg model.ToolsConfig) *Searcher {
	return &Searcher{
		apiKey:  cfg.SearchAPIKey,
		baseURL: cfg.SearchBaseURL,
		client:  &http.Client{Timeout: time.Duration(cfg.SearchTimeout) * time.Second},
	}
}

// Search queries the web search provider and filters out junk URLs. Missing
// credentials or upstream trouble degrade to a deterministic placeholder
// result set; this never returns an error.
func (s *Searcher) Search(ctx context.Context, in *SearchInput) *SearchOutput {
	topK := in.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	if topK > maxTopK {
		topK = maxTopK
	}

	if s.apiKey == "" {
		logx.Warn().Str("component", "search_tool").Msg("no search credentials, serving placeholder results")
		return placeholderResults(in.Query, topK)
	}

	results, err := s.callProvider(ctx, in.Query, topK)
	if err != nil {
		logx.Warn().Str("component", "search_tool").Err(err).Msg("search provider failed, serving placeholder results")
		return placeholderResults(in.Query, topK)
	}

	filtered := filterJunk(results, in.Query)
	if len(filtered) > topK {
		filtered = filtered[:topK]
	}
	return &SearchOutput{Results: filtered}
}

func (s *Searcher) callProvider(ctx context.Context, query string, topK int) ([]SearchResult, error) {
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return nil, fmt.Errorf("search base url: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("count", strconv.Itoa(topK))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search call: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search provider status %d", resp.StatusCode)
	}

	var decoded braveResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("search response decode: %w", err)
	}

	results := make([]SearchResult, 0, len(decoded.Web.Results))
	for _, r := range decoded.Web.Results {
		results = append(results, SearchResult{Title: r.Title, URL: r.URL, Snippet: r.Description})
	}
	return results, nil
}

var junkPathParts = []string{"/login", "/signin", "/signup", "/auth", "/account", "/admin"}

var docExtensions = []string{".pdf", ".doc", ".docx", ".ppt", ".pptx", ".xls", ".xlsx"}

// filterJunk drops login/admin pages and binary document links, unless the
// query itself names that kind of content.
func filterJunk(results []SearchResult, query string) []SearchResult {
	q := strings.ToLower(query)
	kept := make([]SearchResult, 0, len(results))
	for _, r := range results {
		if isJunkURL(r.URL, q) {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

func isJunkURL(raw, loweredQuery string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return true
	}
	path := strings.ToLower(u.Path)
	for _, part := range junkPathParts {
		if strings.Contains(path, part) && !strings.Contains(loweredQuery, strings.TrimPrefix(part, "/")) {
			return true
		}
	}
	for _, ext := range docExtensions {
		if strings.HasSuffix(path, ext) && !strings.Contains(loweredQuery, strings.TrimPrefix(ext, ".")) {
			return true
		}
	}
	return false
}

// placeholderResults stands in for the provider when it is unreachable or
// unconfigured. Three entries on three different registrable domains.
func placeholderResults(query string, topK int) *SearchOutput {
	results := []SearchResult{
		{
			Title:   "Windows help & learning",
			URL:     "https://support.microsoft.com/en-us/windows",
			Snippet: fmt.Sprintf("Official Microsoft troubleshooting index, relevant to %q.", query),
		},
		{
			Title:   "Apple Support",
			URL:     "https://support.apple.com/guide",
			Snippet: fmt.Sprintf("Apple product manuals and fixes, relevant to %q.", query),
		},
		{
			Title:   "Super User",
			URL:     "https://superuser.com/questions",
			Snippet: fmt.Sprintf("Community answers for power-user problems, relevant to %q.", query),
		},
	}
	if topK < len(results) {
		results = results[:topK]
	}
	return &SearchOutput{Results: results}
}
