package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/deskmate-core-poc/server/internal/agent/model"
	logx "github.com/deskmate-core-poc/server/pkg/logger"
)

// ===================================
// Fetch Page Tool
// ===================================

const (
	maxCleanTextLen = 40000
	maxHeadings     = 20
	maxBodyBytes    = 2 << 20 // 2MB of raw HTML
)

type FetchInput struct {
	URL string `json:"url"`
}

type FetchOutput struct {
	CleanText string   `json:"clean_text"`
	Headings  []string `json:"headings"`
}

type Fetcher struct {
	client *http.Client
}

func NewFetcher(cfg model.ToolsConfig) *Fetcher {
	return &Fetcher{client: &http.Client{Timeout: time.Duration(cfg.FetchTimeout) * time.Second}}
}

// Fetch downloads a page and reduces it to readable text plus its top-level
// headings. Any failure degrades to a placeholder body; this never returns
// an error.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) *FetchOutput {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fetchFailure(rawURL, err)
	}
	req.Header.Set("User-Agent", "deskmate-core/1.0")
	req.Header.Set("Accept", "text/html")

	resp, err := f.client.Do(req)
	if err != nil {
		return fetchFailure(rawURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fetchFailure(rawURL, fmt.Errorf("status %d", resp.StatusCode))
	}

	text, headings := extractReadable(io.LimitReader(resp.Body, maxBodyBytes))
	return &FetchOutput{CleanText: text, Headings: headings}
}

func fetchFailure(rawURL string, err error) *FetchOutput {
	logx.Warn().Str("component", "fetch_tool").Str("url", rawURL).Err(err).Msg("page fetch failed")
	return &FetchOutput{
		CleanText: fmt.Sprintf("Could not fetch %s: %v", rawURL, err),
		Headings:  []string{},
	}
}

// extractReadable walks the HTML token stream, skipping script and style
// subtrees, collecting h1..h3 headings and the visible text.
func extractReadable(r io.Reader) (string, []string) {
	tokenizer := html.NewTokenizer(r)

	var text strings.Builder
	headings := []string{}
	skipDepth := 0
	var headingBuf *strings.Builder

	flushHeading := func() {
		if headingBuf == nil {
			return
		}
		if h := collapseSpace(headingBuf.String()); h != "" && len(headings) < maxHeadings {
			headings = append(headings, h)
		}
		headingBuf = nil
	}

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			flushHeading()
			return clampText(collapseSpace(text.String())), headings
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			switch string(name) {
			case "script", "style", "noscript", "template":
				skipDepth++
			case "h1", "h2", "h3":
				if skipDepth == 0 {
					headingBuf = &strings.Builder{}
				}
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			switch string(name) {
			case "script", "style", "noscript", "template":
				if skipDepth > 0 {
					skipDepth--
				}
			case "h1", "h2", "h3":
				flushHeading()
			}
		case html.TextToken:
			if skipDepth > 0 {
				continue
			}
			chunk := string(tokenizer.Text())
			if headingBuf != nil {
				headingBuf.WriteString(chunk)
			}
			text.WriteString(chunk)
			text.WriteByte(' ')
		}
	}
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func clampText(s string) string {
	if len(s) <= maxCleanTextLen {
		return s
	}
	cut := s[:maxCleanTextLen-3]
	for len(cut) > 0 {
		r, size := utf8.DecodeLastRuneInString(cut)
		if r != utf8.RuneError || size != 1 {
			break
		}
		cut = cut[:len(cut)-1]
	}
	return cut + "..."
}
