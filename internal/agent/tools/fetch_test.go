package tools

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveHTML(t *testing.T, page string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(page))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch_ExtractsTextAndHeadings(t *testing.T) {
	srv := serveHTML(t, `<!DOCTYPE html><html><head><title>Guide</title>
<script>var secret = 1;</script><style>body{color:red}</style></head>
<body><h1>Reset the adapter</h1><p>First, open settings.</p>
<h2>Driver check</h2><p>Then update the driver.</p>
<h4>Too deep</h4></body></html>`)

	out := NewFetcher(testToolsConfig()).Fetch(context.Background(), srv.URL)

	assert.Equal(t, []string{"Reset the adapter", "Driver check"}, out.Headings)
	assert.Contains(t, out.CleanText, "First, open settings.")
	assert.Contains(t, out.CleanText, "Then update the driver.")
	assert.NotContains(t, out.CleanText, "var secret")
	assert.NotContains(t, out.CleanText, "color:red")
}

func TestFetch_HeadingCountCapped(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&b, "<h2>Heading %d</h2>", i)
	}
	b.WriteString("</body></html>")
	srv := serveHTML(t, b.String())

	out := NewFetcher(testToolsConfig()).Fetch(context.Background(), srv.URL)

	require.Len(t, out.Headings, maxHeadings)
	assert.Equal(t, "Heading 0", out.Headings[0])
	assert.Equal(t, "Heading 19", out.Headings[maxHeadings-1])
}

func TestFetch_UnreachableHostReturnsPlaceholder(t *testing.T) {
	out := NewFetcher(testToolsConfig()).Fetch(context.Background(), "http://127.0.0.1:1/missing")

	assert.Contains(t, out.CleanText, "Could not fetch")
	assert.Empty(t, out.Headings)
}

func TestFetch_Non200ReturnsPlaceholder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	out := NewFetcher(testToolsConfig()).Fetch(context.Background(), srv.URL)

	assert.Contains(t, out.CleanText, "status 404")
	assert.Empty(t, out.Headings)
}

func TestClampText(t *testing.T) {
	long := strings.Repeat("a", maxCleanTextLen+100)

	got := clampText(long)

	assert.Len(t, got, maxCleanTextLen)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, long[:100], got[:100])
}
