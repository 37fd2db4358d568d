package contract

import (
	"fmt"
	"net/url"
	"strings"
)

// Field bounds for the structured answer. Clamp truncates to these limits;
// the embedded schema rejects anything still out of bounds afterwards.
const (
	MaxTitleLen         = 200
	MaxSummaryLen       = 1000
	MaxPrereqLen        = 300
	MaxStepTitleLen     = 150
	MaxStepDetailLen    = 800
	MaxShellLen         = 200
	MaxConditionLen     = 200
	MaxOutcomeLen       = 300
	MaxCaptionLen       = 200
	MaxSVGLen           = 10000
	MaxCitationTitleLen = 200
	MaxQuoteLen         = 180
	MaxWarningLen       = 300

	MinCitations = 2
	MaxCitations = 5

	// SVGOpenTag is the opening markup every diagram payload must start with.
	SVGOpenTag = "<svg"
)

// Answer is the structured output contract of the agent. Every Answer handed
// out by the runner has passed clamping and schema validation.
type Answer struct {
	AnswerTitle         string         `json:"answer_title"`
	OneParagraphSummary string         `json:"one_paragraph_summary"`
	Prereqs             []string       `json:"prereqs,omitempty"`
	Steps               []Step         `json:"steps"`
	DecisionTree        []DecisionNode `json:"decision_tree,omitempty"`
	Diagrams            []Diagram      `json:"diagrams,omitempty"`
	Citations           []Citation     `json:"citations"`
	Warnings            []string       `json:"warnings,omitempty"`
}

// Step is one ordered instruction of the answer.
type Step struct {
	Title      string   `json:"title"`
	Detail     string   `json:"detail"`
	OS         []string `json:"os"`
	EstMinutes *float64 `json:"est_minutes,omitempty"`
	Shell      []string `json:"shell,omitempty"`
}

// DecisionNode is one if/then branch of the troubleshooting decision tree.
type DecisionNode struct {
	If       string `json:"if"`
	Then     string `json:"then"`
	LinkStep *int   `json:"link_step,omitempty"`
}

// Diagram is a rendered SVG with a caption.
type Diagram struct {
	Caption string `json:"caption"`
	SVG     string `json:"svg"`
}

// Citation is a source reference backing the answer.
type Citation struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Quote string `json:"quote,omitempty"`
}

// SchemaError reports an answer-contract violation and the offending path.
// Its detail is for logs only and is never sent to the caller.
type SchemaError struct {
	Path   string
	Detail string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("answer schema violation at %s: %s", e.Path, e.Detail)
}

// Clamp truncates every over-length string field to its contractual bound.
// It runs before validation so oversized content alone never causes rejection,
// and it never fails. Element counts are left for validation to judge.
func Clamp(a *Answer) {
	if a == nil {
		return
	}
	a.AnswerTitle = truncate(a.AnswerTitle, MaxTitleLen)
	a.OneParagraphSummary = truncate(a.OneParagraphSummary, MaxSummaryLen)
	for i := range a.Prereqs {
		a.Prereqs[i] = truncate(a.Prereqs[i], MaxPrereqLen)
	}
	for i := range a.Steps {
		s := &a.Steps[i]
		s.Title = truncate(s.Title, MaxStepTitleLen)
		s.Detail = truncate(s.Detail, MaxStepDetailLen)
		for j := range s.Shell {
			s.Shell[j] = truncate(s.Shell[j], MaxShellLen)
		}
	}
	for i := range a.DecisionTree {
		n := &a.DecisionTree[i]
		n.If = truncate(n.If, MaxConditionLen)
		n.Then = truncate(n.Then, MaxOutcomeLen)
	}
	for i := range a.Diagrams {
		d := &a.Diagrams[i]
		d.Caption = truncate(d.Caption, MaxCaptionLen)
		d.SVG = truncate(d.SVG, MaxSVGLen)
	}
	for i := range a.Citations {
		c := &a.Citations[i]
		c.Title = truncate(c.Title, MaxCitationTitleLen)
		c.Quote = truncate(c.Quote, MaxQuoteLen)
	}
	for i := range a.Warnings {
		a.Warnings[i] = truncate(a.Warnings[i], MaxWarningLen)
	}
}

// HasDistinctSources reports whether the citations span at least two distinct
// registrable domains. Fewer than two citations can never be diverse, and an
// unparseable URL contributes no domain.
func HasDistinctSources(citations []Citation) bool {
	if len(citations) < 2 {
		return false
	}
	domains := make(map[string]struct{}, len(citations))
	for _, c := range citations {
		if d := RegistrableDomain(c.URL); d != "" {
			domains[d] = struct{}{}
		}
	}
	return len(domains) >= 2
}

// RegistrableDomain extracts the last two dot-separated labels of the URL's
// hostname (support.example.com -> example.com) as a coarse organizational
// identity. Returns "" when no hostname can be parsed.
func RegistrableDomain(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return ""
	}
	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return host
	}
	return strings.Join(labels[len(labels)-2:], ".")
}

// truncate limits s to max runes, preserving UTF-8 boundaries.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
