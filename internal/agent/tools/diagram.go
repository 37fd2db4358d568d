package tools

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

// ===================================
// Diagram Tool
// ===================================

// Box geometry is fixed: a diagram with n stages is n*(boxWidth+boxGap)+marginX
// wide and svgHeight tall.
const (
	boxWidth   = 120
	boxHeight  = 60
	boxGap     = 40
	boxSpacing = boxWidth + boxGap
	marginX    = 20
	svgHeight  = 100

	maxLabelRunes  = 15
	keptLabelRunes = 12
)

var diagramSplitRe = regexp.MustCompile(`(?i)\s*(?:->|→)\s*|\s+(?:to|then)\s+`)

type DiagramInput struct {
	Spec string `json:"spec"`
}

type DiagramOutput struct {
	SVG string `json:"svg"`
}

// GenerateDiagram renders a left-to-right flow of labeled boxes connected by
// arrows. It is pure string assembly and cannot fail.
func GenerateDiagram(spec string) *DiagramOutput {
	segments := splitDiagramSpec(spec)
	width := len(segments)*boxSpacing + marginX

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`, width, svgHeight, width, svgHeight)
	b.WriteString(`<defs><marker id="arrow" markerWidth="8" markerHeight="8" refX="8" refY="4" orient="auto"><path d="M0,0 L8,4 L0,8 z" fill="#333"/></marker></defs>`)
	for i, seg := range segments {
		x := marginX + i*boxSpacing
		fmt.Fprintf(&b, `<rect x="%d" y="20" width="%d" height="%d" rx="6" fill="#eef3f8" stroke="#335577"/>`, x, boxWidth, boxHeight)
		fmt.Fprintf(&b, `<text x="%d" y="54" text-anchor="middle" font-family="sans-serif" font-size="13">%s</text>`, x+boxWidth/2, html.EscapeString(boxLabel(seg)))
		if i > 0 {
			fmt.Fprintf(&b, `<line x1="%d" y1="50" x2="%d" y2="50" stroke="#333" stroke-width="1.5" marker-end="url(#arrow)"/>`, x-boxGap, x)
		}
	}
	b.WriteString(`</svg>`)
	return &DiagramOutput{SVG: b.String()}
}

// splitDiagramSpec cuts the spec on ->, the arrow glyph, or the words
// "to"/"then". An empty spec renders the single placeholder stage.
func splitDiagramSpec(spec string) []string {
	parts := diagramSplitRe.Split(spec, -1)
	segments := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			segments = append(segments, p)
		}
	}
	if len(segments) == 0 {
		segments = []string{"IT Support Flow"}
	}
	return segments
}

func boxLabel(s string) string {
	runes := []rune(s)
	if len(runes) <= maxLabelRunes {
		return s
	}
	return string(runes[:keptLabelRunes]) + "..."
}
