package parsers

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	logx "github.com/deskmate-core-poc/server/pkg/logger"
)

// basic safety limits to avoid pathological inputs
const (
	maxContentLen = 256 * 1024 // 256KB of raw model text
	maxErrSnippet = 160        // limit error snippet size
)

var (
	bareKeyRe       = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_\-]*)\s*:`)
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
)

// ExtractPayload pulls the first JSON object out of a model reply, falling
// back to the first JSON array. Fenced code blocks are searched before the
// raw text, with json-tagged blocks ahead of untagged ones.
func ExtractPayload(content string) (string, error) {
	return extract(content, true)
}

// ExtractArray pulls the first JSON array out of a model reply. Used for
// replies that are expected to carry a bare list, such as replacement
// citations.
func ExtractArray(content string) (string, error) {
	return extract(content, false)
}

// Decode unmarshals an extracted payload into v. When the first parse fails
// it repairs the payload once (quote bare keys, drop trailing commas) and
// reparses; a second failure is final.
func Decode(payload string, v any) error {
	if err := json.Unmarshal([]byte(payload), v); err == nil {
		return nil
	}
	repaired := repairPayload(payload)
	if err := json.Unmarshal([]byte(repaired), v); err != nil {
		return fmt.Errorf("payload not decodable after repair: %w", err)
	}
	return nil
}

func extract(content string, objectFirst bool) (payload string, err error) {
	// panic safety
	defer func() {
		if r := recover(); r != nil {
			logx.Error().Str("component", "payload_parser").Msgf("panic recovered: %v", r)
			payload = ""
			err = fmt.Errorf("payload parser panic")
		}
	}()

	// content length guard
	if len(content) > maxContentLen {
		logx.Warn().
			Str("component", "payload_parser").
			Int("max_len", maxContentLen).
			Int("orig_len", len(content)).
			Msg("content truncated due to size limit")
		content = content[:maxContentLen]
	}

	for _, candidate := range append(fencedBlocks(content), content) {
		if objectFirst {
			if p, ok := balancedPayload(candidate, '{', '}'); ok {
				return normalizeWhitespace(p), nil
			}
		}
		if p, ok := balancedPayload(candidate, '[', ']'); ok {
			return normalizeWhitespace(p), nil
		}
	}
	return "", fmt.Errorf("no structured payload in content: %s", safeSnippet(content))
}

// fencedBlocks returns the bodies of ``` fenced blocks in order of
// appearance, with json-tagged blocks sorted to the front.
func fencedBlocks(content string) []string {
	var tagged, plain []string
	rest := content
	for {
		start := strings.Index(rest, "```")
		if start < 0 {
			break
		}
		rest = rest[start+3:]
		nl := strings.IndexByte(rest, '\n')
		if nl < 0 {
			break
		}
		tag := strings.ToLower(strings.TrimSpace(rest[:nl]))
		body := rest[nl+1:]
		end := strings.Index(body, "```")
		if end < 0 {
			break
		}
		block := strings.TrimSpace(body[:end])
		rest = body[end+3:]
		if block == "" {
			continue
		}
		if tag == "json" {
			tagged = append(tagged, block)
		} else {
			plain = append(plain, block)
		}
	}
	return append(tagged, plain...)
}

// balancedPayload slices the first balanced open..close run out of s,
// starting at the first opening delimiter. Delimiters inside string literals
// do not count toward the depth.
func balancedPayload(s string, open, close byte) (string, bool) {
	start := strings.IndexByte(s, open)
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// Raw newlines and tabs inside model-emitted string values are invalid JSON;
// swap every control character for a plain space before parsing.
func normalizeWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 {
			return ' '
		}
		return r
	}, s)
}

// repairPayload quotes bare object keys and strips trailing commas. Only
// called after a failed parse.
func repairPayload(s string) string {
	s = bareKeyRe.ReplaceAllString(s, `$1"$2":`)
	s = trailingCommaRe.ReplaceAllString(s, "$1")
	return s
}

func safeSnippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxErrSnippet {
		return s
	}
	return s[:maxErrSnippet]
}
