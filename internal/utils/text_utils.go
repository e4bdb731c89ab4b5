package utils

import (
	"regexp"
	"strings"
)

var (
	toolBlockRe   = regexp.MustCompile(`(?is)<tool>.*?</tool>`)
	outputBlockRe = regexp.MustCompile(`(?is)<output>.*?</output>`)
	jsonBlockRe   = regexp.MustCompile(`(?is)<json>.*?</json>`)
	spaceRunRe    = regexp.MustCompile(`[ \t]+`)
	newlineRunRe  = regexp.MustCompile(`\n{3,}`)
	paraSplitRe   = regexp.MustCompile(`\n\s*\n`)
	trailingPunct = regexp.MustCompile(`[,;:\s]+$`)
)

// CleanDetailText strips tool/output/json transcript blocks from model text
// and compacts it into at most three paragraphs of 500 characters each,
// capped at 1400 characters total.
func CleanDetailText(text string) string {
	if text == "" {
		return ""
	}
	s := toolBlockRe.ReplaceAllString(text, "")
	s = outputBlockRe.ReplaceAllString(s, "")
	s = jsonBlockRe.ReplaceAllString(s, "")
	s = spaceRunRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(newlineRunRe.ReplaceAllString(s, "\n\n"))

	var paras []string
	for _, p := range paraSplitRe.Split(s, -1) {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		paras = append(paras, truncateRunes(p, 500))
		if len(paras) == 3 {
			break
		}
	}
	joined := strings.TrimSpace(strings.Join(paras, "\n\n"))
	return truncateRunes(joined, 1400)
}

// SplitSentences splits text after sentence-ending punctuation followed by
// whitespace. It never returns empty segments.
func SplitSentences(s string) []string {
	var out []string
	runes := []rune(s)
	start := 0
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if (r == '.' || r == '!' || r == '?') && i+1 < len(runes) && isSpaceRune(runes[i+1]) {
			seg := strings.TrimSpace(string(runes[start : i+1]))
			if seg != "" {
				out = append(out, seg)
			}
			for i+1 < len(runes) && isSpaceRune(runes[i+1]) {
				i++
			}
			start = i + 1
		}
	}
	if start < len(runes) {
		seg := strings.TrimSpace(string(runes[start:]))
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}

func isSpaceRune(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

// LimitSentences keeps at most n sentences of s, joined by single spaces.
func LimitSentences(s string, n int) string {
	parts := SplitSentences(s)
	if len(parts) > n {
		parts = parts[:n]
	}
	return strings.Join(parts, " ")
}

// DeriveIdentityShort reduces an explanation to its first sentence, capped at
// 200 characters. Identity-first summaries carry the person's name, role and
// organization in that first sentence, so this keeps the most specific part.
func DeriveIdentityShort(explanation string) string {
	s := strings.TrimSpace(explanation)
	if s == "" {
		return ""
	}
	if parts := SplitSentences(s); len(parts) > 0 {
		s = parts[0]
	}
	return TruncateEllipsis(s, 200)
}

// TruncateEllipsis caps s at max runes, trimming trailing punctuation before
// appending an ellipsis. Strings within the limit pass through unchanged.
func TruncateEllipsis(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	cut := strings.TrimSpace(trailingPunct.ReplaceAllString(string(runes[:max-1]), ""))
	return cut + "…"
}

// TruncateBytesLimit caps s at max runes with no ellipsis, used for raw debug
// payload capture.
func TruncateBytesLimit(s string, max int) string {
	return truncateRunes(s, max)
}

// DedupeStrings removes duplicates and blanks, preserving first-seen order.
func DedupeStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		v := strings.TrimSpace(s)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
