package core

import (
	"encoding/json"
	"regexp"
	"strings"
)

// verdict is the shared JSON schema every model call must produce.
type verdict struct {
	Status           string          `json:"status"`
	Message          string          `json:"message"`
	ExplanationShort string          `json:"explanation_short"`
	Evidence         json.RawMessage `json:"evidence"`
}

var (
	taggedJSONRe = regexp.MustCompile(`(?is)<json>.*?</json>`)
	openTagRe    = regexp.MustCompile(`(?i)^<json>`)
	closeTagRe   = regexp.MustCompile(`(?i)</json>$`)

	statusKeyRe  = regexp.MustCompile(`status\s*[:=]\s*["']?([a-zA-Z_]+)["']?`)
	messageKeyRe = regexp.MustCompile(`message\s*[:=]\s*["']([^"']+)["']`)
	explKeyRe    = regexp.MustCompile(`explanation_short\s*[:=]\s*["']([^"']+)["']`)
)

// extractTaggedJSON parses a verdict wrapped in <json>...</json> delimiters.
// Returns nil when no block exists or the block is not valid JSON.
func extractTaggedJSON(text string) *verdict {
	slice := taggedJSONRe.FindString(text)
	if slice == "" {
		return nil
	}
	inner := closeTagRe.ReplaceAllString(openTagRe.ReplaceAllString(slice, ""), "")
	var v verdict
	if err := json.Unmarshal([]byte(strings.TrimSpace(inner)), &v); err != nil {
		return nil
	}
	return &v
}

// parseVerdictJSON parses a bare JSON object into a verdict.
func parseVerdictJSON(text string) *verdict {
	t := strings.TrimSpace(text)
	if t == "" {
		return nil
	}
	var v verdict
	if err := json.Unmarshal([]byte(t), &v); err != nil {
		return nil
	}
	return &v
}

// coerceVerdictFromText is the lenient fallback: first it scans for the
// outermost brace pair, then falls back to regex extraction of the known
// schema keys. Returns nil when nothing usable is found.
func coerceVerdictFromText(text string) *verdict {
	if text == "" {
		return nil
	}
	first := strings.Index(text, "{")
	last := strings.LastIndex(text, "}")
	if first != -1 && last > first {
		var v verdict
		if err := json.Unmarshal([]byte(text[first:last+1]), &v); err == nil {
			return &v
		}
	}
	out := &verdict{}
	found := false
	if m := statusKeyRe.FindStringSubmatch(text); m != nil {
		out.Status = m[1]
		found = true
	}
	if m := messageKeyRe.FindStringSubmatch(text); m != nil {
		out.Message = m[1]
		found = true
	}
	if m := explKeyRe.FindStringSubmatch(text); m != nil {
		out.ExplanationShort = m[1]
		found = true
	}
	if !found {
		return nil
	}
	return out
}

// normalizeEvidence coerces a model-supplied evidence value into at most five
// trimmed non-empty bullets. A plain string becomes a one-element list;
// anything else becomes empty.
func normalizeEvidence(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []any
	if err := json.Unmarshal(raw, &list); err == nil {
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				continue
			}
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			out = append(out, s)
			if len(out) == 5 {
				break
			}
		}
		return out
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		single = strings.TrimSpace(single)
		if single != "" {
			return []string{single}
		}
	}
	return nil
}
