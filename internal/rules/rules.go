// Package rules evaluates allow-list and deny-list tokens against email
// addresses. Tokens come from user configuration and may be regex literals
// (/pattern/flags), exact addresses, domain wildcards (*@domain, @domain),
// dotted domain suffixes, or — for deny lists only — bare labels matched
// against any dot-separated label of the domain.
package rules

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// Kind selects allow-list or deny-list matching semantics.
type Kind int

const (
	Allow Kind = iota
	Deny
)

// Matcher evaluates rule tokens against addresses.
type Matcher struct {
	logger *zap.Logger
}

// NewMatcher creates a rule matcher. A nil logger disables diagnostics.
func NewMatcher(logger *zap.Logger) *Matcher {
	return &Matcher{logger: logger}
}

// Match returns the first token that matches email, or "" when none does.
// Tokens are tried in list order after normalization; there is no scoring.
func (m *Matcher) Match(email string, tokens []string, kind Kind) string {
	raw := strings.TrimSpace(email)
	lower := strings.ToLower(raw)
	local := ""
	if i := strings.Index(raw, "@"); i >= 0 {
		local = raw[:i]
	}
	domain := emailDomain(lower)

	for _, t := range Normalize(tokens) {
		if IsRegexToken(t) {
			re := compileToken(t)
			if re == nil {
				if m.logger != nil {
					m.logger.Debug("Skipping malformed regex rule", zap.String("rule", t))
				}
				continue
			}
			matched := re.MatchString(raw)
			// Deny rules additionally probe the lowercased address and
			// localpart@ variants.
			if !matched && kind == Deny {
				matched = re.MatchString(lower) ||
					(local != "" && (re.MatchString(local+"@") || re.MatchString(strings.ToLower(local)+"@")))
			}
			if m.logger != nil {
				m.logger.Debug("Regex rule evaluated",
					zap.String("rule", t),
					zap.String("email", raw),
					zap.Bool("matched", matched))
			}
			if matched {
				return t
			}
			continue
		}

		switch {
		case strings.Contains(t, "@") && !strings.Contains(t, "*"):
			if strings.HasPrefix(t, "@") {
				if domainMatches(t, domain, kind) {
					return t
				}
			} else if lower == t {
				return t
			}
		case strings.HasPrefix(t, "*@"), strings.HasPrefix(t, "@"):
			if domainMatches(t, domain, kind) {
				return t
			}
		case strings.Contains(t, "."):
			if domainMatches(t, domain, kind) {
				return t
			}
		case kind == Deny:
			// Bare no-dot label, deny lists only: matches any domain label.
			if domainMatches(t, domain, kind) {
				return t
			}
		}
	}
	return ""
}

// Normalize trims, lowercases (regex tokens kept verbatim) and deduplicates
// tokens, preserving list order.
func Normalize(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	seen := make(map[string]struct{}, len(tokens))
	for _, raw := range tokens {
		t := strings.TrimSpace(raw)
		if t == "" {
			continue
		}
		if !IsRegexToken(t) {
			t = strings.ToLower(t)
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// IsRegexToken reports whether the token is a /pattern/flags literal.
func IsRegexToken(token string) bool {
	return strings.HasPrefix(token, "/") && strings.LastIndex(token, "/") > 0
}

// compileToken compiles a /pattern/flags literal, mapping the i, m and s
// flags onto RE2 mode modifiers. Malformed patterns return nil.
func compileToken(token string) *regexp.Regexp {
	last := strings.LastIndex(token, "/")
	if last <= 0 {
		return nil
	}
	pattern := token[1:last]
	flags := token[last+1:]
	var mode string
	for _, f := range flags {
		switch f {
		case 'i':
			mode += "i"
		case 'm':
			mode += "m"
		case 's':
			mode += "s"
		}
	}
	if mode != "" {
		pattern = "(?" + mode + ")" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil
	}
	return re
}

// domainMatches checks a domain-form token (*@d, @d, or bare d) against the
// actual domain. Allow lists require equality or a dotted-suffix match. Deny
// lists match dotted tokens as suffixes and no-dot tokens against any
// dot-separated label of the domain.
func domainMatches(token, domain string, kind Kind) bool {
	t := strings.TrimPrefix(strings.TrimPrefix(token, "*@"), "@")
	if t == "" || domain == "" {
		return false
	}
	if domain == t {
		return true
	}
	if kind == Deny && !strings.Contains(t, ".") {
		for _, label := range strings.Split(domain, ".") {
			if label == t {
				return true
			}
		}
		return false
	}
	return strings.HasSuffix(domain, "."+t)
}

func emailDomain(address string) string {
	parts := strings.Split(address, "@")
	if len(parts) < 2 {
		return ""
	}
	return strings.ToLower(parts[1])
}
