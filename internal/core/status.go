package core

import (
	"regexp"
	"strings"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]{2,}$`)

// IsEmailAddress applies the permissive syntactic check: localpart@domain
// with a final dot-separated label of length >= 2.
func IsEmailAddress(s string) bool {
	return emailRe.MatchString(strings.TrimSpace(s))
}

// EmailDomain returns the lowercased domain of an address, or "".
func EmailDomain(address string) string {
	parts := strings.Split(address, "@")
	if len(parts) < 2 {
		return ""
	}
	return strings.ToLower(parts[1])
}

// EmailLocalPart returns the part before the first @.
func EmailLocalPart(address string) string {
	if i := strings.Index(address, "@"); i >= 0 {
		return address[:i]
	}
	return address
}

var genericDomains = map[string]struct{}{
	"gmail.com":      {},
	"yahoo.com":      {},
	"outlook.com":    {},
	"hotmail.com":    {},
	"icloud.com":     {},
	"gmx.com":        {},
	"aol.com":        {},
	"proton.me":      {},
	"protonmail.com": {},
	"mail.com":       {},
	"yandex.com":     {},
}

// IsGenericEmailDomain reports whether domain is a well-known consumer
// mail provider.
func IsGenericEmailDomain(domain string) bool {
	_, ok := genericDomains[strings.ToLower(domain)]
	return ok
}

// severity ranks terminal statuses for merging; higher wins.
func severity(s Status) int {
	switch s {
	case StatusSpam:
		return 4
	case StatusPersonNone:
		return 3
	case StatusPersonLow:
		return 2
	case StatusPersonHigh:
		return 1
	default:
		return 0
	}
}

// MergeStatus combines two statuses by severity; next wins ties. This is the
// running merge used while assessors report in — distinct from the final
// judge, whose status replaces the merged value outright.
func MergeStatus(current, next Status) Status {
	if next == "" {
		return current
	}
	if current == "" {
		return next
	}
	if severity(next) >= severity(current) {
		return next
	}
	return current
}

// IsTerminal reports whether s is one of the four terminal verdicts.
func IsTerminal(s Status) bool {
	switch s {
	case StatusPersonHigh, StatusPersonLow, StatusPersonNone, StatusSpam:
		return true
	}
	return false
}

// ParseTerminal validates a raw model-supplied status string.
func ParseTerminal(raw string) (Status, bool) {
	s := Status(strings.TrimSpace(raw))
	if IsTerminal(s) {
		return s, true
	}
	return "", false
}

// StatusLabel maps a status to its display label, the stable contract surface
// consumed by callers. Legacy spam-scale values keep their historical labels.
func StatusLabel(s Status) string {
	switch s {
	case StatusSpam, "likely_spam":
		return "spam"
	case StatusPersonNone:
		return "no evidence"
	case StatusPersonLow:
		return "possible person"
	case StatusSuspectedSpam:
		return "suspicious"
	case StatusPersonHigh, "not_spam":
		return "likely real person"
	default:
		return string(s)
	}
}

// statusHuman maps a status to the short phrase used in diagnostic lines.
func statusHuman(s Status) string {
	switch s {
	case StatusPersonHigh:
		return "likely human"
	case StatusPersonLow:
		return "possible human"
	case StatusPersonNone:
		return "no evidence"
	case StatusSpam:
		return "spam"
	default:
		return string(s)
	}
}
