package core

import (
	"strings"
)

var roleLocalParts = map[string]struct{}{
	"info":      {},
	"support":   {},
	"admin":     {},
	"sales":     {},
	"contact":   {},
	"hello":     {},
	"team":      {},
	"marketing": {},
	"noreply":   {},
	"no-reply":  {},
}

// AssessRole flags addresses whose local part exactly matches a known
// non-personal role name. Advisory only: the result feeds diagnostics and
// the judge's evidence bundle, never the terminal status.
func AssessRole(email string) AssessmentResult {
	local := strings.ToLower(EmailLocalPart(email))
	if _, ok := roleLocalParts[local]; ok {
		return AssessmentResult{Status: StatusSuspectedSpam, Message: "Role-based address"}
	}
	return AssessmentResult{}
}
