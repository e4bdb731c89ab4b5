package core

import (
	"time"
)

// Status classifies an address. The four terminal values are the stable
// pipeline verdicts; academic and whitelist are pre-filter early-exit
// decisions; suspected_spam belongs to the advisory role-heuristic scale.
type Status string

const (
	StatusPersonHigh Status = "person_high"
	StatusPersonLow  Status = "person_low"
	StatusPersonNone Status = "person_none"
	StatusSpam       Status = "spam"

	StatusAcademic  Status = "academic"
	StatusWhitelist Status = "whitelist"

	StatusSuspectedSpam Status = "suspected_spam"
)

// Fields is a namespaced diagnostic map shared across assessors. Later
// writers win per key.
type Fields map[string]any

// Merge copies all entries from other into f, overwriting existing keys.
func (f Fields) Merge(other Fields) {
	for k, v := range other {
		f[k] = v
	}
}

// SetIfEmpty sets key only when it is absent or holds an empty string.
func (f Fields) SetIfEmpty(key string, value any) {
	if cur, ok := f[key]; ok {
		if s, isStr := cur.(string); !isStr || s != "" {
			return
		}
	}
	f[key] = value
}

// Str returns the string value at key, or "".
func (f Fields) Str(key string) string {
	s, _ := f[key].(string)
	return s
}

// Bool returns the bool value at key, or false.
func (f Fields) Bool(key string) bool {
	b, _ := f[key].(bool)
	return b
}

// Strs returns the string-slice value at key, or nil.
func (f Fields) Strs(key string) []string {
	s, _ := f[key].([]string)
	return s
}

// AssessmentResult is the common shape returned by every assessor.
type AssessmentResult struct {
	Status  Status
	Message string
	Fields  Fields
}

// Assessment is one audit entry in a pipeline result, one per assessor that
// ran or was skipped.
type Assessment struct {
	Name    string `json:"name"`
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
}

// PipelineResult is the orchestrator's output for one email.
type PipelineResult struct {
	Email       string       `json:"email"`
	Status      Status       `json:"status"`
	Message     string       `json:"message"`
	Fields      Fields       `json:"fields"`
	Assessments []Assessment `json:"assessments"`
}

// AssessRequest carries one evaluation's inputs. APIKey overrides the
// configured chat-backend key when non-empty.
type AssessRequest struct {
	APIKey            string
	Email             string
	ExtraInstructions string
	Allowlist         []string
	Blocklist         []string
}

// EvidenceBundle is the structured input handed to the final judge.
type EvidenceBundle struct {
	Academic AcademicEvidence `json:"academic"`
	Role     RoleEvidence     `json:"role"`
	Domain   DomainEvidence   `json:"domain"`
	Compound AssessorEvidence `json:"compound"`
	Browser  AssessorEvidence `json:"browser"`
}

type AcademicEvidence struct {
	Academic    bool   `json:"academic"`
	Institution string `json:"institution,omitempty"`
}

type RoleEvidence struct {
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
}

type DomainEvidence struct {
	Domain          string `json:"domain,omitempty"`
	GenericProvider bool   `json:"generic_provider"`
}

type AssessorEvidence struct {
	Status   string   `json:"status,omitempty"`
	Message  string   `json:"message,omitempty"`
	Short    string   `json:"short,omitempty"`
	Label    string   `json:"label,omitempty"`
	Evidence []string `json:"evidence"`
}

// CacheEntry stores one finished pipeline result with its expiry.
type CacheEntry struct {
	Email     string
	Result    *PipelineResult
	LastSeen  time.Time
	ExpiresAt time.Time
}
