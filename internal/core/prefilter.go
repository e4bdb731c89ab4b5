package core

import (
	"context"

	"github.com/janzheng/mailcheck/internal/rules"
	"go.uber.org/zap"
)

// decision is a pre-filter outcome. Decided outcomes end the pipeline; the
// rest record a tracking assessment and let evaluation continue.
type decision struct {
	decided    bool
	status     Status
	message    string
	fields     Fields
	assessment Assessment
}

func (p *Pipeline) preAllowlist(email string, tokens []string) decision {
	matched := p.rules.Match(email, tokens, rules.Allow)
	if matched == "" {
		return decision{assessment: Assessment{Name: "allowlist", Message: "no match"}}
	}
	return decision{
		decided: true,
		status:  StatusWhitelist,
		message: "Allowlisted via " + matched,
		fields: Fields{
			"bg_allowlist_rule": matched,
			"bg_allowlist_msg":  "Allowlisted",
		},
		assessment: Assessment{Name: "allowlist", Status: "pass", Message: "matched " + matched},
	}
}

func (p *Pipeline) preAcademic(ctx context.Context, email string) decision {
	info, err := p.academic.Lookup(ctx, email)
	if err != nil {
		// Lookup failures fail open to continued evaluation.
		p.logger.Warn("Academic lookup failed", zap.String("email", email), zap.Error(err))
		return decision{assessment: Assessment{Name: "academic", Message: "error"}}
	}
	if !info.Academic {
		return decision{assessment: Assessment{Name: "academic", Message: "no match"}}
	}
	msg := "Academic domain"
	fields := Fields{
		"bg_academic":     true,
		"bg_academic_msg": "Academic domain",
	}
	if info.Institution != "" {
		msg = "Academic institution: " + info.Institution
		fields["bg_institution"] = info.Institution
		fields["bg_academic_msg"] = info.Institution
	}
	return decision{
		decided:    true,
		status:     StatusAcademic,
		message:    msg,
		fields:     fields,
		assessment: Assessment{Name: "academic", Status: "pass", Message: msg},
	}
}

func (p *Pipeline) preBlocklist(email string, tokens []string) decision {
	matched := p.rules.Match(email, tokens, rules.Deny)
	if matched == "" {
		return decision{assessment: Assessment{Name: "blocklist", Message: "no match"}}
	}
	return decision{
		decided: true,
		status:  StatusSpam,
		message: "Blacklisted via " + matched,
		fields: Fields{
			"bg_blocklist_rule": matched,
			"bg_blocklist_msg":  "Blacklisted",
			"bg_blocklist":      true,
		},
		assessment: Assessment{Name: "blocklist", Status: "fail", Message: "matched " + matched},
	}
}
