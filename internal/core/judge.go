package core

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/janzheng/mailcheck/internal/utils"
	"go.uber.org/zap"
)

// FinalJudge consolidates both assessors plus the deterministic signals into
// the single authoritative verdict. Its status, when parseable, replaces the
// severity-merged running status outright.
type FinalJudge struct {
	chat        ChatClient
	model       string
	temperature float32
	logger      *zap.Logger
}

// NewFinalJudge creates the consolidating judge.
func NewFinalJudge(chat ChatClient, model string, temperature float32, logger *zap.Logger) *FinalJudge {
	return &FinalJudge{chat: chat, model: model, temperature: temperature, logger: logger}
}

func judgeSystemPrompt() string {
	return strings.Join([]string{
		"You are a strict judge that consolidates signals from two assessors and heuristics (academic, role, domain) to decide if an email belongs to a real person.",
		"Decide using severity: spam > person_none > person_low > person_high.",
		"Return ONLY JSON per schema:",
		verdictSchema,
		"Rules:",
		"- Compose evidence as a deduplicated list of concrete bullets merged from all inputs (no links).",
		"- Include at least one bullet with person background when available (name, role/title, organization, location).",
		"- If credible anti-spam signals exist (e.g., StopForumSpam, Spamhaus, scam-reporting communities), prefer status: spam and include a negative bullet.",
		"- Leniency: Only apply leniency toward person_low for non-generic organization or academic domains when at least one institutional or portfolio-like signal exists (e.g., org/staff page, university directory, personal site with substantive details). Do not apply leniency for generic providers or name-only matches.",
		"- Escalation: If there is a plausible identity match (person name plus role/title and/or organization/institution) from credible sources and no credible negative signals, prefer person_high even if the address uses a generic provider (e.g., gmail).",
		"- If no credible public evidence is present, set evidence to [] and explicitly say \"No public evidence found.\" in explanation_short and prefer status: person_none.",
		"- message must be one short, specific sentence preferring an identity-first summary like \"Linked to Name — Title, Organization\" when available. explanation_short must be 2-3 sentences (<= 400 chars) and reference key evidence or lack thereof. If known, weave in person background (name, role/title, organization).",
		"- Note recognizable roles when present (reporter, journalist, professor, founder, recruiter).",
	}, "\n")
}

// Judge issues the consolidation call. A transport failure is returned to the
// caller; an unparseable response yields an empty result so the orchestrator
// falls back to its own merged status.
func (j *FinalJudge) Judge(ctx context.Context, apiKey, email, extra string, bundle EvidenceBundle) (*AssessmentResult, error) {
	encoded, err := json.Marshal(bundle)
	if err != nil {
		return nil, err
	}
	sys := judgeSystemPrompt()
	if extra != "" {
		sys += "\nExtra: " + extra
	}
	res, err := j.chat.Complete(ctx, apiKey, ChatRequest{
		Model: j.model,
		Messages: []ChatMessage{
			{Role: "system", Content: sys},
			{Role: "user", Content: "Email: " + email + "\nEvidence (JSON):\n" + string(encoded)},
		},
		Temperature: j.temperature,
		JSONObject:  true,
	})
	if err != nil {
		return nil, err
	}

	parsed := parseVerdictJSON(res.Content)
	if parsed == nil {
		j.logger.Warn("Final judge returned no parseable verdict", zap.String("email", email))
		return &AssessmentResult{Fields: Fields{}}, nil
	}

	out := &AssessmentResult{Fields: Fields{"bg_final_model": j.model}}
	if s, ok := ParseTerminal(parsed.Status); ok {
		out.Status = s
	}
	if msg := strings.TrimSpace(parsed.Message); msg != "" {
		out.Message = msg
	}
	label := out.Status
	if label == "" {
		label = StatusPersonLow
	}
	out.Fields["bg_final_label"] = StatusLabel(label)
	if out.Message != "" {
		out.Fields["bg_final_short"] = out.Message
	} else {
		out.Fields["bg_final_short"] = StatusLabel(label)
	}
	if expl := strings.TrimSpace(parsed.ExplanationShort); expl != "" {
		out.Fields["bg_final_detail"] = utils.TruncateEllipsis(expl, 450)
		if short := utils.DeriveIdentityShort(expl); short != "" {
			out.Fields["bg_final_short"] = short
		}
	}
	if ev := normalizeEvidence(parsed.Evidence); len(ev) > 0 {
		out.Fields["bg_final_evidence"] = ev
	}
	return out, nil
}
