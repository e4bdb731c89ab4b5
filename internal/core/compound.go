package core

import (
	"context"
	"strings"

	"github.com/janzheng/mailcheck/internal/utils"
	"go.uber.org/zap"
)

const verdictSchema = `{ "status": "person_high|person_low|person_none|spam", "message": string, "explanation_short": string, "evidence": string[] }`

// CompoundAssessor asks a compound-reasoning model to classify an address in
// one call, with a stricter JSON-only retry when the tagged response cannot
// be parsed.
type CompoundAssessor struct {
	chat        ChatClient
	model       string
	temperature float32
	logger      *zap.Logger
}

// NewCompoundAssessor creates a compound assessor bound to a chat backend.
func NewCompoundAssessor(chat ChatClient, model string, temperature float32, logger *zap.Logger) *CompoundAssessor {
	return &CompoundAssessor{chat: chat, model: model, temperature: temperature, logger: logger}
}

func compoundSystemPrompt() string {
	return strings.Join([]string{
		"You assess whether an email belongs to a real person. Perform targeted web checks. If you cannot browse, reason only from public patterns in the address and provider; do not fabricate.",
		"Make an effort to look for identity signals on LinkedIn, company/staff pages, academic directories, GitHub, personal sites, press/newsroom/author pages, and social profiles.",
		"When identity is indicated, do light background digging: capture the person's name, role/title, organization, department/team, and location/city if available.",
		"Also look for negative signals: credible anti-abuse/anti-spam sources (e.g., StopForumSpam, Spamhaus, PhishTank), scam-reporting communities, or reputable media coverage indicating misuse. If credible negative signals exist, prefer status: spam.",
		"Return ONLY JSON wrapped in <json>...</json> tags using this schema:",
		verdictSchema,
		"Guidelines:",
		"- person_high: strong identity signals clearly tie to the email/user (e.g., staff/author page, university/company directory, or a portfolio/personal site that credibly matches the individual).",
		"- person_low: requires at least one concrete, credible public signal about the person (e.g., portfolio/personal site with matching name/handle, staff/author/university/company page, or GitHub with substantive profile). Mere name-like matches or generic social profiles without a clear tie do NOT qualify.",
		"- person_none: choose this when there is no credible public identity evidence. Ambiguous name matches (e.g., multiple LinkedIn results for common names), generic provider emails with only a name-like local part, or signals that cannot be tied to the email/person should be person_none.",
		"- spam: obvious spam/role-based/throwaway patterns, or credible anti-spam sources flag the address.",
		"- Leniency: Only apply leniency toward person_low for non-generic organization or academic domains when there is at least one plausible institutional signal (e.g., being listed on an org/staff page). Do not apply leniency for generic providers or name-only signals.",
		"- Escalation: When you find a plausible identity match (person name plus role/title and/or organization/institution) from credible sources and there are no credible negative signals, prefer status: person_high, even if the address uses a generic email provider (e.g., gmail).",
		"- message: one short sentence preferring an identity-first summary, e.g., \"Linked to Name — Title, Organization\" when available. explanation_short: 2-3 sentences (<= 400 chars), plain text; no tool logs, URLs, or headings. If known, include person background (name, role/title, organization).",
		"- evidence: 1-5 short bullets summarizing concrete findings (no links). Include at least one background bullet when available (e.g., \"Name — Title, Organization, City\"). Include negative bullets when applicable (e.g., \"Flagged on StopForumSpam\" or \"Reported in scam community\"). If nothing credible is found, set evidence to [] and explicitly say \"No public evidence found.\" and prefer status person_none.",
		"- If the address indicates a role (e.g., info, noreply) or a notable role (e.g., reporter, journalist, professor, founder), include that in evidence.",
		"- Do not include any text outside the <json>...</json> wrapper.",
	}, "\n")
}

func compoundRetryPrompt() string {
	return strings.Join([]string{
		"You assess whether an email likely belongs to a real person based on quick web checks; do not fabricate.",
		"Return ONLY a JSON object with this schema (no tags, no markdown):",
		verdictSchema,
		"Keep message concise; explanation_short 2-3 sentences (<= 400 chars).",
	}, "\n")
}

func withExtra(base, extra string) string {
	if extra == "" {
		return base
	}
	return base + "\nExtra instructions: " + extra
}

// Assess runs the compound check. A transport failure on either call is
// returned to the caller; an unparseable response degrades to the documented
// person_low fallback instead.
func (a *CompoundAssessor) Assess(ctx context.Context, apiKey, email, extra string) (*AssessmentResult, error) {
	messages := []ChatMessage{
		{Role: "system", Content: withExtra(compoundSystemPrompt(), extra)},
		{Role: "user", Content: "Email: " + email + "\nTask: quick legitimacy check."},
	}
	r1, err := a.chat.Complete(ctx, apiKey, ChatRequest{
		Model:       a.model,
		Messages:    messages,
		Temperature: a.temperature,
		NoTools:     true,
	})
	if err != nil {
		return nil, err
	}

	parsed := extractTaggedJSON(r1.Content)
	if parsed == nil {
		retry := []ChatMessage{
			{Role: "system", Content: withExtra(compoundRetryPrompt(), extra)},
			{Role: "user", Content: "Email: " + email + "\nTask: quick legitimacy check."},
		}
		r2, err := a.chat.Complete(ctx, apiKey, ChatRequest{
			Model:       a.model,
			Messages:    retry,
			Temperature: a.temperature,
			JSONObject:  true,
			NoTools:     true,
		})
		if err != nil {
			return nil, err
		}
		parsed = parseVerdictJSON(r2.Content)
		if parsed == nil {
			a.logger.Warn("Compound assessor produced no parseable verdict", zap.String("email", email))
			return &AssessmentResult{
				Status:  StatusPersonLow,
				Message: "no compound signal",
				Fields: Fields{
					"bg_compound_debug": utils.TruncateBytesLimit(r1.Content, 800),
					"bg_llm_model":      a.model,
				},
			}, nil
		}
	}

	out := &AssessmentResult{Fields: Fields{"bg_llm_model": a.model}}
	if s, ok := ParseTerminal(parsed.Status); ok {
		out.Status = s
	}
	if msg := strings.TrimSpace(parsed.Message); msg != "" {
		out.Message = msg
	} else if out.Status != "" {
		out.Message = "compound: " + StatusLabel(out.Status)
	} else {
		out.Message = "compound: " + StatusLabel(StatusPersonLow)
	}
	label := out.Status
	if label == "" {
		label = StatusPersonLow
	}
	out.Fields["bg_compound_label"] = StatusLabel(label)
	out.Fields["bg_compound_short"] = out.Message

	detail := ""
	if expl := strings.TrimSpace(parsed.ExplanationShort); expl != "" {
		detail = utils.TruncateEllipsis(utils.LimitSentences(utils.CleanDetailText(expl), 3), 450)
	}
	if detail == "" && r1.Content != "" {
		detail = utils.CleanDetailText(r1.Content)
	}
	if detail != "" {
		out.Fields["bg_compound_detail"] = detail
	}
	if short := utils.DeriveIdentityShort(parsed.ExplanationShort); short != "" {
		out.Fields["bg_compound_short"] = short
	}
	if ev := normalizeEvidence(parsed.Evidence); len(ev) > 0 {
		out.Fields["bg_compound_evidence"] = ev
	}
	return out, nil
}
