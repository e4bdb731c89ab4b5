package core

import (
	"context"
	"strings"

	"github.com/janzheng/mailcheck/internal/utils"
	"go.uber.org/zap"
)

// BrowserAssessor runs a web-search-grounded check: one model call that must
// use the browser_search tool and produce free-text sections, then a
// conversion call that maps the analysis into the shared verdict schema.
type BrowserAssessor struct {
	chat         ChatClient
	model        string
	convertModel string
	temperature  float32
	logger       *zap.Logger
}

// NewBrowserAssessor creates a browser-grounded assessor.
func NewBrowserAssessor(chat ChatClient, model, convertModel string, temperature float32, logger *zap.Logger) *BrowserAssessor {
	return &BrowserAssessor{chat: chat, model: model, convertModel: convertModel, temperature: temperature, logger: logger}
}

func browserSystemPrompt() string {
	return strings.Join([]string{
		"Use web browsing to gather public signals about whether this email belongs to a real person; do not fabricate.",
		"Call browser_search with multiple targeted queries. Try: the full email in quotes; the local part and domain; site:linkedin.com with likely name/handle; site:github.com with the handle; university/staff directories; newsroom/author pages; personal sites; press pages.",
		"Prefer authoritative sources: LinkedIn, staff/author/company pages, academic directories, GitHub, reputable media. Also check credible anti-abuse/anti-spam sources (StopForumSpam, Spamhaus, PhishTank) and scam-reporting communities. Avoid data brokers and spammy aggregators.",
		"When identity is indicated, do light background digging: capture the person's name, role/title, organization, department/team, and location/city if available.",
		"Leniency rule: Only apply leniency toward person_low for non-generic organization or academic domains when there is at least one plausible institutional signal (e.g., listed on org/staff page or directory). Do not apply leniency for generic providers or name-only matches.",
		"Escalation rule: If you find a plausible identity match (person name plus role/title and/or organization/institution) from credible sources and no credible negative signals, prefer Status: person_high, even when the address uses a generic provider (e.g., gmail).",
		"Produce a concise plain-text analysis with the following sections only (do not include any JSON):",
		"Status: one of person_high | person_low | person_none | spam",
		"Message: one short sentence preferring an identity-first summary, e.g., \"Linked to Name — Title, Organization\" when available",
		"Explanation: 2-3 sentences (<= 400 chars), reference evidence or say No public evidence found. If known, include person background (name, role/title, organization).",
		"Evidence: 1-5 short bullet points summarizing concrete findings (no links). Include at least one bullet with person background when available (e.g., \"Name — Title, Organization, City\"). Include negative bullets such as \"Flagged on StopForumSpam\" or \"Mentioned in scam-reporting community\" when applicable. If nothing credible found, leave this section empty and prefer Status: person_none.",
		"Also note recognizable roles when present (reporter, journalist, professor, founder, recruiter).",
	}, "\n")
}

func conversionSystemPrompt() string {
	return strings.Join([]string{
		"You convert analysis text into a strict JSON object. Do not browse or call tools.",
		"Schema: " + verdictSchema,
		"Rules:",
		"- message: one short sentence.",
		"- explanation_short: 2-3 sentences (<= 400 chars). If analysis indicates nothing credible was found, include \"No public evidence found.\" If known, include person background (name, role/title, organization). If credible negative signals are present (e.g., StopForumSpam, Spamhaus, scam-reporting communities), mention that.",
		"- evidence: 0-5 short bullets (no links). Include a background bullet when available (e.g., \"Name — Title, Organization, City\"). Include negative bullets when applicable (e.g., \"Flagged on StopForumSpam\"). Use [] when no credible evidence.",
		"- Only output a JSON object (no markdown, no extra text).",
	}, "\n")
}

// convertAnalysis turns the free-text analysis into a verdict through a
// JSON-forced model call. Returns nil on any failure; the caller then tries
// lenient extraction over the raw analysis.
func (a *BrowserAssessor) convertAnalysis(ctx context.Context, apiKey, email, analysis string) *verdict {
	res, err := a.chat.Complete(ctx, apiKey, ChatRequest{
		Model: a.convertModel,
		Messages: []ChatMessage{
			{Role: "system", Content: conversionSystemPrompt()},
			{Role: "user", Content: "Email: " + email + "\nAnalysis to convert:\n" + analysis},
		},
		Temperature: 0,
		JSONObject:  true,
		NoTools:     true,
	})
	if err != nil {
		a.logger.Warn("Browser analysis conversion failed", zap.String("email", email), zap.Error(err))
		return nil
	}
	return parseVerdictJSON(res.Content)
}

// Assess runs the browser-grounded check. A transport failure on the search
// call is returned to the caller; parse failures degrade to a no-status
// result with a debug field.
func (a *BrowserAssessor) Assess(ctx context.Context, apiKey, email, extra string) (*AssessmentResult, error) {
	r1, err := a.chat.Complete(ctx, apiKey, ChatRequest{
		Model: a.model,
		Messages: []ChatMessage{
			{Role: "system", Content: withExtra(browserSystemPrompt(), extra)},
			{Role: "user", Content: "Email: " + email + "\nTask: web search legitimacy check."},
		},
		Temperature: a.temperature,
		WebSearch:   true,
	})
	if err != nil {
		return nil, err
	}

	out := &AssessmentResult{Fields: Fields{"bg_browser_model": a.model}}
	parsed := a.convertAnalysis(ctx, apiKey, email, r1.Content)
	if parsed == nil {
		parsed = coerceVerdictFromText(r1.Content)
	}
	if parsed == nil {
		out.Fields["bg_browser_debug"] = "browser_search produced non-JSON analysis and conversion failed."
		return out, nil
	}

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
	out.Fields["bg_browser_label"] = StatusLabel(label)
	if out.Message != "" {
		out.Fields["bg_browser_short"] = out.Message
	} else {
		out.Fields["bg_browser_short"] = StatusLabel(label)
	}
	if expl := strings.TrimSpace(parsed.ExplanationShort); expl != "" {
		out.Fields["bg_browser_detail"] = utils.TruncateEllipsis(expl, 450)
		if short := utils.DeriveIdentityShort(expl); short != "" {
			out.Fields["bg_browser_short"] = short
		}
	}
	if ev := normalizeEvidence(parsed.Evidence); len(ev) > 0 {
		out.Fields["bg_browser_evidence"] = ev
	}
	return out, nil
}
