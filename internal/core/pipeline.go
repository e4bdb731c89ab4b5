package core

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/janzheng/mailcheck/internal/rules"
	"github.com/janzheng/mailcheck/internal/utils"
	"go.uber.org/zap"
)

// assessorNames is the canonical audit order; every pipeline result carries
// exactly one assessments entry per name.
var assessorNames = []string{"allowlist", "academic", "blocklist", "role_heuristic", "compound", "browser", "final_judge"}

// Pipeline sequences one email evaluation: pre-filters with early exit, the
// concurrent assessor fan-out, the final judge, and evidence normalization.
// It holds no per-evaluation state, so one Pipeline serves any number of
// concurrent calls.
type Pipeline struct {
	rules    *rules.Matcher
	academic AcademicLookup
	compound *CompoundAssessor
	browser  *BrowserAssessor
	judge    *FinalJudge
	logger   *zap.Logger
}

// NewPipeline wires the orchestrator.
func NewPipeline(
	matcher *rules.Matcher,
	academic AcademicLookup,
	compound *CompoundAssessor,
	browser *BrowserAssessor,
	judge *FinalJudge,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		rules:    matcher,
		academic: academic,
		compound: compound,
		browser:  browser,
		judge:    judge,
		logger:   logger,
	}
}

// evalState is the per-evaluation accumulator.
type evalState struct {
	status      Status
	fields      Fields
	assessments []Assessment
	compound    *AssessmentResult
	browser     *AssessmentResult
	judge       *AssessmentResult
}

// AssessEmail evaluates one address. It always returns a structured result
// with a non-empty status and never returns an error: collaborator failures
// degrade into bg_* debug fields.
func (p *Pipeline) AssessEmail(ctx context.Context, req AssessRequest) *PipelineResult {
	email := strings.TrimSpace(req.Email)

	if !IsEmailAddress(email) {
		return p.invalidResult(email)
	}

	st := &evalState{fields: Fields{}}

	// Pre-filters, strictly ordered, each able to end the pipeline before
	// any model call.
	prefilters := []func() decision{
		func() decision { return p.preAllowlist(email, req.Allowlist) },
		func() decision { return p.preAcademic(ctx, email) },
		func() decision { return p.preBlocklist(email, req.Blocklist) },
	}
	for _, pre := range prefilters {
		d := pre()
		if !d.decided {
			st.assessments = append(st.assessments, d.assessment)
			continue
		}
		st.fields.Merge(d.fields)
		st.assessments = append(st.assessments, d.assessment)
		return p.earlyExit(email, d, st)
	}

	var messages []string
	role := AssessRole(email)
	if role.Message != "" {
		messages = append(messages, role.Message)
		st.fields["bg_role"] = true
		st.fields["bg_role_msg"] = role.Message
	} else {
		st.fields["bg_role"] = false
	}

	// The assessor fan-out and judge run inside a recovery guard: a panic is
	// recorded as a diagnostic and the pipeline still returns a best-effort
	// result.
	func() {
		defer func() {
			if r := recover(); r != nil {
				p.logger.Error("Assessment stage panicked",
					zap.String("email", email),
					zap.Any("panic", r))
				st.fields["bg_pipeline_debug"] = utils.TruncateBytesLimit(fmt.Sprint(r), 800)
			}
		}()
		p.runConcurrent(ctx, req, email, st)
		p.runJudge(ctx, req, email, role, st)
	}()

	if st.status == "" {
		st.status = StatusPersonLow
	}

	p.finalize(email, role, st)
	st.fields["bg_assessments"] = st.assessments

	return &PipelineResult{
		Email:       email,
		Status:      st.status,
		Message:     strings.Join(messages, "; "),
		Fields:      st.fields,
		Assessments: st.assessments,
	}
}

// invalidResult short-circuits malformed input to spam without touching any
// collaborator.
func (p *Pipeline) invalidResult(email string) *PipelineResult {
	fields := Fields{}
	assessments := make([]Assessment, 0, len(assessorNames))
	for _, name := range assessorNames {
		assessments = append(assessments, Assessment{Name: name, Message: "not run"})
	}
	fields["bg_assessor_lines"] = p.assessorLines(fields, nil, nil, StatusSpam)
	fields["bg_assessments"] = assessments
	return &PipelineResult{
		Email:       email,
		Status:      StatusSpam,
		Message:     "Invalid email format",
		Fields:      fields,
		Assessments: assessments,
	}
}

// earlyExit produces the full diagnostic bookkeeping for a deciding
// pre-filter: downstream assessors are marked not run and no model call is
// made.
func (p *Pipeline) earlyExit(email string, d decision, st *evalState) *PipelineResult {
	if roleQuick := AssessRole(email); roleQuick.Message != "" {
		st.fields["bg_role"] = true
		st.fields["bg_role_msg"] = roleQuick.Message
	} else {
		st.fields["bg_role"] = false
	}
	st.fields["bg_assessor_lines"] = p.assessorLines(st.fields, nil, nil, d.status)
	st.assessments = p.ensureAssessments(st.assessments, st.fields)
	st.fields["bg_assessments"] = st.assessments
	return &PipelineResult{
		Email:       email,
		Status:      d.status,
		Message:     d.message,
		Fields:      st.fields,
		Assessments: st.assessments,
	}
}

// runConcurrent launches the compound and browser assessors together and
// joins with all-settled semantics: one failing never aborts the other, and
// a failure is captured as a truncated debug field.
func (p *Pipeline) runConcurrent(ctx context.Context, req AssessRequest, email string, st *evalState) {
	type settled struct {
		res *AssessmentResult
		err error
	}
	var compoundOut, browserOut settled

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				compoundOut.err = fmt.Errorf("panic: %v", r)
			}
		}()
		compoundOut.res, compoundOut.err = p.compound.Assess(ctx, req.APIKey, email, req.ExtraInstructions)
	}()
	go func() {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				browserOut.err = fmt.Errorf("panic: %v", r)
			}
		}()
		browserOut.res, browserOut.err = p.browser.Assess(ctx, req.APIKey, email, req.ExtraInstructions)
	}()
	wg.Wait()

	if compoundOut.err != nil {
		p.logger.Warn("Compound assessor failed", zap.String("email", email), zap.Error(compoundOut.err))
		st.fields["bg_compound_debug"] = utils.TruncateBytesLimit(compoundOut.err.Error(), 800)
	} else if compoundOut.res != nil {
		res := compoundOut.res
		st.compound = res
		st.status = MergeStatus(st.status, res.Status)
		if res.Message != "" {
			st.fields["bg_compound_msg"] = res.Message
			st.fields.SetIfEmpty("bg_compound_short", res.Message)
		}
		if res.Status != "" {
			st.fields["bg_compound_label"] = StatusLabel(res.Status)
		}
		st.fields.Merge(res.Fields)
		st.assessments = append(st.assessments, Assessment{Name: "compound", Status: string(res.Status), Message: res.Message})
	}

	if browserOut.err != nil {
		p.logger.Warn("Browser assessor failed", zap.String("email", email), zap.Error(browserOut.err))
		st.fields["bg_browser_debug"] = utils.TruncateBytesLimit(browserOut.err.Error(), 800)
	} else if browserOut.res != nil {
		res := browserOut.res
		st.browser = res
		st.status = MergeStatus(st.status, res.Status)
		if res.Message != "" {
			st.fields["bg_browser_msg"] = res.Message
			st.fields.SetIfEmpty("bg_browser_short", res.Message)
		}
		st.fields.Merge(res.Fields)
		st.assessments = append(st.assessments, Assessment{Name: "browser", Status: string(res.Status), Message: res.Message})
	}
}

// runJudge builds the evidence bundle and lets the final judge consolidate.
// The judge's status replaces the severity-merged one outright; a judge
// failure falls back to the merged status.
func (p *Pipeline) runJudge(ctx context.Context, req AssessRequest, email string, role AssessmentResult, st *evalState) {
	domain := EmailDomain(email)
	bundle := EvidenceBundle{
		Academic: AcademicEvidence{
			Academic:    st.fields.Bool("bg_academic"),
			Institution: st.fields.Str("bg_institution"),
		},
		Role: RoleEvidence{Status: string(role.Status), Message: role.Message},
		Domain: DomainEvidence{
			Domain:          domain,
			GenericProvider: domain != "" && IsGenericEmailDomain(domain),
		},
		Compound: p.assessorEvidence(st.compound, st.fields, "bg_compound"),
		Browser:  p.assessorEvidence(st.browser, st.fields, "bg_browser"),
	}

	judge, err := p.judge.Judge(ctx, req.APIKey, email, req.ExtraInstructions, bundle)
	if err != nil {
		p.logger.Warn("Final judge failed", zap.String("email", email), zap.Error(err))
		st.fields["bg_final_debug"] = utils.TruncateBytesLimit(err.Error(), 800)
		return
	}
	st.judge = judge
	if judge.Status != "" {
		st.status = judge.Status
	}
	if judge.Message != "" {
		st.fields.SetIfEmpty("bg_final_short", judge.Message)
	}
	st.fields.Merge(judge.Fields)
	st.assessments = append(st.assessments, Assessment{Name: "final_judge", Status: string(judge.Status), Message: judge.Message})
}

func (p *Pipeline) assessorEvidence(res *AssessmentResult, fields Fields, prefix string) AssessorEvidence {
	out := AssessorEvidence{
		Short:    fields.Str(prefix + "_short"),
		Label:    fields.Str(prefix + "_label"),
		Evidence: fields.Strs(prefix + "_evidence"),
	}
	if out.Evidence == nil {
		out.Evidence = []string{}
	}
	if res != nil {
		out.Status = string(res.Status)
		out.Message = res.Message
	}
	return out
}

// finalize merges evidence bullets, composes the fallback detail text, emits
// the diagnostic line set, and completes the assessments list.
func (p *Pipeline) finalize(email string, role AssessmentResult, st *evalState) {
	domain := EmailDomain(email)

	var all []string
	all = append(all, st.fields.Strs("bg_final_evidence")...)
	all = append(all, st.fields.Strs("bg_browser_evidence")...)
	all = append(all, st.fields.Strs("bg_compound_evidence")...)
	if st.fields.Bool("bg_academic") && st.fields.Str("bg_institution") != "" {
		all = append(all, "Academic institution: "+st.fields.Str("bg_institution"))
	}
	if domain != "" {
		if IsGenericEmailDomain(domain) {
			all = append(all, "Generic email provider: "+domain)
		} else {
			all = append(all, "Organization domain detected: "+domain)
		}
	}
	if role.Message != "" {
		all = append(all, role.Message)
	}
	deduped := utils.DedupeStrings(all)
	if len(deduped) > 8 {
		deduped = deduped[:8]
	}
	if _, ok := st.fields["bg_final_evidence"]; !ok {
		if len(deduped) > 0 {
			st.fields["bg_final_evidence"] = deduped
		} else {
			st.fields["bg_final_evidence"] = []string{"No public evidence found"}
		}
	}

	if _, ok := st.fields["bg_final_detail"]; !ok {
		var parts []string
		if st.fields.Bool("bg_academic") && st.fields.Str("bg_institution") != "" {
			parts = append(parts, "Academic institution: "+st.fields.Str("bg_institution")+".")
		} else if domain != "" {
			if IsGenericEmailDomain(domain) {
				parts = append(parts, "Generic provider: "+domain+".")
			} else {
				parts = append(parts, "Organization domain: "+domain+".")
			}
		}
		if st.judge != nil && st.judge.Message != "" {
			parts = append(parts, st.judge.Message)
		}
		fallback := strings.TrimSpace(strings.Join(parts, " "))
		if fallback == "" {
			fallback = "No public evidence found."
		}
		st.fields["bg_final_detail"] = fallback
	}

	st.fields["bg_assessor_lines"] = p.assessorLines(st.fields, st.browser, st.compound, st.status)
	st.assessments = p.ensureAssessments(st.assessments, st.fields)
}

// assessorLines builds the standardized one-liner diagnostics for scanning.
func (p *Pipeline) assessorLines(fields Fields, browser, compound *AssessmentResult, final Status) []string {
	lines := make([]string, 0, 7)

	if fields.Str("bg_allowlist_rule") != "" {
		lines = append(lines, "allowlist: allowed")
	} else {
		lines = append(lines, "allowlist: not listed")
	}
	if fields.Str("bg_blocklist_rule") != "" {
		lines = append(lines, "blocklist: blocked")
	} else {
		lines = append(lines, "blocklist: not blocked")
	}
	if fields.Bool("bg_academic") {
		if inst := fields.Str("bg_institution"); inst != "" {
			lines = append(lines, "academic: "+inst)
		} else {
			lines = append(lines, "academic: academic")
		}
	} else {
		lines = append(lines, "academic: not academic")
	}
	if fields.Bool("bg_role") {
		msg := fields.Str("bg_role_msg")
		if msg == "" {
			msg = "role-based"
		}
		lines = append(lines, "role: "+msg)
	} else {
		lines = append(lines, "role: clean")
	}
	lines = append(lines, "browser: "+assessorLine(browser, fields.Str("bg_browser_label")))
	lines = append(lines, "llm: "+assessorLine(compound, fields.Str("bg_compound_label")))
	lines = append(lines, "final: "+statusHuman(final))
	return lines
}

func assessorLine(res *AssessmentResult, label string) string {
	if res != nil && res.Status != "" {
		return statusHuman(res.Status)
	}
	if label != "" {
		return label
	}
	return "not run"
}

// ensureAssessments guarantees exactly one entry per known assessor. The
// role heuristic runs on every non-invalid path, so its placeholder reflects
// the recorded flag; everything else missing was skipped.
func (p *Pipeline) ensureAssessments(assessments []Assessment, fields Fields) []Assessment {
	for _, name := range assessorNames {
		found := false
		for _, a := range assessments {
			if a.Name == name {
				found = true
				break
			}
		}
		if found {
			continue
		}
		message := "not run"
		if name == "role_heuristic" {
			if fields.Bool("bg_role") {
				message = fields.Str("bg_role_msg")
				if message == "" {
					message = "role-based"
				}
			} else {
				message = "clean"
			}
		}
		assessments = append(assessments, Assessment{Name: name, Message: message})
	}
	return assessments
}
