package narrative

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/resume-scorer/internal/ai"
	"github.com/spigell/resume-scorer/internal/lexicon"
	"github.com/spigell/resume-scorer/internal/model"
	"github.com/spigell/resume-scorer/internal/utils"
)

// Section headers of ai_review.
const (
	HeaderEvidence   = "【Evidence】"
	HeaderReasoning  = "【Reasoning】"
	HeaderConclusion = "【Conclusion】"
)

const (
	minReviewQuotes = 3
	maxReviewQuotes = 5
	gapThreshold    = 20
	systemPrompt    = "You are a careful recruiting analyst. Cite only the résumé quotes you are given and never invent facts."
)

//go:embed prompt.md
var promptTemplate string

// TemplateReview renders the deterministic three-section review.
func TemplateReview(in Input) string {
	var b strings.Builder

	b.WriteString(HeaderEvidence)
	b.WriteString("\n")
	quotes := reviewQuotes(in)
	if len(quotes) == 0 {
		b.WriteString("1. No verifiable action was found in the résumé.\n")
	}
	for i, q := range quotes {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q)
	}

	b.WriteString(HeaderReasoning)
	b.WriteString("\n")
	for _, line := range reasoningLines(in) {
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString(HeaderConclusion)
	b.WriteString("\n")
	b.WriteString(Conclusion(in.Projection.Total))

	return lexicon.Scrub(in.Job.CleanFamily, b.String())
}

// reviewQuotes picks 3–5 distinct quotes, skill and experience evidence first.
func reviewQuotes(in Input) []string {
	var quotes []string
	seen := make(map[string]struct{})
	add := func(q string) {
		q = completeSentence(q)
		if q == "" || len(quotes) == maxReviewQuotes {
			return
		}
		if _, ok := seen[q]; ok {
			return
		}
		seen[q] = struct{}{}
		quotes = append(quotes, q)
	}

	for _, dim := range []model.Dimension{model.DimSkillMatch, model.DimExperienceMatch} {
		for _, e := range in.Projection.Evidence {
			if e.Dimension == dim && !e.Insufficient() {
				add(e.ResumeQuote)
			}
		}
	}
	for _, e := range in.Projection.Evidence {
		if !e.Insufficient() {
			add(e.ResumeQuote)
		}
	}
	if len(quotes) < minReviewQuotes {
		for _, a := range in.usableActions() {
			add(a.ResumeQuote)
		}
	}
	return quotes
}

func reasoningLines(in Input) []string {
	p := in.Projection
	sig := p.Signals
	skill := rescaled(p.Scores.SkillMatch)
	exp := rescaled(p.Scores.ExperienceMatch)
	growth := rescaled(p.Scores.GrowthPotential)
	stab := rescaled(p.Scores.Stability)

	var covered []string
	for _, tag := range sig.CoreAbilities {
		if sig.CoreHits[tag] > 0 {
			covered = append(covered, tag)
		}
	}
	coverage := "none evidenced"
	if len(covered) > 0 {
		coverage = strings.Join(covered, ", ")
	}

	lines := []string{
		fmt.Sprintf("%s %d/100: %s coverage of the core abilities (%s).",
			model.DimSkillMatch.Label(), skill, level(skill), coverage),
		fmt.Sprintf("%s %d/100: %d of %d actions fall in scenarios named by the job.",
			model.DimExperienceMatch.Label(), exp, sig.ScenarioMatches, len(in.Actions)),
		fmt.Sprintf("%s %d/100: %d actions show learning or review, with %d achievement markers.",
			model.DimGrowthPotential.Label(), growth, sig.GrowthActions, sig.GrowthIndicators),
		fmt.Sprintf("%s %d/100: tenure proxy of %.0f years across %d employer mention(s).",
			model.DimStability.Label(), stab, sig.TenureYears, sig.Employers),
	}

	switch gap := growth - exp; {
	case gap >= gapThreshold:
		lines = append(lines, fmt.Sprintf("Growth outpaces current experience by %d points; the candidate suits a role with room to ramp up.", gap))
	case gap <= -gapThreshold:
		lines = append(lines, fmt.Sprintf("Experience leads growth signals by %d points; expect a steady performer rather than a fast learner.", -gap))
	default:
		lines = append(lines, fmt.Sprintf("Growth and experience are balanced (gap of %d points).", gap))
	}
	return lines
}

// Conclusion maps a total score onto one of five recommendations.
func Conclusion(total float64) string {
	switch {
	case total >= 85:
		return "Strongly recommended: the evidence covers the core demands of the role."
	case total >= 75:
		return "Recommended for interview; probe the weaker dimensions in conversation."
	case total >= 65:
		return "Borderline: interview only if the pipeline is thin."
	case total >= 50:
		return "Weak match: keep on file for related openings."
	default:
		return "Not recommended for this role."
	}
}

func level(score int) string {
	switch {
	case score >= 80:
		return "strong"
	case score >= 60:
		return "solid"
	case score >= 40:
		return "moderate"
	default:
		return "limited"
	}
}

func rescaled(raw float64) int {
	return int(math.Round(model.Rescaled(raw)))
}

var errMissingSection = errors.New("response lacks a required section")

// chatReview asks the backend for a review. Any failure is reported as a fallback reason.
func (s *Synthesizer) chatReview(ctx context.Context, in Input, log *zap.Logger) (string, FallbackReason) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	prompt := renderPrompt(in)
	log.Debug("ai review request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, s.opts.MaxLogLength)),
	)

	resp, err := s.backend.Chat(ctx, ai.ChatRequest{
		Messages: []ai.Message{
			{Role: ai.RoleSystem, Content: systemPrompt},
			{Role: ai.RoleUser, Content: prompt},
		},
		Temperature: s.opts.Temperature,
		MaxTokens:   s.opts.MaxTokens,
	})
	if err != nil {
		reason := FallbackTransport
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			reason = FallbackTimeout
		}
		log.Warn("ai review failed, using template", zap.String("reason", string(reason)), zap.Error(err))
		return "", reason
	}

	review, err := parseReview(resp.Content, in.Job.CleanFamily)
	if err != nil {
		log.Warn("ai review malformed, using template",
			zap.Error(err),
			zap.String("response_preview", utils.TruncateForLog(resp.Content, s.opts.MaxLogLength)),
		)
		return "", FallbackMalformed
	}
	return review, FallbackNone
}

func parseReview(raw string, cf model.CleanFamily) (string, error) {
	review := stripFences(raw)
	for _, h := range []string{HeaderEvidence, HeaderReasoning, HeaderConclusion} {
		if !strings.Contains(review, h) {
			return "", fmt.Errorf("%w: %s", errMissingSection, h)
		}
	}
	return strings.TrimSpace(lexicon.Scrub(cf, review)), nil
}

func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```markdown")
		raw = strings.TrimPrefix(raw, "```text")
		raw = strings.TrimPrefix(raw, "```")
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	return strings.TrimSpace(raw)
}

func renderPrompt(in Input) string {
	var evidence strings.Builder
	for _, e := range in.Projection.Evidence {
		if e.Insufficient() {
			continue
		}
		fmt.Fprintf(&evidence, "- [%s] %s\n", e.Dimension, e.ResumeQuote)
	}
	if evidence.Len() == 0 {
		evidence.WriteString("- (no verifiable actions)\n")
	}

	var risks strings.Builder
	for _, r := range in.Risks {
		fmt.Fprintf(&risks, "- %s (%s): %s\n", r.Kind, r.Severity, r.Reason)
	}
	if risks.Len() == 0 {
		risks.WriteString("- none\n")
	}

	scores := in.Projection.Scores
	forbidden := strings.Join(lexicon.Forbidden(in.Job.CleanFamily), ", ")
	if forbidden == "" {
		forbidden = "none"
	}

	r := strings.NewReplacer(
		"{{JOB_TITLE}}", in.Job.Title,
		"{{JOB_FAMILY}}", string(in.Job.Family),
		"{{SKILL}}", fmt.Sprint(rescaled(scores.SkillMatch)),
		"{{EXPERIENCE}}", fmt.Sprint(rescaled(scores.ExperienceMatch)),
		"{{GROWTH}}", fmt.Sprint(rescaled(scores.GrowthPotential)),
		"{{STABILITY}}", fmt.Sprint(rescaled(scores.Stability)),
		"{{TOTAL}}", fmt.Sprintf("%.1f", in.Projection.Total),
		"{{EVIDENCE}}", strings.TrimRight(evidence.String(), "\n"),
		"{{RISKS}}", strings.TrimRight(risks.String(), "\n"),
		"{{FORBIDDEN}}", forbidden,
	)
	return r.Replace(promptTemplate)
}
