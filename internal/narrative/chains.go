package narrative

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spigell/resume-scorer/internal/lexicon"
	"github.com/spigell/resume-scorer/internal/model"
	"github.com/spigell/resume-scorer/internal/rubric"
)

const chainItems = 3

type dimScore struct {
	dim   model.Dimension
	score int
}

// rankedDimensions orders dimensions by rescaled score, highest first. Ties keep evidence order.
func rankedDimensions(s model.DimensionScores) []dimScore {
	out := make([]dimScore, 0, len(model.EvidenceOrder))
	for _, d := range model.EvidenceOrder {
		out = append(out, dimScore{dim: d, score: rescaled(s.Of(d))})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].score > out[j].score })
	return out
}

// StrengthsChain is anchored on the higher of skill match and experience match.
func StrengthsChain(in Input) model.ReasoningChain {
	s := in.Projection.Scores
	anchor := model.DimSkillMatch
	if s.ExperienceMatch > s.SkillMatch {
		anchor = model.DimExperienceMatch
	}

	phrases, quotes := chainEvidence(in, anchor)
	top := rankedDimensions(s)

	chain := model.ReasoningChain{
		Conclusion:      fmt.Sprintf("Strongest fit on %s (%d/100).", strings.ToLower(anchor.Label()), rescaled(s.Of(anchor))),
		DetectedActions: phrases,
		ResumeEvidence:  quotes,
		AIReasoning: fmt.Sprintf("Highest dimensions: %s %d/100 and %s %d/100.",
			top[0].dim.Label(), top[0].score, top[1].dim.Label(), top[1].score),
	}
	return scrubChain(chain, in.Job.CleanFamily)
}

// WeaknessesChain is anchored on the lowest-scoring dimension.
func WeaknessesChain(in Input) model.ReasoningChain {
	s := in.Projection.Scores
	ranked := rankedDimensions(s)
	low := ranked[len(ranked)-1]
	high := ranked[0]

	phrases, quotes := chainEvidence(in, low.dim)
	reasoning := fmt.Sprintf("%s trails %s by %d points.", low.dim.Label(), strings.ToLower(high.dim.Label()), high.score-low.score)
	if high.score == low.score {
		reasoning = fmt.Sprintf("All dimensions score %d/100; no single weakness stands out.", low.score)
	}

	chain := model.ReasoningChain{
		Conclusion:      fmt.Sprintf("Weakest on %s (%d/100).", strings.ToLower(low.dim.Label()), low.score),
		DetectedActions: phrases,
		ResumeEvidence:  quotes,
		AIReasoning:     reasoning,
		ResumeGap:       resumeGap(in, low.dim),
		CompareToJD:     compareToJD(in),
	}
	return scrubChain(chain, in.Job.CleanFamily)
}

// chainEvidence returns up to three phrases and quotes, the anchor dimension's evidence first.
func chainEvidence(in Input, anchor model.Dimension) ([]string, []string) {
	phrases, quotes := []string{}, []string{}
	seenP, seenQ := map[string]struct{}{}, map[string]struct{}{}

	for _, e := range in.Projection.Evidence {
		if e.Dimension == anchor && !e.Insufficient() {
			phrases = appendUnique(phrases, seenP, chainItems, e.ActionPhrase)
			quotes = appendUnique(quotes, seenQ, chainItems, e.ResumeQuote)
		}
	}
	for _, e := range in.Projection.Evidence {
		if !e.Insufficient() {
			phrases = appendUnique(phrases, seenP, chainItems, e.ActionPhrase)
			quotes = appendUnique(quotes, seenQ, chainItems, e.ResumeQuote)
		}
	}
	return phrases, quotes
}

func resumeGap(in Input, dim model.Dimension) string {
	sig := in.Projection.Signals
	switch dim {
	case model.DimSkillMatch:
		var missing []string
		for _, t := range sig.CoreAbilities {
			if sig.CoreHits[t] == 0 {
				missing = append(missing, t)
			}
		}
		if len(missing) == 0 {
			return "Every core ability is evidenced, but by few actions."
		}
		return "Core abilities without evidence: " + strings.Join(missing, ", ") + "."
	case model.DimExperienceMatch:
		return fmt.Sprintf("Only %d of %d actions happen in scenarios the job names.", sig.ScenarioMatches, len(in.Actions))
	case model.DimGrowthPotential:
		return fmt.Sprintf("%d actions show learning or review and %d achievement markers were found.", sig.GrowthActions, sig.GrowthIndicators)
	case model.DimStability:
		return fmt.Sprintf("Tenure proxy of %.0f years across %d employer mention(s).", sig.TenureYears, sig.Employers)
	default:
		return Placeholder
	}
}

func compareToJD(in Input) string {
	if strings.TrimSpace(in.Job.JDText) == "" {
		return fmt.Sprintf("No job description provided; compared against the %s family profile.", in.Job.Family)
	}
	keywords := in.Projection.Signals.ScenarioKeywords
	if len(keywords) == 0 {
		keywords = rubric.ScenarioKeywords(in.Job)
	}

	text := in.text()
	var found []string
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			found = append(found, kw)
		}
	}
	if len(found) == 0 {
		return fmt.Sprintf("None of %d job description keywords appear in the résumé.", len(keywords))
	}
	return fmt.Sprintf("%d of %d job description keywords appear in the résumé: %s.",
		len(found), len(keywords), strings.Join(found[:min(5, len(found))], ", "))
}

func scrubChain(c model.ReasoningChain, cf model.CleanFamily) model.ReasoningChain {
	c.Conclusion = lexicon.Scrub(cf, c.Conclusion)
	c.AIReasoning = lexicon.Scrub(cf, c.AIReasoning)
	c.ResumeGap = lexicon.Scrub(cf, c.ResumeGap)
	c.CompareToJD = lexicon.Scrub(cf, c.CompareToJD)
	for i := range c.DetectedActions {
		c.DetectedActions[i] = lexicon.Scrub(cf, c.DetectedActions[i])
	}
	for i := range c.ResumeEvidence {
		c.ResumeEvidence[i] = lexicon.Scrub(cf, c.ResumeEvidence[i])
	}
	return c
}
