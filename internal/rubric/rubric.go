// Package rubric projects detected actions onto the four scoring dimensions and builds the
// evidence chain that backs every sub-score.
package rubric

import (
	"fmt"
	"math"
	"strings"

	"github.com/spigell/resume-scorer/internal/lexicon"
	"github.com/spigell/resume-scorer/internal/model"
	"github.com/spigell/resume-scorer/internal/normalize"
)

const (
	// NeutralFloor is the score of a dimension that has no actions to judge.
	NeutralFloor = 10.0
	// DefaultTenureYears is used when the text carries no N年/N岁 figure.
	DefaultTenureYears = 3.0
	// MaxEvidencePerDimension caps evidence items per dimension.
	MaxEvidencePerDimension = 3

	perCoreAbilityCap   = 5.0
	perCoreAbilityValue = 1.5
	experienceWindow    = 5
	stabilityWindow     = 3
	busyResumeActions   = 8
)

// Signals are the intermediate counts behind the sub-scores.
type Signals struct {
	CoreAbilities    []string
	CoreHits         map[string]int
	ScenarioKeywords []string
	ScenarioMatches  int
	TenureYears      float64
	Employers        int
	Span             float64
	GrowthActions    int
	GrowthIndicators int
}

// Projection is the output of the projector.
type Projection struct {
	Scores        model.DimensionScores
	Total         float64
	WeightedTotal float64
	Evidence      []model.EvidenceItem
	Signals       Signals
}

// Project scores actions against the job. It never fails; missing evidence lowers scores or
// falls back to neutral floors.
func Project(doc *normalize.Document, actions []model.DetectedAction, job model.Job) Projection {
	text := ""
	if doc != nil {
		text = doc.Text
	}

	sig := Signals{
		CoreAbilities:    lexicon.CoreAbilities(job.Family),
		ScenarioKeywords: ScenarioKeywords(job),
	}

	scores := model.DimensionScores{
		SkillMatch:      round1(skillMatch(actions, &sig)),
		ExperienceMatch: round1(experienceMatch(actions, &sig)),
		Stability:       round1(stability(text, actions, &sig)),
		GrowthPotential: round1(growthPotential(text, actions, &sig)),
	}

	return Projection{
		Scores:        scores,
		Total:         round1(scores.Total()),
		WeightedTotal: WeightedTotal(scores, job.Weights),
		Evidence:      evidenceChain(actions, job, scores, sig),
		Signals:       sig,
	}
}

// WeightedTotal rescales every dimension onto 0–100 and averages them with the job weights.
func WeightedTotal(s model.DimensionScores, w model.Weights) float64 {
	var sum float64
	for _, d := range model.EvidenceOrder {
		sum += s.Of(d) / model.MaxDimensionScore * w.Of(d) * 100
	}
	return round1(sum)
}

func skillMatch(actions []model.DetectedAction, sig *Signals) float64 {
	sig.CoreHits = make(map[string]int, len(sig.CoreAbilities))
	if len(actions) == 0 {
		return NeutralFloor
	}
	var score float64
	for _, tag := range sig.CoreAbilities {
		for _, a := range actions {
			if a.HasTag(tag) {
				sig.CoreHits[tag]++
			}
		}
		score += math.Min(perCoreAbilityCap, float64(sig.CoreHits[tag])*perCoreAbilityValue)
	}
	return clamp(score)
}

func experienceMatch(actions []model.DetectedAction, sig *Signals) float64 {
	if len(actions) == 0 {
		return NeutralFloor
	}
	for _, a := range actions {
		if containsAny(a.ContainingSentence, sig.ScenarioKeywords) {
			sig.ScenarioMatches++
		}
	}
	return clamp(2*float64(sig.ScenarioMatches) + 0.8*float64(len(actions)))
}

// stability is a coarse tenure proxy: the largest N年/N岁 figure divided by employer nouns in the
// first action's sentence.
func stability(text string, actions []model.DetectedAction, sig *Signals) float64 {
	sig.TenureYears = DefaultTenureYears
	if y, ok := normalize.LargestYearOrAge(text); ok {
		sig.TenureYears = float64(y)
	}
	sig.Employers = 1
	if len(actions) > 0 {
		sig.Employers = max(1, lexicon.CountEmployerWords(actions[0].ContainingSentence))
	}
	sig.Span = sig.TenureYears / float64(sig.Employers)

	if len(actions) == 0 {
		return NeutralFloor
	}
	switch {
	case sig.Span >= 3:
		return 20
	case sig.Span >= 2:
		return 15
	case sig.Span >= 1:
		return 10
	default:
		return 5
	}
}

func growthPotential(text string, actions []model.DetectedAction, sig *Signals) float64 {
	sig.GrowthIndicators = lexicon.CountGrowthIndicators(text)
	if len(actions) == 0 {
		return NeutralFloor
	}
	for _, a := range actions {
		if lexicon.HasGrowthKeyword(a.ContainingSentence) {
			sig.GrowthActions++
		}
	}
	score := 2.5*float64(sig.GrowthActions) + 1.5*float64(sig.GrowthIndicators)
	if len(actions) > busyResumeActions {
		score += 3
	}
	return clamp(score)
}

func evidenceChain(actions []model.DetectedAction, job model.Job, scores model.DimensionScores, sig Signals) []model.EvidenceItem {
	usable := make([]model.DetectedAction, 0, len(actions))
	for _, a := range actions {
		if lexicon.ContainsForbidden(job.CleanFamily, a.ContainingSentence) {
			continue
		}
		usable = append(usable, a)
	}

	var chain []model.EvidenceItem
	for _, dim := range model.EvidenceOrder {
		relevant := Relevant(dim, usable, sig.CoreAbilities)
		if len(relevant) == 0 {
			chain = append(chain, model.EvidenceItem{
				Dimension: dim,
				Reasoning: insufficientReasoning(dim),
			})
			continue
		}
		contribution := round2(scores.Of(dim) / float64(max(1, len(relevant))))
		for _, a := range relevant[:min(MaxEvidencePerDimension, len(relevant))] {
			chain = append(chain, model.EvidenceItem{
				Dimension:         dim,
				ActionPhrase:      a.VerbPhrase,
				ResumeQuote:       a.ResumeQuote,
				Reasoning:         reasoning(dim, a, job, sig),
				ScoreContribution: contribution,
			})
		}
	}
	return chain
}

// Relevant returns the actions that speak for a dimension, in document order.
func Relevant(dim model.Dimension, actions []model.DetectedAction, core []string) []model.DetectedAction {
	var out []model.DetectedAction
	switch dim {
	case model.DimSkillMatch:
		for _, a := range actions {
			if intersects(a.AbilityTags, core) {
				out = append(out, a)
			}
		}
	case model.DimExperienceMatch:
		out = actions[:min(experienceWindow, len(actions))]
	case model.DimGrowthPotential:
		for _, a := range actions {
			if lexicon.HasGrowthKeyword(a.ContainingSentence) {
				out = append(out, a)
			}
		}
	case model.DimStability:
		out = actions[:min(stabilityWindow, len(actions))]
	}
	return out
}

func reasoning(dim model.Dimension, a model.DetectedAction, job model.Job, sig Signals) string {
	switch dim {
	case model.DimSkillMatch:
		var hit []string
		for _, t := range a.AbilityTags {
			if contains(sig.CoreAbilities, t) {
				hit = append(hit, t)
			}
		}
		return fmt.Sprintf("Shows %s, a core ability for %s roles.", strings.Join(hit, " and "), job.Family)
	case model.DimExperienceMatch:
		if containsAny(a.ContainingSentence, sig.ScenarioKeywords) {
			return "Hands-on experience in a scenario named by the job description."
		}
		return fmt.Sprintf("Hands-on %s experience that transfers to the role.", a.AbilityTags[0])
	case model.DimGrowthPotential:
		return "Reflects learning, review or improvement beyond routine duties."
	case model.DimStability:
		return fmt.Sprintf("Tenure proxy of %.0f years across %d employer mention(s).", sig.TenureYears, sig.Employers)
	default:
		return ""
	}
}

func insufficientReasoning(dim model.Dimension) string {
	switch dim {
	case model.DimSkillMatch:
		return "Insufficient information: no action shows a core ability of the role."
	case model.DimExperienceMatch:
		return "Insufficient information: no concrete work experience was found."
	case model.DimGrowthPotential:
		return "Insufficient information: no learning or improvement activity was found."
	case model.DimStability:
		return "Insufficient information: tenure cannot be judged from the résumé."
	default:
		return "Insufficient information."
	}
}

func intersects(tags, core []string) bool {
	for _, t := range tags {
		if contains(core, t) {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(model.MaxDimensionScore, v))
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func round2(v float64) float64 { return math.Round(v*100) / 100 }
