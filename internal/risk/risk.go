// Package risk derives risk items from the scoring artifacts and buckets totals into match bands.
package risk

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/spigell/resume-scorer/internal/lexicon"
	"github.com/spigell/resume-scorer/internal/model"
	"github.com/spigell/resume-scorer/internal/normalize"
)

const (
	minActions        = 3
	lowSkillScore     = 10.0
	lowStabilityScore = 10.0
	thinTextRunes     = 500
	mismatchCoreHits  = 3
)

// Input bundles what the analyzer looks at.
type Input struct {
	Text    string
	Actions []model.DetectedAction
	Scores  model.DimensionScores
	Report  normalize.Report
	Job     model.Job
}

// Analyze applies the risk rules in order, sorts by severity (stable) and keeps at most MaxRisks.
func Analyze(in Input) []model.RiskItem {
	var risks []model.RiskItem

	if n := len(in.Actions); n < minActions {
		risks = append(risks, model.RiskItem{
			Kind:     model.RiskInsufficientActions,
			Evidence: fmt.Sprintf("%d complete actions detected", n),
			Reason:   "too few concrete actions to support the scores",
			Severity: model.SeverityHigh,
		})
	}
	if in.Scores.SkillMatch < lowSkillScore {
		risks = append(risks, model.RiskItem{
			Kind:     model.RiskLowSkillMatch,
			Evidence: fmt.Sprintf("skill match %.1f of %.0f", in.Scores.SkillMatch, model.MaxDimensionScore),
			Reason:   "few actions exercise the core abilities of the role",
			Severity: model.SeverityHigh,
		})
	}
	if in.Scores.Stability < lowStabilityScore {
		risks = append(risks, model.RiskItem{
			Kind:     model.RiskStability,
			Evidence: fmt.Sprintf("stability %.1f of %.0f", in.Scores.Stability, model.MaxDimensionScore),
			Reason:   "short average tenure per employer",
			Severity: model.SeverityMedium,
		})
	}
	if n := utf8.RuneCountInString(in.Text); n < thinTextRunes {
		risks = append(risks, model.RiskItem{
			Kind:     model.RiskThinText,
			Evidence: fmt.Sprintf("%d characters of résumé text", n),
			Reason:   "the résumé is too brief to judge reliably",
			Severity: model.SeverityMedium,
		})
	}
	if m, ok := Mismatch(in.Job, in.Text); ok {
		risks = append(risks, model.RiskItem{
			Kind: model.RiskFamilyMismatch,
			Evidence: fmt.Sprintf("no %s core ability found; %s abilities present: %s",
				in.Job.Family, m.Family, strings.Join(m.Grounded, ", ")),
			Reason:   "the résumé reads like a different job family",
			Severity: model.SeverityMedium,
		})
	}
	for _, w := range in.Report.Warnings {
		if w.Code == model.WarningFictionSuspect {
			risks = append(risks, model.RiskItem{
				Kind:     model.RiskFictionSuspect,
				Evidence: w.Message,
				Reason:   "stated facts contradict each other",
				Severity: model.SeverityLow,
			})
		}
	}

	sort.SliceStable(risks, func(i, j int) bool {
		return risks[i].Severity.Rank() > risks[j].Severity.Rank()
	})
	if len(risks) > model.MaxRisks {
		risks = risks[:model.MaxRisks]
	}
	return risks
}

// MismatchResult names the family a résumé appears to belong to instead.
type MismatchResult struct {
	Family   model.Family
	Grounded []string
}

// Mismatch reports whether none of the job family's core abilities is grounded in text while at
// least three core abilities of another family are. Generic jobs never mismatch.
func Mismatch(job model.Job, text string) (MismatchResult, bool) {
	if job.Family == model.FamilyGeneric || job.Family == "" || text == "" {
		return MismatchResult{}, false
	}
	if len(grounded(lexicon.CoreAbilities(job.Family), text)) > 0 {
		return MismatchResult{}, false
	}

	var best MismatchResult
	for _, f := range lexicon.Families() {
		if f == job.Family {
			continue
		}
		g := grounded(lexicon.CoreAbilities(f), text)
		if len(g) > len(best.Grounded) {
			best = MismatchResult{Family: f, Grounded: g}
		}
	}
	return best, len(best.Grounded) >= mismatchCoreHits
}

func grounded(tags []string, text string) []string {
	var out []string
	for _, t := range tags {
		if lexicon.Grounded(t, text) {
			out = append(out, t)
		}
	}
	return out
}

// Band maps a total score and its risks onto a recommendation level.
func Band(total float64, risks []model.RiskItem) model.MatchBand {
	high := 0
	for _, r := range risks {
		if r.Severity == model.SeverityHigh {
			high++
		}
	}
	switch {
	case total >= 85 && high == 0:
		return model.BandStronglyRecommend
	case total >= 75 && high <= 1:
		return model.BandRecommend
	case total >= 65:
		return model.BandBorderline
	case total >= 50:
		return model.BandWeak
	default:
		return model.BandNotRecommend
	}
}
