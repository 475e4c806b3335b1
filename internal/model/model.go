// Package model holds the value objects produced and consumed by the scoring pipeline.
// Every value is created inside a single Score call and never mutated by later stages.
package model

import (
	"errors"
)

// ErrEmptyContent is the only error that leaves the scoring core.
var ErrEmptyContent = errors.New("empty_content")

// Family is a job family derived from the job title.
type Family string

const (
	FamilyCoach        Family = "coach"
	FamilyTeacher      Family = "teacher"
	FamilySales        Family = "sales"
	FamilyEngineer     Family = "engineer"
	FamilyEducationOps Family = "education_ops"
	FamilyGeneric      Family = "generic"
)

// CleanFamily selects the vocabulary that must never appear in narrative output.
type CleanFamily string

const (
	CleanSales   CleanFamily = "sales"
	CleanTeacher CleanFamily = "teacher"
	CleanGeneric CleanFamily = "generic"
)

// Weights is a family weight profile. The four values sum to 1.0.
type Weights struct {
	SkillMatch      float64 `json:"skill_match"`
	ExperienceMatch float64 `json:"experience_match"`
	Stability       float64 `json:"stability"`
	GrowthPotential float64 `json:"growth_potential"`
}

// Of returns the weight of a dimension.
func (w Weights) Of(d Dimension) float64 {
	switch d {
	case DimSkillMatch:
		return w.SkillMatch
	case DimExperienceMatch:
		return w.ExperienceMatch
	case DimStability:
		return w.Stability
	case DimGrowthPotential:
		return w.GrowthPotential
	default:
		return 0
	}
}

// Job is the position a résumé is scored against.
type Job struct {
	Title       string      `json:"job_title"`
	Family      Family      `json:"job_family"`
	JDText      string      `json:"jd_text"`
	Weights     Weights     `json:"weight_profile"`
	CleanFamily CleanFamily `json:"clean_family"`
}

// Dimension is one of the four rubric axes.
type Dimension string

const (
	DimSkillMatch      Dimension = "skill_match"
	DimExperienceMatch Dimension = "experience_match"
	DimStability       Dimension = "stability"
	DimGrowthPotential Dimension = "growth_potential"
)

// MaxDimensionScore is the hard cap of every dimension.
const MaxDimensionScore = 25.0

// EvidenceOrder is the fixed order of dimensions in the evidence chain.
var EvidenceOrder = []Dimension{DimSkillMatch, DimExperienceMatch, DimGrowthPotential, DimStability}

// Label returns a human readable dimension name.
func (d Dimension) Label() string {
	switch d {
	case DimSkillMatch:
		return "Skill match"
	case DimExperienceMatch:
		return "Experience match"
	case DimStability:
		return "Stability"
	case DimGrowthPotential:
		return "Growth potential"
	default:
		return string(d)
	}
}

// DetectedAction is a verb-anchored phrase with its sentence provenance.
type DetectedAction struct {
	VerbPhrase         string   `json:"verb_phrase"`
	Verb               string   `json:"verb"`
	ContainingSentence string   `json:"containing_sentence"`
	ResumeQuote        string   `json:"resume_quote"`
	AbilityTags        []string `json:"ability_tags"`
	Confidence         float64  `json:"confidence"`
}

// HasTag reports whether the action carries the ability tag.
func (a DetectedAction) HasTag(tag string) bool {
	for _, t := range a.AbilityTags {
		if t == tag {
			return true
		}
	}
	return false
}

// EvidenceItem ties a dimension score to a verbatim résumé quote.
type EvidenceItem struct {
	Dimension         Dimension `json:"dimension"`
	ActionPhrase      string    `json:"action_phrase"`
	ResumeQuote       string    `json:"resume_quote"`
	Reasoning         string    `json:"reasoning"`
	ScoreContribution float64   `json:"score_contribution"`
}

// Insufficient reports whether the item is the placeholder for a dimension without actions.
func (e EvidenceItem) Insufficient() bool {
	return e.ActionPhrase == "" && e.ResumeQuote == ""
}

// DimensionScores are the raw sub-scores, each in [0, 25].
type DimensionScores struct {
	SkillMatch      float64 `json:"skill_match"`
	ExperienceMatch float64 `json:"experience_match"`
	Stability       float64 `json:"stability"`
	GrowthPotential float64 `json:"growth_potential"`
}

// Of returns the raw score of a dimension.
func (s DimensionScores) Of(d Dimension) float64 {
	switch d {
	case DimSkillMatch:
		return s.SkillMatch
	case DimExperienceMatch:
		return s.ExperienceMatch
	case DimStability:
		return s.Stability
	case DimGrowthPotential:
		return s.GrowthPotential
	default:
		return 0
	}
}

// Total is the arithmetic sum of the sub-scores.
func (s DimensionScores) Total() float64 {
	return s.SkillMatch + s.ExperienceMatch + s.Stability + s.GrowthPotential
}

// Rescaled maps a raw 0–25 sub-score onto 0–100.
func Rescaled(raw float64) float64 {
	return raw * 100 / MaxDimensionScore
}

// Severity orders risk items.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Rank returns a sortable weight for the severity.
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// RiskKind enumerates risk categories.
type RiskKind string

const (
	RiskInsufficientActions RiskKind = "insufficient_actions"
	RiskLowSkillMatch       RiskKind = "low_skill_match"
	RiskStability           RiskKind = "stability_risk"
	RiskThinText            RiskKind = "thin_text"
	RiskFamilyMismatch      RiskKind = "family_mismatch"
	RiskFictionSuspect      RiskKind = "fiction_suspect"
)

// MaxRisks caps the risks kept in a result.
const MaxRisks = 3

// RiskItem is one derived risk.
type RiskItem struct {
	Kind     RiskKind `json:"kind"`
	Evidence string   `json:"evidence"`
	Reason   string   `json:"reason"`
	Severity Severity `json:"severity"`
}

// WarningCode is a non-fatal data quality signal.
type WarningCode string

const (
	WarningNone                WarningCode = ""
	WarningEmptyContent        WarningCode = "empty_content"
	WarningTextTooShort        WarningCode = "text_too_short"
	WarningImageContent        WarningCode = "image_content"
	WarningFictionSuspect      WarningCode = "fiction_suspect"
	WarningInsufficientActions WarningCode = "insufficient_actions"
	WarningFamilyMismatch      WarningCode = "family_mismatch"
)

// Priority orders warnings when only one code can be reported. Higher wins.
func (w WarningCode) Priority() int {
	switch w {
	case WarningImageContent:
		return 5
	case WarningTextTooShort:
		return 4
	case WarningFictionSuspect:
		return 3
	case WarningInsufficientActions:
		return 2
	case WarningFamilyMismatch:
		return 1
	default:
		return 0
	}
}

// Warning pairs a code with a human readable message.
type Warning struct {
	Code    WarningCode `json:"code"`
	Message string      `json:"message"`
}

// MatchBand buckets the total score into a recommendation level.
type MatchBand string

const (
	BandStronglyRecommend MatchBand = "strongly_recommend"
	BandRecommend         MatchBand = "recommend"
	BandBorderline        MatchBand = "borderline"
	BandWeak              MatchBand = "weak"
	BandNotRecommend      MatchBand = "not_recommend"
)

// ReasoningChain is a structured explanation anchored on one or two dimensions.
type ReasoningChain struct {
	Conclusion      string   `json:"conclusion"`
	DetectedActions []string `json:"detected_actions"`
	ResumeEvidence  []string `json:"resume_evidence"`
	AIReasoning     string   `json:"ai_reasoning"`
	ResumeGap       string   `json:"resume_gap,omitempty"`
	CompareToJD     string   `json:"compare_to_jd,omitempty"`
}

// AIReviewSource tells whether ai_review came from the chat backend or the template.
type AIReviewSource string

const (
	ReviewFromLLM      AIReviewSource = "llm"
	ReviewFromTemplate AIReviewSource = "template"
)

// ScoringResult is the sole public output of the scoring core.
type ScoringResult struct {
	ScoreID     string      `json:"score_id"`
	JobTitle    string      `json:"job_title"`
	JobFamily   Family      `json:"job_family"`
	CleanFamily CleanFamily `json:"clean_family"`
	Weights     Weights     `json:"weight_profile"`

	SkillMatch      float64 `json:"skill_match"`
	ExperienceMatch float64 `json:"experience_match"`
	Stability       float64 `json:"stability"`
	GrowthPotential float64 `json:"growth_potential"`

	SkillMatchScore      float64 `json:"skill_match_score"`
	ExperienceMatchScore float64 `json:"experience_match_score"`
	StabilityScore       float64 `json:"stability_score"`
	GrowthPotentialScore float64 `json:"growth_potential_score"`

	Total         float64   `json:"total"`
	WeightedTotal float64   `json:"weighted_total"`
	MatchBand     MatchBand `json:"match_band"`

	EvidenceChain []EvidenceItem `json:"evidence_chain"`
	Risks         []RiskItem     `json:"risks"`

	AIReview       string         `json:"ai_review"`
	AIReviewSource AIReviewSource `json:"ai_review_source"`
	PersonaTags    []string       `json:"persona_tags"`
	SummaryShort   string         `json:"summary_short"`
	EvidenceText   string         `json:"evidence_text"`

	StrengthsReasoningChain  ReasoningChain `json:"strengths_reasoning_chain"`
	WeaknessesReasoningChain ReasoningChain `json:"weaknesses_reasoning_chain"`

	DetectedActionsCount int `json:"detected_actions_count"`
	EvidenceCount        int `json:"evidence_count"`

	WarningCode    WarningCode `json:"warning_code,omitempty"`
	WarningMessage string      `json:"warning_message,omitempty"`
	Warnings       []Warning   `json:"warnings,omitempty"`

	NormalizedText string `json:"normalized_text"`
}

// Scores returns the raw sub-scores of the result.
func (r *ScoringResult) Scores() DimensionScores {
	return DimensionScores{
		SkillMatch:      r.SkillMatch,
		ExperienceMatch: r.ExperienceMatch,
		Stability:       r.Stability,
		GrowthPotential: r.GrowthPotential,
	}
}
