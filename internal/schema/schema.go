// Package schema guards the public shape of a ScoringResult: Validate checks it against the
// embedded JSON schema and Repair fills neutral defaults for missing fields.
package schema

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/spigell/resume-scorer/internal/model"
	"github.com/spigell/resume-scorer/internal/narrative"
)

//go:embed result.schema.json
var resultSchema []byte

var compiled = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(resultSchema))
})

// ValidationError lists every schema violation of one result.
type ValidationError struct {
	Errors []FieldError
}

// FieldError is a single violation at a field path.
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("scoring result does not match schema:")
	for i, err := range ve.Errors {
		fmt.Fprintf(&sb, " %d. %s: %s;", i+1, err.Field, err.Message)
	}
	return strings.TrimSuffix(sb.String(), ";")
}

// Fields returns the offending field paths.
func (ve *ValidationError) Fields() []string {
	out := make([]string, 0, len(ve.Errors))
	for _, e := range ve.Errors {
		out = append(out, e.Field)
	}
	return out
}

// Validate checks r against the result schema. A *ValidationError describes violations; any
// other error means the schema or the document could not be loaded.
func Validate(r *model.ScoringResult) error {
	if r == nil {
		return &ValidationError{Errors: []FieldError{{Field: "(root)", Message: "result is nil"}}}
	}

	s, err := compiled()
	if err != nil {
		return fmt.Errorf("load result schema: %w", err)
	}

	doc, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal scoring result: %w", err)
	}

	res, err := s.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("validate scoring result: %w", err)
	}
	if res.Valid() {
		return nil
	}

	ve := &ValidationError{Errors: make([]FieldError, 0, len(res.Errors()))}
	for _, desc := range res.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		ve.Errors = append(ve.Errors, FieldError{Field: field, Message: desc.Description()})
	}
	return ve
}

// Repair fills missing values with neutral defaults and returns the JSON names of the fields it
// touched. Non-empty values are never overwritten.
func Repair(r *model.ScoringResult) []string {
	if r == nil {
		return nil
	}
	var repaired []string
	mark := func(name string) { repaired = append(repaired, name) }

	if r.EvidenceChain == nil {
		r.EvidenceChain = []model.EvidenceItem{}
		mark("evidence_chain")
	}
	if r.Risks == nil {
		r.Risks = []model.RiskItem{}
		mark("risks")
	}
	if r.PersonaTags == nil {
		r.PersonaTags = []string{}
		mark("persona_tags")
	}
	fillString(&r.AIReview, "ai_review", mark)
	fillString(&r.SummaryShort, "summary_short", mark)
	fillString(&r.EvidenceText, "evidence_text", mark)
	if r.AIReviewSource == "" {
		r.AIReviewSource = model.ReviewFromTemplate
		mark("ai_review_source")
	}
	if r.CleanFamily == "" {
		r.CleanFamily = model.CleanGeneric
		mark("clean_family")
	}
	if r.JobFamily == "" {
		r.JobFamily = model.FamilyGeneric
		mark("job_family")
	}

	repairChain(&r.StrengthsReasoningChain, "strengths_reasoning_chain", mark)
	repairChain(&r.WeaknessesReasoningChain, "weaknesses_reasoning_chain", mark)

	for i := range r.EvidenceChain {
		fillString(&r.EvidenceChain[i].Reasoning, fmt.Sprintf("evidence_chain.%d.reasoning", i), mark)
	}
	return repaired
}

func repairChain(c *model.ReasoningChain, name string, mark func(string)) {
	fillString(&c.Conclusion, name+".conclusion", mark)
	fillString(&c.AIReasoning, name+".ai_reasoning", mark)
	if c.DetectedActions == nil {
		c.DetectedActions = []string{}
		mark(name + ".detected_actions")
	}
	if c.ResumeEvidence == nil {
		c.ResumeEvidence = []string{}
		mark(name + ".resume_evidence")
	}
}

func fillString(s *string, name string, mark func(string)) {
	if strings.TrimSpace(*s) != "" {
		return
	}
	*s = narrative.Placeholder
	mark(name)
}
