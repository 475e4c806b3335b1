// Package jobs builds the Job value a résumé is scored against.
package jobs

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/spigell/resume-scorer/internal/lexicon"
	"github.com/spigell/resume-scorer/internal/model"
)

// Spec is the user-facing description of a job, as found in configuration files.
type Spec struct {
	Title  string `mapstructure:"title"`
	JD     string `mapstructure:"jd"`
	Family string `mapstructure:"family"`
}

// New derives the job family, clean family and weight profile from the title.
func New(title, jdText string) model.Job {
	return WithFamily(title, jdText, lexicon.FamilyForTitle(title))
}

// WithFamily builds a job with an explicit family.
func WithFamily(title, jdText string, family model.Family) model.Job {
	return model.Job{
		Title:       strings.TrimSpace(title),
		Family:      family,
		JDText:      strings.TrimSpace(jdText),
		Weights:     lexicon.WeightProfile(family),
		CleanFamily: lexicon.CleanFamilyFor(family),
	}
}

// FromSpec builds a job from a spec. An explicit family overrides the title rules.
func FromSpec(spec Spec) (model.Job, error) {
	if strings.TrimSpace(spec.Family) == "" {
		return New(spec.Title, spec.JD), nil
	}
	family, err := ParseFamily(spec.Family)
	if err != nil {
		return model.Job{}, err
	}
	return WithFamily(spec.Title, spec.JD, family), nil
}

// Decode turns a raw configuration section into a Spec.
func Decode(raw map[string]any) (Spec, error) {
	var spec Spec
	if len(raw) == 0 {
		return spec, nil
	}
	if err := mapstructure.Decode(raw, &spec); err != nil {
		return spec, fmt.Errorf("decode job section: %w", err)
	}
	return spec, nil
}

// ParseFamily validates a family name.
func ParseFamily(name string) (model.Family, error) {
	f := model.Family(strings.ToLower(strings.TrimSpace(name)))
	switch f {
	case model.FamilyCoach, model.FamilyTeacher, model.FamilySales,
		model.FamilyEngineer, model.FamilyEducationOps, model.FamilyGeneric:
		return f, nil
	default:
		return "", fmt.Errorf("unknown job family: %q", name)
	}
}

// FamilyNames lists every accepted family name.
func FamilyNames() []string {
	names := make([]string, 0, 6)
	for _, f := range lexicon.Families() {
		names = append(names, string(f))
	}
	return append(names, string(model.FamilyGeneric))
}
