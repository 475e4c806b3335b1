package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/resume-scorer/internal/actions"
	"github.com/spigell/resume-scorer/internal/logger"
	"github.com/spigell/resume-scorer/internal/model"
	"github.com/spigell/resume-scorer/internal/narrative"
	"github.com/spigell/resume-scorer/internal/normalize"
	"github.com/spigell/resume-scorer/internal/risk"
	"github.com/spigell/resume-scorer/internal/rubric"
)

// Stage names, in execution order.
const (
	StageNormalize = "normalize"
	StageActions   = "actions"
	StageRubric    = "rubric"
	StageRisk      = "risk"
	StageNarrative = "narrative"
)

// Step describes what a stage did: how many items it looked at, dropped and produced.
type Step struct {
	Initial int
	Dropped int
	Left    int
	Details []zap.Field
}

// stage is one pipeline step applied to the per-call state.
type stage struct {
	name  string
	apply func(ctx context.Context, s *state) (Step, error)
}

// state holds every artifact of one Score call. Stages only append to it.
type state struct {
	raw string
	job model.Job
	log *zap.Logger

	doc        *normalize.Document
	detection  actions.Detection
	projection rubric.Projection
	risks      []model.RiskItem
	mismatch   *risk.MismatchResult
	narrative  narrative.Output
}

// runStages executes the stages sequentially and logs one event per stage.
func runStages(ctx context.Context, stages []stage, s *state) error {
	for _, st := range stages {
		info, err := st.apply(ctx, s)
		if err != nil {
			return fmt.Errorf("%s: %w", st.name, err)
		}

		fields := []zap.Field{
			logger.Stage(st.name),
			zap.Int("initial", info.Initial),
			zap.Int("dropped", info.Dropped),
			zap.Int("left", info.Left),
		}
		s.log.Debug("pipeline stage", append(fields, info.Details...)...)
	}
	return nil
}

func (e *Engine) pipeline() []stage {
	return []stage{
		{name: StageNormalize, apply: normalizeStage},
		{name: StageActions, apply: actionsStage},
		{name: StageRubric, apply: rubricStage},
		{name: StageRisk, apply: riskStage},
		{name: StageNarrative, apply: e.narrativeStage},
	}
}

func normalizeStage(_ context.Context, s *state) (Step, error) {
	doc, err := normalize.Normalize(s.raw)
	if err != nil {
		return Step{}, err
	}
	s.doc = doc

	r := doc.Report
	codes := make([]string, 0, len(r.Warnings))
	for _, w := range r.Warnings {
		codes = append(codes, string(w.Code))
	}
	return Step{
		Initial: r.Sentences + r.DroppedSentences,
		Dropped: r.DroppedSentences,
		Left:    r.Sentences,
		Details: []zap.Field{
			zap.Int("raw_runes", r.RawRunes),
			zap.Int("normalized_runes", r.NormalizedRunes),
			zap.Strings("warnings", codes),
		},
	}, nil
}

func actionsStage(_ context.Context, s *state) (Step, error) {
	s.detection = actions.Detect(s.doc)

	n := len(s.detection.Actions)
	return Step{
		Initial: len(s.doc.Sentences),
		Dropped: len(s.doc.Sentences) - n,
		Left:    n,
		Details: []zap.Field{zap.String("warning", string(s.detection.Warning.Code))},
	}, nil
}

func rubricStage(_ context.Context, s *state) (Step, error) {
	s.projection = rubric.Project(s.doc, s.detection.Actions, s.job)

	sc := s.projection.Scores
	return Step{
		Initial: len(s.detection.Actions),
		Left:    len(s.projection.Evidence),
		Details: []zap.Field{
			zap.Float64("skill_match", sc.SkillMatch),
			zap.Float64("experience_match", sc.ExperienceMatch),
			zap.Float64("stability", sc.Stability),
			zap.Float64("growth_potential", sc.GrowthPotential),
			zap.Float64("total", s.projection.Total),
		},
	}, nil
}

func riskStage(_ context.Context, s *state) (Step, error) {
	s.risks = risk.Analyze(risk.Input{
		Text:    s.doc.Text,
		Actions: s.detection.Actions,
		Scores:  s.projection.Scores,
		Report:  s.doc.Report,
		Job:     s.job,
	})
	if m, ok := risk.Mismatch(s.job, s.doc.Text); ok {
		s.mismatch = &m
	}

	kinds := make([]string, 0, len(s.risks))
	for _, r := range s.risks {
		kinds = append(kinds, string(r.Kind))
	}
	return Step{Left: len(s.risks), Details: []zap.Field{zap.Strings("kinds", kinds)}}, nil
}

func (e *Engine) narrativeStage(ctx context.Context, s *state) (Step, error) {
	s.narrative = e.synth.Synthesize(ctx, narrative.Input{
		Doc:        s.doc,
		Job:        s.job,
		Actions:    s.detection.Actions,
		Projection: s.projection,
		Risks:      s.risks,
	}, s.log)

	return Step{
		Left: len(s.narrative.PersonaTags),
		Details: []zap.Field{
			zap.String("ai_review_source", string(s.narrative.AIReviewSource)),
			zap.String("fallback_reason", string(s.narrative.FallbackReason)),
		},
	}, nil
}
