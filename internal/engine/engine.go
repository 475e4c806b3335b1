// Package engine binds the scoring stages into a single call that turns résumé text into a
// ScoringResult.
package engine

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/resume-scorer/internal/ai"
	"github.com/spigell/resume-scorer/internal/config"
	"github.com/spigell/resume-scorer/internal/jobs"
	"github.com/spigell/resume-scorer/internal/logger"
	"github.com/spigell/resume-scorer/internal/model"
	"github.com/spigell/resume-scorer/internal/narrative"
	"github.com/spigell/resume-scorer/internal/risk"
	"github.com/spigell/resume-scorer/internal/schema"
)

// Observer receives the outcome of every Score call, e.g. a metrics recorder.
type Observer interface {
	ObserveScore(res *model.ScoringResult, fallback string, elapsed time.Duration)
	ObserveFailure(err error)
}

type nopObserver struct{}

func (nopObserver) ObserveScore(*model.ScoringResult, string, time.Duration) {}
func (nopObserver) ObserveFailure(error)                                     {}

// Engine scores résumés. It is immutable after New and safe for concurrent use; every Score
// call allocates its own state.
type Engine struct {
	synth    *narrative.Synthesizer
	logger   *zap.Logger
	observer Observer
	newID    func() string
	stages   []stage
}

type settings struct {
	backend  ai.ChatBackend
	logger   *zap.Logger
	observer Observer
	newID    func() string
}

// Option customizes an Engine.
type Option func(*settings)

// WithBackend sets the chat backend used for ai_review when the LLM is enabled.
func WithBackend(b ai.ChatBackend) Option {
	return func(s *settings) { s.backend = b }
}

// WithLogger sets the base logger. Every Score call derives a child logger from it.
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithObserver registers an observer for completed and failed calls.
func WithObserver(o Observer) Option {
	return func(s *settings) { s.observer = o }
}

// WithIDGenerator replaces the uuid score_id generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *settings) { s.newID = fn }
}

// New validates cfg and builds an engine. A nil cfg means config.Default().
func New(cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}

	s := settings{observer: nopObserver{}, newID: uuid.NewString}
	for _, opt := range opts {
		opt(&s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.observer == nil {
		s.observer = nopObserver{}
	}

	e := &Engine{
		synth: narrative.New(s.backend, narrative.Options{
			Enabled:      cfg.LLM.Enabled,
			Temperature:  cfg.LLM.Temperature,
			MaxTokens:    cfg.LLM.MaxTokens,
			Timeout:      cfg.LLM.Timeout,
			MaxLogLength: cfg.LLM.MaxLogLength,
		}, s.logger),
		logger:   s.logger,
		observer: s.observer,
		newID:    s.newID,
	}
	e.stages = e.pipeline()
	return e, nil
}

// Score runs every stage over resumeText. The only error is a wrapped model.ErrEmptyContent;
// every other anomaly is reported inside the result.
func (e *Engine) Score(ctx context.Context, resumeText string, job model.Job) (*model.ScoringResult, error) {
	start := time.Now()
	job = completeJob(job)
	id := e.newID()
	log := logger.WithScoringFields(e.logger, id, string(job.Family), string(job.CleanFamily))

	s := &state{raw: resumeText, job: job, log: log}
	if err := runStages(ctx, e.stages, s); err != nil {
		log.Warn("scoring failed", zap.Error(err))
		e.observer.ObserveFailure(err)
		return nil, fmt.Errorf("score resume: %w", err)
	}

	res := assemble(id, s)
	if fields := schema.Repair(res); len(fields) > 0 {
		log.Warn("scoring result repaired", zap.Strings("fields", fields))
	}
	if err := schema.Validate(res); err != nil {
		log.Error("scoring result violates schema", zap.Error(err))
	}

	elapsed := time.Since(start)
	e.observer.ObserveScore(res, string(s.narrative.FallbackReason), elapsed)
	log.Info("scoring completed",
		zap.Float64("total", res.Total),
		zap.String("match_band", string(res.MatchBand)),
		zap.String("warning_code", string(res.WarningCode)),
		zap.Duration("elapsed", elapsed),
	)
	return res, nil
}

// completeJob derives whatever the caller left out of job.
func completeJob(job model.Job) model.Job {
	if job.Family == "" {
		return jobs.New(job.Title, job.JDText)
	}
	if job.CleanFamily == "" || job.Weights == (model.Weights{}) {
		return jobs.WithFamily(job.Title, job.JDText, job.Family)
	}
	return job
}

func assemble(id string, s *state) *model.ScoringResult {
	sc := s.projection.Scores
	out := s.narrative

	res := &model.ScoringResult{
		ScoreID:     id,
		JobTitle:    s.job.Title,
		JobFamily:   s.job.Family,
		CleanFamily: s.job.CleanFamily,
		Weights:     s.job.Weights,

		SkillMatch:      sc.SkillMatch,
		ExperienceMatch: sc.ExperienceMatch,
		Stability:       sc.Stability,
		GrowthPotential: sc.GrowthPotential,

		SkillMatchScore:      round1(model.Rescaled(sc.SkillMatch)),
		ExperienceMatchScore: round1(model.Rescaled(sc.ExperienceMatch)),
		StabilityScore:       round1(model.Rescaled(sc.Stability)),
		GrowthPotentialScore: round1(model.Rescaled(sc.GrowthPotential)),

		Total:         s.projection.Total,
		WeightedTotal: s.projection.WeightedTotal,
		MatchBand:     risk.Band(s.projection.Total, s.risks),

		EvidenceChain: s.projection.Evidence,
		Risks:         append([]model.RiskItem{}, s.risks...),

		AIReview:       out.AIReview,
		AIReviewSource: out.AIReviewSource,
		PersonaTags:    out.PersonaTags,
		SummaryShort:   out.SummaryShort,
		EvidenceText:   out.EvidenceText,

		StrengthsReasoningChain:  out.Strengths,
		WeaknessesReasoningChain: out.Weaknesses,

		DetectedActionsCount: len(s.detection.Actions),
		EvidenceCount:        len(s.projection.Evidence),

		NormalizedText: s.doc.Text,
	}

	res.Warnings = collectWarnings(s)
	if len(res.Warnings) > 0 {
		res.WarningCode = res.Warnings[0].Code
		res.WarningMessage = res.Warnings[0].Message
	}
	return res
}

// collectWarnings gathers every stage warning, highest priority first.
func collectWarnings(s *state) []model.Warning {
	warnings := append([]model.Warning(nil), s.doc.Report.Warnings...)
	if s.detection.Warning.Code != model.WarningNone {
		warnings = append(warnings, s.detection.Warning)
	}
	if m := s.mismatch; m != nil {
		warnings = append(warnings, model.Warning{
			Code: model.WarningFamilyMismatch,
			Message: fmt.Sprintf("résumé reads like a %s role (%s) rather than %s",
				m.Family, strings.Join(m.Grounded, ", "), s.job.Family),
		})
	}
	sort.SliceStable(warnings, func(i, j int) bool {
		return warnings[i].Code.Priority() > warnings[j].Code.Priority()
	})
	return warnings
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
