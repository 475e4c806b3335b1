// Package narrative turns the scoring artifacts into reviewer-facing text: the ai_review, persona
// tags, a short summary, the rendered evidence and two reasoning chains. Only ai_review may come
// from a chat backend; everything else is deterministic.
package narrative

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/resume-scorer/internal/ai"
	"github.com/spigell/resume-scorer/internal/lexicon"
	"github.com/spigell/resume-scorer/internal/model"
	"github.com/spigell/resume-scorer/internal/normalize"
	"github.com/spigell/resume-scorer/internal/rubric"
)

// MaxLLMTimeout is the hard cap on the chat round-trip.
const MaxLLMTimeout = 60 * time.Second

// Options control the chat path of ai_review.
type Options struct {
	Enabled      bool
	Temperature  float64
	MaxTokens    int
	Timeout      time.Duration
	MaxLogLength int
}

// Synthesizer produces the narrative artifacts. It is safe for concurrent use.
type Synthesizer struct {
	backend ai.ChatBackend
	opts    Options
	logger  *zap.Logger
}

// New builds a synthesizer. A nil backend or a disabled option always yields the template review.
func New(backend ai.ChatBackend, opts Options, logger *zap.Logger) *Synthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Timeout <= 0 || opts.Timeout > MaxLLMTimeout {
		opts.Timeout = MaxLLMTimeout
	}
	return &Synthesizer{backend: backend, opts: opts, logger: logger}
}

// Input is everything the upstream stages produced for one résumé.
type Input struct {
	Doc        *normalize.Document
	Job        model.Job
	Actions    []model.DetectedAction
	Projection rubric.Projection
	Risks      []model.RiskItem
}

func (in Input) text() string {
	if in.Doc == nil {
		return ""
	}
	return in.Doc.Text
}

// usableActions drops actions whose sentences carry vocabulary the job's clean family forbids.
func (in Input) usableActions() []model.DetectedAction {
	out := make([]model.DetectedAction, 0, len(in.Actions))
	for _, a := range in.Actions {
		if lexicon.ContainsForbidden(in.Job.CleanFamily, a.ContainingSentence) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// FallbackReason explains why ai_review came from the template.
type FallbackReason string

const (
	FallbackNone      FallbackReason = ""
	FallbackDisabled  FallbackReason = "disabled"
	FallbackTimeout   FallbackReason = "timeout"
	FallbackTransport FallbackReason = "transport"
	FallbackMalformed FallbackReason = "malformed"
)

// Output carries the narrative artifacts.
type Output struct {
	AIReview       string
	AIReviewSource model.AIReviewSource
	FallbackReason FallbackReason
	PersonaTags    []string
	SummaryShort   string
	EvidenceText   string
	Strengths      model.ReasoningChain
	Weaknesses     model.ReasoningChain
}

// Synthesize builds every artifact. It never fails: chat errors degrade ai_review to the template.
// log may carry per-call fields; nil uses the synthesizer's logger.
func (s *Synthesizer) Synthesize(ctx context.Context, in Input, log *zap.Logger) Output {
	if log == nil {
		log = s.logger
	}

	tags := PersonaTags(in)
	out := Output{
		PersonaTags:  tags,
		SummaryShort: Summary(in, tags),
		EvidenceText: EvidenceText(in.Projection.Evidence, in.Job.CleanFamily),
		Strengths:    StrengthsChain(in),
		Weaknesses:   WeaknessesChain(in),
	}

	template := TemplateReview(in)
	out.AIReview, out.AIReviewSource, out.FallbackReason = template, model.ReviewFromTemplate, FallbackDisabled

	if s.opts.Enabled && s.backend != nil {
		review, reason := s.chatReview(ctx, in, log)
		if reason == FallbackNone {
			out.AIReview, out.AIReviewSource = review, model.ReviewFromLLM
		}
		out.FallbackReason = reason
	}
	return out
}
