package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/resume-scorer/internal/ai"
	"github.com/spigell/resume-scorer/internal/config"
	"github.com/spigell/resume-scorer/internal/jobs"
	"github.com/spigell/resume-scorer/internal/lexicon"
	"github.com/spigell/resume-scorer/internal/model"
	"github.com/spigell/resume-scorer/internal/narrative"
	"github.com/spigell/resume-scorer/internal/schema"
)

type recordingObserver struct {
	mu        sync.Mutex
	fallbacks []string
	failures  []error
}

func (o *recordingObserver) ObserveScore(_ *model.ScoringResult, fallback string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fallbacks = append(o.fallbacks, fallback)
}

func (o *recordingObserver) ObserveFailure(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failures = append(o.failures, err)
}

func readResume(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(data)
}

func teacherJob() model.Job {
	return jobs.New("小学语文老师", "负责小学语文教学与班级管理。定期与家长沟通学生学习情况。组织教研活动。")
}

func salesJob() model.Job {
	return jobs.New("课程销售", "负责课程销售与客户维护。跟进续费与转介绍。")
}

func newEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := New(nil, opts...)
	require.NoError(t, err)
	return e
}

// withoutID strips the per-call identifier so that results can be compared.
func withoutID(r *model.ScoringResult) *model.ScoringResult {
	c := *r
	c.ScoreID = ""
	return &c
}

func TestScoreEmptyContent(t *testing.T) {
	t.Parallel()

	obs := &recordingObserver{}
	e := newEngine(t, WithObserver(obs))

	for _, text := range []string{"", "   \n\t "} {
		res, err := e.Score(context.Background(), text, salesJob())
		require.Error(t, err)
		assert.True(t, errors.Is(err, model.ErrEmptyContent), err)
		assert.Nil(t, res)
	}
	assert.Len(t, obs.failures, 2)
	assert.Empty(t, obs.fallbacks)
}

func TestScoreShortText(t *testing.T) {
	t.Parallel()

	res, err := newEngine(t).Score(context.Background(), "负责家长回访。", teacherJob())
	require.NoError(t, err)

	assert.Equal(t, model.WarningTextTooShort, res.WarningCode)
	assert.LessOrEqual(t, res.DetectedActionsCount, 1)
	assert.InDelta(t, 40, res.Total, 5)
	assert.Contains(t, []model.MatchBand{model.BandWeak, model.BandNotRecommend}, res.MatchBand)

	var kinds []model.RiskKind
	for _, r := range res.Risks {
		kinds = append(kinds, r.Kind)
	}
	assert.True(t,
		containsKind(kinds, model.RiskThinText) || containsKind(kinds, model.RiskInsufficientActions),
		"risks: %v", kinds)

	codes := make([]model.WarningCode, 0, len(res.Warnings))
	for _, w := range res.Warnings {
		codes = append(codes, w.Code)
	}
	assert.Contains(t, codes, model.WarningInsufficientActions)
	assert.NoError(t, schema.Validate(res))
}

func TestScoreRichTeacherResume(t *testing.T) {
	t.Parallel()

	res, err := newEngine(t).Score(context.Background(), readResume(t, "teacher.txt"), teacherJob())
	require.NoError(t, err)

	assert.GreaterOrEqual(t, res.SkillMatch, 15.0)
	assert.GreaterOrEqual(t, res.GrowthPotential, 10.0)
	assert.True(t,
		containsTag(res.PersonaTags, lexicon.HomeSchoolCommunication) || containsTag(res.PersonaTags, lexicon.StudentManagement),
		"persona tags: %v", res.PersonaTags)
	for _, h := range []string{narrative.HeaderEvidence, narrative.HeaderReasoning, narrative.HeaderConclusion} {
		assert.Contains(t, res.AIReview, h)
	}
	assert.Equal(t, model.ReviewFromTemplate, res.AIReviewSource)
	assert.Equal(t, model.WarningNone, res.WarningCode)
	assert.NotEmpty(t, res.ScoreID)

	assertInvariants(t, res)
}

func TestScoreSalesResumeHasNoForbiddenVocabulary(t *testing.T) {
	t.Parallel()

	job := salesJob()
	require.Equal(t, model.CleanSales, job.CleanFamily)

	res, err := newEngine(t).Score(context.Background(), readResume(t, "sales.txt"), job)
	require.NoError(t, err)

	narratives := []string{res.AIReview, res.SummaryShort, res.EvidenceText, strings.Join(res.PersonaTags, " ")}
	narratives = append(narratives, res.StrengthsReasoningChain.ResumeEvidence...)
	narratives = append(narratives, res.WeaknessesReasoningChain.ResumeEvidence...)
	for _, text := range narratives {
		assert.False(t, lexicon.ContainsForbidden(model.CleanSales, text), text)
	}
	for _, e := range res.EvidenceChain {
		assert.False(t, lexicon.ContainsForbidden(model.CleanSales, e.ResumeQuote), e.ResumeQuote)
		assert.False(t, lexicon.ContainsForbidden(model.CleanSales, e.ActionPhrase), e.ActionPhrase)
	}

	assertInvariants(t, res)
}

func TestScoreIsDeterministicWithoutLLM(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	text := readResume(t, "teacher.txt")

	first, err := e.Score(context.Background(), text, teacherJob())
	require.NoError(t, err)
	second, err := e.Score(context.Background(), text, teacherJob())
	require.NoError(t, err)

	assert.NotEqual(t, first.ScoreID, second.ScoreID)
	assert.Equal(t, withoutID(first), withoutID(second))
	assert.Equal(t, first.AIReview, second.AIReview)
}

func TestScoreIsIdempotentOnNormalizedText(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	teacher := readResume(t, "teacher.txt")
	inputs := map[string]string{
		"teacher":      teacher,
		"sales":        readResume(t, "sales.txt"),
		"image marker": "[image]\n" + teacher,
		"ocr marker":   "<image> [OCR]\n" + readResume(t, "sales.txt"),
	}
	for name, text := range inputs {
		first, err := e.Score(context.Background(), text, salesJob())
		require.NoError(t, err)
		second, err := e.Score(context.Background(), first.NormalizedText, salesJob())
		require.NoError(t, err)

		assert.Equal(t, withoutID(first), withoutID(second), name)
	}

	marked, err := e.Score(context.Background(), inputs["image marker"], teacherJob())
	require.NoError(t, err)
	assert.Equal(t, model.WarningImageContent, marked.WarningCode)
	again, err := e.Score(context.Background(), marked.NormalizedText, teacherJob())
	require.NoError(t, err)
	assert.Equal(t, model.WarningImageContent, again.WarningCode)
}

func TestScoreDoesNotTreatPupilAgeAsCandidateAge(t *testing.T) {
	t.Parallel()

	text := "5年教学经验，负责16岁以下学生的班级管理与课后辅导。\n" + readResume(t, "teacher.txt")
	res, err := newEngine(t).Score(context.Background(), text, teacherJob())
	require.NoError(t, err)

	for _, w := range res.Warnings {
		assert.NotEqual(t, model.WarningFictionSuspect, w.Code, w.Message)
	}
	for _, r := range res.Risks {
		assert.NotEqual(t, model.RiskFictionSuspect, r.Kind)
	}
	assert.Equal(t, model.WarningNone, res.WarningCode)
}

func TestScoreFallsBackWhenChatFails(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.LLM.Enabled = true

	tests := []struct {
		name    string
		backend ai.ChatBackend
	}{
		{
			name: "transport error",
			backend: ai.ChatFunc(func(context.Context, ai.ChatRequest) (*ai.ChatResponse, error) {
				return nil, errors.New("dial tcp: connection refused")
			}),
		},
		{
			name: "backend never initializes",
			backend: ai.NewLazyBackend(func() (ai.ChatBackend, error) {
				return nil, errors.New("gemini api key is not configured")
			}),
		},
	}

	text := readResume(t, "teacher.txt")
	template, err := newEngine(t).Score(context.Background(), text, teacherJob())
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			obs := &recordingObserver{}
			e, err := New(cfg, WithBackend(tt.backend), WithObserver(obs))
			require.NoError(t, err)

			res, err := e.Score(context.Background(), text, teacherJob())
			require.NoError(t, err)

			assert.Equal(t, model.ReviewFromTemplate, res.AIReviewSource)
			assert.Equal(t, template.AIReview, res.AIReview)
			assert.Equal(t, template.Total, res.Total)
			assert.Equal(t, []string{string(narrative.FallbackTransport)}, obs.fallbacks)
		})
	}
}

func TestScoreUsesChatReview(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.LLM.Enabled = true
	review := "【Evidence】\n1. 负责学员管理，定期电话回访家长。\n【Reasoning】\nStrong on student management.\n【Conclusion】\nRecommended."
	backend := ai.ChatFunc(func(context.Context, ai.ChatRequest) (*ai.ChatResponse, error) {
		return &ai.ChatResponse{Content: review}, nil
	})

	obs := &recordingObserver{}
	e, err := New(cfg, WithBackend(backend), WithObserver(obs))
	require.NoError(t, err)

	text := readResume(t, "teacher.txt")
	res, err := e.Score(context.Background(), text, teacherJob())
	require.NoError(t, err)
	assert.Equal(t, model.ReviewFromLLM, res.AIReviewSource)
	assert.Equal(t, review, res.AIReview)
	assert.Equal(t, []string{""}, obs.fallbacks)

	// Only ai_review may differ from the template run.
	template, err := newEngine(t).Score(context.Background(), text, teacherJob())
	require.NoError(t, err)
	res.AIReview, res.AIReviewSource = template.AIReview, template.AIReviewSource
	assert.Equal(t, withoutID(template), withoutID(res))
}

func TestScoreFamilyMismatch(t *testing.T) {
	t.Parallel()

	text := "负责课程销售与客户维护工作，季度业绩排名第一\n在高强度压力下坚持每日拜访客户\n协调市场部资源推进招生活动落地"
	res, err := newEngine(t).Score(context.Background(), text, teacherJob())
	require.NoError(t, err)

	codes := make([]model.WarningCode, 0, len(res.Warnings))
	for _, w := range res.Warnings {
		codes = append(codes, w.Code)
	}
	assert.Contains(t, codes, model.WarningFamilyMismatch)
	assert.Equal(t, model.WarningTextTooShort, res.WarningCode, "higher priority warning wins")

	var kinds []model.RiskKind
	for _, r := range res.Risks {
		kinds = append(kinds, r.Kind)
	}
	assert.Contains(t, kinds, model.RiskFamilyMismatch)
}

func TestScoreCompletesPartialJob(t *testing.T) {
	t.Parallel()

	res, err := newEngine(t).Score(context.Background(), readResume(t, "sales.txt"), model.Job{Title: "课程销售"})
	require.NoError(t, err)

	assert.Equal(t, model.FamilySales, res.JobFamily)
	assert.Equal(t, model.CleanSales, res.CleanFamily)
	assert.InDelta(t, 0.35, res.Weights.ExperienceMatch, 1e-9)
}

func TestScoreConcurrentCalls(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	inputs := []struct {
		text string
		job  model.Job
	}{
		{readResume(t, "teacher.txt"), teacherJob()},
		{readResume(t, "sales.txt"), salesJob()},
		{"负责家长回访。", teacherJob()},
	}

	baseline := make([]*model.ScoringResult, len(inputs))
	for i, in := range inputs {
		res, err := e.Score(context.Background(), in.text, in.job)
		require.NoError(t, err)
		baseline[i] = withoutID(res)
	}

	results := make([]*model.ScoringResult, 8*len(inputs))
	var g errgroup.Group
	for i := range results {
		in := inputs[i%len(inputs)]
		g.Go(func() error {
			res, err := e.Score(context.Background(), in.text, in.job)
			if err != nil {
				return err
			}
			results[i] = withoutID(res)
			return nil
		})
	}
	require.NoError(t, g.Wait())

	for i, res := range results {
		assert.Equal(t, baseline[i%len(inputs)], res)
	}
}

func TestScoreLogsOneEventPerStage(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	e := newEngine(t, WithLogger(zap.New(core)), WithIDGenerator(func() string { return "score-1" }))

	_, err := e.Score(context.Background(), readResume(t, "teacher.txt"), teacherJob())
	require.NoError(t, err)

	stages := logs.FilterMessage("pipeline stage").All()
	require.Len(t, stages, 5)

	want := []string{StageNormalize, StageActions, StageRubric, StageRisk, StageNarrative}
	for i, entry := range stages {
		fields := entry.ContextMap()
		assert.Equal(t, want[i], fields["stage"])
		assert.Equal(t, "score-1", fields["score_id"])
		assert.Equal(t, "teacher", fields["job_family"])
	}

	done := logs.FilterMessage("scoring completed").All()
	require.Len(t, done, 1)
	assert.Equal(t, "score-1", done[0].ContextMap()["score_id"])
	assert.Zero(t, logs.FilterMessage("scoring result repaired").Len())
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.LLM.Temperature = 3

	_, err := New(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create engine")
}

func assertInvariants(t *testing.T, res *model.ScoringResult) {
	t.Helper()

	sc := res.Scores()
	for _, d := range model.EvidenceOrder {
		assert.GreaterOrEqual(t, sc.Of(d), 0.0, d)
		assert.LessOrEqual(t, sc.Of(d), model.MaxDimensionScore, d)
	}
	assert.InDelta(t, sc.Total(), res.Total, 0.1)
	assert.LessOrEqual(t, res.Total, 100.0)

	for _, e := range res.EvidenceChain {
		assert.Contains(t, res.NormalizedText, e.ResumeQuote)
	}
	for _, tag := range res.PersonaTags {
		assert.True(t, lexicon.Grounded(tag, res.NormalizedText), tag)
	}
	assert.NotEmpty(t, res.PersonaTags)
	assert.LessOrEqual(t, len(res.PersonaTags), narrative.MaxPersonaTags)

	assert.LessOrEqual(t, len(res.Risks), model.MaxRisks)
	seen := map[model.RiskKind]bool{}
	for _, r := range res.Risks {
		assert.False(t, seen[r.Kind], "duplicate risk %s", r.Kind)
		seen[r.Kind] = true
	}

	for _, forbidden := range lexicon.Forbidden(res.CleanFamily) {
		for _, text := range []string{res.AIReview, res.SummaryShort, res.EvidenceText, strings.Join(res.PersonaTags, " ")} {
			assert.NotContains(t, strings.ToLower(text), strings.ToLower(forbidden))
		}
	}

	assert.NoError(t, schema.Validate(res))
}

func containsKind(kinds []model.RiskKind, k model.RiskKind) bool {
	for _, v := range kinds {
		if v == k {
			return true
		}
	}
	return false
}

func containsTag(tags []string, tag string) bool {
	for _, v := range tags {
		if v == tag {
			return true
		}
	}
	return false
}
