package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/resume-scorer/internal/model"
)

func sampleResult() *model.ScoringResult {
	return &model.ScoringResult{
		JobFamily:      model.FamilyTeacher,
		MatchBand:      model.BandNotRecommend,
		Total:          40,
		AIReviewSource: model.ReviewFromTemplate,
		Warnings:       []model.Warning{{Code: model.WarningTextTooShort}},
		Risks: []model.RiskItem{
			{Kind: model.RiskInsufficientActions, Severity: model.SeverityHigh},
			{Kind: model.RiskThinText, Severity: model.SeverityMedium},
		},
	}
}

func TestObserveScore(t *testing.T) {
	t.Parallel()

	r := New()
	r.ObserveScore(sampleResult(), "disabled", 15*time.Millisecond)
	r.ObserveScore(sampleResult(), "disabled", 5*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.scorings.WithLabelValues("teacher", "not_recommend")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.warnings.WithLabelValues("text_too_short")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.reviews.WithLabelValues("template", "disabled")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.risks.WithLabelValues("thin_text", "medium")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.duration))
}

func TestObserveScoreFromChat(t *testing.T) {
	t.Parallel()

	r := New()
	res := sampleResult()
	res.AIReviewSource = model.ReviewFromLLM
	r.ObserveScore(res, "", time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.reviews.WithLabelValues("llm", "none")))
}

func TestObserveFailure(t *testing.T) {
	t.Parallel()

	r := New()
	r.ObserveFailure(fmt.Errorf("normalize: %w", model.ErrEmptyContent))
	r.ObserveFailure(fmt.Errorf("boom"))
	r.ObserveFailure(nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.failures.WithLabelValues("empty_content")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.failures.WithLabelValues("internal")))
}

func TestNilRecorderIsNoop(t *testing.T) {
	t.Parallel()

	var r *Recorder
	r.ObserveScore(sampleResult(), "", time.Second)
	r.ObserveFailure(model.ErrEmptyContent)
}

func TestWriteTextfile(t *testing.T) {
	t.Parallel()

	r := New()
	r.ObserveScore(sampleResult(), "transport", time.Millisecond)

	path := filepath.Join(t.TempDir(), "scorer.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `resume_scorer_ai_reviews_total{fallback_reason="transport",source="template"} 1`)
	assert.Contains(t, string(data), "resume_scorer_scoring_duration_seconds_count 1")
}
