package narrative

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/resume-scorer/internal/actions"
	"github.com/spigell/resume-scorer/internal/ai"
	"github.com/spigell/resume-scorer/internal/jobs"
	"github.com/spigell/resume-scorer/internal/lexicon"
	"github.com/spigell/resume-scorer/internal/model"
	"github.com/spigell/resume-scorer/internal/normalize"
	"github.com/spigell/resume-scorer/internal/risk"
	"github.com/spigell/resume-scorer/internal/rubric"
)

const teacherResume = `王老师 女 29岁 本科 师范大学
6年教学经验，熟悉小学语文课程体系
2018.09-2024.06 某某教育机构 语文老师
负责学员管理工作，建立学员成长档案并定期更新
每周电话回访家长，反馈学生课堂表现与作业完成情况
组织家长会并主持分享环节，家长满意度达到95%
负责三个班级的语文授课与备课工作，辅导学生完成阅读训练
每月复盘教学数据，分析学生成绩变化并改进教学方案
参与学校教研项目，总结阅读教学方法并在区内分享
荣获区级优秀教师称号，获得教师资格证`

const salesResume = `李四 32岁 本科
5年课程销售经验
负责课程销售与客户转化，季度签约金额排名第一
每周回访老客户并跟进续费需求，客户满意度持续提升
指导学生参加奥数竞赛并使用LaTeX排版olympiad competition讲义
协调市场部与教务部资源，推进招生活动落地执行`

func buildInput(t *testing.T, raw string, job model.Job) Input {
	t.Helper()
	doc, err := normalize.Normalize(raw)
	require.NoError(t, err)
	det := actions.Detect(doc)
	proj := rubric.Project(doc, det.Actions, job)
	risks := risk.Analyze(risk.Input{Text: doc.Text, Actions: det.Actions, Scores: proj.Scores, Report: doc.Report, Job: job})
	return Input{Doc: doc, Job: job, Actions: det.Actions, Projection: proj, Risks: risks}
}

func teacherInput(t *testing.T) Input {
	return buildInput(t, teacherResume, jobs.New("小学语文老师", "负责小学语文教学与班级管理。定期与家长沟通学生学习情况。"))
}

func salesInput(t *testing.T) Input {
	return buildInput(t, salesResume, jobs.New("课程销售", "负责课程销售与客户维护。"))
}

func TestTemplateReviewSections(t *testing.T) {
	in := teacherInput(t)
	review := TemplateReview(in)

	ev := strings.Index(review, HeaderEvidence)
	re := strings.Index(review, HeaderReasoning)
	co := strings.Index(review, HeaderConclusion)
	require.True(t, ev >= 0 && re > ev && co > re, review)

	evidence := review[ev+len(HeaderEvidence) : re]
	numbered := 0
	for _, line := range strings.Split(strings.TrimSpace(evidence), "\n") {
		if line != "" {
			numbered++
			assert.Regexp(t, `^\d\. .+[。！？.!?]$`, line)
		}
	}
	assert.GreaterOrEqual(t, numbered, 3)
	assert.LessOrEqual(t, numbered, 5)

	assert.Contains(t, review, "Skill match")
	assert.Equal(t, review, TemplateReview(in), "template must be deterministic")
}

func TestSynthesizeDisabledUsesTemplate(t *testing.T) {
	in := teacherInput(t)
	called := false
	backend := ai.ChatFunc(func(ctx context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
		called = true
		return nil, errors.New("unexpected")
	})

	out := New(backend, Options{Enabled: false}, nil).Synthesize(context.Background(), in, nil)

	assert.False(t, called)
	assert.Equal(t, model.ReviewFromTemplate, out.AIReviewSource)
	assert.Equal(t, FallbackDisabled, out.FallbackReason)
	assert.Equal(t, TemplateReview(in), out.AIReview)
}

func TestSynthesizeUsesChatReview(t *testing.T) {
	in := salesInput(t)
	var got ai.ChatRequest
	backend := ai.ChatFunc(func(ctx context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
		got = req
		return &ai.ChatResponse{Content: "```\n【Evidence】\n1. 擅长LaTeX排版。\n【Reasoning】\nSolid.\n【Conclusion】\nRecommended.\n```"}, nil
	})

	out := New(backend, Options{Enabled: true, Temperature: 0.7, MaxTokens: 1200}, nil).Synthesize(context.Background(), in, nil)

	assert.Equal(t, model.ReviewFromLLM, out.AIReviewSource)
	assert.Equal(t, FallbackNone, out.FallbackReason)
	assert.True(t, strings.HasPrefix(out.AIReview, HeaderEvidence))
	assert.NotContains(t, out.AIReview, "LaTeX")
	assert.NotContains(t, out.AIReview, "```")

	require.Len(t, got.Messages, 2)
	assert.Equal(t, ai.RoleSystem, got.Messages[0].Role)
	assert.Contains(t, got.Messages[1].Content, "课程销售")
	assert.InDelta(t, 0.7, got.Temperature, 1e-9)
	assert.Equal(t, 1200, got.MaxTokens)
}

func TestSynthesizeFallbacks(t *testing.T) {
	tests := []struct {
		name    string
		backend ai.ChatFunc
		timeout time.Duration
		reason  FallbackReason
	}{
		{
			name: "transport error",
			backend: func(ctx context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
				return nil, errors.New("connection refused")
			},
			reason: FallbackTransport,
		},
		{
			name: "missing section",
			backend: func(ctx context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
				return &ai.ChatResponse{Content: "【Evidence】\n1. x。\n【Conclusion】\nok"}, nil
			},
			reason: FallbackMalformed,
		},
		{
			name: "timeout",
			backend: func(ctx context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			},
			timeout: 20 * time.Millisecond,
			reason:  FallbackTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := teacherInput(t)
			core, logs := observer.New(zapcore.WarnLevel)

			out := New(tt.backend, Options{Enabled: true, Timeout: tt.timeout}, zap.New(core)).
				Synthesize(context.Background(), in, nil)

			assert.Equal(t, model.ReviewFromTemplate, out.AIReviewSource)
			assert.Equal(t, tt.reason, out.FallbackReason)
			assert.Equal(t, TemplateReview(in), out.AIReview)
			assert.Equal(t, 1, logs.Len())
		})
	}
}

func TestNewCapsTimeout(t *testing.T) {
	s := New(nil, Options{Timeout: 5 * time.Minute}, nil)
	assert.Equal(t, MaxLLMTimeout, s.opts.Timeout)
}

func TestPersonaTagsAreGrounded(t *testing.T) {
	in := teacherInput(t)
	tags := PersonaTags(in)

	assert.GreaterOrEqual(t, len(tags), MinPersonaTags)
	assert.LessOrEqual(t, len(tags), MaxPersonaTags)
	for _, tag := range tags {
		assert.True(t, lexicon.Grounded(tag, in.Doc.Text), tag)
	}
	assert.Contains(t, tags, lexicon.StudentManagement)
	assert.Contains(t, tags, lexicon.HomeSchoolCommunication)
}

func TestPersonaTagsThinText(t *testing.T) {
	in := buildInput(t, "负责家长回访。", jobs.New("老师", ""))
	tags := PersonaTags(in)

	for _, tag := range tags {
		assert.True(t, lexicon.Grounded(tag, in.Doc.Text), tag)
	}
	assert.Contains(t, tags, lexicon.HomeSchoolCommunication)
	assert.Contains(t, tags, "responsibility")
}

func TestSummary(t *testing.T) {
	in := teacherInput(t)
	tags := PersonaTags(in)
	lines := strings.Split(Summary(in, tags), "\n")

	require.Len(t, lines, 3)
	assert.Equal(t, "Basic facts: age 29 | education 本科 | experience 6 years", lines[0])
	assert.Equal(t, "Core abilities: "+strings.Join(tags[:3], ", "), lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "Key experiences: "))
	assert.NotContains(t, lines[2], Placeholder)

	empty := buildInput(t, "负责家长回访。", jobs.New("老师", ""))
	lines = strings.Split(Summary(empty, nil), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Basic facts: age not provided | education not provided | experience not provided", lines[0])
	assert.Equal(t, "Core abilities: not provided", lines[1])
	assert.Equal(t, "Key experiences: not provided", lines[2])
}

func TestEvidenceTextDeduplicates(t *testing.T) {
	item := func(dim model.Dimension) model.EvidenceItem {
		return model.EvidenceItem{Dimension: dim, ActionPhrase: "负责学员管理工作", ResumeQuote: "负责学员管理工作，建立档案", Reasoning: "r"}
	}
	chain := []model.EvidenceItem{
		item(model.DimSkillMatch),
		item(model.DimExperienceMatch),
		{Dimension: model.DimGrowthPotential, Reasoning: "Insufficient information."},
	}

	text := EvidenceText(chain, model.CleanTeacher)

	assert.Equal(t, 1, strings.Count(text, "Action: 负责学员管理工作"))
	assert.Contains(t, text, "[Skill match]")
	assert.NotContains(t, text, "[Experience match]")
	assert.Contains(t, text, "[Growth potential]\nAction: not provided\nQuote: not provided\nReasoning: Insufficient information.")

	assert.Equal(t, Placeholder, EvidenceText(nil, model.CleanGeneric))
}

func TestReasoningChains(t *testing.T) {
	in := teacherInput(t)

	strengths := StrengthsChain(in)
	assert.NotEmpty(t, strengths.Conclusion)
	assert.LessOrEqual(t, len(strengths.DetectedActions), 3)
	assert.LessOrEqual(t, len(strengths.ResumeEvidence), 3)
	for _, q := range strengths.ResumeEvidence {
		assert.Contains(t, in.Doc.Text, q)
	}
	assert.Contains(t, strengths.AIReasoning, "Highest dimensions")

	weaknesses := WeaknessesChain(in)
	assert.Contains(t, weaknesses.Conclusion, "Weakest on")
	assert.NotEmpty(t, weaknesses.ResumeGap)
	assert.Contains(t, weaknesses.CompareToJD, "job description keywords")

	noJD := buildInput(t, teacherResume, jobs.New("小学语文老师", ""))
	assert.Contains(t, WeaknessesChain(noJD).CompareToJD, "No job description provided")
}

func TestNarrativeHasNoForbiddenVocabulary(t *testing.T) {
	in := salesInput(t)
	out := New(nil, Options{}, nil).Synthesize(context.Background(), in, nil)

	fields := []string{out.AIReview, out.SummaryShort, out.EvidenceText, strings.Join(out.PersonaTags, " ")}
	fields = append(fields, out.Strengths.ResumeEvidence...)
	fields = append(fields, out.Weaknesses.ResumeEvidence...)
	for _, f := range fields {
		assert.False(t, lexicon.ContainsForbidden(model.CleanSales, f), f)
	}
}

func TestCompleteSentence(t *testing.T) {
	tests := map[string]string{
		"1. 负责学员管理":  "负责学员管理。",
		"、负责家长会！":   "负责家长会！",
		"Managed data": "Managed data。",
		"2019，负责，":   "负责。",
		" 123 ":        "",
	}
	for in, want := range tests {
		assert.Equal(t, want, completeSentence(in), in)
	}
}
