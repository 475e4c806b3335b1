package rubric

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/resume-scorer/internal/jobs"
	"github.com/spigell/resume-scorer/internal/lexicon"
	"github.com/spigell/resume-scorer/internal/model"
	"github.com/spigell/resume-scorer/internal/normalize"
)

func act(sentence string, tags ...string) model.DetectedAction {
	return model.DetectedAction{
		VerbPhrase:         sentence,
		Verb:               "负责",
		ContainingSentence: sentence,
		ResumeQuote:        sentence,
		AbilityTags:        tags,
		Confidence:         0.7,
	}
}

func docOf(actions []model.DetectedAction, extra ...string) *normalize.Document {
	var sentences []string
	for _, a := range actions {
		sentences = append(sentences, a.ContainingSentence)
	}
	return &normalize.Document{
		Text:      strings.Join(append(sentences, extra...), "\n"),
		Sentences: sentences,
	}
}

func TestProjectWithoutActionsUsesNeutralFloors(t *testing.T) {
	job := jobs.New("小学语文老师", "")
	p := Project(&normalize.Document{Text: "负责家长回访"}, nil, job)

	assert.Equal(t, model.DimensionScores{SkillMatch: 10, ExperienceMatch: 10, Stability: 10, GrowthPotential: 10}, p.Scores)
	assert.InDelta(t, 40, p.Total, 1e-9)
	assert.InDelta(t, 40, p.WeightedTotal, 1e-9)

	require.Len(t, p.Evidence, 4)
	for i, dim := range model.EvidenceOrder {
		assert.Equal(t, dim, p.Evidence[i].Dimension)
		assert.True(t, p.Evidence[i].Insufficient())
		assert.NotEmpty(t, p.Evidence[i].Reasoning)
	}
}

func TestProjectTeacher(t *testing.T) {
	job := jobs.New("小学语文老师", "负责学员管理。组织家长会。")
	actions := []model.DetectedAction{
		act("负责学员管理工作", lexicon.StudentManagement, lexicon.Coordination),
		act("电话回访家长", lexicon.HomeSchoolCommunication, lexicon.ServiceMindset),
		act("复盘教学数据并组织分享", lexicon.HomeSchoolCommunication, lexicon.DataReview),
		act("辅导学生完成作业", lexicon.LearningGuidance, lexicon.StudentManagement),
	}
	p := Project(docOf(actions, "5年教学经验"), actions, job)

	assert.InDelta(t, 9.0, p.Scores.SkillMatch, 1e-9)
	assert.InDelta(t, 9.2, p.Scores.ExperienceMatch, 1e-9)
	assert.InDelta(t, 20, p.Scores.Stability, 1e-9)
	assert.InDelta(t, 2.5, p.Scores.GrowthPotential, 1e-9)
	assert.InDelta(t, 40.7, p.Total, 1e-9)

	assert.Equal(t, 3, p.Signals.ScenarioMatches)
	assert.Equal(t, 1, p.Signals.GrowthActions)
	assert.InDelta(t, 5, p.Signals.TenureYears, 1e-9)
	assert.Equal(t, 1, p.Signals.Employers)

	counts := map[model.Dimension]int{}
	for _, e := range p.Evidence {
		counts[e.Dimension]++
		assert.Contains(t, docOf(actions).Text, e.ResumeQuote)
	}
	assert.Equal(t, map[model.Dimension]int{
		model.DimSkillMatch:      3,
		model.DimExperienceMatch: 3,
		model.DimGrowthPotential: 1,
		model.DimStability:       3,
	}, counts)

	assert.Equal(t, model.DimSkillMatch, p.Evidence[0].Dimension)
	assert.InDelta(t, 2.25, p.Evidence[0].ScoreContribution, 1e-9)
	assert.Equal(t, model.DimStability, p.Evidence[len(p.Evidence)-1].Dimension)
	assert.InDelta(t, 6.67, p.Evidence[len(p.Evidence)-1].ScoreContribution, 1e-9)
}

func TestProjectSkipsForbiddenSentences(t *testing.T) {
	job := jobs.New("课程销售顾问", "")
	actions := []model.DetectedAction{
		act("指导学生参加奥赛竞赛获奖", lexicon.LearningGuidance, lexicon.StudentManagement),
		act("负责课程销售与客户转化", lexicon.SalesConversion, lexicon.ServiceMindset),
	}
	p := Project(docOf(actions), actions, job)

	for _, e := range p.Evidence {
		assert.False(t, lexicon.ContainsForbidden(model.CleanSales, e.ResumeQuote), e.ResumeQuote)
		assert.False(t, lexicon.ContainsForbidden(model.CleanSales, e.ActionPhrase), e.ActionPhrase)
	}
	assert.Equal(t, "负责课程销售与客户转化", p.Evidence[0].ResumeQuote)
}

func TestProjectClampsDimensions(t *testing.T) {
	job := jobs.New("讲师", "")
	var actions []model.DetectedAction
	for range 20 {
		actions = append(actions, act("复盘总结并提升项目质量，荣获优秀讲师", lexicon.LearningGuidance, lexicon.DataReview, lexicon.Planning))
	}
	p := Project(docOf(actions), actions, job)

	for _, d := range model.EvidenceOrder {
		v := p.Scores.Of(d)
		assert.GreaterOrEqual(t, v, 0.0, d)
		assert.LessOrEqual(t, v, model.MaxDimensionScore, d)
	}
	assert.InDelta(t, 25, p.Scores.GrowthPotential, 1e-9)
	assert.InDelta(t, p.Scores.Total(), p.Total, 0.1)
}

func TestStabilityBands(t *testing.T) {
	tests := []struct {
		name     string
		sentence string
		extra    string
		want     float64
	}{
		{"default tenure", "负责学员管理工作", "", 20},
		{"two employers", "在两家公司和一家机构负责销售", "工作3年", 10},
		{"short span", "先后在公司、企业、机构、单位负责运营", "1年", 5},
		{"mid span", "在公司负责运营", "2年", 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actions := []model.DetectedAction{act(tt.sentence, lexicon.Execution, lexicon.Coordination)}
			p := Project(docOf(actions, tt.extra), actions, jobs.New("运营专员", ""))
			assert.InDelta(t, tt.want, p.Scores.Stability, 1e-9)
		})
	}
}

func TestScenarioKeywords(t *testing.T) {
	kw := ScenarioKeywords(model.Job{Title: "小学语文老师"})
	assert.Equal(t, []string{"小学", "学语", "语文", "文老", "老师"}, kw)

	kw = ScenarioKeywords(model.Job{JDText: strings.Repeat("负责课程规划与家长沟通工作。", 3) + "熟悉在线教育行业运营流程与数据分析方法"})
	assert.Len(t, kw, 20)

	assert.Equal(t, []string{"负责", "责学"}, Bigrams("负责学 abc"))
}

func TestWeightedTotal(t *testing.T) {
	full := model.DimensionScores{SkillMatch: 25, ExperienceMatch: 25, Stability: 25, GrowthPotential: 25}
	assert.InDelta(t, 100, WeightedTotal(full, lexicon.WeightProfile(model.FamilySales)), 1e-9)

	skewed := model.DimensionScores{SkillMatch: 25}
	assert.InDelta(t, 30, WeightedTotal(skewed, lexicon.WeightProfile(model.FamilyTeacher)), 1e-9)
}
