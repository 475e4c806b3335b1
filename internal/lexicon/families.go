package lexicon

import (
	"regexp"
	"strings"

	"github.com/spigell/resume-scorer/internal/model"
)

var weightProfiles = map[model.Family]model.Weights{
	model.FamilyTeacher:      {SkillMatch: 0.30, ExperienceMatch: 0.30, Stability: 0.25, GrowthPotential: 0.15},
	model.FamilyEducationOps: {SkillMatch: 0.30, ExperienceMatch: 0.30, Stability: 0.25, GrowthPotential: 0.15},
	model.FamilySales:        {SkillMatch: 0.25, ExperienceMatch: 0.35, Stability: 0.25, GrowthPotential: 0.15},
}

var defaultWeights = model.Weights{SkillMatch: 0.25, ExperienceMatch: 0.25, Stability: 0.25, GrowthPotential: 0.25}

// WeightProfile returns the weight profile of a job family.
func WeightProfile(f model.Family) model.Weights {
	if w, ok := weightProfiles[f]; ok {
		return w
	}
	return defaultWeights
}

var coreAbilities = map[model.Family][]string{
	model.FamilyTeacher:      {LearningGuidance, StudentManagement, HomeSchoolCommunication, Planning, DataReview},
	model.FamilyEducationOps: {StudentManagement, HomeSchoolCommunication, ServiceMindset, Coordination, DataReview},
	model.FamilySales:        {SalesConversion, ServiceMindset, Resilience, Coordination, DataReview},
	model.FamilyCoach:        {LearningGuidance, StudentManagement, Resilience, Planning, Execution},
	model.FamilyEngineer:     {DataReview, Planning, Execution, Coordination, TeamManagement},
}

var genericCore = []string{Execution, Coordination, Planning}

// CoreAbilities returns the core ability tags of a family. Unknown families get the generic triple.
func CoreAbilities(f model.Family) []string {
	src, ok := coreAbilities[f]
	if !ok {
		src = genericCore
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// Families lists the families with a dedicated core ability set.
func Families() []model.Family {
	return []model.Family{
		model.FamilyCoach, model.FamilyTeacher, model.FamilySales,
		model.FamilyEngineer, model.FamilyEducationOps,
	}
}

// familyRules are evaluated in order; the first matching rule wins.
var familyRules = []struct {
	family   model.Family
	keywords []string
}{
	{model.FamilyCoach, []string{"教练", "coach"}},
	{model.FamilyEducationOps, []string{"学管", "教务", "班主任", "学习顾问", "课程顾问", "教育运营", "education operations"}},
	{model.FamilySales, []string{"销售", "业务员", "客户经理", "商务", "电销", "顾问", "sales", "account manager"}},
	{model.FamilyTeacher, []string{"教师", "老师", "讲师", "助教", "teacher", "tutor", "instructor"}},
	{model.FamilyEngineer, []string{"工程师", "开发", "程序员", "架构师", "engineer", "developer", "programmer"}},
}

// FamilyForTitle derives the job family from the job title.
func FamilyForTitle(title string) model.Family {
	lower := strings.ToLower(strings.TrimSpace(title))
	if lower == "" {
		return model.FamilyGeneric
	}
	for _, rule := range familyRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.family
			}
		}
	}
	return model.FamilyGeneric
}

// CleanFamilyFor maps a job family onto its vocabulary-exclusion profile.
func CleanFamilyFor(f model.Family) model.CleanFamily {
	switch f {
	case model.FamilySales:
		return model.CleanSales
	case model.FamilyTeacher, model.FamilyCoach, model.FamilyEducationOps:
		return model.CleanTeacher
	default:
		return model.CleanGeneric
	}
}

var forbiddenVocabulary = map[model.CleanFamily][]string{
	model.CleanSales:   {"LaTeX", "olympiad", "competition", "奥赛", "奥数", "竞赛", "论文", "科研"},
	model.CleanTeacher: {"签单", "提成", "逼单", "冲业绩", "KPI冲刺"},
}

// Forbidden returns the vocabulary that must not appear in narrative output for the clean family.
func Forbidden(cf model.CleanFamily) []string {
	src := forbiddenVocabulary[cf]
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// ContainsForbidden reports whether text carries a forbidden token of cf. Tokens match case-insensitively.
func ContainsForbidden(cf model.CleanFamily, text string) bool {
	if text == "" {
		return false
	}
	for _, re := range forbiddenPatterns[cf] {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// Scrub removes every forbidden token of cf from text.
func Scrub(cf model.CleanFamily, text string) string {
	for _, re := range forbiddenPatterns[cf] {
		text = re.ReplaceAllLiteralString(text, "")
	}
	return text
}

var forbiddenPatterns = compileForbidden()

func compileForbidden() map[model.CleanFamily][]*regexp.Regexp {
	out := make(map[model.CleanFamily][]*regexp.Regexp, len(forbiddenVocabulary))
	for cf, words := range forbiddenVocabulary {
		for _, w := range words {
			out[cf] = append(out[cf], regexp.MustCompile("(?i)"+regexp.QuoteMeta(w)))
		}
	}
	return out
}
