package lexicon

import "strings"

// verbs is ordered so that longer verbs sharing a prefix come first.
var verbs = []string{
	"负责", "管理", "分析", "优化", "协调", "复盘", "执行", "培训", "组织", "策划",
	"制定", "推进", "完成", "带领", "指导", "辅导", "沟通", "回访", "跟进", "设计",
	"开发", "搭建", "建立", "维护", "实施", "主导", "参与", "统筹", "落地", "提升",
	"改进", "总结", "学习", "撰写", "编写", "整理", "统计", "监控", "对接", "拓展",
	"开拓", "签约", "转化", "销售", "讲授", "授课", "备课", "答疑", "招生", "运营",
	"推广", "审核", "评估", "规划",
	"manage", "analyze", "optimize", "coordinate", "review", "execute", "train", "lead",
}

// actionIndicators is the subset of verbs that marks a complete action on its own.
var actionIndicators = map[string]struct{}{}

func init() {
	for _, v := range []string{
		"负责", "管理", "组织", "策划", "推进", "完成", "带领", "主导", "统筹", "制定",
		"执行", "优化", "提升", "建立", "搭建", "设计", "开发", "复盘", "分析", "协调",
		"沟通", "回访", "跟进", "辅导", "培训", "指导", "授课", "招生", "运营", "落地",
		"签约", "转化", "拓展", "维护", "实施", "规划", "总结", "改进", "整理", "统计",
		"manage", "analyze", "optimize", "coordinate", "review", "execute", "train", "lead",
	} {
		actionIndicators[v] = struct{}{}
	}
}

// actionMapping maps verbs and context words to ability tags.
var actionMapping = []struct {
	keyword string
	tags    []string
}{
	{"回访", []string{HomeSchoolCommunication, ServiceMindset}},
	{"家长", []string{HomeSchoolCommunication}},
	{"学员", []string{StudentManagement}},
	{"学生", []string{StudentManagement}},
	{"班级", []string{StudentManagement}},
	{"辅导", []string{LearningGuidance}},
	{"答疑", []string{LearningGuidance}},
	{"授课", []string{LearningGuidance}},
	{"备课", []string{LearningGuidance}},
	{"讲授", []string{LearningGuidance}},
	{"培训", []string{LearningGuidance, TeamManagement}},
	{"指导", []string{LearningGuidance}},
	{"分析", []string{DataReview}},
	{"复盘", []string{DataReview}},
	{"统计", []string{DataReview}},
	{"监控", []string{DataReview}},
	{"评估", []string{DataReview}},
	{"策划", []string{Planning}},
	{"制定", []string{Planning}},
	{"规划", []string{Planning}},
	{"设计", []string{Planning}},
	{"执行", []string{Execution}},
	{"落地", []string{Execution}},
	{"推进", []string{Execution}},
	{"完成", []string{Execution}},
	{"实施", []string{Execution}},
	{"维护", []string{ServiceMindset}},
	{"客户", []string{ServiceMindset}},
	{"销售", []string{SalesConversion}},
	{"转化", []string{SalesConversion}},
	{"签约", []string{SalesConversion}},
	{"招生", []string{SalesConversion}},
	{"拓展", []string{SalesConversion}},
	{"开拓", []string{SalesConversion}},
	{"运营", []string{ContentOperations}},
	{"推广", []string{ContentOperations}},
	{"撰写", []string{ContentOperations}},
	{"带领", []string{TeamManagement}},
	{"团队", []string{TeamManagement}},
	{"协调", []string{Coordination}},
	{"对接", []string{Coordination}},
	{"组织", []string{Coordination}},
	{"统筹", []string{Coordination, Planning}},
	{"沟通", []string{Coordination}},
	{"压力", []string{Resilience}},
	{"manage", []string{TeamManagement}},
	{"analyze", []string{DataReview}},
	{"coordinate", []string{Coordination}},
	{"review", []string{DataReview}},
	{"execute", []string{Execution}},
	{"train", []string{LearningGuidance}},
}

// Verbs returns the verb dictionary.
func Verbs() []string {
	out := make([]string, len(verbs))
	copy(out, verbs)
	return out
}

// IsVerb reports whether v is a dictionary verb.
func IsVerb(v string) bool {
	for _, verb := range verbs {
		if verb == v {
			return true
		}
	}
	return false
}

// ContainsIndicator reports whether phrase contains at least one action indicator.
func ContainsIndicator(phrase string) bool {
	lower := strings.ToLower(phrase)
	for ind := range actionIndicators {
		if strings.Contains(lower, ind) {
			return true
		}
	}
	return false
}

// MapAction returns ability tags implied by keywords found in text, in mapping order, deduplicated.
func MapAction(text string) []string {
	lower := strings.ToLower(text)
	var tags []string
	seen := make(map[string]struct{})
	for _, m := range actionMapping {
		if !strings.Contains(lower, m.keyword) {
			continue
		}
		for _, t := range m.tags {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			tags = append(tags, t)
		}
	}
	return tags
}

// PaddingTags fill an action's tag list up to two entries.
func PaddingTags() []string {
	return []string{Execution, Coordination}
}
