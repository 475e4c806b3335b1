// Package lexicon is the read-only resource table of the scoring pipeline: ability tags,
// verbs, family profiles and forbidden vocabulary. Nothing in here is mutated after init.
package lexicon

import "strings"

// Ability is a competency tag together with the keywords that ground it in résumé text.
type Ability struct {
	Tag      string
	Keywords []string
}

// Ability tags of the pool.
const (
	StudentManagement       = "student management"
	HomeSchoolCommunication = "home-school communication"
	LearningGuidance        = "learning guidance"
	DataReview              = "data review"
	Planning                = "planning"
	Execution               = "execution"
	ServiceMindset          = "service mindset"
	SalesConversion         = "sales conversion"
	ContentOperations       = "content operations"
	TeamManagement          = "team management"
	Coordination            = "coordination"
	Resilience              = "resilience"
)

var abilityPool = []Ability{
	{Tag: StudentManagement, Keywords: []string{"学员管理", "学生管理", "班级管理", "班主任", "学员", "学生", "课堂纪律", "student"}},
	{Tag: HomeSchoolCommunication, Keywords: []string{"家长", "家校", "家访", "家长会", "parent"}},
	{Tag: LearningGuidance, Keywords: []string{"辅导", "答疑", "学习规划", "学情", "授课", "备课", "教学", "讲解", "tutor"}},
	{Tag: DataReview, Keywords: []string{"复盘", "数据", "分析", "报表", "统计", "指标", "data"}},
	{Tag: Planning, Keywords: []string{"规划", "计划", "方案", "策划", "制定", "plan"}},
	{Tag: Execution, Keywords: []string{"执行", "落地", "推进", "完成", "实施", "交付", "execute"}},
	{Tag: ServiceMindset, Keywords: []string{"服务", "客户", "满意度", "售后", "回访", "service", "customer"}},
	{Tag: SalesConversion, Keywords: []string{"销售", "转化", "签单", "业绩", "成交", "续费", "招生", "sales"}},
	{Tag: ContentOperations, Keywords: []string{"内容", "运营", "文案", "公众号", "社群", "短视频", "content"}},
	{Tag: TeamManagement, Keywords: []string{"团队管理", "带领", "带教", "培养新人", "下属", "组长", "主管", "team lead"}},
	{Tag: Coordination, Keywords: []string{"协调", "协作", "对接", "跨部门", "配合", "组织", "coordinat"}},
	{Tag: Resilience, Keywords: []string{"抗压", "压力", "韧性", "坚持", "挑战", "高强度", "pressure"}},
}

// genericAbilities is probed only when the pool cannot fill the persona tag list.
var genericAbilities = []Ability{
	{Tag: "communication", Keywords: []string{"沟通", "交流", "表达", "communicat"}},
	{Tag: "responsibility", Keywords: []string{"负责", "责任心", "认真", "responsib"}},
	{Tag: "learning agility", Keywords: []string{"学习", "自学", "进修", "learn"}},
	{Tag: "teamwork", Keywords: []string{"团队", "合作", "teamwork"}},
	{Tag: "problem solving", Keywords: []string{"解决", "处理问题", "排查", "solve"}},
	{Tag: "time management", Keywords: []string{"时间管理", "多任务", "按时", "deadline"}},
}

var abilityIndex = func() map[string]Ability {
	idx := make(map[string]Ability, len(abilityPool)+len(genericAbilities))
	for _, a := range abilityPool {
		idx[a.Tag] = a
	}
	for _, a := range genericAbilities {
		idx[a.Tag] = a
	}
	return idx
}()

// AbilityPool returns the 12 pool abilities in their canonical order.
func AbilityPool() []Ability {
	out := make([]Ability, len(abilityPool))
	copy(out, abilityPool)
	return out
}

// GenericAbilities returns the fallback abilities used for persona tags.
func GenericAbilities() []Ability {
	out := make([]Ability, len(genericAbilities))
	copy(out, genericAbilities)
	return out
}

// IsPoolTag reports whether tag belongs to the ability pool.
func IsPoolTag(tag string) bool {
	for _, a := range abilityPool {
		if a.Tag == tag {
			return true
		}
	}
	return false
}

// PoolIndex returns the position of tag in the pool, or len(pool) when unknown.
func PoolIndex(tag string) int {
	for i, a := range abilityPool {
		if a.Tag == tag {
			return i
		}
	}
	return len(abilityPool)
}

// Grounded reports whether at least one keyword of tag occurs in text.
// Unknown tags are never grounded.
func Grounded(tag, text string) bool {
	a, ok := abilityIndex[tag]
	if !ok {
		return false
	}
	return a.MatchedIn(text)
}

// MatchedIn reports whether any keyword of the ability occurs in text.
func (a Ability) MatchedIn(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range a.Keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// MatchPool returns the pool tags whose keywords occur in text, in pool order.
func MatchPool(text string) []string {
	var tags []string
	for _, a := range abilityPool {
		if a.MatchedIn(text) {
			tags = append(tags, a.Tag)
		}
	}
	return tags
}
