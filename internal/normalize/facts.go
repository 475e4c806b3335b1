package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// Digits directly before the number are excluded so calendar years like 2019年 never match.
	experienceYearsPattern = regexp.MustCompile(`(?:^|[^\d.])(\d{1,3})\s*多?年(?:以上)?的?(?:工作|教学|从业|销售|管理|行业|相关|带班)?(?:经验|经历|教龄)`)
	tenureLeadPattern      = regexp.MustCompile(`(?:工作|教龄|从业)\s*(\d{1,3})\s*年`)
	yearOrAgePattern       = regexp.MustCompile(`(?:^|[^\d.])(\d{1,3})\s*(?:年|岁)`)
	// An age is a standalone field ("女 29岁 本科") or a labelled one, never a phrase like 16岁以下学生.
	agePattern             = regexp.MustCompile(`(?m)(?:^|[\s,，/、;；:：])(\d{2})\s*岁(?:$|[\s,，/、;；。)）])`)
	labelledAgePattern     = regexp.MustCompile(`年龄\s*[:：]?\s*(\d{2})`)
	educationPattern       = regexp.MustCompile(`博士|硕士|研究生|本科|学士|大专|专科|中专|高中`)
	freshGraduatePattern   = regexp.MustCompile(`应届|在校生|实习生`)
)

// ExperienceYears returns the largest explicit "N years of experience" figure in text.
func ExperienceYears(text string) (int, bool) {
	best, found := 0, false
	for _, re := range []*regexp.Regexp{experienceYearsPattern, tenureLeadPattern} {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			n, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			if !found || n > best {
				best, found = n, true
			}
		}
	}
	return best, found
}

// LargestYearOrAge returns the largest integer followed by 年 or 岁 anywhere in text.
// It is a coarse tenure proxy used by the stability dimension.
func LargestYearOrAge(text string) (int, bool) {
	best, found := 0, false
	for _, m := range yearOrAgePattern.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if !found || n > best {
			best, found = n, true
		}
	}
	return best, found
}

// Facts are the basic candidate facts mined from the head of a résumé.
type Facts struct {
	Age       int
	Education string
	Years     int
}

// CandidateAge returns the candidate's own age: a labelled 年龄 field first, then the first
// standalone N岁 field. Ages inside phrases about pupils or customers are ignored.
func CandidateAge(text string) (int, bool) {
	for _, re := range []*regexp.Regexp{labelledAgePattern, agePattern} {
		if m := re.FindStringSubmatch(text); m != nil {
			if age, err := strconv.Atoi(m[1]); err == nil && age > 0 {
				return age, true
			}
		}
	}
	return 0, false
}

// ExtractFacts looks for age, highest education and years of experience in lines.
func ExtractFacts(lines []string) Facts {
	head := strings.Join(lines, "\n")
	var f Facts
	if age, ok := CandidateAge(head); ok {
		f.Age = age
	}
	f.Education = educationPattern.FindString(head)
	if y, ok := ExperienceYears(head); ok {
		f.Years = y
	}
	return f
}

func fictionSignal(text string) (string, bool) {
	years, hasYears := ExperienceYears(text)
	if hasYears && years > MaxPlausibleTenure {
		return fmt.Sprintf("claims %d years of experience", years), true
	}

	if age, ok := CandidateAge(text); ok && hasYears && age-years < 14 {
		return fmt.Sprintf("claims %d years of experience at age %d", years, age), true
	}

	if hasYears && years >= 5 && freshGraduatePattern.MatchString(text) {
		return fmt.Sprintf("presents as a fresh graduate while claiming %d years of experience", years), true
	}

	return "", false
}
