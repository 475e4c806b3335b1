package rubric

import (
	"strings"
	"unicode"

	"github.com/spigell/resume-scorer/internal/model"
)

const (
	maxScenarioKeywords = 20
	maxJDSentences      = 10
)

// ScenarioKeywords returns up to 20 distinct CJK bigrams from the first 10 sentences of the job
// description. A job without a description falls back to its title.
func ScenarioKeywords(job model.Job) []string {
	source := strings.TrimSpace(job.JDText)
	if source == "" {
		source = job.Title
	}

	sentences := strings.FieldsFunc(source, func(r rune) bool {
		switch r {
		case '。', '！', '？', '；', '\n', '.', '!', '?', ';':
			return true
		}
		return false
	})

	var out []string
	seen := make(map[string]struct{})
	for _, s := range sentences[:min(maxJDSentences, len(sentences))] {
		for _, bg := range Bigrams(s) {
			if _, ok := seen[bg]; ok {
				continue
			}
			seen[bg] = struct{}{}
			out = append(out, bg)
			if len(out) == maxScenarioKeywords {
				return out
			}
		}
	}
	return out
}

// Bigrams returns every pair of adjacent Han characters in s, in order.
func Bigrams(s string) []string {
	runes := []rune(s)
	var out []string
	for i := 0; i+1 < len(runes); i++ {
		if unicode.Is(unicode.Han, runes[i]) && unicode.Is(unicode.Han, runes[i+1]) {
			out = append(out, string(runes[i:i+2]))
		}
	}
	return out
}
