// Package normalize cleans extracted résumé text and splits it into sentences.
package normalize

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/spigell/resume-scorer/internal/lexicon"
	"github.com/spigell/resume-scorer/internal/model"
)

const (
	// MinSentenceRunes is the shortest sentence kept.
	MinSentenceRunes = 8
	// ShortTextRunes triggers the text_too_short warning.
	ShortTextRunes = 300
	// MaxPlausibleTenure is the largest believable number of working years.
	MaxPlausibleTenure = 50
	maxFixpointPasses  = 8
)

// Report describes what normalization found. Warnings never abort scoring.
type Report struct {
	Warnings         []model.Warning
	RawRunes         int
	NormalizedRunes  int
	Sentences        int
	DroppedSentences int
}

// Has reports whether the report carries the warning code.
func (r Report) Has(code model.WarningCode) bool {
	for _, w := range r.Warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}

func (r *Report) add(code model.WarningCode, msg string) {
	if r.Has(code) {
		return
	}
	r.Warnings = append(r.Warnings, model.Warning{Code: code, Message: msg})
}

// Document is normalized résumé text with its valid sentences.
type Document struct {
	Text      string
	Sentences []string
	Report    Report
}

// Lines returns the non-empty lines of the normalized text.
func (d *Document) Lines() []string {
	var lines []string
	for _, l := range strings.Split(d.Text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

var (
	horizontalSpace = regexp.MustCompile(`[ \t\f\v\x{00a0}\x{3000}]+`)
	spaceAroundNL   = regexp.MustCompile(` *\n *`)
	multiNewline    = regexp.MustCompile(`\n{2,}`)

	digitColonBreak = regexp.MustCompile(`(\d[:：])\n`)
	labelColonBreak = regexp.MustCompile(`(?m)^([^\n:：]{1,8}[:：])\n`)

	emailPattern    = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	mobilePattern   = regexp.MustCompile(`(^|\D)((?:\+?86[- ]?)?1[3-9]\d{9})(\D|$)`)
	landlinePattern = regexp.MustCompile(`(^|\D)(0\d{2,3}[- ]?\d{7,8})(\D|$)`)

	noisePattern = regexp.MustCompile(`(?i)(^|[\s\p{P}])(?:` + strings.Join(lexicon.NoiseTokens(), "|") + `)([\s\p{P}]|$)`)
)

// Brackets survive so that image markers such as [image] are still visible after cleaning.
const keptPunctuation = "，。！？；：、,.!?;:()（）【】《》[]<>“”\"'%+-/·#&"

// Normalize runs the cleaning steps in order and splits the result into sentences.
// Empty input is the only failure.
func Normalize(raw string) (*Document, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("normalize resume text: %w", model.ErrEmptyContent)
	}

	report := Report{RawRunes: utf8.RuneCountInString(raw)}

	// Stripping a contact can leave a dangling "label:" line, so the steps repeat until stable.
	text := raw
	for range maxFixpointPasses {
		next := clean(text)
		if next == text {
			break
		}
		text = next
	}

	// Markers are looked up in the cleaned text so that re-normalizing it reports the same warning.
	if lexicon.HasImageMarker(text) {
		report.add(model.WarningImageContent, "résumé contains image or OCR markers; text may be incomplete")
	}

	sentences, dropped := SplitSentences(text)

	report.NormalizedRunes = utf8.RuneCountInString(text)
	report.Sentences = len(sentences)
	report.DroppedSentences = dropped

	if report.NormalizedRunes < ShortTextRunes {
		report.add(model.WarningTextTooShort,
			fmt.Sprintf("normalized résumé has %d characters, fewer than %d", report.NormalizedRunes, ShortTextRunes))
	}
	if msg, ok := fictionSignal(text); ok {
		report.add(model.WarningFictionSuspect, msg)
	}

	return &Document{Text: text, Sentences: sentences, Report: report}, nil
}

func clean(s string) string {
	s = CollapseWhitespace(s)
	s = RepairBreaklines(s)
	s = StripContacts(s)
	s = DropDisallowed(s)
	s = RemoveNoise(s)
	return CollapseWhitespace(s)
}

// CollapseWhitespace folds horizontal whitespace runs into one space and blank lines into one newline.
func CollapseWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = horizontalSpace.ReplaceAllString(s, " ")
	s = spaceAroundNL.ReplaceAllString(s, "\n")
	s = multiNewline.ReplaceAllString(s, "\n")
	return strings.TrimSpace(s)
}

// RepairBreaklines joins "<digit>:" and "<short label>:" fragments with the line that follows them.
func RepairBreaklines(s string) string {
	for range maxFixpointPasses {
		next := digitColonBreak.ReplaceAllString(s, "$1")
		next = labelColonBreak.ReplaceAllString(next, "$1")
		if next == s {
			break
		}
		s = next
	}
	return s
}

// StripContacts removes e-mail addresses, mainland mobile numbers and landline numbers.
func StripContacts(s string) string {
	s = emailPattern.ReplaceAllString(s, "")
	for range maxFixpointPasses {
		next := mobilePattern.ReplaceAllString(s, "$1$3")
		next = landlinePattern.ReplaceAllString(next, "$1$3")
		if next == s {
			break
		}
		s = next
	}
	return s
}

// DropDisallowed keeps CJK ideographs, ASCII letters and digits, whitespace and a short punctuation list.
func DropDisallowed(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if keepRune(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func keepRune(r rune) bool {
	switch {
	case r == '\n' || r == ' ':
		return true
	case r < utf8.RuneSelf && (unicode.IsLetter(r) || unicode.IsDigit(r)):
		return true
	case unicode.Is(unicode.Han, r):
		return true
	default:
		return strings.ContainsRune(keptPunctuation, r)
	}
}

// RemoveNoise drops isolated extraction artifacts bounded by whitespace or punctuation.
func RemoveNoise(s string) string {
	for range maxFixpointPasses {
		next := noisePattern.ReplaceAllString(s, "$1$2")
		if next == s {
			break
		}
		s = next
	}
	return s
}

// SplitSentences splits on Chinese sentence terminators and newlines. It returns the kept
// sentences and the number of fragments dropped for being too short or letterless.
func SplitSentences(s string) ([]string, int) {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		switch r {
		case '。', '！', '？', '；', '\n':
			return true
		}
		return false
	})

	var kept []string
	dropped := 0
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if utf8.RuneCountInString(p) < MinSentenceRunes || !hasLetter(p) {
			dropped++
			continue
		}
		kept = append(kept, p)
	}
	return kept, dropped
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
