// Package actions finds verb-anchored phrases in normalized résumé sentences.
package actions

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/spigell/resume-scorer/internal/lexicon"
	"github.com/spigell/resume-scorer/internal/model"
	"github.com/spigell/resume-scorer/internal/normalize"
)

const (
	// MaxActions caps the number of actions kept per résumé.
	MaxActions = 20
	// MinPhraseRunes is the shortest accepted verb phrase.
	MinPhraseRunes = 6
	// MaxQuoteRunes bounds the résumé quote attached to an action.
	MaxQuoteRunes = 100
	// MinActions is the count below which insufficient_actions is raised.
	MinActions = 2

	leadRunes     = 2
	trailRunes    = 20
	dedupeRunes   = 50
	maxTags       = 3
	minTags       = 2
	maxConfidence = 1.0
)

// Detection is the output of the detector.
type Detection struct {
	Actions []model.DetectedAction
	Warning model.Warning
}

// Detect returns up to MaxActions actions in document order. Only the first accepted verb of a
// sentence yields an action.
func Detect(doc *normalize.Document) Detection {
	var det Detection
	if doc == nil {
		det.Warning = insufficient(0)
		return det
	}

	seen := make(map[string]struct{})
	for _, sentence := range doc.Sentences {
		if len(det.Actions) == MaxActions {
			break
		}
		action, ok := fromSentence(sentence)
		if !ok {
			continue
		}
		key := action.VerbPhrase + "\x00" + prefix(sentence, dedupeRunes)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		det.Actions = append(det.Actions, action)
	}

	if len(det.Actions) < MinActions {
		det.Warning = insufficient(len(det.Actions))
	}
	return det
}

func insufficient(n int) model.Warning {
	return model.Warning{
		Code:    model.WarningInsufficientActions,
		Message: fmt.Sprintf("found %d complete actions, fewer than %d", n, MinActions),
	}
}

type hit struct {
	verb string
	pos  int // rune offset
}

func fromSentence(sentence string) (model.DetectedAction, bool) {
	runes := []rune(sentence)
	for _, h := range verbHits(sentence) {
		verbLen := utf8.RuneCountInString(h.verb)
		start := max(0, h.pos-leadRunes)
		end := min(len(runes), h.pos+verbLen+trailRunes)
		phrase := trimPunct(string(runes[start:end]))
		if !accept(phrase, h.verb) {
			continue
		}
		tags := abilityTags(h.verb+phrase, sentence)
		return model.DetectedAction{
			VerbPhrase:         phrase,
			Verb:               h.verb,
			ContainingSentence: sentence,
			ResumeQuote:        prefix(sentence, MaxQuoteRunes),
			AbilityTags:        tags,
			Confidence:         confidence(phrase, sentence, tags),
		}, true
	}
	return model.DetectedAction{}, false
}

// verbHits lists every occurrence of every dictionary verb by position in the sentence. Verbs
// hidden inside a longer verb at the same offset keep dictionary order.
func verbHits(sentence string) []hit {
	lower := strings.ToLower(sentence)
	var hits []hit
	for _, v := range lexicon.Verbs() {
		for from := 0; from < len(lower); {
			idx := strings.Index(lower[from:], v)
			if idx < 0 {
				break
			}
			idx += from
			// ToLower maps rune by rune, so rune offsets carry over to sentence.
			hits = append(hits, hit{verb: v, pos: utf8.RuneCountInString(lower[:idx])})
			from = idx + len(v)
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })
	return hits
}

func accept(phrase, verb string) bool {
	if utf8.RuneCountInString(phrase) < MinPhraseRunes {
		return false
	}
	if !strings.Contains(strings.ToLower(phrase), verb) {
		return false
	}
	if !lexicon.ContainsIndicator(phrase) {
		return false
	}
	return hasLetter(phrase)
}

func abilityTags(context, sentence string) []string {
	var tags []string
	seen := make(map[string]struct{})
	add := func(t string) {
		if _, ok := seen[t]; ok || len(tags) == maxTags {
			return
		}
		seen[t] = struct{}{}
		tags = append(tags, t)
	}
	for _, t := range lexicon.MapAction(context) {
		add(t)
	}
	for _, t := range lexicon.MatchPool(sentence) {
		add(t)
	}
	for _, t := range lexicon.PaddingTags() {
		if len(tags) >= minTags {
			break
		}
		add(t)
	}
	return tags
}

// confidence grows with tag support, a quantified outcome and phrase length.
func confidence(phrase, sentence string, tags []string) float64 {
	c := 0.5
	c += 0.1 * float64(len(tags)-minTags+1)
	if strings.IndexFunc(sentence, unicode.IsDigit) >= 0 {
		c += 0.1
	}
	if utf8.RuneCountInString(phrase) >= 12 {
		c += 0.1
	}
	return min(c, maxConfidence)
}

func trimPunct(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
	})
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func prefix(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
