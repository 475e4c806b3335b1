package narrative

import (
	"fmt"
	"strings"

	"github.com/spigell/resume-scorer/internal/lexicon"
	"github.com/spigell/resume-scorer/internal/normalize"
)

// Placeholder stands in for information the résumé does not provide.
const Placeholder = "not provided"

const (
	factLines      = 10
	summaryTags    = 3
	summaryPhrases = 2
)

// Summary renders the three summary_short lines: basic facts, core abilities, key experiences.
func Summary(in Input, personaTags []string) string {
	var lines []string
	if in.Doc != nil {
		lines = in.Doc.Lines()
	}
	facts := normalize.ExtractFacts(lines[:min(factLines, len(lines))])

	age, education, years := Placeholder, Placeholder, Placeholder
	if facts.Age > 0 {
		age = fmt.Sprint(facts.Age)
	}
	if facts.Education != "" {
		education = facts.Education
	}
	if facts.Years > 0 {
		years = fmt.Sprintf("%d years", facts.Years)
	}

	var phrases []string
	for _, a := range in.usableActions() {
		if len(phrases) == summaryPhrases {
			break
		}
		phrases = append(phrases, a.VerbPhrase)
	}

	summary := strings.Join([]string{
		fmt.Sprintf("Basic facts: age %s | education %s | experience %s", age, education, years),
		"Core abilities: " + orPlaceholder(strings.Join(personaTags[:min(summaryTags, len(personaTags))], ", ")),
		"Key experiences: " + orPlaceholder(strings.Join(phrases, "; ")),
	}, "\n")
	return lexicon.Scrub(in.Job.CleanFamily, summary)
}
