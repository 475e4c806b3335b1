package narrative

import (
	"sort"

	"github.com/spigell/resume-scorer/internal/lexicon"
)

const (
	MinPersonaTags = 5
	MaxPersonaTags = 8
)

// PersonaTags ranks ability tags by how often actions and evidence carry them and keeps only
// tags whose keywords occur in the résumé text. Other grounded pool tags and then grounded
// generic abilities fill the list up to five entries.
func PersonaTags(in Input) []string {
	text := in.text()
	actions := in.usableActions()

	counts := make(map[string]int)
	byQuote := make(map[string][]string, len(actions))
	for _, a := range actions {
		for _, t := range a.AbilityTags {
			counts[t]++
		}
		byQuote[a.VerbPhrase+"\x00"+a.ResumeQuote] = a.AbilityTags
	}
	for _, e := range in.Projection.Evidence {
		for _, t := range byQuote[e.ActionPhrase+"\x00"+e.ResumeQuote] {
			counts[t]++
		}
	}

	ranked := make([]string, 0, len(counts))
	for t := range counts {
		ranked = append(ranked, t)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if counts[ranked[i]] != counts[ranked[j]] {
			return counts[ranked[i]] > counts[ranked[j]]
		}
		return lexicon.PoolIndex(ranked[i]) < lexicon.PoolIndex(ranked[j])
	})

	tags := make([]string, 0, MaxPersonaTags)
	seen := make(map[string]struct{})
	for _, t := range ranked {
		if lexicon.Grounded(t, text) {
			tags = appendUnique(tags, seen, MaxPersonaTags, t)
		}
	}
	for _, a := range lexicon.AbilityPool() {
		if len(tags) >= MinPersonaTags {
			break
		}
		if a.MatchedIn(text) {
			tags = appendUnique(tags, seen, MaxPersonaTags, a.Tag)
		}
	}
	for _, a := range lexicon.GenericAbilities() {
		if len(tags) >= MinPersonaTags {
			break
		}
		if a.MatchedIn(text) {
			tags = appendUnique(tags, seen, MaxPersonaTags, a.Tag)
		}
	}
	return tags
}
