package narrative

import (
	"strings"

	"github.com/spigell/resume-scorer/internal/lexicon"
	"github.com/spigell/resume-scorer/internal/model"
	"github.com/spigell/resume-scorer/internal/utils"
)

const (
	evidencePerDimension = 3
	dedupeActionRunes    = 30
	dedupeQuoteRunes     = 50
)

// EvidenceText renders the evidence chain grouped by dimension, each item as three labeled lines.
// Items repeating an earlier (action, quote) pair are dropped.
func EvidenceText(chain []model.EvidenceItem, cf model.CleanFamily) string {
	seen := make(map[string]struct{})
	var blocks []string

	for _, dim := range model.EvidenceOrder {
		var items []string
		for _, e := range chain {
			if e.Dimension != dim || len(items) == evidencePerDimension {
				continue
			}
			if !e.Insufficient() {
				key := utils.FirstRunes(e.ActionPhrase, dedupeActionRunes) + "\x00" + utils.FirstRunes(e.ResumeQuote, dedupeQuoteRunes)
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
			}
			items = append(items, strings.Join([]string{
				"Action: " + orPlaceholder(e.ActionPhrase),
				"Quote: " + orPlaceholder(e.ResumeQuote),
				"Reasoning: " + orPlaceholder(e.Reasoning),
			}, "\n"))
		}
		if len(items) == 0 {
			continue
		}
		blocks = append(blocks, "["+dim.Label()+"]\n"+strings.Join(items, "\n\n"))
	}

	if len(blocks) == 0 {
		return Placeholder
	}
	return lexicon.Scrub(cf, strings.Join(blocks, "\n\n"))
}
