package narrative

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const terminalPunctuation = "。！？.!?"

// completeSentence strips leading list numbering and punctuation and makes sure the quote ends
// with a sentence terminator.
func completeSentence(q string) string {
	q = strings.TrimLeftFunc(q, func(r rune) bool {
		return unicode.IsDigit(r) || unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
	})
	q = strings.TrimRightFunc(q, func(r rune) bool {
		return unicode.IsSpace(r) || (unicode.IsPunct(r) && !strings.ContainsRune(terminalPunctuation, r))
	})
	if q == "" {
		return ""
	}
	last, _ := utf8.DecodeLastRuneInString(q)
	if !strings.ContainsRune(terminalPunctuation, last) {
		q += "。"
	}
	return q
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return Placeholder
	}
	return s
}

func appendUnique(list []string, seen map[string]struct{}, limit int, values ...string) []string {
	for _, v := range values {
		if len(list) >= limit {
			return list
		}
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		list = append(list, v)
	}
	return list
}
