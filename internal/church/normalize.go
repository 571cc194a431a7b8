package church

import (
	"regexp"
	"strings"
)

var (
	punctuationRe = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
	unitSuffixRe  = regexp.MustCompile(`(?i)\s+(suite|ste|unit|apt|bldg|fl|floor|#)\.?\s*\S*$`)
)

// tokenSynonyms maps whole name tokens onto a canonical form.
var tokenSynonyms = map[string]string{
	"saint": "st",
	"and":   "and", // "&" is rewritten to "and" before tokenizing
}

// trailingBoilerplate lists organizational suffix tokens stripped from the
// end of a name, innermost last. "Saint Mary Coptic Orthodox Church" and
// "St. Mary Church" both reduce to "st mary".
var trailingBoilerplate = map[string]bool{
	"church":    true,
	"orthodox":  true,
	"coptic":    true,
	"cathedral": true,
	"parish":    true,
}

// NormalizeName reduces a venue display name to its comparison form:
// lowercased, punctuation stripped, whitespace collapsed, "saint" collapsed
// to "st", "&" mapped to "and", and trailing organizational boilerplate
// removed.
func NormalizeName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, "&", " and ")
	s = punctuationRe.ReplaceAllString(s, " ")

	tokens := strings.Fields(s)
	for i, tok := range tokens {
		if canonical, ok := tokenSynonyms[tok]; ok {
			tokens[i] = canonical
		}
	}

	// Strip trailing boilerplate, but never reduce a name to nothing.
	for len(tokens) > 1 && trailingBoilerplate[tokens[len(tokens)-1]] {
		tokens = tokens[:len(tokens)-1]
	}

	return strings.Join(tokens, " ")
}

// NormalizeStreet reduces a free-text address to its street comparison form:
// the substring before the first comma, lowercased, with unit-pattern
// suffixes trimmed. This is a heuristic layer; addresses without commas pass
// through whole and the caller must not treat a miss as proof of distinctness.
func NormalizeStreet(address string) string {
	s := strings.TrimSpace(address)
	if i := strings.Index(s, ","); i >= 0 {
		s = s[:i]
	}
	s = strings.ToLower(s)
	s = unitSuffixRe.ReplaceAllString(s, "")
	return collapseWhitespace(s)
}

// SameStreet reports whether two normalized street strings denote the same
// street: equal, or one a prefix of the other (absorbs "123 Main St" vs
// "123 Main Street" style variants).
func SameStreet(a, b string) bool {
	if a == b {
		return true
	}
	if a == "" || b == "" {
		return false
	}
	return strings.HasPrefix(a, b) || strings.HasPrefix(b, a)
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
