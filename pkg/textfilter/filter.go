package textfilter

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// Policy categories reported by the filter. Codes match the content policy used by the guard model.
const (
	CategoryViolenceHate = "O1"
	CategorySexual       = "O2"
	CategoryProfanity    = "O4"
)

// Terms that are never acceptable in an all-ages story, keyed by category.
// Mild words that suit a fantasy setting ("hell", "damn") and words with
// common innocent meanings (birds, crossbows) are left to the guard model.
var blockedTerms = map[string][]string{
	CategoryViolenceHate: {
		"fag", "retard", "nigger", "nigga", "spic", "chink", "kike",
	},
	CategorySexual: {
		"pussy", "boobs", "whore", "slut",
	},
	CategoryProfanity: {
		"fuck", "fucking", "motherfucker", "shit", "bullshit", "horseshit",
		"dipshit", "shithead", "bitch", "asshole", "dumbass", "jackass",
		"dickhead", "douchebag", "goddamn",
	},
}

// ProfanityFilter matches blocked terms in text
type ProfanityFilter struct {
	patterns map[string]*regexp.Regexp
}

// NewProfanityFilter creates a new profanity filter
func NewProfanityFilter() *ProfanityFilter {
	pf := &ProfanityFilter{
		patterns: make(map[string]*regexp.Regexp, len(blockedTerms)),
	}

	// One alternation per category, matched on word boundaries.
	for category, terms := range blockedTerms {
		quoted := make([]string, len(terms))
		for i, term := range terms {
			quoted[i] = regexp.QuoteMeta(term)
		}
		pf.patterns[category] = regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)
	}

	return pf
}

// Categories returns the sorted policy categories violated by text.
// A nil result means the text is clean.
func (pf *ProfanityFilter) Categories(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	// Casers are stateful, so each call gets its own.
	folded := cases.Fold().String(text)

	var found []string
	for category, re := range pf.patterns {
		if re.MatchString(folded) {
			found = append(found, category)
		}
	}
	sort.Strings(found)
	return found
}

// ContainsProfanity checks if the text contains any blocked term
func (pf *ProfanityFilter) ContainsProfanity(text string) bool {
	return len(pf.Categories(text)) > 0
}
