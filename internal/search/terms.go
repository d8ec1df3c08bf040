package search

import (
	"regexp"
	"sort"
	"strings"
)

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "is": true, "are": true, "was": true,
	"were": true, "be": true, "been": true, "being": true, "have": true,
	"has": true, "had": true, "do": true, "does": true, "did": true,
	"will": true, "would": true, "could": true, "should": true, "may": true,
	"might": true, "can": true, "this": true, "that": true, "these": true,
	"those": true, "i": true, "you": true, "he": true, "she": true,
	"it": true, "we": true, "they": true, "me": true, "him": true,
	"her": true, "us": true, "them": true, "what": true, "when": true,
	"where": true, "why": true, "how": true, "who": true, "which": true,
	"whose": true, "whom": true, "get": true, "got": true, "getting": true,
	"want": true, "wanted": true, "need": true, "needed": true,
	"like": true, "liked": true, "see": true, "saw": true, "seen": true,
	"look": true, "looked": true, "find": true, "found": true,
	"search": true, "searched": true, "show": true, "showed": true,
	"tell": true, "told": true, "say": true, "said": true, "know": true,
	"knew": true, "think": true, "thought": true, "make": true,
	"made": true, "take": true, "took": true, "come": true, "came": true,
	"go": true, "went": true, "gone": true, "here": true, "there": true,
	"now": true, "then": true, "today": true, "yesterday": true,
	"tomorrow": true, "good": true, "bad": true, "big": true,
	"small": true, "new": true, "old": true, "first": true, "last": true,
	"next": true, "previous": true, "some": true, "any": true, "all": true,
	"every": true, "each": true, "many": true, "much": true, "few": true,
	"several": true, "very": true, "really": true, "quite": true,
	"just": true, "only": true, "even": true, "still": true, "also": true,
	"too": true, "as": true, "well": true, "so": true, "because": true,
	"since": true, "while": true, "during": true, "before": true,
	"after": true, "until": true, "from": true, "into": true,
	"through": true, "above": true, "below": true, "up": true,
	"down": true, "out": true, "off": true, "over": true, "under": true,
	"again": true, "further": true, "once": true,
}

var nonWord = regexp.MustCompile(`[^\w\s]`)

const (
	maxKeyTerms = 8
	maxPhrases  = 3
)

// extractKeyTerms pulls up to eight search terms out of a free-text
// query: lowercased, punctuation stripped, stop words and short words
// dropped, deduplicated, longest first with earliest query position as
// the tiebreak.
func extractKeyTerms(query string) []string {
	lower := strings.ToLower(query)
	cleaned := nonWord.ReplaceAllString(lower, " ")

	seen := make(map[string]bool)
	var terms []string
	for _, w := range strings.Fields(cleaned) {
		if len(w) <= 2 || stopWords[w] || seen[w] {
			continue
		}
		seen[w] = true
		terms = append(terms, w)
	}

	sort.SliceStable(terms, func(i, j int) bool {
		if len(terms[i]) != len(terms[j]) {
			return len(terms[i]) > len(terms[j])
		}
		return strings.Index(lower, terms[i]) < strings.Index(lower, terms[j])
	})

	if len(terms) > maxKeyTerms {
		terms = terms[:maxKeyTerms]
	}
	return terms
}

// extractPhrases derives contiguous 2-4 word substrings of the query,
// capped at three candidates.
func extractPhrases(query string) []string {
	words := strings.Fields(query)
	var phrases []string
	for i := 0; i < len(words)-1; i++ {
		for n := 2; n <= 4 && i+n <= len(words); n++ {
			phrase := strings.Join(words[i:i+n], " ")
			if len(phrase) > 3 {
				phrases = append(phrases, phrase)
			}
			if len(phrases) == maxPhrases {
				return phrases
			}
		}
	}
	return phrases
}

// fuzzyWords takes up to five query words longer than two characters.
func fuzzyWords(query string) []string {
	var words []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		if len(w) > 2 {
			words = append(words, w)
		}
		if len(words) == 5 {
			break
		}
	}
	return words
}

// prefixOf truncates the last character for partial matching, keeping a
// minimum of three characters. Truncation is rune-based so words ending
// in a multi-byte character stay valid needles.
func prefixOf(word string) string {
	runes := []rune(word)
	n := len(runes) - 1
	if n < 3 {
		n = 3
	}
	if n > len(runes) {
		n = len(runes)
	}
	return string(runes[:n])
}
