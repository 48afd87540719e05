package search

import "strings"

// Stop words to filter out when extracting keyword tokens
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true, "how": true, "what": true, "when": true,
	"where": true, "which": true, "can": true, "does": true, "will": true,
}

// maxKeywordTokens caps how many tokens a keyword search uses.
const maxKeywordTokens = 5

// significantTokens splits a query into lowercase tokens, trims punctuation,
// and keeps up to maxKeywordTokens words longer than three characters that
// are not stop words.
func significantTokens(query string) []string {
	words := strings.Fields(query)
	tokens := make([]string, 0, len(words))

	for _, word := range words {
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))

		if len(cleaned) <= 3 || stopWords[cleaned] {
			continue
		}

		tokens = append(tokens, cleaned)
		if len(tokens) == maxKeywordTokens {
			break
		}
	}

	return tokens
}

// matchesAnyToken reports whether the document contains any of the tokens
// as a substring, case-insensitively.
func matchesAnyToken(document string, tokens []string) bool {
	if len(tokens) == 0 {
		return false
	}

	lowered := strings.ToLower(document)
	for _, token := range tokens {
		if strings.Contains(lowered, token) {
			return true
		}
	}

	return false
}
