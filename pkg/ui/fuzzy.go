package ui

import (
	"strings"
	"unicode"
)

// fuzzyScore returns a score for how well query matches s (0 = no match).
// fzf-style scoring: consecutive matches and word boundaries score higher.
func fuzzyScore(s, query string) int {
	s = strings.ToLower(s)
	query = strings.ToLower(query)

	if s == query {
		return 1000
	}
	if strings.HasPrefix(s, query) {
		return 500 + len(query)
	}
	if strings.Contains(s, query) {
		return 200 + len(query)
	}

	// Fuzzy subsequence match
	si, qi := 0, 0
	score := 0
	consecutive := 0
	lastMatchIdx := -1

	for si < len(s) && qi < len(query) {
		if s[si] == query[qi] {
			qi++
			matchScore := 10

			if lastMatchIdx == si-1 {
				consecutive++
				matchScore += consecutive * 5
			} else {
				consecutive = 0
			}

			if si == 0 || !unicode.IsLetter(rune(s[si-1])) {
				matchScore += 15
			}

			score += matchScore
			lastMatchIdx = si
		}
		si++
	}

	// Only count as match if all query chars were found
	if qi == len(query) {
		return score
	}
	return 0
}
