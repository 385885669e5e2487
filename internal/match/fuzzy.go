// Package match implements the fuzzy string matching used to reconcile
// LLM output with catalog names.
package match

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// SimilarityThreshold is the minimum ratio for a fuzzy match to count.
const SimilarityThreshold = 0.7

// FindBestMatch returns the candidate that best matches query, or ok=false
// when nothing reaches the similarity floor. An exact case-insensitive match
// wins immediately; otherwise the highest sequence-matching ratio wins, with
// ties broken by first occurrence in candidate order. Pure function.
func FindBestMatch(query string, candidates []string) (string, bool) {
	if len(candidates) == 0 {
		return "", false
	}

	queryLower := strings.ToLower(strings.TrimSpace(query))

	for _, candidate := range candidates {
		if strings.ToLower(candidate) == queryLower {
			return candidate, true
		}
	}

	best := ""
	bestScore := 0.0
	for _, candidate := range candidates {
		score := Ratio(queryLower, strings.ToLower(candidate))
		if score > bestScore {
			bestScore = score
			best = candidate
		}
	}

	if bestScore >= SimilarityThreshold {
		return best, true
	}
	return "", false
}

// Ratio is the Gestalt sequence-matching similarity in [0,1]: 2*M/T where M
// is the number of matching characters and T the total length of both
// strings.
func Ratio(a, b string) float64 {
	m := difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, ""))
	return m.Ratio()
}
