package matcher

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// TokenSortRatio computes a fuzzywuzzy-style token-sort-ratio: both
// strings are tokenised, sorted, rejoined, then compared by Levenshtein
// distance normalised against the longer string, scaled to [0, 100].
// No fuzzy-string-matching library exists in the retrieved example
// corpus (see DESIGN.md); agnivade/levenshtein supplies the distance
// primitive this builds on.
func TokenSortRatio(a, b string) int {
	sa := sortedTokens(a)
	sb := sortedTokens(b)
	if sa == sb {
		return 100
	}

	maxLen := len(sa)
	if len(sb) > maxLen {
		maxLen = len(sb)
	}
	if maxLen == 0 {
		return 100
	}

	dist := levenshtein.ComputeDistance(sa, sb)
	ratio := (1 - float64(dist)/float64(maxLen)) * 100
	if ratio < 0 {
		ratio = 0
	}
	return int(ratio + 0.5)
}

func sortedTokens(s string) string {
	fields := strings.Fields(s)
	sort.Strings(fields)
	return strings.Join(fields, " ")
}
