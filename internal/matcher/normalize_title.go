package matcher

import (
	"regexp"
	"strings"
)

var (
	bracketedFragment = regexp.MustCompile(`[\(\[][^\)\]]*[\)\]]`)
	yearPattern        = regexp.MustCompile(`20\d{2}`)
	whitespaceRun      = regexp.MustCompile(`\s+`)
)

// NormalizeTitle strips a trailing '?', parenthesised/bracketed
// fragments, collapses whitespace, and lower-cases — the date-preserving
// variant named in spec.md §4.5 (years survive normalisation so the
// year gate can inspect them).
func NormalizeTitle(title string) string {
	t := bracketedFragment.ReplaceAllString(title, "")
	t = strings.TrimSpace(t)
	t = strings.TrimSuffix(t, "?")
	t = whitespaceRun.ReplaceAllString(t, " ")
	t = strings.ToLower(strings.TrimSpace(t))
	return t
}

// YearSet extracts every 4-digit substring matching 20\d{2} from the raw
// title, before normalisation strips anything.
func YearSet(title string) map[string]struct{} {
	matches := yearPattern.FindAllString(title, -1)
	set := make(map[string]struct{}, len(matches))
	for _, y := range matches {
		set[y] = struct{}{}
	}
	return set
}

func yearSetsDisjoint(a, b map[string]struct{}) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	for y := range a {
		if _, ok := b[y]; ok {
			return false
		}
	}
	return true
}
