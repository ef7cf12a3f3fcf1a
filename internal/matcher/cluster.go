// Package matcher clusters free-text market titles into canonical
// events across venues, per spec.md §4.5: single-pass greedy clustering
// gated by category, year overlap, same-venue exactness, cross-venue
// fuzzy similarity, and semantic-conflict phrase pairs.
package matcher

import (
	"strings"

	"github.com/Just-Trades13/OddsAxiome/internal/model"
)

// CrossVenueThreshold is the minimum token-sort-ratio required for two
// titles from different venues to cluster together.
const CrossVenueThreshold = 82

var announcementPhrases = []string{
	"run for", "announce", "file for", "seek the nomination", "declare candidacy",
}

var outcomePhrases = []string{
	"win", "become", "elected", "prevail", "capture",
}

var aggregatePhrases = []string{
	"which party", "what party", "party to win", "party control",
}

// Input is one raw title awaiting clustering, paired with the side
// information the gates need.
type Input struct {
	Title    string
	Venue    string
	Category model.Category
}

type cluster struct {
	representative string // original (un-normalised) first-seen title
	normalized     string
	category       model.Category
	years          map[string]struct{}
	venues         map[string]struct{}
}

// Result is the output of a clustering pass: every raw title mapped to
// its canonical representative.
type Result struct {
	CanonicalOf map[string]string
}

// Cluster runs the single-pass greedy clustering algorithm over inputs
// in order, implementing spec.md §4.5 steps 1-4.
func Cluster(inputs []Input) Result {
	clusters := make([]*cluster, 0, len(inputs))
	canonicalOf := make(map[string]string, len(inputs))

	for _, in := range inputs {
		norm := NormalizeTitle(in.Title)
		if norm == "" {
			canonicalOf[in.Title] = in.Title
			continue
		}

		years := YearSet(in.Title)
		matched := false
		for _, c := range clusters {
			if !gatesPass(c, in, norm, years) {
				continue
			}
			c.venues[in.Venue] = struct{}{}
			for y := range years {
				c.years[y] = struct{}{}
			}
			canonicalOf[in.Title] = c.representative
			matched = true
			break
		}

		if matched {
			continue
		}

		nc := &cluster{
			representative: in.Title,
			normalized:     norm,
			category:       in.Category,
			years:          years,
			venues:         map[string]struct{}{in.Venue: {}},
		}
		clusters = append(clusters, nc)
		canonicalOf[in.Title] = in.Title
	}

	// Invariant (spec.md §3): the representative maps to itself.
	for _, c := range clusters {
		canonicalOf[c.representative] = c.representative
	}

	return Result{CanonicalOf: canonicalOf}
}

func gatesPass(c *cluster, in Input, normInput string, inputYears map[string]struct{}) bool {
	if c.category != model.CategoryUnknown && in.Category != model.CategoryUnknown && c.category != in.Category {
		return false
	}

	if yearSetsDisjoint(c.years, inputYears) {
		return false
	}

	if _, alreadyFromVenue := c.venues[in.Venue]; alreadyFromVenue {
		return normInput == c.normalized
	}

	if TokenSortRatio(normInput, c.normalized) < CrossVenueThreshold {
		return false
	}

	if semanticConflict(normInput, c.normalized) {
		return false
	}

	return true
}

// semanticConflict implements spec.md §4.5's two conflict rules: a
// candidacy-announcement phrase against an outcome phrase, and an
// aggregate ("which party") phrase present in only one title.
func semanticConflict(a, b string) bool {
	if containsAny(a, announcementPhrases) && containsAny(b, outcomePhrases) {
		return true
	}
	if containsAny(b, announcementPhrases) && containsAny(a, outcomePhrases) {
		return true
	}

	aAgg := containsAny(a, aggregatePhrases)
	bAgg := containsAny(b, aggregatePhrases)
	if aAgg != bAgg {
		return true
	}

	return false
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
