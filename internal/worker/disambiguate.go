package worker

import (
	"fmt"
	"strings"
)

// Candidate is one named selection within a multi-candidate market
// (e.g. one nominee among several in a primary field).
type Candidate struct {
	Name  string
	Index int
}

// SplitMultiCandidate turns a single multi-outcome market into one
// synthetic per-candidate title and external id, per spec.md §4.2's
// title disambiguation rule: a market with more than two named
// outcomes is split so each candidate becomes its own binary
// yes/no market against the field — "Will {candidate} win X?" — so that
// cross-venue matching against per-candidate binary markets phrased the
// same way on other venues succeeds.
func SplitMultiCandidate(baseTitle, baseExternalID string, candidates []Candidate) []SplitMarket {
	if len(candidates) <= 2 {
		return nil
	}

	predicate := predicateOf(baseTitle)
	out := make([]SplitMarket, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, SplitMarket{
			Title:      fmt.Sprintf("Will %s %s?", c.Name, predicate),
			ExternalID: fmt.Sprintf("%s::%d", baseExternalID, c.Index),
			Candidate:  c,
		})
	}
	return out
}

// whoWillPrefix is the interrogative subject a multi-candidate market
// title is expected to open with — "Who will win the nomination?"'s
// predicate is everything after it: "win the nomination".
const whoWillPrefix = "who will "

// predicateOf extracts the verb phrase from a "Who will {predicate}?"
// style base title, so it can be recombined as "Will {candidate}
// {predicate}?". Titles that don't match the expected interrogative
// form are used verbatim as the predicate, best-effort.
func predicateOf(baseTitle string) string {
	trimmed := strings.TrimSpace(baseTitle)
	lower := strings.ToLower(trimmed)

	predicate := trimmed
	if strings.HasPrefix(lower, whoWillPrefix) {
		predicate = strings.TrimSpace(trimmed[len(whoWillPrefix):])
	}
	return strings.TrimSpace(strings.TrimSuffix(predicate, "?"))
}

// SplitMarket is one synthetic binary market produced by
// SplitMultiCandidate.
type SplitMarket struct {
	Title      string
	ExternalID string
	Candidate  Candidate
}

// InferBinaryOutcomes builds the Yes/No outcome pair for a venue that
// reports only a single probability field for a binary market (e.g.
// Manifold), per spec.md §4.2's binary Yes/No inference rule.
func InferBinaryOutcomes(yesProb float64) (yesName, noName string, yes, no float64) {
	if yesProb < 0 {
		yesProb = 0
	}
	if yesProb > 1 {
		yesProb = 1
	}
	return "Yes", "No", yesProb, 1 - yesProb
}

// IsBinaryTitle reports whether title already names its own two
// outcomes (e.g. "X vs Y"), in which case binary inference should not
// overwrite the venue-reported outcome names.
func IsBinaryTitle(title string) bool {
	lower := strings.ToLower(title)
	return strings.Contains(lower, " vs ") || strings.Contains(lower, " vs. ")
}
