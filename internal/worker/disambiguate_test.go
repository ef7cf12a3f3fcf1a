package worker

import (
	"testing"

	"github.com/Just-Trades13/OddsAxiome/internal/matcher"
)

func TestSplitMultiCandidateSkipsBinaryMarkets(t *testing.T) {
	candidates := []Candidate{{Name: "Yes", Index: 0}, {Name: "No", Index: 1}}
	if got := SplitMultiCandidate("Will X happen?", "ext-1", candidates); got != nil {
		t.Fatalf("expected nil for a binary market, got %d splits", len(got))
	}
}

func TestSplitMultiCandidateProducesOneMarketPerCandidate(t *testing.T) {
	candidates := []Candidate{
		{Name: "Alice", Index: 0},
		{Name: "Bob", Index: 1},
		{Name: "Carol", Index: 2},
	}
	got := SplitMultiCandidate("Who will win the nomination?", "ext-7", candidates)
	if len(got) != 3 {
		t.Fatalf("expected 3 synthetic markets, got %d", len(got))
	}
	if got[1].Title != "Will Bob win the nomination?" {
		t.Fatalf("unexpected title: %q", got[1].Title)
	}
	if got[2].ExternalID != "ext-7::2" {
		t.Fatalf("unexpected external id: %q", got[2].ExternalID)
	}
}

func TestSplitMultiCandidateHandlesBeThePhrasing(t *testing.T) {
	candidates := []Candidate{
		{Name: "Alice", Index: 0},
		{Name: "Bob", Index: 1},
		{Name: "Carol", Index: 2},
	}
	got := SplitMultiCandidate("Who will be the next pope?", "ext-8", candidates)
	if got[0].Title != "Will Alice be the next pope?" {
		t.Fatalf("unexpected title: %q", got[0].Title)
	}
}

// The whole point of the split title's phrasing is that it clusters
// with an equivalently-phrased binary market quoted natively on another
// venue — asserting the raw string equality above isn't enough to catch
// a format that merely looks plausible but fails the matcher's gate.
func TestSplitMultiCandidateTitleClustersWithVenueNativeBinaryTitle(t *testing.T) {
	candidates := []Candidate{
		{Name: "Alice", Index: 0},
		{Name: "Bob", Index: 1},
		{Name: "Carol", Index: 2},
	}
	got := SplitMultiCandidate("Who will win the nomination?", "ext-7", candidates)

	venueNativeTitle := "Will Bob win the nomination?"
	ratio := matcher.TokenSortRatio(matcher.NormalizeTitle(got[1].Title), matcher.NormalizeTitle(venueNativeTitle))
	if ratio < matcher.CrossVenueThreshold {
		t.Fatalf("expected split title %q to cluster with %q (ratio %d < threshold %d)",
			got[1].Title, venueNativeTitle, ratio, matcher.CrossVenueThreshold)
	}
}

func TestInferBinaryOutcomesSumsToOne(t *testing.T) {
	yesName, noName, yes, no := InferBinaryOutcomes(0.37)
	if yesName != "Yes" || noName != "No" {
		t.Fatalf("unexpected outcome names: %q %q", yesName, noName)
	}
	if yes != 0.37 || no != 0.63 {
		t.Fatalf("unexpected probabilities: yes=%v no=%v", yes, no)
	}
}

func TestInferBinaryOutcomesClampsOutOfRange(t *testing.T) {
	_, _, yes, no := InferBinaryOutcomes(1.4)
	if yes != 1 || no != 0 {
		t.Fatalf("expected clamped yes=1 no=0, got yes=%v no=%v", yes, no)
	}
}

func TestIsBinaryTitleDetectsVersusPhrasing(t *testing.T) {
	if !IsBinaryTitle("Team A vs Team B") {
		t.Fatalf("expected versus phrasing detected")
	}
	if IsBinaryTitle("Will X win the election?") {
		t.Fatalf("expected non-versus title rejected")
	}
}
