package matcher

import "testing"

func TestTokenSortRatioIdenticalTokensDifferentOrder(t *testing.T) {
	r := TokenSortRatio("win the election trump", "trump win the election")
	if r != 100 {
		t.Fatalf("expected 100 for token-order-only difference, got %d", r)
	}
}

func TestTokenSortRatioAboveThresholdForNearDuplicate(t *testing.T) {
	r := TokenSortRatio("will democrats win the senate in 2026", "will the democrats win senate 2026")
	if r < CrossVenueThreshold {
		t.Fatalf("expected near-duplicate titles to score >= %d, got %d", CrossVenueThreshold, r)
	}
}

func TestTokenSortRatioLowForUnrelatedTitles(t *testing.T) {
	r := TokenSortRatio("will bitcoin reach 100k", "will it rain in paris tomorrow")
	if r >= CrossVenueThreshold {
		t.Fatalf("expected unrelated titles to score below threshold, got %d", r)
	}
}
