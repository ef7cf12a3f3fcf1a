package model

import "testing"

func TestOpportunityLegVenueSetDistinct(t *testing.T) {
	o := Opportunity{
		Legs: []Leg{
			{VenueSlug: "polymarket"},
			{VenueSlug: "kalshi"},
		},
	}
	set := o.LegVenueSet()
	if len(set) != 2 {
		t.Fatalf("expected 2 distinct venues, got %d", len(set))
	}
}

func TestLiveCacheEntryOutcomeIndexSet(t *testing.T) {
	e := LiveCacheEntry{
		Outcomes: map[int]OutcomeSnapshot{
			0: {Name: "Yes"},
			1: {Name: "No"},
		},
	}
	set := e.OutcomeIndexSet()
	if len(set) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(set))
	}
	if _, ok := set[0]; !ok {
		t.Fatalf("expected index 0 present")
	}
}
