package matcher

import (
	"testing"

	"github.com/Just-Trades13/OddsAxiome/internal/model"
)

func TestNormalizeTitleStripsQuestionAndBrackets(t *testing.T) {
	got := NormalizeTitle("Will X win the 2028 election? (updated)")
	want := "will x win the 2028 election"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestYearSetExtraction(t *testing.T) {
	years := YearSet("2028 election vs 2024 primary")
	if len(years) != 2 {
		t.Fatalf("expected 2 years, got %v", years)
	}
}

func TestClusterIdenticalTitleAcrossVenues(t *testing.T) {
	inputs := []Input{
		{Title: "Will Democrats win the Senate in 2026?", Venue: "polymarket", Category: model.CategoryPolitics},
		{Title: "Will Democrats win the Senate in 2026?", Venue: "kalshi", Category: model.CategoryPolitics},
	}
	res := Cluster(inputs)
	if res.CanonicalOf[inputs[0].Title] != res.CanonicalOf[inputs[1].Title] {
		t.Fatalf("expected identical titles across venues to cluster")
	}
}

func TestSameVenueNonMergeScenario4(t *testing.T) {
	inputs := []Input{
		{Title: "Will Alice win the nomination?", Venue: "kalshi", Category: model.CategoryPolitics},
		{Title: "Will Bob win the nomination?", Venue: "kalshi", Category: model.CategoryPolitics},
		{Title: "Will Alice win the nomination?", Venue: "polymarket", Category: model.CategoryPolitics},
		{Title: "Will Bob win the nomination?", Venue: "polymarket", Category: model.CategoryPolitics},
	}
	res := Cluster(inputs)

	if res.CanonicalOf[inputs[0].Title] == res.CanonicalOf[inputs[1].Title] {
		t.Fatalf("same-venue distinct candidates must not cluster")
	}
	if res.CanonicalOf[inputs[2].Title] != res.CanonicalOf[inputs[0].Title] {
		t.Fatalf("expected venue-L Alice title to cluster with venue-K Alice title")
	}
	if res.CanonicalOf[inputs[3].Title] != res.CanonicalOf[inputs[1].Title] {
		t.Fatalf("expected venue-L Bob title to cluster with venue-K Bob title")
	}
}

func TestSemanticConflictScenario5(t *testing.T) {
	inputs := []Input{
		{Title: "Will X run for president in 2028?", Venue: "polymarket", Category: model.CategoryPolitics},
		{Title: "Will X win the 2028 presidential election?", Venue: "kalshi", Category: model.CategoryPolitics},
	}
	res := Cluster(inputs)
	if res.CanonicalOf[inputs[0].Title] == res.CanonicalOf[inputs[1].Title] {
		t.Fatalf("run-for vs win titles must not cluster")
	}
	if !semanticConflict(NormalizeTitle(inputs[0].Title), NormalizeTitle(inputs[1].Title)) {
		t.Fatalf("expected the run-for/win phrase pair to be flagged as a semantic conflict")
	}
}

func TestYearGateRejectsDisjointYears(t *testing.T) {
	inputs := []Input{
		{Title: "Will the Fed cut rates in 2026?", Venue: "polymarket", Category: model.CategoryEconomics},
		{Title: "Will the Fed cut rates in 2027?", Venue: "kalshi", Category: model.CategoryEconomics},
	}
	res := Cluster(inputs)
	if res.CanonicalOf[inputs[0].Title] == res.CanonicalOf[inputs[1].Title] {
		t.Fatalf("disjoint year sets must not cluster")
	}
}

func TestCategoryGateRejectsDifferentKnownCategories(t *testing.T) {
	inputs := []Input{
		{Title: "Will BTC reach 100k?", Venue: "deribit_events", Category: model.CategoryCrypto},
		{Title: "Will BTC reach 100k?", Venue: "kalshi", Category: model.CategoryPolitics},
	}
	res := Cluster(inputs)
	if res.CanonicalOf[inputs[0].Title] == res.CanonicalOf[inputs[1].Title] {
		t.Fatalf("different known categories must not cluster even with identical titles")
	}
}

func TestCanonicalMapIsFunction(t *testing.T) {
	inputs := []Input{
		{Title: "Will Democrats win the Senate in 2026?", Venue: "polymarket", Category: model.CategoryPolitics},
		{Title: "Will Democrats win the Senate in 2026?", Venue: "kalshi", Category: model.CategoryPolitics},
	}
	res := Cluster(inputs)
	for raw, canon := range res.CanonicalOf {
		if res.CanonicalOf[canon] != canon {
			t.Fatalf("representative %q (from raw %q) does not map to itself", canon, raw)
		}
	}
}

func TestEmptyNormalizedTitleMapsToItself(t *testing.T) {
	inputs := []Input{{Title: "?", Venue: "polymarket", Category: model.CategoryUnknown}}
	res := Cluster(inputs)
	if res.CanonicalOf["?"] != "?" {
		t.Fatalf("expected empty-normalised title to map to itself")
	}
}
