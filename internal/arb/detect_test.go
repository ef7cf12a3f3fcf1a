package arb

import (
	"math"
	"testing"
	"time"

	"github.com/Just-Trades13/OddsAxiome/internal/model"
)

func q(venue, outcome string, implied float64) model.NormalisedQuote {
	return model.NormalisedQuote{
		RawQuote: model.RawQuote{
			VenueSlug: venue, OutcomeName: outcome, ExternalMarketID: venue + "-m",
			CapturedAt: time.Now(),
		},
		ImpliedProb: implied,
	}
}

// Scenario 1: two-leg probability arb.
func TestDetectTwoLegProbabilityArb(t *testing.T) {
	snap := Snapshot{
		Canonical: "Will X win?",
		Outcomes: map[string]map[string]model.NormalisedQuote{
			"Yes": {"A": q("A", "Yes", 0.47), "B": q("B", "Yes", 0.50)},
			"No":  {"A": q("A", "No", 0.55), "B": q("B", "No", 0.48)},
		},
	}

	opp, ok := Detect(snap, 0.001)
	if !ok {
		t.Fatalf("expected opportunity detected")
	}
	if math.Abs(opp.ExpectedProfit-0.05) > 1e-9 {
		t.Fatalf("expected profit ~0.05, got %v", opp.ExpectedProfit)
	}
	if len(opp.Legs) != 2 {
		t.Fatalf("expected 2 legs, got %d", len(opp.Legs))
	}

	byOutcome := map[string]model.Leg{}
	for _, l := range opp.Legs {
		byOutcome[l.OutcomeName] = l
	}
	if byOutcome["Yes"].VenueSlug != "A" || byOutcome["No"].VenueSlug != "B" {
		t.Fatalf("expected legs [A/Yes, B/No], got %+v", opp.Legs)
	}
}

// Scenario 2: cents normalisation combined quote set yields a thin arb.
func TestDetectCentsCombinedYieldsThinProfit(t *testing.T) {
	snap := Snapshot{
		Canonical: "Will X win?",
		Outcomes: map[string]map[string]model.NormalisedQuote{
			"Yes": {"A": q("A", "Yes", 0.47), "C": q("C", "Yes", 0.47)},
			"No":  {"A": q("A", "No", 0.55), "C": q("C", "No", 0.52)},
		},
	}
	opp, ok := Detect(snap, 0.001)
	if !ok {
		t.Fatalf("expected opportunity at default threshold (total 0.99)")
	}
	if math.Abs(opp.ExpectedProfit-0.01) > 1e-9 {
		t.Fatalf("expected profit ~0.01, got %v", opp.ExpectedProfit)
	}
}

// Scenario 3: american odds best-per-outcome selection.
func TestDetectAmericanOddsBestPerOutcome(t *testing.T) {
	// D: home +150 (0.4), away -180 (0.643); E: home +160 (0.385), away -200 (0.667).
	// Best home is E (0.3846) and best away is D (0.6429): total 1.0275, no arb.
	snap := Snapshot{
		Canonical: "Away @ Home",
		Outcomes: map[string]map[string]model.NormalisedQuote{
			"home": {"D": q("D", "home", 0.4), "E": q("E", "home", 0.3846)},
			"away": {"D": q("D", "away", 0.6429), "E": q("E", "away", 0.6667)},
		},
	}
	if _, ok := Detect(snap, 0.001); ok {
		t.Fatalf("expected no opportunity: best home 0.3846 + best away 0.6429 = 1.0275")
	}
	home, _ := bestByImplied(snap.Outcomes["home"])
	if home.VenueSlug != "E" {
		t.Fatalf("expected best home at E (0.3846 < 0.4), got %+v", home)
	}
	away, _ := bestByImplied(snap.Outcomes["away"])
	if away.VenueSlug != "D" {
		t.Fatalf("expected best away at D (0.6429 < 0.6667), got %+v", away)
	}
}

func TestDetectSkipsWhenOutcomeMissingAQuote(t *testing.T) {
	snap := Snapshot{
		Canonical: "Will X win?",
		Outcomes: map[string]map[string]model.NormalisedQuote{
			"Yes": {"A": q("A", "Yes", 0.47)},
			"No":  {},
		},
	}
	_, ok := Detect(snap, 0.001)
	if ok {
		t.Fatalf("expected detection skipped when an outcome has no quote")
	}
}

func TestDetectSkipsWhenOnlyOneVenueTotal(t *testing.T) {
	snap := Snapshot{
		Canonical: "Will X win?",
		Outcomes: map[string]map[string]model.NormalisedQuote{
			"Yes": {"A": q("A", "Yes", 0.4)},
			"No":  {"A": q("A", "No", 0.4)},
		},
	}
	_, ok := Detect(snap, 0.001)
	if ok {
		t.Fatalf("expected no opportunity when only one venue covers the title")
	}
}

// A 3-outcome market where two outcomes' best quotes both land on venue
// A: venuesInvolved aggregates to {A, B} (size 2) but two legs both name
// A, violating the distinct-venue-per-leg invariant.
func TestDetectRejectsWhenTwoLegsShareAVenue(t *testing.T) {
	snap := Snapshot{
		Canonical: "Three-way race",
		Outcomes: map[string]map[string]model.NormalisedQuote{
			// best-per-outcome selection picks A for both X and Y, and B
			// for Z, so venuesInvolved aggregates to {A, B} (size 2) even
			// though venue A would supply two of the three legs.
			"X": {"A": q("A", "X", 0.2), "B": q("B", "X", 0.3)},
			"Y": {"A": q("A", "Y", 0.2), "B": q("B", "Y", 0.3)},
			"Z": {"A": q("A", "Z", 0.3), "B": q("B", "Z", 0.2)},
		},
	}
	_, ok := Detect(snap, 0.001)
	if ok {
		t.Fatalf("expected rejection: venue A would supply two legs")
	}
}

func TestDetectRejectsBelowMinProfit(t *testing.T) {
	snap := Snapshot{
		Canonical: "Will X win?",
		Outcomes: map[string]map[string]model.NormalisedQuote{
			"Yes": {"A": q("A", "Yes", 0.49), "B": q("B", "Yes", 0.51)},
			"No":  {"A": q("A", "No", 0.51), "B": q("B", "No", 0.50)},
		},
	}
	_, ok := Detect(snap, 0.02)
	if ok {
		t.Fatalf("expected rejection: total implied 0.99 is not < 1-0.02")
	}
}

func TestStakesSumToTotal(t *testing.T) {
	legs := []model.Leg{
		{VenueSlug: "A", OutcomeName: "Yes", ImpliedProb: 0.47},
		{VenueSlug: "B", OutcomeName: "No", ImpliedProb: 0.48},
	}
	out := Stakes(legs, 100)
	sum := out[0].SuggestedStake + out[1].SuggestedStake
	if math.Abs(sum-100) > 1e-6 {
		t.Fatalf("expected stakes to sum to 100, got %v", sum)
	}
	if math.Abs(out[0].SuggestedStake-50.53) > 0.1 {
		t.Fatalf("expected leg A stake ~50.53, got %v", out[0].SuggestedStake)
	}
	if math.Abs(out[1].SuggestedStake-49.47) > 0.1 {
		t.Fatalf("expected leg B stake ~49.47, got %v", out[1].SuggestedStake)
	}
}
