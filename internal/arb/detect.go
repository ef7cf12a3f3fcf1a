package arb

import (
	"github.com/Just-Trades13/OddsAxiome/internal/model"
)

// Detect evaluates one canonical title's snapshot for an arbitrage
// opportunity, per spec.md §4.4's detection subtask: best implied
// probability per outcome, summed, compared against 1 - minProfit.
// Returns ok=false when the outcome set isn't covered by at least two
// venues, any outcome has no quote at all, or two legs would name the
// same venue (every leg must reference a distinct venue).
func Detect(snap Snapshot, minProfit float64) (model.Opportunity, bool) {
	if len(snap.Outcomes) == 0 {
		return model.Opportunity{}, false
	}

	legs := make([]model.Leg, 0, len(snap.Outcomes))
	total := 0.0
	venuesInvolved := make(map[string]struct{})

	for outcome, byVenue := range snap.Outcomes {
		if len(byVenue) == 0 {
			return model.Opportunity{}, false // buffer miss: opportunity skipped, not an error
		}
		best, ok := bestByImplied(byVenue)
		if !ok {
			return model.Opportunity{}, false
		}
		legs = append(legs, model.Leg{
			VenueSlug:        best.VenueSlug,
			ExternalMarketID: best.ExternalMarketID,
			OutcomeName:      outcome,
			Price:            best.Price,
			ImpliedProb:      best.ImpliedProb,
		})
		total += best.ImpliedProb
		venuesInvolved[best.VenueSlug] = struct{}{}
	}

	if len(venuesInvolved) < 2 || len(venuesInvolved) != len(legs) {
		return model.Opportunity{}, false
	}

	if total >= 1-minProfit {
		return model.Opportunity{}, false
	}

	profit := 1 - total
	return model.Opportunity{
		CanonicalTitle: snap.Canonical,
		Category:       snap.Category,
		TotalImplied:   total,
		ExpectedProfit: profit,
		Legs:           legs,
	}, true
}

// bestByImplied picks the lowest-implied-probability quote for one
// outcome across venues. Ties are broken by the lexicographically
// smallest venue slug, so the choice does not depend on Go's randomised
// map iteration order.
func bestByImplied(byVenue map[string]model.NormalisedQuote) (model.NormalisedQuote, bool) {
	var best model.NormalisedQuote
	found := false
	for _, q := range byVenue {
		if !found || q.ImpliedProb < best.ImpliedProb ||
			(q.ImpliedProb == best.ImpliedProb && q.VenueSlug < best.VenueSlug) {
			best = q
			found = true
		}
	}
	return best, found
}

// Stakes computes per-leg stake and payout for a total stake S, per
// spec.md §4.4: stake_i = S*(1/p_i) / sum_j(1/p_j); payout_i = stake_i/p_i.
// Sizing is informational and never gates emission.
func Stakes(legs []model.Leg, totalStake float64) []model.Leg {
	inverseSum := 0.0
	for _, l := range legs {
		if l.ImpliedProb > 0 {
			inverseSum += 1 / l.ImpliedProb
		}
	}
	if inverseSum == 0 {
		return legs
	}

	out := make([]model.Leg, len(legs))
	for i, l := range legs {
		out[i] = l
		if l.ImpliedProb <= 0 {
			continue
		}
		stake := totalStake * (1 / l.ImpliedProb) / inverseSum
		out[i].SuggestedStake = stake
		out[i].SuggestedPayout = stake / l.ImpliedProb
	}
	return out
}
