package venues

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/Just-Trades13/OddsAxiome/internal/config"
	"github.com/Just-Trades13/OddsAxiome/internal/model"
	"github.com/Just-Trades13/OddsAxiome/internal/platform/circuit"
	"github.com/Just-Trades13/OddsAxiome/internal/platform/metrics"
	"github.com/Just-Trades13/OddsAxiome/internal/platform/ratelimit"
)

// knownBookmakers is the closed set of underlying sportsbook slugs the
// aggregator is allowed to emit as venue_slug. An offer whose bookmaker
// is not in this set is skipped rather than forwarded under the
// aggregator's own slug, resolving spec.md §9's Open Question: the
// emitted venue_slug is always the underlying bookmaker, never
// sportsbook_agg itself.
var knownBookmakers = map[string]bool{
	"draftkings": true,
	"fanduel":    true,
	"caesars":    true,
}

type sportsbookOffer struct {
	Bookmaker    string `json:"bookmaker"`
	OutcomeName  string `json:"outcome_name"`
	AmericanOdds int    `json:"american_odds"`
}

type sportsbookGame struct {
	GameID string            `json:"game_id"`
	Title  string            `json:"title"`
	Offers []sportsbookOffer `json:"offers"`
}

type sportsbookAggResponse struct {
	Games []sportsbookGame `json:"games"`
	Total int              `json:"total"`
}

// SportsbookAgg polls a meta-aggregator of multiple sportsbooks on a
// 5-minute cadence (its 500 req/month quota), fanning each response out
// into per-bookmaker quotes under the bookmaker's own venue_slug.
type SportsbookAgg struct {
	base
	offset int
}

// NewSportsbookAgg constructs the SportsbookAgg adapter.
func NewSportsbookAgg(cfg config.VenueConfig, breaker *circuit.Manager, limiter *ratelimit.Manager, m *metrics.Registry, log zerolog.Logger) *SportsbookAgg {
	return &SportsbookAgg{base: newBase(cfg, breaker, limiter, m, log)}
}

// Connect resets pagination.
func (s *SportsbookAgg) Connect(ctx context.Context) error {
	s.offset = 0
	return nil
}

// Stop is a no-op.
func (s *SportsbookAgg) Stop(ctx context.Context) error { return nil }

// FetchBatch pulls one offset page of games and re-slugs every offer
// under its underlying bookmaker.
func (s *SportsbookAgg) FetchBatch(ctx context.Context) ([]model.RawQuote, error) {
	query := map[string]string{"offset": strconv.Itoa(s.offset), "limit": "100"}

	var resp sportsbookAggResponse
	if err := s.guardedGet(ctx, "/v1/odds", query, &resp); err != nil {
		return nil, err
	}

	now := time.Now()
	var out []model.RawQuote
	for _, game := range resp.Games {
		for i, offer := range game.Offers {
			if !knownBookmakers[offer.Bookmaker] {
				continue
			}
			price := float64(offer.AmericanOdds)
			format := model.PriceFormatAmericanPositive
			if offer.AmericanOdds < 0 {
				format = model.PriceFormatAmericanNegative
			}
			out = append(out, model.RawQuote{
				VenueSlug:        offer.Bookmaker,
				ExternalMarketID: game.GameID,
				MarketTitle:      game.Title,
				Category:         model.CategorySports,
				OutcomeIndex:     i,
				OutcomeName:      offer.OutcomeName,
				Price:            price,
				PriceFormat:      format,
				CapturedAt:       now,
			})
		}
	}

	s.offset += len(resp.Games)
	if s.offset >= resp.Total {
		s.offset = 0
	}
	return out, nil
}
