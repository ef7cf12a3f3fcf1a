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
	"github.com/Just-Trades13/OddsAxiome/internal/worker"
)

const smarketsPageSize = 50

type smarketsContract struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"last_executed_price"`
}

type smarketsMarket struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	EventType string             `json:"event_type_name"`
	URL       string             `json:"url"`
	Contracts []smarketsContract `json:"contracts"`
}

type smarketsResponse struct {
	Markets []smarketsMarket `json:"markets"`
}

// Smarkets polls with offset pagination. It serves only series-level
// market pages, so every emitted market_url is rewritten from the
// venue's per-contract URL to its series-level page via
// worker.CanonicalizeSeriesURL (spec.md §4.2).
type Smarkets struct {
	base
	offset int
}

// NewSmarkets constructs the Smarkets adapter.
func NewSmarkets(cfg config.VenueConfig, breaker *circuit.Manager, limiter *ratelimit.Manager, m *metrics.Registry, log zerolog.Logger) *Smarkets {
	return &Smarkets{base: newBase(cfg, breaker, limiter, m, log)}
}

// Connect resets pagination.
func (s *Smarkets) Connect(ctx context.Context) error {
	s.offset = 0
	return nil
}

// Stop is a no-op.
func (s *Smarkets) Stop(ctx context.Context) error { return nil }

// FetchBatch pulls one offset page of markets.
func (s *Smarkets) FetchBatch(ctx context.Context) ([]model.RawQuote, error) {
	query := map[string]string{
		"offset": strconv.Itoa(s.offset),
		"limit":  strconv.Itoa(smarketsPageSize),
		"state":  "live",
	}

	var resp smarketsResponse
	if err := s.guardedGet(ctx, "/markets", query, &resp); err != nil {
		return nil, err
	}

	now := time.Now()
	var out []model.RawQuote
	for _, mkt := range resp.Markets {
		category := worker.Classify(mkt.EventType, mkt.Name, nil, model.CategoryPolitics)
		canonicalURL := worker.CanonicalizeSeriesURL(mkt.URL)
		for i, c := range mkt.Contracts {
			out = append(out, model.RawQuote{
				VenueSlug:        s.cfg.Slug,
				ExternalMarketID: mkt.ID + ":" + c.ID,
				MarketTitle:      mkt.Name + ": " + c.Name,
				Category:         category,
				OutcomeIndex:     i,
				OutcomeName:      c.Name,
				Price:            c.Price,
				PriceFormat:      model.PriceFormatDecimal,
				MarketURL:        canonicalURL,
				CapturedAt:       now,
			})
		}
	}

	s.offset += len(resp.Markets)
	if len(resp.Markets) < smarketsPageSize {
		s.offset = 0
	}
	return out, nil
}
