package venues

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/Just-Trades13/OddsAxiome/internal/config"
	"github.com/Just-Trades13/OddsAxiome/internal/model"
	"github.com/Just-Trades13/OddsAxiome/internal/platform/circuit"
	"github.com/Just-Trades13/OddsAxiome/internal/platform/metrics"
	"github.com/Just-Trades13/OddsAxiome/internal/platform/ratelimit"
)

type deribitInstrument struct {
	InstrumentName string  `json:"instrument_name"`
	Label          string  `json:"label"`
	Odds           float64 `json:"odds"`
}

type deribitResponse struct {
	Result struct {
		Instruments  []deribitInstrument `json:"instruments"`
		Continuation string              `json:"continuation"`
	} `json:"result"`
}

// DeribitEvents polls Deribit's public binary-event-contract endpoint.
// No auth is required for this read-only public surface. Contracts are
// priced as exchange (decimal) odds.
type DeribitEvents struct {
	base
	continuation string
}

// NewDeribitEvents constructs the DeribitEvents adapter.
func NewDeribitEvents(cfg config.VenueConfig, breaker *circuit.Manager, limiter *ratelimit.Manager, m *metrics.Registry, log zerolog.Logger) *DeribitEvents {
	return &DeribitEvents{base: newBase(cfg, breaker, limiter, m, log)}
}

// Connect resets pagination.
func (d *DeribitEvents) Connect(ctx context.Context) error {
	d.continuation = ""
	return nil
}

// Stop is a no-op.
func (d *DeribitEvents) Stop(ctx context.Context) error { return nil }

// FetchBatch pulls one cursor page of binary event contracts.
func (d *DeribitEvents) FetchBatch(ctx context.Context) ([]model.RawQuote, error) {
	query := map[string]string{"kind": "event"}
	if d.continuation != "" {
		query["continuation"] = d.continuation
	}

	var resp deribitResponse
	if err := d.guardedGet(ctx, "/public/get_event_instruments", query, &resp); err != nil {
		return nil, err
	}
	d.continuation = resp.Result.Continuation

	now := time.Now()
	var out []model.RawQuote
	for i, inst := range resp.Result.Instruments {
		out = append(out, model.RawQuote{
			VenueSlug:        d.cfg.Slug,
			ExternalMarketID: inst.InstrumentName,
			MarketTitle:      inst.Label,
			Category:         model.CategoryCrypto,
			OutcomeIndex:     i % 2,
			OutcomeName:      inst.Label,
			Price:            inst.Odds,
			PriceFormat:      model.PriceFormatDecimal,
			CapturedAt:       now,
		})
	}
	return out, nil
}
