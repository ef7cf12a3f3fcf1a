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
	"github.com/Just-Trades13/OddsAxiome/internal/worker"
)

type betfairRunner struct {
	SelectionID int64   `json:"selectionId"`
	Name        string  `json:"runnerName"`
	LastPrice   float64 `json:"lastTradedPrice"`
}

type betfairEvent struct {
	MarketID  string          `json:"marketId"`
	Name      string          `json:"marketName"`
	EventName string          `json:"eventName"`
	Runners   []betfairRunner `json:"runners"`
}

type betfairResponse struct {
	Events []betfairEvent `json:"events"`
	Cursor string         `json:"cursor"`
}

// Betfair polls the exchange betting API with bearer session-token
// auth and cursor pagination, defaulting uncategorisable markets to
// sports per spec.md §4.2.
type Betfair struct {
	base
	cursor string
}

// NewBetfair constructs the Betfair adapter.
func NewBetfair(cfg config.VenueConfig, breaker *circuit.Manager, limiter *ratelimit.Manager, m *metrics.Registry, log zerolog.Logger) *Betfair {
	return &Betfair{base: newBase(cfg, breaker, limiter, m, log)}
}

// Connect resets pagination.
func (bf *Betfair) Connect(ctx context.Context) error {
	bf.cursor = ""
	return nil
}

// Stop is a no-op.
func (bf *Betfair) Stop(ctx context.Context) error { return nil }

// FetchBatch pulls one cursor page of events, in-play or not
// (inPlayOnly=false).
func (bf *Betfair) FetchBatch(ctx context.Context) ([]model.RawQuote, error) {
	query := map[string]string{"inPlayOnly": "false"}
	if bf.cursor != "" {
		query["cursor"] = bf.cursor
	}

	var resp betfairResponse
	if err := bf.guardedGet(ctx, "/listMarketCatalogue", query, &resp); err != nil {
		return nil, err
	}
	bf.cursor = resp.Cursor

	now := time.Now()
	var out []model.RawQuote
	for _, ev := range resp.Events {
		category := worker.Classify("", ev.EventName, nil, model.CategorySports)
		for i, r := range ev.Runners {
			out = append(out, model.RawQuote{
				VenueSlug:        bf.cfg.Slug,
				ExternalMarketID: ev.MarketID,
				MarketTitle:      ev.Name,
				Category:         category,
				OutcomeIndex:     i,
				OutcomeName:      r.Name,
				Price:            r.LastPrice,
				PriceFormat:      model.PriceFormatDecimal,
				CapturedAt:       now,
			})
		}
	}
	return out, nil
}
