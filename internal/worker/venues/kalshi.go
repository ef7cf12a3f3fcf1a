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

// kalshiInterPageSleep is Kalshi's mandatory pause between cursor pages,
// spent from the venue's own rate-limit budget rather than the token
// bucket (spec.md §4.2's per-venue HTTP contracts).
const kalshiInterPageSleep = 1500 * time.Millisecond

type kalshiMarket struct {
	Ticker    string `json:"ticker"`
	Title     string `json:"title"`
	Category  string `json:"category"`
	YesBidPx  int    `json:"yes_bid"`
	YesAskPx  int    `json:"yes_ask"`
	NoBidPx   int    `json:"no_bid"`
	NoAskPx   int    `json:"no_ask"`
	Volume24h int    `json:"volume_24h"`
}

type kalshiResponse struct {
	Markets []kalshiMarket `json:"markets"`
	Cursor  string         `json:"cursor"`
}

// Kalshi polls Kalshi's trading API, paginating with a cursor and a
// mandatory 1.5s sleep between pages to respect its rate-limit budget.
type Kalshi struct {
	base
	cursor string
}

// NewKalshi constructs the Kalshi adapter.
func NewKalshi(cfg config.VenueConfig, breaker *circuit.Manager, limiter *ratelimit.Manager, m *metrics.Registry, log zerolog.Logger) *Kalshi {
	return &Kalshi{base: newBase(cfg, breaker, limiter, m, log)}
}

// Connect resets pagination.
func (k *Kalshi) Connect(ctx context.Context) error {
	k.cursor = ""
	return nil
}

// Stop is a no-op.
func (k *Kalshi) Stop(ctx context.Context) error { return nil }

// FetchBatch pulls every page available this cycle, sleeping between
// pages per Kalshi's rate-limit contract.
func (k *Kalshi) FetchBatch(ctx context.Context) ([]model.RawQuote, error) {
	var out []model.RawQuote
	first := true

	for {
		if !first {
			select {
			case <-ctx.Done():
				return out, ctx.Err()
			case <-time.After(kalshiInterPageSleep):
			}
		}
		first = false

		query := map[string]string{"status": "open"}
		if k.cursor != "" {
			query["cursor"] = k.cursor
		}

		var resp kalshiResponse
		if err := k.guardedGet(ctx, "/trade-api/v2/markets", query, &resp); err != nil {
			return out, err
		}

		now := time.Now()
		for _, mkt := range resp.Markets {
			category := worker.Classify(mkt.Category, mkt.Title, nil, model.CategoryPolitics)
			vol := float64(mkt.Volume24h)
			bid := float64(mkt.YesBidPx)
			ask := float64(mkt.YesAskPx)
			out = append(out, model.RawQuote{
				VenueSlug:        k.cfg.Slug,
				ExternalMarketID: mkt.Ticker,
				MarketTitle:      mkt.Title,
				Category:         category,
				OutcomeIndex:     0,
				OutcomeName:      "Yes",
				Price:            (bid + ask) / 2,
				PriceFormat:      model.PriceFormatCents,
				Bid:              &bid,
				Ask:              &ask,
				Volume24h:        &vol,
				CapturedAt:       now,
			})

			noBid := float64(mkt.NoBidPx)
			noAsk := float64(mkt.NoAskPx)
			out = append(out, model.RawQuote{
				VenueSlug:        k.cfg.Slug,
				ExternalMarketID: mkt.Ticker,
				MarketTitle:      mkt.Title,
				Category:         category,
				OutcomeIndex:     1,
				OutcomeName:      "No",
				Price:            (noBid + noAsk) / 2,
				PriceFormat:      model.PriceFormatCents,
				Bid:              &noBid,
				Ask:              &noAsk,
				Volume24h:        &vol,
				CapturedAt:       now,
			})
		}

		k.cursor = resp.Cursor
		if k.cursor == "" {
			break
		}
	}
	return out, nil
}
