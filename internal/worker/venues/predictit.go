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

const predictitPageSize = 50

type predictitContract struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	LastPrice   float64 `json:"lastTradePrice"`
	BestBuyYes  float64 `json:"bestBuyYesCost"`
	BestSellYes float64 `json:"bestSellYesCost"`
}

type predictitMarket struct {
	ID        int                 `json:"id"`
	Name      string              `json:"name"`
	URL       string              `json:"url"`
	Contracts []predictitContract `json:"contracts"`
}

type predictitResponse struct {
	Markets []predictitMarket `json:"markets"`
	Total   int               `json:"total"`
}

// PredictIt polls PredictIt's public, unauthenticated market list with
// offset pagination, mapping each contract's dollar price through the
// decimal price-format rule.
type PredictIt struct {
	base
	offset int
}

// NewPredictIt constructs the PredictIt adapter.
func NewPredictIt(cfg config.VenueConfig, breaker *circuit.Manager, limiter *ratelimit.Manager, m *metrics.Registry, log zerolog.Logger) *PredictIt {
	return &PredictIt{base: newBase(cfg, breaker, limiter, m, log)}
}

// Connect resets pagination.
func (p *PredictIt) Connect(ctx context.Context) error {
	p.offset = 0
	return nil
}

// Stop is a no-op.
func (p *PredictIt) Stop(ctx context.Context) error { return nil }

// FetchBatch pulls one offset page of markets.
func (p *PredictIt) FetchBatch(ctx context.Context) ([]model.RawQuote, error) {
	query := map[string]string{
		"offset": strconv.Itoa(p.offset),
		"limit":  strconv.Itoa(predictitPageSize),
	}

	var resp predictitResponse
	if err := p.guardedGet(ctx, "/markets", query, &resp); err != nil {
		return nil, err
	}

	now := time.Now()
	var out []model.RawQuote
	for _, mkt := range resp.Markets {
		category := worker.Classify("", mkt.Name, nil, model.CategoryPolitics)
		for i, c := range mkt.Contracts {
			bid := c.BestBuyYes
			ask := c.BestSellYes
			out = append(out, model.RawQuote{
				VenueSlug:        p.cfg.Slug,
				ExternalMarketID: strconv.Itoa(mkt.ID),
				MarketTitle:      mkt.Name,
				Category:         category,
				OutcomeIndex:     i,
				OutcomeName:      c.Name,
				Price:            1 / maxFloat(c.LastPrice, 0.0001),
				PriceFormat:      model.PriceFormatDecimal,
				Bid:              &bid,
				Ask:              &ask,
				MarketURL:        mkt.URL,
				CapturedAt:       now,
			})
		}
	}

	p.offset += len(resp.Markets)
	if p.offset >= resp.Total {
		p.offset = 0
	}
	return out, nil
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
