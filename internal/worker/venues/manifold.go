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

type manifoldMarket struct {
	ID          string   `json:"id"`
	Question    string   `json:"question"`
	GroupSlugs  []string `json:"groupSlugs"`
	URL         string   `json:"url"`
	Probability float64  `json:"probability"`
	Volume      float64  `json:"volume"`
	Outcome     string   `json:"outcomeType"`
}

// Manifold polls Manifold's markets endpoint with cursor (before-id)
// pagination. Binary markets report a single probability field; the
// worker package's InferBinaryOutcomes rule derives the Yes/No pair.
type Manifold struct {
	base
	before string
}

// NewManifold constructs the Manifold adapter.
func NewManifold(cfg config.VenueConfig, breaker *circuit.Manager, limiter *ratelimit.Manager, m *metrics.Registry, log zerolog.Logger) *Manifold {
	return &Manifold{base: newBase(cfg, breaker, limiter, m, log)}
}

// Connect resets pagination.
func (mf *Manifold) Connect(ctx context.Context) error {
	mf.before = ""
	return nil
}

// Stop is a no-op.
func (mf *Manifold) Stop(ctx context.Context) error { return nil }

// FetchBatch pulls one cursor page of binary markets.
func (mf *Manifold) FetchBatch(ctx context.Context) ([]model.RawQuote, error) {
	query := map[string]string{"filter": "open", "contractType": "BINARY", "limit": "100"}
	if mf.before != "" {
		query["before"] = mf.before
	}

	var resp []manifoldMarket
	if err := mf.guardedGet(ctx, "/v0/markets", query, &resp); err != nil {
		return nil, err
	}
	if len(resp) > 0 {
		mf.before = resp[len(resp)-1].ID
	} else {
		mf.before = ""
	}

	now := time.Now()
	var out []model.RawQuote
	for _, mkt := range resp {
		if mkt.Outcome != "BINARY" {
			continue
		}
		group := ""
		if len(mkt.GroupSlugs) > 0 {
			group = mkt.GroupSlugs[0]
		}
		category := worker.Classify(group, mkt.Question, nil, model.CategoryCulture)

		vol := mkt.Volume
		yesName, noName, yesProb, noProb := worker.InferBinaryOutcomes(mkt.Probability)

		out = append(out,
			model.RawQuote{
				VenueSlug:        mf.cfg.Slug,
				ExternalMarketID: mkt.ID,
				MarketTitle:      mkt.Question,
				Category:         category,
				OutcomeIndex:     0,
				OutcomeName:      yesName,
				Price:            yesProb,
				PriceFormat:      model.PriceFormatProbability,
				Volume24h:        &vol,
				MarketURL:        mkt.URL,
				CapturedAt:       now,
			},
			model.RawQuote{
				VenueSlug:        mf.cfg.Slug,
				ExternalMarketID: mkt.ID,
				MarketTitle:      mkt.Question,
				Category:         category,
				OutcomeIndex:     1,
				OutcomeName:      noName,
				Price:            noProb,
				PriceFormat:      model.PriceFormatProbability,
				Volume24h:        &vol,
				MarketURL:        mkt.URL,
				CapturedAt:       now,
			},
		)
	}
	return out, nil
}
