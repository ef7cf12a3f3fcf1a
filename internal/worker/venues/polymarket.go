package venues

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
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

// Polymarket polls the Gamma API for active markets, splitting any
// market reporting more than two outcomes into one synthetic binary
// market per candidate (spec.md §4.2's title disambiguation rule). It
// carries an HMAC-SHA256 signer for the authenticated CLOB endpoint
// (signCLOBRequest), but FetchBatch reads only the public Gamma markets
// endpoint and never calls it, so no request is signed.
type Polymarket struct {
	base
	apiSecret string
	cursor    string
}

type polymarketMarket struct {
	ConditionID string   `json:"condition_id"`
	Question    string   `json:"question"`
	Category    string   `json:"category"`
	URL         string   `json:"market_url"`
	Outcomes    []string `json:"outcomes"`
	Prices      []string `json:"outcome_prices"`
	Volume24h   string   `json:"volume_24hr"`
	Liquidity   string   `json:"liquidity"`
}

type polymarketResponse struct {
	Data       []polymarketMarket `json:"data"`
	NextCursor string             `json:"next_cursor"`
}

// NewPolymarket constructs the Polymarket adapter. apiSecret keys
// signCLOBRequest; it may be empty, since FetchBatch uses only the
// public Gamma endpoint.
func NewPolymarket(cfg config.VenueConfig, apiSecret string, breaker *circuit.Manager, limiter *ratelimit.Manager, m *metrics.Registry, log zerolog.Logger) *Polymarket {
	return &Polymarket{base: newBase(cfg, breaker, limiter, m, log), apiSecret: apiSecret, cursor: ""}
}

// Connect resets pagination to the beginning.
func (p *Polymarket) Connect(ctx context.Context) error {
	p.cursor = ""
	return nil
}

// Stop is a no-op; the resty client holds no connection state to release.
func (p *Polymarket) Stop(ctx context.Context) error { return nil }

// FetchBatch pulls one page of active markets, splitting multi-candidate
// markets into synthetic per-candidate quotes.
func (p *Polymarket) FetchBatch(ctx context.Context) ([]model.RawQuote, error) {
	query := map[string]string{"active": "true", "closed": "false"}
	if p.cursor != "" {
		query["next_cursor"] = p.cursor
	}

	var resp polymarketResponse
	if err := p.guardedGet(ctx, "/markets", query, &resp); err != nil {
		return nil, err
	}
	p.cursor = resp.NextCursor

	now := time.Now()
	var out []model.RawQuote
	for _, mkt := range resp.Data {
		category := worker.Classify(mkt.Category, mkt.Question, nil, model.CategoryUnknown)
		vol, _ := strconv.ParseFloat(mkt.Volume24h, 64)
		liq, _ := strconv.ParseFloat(mkt.Liquidity, 64)

		if len(mkt.Outcomes) > 2 {
			candidates := make([]worker.Candidate, len(mkt.Outcomes))
			for i, name := range mkt.Outcomes {
				candidates[i] = worker.Candidate{Name: name, Index: i}
			}
			splits := worker.SplitMultiCandidate(mkt.Question, mkt.ConditionID, candidates)
			for i, split := range splits {
				price, _ := strconv.ParseFloat(mkt.Prices[i], 64)
				out = append(out, model.RawQuote{
					VenueSlug:        p.cfg.Slug,
					ExternalMarketID: split.ExternalID,
					MarketTitle:      split.Title,
					Category:         category,
					OutcomeIndex:     0,
					OutcomeName:      "Yes",
					Price:            price,
					PriceFormat:      model.PriceFormatProbability,
					Volume24h:        &vol,
					LiquidityUSD:     &liq,
					MarketURL:        mkt.URL,
					CapturedAt:       now,
				})
			}
			continue
		}

		for i, name := range mkt.Outcomes {
			if i >= len(mkt.Prices) {
				continue
			}
			price, _ := strconv.ParseFloat(mkt.Prices[i], 64)
			out = append(out, model.RawQuote{
				VenueSlug:        p.cfg.Slug,
				ExternalMarketID: mkt.ConditionID,
				MarketTitle:      mkt.Question,
				Category:         category,
				OutcomeIndex:     i,
				OutcomeName:      name,
				Price:            price,
				PriceFormat:      model.PriceFormatProbability,
				Volume24h:        &vol,
				LiquidityUSD:     &liq,
				MarketURL:        mkt.URL,
				CapturedAt:       now,
			})
		}
	}
	return out, nil
}

// signCLOBRequest produces the HMAC-SHA256 signature Polymarket's CLOB
// API expects on authenticated reads: base64-free hex digest of
// timestamp+method+path+body keyed by apiSecret.
func (p *Polymarket) signCLOBRequest(method, path, body string, timestamp int64) string {
	mac := hmac.New(sha256.New, []byte(p.apiSecret))
	mac.Write([]byte(fmt.Sprintf("%d%s%s%s", timestamp, method, path, body)))
	return hex.EncodeToString(mac.Sum(nil))
}
