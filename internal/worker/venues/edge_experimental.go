package venues

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/Just-Trades13/OddsAxiome/internal/config"
	"github.com/Just-Trades13/OddsAxiome/internal/model"
	"github.com/Just-Trades13/OddsAxiome/internal/platform/circuit"
	"github.com/Just-Trades13/OddsAxiome/internal/platform/metrics"
	"github.com/Just-Trades13/OddsAxiome/internal/platform/ratelimit"
)

type edgeMarket struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Probability float64 `json:"probability"`
}

type edgeResponse struct {
	Markets []edgeMarket `json:"markets"`
	Total   int          `json:"total"`
}

// EdgeExperimental polls an unproven, frequently-misbehaving venue on a
// 2-minute cadence. It tracks consecutive_failures and short-circuits
// FetchBatch to return an empty batch once the configured threshold is
// reached, and permanently self-disables on a 401/403 response until
// process restart, per spec.md §4.2/§7.
type EdgeExperimental struct {
	base
	offset              int
	failureCap          int32
	consecutiveFailures int32
	disabled            int32
}

// NewEdgeExperimental constructs the EdgeExperimental adapter.
func NewEdgeExperimental(cfg config.VenueConfig, failureCap int, breaker *circuit.Manager, limiter *ratelimit.Manager, m *metrics.Registry, log zerolog.Logger) *EdgeExperimental {
	return &EdgeExperimental{base: newBase(cfg, breaker, limiter, m, log), failureCap: int32(failureCap)}
}

// Connect resets pagination. It does not clear the permanent disable
// flag or the failure counter — those persist for the process lifetime.
func (e *EdgeExperimental) Connect(ctx context.Context) error {
	e.offset = 0
	return nil
}

// Stop is a no-op.
func (e *EdgeExperimental) Stop(ctx context.Context) error { return nil }

// FetchBatch pulls one offset page, unless the venue has tripped its
// consecutive-failure short-circuit or been permanently disabled.
func (e *EdgeExperimental) FetchBatch(ctx context.Context) ([]model.RawQuote, error) {
	if atomic.LoadInt32(&e.disabled) == 1 {
		return nil, nil
	}
	if atomic.LoadInt32(&e.consecutiveFailures) >= e.failureCap {
		return nil, nil
	}

	query := map[string]string{"offset": strconv.Itoa(e.offset), "limit": "100"}

	var resp edgeResponse
	err := e.guardedGet(ctx, "/markets", query, &resp)
	if err != nil {
		if isPermanentAuthFailure(err) {
			atomic.StoreInt32(&e.disabled, 1)
			e.log.Error().Err(err).Msg("edge_experimental: permanent auth failure, self-disabling")
			return nil, nil
		}
		atomic.AddInt32(&e.consecutiveFailures, 1)
		return nil, err
	}
	atomic.StoreInt32(&e.consecutiveFailures, 0)

	now := time.Now()
	out := make([]model.RawQuote, 0, len(resp.Markets))
	for _, mkt := range resp.Markets {
		out = append(out, model.RawQuote{
			VenueSlug:        e.cfg.Slug,
			ExternalMarketID: mkt.ID,
			MarketTitle:      mkt.Title,
			Category:         model.CategoryUnknown,
			OutcomeIndex:     0,
			OutcomeName:      "Yes",
			Price:            mkt.Probability,
			PriceFormat:      model.PriceFormatProbability,
			CapturedAt:       now,
		})
	}

	e.offset += len(resp.Markets)
	if e.offset >= resp.Total {
		e.offset = 0
	}
	return out, nil
}
