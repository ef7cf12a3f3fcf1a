package venues

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Just-Trades13/OddsAxiome/internal/config"
	"github.com/Just-Trades13/OddsAxiome/internal/platform/circuit"
	"github.com/Just-Trades13/OddsAxiome/internal/platform/ratelimit"
)

func testDeps(slug string) (config.VenueConfig, *circuit.Manager, *ratelimit.Manager, zerolog.Logger) {
	cfg := config.VenueConfig{Slug: slug, Enabled: true}
	breaker := circuit.NewManager(circuit.Config{
		FailureThreshold: 3, SuccessThreshold: 1,
		OpenTimeout: time.Second, RequestTimeout: 2 * time.Second,
	})
	limiter := ratelimit.NewManager()
	limiter.Configure(slug, 100, 10)
	return cfg, breaker, limiter, zerolog.Nop()
}

func TestPolymarketFetchBatchSplitsMultiCandidateMarket(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := polymarketResponse{
			Data: []polymarketMarket{{
				ConditionID: "cond-1",
				Question:    "Who will win the nomination?",
				Category:    "politics",
				Outcomes:    []string{"Alice", "Bob", "Carol"},
				Prices:      []string{"0.5", "0.3", "0.2"},
			}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	cfg, breaker, limiter, log := testDeps("polymarket")
	cfg.BaseURL = srv.URL
	pm := NewPolymarket(cfg, "secret", breaker, limiter, nil, log)

	if err := pm.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	quotes, err := pm.FetchBatch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(quotes) != 3 {
		t.Fatalf("expected 3 synthetic quotes, got %d", len(quotes))
	}
	if quotes[1].ExternalMarketID != "cond-1::1" {
		t.Fatalf("unexpected external id: %q", quotes[1].ExternalMarketID)
	}
}

func TestManifoldFetchBatchInfersBinaryOutcomes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := []manifoldMarket{{
			ID: "m1", Question: "Will it happen?", Probability: 0.25,
			Outcome: "BINARY", Volume: 100,
		}}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	cfg, breaker, limiter, log := testDeps("manifold")
	cfg.BaseURL = srv.URL
	mf := NewManifold(cfg, breaker, limiter, nil, log)
	_ = mf.Connect(context.Background())

	quotes, err := mf.FetchBatch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(quotes) != 2 {
		t.Fatalf("expected yes+no quotes, got %d", len(quotes))
	}
	if quotes[0].Price != 0.25 || quotes[1].Price != 0.75 {
		t.Fatalf("unexpected probabilities: %v %v", quotes[0].Price, quotes[1].Price)
	}
}

func TestSportsbookAggEmitsBookmakerSlugNotAggregatorSlug(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := sportsbookAggResponse{
			Games: []sportsbookGame{{
				GameID: "g1", Title: "Team A vs Team B",
				Offers: []sportsbookOffer{
					{Bookmaker: "draftkings", OutcomeName: "Team A", AmericanOdds: -120},
					{Bookmaker: "unknown_book", OutcomeName: "Team A", AmericanOdds: 150},
				},
			}},
			Total: 1,
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	cfg, breaker, limiter, log := testDeps("sportsbook_agg")
	cfg.BaseURL = srv.URL
	sa := NewSportsbookAgg(cfg, breaker, limiter, nil, log)
	_ = sa.Connect(context.Background())

	quotes, err := sa.FetchBatch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(quotes) != 1 {
		t.Fatalf("expected only the known-bookmaker offer to survive, got %d", len(quotes))
	}
	if quotes[0].VenueSlug != "draftkings" {
		t.Fatalf("expected venue_slug=draftkings, got %q", quotes[0].VenueSlug)
	}
	if quotes[0].PriceFormat != "american_negative" {
		t.Fatalf("expected negative american odds format, got %q", quotes[0].PriceFormat)
	}
}

func TestEdgeExperimentalShortCircuitsAfterFailureCap(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg, breaker, limiter, log := testDeps("edge_experimental")
	cfg.BaseURL = srv.URL
	ee := NewEdgeExperimental(cfg, 2, breaker, limiter, nil, log)
	_ = ee.Connect(context.Background())

	for i := 0; i < 2; i++ {
		if _, err := ee.FetchBatch(context.Background()); err == nil {
			t.Fatalf("expected transport error on attempt %d", i)
		}
	}
	// Third call should short-circuit without hitting the server again.
	quotes, err := ee.FetchBatch(context.Background())
	if err != nil {
		t.Fatalf("expected short-circuit to return nil error, got %v", err)
	}
	if quotes != nil {
		t.Fatalf("expected nil quotes from short-circuit")
	}
	if calls != 2 {
		t.Fatalf("expected exactly 2 upstream calls, got %d", calls)
	}
}

func TestEdgeExperimentalSelfDisablesOnAuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	cfg, breaker, limiter, log := testDeps("edge_experimental")
	cfg.BaseURL = srv.URL
	ee := NewEdgeExperimental(cfg, 5, breaker, limiter, nil, log)
	_ = ee.Connect(context.Background())

	if _, err := ee.FetchBatch(context.Background()); err != nil {
		t.Fatalf("expected auth failure to be swallowed, got %v", err)
	}

	quotes, err := ee.FetchBatch(context.Background())
	if err != nil || quotes != nil {
		t.Fatalf("expected permanently disabled adapter to return nil, nil; got %v, %v", quotes, err)
	}
}

func TestSmarketsCanonicalizesMarketURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := smarketsResponse{
			Markets: []smarketsMarket{{
				ID: "mk1", Name: "Next PM", EventType: "politics",
				URL:       "https://smarkets.com/event/next-pm/contract-starmer",
				Contracts: []smarketsContract{{ID: "c1", Name: "Starmer", Price: 1.8}},
			}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	cfg, breaker, limiter, log := testDeps("smarkets")
	cfg.BaseURL = srv.URL
	sm := NewSmarkets(cfg, breaker, limiter, nil, log)
	_ = sm.Connect(context.Background())

	quotes, err := sm.FetchBatch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(quotes) != 1 {
		t.Fatalf("expected 1 quote, got %d", len(quotes))
	}
	if quotes[0].MarketURL != "https://smarkets.com/event/next-pm" {
		t.Fatalf("unexpected canonicalised url: %q", quotes[0].MarketURL)
	}
}
