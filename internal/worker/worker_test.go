package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Just-Trades13/OddsAxiome/internal/model"
)

type fakeWorker struct {
	mu        sync.Mutex
	slug      string
	fetches   int
	connected bool
	stopped   bool
	fetchErr  error
	raws      []model.RawQuote
}

func (f *fakeWorker) Slug() string { return f.slug }

func (f *fakeWorker) Connect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = true
	return nil
}

func (f *fakeWorker) FetchBatch(ctx context.Context) ([]model.RawQuote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.raws, nil
}

func (f *fakeWorker) Stop(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
	return nil
}

func (f *fakeWorker) snapshot() (fetches int, connected, stopped bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches, f.connected, f.stopped
}

type fakePublisher struct {
	mu        sync.Mutex
	published int
}

func (p *fakePublisher) Publish(ctx context.Context, quotes []model.NormalisedQuote) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published += len(quotes)
	return nil
}

func TestPollRunsImmediatelyThenOnTicker(t *testing.T) {
	w := &fakeWorker{slug: "test", raws: []model.RawQuote{{VenueSlug: "test"}}}
	pub := &fakePublisher{}
	normalise := func(raws []model.RawQuote) []model.NormalisedQuote {
		out := make([]model.NormalisedQuote, len(raws))
		for i, r := range raws {
			out[i] = model.NormalisedQuote{RawQuote: r, ImpliedProb: 0.5}
		}
		return out
	}

	ctx, cancel := context.WithTimeout(context.Background(), 55*time.Millisecond)
	defer cancel()

	Poll(ctx, w, 20*time.Millisecond, pub, normalise, nil, zerolog.Nop())

	fetches, connected, stopped := w.snapshot()
	if !connected {
		t.Fatalf("expected worker connected")
	}
	if !stopped {
		t.Fatalf("expected worker stopped on loop exit")
	}
	if fetches < 2 {
		t.Fatalf("expected at least 2 fetch cycles, got %d", fetches)
	}
}

func TestPollSwallowsFetchErrorsAndKeepsPolling(t *testing.T) {
	w := &fakeWorker{slug: "test", fetchErr: errors.New("boom")}
	pub := &fakePublisher{}
	normalise := func(raws []model.RawQuote) []model.NormalisedQuote { return nil }

	ctx, cancel := context.WithTimeout(context.Background(), 45*time.Millisecond)
	defer cancel()

	Poll(ctx, w, 15*time.Millisecond, pub, normalise, nil, zerolog.Nop())

	fetches, _, _ := w.snapshot()
	if fetches < 2 {
		t.Fatalf("expected the loop to keep retrying after errors, got %d fetches", fetches)
	}
}
