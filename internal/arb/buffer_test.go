package arb

import (
	"testing"
	"time"

	"github.com/Just-Trades13/OddsAxiome/internal/model"
)

func TestBufferUpsertStatePartialThenCovered(t *testing.T) {
	b := NewBuffer()
	now := time.Now()

	b.Upsert("Will X win?", model.CategoryPolitics, model.NormalisedQuote{
		RawQuote:    model.RawQuote{VenueSlug: "A", OutcomeName: "Yes", CapturedAt: now},
		ImpliedProb: 0.4,
	})
	snap, _ := b.SnapshotOf("Will X win?")
	if snap.State != StatePartial {
		t.Fatalf("expected PARTIAL with single outcome no coverage, got %s", snap.State)
	}

	b.Upsert("Will X win?", model.CategoryPolitics, model.NormalisedQuote{
		RawQuote:    model.RawQuote{VenueSlug: "B", OutcomeName: "Yes", CapturedAt: now},
		ImpliedProb: 0.45,
	})
	b.Upsert("Will X win?", model.CategoryPolitics, model.NormalisedQuote{
		RawQuote:    model.RawQuote{VenueSlug: "A", OutcomeName: "No", CapturedAt: now},
		ImpliedProb: 0.6,
	})
	snap, _ = b.SnapshotOf("Will X win?")
	if snap.State != StateCovered {
		t.Fatalf("expected COVERED once every outcome has >=1 quote and one has >=2, got %s", snap.State)
	}
}

func TestBufferUpsertDropsOlderReplacement(t *testing.T) {
	b := NewBuffer()
	newer := time.Now()
	older := newer.Add(-time.Minute)

	b.Upsert("T", model.CategoryUnknown, model.NormalisedQuote{
		RawQuote:    model.RawQuote{VenueSlug: "A", OutcomeName: "Yes", CapturedAt: newer},
		ImpliedProb: 0.4,
	})
	b.Upsert("T", model.CategoryUnknown, model.NormalisedQuote{
		RawQuote:    model.RawQuote{VenueSlug: "A", OutcomeName: "Yes", CapturedAt: older},
		ImpliedProb: 0.9,
	})

	snap, _ := b.SnapshotOf("T")
	if snap.Outcomes["Yes"]["A"].ImpliedProb != 0.4 {
		t.Fatalf("expected newer quote to survive, got %v", snap.Outcomes["Yes"]["A"].ImpliedProb)
	}
}

func TestBufferMergePrefersFreshest(t *testing.T) {
	b := NewBuffer()
	now := time.Now()
	earlier := now.Add(-time.Second)

	b.Upsert("old-title", model.CategoryPolitics, model.NormalisedQuote{
		RawQuote:    model.RawQuote{VenueSlug: "A", OutcomeName: "Yes", CapturedAt: earlier},
		ImpliedProb: 0.3,
	})
	b.Upsert("new-title", model.CategoryPolitics, model.NormalisedQuote{
		RawQuote:    model.RawQuote{VenueSlug: "A", OutcomeName: "Yes", CapturedAt: now},
		ImpliedProb: 0.35,
	})

	b.Merge("new-title", "old-title")

	if _, ok := b.SnapshotOf("old-title"); ok {
		t.Fatalf("expected old-title removed after merge")
	}
	snap, ok := b.SnapshotOf("new-title")
	if !ok {
		t.Fatalf("expected new-title present after merge")
	}
	if snap.Outcomes["Yes"]["A"].ImpliedProb != 0.35 {
		t.Fatalf("expected freshest quote to win merge, got %v", snap.Outcomes["Yes"]["A"].ImpliedProb)
	}
}

func TestBufferMarkStale(t *testing.T) {
	b := NewBuffer()
	old := time.Now().Add(-time.Hour)
	b.Upsert("T", model.CategoryUnknown, model.NormalisedQuote{
		RawQuote:    model.RawQuote{VenueSlug: "A", OutcomeName: "Yes", CapturedAt: old},
		ImpliedProb: 0.4,
	})
	b.MarkStale(time.Now(), 10*time.Minute)

	snap, _ := b.SnapshotOf("T")
	if snap.State != StateStale {
		t.Fatalf("expected STALE after horizon elapsed, got %s", snap.State)
	}
}
