package worker

import (
	"testing"

	"github.com/Just-Trades13/OddsAxiome/internal/model"
)

func TestClassifyPrefersVenueLookup(t *testing.T) {
	lookup := map[string]model.Category{"politics-us": model.CategoryPolitics}
	got := Classify("politics-us", "Will bitcoin reach $100k?", lookup, model.CategorySports)
	if got != model.CategoryPolitics {
		t.Fatalf("expected venue lookup to win, got %q", got)
	}
}

func TestClassifyFallsBackToKeyword(t *testing.T) {
	got := Classify("", "Will the Fed cut interest rates in March?", nil, model.CategorySports)
	if got != model.CategoryEconomics {
		t.Fatalf("expected keyword fallback to economics, got %q", got)
	}
}

func TestClassifyFallsBackToVenueDefault(t *testing.T) {
	got := Classify("", "Will it rain in Denver tomorrow?", nil, model.CategorySports)
	if got != model.CategorySports {
		t.Fatalf("expected venue default, got %q", got)
	}
}
