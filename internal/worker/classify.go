package worker

import (
	"strings"

	"github.com/Just-Trades13/OddsAxiome/internal/model"
)

// keywordCategories maps a lowercase substring found in a market title
// to the OddsAxiom category it implies when a venue doesn't report its
// own taxonomy directly.
var keywordCategories = []struct {
	keyword  string
	category model.Category
}{
	{"president", model.CategoryPolitics},
	{"election", model.CategoryPolitics},
	{"senate", model.CategoryPolitics},
	{"congress", model.CategoryPolitics},
	{"prime minister", model.CategoryPolitics},
	{"fed ", model.CategoryEconomics},
	{"federal reserve", model.CategoryEconomics},
	{"inflation", model.CategoryEconomics},
	{"interest rate", model.CategoryEconomics},
	{"gdp", model.CategoryEconomics},
	{"recession", model.CategoryEconomics},
	{"bitcoin", model.CategoryCrypto},
	{"ethereum", model.CategoryCrypto},
	{"btc", model.CategoryCrypto},
	{"eth ", model.CategoryCrypto},
	{"nobel", model.CategoryScience},
	{"spacex", model.CategoryScience},
	{"launch", model.CategoryScience},
	{"oscar", model.CategoryCulture},
	{"grammy", model.CategoryCulture},
	{"box office", model.CategoryCulture},
	{"super bowl", model.CategorySports},
	{"championship", model.CategorySports},
	{"world cup", model.CategorySports},
	{"playoffs", model.CategorySports},
}

// Classify maps a venue-native category string and a market title to
// the closed OddsAxiom taxonomy, per spec.md §4.2: a per-venue lookup
// first, then a keyword fallback over the title, then the venue
// class's default category.
func Classify(venueCategory, title string, byVenueLookup map[string]model.Category, venueDefault model.Category) model.Category {
	if byVenueLookup != nil {
		if c, ok := byVenueLookup[strings.ToLower(venueCategory)]; ok && c != "" {
			return c
		}
	}

	lower := strings.ToLower(title)
	for _, kc := range keywordCategories {
		if strings.Contains(lower, kc.keyword) {
			return kc.category
		}
	}

	return venueDefault
}
