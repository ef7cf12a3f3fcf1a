// Package model defines the wire-level and in-process record types shared
// across the ingestion-to-arbitrage pipeline: venues, raw and normalised
// quotes, the live cache aggregate, opportunities, and durable snapshots.
package model

// VenueClass is the closed enumeration of venue business types.
type VenueClass string

const (
	VenueClassPrediction VenueClass = "prediction"
	VenueClassSports     VenueClass = "sports"
	VenueClassCrypto     VenueClass = "crypto"
)

// Venue is a symbolic identifier for a quote source, known at
// configuration time. The venue set is closed: workers are registered
// against a fixed slug, never discovered at runtime.
type Venue struct {
	Slug  string     `yaml:"slug" json:"slug"`
	Class VenueClass `yaml:"class" json:"class"`
}

// Category is the closed OddsAxiom market taxonomy every venue-native
// category is translated into before publication.
type Category string

const (
	CategoryPolitics  Category = "politics"
	CategoryEconomics Category = "economics"
	CategoryCrypto    Category = "crypto"
	CategoryScience   Category = "science"
	CategoryCulture   Category = "culture"
	CategorySports    Category = "sports"
	CategoryUnknown   Category = ""
)

// PriceFormat is the closed set of upstream price encodings the
// normaliser understands.
type PriceFormat string

const (
	PriceFormatProbability      PriceFormat = "probability"
	PriceFormatCents            PriceFormat = "cents"
	PriceFormatAmericanPositive PriceFormat = "american_positive"
	PriceFormatAmericanNegative PriceFormat = "american_negative"
	PriceFormatDecimal          PriceFormat = "decimal"
)
