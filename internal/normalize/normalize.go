// Package normalize implements the pure price-format to implied-probability
// mapping applied to every RawQuote before it is published. It is
// stateless, deterministic, and performs no I/O.
package normalize

import (
	"errors"
	"fmt"

	"github.com/Just-Trades13/OddsAxiome/internal/model"
)

// ErrInvalidQuote is returned when a normalised implied probability lands
// exactly on 0 or 1 — such quotes are rejected at the publisher boundary,
// not here; the normaliser only classifies them.
var ErrInvalidQuote = errors.New("normalize: implied probability out of (0,1)")

// ImpliedProb maps a raw price and its declared format to an implied
// probability in [0, 1]. Unknown formats are treated as probability.
func ImpliedProb(price float64, format model.PriceFormat) float64 {
	switch format {
	case model.PriceFormatProbability:
		return clamp01(price)
	case model.PriceFormatCents:
		return clamp01(price / 100)
	case model.PriceFormatAmericanPositive:
		if price > 0 {
			return 100 / (price + 100)
		}
		return 0.5
	case model.PriceFormatAmericanNegative:
		abs := price
		if abs < 0 {
			abs = -abs
		}
		if abs != 0 {
			return abs / (abs + 100)
		}
		return 0.5
	case model.PriceFormatDecimal:
		if price > 0 {
			return clamp01(1 / price)
		}
		return 0
	default:
		return clamp01(price)
	}
}

func clamp01(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// Quote applies ImpliedProb to a RawQuote, producing a NormalisedQuote.
// Price is retained verbatim alongside the derived probability.
func Quote(raw model.RawQuote) model.NormalisedQuote {
	return model.NormalisedQuote{
		RawQuote:    raw,
		ImpliedProb: ImpliedProb(raw.Price, raw.PriceFormat),
	}
}

// Batch normalises every quote in a batch, preserving order.
func Batch(raws []model.RawQuote) []model.NormalisedQuote {
	out := make([]model.NormalisedQuote, len(raws))
	for i, r := range raws {
		out[i] = Quote(r)
	}
	return out
}

// Classify reports ErrInvalidQuote when the quote's implied probability
// is exactly 0 or 1, the policy enforced downstream by the publisher and
// the arbitrage engine (§4.1: "rejects ... policy enforced downstream by
// the engine, not by the normaliser itself").
func Classify(q model.NormalisedQuote) error {
	if q.ImpliedProb <= 0 || q.ImpliedProb >= 1 {
		return fmt.Errorf("%w: venue=%s market=%s outcome=%s prob=%f",
			ErrInvalidQuote, q.VenueSlug, q.ExternalMarketID, q.OutcomeName, q.ImpliedProb)
	}
	return nil
}
