package worker

import "strings"

// CanonicalizeSeriesURL rewrites a venue's per-contract URL to its
// series-level page when the venue (e.g. Smarkets) only serves
// series-level market pages, per spec.md §4.2's URL canonicalisation
// rule: lower-cased, stripped of the per-period/per-outcome suffix.
// contractURL is expected to contain a trailing
// "/<series-slug>/<contract-slug>" path; the contract-slug segment is
// dropped. URLs that don't match the expected shape are returned
// unchanged (but still lower-cased).
func CanonicalizeSeriesURL(contractURL string) string {
	trimmed := strings.TrimRight(contractURL, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 {
		return strings.ToLower(contractURL)
	}

	seriesURL := trimmed[:idx]
	// Guard against truncating down to the scheme ("https:/" with one
	// slash already stripped by LastIndex) when contractURL has too few
	// path segments to safely drop one.
	if strings.Count(seriesURL, "/") < 2 {
		return strings.ToLower(contractURL)
	}
	return strings.ToLower(seriesURL)
}
