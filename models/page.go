package models

import "strings"

// PageText is the subset of a fetched page the rate extractor looks at.
// It is discarded once the rates have been extracted.
type PageText struct {
	Title           string
	MetaDescription string
	Fragments       []string
}

// Text joins title and meta description. Fragments are appended only when
// withFragments is set.
func (p PageText) Text(withFragments bool) string {
	parts := make([]string, 0, 2+len(p.Fragments))
	if p.Title != "" {
		parts = append(parts, p.Title)
	}
	if p.MetaDescription != "" {
		parts = append(parts, p.MetaDescription)
	}
	if withFragments {
		parts = append(parts, p.Fragments...)
	}
	return strings.Join(parts, " ")
}

// Outcome describes how a single page fetch ended.
type Outcome string

const (
	OutcomeSuccess      Outcome = "success"
	OutcomeNotFound     Outcome = "not_found"
	OutcomeHTTPError    Outcome = "http_error"
	OutcomeTimeout      Outcome = "timeout"
	OutcomeNetworkError Outcome = "network_error"
	OutcomeParseError   Outcome = "parse_error"
	// OutcomeSkipped means the platform has no URL for the merchant.
	OutcomeSkipped Outcome = "skipped"
)

// IsError reports whether the outcome counts as a fetch error in run stats.
func (o Outcome) IsError() bool {
	return o != OutcomeSuccess && o != OutcomeSkipped
}

// FetchResult is what a fetcher returns for one URL. Fetchers never return a
// Go error to their caller; the failure reason lives in Outcome and Err.
type FetchResult struct {
	URL        string
	Outcome    Outcome
	StatusCode int
	Page       PageText
	Err        error
}
