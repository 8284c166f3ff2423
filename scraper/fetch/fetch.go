// Package fetch retrieves merchant pages. Fetchers never fail: every problem
// is reported as a models.Outcome on the result.
package fetch

import (
	"context"
	"errors"
	"net"
	"net/http"

	"cashback-scraper/config"
	"cashback-scraper/models"
	"cashback-scraper/utils"
)

// Fetcher retrieves one page and extracts its text.
type Fetcher interface {
	Fetch(ctx context.Context, url string) models.FetchResult
	Close() error
}

// New builds the fetcher selected by cfg.Fetcher.
func New(cfg *config.Config, logger *utils.Logger) (Fetcher, error) {
	if cfg.Fetcher == config.FetcherBrowser {
		return NewBrowserFetcher(cfg, logger)
	}
	return NewHTTPFetcher(cfg, logger), nil
}

// classifyError maps a transport error to an outcome.
func classifyError(err error) models.Outcome {
	if errors.Is(err, context.DeadlineExceeded) {
		return models.OutcomeTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return models.OutcomeTimeout
	}
	return models.OutcomeNetworkError
}

// classifyStatus maps a non-transport HTTP status to an outcome.
func classifyStatus(code int) models.Outcome {
	switch {
	case code == http.StatusOK:
		return models.OutcomeSuccess
	case code == http.StatusNotFound:
		return models.OutcomeNotFound
	}
	return models.OutcomeHTTPError
}
