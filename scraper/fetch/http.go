package fetch

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"cashback-scraper/config"
	"cashback-scraper/models"
	"cashback-scraper/scraper/page"
	"cashback-scraper/utils"
)

const maxRedirects = 10

// HTTPFetcher fetches pages with a plain HTTP client and browser-like headers.
type HTTPFetcher struct {
	client *resty.Client
	logger *utils.Logger
}

// NewHTTPFetcher creates an HTTPFetcher. Redirects are followed; requests are
// never retried.
func NewHTTPFetcher(cfg *config.Config, logger *utils.Logger) *HTTPFetcher {
	client := resty.New()
	client.SetHeaders(cfg.Headers())
	client.SetTimeout(time.Duration(cfg.RequestTimeoutMs) * time.Millisecond)
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(maxRedirects))
	client.SetRetryCount(0)
	client.SetLogger(restyLogger{logger})

	return &HTTPFetcher{client: client, logger: logger}
}

// Fetch issues a GET for url and extracts the page text.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) models.FetchResult {
	result := models.FetchResult{URL: url}

	res, err := f.client.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		result.Outcome = classifyError(err)
		result.Err = err
		return result
	}

	result.StatusCode = res.StatusCode()
	result.Outcome = classifyStatus(result.StatusCode)
	if result.Outcome != models.OutcomeSuccess {
		result.Err = fmt.Errorf("unexpected status code %d for %s", result.StatusCode, url)
		return result
	}

	text, err := page.Extract(bytes.NewReader(res.Body()))
	if err != nil {
		result.Outcome = models.OutcomeParseError
		result.Err = err
		return result
	}
	result.Page = text
	return result
}

func (f *HTTPFetcher) Close() error {
	return nil
}

// restyLogger routes resty's own messages to our logger.
type restyLogger struct {
	logger *utils.Logger
}

func (l restyLogger) Errorf(format string, v ...interface{}) { l.logger.Error("[resty] "+format, v...) }
func (l restyLogger) Warnf(format string, v ...interface{})  { l.logger.Warn("[resty] "+format, v...) }
func (l restyLogger) Debugf(format string, v ...interface{}) { l.logger.Debug("[resty] "+format, v...) }
