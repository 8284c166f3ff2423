package fetch

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"cashback-scraper/config"
	"cashback-scraper/models"
	"cashback-scraper/scraper/page"
	"cashback-scraper/utils"
)

// BrowserFetcher renders pages in headless Chrome before extracting text.
// Use it for platforms that build their rate blocks client-side.
type BrowserFetcher struct {
	logger        *utils.Logger
	timeout       time.Duration
	headers       network.Headers
	browserCtx    context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc
}

// NewBrowserFetcher starts a headless browser.
func NewBrowserFetcher(cfg *config.Config, logger *utils.Logger) (*BrowserFetcher, error) {
	chromeBin := findChromeBinary(cfg.ChromeBin)
	logger.Info("[browser] Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent(cfg.UserAgent),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)

	// Suppress chromedp log noise
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("browser: start: %w", err)
	}

	return &BrowserFetcher{
		logger:        logger,
		timeout:       time.Duration(cfg.RequestTimeoutMs) * time.Millisecond,
		headers:       network.Headers{"Accept": cfg.Accept, "Accept-Language": cfg.AcceptLanguage},
		browserCtx:    browserCtx,
		cancelBrowser: cancelBrowser,
		cancelAlloc:   cancelAlloc,
	}, nil
}

// Fetch opens url in a new tab and extracts text from the rendered DOM.
func (f *BrowserFetcher) Fetch(ctx context.Context, url string) models.FetchResult {
	result := models.FetchResult{URL: url}

	tabCtx, cancelTab := chromedp.NewContext(f.browserCtx)
	defer cancelTab()
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, f.timeout)
	defer cancelTimeout()

	if err := chromedp.Run(tabCtx, network.Enable(), network.SetExtraHTTPHeaders(f.headers)); err != nil {
		result.Outcome = classifyError(err)
		result.Err = err
		return result
	}

	resp, err := chromedp.RunResponse(tabCtx, chromedp.Navigate(url))
	if err != nil {
		result.Outcome = classifyError(err)
		result.Err = err
		return result
	}
	if resp != nil {
		result.StatusCode = int(resp.Status)
		result.Outcome = classifyStatus(result.StatusCode)
		if result.Outcome != models.OutcomeSuccess {
			result.Err = fmt.Errorf("unexpected status code %d for %s", result.StatusCode, url)
			return result
		}
	}

	var html string
	if err := chromedp.Run(tabCtx,
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		result.Outcome = classifyError(err)
		result.Err = err
		return result
	}

	text, err := page.Extract(strings.NewReader(html))
	if err != nil {
		result.Outcome = models.OutcomeParseError
		result.Err = err
		return result
	}
	result.Outcome = models.OutcomeSuccess
	result.Page = text
	return result
}

// Close shuts the browser down.
func (f *BrowserFetcher) Close() error {
	f.cancelBrowser()
	f.cancelAlloc()
	return nil
}

// findChromeBinary locates Chrome/Chromium binary.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
