// Package cashback drives a scraping run: every merchant of the catalog is
// fetched on every platform, one request at a time, and aggregated.
package cashback

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"cashback-scraper/catalog"
	"cashback-scraper/config"
	"cashback-scraper/models"
	"cashback-scraper/observability"
	"cashback-scraper/scraper/fetch"
	"cashback-scraper/scraper/platforms"
	"cashback-scraper/services"
	"cashback-scraper/utils"
)

// Scraper orchestrates a full run.
type Scraper struct {
	logger     *utils.Logger
	fetcher    fetch.Fetcher
	platforms  []platforms.Platform
	extractor  *services.RateExtractor
	aggregator *services.Aggregator
	throttle   *utils.Throttle
	metrics    *observability.Metrics
	progress   io.Writer
	now        func() time.Time
}

// Options carries the collaborators of a Scraper. Zero fields get defaults.
type Options struct {
	Fetcher   fetch.Fetcher
	Platforms []platforms.Platform
	Policy    services.RatePolicy
	Metrics   *observability.Metrics
	Progress  io.Writer
	Now       func() time.Time
}

// New creates a ready-to-use Scraper.
func New(cfg *config.Config, logger *utils.Logger, opts Options) *Scraper {
	if opts.Platforms == nil {
		opts.Platforms = platforms.Default()
	}
	if opts.Policy == (services.RatePolicy{}) {
		opts.Policy = services.RatePolicy{MaxCashback: cfg.MaxCashbackRate, MaxVoucher: cfg.MaxVoucherRate}
	}
	if opts.Metrics == nil {
		opts.Metrics = observability.NewMetrics()
	}
	if opts.Progress == nil {
		opts.Progress = io.Discard
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Scraper{
		logger:     logger,
		fetcher:    opts.Fetcher,
		platforms:  opts.Platforms,
		extractor:  services.NewRateExtractor(opts.Policy),
		aggregator: services.NewAggregator(logger, cfg.EmptyResultPolicy == config.EmptyPlaceholder),
		throttle:   utils.NewThrottle(cfg.RequestDelayMs),
		metrics:    opts.Metrics,
		progress:   opts.Progress,
		now:        opts.Now,
	}
}

// PolicyFor resolves the plausibility bounds: catalog file values win over
// the environment.
func PolicyFor(cfg *config.Config, cat *catalog.Catalog) services.RatePolicy {
	p := services.RatePolicy{MaxCashback: cfg.MaxCashbackRate, MaxVoucher: cfg.MaxVoucherRate}
	if cat.Policy.MaxCashbackRate > 0 {
		p.MaxCashback = cat.Policy.MaxCashbackRate
	}
	if cat.Policy.MaxVoucherRate > 0 {
		p.MaxVoucher = cat.Policy.MaxVoucherRate
	}
	return p
}

// Run scrapes every merchant of the catalog in order and returns the report.
// Nothing is persisted here. When ctx is cancelled the loop stops at the next
// merchant boundary; callers must check ctx.Err() before trusting the report.
func (s *Scraper) Run(ctx context.Context, cat *catalog.Catalog) *models.RunReport {
	started := s.now()
	policy := s.extractor.Policy()
	s.logger.Info("[cashback] Starting run: %d merchants x %d platforms, delay %v, bounds cashback %.1f%% / bon d'achat %.1f%%",
		len(cat.Merchants), len(s.platforms), s.throttle.Delay(), policy.MaxCashback, policy.MaxVoucher)

	stats := models.RunStats{
		TotalMerchants:  len(cat.Merchants),
		ErrorsByOutcome: make(map[string]int),
	}
	results := make([]models.MerchantResult, 0, len(cat.Merchants))

	for _, m := range cat.Merchants {
		if err := ctx.Err(); err != nil {
			s.logger.Warn("[cashback] Run interrupted before %s: %v", m.Name, err)
			break
		}
		offers, fetches := s.ScrapeMerchant(ctx, m)

		failed := 0
		for _, f := range fetches {
			if f.Outcome == models.OutcomeSkipped {
				continue
			}
			stats.Fetches++
			if f.Outcome.IsError() {
				failed++
				stats.Errors++
				stats.ErrorsByOutcome[string(f.Outcome)]++
			}
		}

		res, keep := s.aggregator.Aggregate(m, offers)
		if len(res.Offers) == 0 {
			stats.MerchantsWithoutOffers++
			stats.NoOfferMerchants = append(stats.NoOfferMerchants, m.Name)
		} else {
			stats.MerchantsWithOffers++
		}
		for _, o := range res.Offers {
			stats.TotalOffers++
			switch o.Kind {
			case models.KindCashback:
				stats.CashbackOffers++
			case models.KindVoucher:
				stats.VoucherOffers++
			}
		}
		if keep {
			results = append(results, res)
		}

		fmt.Fprintln(s.progress, progressLine(m, res, failed))
	}

	finished := s.now()
	stats.DurationSeconds = finished.Sub(started).Seconds()
	if len(stats.ErrorsByOutcome) == 0 {
		stats.ErrorsByOutcome = nil
	}

	report := &models.RunReport{
		RunID:            uuid.NewString(),
		LastUpdated:      finished.UTC().Truncate(time.Second),
		LastUpdatedHuman: FrenchTimestamp(finished),
		Stats:            stats,
		Merchants:        results,
	}
	s.metrics.ObserveReport(report)

	s.logger.Info("[cashback] Run complete: %d/%d merchants with offers, %d offers, %d fetch errors",
		stats.MerchantsWithOffers, stats.TotalMerchants, stats.TotalOffers, stats.Errors)
	return report
}

// ScrapeMerchant fetches every platform for m and returns the extracted
// offers in platform order along with every fetch result.
func (s *Scraper) ScrapeMerchant(ctx context.Context, m models.MerchantSpec) ([]models.Offer, []models.FetchResult) {
	var offers []models.Offer
	fetches := make([]models.FetchResult, 0, len(s.platforms))

	for _, p := range s.platforms {
		res, found := s.scrapePlatform(ctx, m, p)
		fetches = append(fetches, res)
		for _, kind := range models.Kinds {
			rate, ok := found[kind]
			if !ok {
				continue
			}
			o := models.Offer{Platform: p.Name, Kind: kind, Rate: rate, URL: res.URL}
			s.metrics.ObserveOffer(o)
			offers = append(offers, o)
		}
	}
	return offers, fetches
}

func (s *Scraper) scrapePlatform(ctx context.Context, m models.MerchantSpec, p platforms.Platform) (models.FetchResult, map[models.OfferKind]float64) {
	url, ok := p.URL(m)
	if !ok {
		s.logger.Debug("[cashback] %s: no %s URL, skipping", m.Name, p.Name)
		return models.FetchResult{Outcome: models.OutcomeSkipped}, nil
	}

	res := s.fetcher.Fetch(ctx, url)
	s.throttle.Pause()
	s.metrics.ObserveFetch(p.Name, res.Outcome)

	if res.Outcome != models.OutcomeSuccess {
		s.logger.Warn("[cashback] %s on %s: %s (%v)", m.Name, p.Name, res.Outcome, res.Err)
		return res, nil
	}

	found := s.extractor.ExtractAll(res.Page.Text(p.UseFragments), p.Templates)
	s.logger.Debug("[cashback] %s on %s: %d rate(s) from %q", m.Name, p.Name, len(found), res.Page.Title)
	return res, found
}

func progressLine(m models.MerchantSpec, res models.MerchantResult, failed int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s: ", m.Icon, m.Name)
	if len(res.Offers) == 0 {
		b.WriteString("no offer")
	} else {
		parts := make([]string, 0, 2)
		if res.BestCashback != nil {
			parts = append(parts, fmt.Sprintf("cashback %.2f%% (%s)", res.BestCashback.Rate, res.BestCashback.Platform))
		}
		if res.BestBonAchat != nil {
			parts = append(parts, fmt.Sprintf("bon d'achat %.2f%% (%s)", res.BestBonAchat.Rate, res.BestBonAchat.Platform))
		}
		fmt.Fprintf(&b, "%d offer(s), %s", len(res.Offers), strings.Join(parts, ", "))
	}
	if failed > 0 {
		fmt.Fprintf(&b, " [%d fetch error(s)]", failed)
	}
	return b.String()
}
