package cashback

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"cashback-scraper/catalog"
	"cashback-scraper/config"
	"cashback-scraper/models"
	"cashback-scraper/observability"
	"cashback-scraper/utils"
)

type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]models.FetchResult
	calls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) models.FetchResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)
	if res, ok := f.pages[url]; ok {
		res.URL = url
		return res
	}
	return models.FetchResult{URL: url, Outcome: models.OutcomeNotFound, StatusCode: 404}
}

func (f *fakeFetcher) Close() error { return nil }

func page(title, meta string, fragments ...string) models.FetchResult {
	return models.FetchResult{
		Outcome:    models.OutcomeSuccess,
		StatusCode: 200,
		Page:       models.PageText{Title: title, MetaDescription: meta, Fragments: fragments},
	}
}

func testConfig(policy string) *config.Config {
	cfg := config.FromEnv()
	cfg.RequestDelayMs = 0
	cfg.EmptyResultPolicy = policy
	return cfg
}

func testCatalog() *catalog.Catalog {
	return catalog.Default().Filter([]string{"Darty", "Booking"})
}

var fixedNow = time.Date(2026, 10, 19, 10, 20, 42, 0, time.UTC)

func newTestScraper(policy string, f *fakeFetcher, progress io.Writer) (*Scraper, *observability.Metrics) {
	metrics := observability.NewMetrics()
	s := New(testConfig(policy), utils.NewLoggerTo(io.Discard, slog.LevelDebug), Options{
		Fetcher:  f,
		Metrics:  metrics,
		Progress: progress,
		Now:      func() time.Time { return fixedNow },
	})
	return s, metrics
}

func dartyPages() map[string]models.FetchResult {
	return map[string]models.FetchResult{
		"https://www.poulpeo.com/reductions-darty.htm": page("Code promo Darty : 10% de réduction + 3.6% de cashback", ""),
		"https://www.widilo.fr/code-promo/darty":       page("Darty", "Jusqu'à 5% de cashback chez Darty"),
		"https://www.ebuyclub.com/reduction-darty-846": page("Darty : codes promo", "Bienvenue", "14% en bons d'achat"),
		"https://fr.igraal.com/codes-promo/darty":      page("Darty", "Les meilleurs codes promo"),
	}
}

func TestRunAggregatesScenario(t *testing.T) {
	f := &fakeFetcher{pages: dartyPages()}
	var progress bytes.Buffer
	s, metrics := newTestScraper(config.EmptyExclude, f, &progress)

	report := s.Run(context.Background(), testCatalog())

	require.Len(t, report.Merchants, 1)
	darty := report.Merchants[0]
	require.Equal(t, "Darty", darty.Name)
	require.Equal(t, &models.BestOffer{Rate: 5, Platform: "Widilo", URL: "https://www.widilo.fr/code-promo/darty"}, darty.BestCashback)
	require.Equal(t, &models.BestOffer{Rate: 14, Platform: "eBuyClub", URL: "https://www.ebuyclub.com/reduction-darty-846"}, darty.BestBonAchat)
	require.Equal(t, 5.0, darty.BestRate)
	require.Equal(t, "Widilo", darty.BestPlatform)
	require.Equal(t, []models.Offer{
		{Platform: "Poulpeo", Kind: models.KindCashback, Rate: 3.6, URL: "https://www.poulpeo.com/reductions-darty.htm"},
		{Platform: "Widilo", Kind: models.KindCashback, Rate: 5, URL: "https://www.widilo.fr/code-promo/darty"},
		{Platform: "eBuyClub", Kind: models.KindVoucher, Rate: 14, URL: "https://www.ebuyclub.com/reduction-darty-846"},
	}, darty.Offers)

	st := report.Stats
	require.Equal(t, 2, st.TotalMerchants)
	require.Equal(t, 1, st.MerchantsWithOffers)
	require.Equal(t, 1, st.MerchantsWithoutOffers)
	require.Equal(t, []string{"Booking"}, st.NoOfferMerchants)
	require.Equal(t, 3, st.TotalOffers)
	require.Equal(t, 2, st.CashbackOffers)
	require.Equal(t, 1, st.VoucherOffers)
	require.Equal(t, 8, st.Fetches)
	require.Equal(t, 4, st.Errors)
	require.Equal(t, map[string]int{"not_found": 4}, st.ErrorsByOutcome)

	_, err := uuid.Parse(report.RunID)
	require.NoError(t, err)
	require.True(t, report.LastUpdated.Equal(fixedNow))
	require.Equal(t, "19 octobre 2026 à 12h20", report.LastUpdatedHuman)

	require.Contains(t, progress.String(), "🔌 Darty: 3 offer(s), cashback 5.00% (Widilo), bon d'achat 14.00% (eBuyClub)")
	require.Contains(t, progress.String(), "🏨 Booking: no offer [4 fetch error(s)]")

	require.Equal(t, 1.0, testutil.ToFloat64(metrics.FetchesTotal.WithLabelValues("Widilo", "success")))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.OffersTotal.WithLabelValues("eBuyClub", "bon_achat")))
	require.Equal(t, 14.0, testutil.ToFloat64(metrics.BestRate.WithLabelValues("Darty", "bon_achat", "eBuyClub")))
}

func TestRunFetchesInCatalogThenPlatformOrder(t *testing.T) {
	f := &fakeFetcher{pages: dartyPages()}
	s, _ := newTestScraper(config.EmptyExclude, f, nil)

	s.Run(context.Background(), testCatalog())

	require.Equal(t, []string{
		"https://www.poulpeo.com/reductions-darty.htm",
		"https://www.widilo.fr/code-promo/darty",
		"https://www.ebuyclub.com/reduction-darty-846",
		"https://fr.igraal.com/codes-promo/darty",
		"https://www.poulpeo.com/reductions-booking.htm",
		"https://www.widilo.fr/code-promo/booking-com",
		"https://www.ebuyclub.com/reduction-booking-972",
		"https://fr.igraal.com/codes-promo/booking",
	}, f.calls)
}

func TestRunPlaceholderKeepsMerchantsWithoutOffers(t *testing.T) {
	f := &fakeFetcher{pages: dartyPages()}
	s, _ := newTestScraper(config.EmptyPlaceholder, f, nil)

	report := s.Run(context.Background(), testCatalog())

	require.Len(t, report.Merchants, 2)
	booking := report.Merchants[1]
	require.Equal(t, "Booking", booking.Name)
	require.NotNil(t, booking.Offers)
	require.Empty(t, booking.Offers)
	require.Nil(t, booking.BestCashback)
	require.Zero(t, booking.BestRate)
	require.Equal(t, 1, report.Stats.MerchantsWithoutOffers)
}

func TestRunSkipsPlatformWithoutID(t *testing.T) {
	f := &fakeFetcher{pages: map[string]models.FetchResult{}}
	s, _ := newTestScraper(config.EmptyExclude, f, nil)
	cat := &catalog.Catalog{Merchants: []models.MerchantSpec{{Name: "Nouveau", Slug: "nouveau"}}}

	report := s.Run(context.Background(), cat)

	require.Len(t, f.calls, 3, "eBuyClub needs an id and is not fetched")
	require.Equal(t, 3, report.Stats.Fetches)
	require.Empty(t, report.Merchants)
}

func TestRunNoErrorsLeavesErrorMapEmpty(t *testing.T) {
	pages := map[string]models.FetchResult{}
	for _, url := range []string{
		"https://www.poulpeo.com/reductions-darty.htm",
		"https://www.widilo.fr/code-promo/darty",
		"https://www.ebuyclub.com/reduction-darty-846",
		"https://fr.igraal.com/codes-promo/darty",
	} {
		pages[url] = page("Darty", "")
	}
	f := &fakeFetcher{pages: pages}
	s, _ := newTestScraper(config.EmptyExclude, f, nil)

	report := s.Run(context.Background(), catalog.Default().Filter([]string{"darty"}))

	require.Zero(t, report.Stats.Errors)
	require.Nil(t, report.Stats.ErrorsByOutcome)
	require.Equal(t, []string{"Darty"}, report.Stats.NoOfferMerchants)
}

func TestRunStopsWhenContextIsCancelled(t *testing.T) {
	f := &fakeFetcher{pages: dartyPages()}
	s, _ := newTestScraper(config.EmptyExclude, f, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := s.Run(ctx, testCatalog())

	require.Empty(t, f.calls)
	require.Empty(t, report.Merchants)
	require.Zero(t, report.Stats.Fetches)
}

func TestCatalogPolicyOverridesConfig(t *testing.T) {
	cfg := testConfig(config.EmptyExclude)
	cat := &catalog.Catalog{Policy: catalog.Policy{MaxCashbackRate: 10}}

	p := PolicyFor(cfg, cat)
	require.Equal(t, 10.0, p.MaxCashback)
	require.Equal(t, cfg.MaxVoucherRate, p.MaxVoucher)
}

func TestInspectReportsEveryPlatform(t *testing.T) {
	f := &fakeFetcher{pages: dartyPages()}
	s, _ := newTestScraper(config.EmptyExclude, f, nil)

	got := s.Inspect(context.Background(), catalog.Default().Filter([]string{"darty"}).Merchants[0])

	require.Len(t, got, 4)
	require.Equal(t, "Poulpeo", got[0].Platform)
	require.Equal(t, 3.6, got[0].Rates[models.KindCashback])
	require.Equal(t, 14.0, got[2].Rates[models.KindVoucher])
	require.Empty(t, got[3].Rates)
	require.Equal(t, "Darty", got[3].Result.Page.Title)
}

func TestFrenchTimestamp(t *testing.T) {
	tests := []struct {
		at   time.Time
		want string
	}{
		{time.Date(2026, 10, 19, 10, 20, 0, 0, time.UTC), "19 octobre 2026 à 12h20"},
		{time.Date(2026, 1, 5, 8, 3, 0, 0, time.UTC), "5 janvier 2026 à 09h03"},
		{time.Date(2026, 8, 31, 22, 30, 0, 0, time.UTC), "1 septembre 2026 à 00h30"},
	}
	for _, tt := range tests {
		if got := FrenchTimestamp(tt.at); got != tt.want {
			t.Errorf("FrenchTimestamp(%v) = %q; want %q", tt.at, got, tt.want)
		}
	}
}
