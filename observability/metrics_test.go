package observability

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"cashback-scraper/models"
)

func TestObserveFetchAndOffer(t *testing.T) {
	m := NewMetrics()

	m.ObserveFetch("Widilo", models.OutcomeSuccess)
	m.ObserveFetch("Widilo", models.OutcomeSuccess)
	m.ObserveFetch("Widilo", models.OutcomeTimeout)
	m.ObserveOffer(models.Offer{Platform: "Widilo", Kind: models.KindCashback, Rate: 5})

	require.Equal(t, 2.0, testutil.ToFloat64(m.FetchesTotal.WithLabelValues("Widilo", "success")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.FetchesTotal.WithLabelValues("Widilo", "timeout")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.OffersTotal.WithLabelValues("Widilo", "cashback")))
}

func TestObserveReportAndWriteTextfile(t *testing.T) {
	m := NewMetrics()
	m.ObserveReport(&models.RunReport{
		LastUpdated: time.Unix(1700000000, 0).UTC(),
		Stats:       models.RunStats{MerchantsWithOffers: 1, MerchantsWithoutOffers: 2, DurationSeconds: 12.5},
		Merchants: []models.MerchantResult{
			{Name: "Darty", BestCashback: &models.BestOffer{Rate: 5, Platform: "Widilo"}},
		},
	})

	require.Equal(t, 5.0, testutil.ToFloat64(m.BestRate.WithLabelValues("Darty", "cashback", "Widilo")))
	require.Equal(t, 12.5, testutil.ToFloat64(m.RunDuration))
	require.Equal(t, 2.0, testutil.ToFloat64(m.MerchantCount.WithLabelValues("without_offers")))

	path := filepath.Join(t.TempDir(), "metrics", "cashback.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `cashback_best_rate_percent{kind="cashback",merchant="Darty",platform="Widilo"} 5`)
}
