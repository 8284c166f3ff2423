package observability

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"cashback-scraper/models"
)

// Metrics collects run metrics in a private registry. A batch job has no
// scrape endpoint, so the registry is dumped to a node_exporter textfile.
type Metrics struct {
	Registry *prometheus.Registry

	FetchesTotal  *prometheus.CounterVec
	OffersTotal   *prometheus.CounterVec
	BestRate      *prometheus.GaugeVec
	RunDuration   prometheus.Gauge
	LastRunTime   prometheus.Gauge
	MerchantCount *prometheus.GaugeVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		FetchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cashback_fetches_total",
			Help: "Page fetches by platform and outcome",
		}, []string{"platform", "outcome"}),
		OffersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cashback_offers_total",
			Help: "Offers extracted by platform and kind",
		}, []string{"platform", "kind"}),
		BestRate: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cashback_best_rate_percent",
			Help: "Best advertised rate per merchant and kind",
		}, []string{"merchant", "kind", "platform"}),
		RunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cashback_run_duration_seconds",
			Help: "Duration of the last run",
		}),
		LastRunTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cashback_last_run_timestamp_seconds",
			Help: "Unix time of the last completed run",
		}),
		MerchantCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cashback_merchants",
			Help: "Merchants of the last run by status",
		}, []string{"status"}),
	}
	m.Registry.MustRegister(m.FetchesTotal, m.OffersTotal, m.BestRate, m.RunDuration, m.LastRunTime, m.MerchantCount)
	return m
}

// ObserveFetch counts a fetch outcome.
func (m *Metrics) ObserveFetch(platform string, outcome models.Outcome) {
	m.FetchesTotal.WithLabelValues(platform, string(outcome)).Inc()
}

// ObserveOffer counts an extracted offer.
func (m *Metrics) ObserveOffer(o models.Offer) {
	m.OffersTotal.WithLabelValues(o.Platform, string(o.Kind)).Inc()
}

// ObserveReport records the per-merchant best rates and run-level gauges.
func (m *Metrics) ObserveReport(r *models.RunReport) {
	for _, res := range r.Merchants {
		if b := res.BestCashback; b != nil {
			m.BestRate.WithLabelValues(res.Name, string(models.KindCashback), b.Platform).Set(b.Rate)
		}
		if b := res.BestBonAchat; b != nil {
			m.BestRate.WithLabelValues(res.Name, string(models.KindVoucher), b.Platform).Set(b.Rate)
		}
	}
	m.RunDuration.Set(r.Stats.DurationSeconds)
	m.LastRunTime.Set(float64(r.LastUpdated.Unix()))
	m.MerchantCount.WithLabelValues("with_offers").Set(float64(r.Stats.MerchantsWithOffers))
	m.MerchantCount.WithLabelValues("without_offers").Set(float64(r.Stats.MerchantsWithoutOffers))
}

// WriteTextfile dumps the registry in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("metrics: create output dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("metrics: write %q: %w", path, err)
	}
	return nil
}
