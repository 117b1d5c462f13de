package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	RefreshesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "countries_refresh_total",
			Help: "Refresh cycles by outcome",
		},
		[]string{"outcome"}, // success|not_configured|in_progress|upstream_unavailable|invalid_payload|empty|error
	)

	RefreshDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "countries_refresh_duration_seconds",
			Help:    "Wall time of refresh cycles, including failed ones",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		},
	)

	RecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "countries_refresh_records_total",
			Help: "Source country records seen by refreshes, by fate",
		},
		[]string{"fate"}, // upserted|skipped
	)

	CountriesStored = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "countries_stored",
			Help: "Countries in the store after the last refresh",
		},
	)

	SummaryRenderFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "countries_summary_render_failures_total",
			Help: "Summary image generations that failed after a successful refresh",
		},
	)
)

func MustRegister(r prometheus.Registerer) {
	r.MustRegister(
		RefreshesTotal,
		RefreshDuration,
		RecordsTotal,
		CountriesStored,
		SummaryRenderFailures,
	)
}

// ObserveRefresh records the outcome and duration of one refresh cycle.
func ObserveRefresh(outcome string, took time.Duration) {
	RefreshesTotal.WithLabelValues(outcome).Inc()
	RefreshDuration.Observe(took.Seconds())
}
