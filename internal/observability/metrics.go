package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pota_hunter"

// Metrics holds the Prometheus counters, histograms, and gauges for the spot hunter.
type Metrics struct {
	Runs        *prometheus.CounterVec // labels: outcome={success,error}
	RunDuration prometheus.Histogram
	LastSuccess prometheus.Gauge
	Scheduled   prometheus.Gauge

	// Spot flow metrics.
	SpotsFetched prometheus.Counter
	SpotsMatched prometheus.Counter

	// QRZ metrics.
	Lookups        *prometheus.CounterVec // labels: outcome={found,trustee,not_found,error}
	LookupDuration prometheus.Histogram
	Tokens         *prometheus.CounterVec // labels: result={cached,issued}

	// Downstream delivery.
	Notifications *prometheus.CounterVec // labels: channel={pushover,telegram,kafka}, outcome={success,error}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Runs,
		m.RunDuration,
		m.LastSuccess,
		m.Scheduled,
		m.SpotsFetched,
		m.SpotsMatched,
		m.Lookups,
		m.LookupDuration,
		m.Tokens,
		m.Notifications,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by outcome.",
		}, []string{"outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete fetch-filter-enrich-notify run.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
		Scheduled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scheduler_running",
			Help:      "1 while the cron scheduler is active, 0 otherwise.",
		}),
		SpotsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "spots_fetched_total",
			Help:      "Spots read from the POTA feed.",
		}),
		SpotsMatched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "spots_matched_total",
			Help:      "Spots that passed the region, mode, and recency filter.",
		}),
		Lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "qrz_lookups_total",
			Help:      "QRZ callsign lookups by outcome.",
		}, []string{"outcome"}),
		LookupDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "qrz_lookup_duration_seconds",
			Help:      "QRZ callsign lookup duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		Tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "qrz_tokens_total",
			Help:      "QRZ session key requests by whether the cached key was reused.",
		}, []string{"result"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Batches handed to each delivery channel by outcome.",
		}, []string{"channel", "outcome"}),
	}
}
