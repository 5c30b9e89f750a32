package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	CyclesTotal         *prometheus.CounterVec
	CycleDuration       prometheus.Histogram
	CandidatesTotal     *prometheus.CounterVec // stage: extracted, accepted
	NewListingsTotal    prometheus.Counter
	NotificationsTotal  *prometheus.CounterVec // status: sent, failed
	ErrorsTotal         *prometheus.CounterVec // kind: network, http_status, parse, store, notify, timeout
	FetchDuration       prometheus.Histogram
	LastSuccessfulCycle prometheus.Gauge
)

var initOnce sync.Once

// Init registers all collectors with the default registry. Safe to call more than once.
func Init() {
	initOnce.Do(register)
}

func register() {
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests served by the ops server.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of ops server HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	CyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dealwatch_cycles_total",
			Help: "Pipeline cycles run, by result.",
		},
		[]string{"result"}, // ok, degraded, cancelled
	)

	CycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dealwatch_cycle_duration_seconds",
			Help:    "Wall time of one fetch-extract-filter-reconcile cycle.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	CandidatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dealwatch_candidates_total",
			Help: "Listing candidates seen per pipeline stage.",
		},
		[]string{"stage"},
	)

	NewListingsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dealwatch_listings_new_total",
			Help: "Listings inserted into the store for the first time.",
		},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dealwatch_notifications_total",
			Help: "Alert delivery attempts, by status.",
		},
		[]string{"status"},
	)

	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dealwatch_errors_total",
			Help: "Errors downgraded to log entries, by kind.",
		},
		[]string{"kind"},
	)

	FetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dealwatch_fetch_duration_seconds",
			Help:    "Duration of search page fetches.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
	)

	LastSuccessfulCycle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dealwatch_last_successful_cycle_timestamp_seconds",
			Help: "Unix time of the last cycle that completed without errors.",
		},
	)
}
