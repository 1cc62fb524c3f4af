package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

var (
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	PagesTotal          *prometheus.CounterVec
	CardsTotal          *prometheus.CounterVec
	RowsUpsertedTotal   prometheus.Counter
	UpsertDuration      prometheus.Histogram
	PageDuration        *prometheus.HistogramVec
)

var initOnce sync.Once

// Init registers the collectors with the default registry. Later calls are no-ops.
func Init() {
	initOnce.Do(register)
}

func register() {
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	PagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_pages_total",
			Help: "Results pages visited, by outcome.",
		},
		[]string{"outcome"}, // scraped, timeout, failed
	)

	CardsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_cards_total",
			Help: "Card elements seen on results pages, by result.",
		},
		[]string{"result"}, // accepted, discarded
	)

	RowsUpsertedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_rows_upserted_total",
			Help: "Rows sent to the card store.",
		},
	)

	UpsertDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scraper_upsert_duration_seconds",
			Help:    "Duration of a page's upsert call.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	PageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scraper_page_duration_seconds",
			Help:    "Time spent on one results page.",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"outcome"},
	)
}

// Push sends every registered metric to a Prometheus Pushgateway under job.
func Push(gatewayURL, job string) error {
	return push.New(gatewayURL, job).Gatherer(prometheus.DefaultGatherer).Push()
}
