package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	ScrapesTotal        *prometheus.CounterVec
	ScrapeDuration      *prometheus.HistogramVec
	ResolutionsTotal    *prometheus.CounterVec
	OffersExtracted     prometheus.Counter
)

func Init() {
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

	ScrapesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scrapes_total",
			Help: "Total number of per-domain scrape attempts.",
		},
		[]string{"status"}, // status: success, failure
	)

	ScrapeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scrape_duration_seconds",
			Help:    "Duration of per-domain scrape runs.",
			Buckets: []float64{1, 5, 10, 15, 30, 60, 120},
		},
		[]string{"domain"},
	)

	ResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "code_resolutions_total",
			Help: "Total number of secondary-page code resolution attempts.",
		},
		[]string{"outcome"}, // outcome: resolved, empty, error
	)

	OffersExtracted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "offers_extracted_total",
			Help: "Total number of offer candidates extracted from listing pages.",
		},
	)
}
