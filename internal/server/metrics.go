package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	storiesServed *prometheus.CounterVec
	catalogueSize prometheus.Gauge
}

// newMetrics registers the server collectors on reg. Each server owns its
// registry so several can live in one process.
func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		requests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stories_http_requests_total",
				Help: "Total number of HTTP requests by route and status code",
			},
			[]string{"route", "code"},
		),
		duration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stories_http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		storiesServed: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stories_served_total",
				Help: "Total number of stories returned to clients",
			},
			[]string{"route"},
		),
		catalogueSize: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "stories_catalogue_size",
				Help: "Number of stories in the served catalogue",
			},
		),
	}
}
