// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portfolio_http_requests_total",
		Help: "HTTP requests by route, method and status code.",
	}, []string{"route", "method", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "portfolio_http_request_duration_seconds",
		Help:    "HTTP request latency by route and method.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	PostsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portfolio_posts_created_total",
		Help: "Blog posts persisted.",
	})

	ImageUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portfolio_image_uploads_total",
		Help: "Cover image uploads by outcome (ok, failed).",
	}, []string{"outcome"})

	OrphanedUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portfolio_orphaned_uploads_total",
		Help: "Uploads left without a post because the insert failed, by cleanup outcome (discarded, leaked).",
	}, []string{"outcome"})
)
