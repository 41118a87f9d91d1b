// Package metrics registers the Prometheus collectors exposed on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ingestion outcomes.
const (
	OutcomeResolved          = "resolved"
	OutcomeSelectionRequired = "selection_required"
	OutcomeFailed            = "failed"
)

// Refresh results.
const (
	RefreshFresh     = "fresh"
	RefreshRefreshed = "refreshed"
	RefreshFailed    = "failed"
)

var (
	ingestionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "castmagnet_ingestions_total",
			Help: "Magnet submissions by outcome",
		},
		[]string{"outcome"},
	)

	linkRefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "castmagnet_link_refreshes_total",
			Help: "Stream redirects by cache freshness result",
		},
		[]string{"result"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "castmagnet_http_requests_total",
			Help: "HTTP requests served",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "castmagnet_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

func ObserveIngestion(outcome string) {
	ingestionsTotal.WithLabelValues(outcome).Inc()
}

func ObserveRefresh(result string) {
	linkRefreshesTotal.WithLabelValues(result).Inc()
}

// Middleware records request counts and latency. The path label is the
// matched gin route so link ids and magnets do not blow up cardinality.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
