// Package metrics holds the service's prometheus collectors.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// MutationsTotal counts board mutations by intent kind and outcome.
	MutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "strello_mutations_total",
		Help: "Board mutations by kind and result",
	}, []string{"kind", "result"})

	// SnapshotCacheTotal counts snapshot cache lookups by result.
	SnapshotCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "strello_snapshot_cache_total",
		Help: "Snapshot cache lookups by result",
	}, []string{"result"})

	// EventSubscribers is the number of open board event streams.
	EventSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "strello_event_subscribers",
		Help: "Open board event streams",
	})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "strello_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
	}, []string{"method", "route", "status"})
)

// Mutation results.
const (
	ResultApplied   = "applied"
	ResultDuplicate = "duplicate"
	ResultStale     = "stale"
	ResultNotFound  = "not_found"
	ResultError     = "error"
)

// Middleware records the duration of every request by matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		requestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// Handler serves the default registry.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
