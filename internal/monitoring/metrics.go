package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the service
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	analyticsComputations *prometheus.CounterVec
	analyticsDuration     *prometheus.HistogramVec
	cacheHits             *prometheus.CounterVec
	navPointsIngested     prometheus.Counter
}

// NewMetrics registers the service collectors on a fresh registry
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, path and status",
		}, []string{"method", "path", "status"}),

		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),

		analyticsComputations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "analytics_computations_total",
			Help: "Analytics computations by type and outcome",
		}, []string{"type", "outcome"}),

		analyticsDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "analytics_computation_duration_seconds",
			Help:    "Analytics computation latency by type",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"type"}),

		cacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_requests_total",
			Help: "Cache lookups by result",
		}, []string{"result"}),

		navPointsIngested: factory.NewCounter(prometheus.CounterOpts{
			Name: "nav_points_ingested_total",
			Help: "NAV observations written to storage",
		}),
	}
}

// Handler serves the metrics endpoint
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// Middleware records per-request counters and latency
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		m.httpRequests.WithLabelValues(
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
		).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, path).
			Observe(time.Since(start).Seconds())
	}
}

// ObserveComputation records one analytics computation
func (m *Metrics) ObserveComputation(computationType string, duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.analyticsComputations.WithLabelValues(computationType, outcome).Inc()
	m.analyticsDuration.WithLabelValues(computationType).Observe(duration.Seconds())
}

// ObserveCache records a cache lookup result
func (m *Metrics) ObserveCache(hit bool) {
	if hit {
		m.cacheHits.WithLabelValues("hit").Inc()
		return
	}
	m.cacheHits.WithLabelValues("miss").Inc()
}

// AddNAVPointsIngested counts persisted NAV observations
func (m *Metrics) AddNAVPointsIngested(n int64) {
	if n > 0 {
		m.navPointsIngested.Add(float64(n))
	}
}
