package httpapi

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	mcRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mailcheck_requests_total",
		Help: "Total HTTP requests by method, path, and response status.",
	}, []string{"method", "path", "status"})

	mcRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mailcheck_request_duration_seconds",
		Help:    "Request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	mcChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mailcheck_checks_total",
		Help: "Total address checks by verdict status.",
	}, []string{"status"})

	mcJobsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mailcheck_jobs_total",
		Help: "Total batch jobs created.",
	})
)

// PrometheusMiddleware returns a Gin middleware that records per-request metrics.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		mcRequestsTotal.WithLabelValues(method, path, status).Inc()
		mcRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// MetricsHandler returns a Gin handler that serves Prometheus metrics.
func MetricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RecordCheck records a completed address check by verdict status.
func RecordCheck(status string) {
	mcChecksTotal.WithLabelValues(status).Inc()
}

// RecordJobCreated records a batch job creation.
func RecordJobCreated() {
	mcJobsTotal.Inc()
}
