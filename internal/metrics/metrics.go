// Package metrics exposes Prometheus metrics for the HTTP API and the job
// pipeline.
//
// Metrics:
//   - <ns>_http_request_duration_seconds{method,path,status} histogram
//   - <ns>_http_requests_inflight gauge
//   - <ns>_http_request_errors_total{method,path,status} counter (4xx/5xx)
//   - <ns>_jobs_total{status} counter (queued, completed, failed)
//   - <ns>_jobs_inflight gauge
//   - <ns>_job_duration_seconds{status} histogram
//   - <ns>_objects_generated_total counter
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns its registry so several instances can coexist in tests.
type Metrics struct {
	Registry *prometheus.Registry

	reqDuration *prometheus.HistogramVec
	reqInflight prometheus.Gauge
	reqErrors   *prometheus.CounterVec

	jobs        *prometheus.CounterVec
	jobInflight prometheus.Gauge
	jobDuration *prometheus.HistogramVec
	objects     prometheus.Counter
}

func New(namespace string) *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		reqDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"method", "path", "status"}),
		reqInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_inflight",
			Help:      "HTTP requests currently being served.",
		}),
		reqErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_request_errors_total",
			Help:      "HTTP requests that ended with a 4xx or 5xx status.",
		}, []string{"method", "path", "status"}),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_total",
			Help:      "Generation jobs by lifecycle event.",
		}, []string{"status"}),
		jobInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "jobs_inflight",
			Help:      "Generation jobs currently running.",
		}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Wall time from job start to completion or failure.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"status"}),
		objects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "objects_generated_total",
			Help:      "Scattered object instances across completed jobs.",
		}),
	}
	m.Registry.MustRegister(
		m.reqDuration, m.reqInflight, m.reqErrors,
		m.jobs, m.jobInflight, m.jobDuration, m.objects,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler returns gin middleware recording request metrics.
func (m *Metrics) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.reqInflight.Inc()
		c.Next()
		m.reqInflight.Dec()

		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method

		m.reqDuration.WithLabelValues(method, path, status).Observe(time.Since(start).Seconds())
		if c.Writer.Status() >= 400 {
			m.reqErrors.WithLabelValues(method, path, status).Inc()
		}
	}
}

// RegisterEndpoint adds GET /metrics to r.
func (m *Metrics) RegisterEndpoint(r gin.IRoutes) {
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
}

func (m *Metrics) JobQueued() {
	m.jobs.WithLabelValues("queued").Inc()
}

func (m *Metrics) JobStarted() {
	m.jobInflight.Inc()
}

// JobFinished records a terminal job. objects is only counted on success.
func (m *Metrics) JobFinished(status string, d time.Duration, objects int) {
	m.jobInflight.Dec()
	m.jobs.WithLabelValues(status).Inc()
	m.jobDuration.WithLabelValues(status).Observe(d.Seconds())
	if status == "completed" {
		m.objects.Add(float64(objects))
	}
}
