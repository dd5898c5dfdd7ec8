package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/strrl/postwatch/internal/aggregator"
)

const namespace = "postwatch"

// Collector owns the compliance and HTTP metrics on a private registry.
type Collector struct {
	registry *prometheus.Registry

	complianceScore *prometheus.GaugeVec
	issues          *prometheus.GaugeVec
	records         *prometheus.GaugeVec
	degraded        *prometheus.GaugeVec
	averageScore    prometheus.Gauge
	fetchFailures   *prometheus.CounterVec
	reportDuration  prometheus.Histogram

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	buildInfo *prometheus.GaugeVec
}

func New(version, commit string) *Collector {
	c := &Collector{registry: prometheus.NewRegistry()}

	c.complianceScore = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "compliance_score",
		Help:      "Compliance score of the last report per actor",
	}, []string{"actor"})

	c.issues = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "issues",
		Help:      "Issues detected in the last report per actor",
	}, []string{"actor"})

	c.records = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "records",
		Help:      "Records inside the analysis window per actor",
	}, []string{"actor"})

	c.degraded = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "degraded",
		Help:      "1 when the actor's records could not be fetched for the last report",
	}, []string{"actor"})

	c.averageScore = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "average_compliance",
		Help:      "Unweighted mean compliance score of the last report",
	})

	c.fetchFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fetch_failures_total",
		Help:      "Failed record fetches per actor",
	}, []string{"actor"})

	c.reportDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "report_duration_seconds",
		Help:      "Time to generate a compliance report",
		Buckets:   prometheus.DefBuckets,
	})

	c.httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests",
	}, []string{"method", "endpoint", "status"})

	c.httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "endpoint"})

	c.buildInfo = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "build_info",
		Help:      "Build information",
	}, []string{"version", "commit"})

	c.registry.MustRegister(
		c.complianceScore,
		c.issues,
		c.records,
		c.degraded,
		c.averageScore,
		c.fetchFailures,
		c.reportDuration,
		c.httpRequestsTotal,
		c.httpRequestDuration,
		c.buildInfo,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	c.buildInfo.WithLabelValues(version, commit).Set(1)

	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveReport publishes per-actor gauges for report. Degraded actors also
// count as fetch failures.
func (c *Collector) ObserveReport(report *aggregator.Report, took time.Duration) {
	c.reportDuration.Observe(took.Seconds())
	c.averageScore.Set(report.Summary.AverageCompliance)

	for key, a := range report.PerActor {
		c.complianceScore.WithLabelValues(key).Set(a.ComplianceScore)
		c.issues.WithLabelValues(key).Set(float64(len(a.Issues)))
		c.records.WithLabelValues(key).Set(float64(a.RecordsFound))
		if a.Degraded {
			c.degraded.WithLabelValues(key).Set(1)
			c.fetchFailures.WithLabelValues(key).Inc()
		} else {
			c.degraded.WithLabelValues(key).Set(0)
		}
	}
}

// FetchFailed counts a collection failure for actor.
func (c *Collector) FetchFailed(actor string) {
	c.fetchFailures.WithLabelValues(actor).Inc()
}

// Middleware records request counts and latency per route.
func (c *Collector) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		ctx.Next()

		endpoint := ctx.FullPath()
		if endpoint == "" {
			endpoint = "unknown"
		}
		method := ctx.Request.Method
		status := strconv.Itoa(ctx.Writer.Status())

		c.httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
		c.httpRequestDuration.WithLabelValues(method, endpoint).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the private registry in the Prometheus text format.
func (c *Collector) Handler() gin.HandlerFunc {
	handler := promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
	return func(ctx *gin.Context) {
		handler.ServeHTTP(ctx.Writer, ctx.Request)
	}
}
