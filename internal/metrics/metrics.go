// Package metrics exposes Prometheus instrumentation for intake jobs, the
// gRPC surface and the VIN decode cache.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/vehicle-intake/internal/intake"
	"github.com/joseph-ayodele/vehicle-intake/internal/vindecode"
)

const namespace = "vehicle_intake"

// Metrics holds every collector registered by New.
type Metrics struct {
	JobsTotal   *prometheus.CounterVec
	JobDuration *prometheus.HistogramVec
	NeedsReview *prometheus.CounterVec
	Confidence  *prometheus.HistogramVec
	RPCTotal    *prometheus.CounterVec
	RPCDuration *prometheus.HistogramVec

	reg prometheus.Registerer
}

// New registers the collectors on reg. A nil reg uses a fresh registry so
// callers never collide on the global default.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &Metrics{
		JobsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_total",
			Help:      "Intake jobs finished, by field and status.",
		}, []string{"field", "status"}),
		JobDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Wall time of one intake job.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"field"}),
		NeedsReview: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "needs_review_total",
			Help:      "Jobs flagged for manual review.",
		}, []string{"field"}),
		Confidence: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "extraction_confidence",
			Help:      "Confidence of readable extractions (1..100).",
			Buckets:   []float64{10, 25, 50, 60, 70, 80, 90, 95, 100},
		}, []string{"field"}),
		RPCTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grpc_requests_total",
			Help:      "Unary gRPC calls by method and code.",
		}, []string{"method", "code"}),
		RPCDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "grpc_request_duration_seconds",
			Help:      "Unary gRPC call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		reg: reg,
	}
}

// ObserveOutcome matches async.ResultHandler.
func (m *Metrics) ObserveOutcome(o intake.Outcome, _ error) {
	field := string(o.Field)
	m.JobsTotal.WithLabelValues(field, string(o.Status)).Inc()
	m.JobDuration.WithLabelValues(field).Observe(o.Duration.Seconds())
	if o.NeedsReview {
		m.NeedsReview.WithLabelValues(field).Inc()
	}
	if o.Result.Success {
		m.Confidence.WithLabelValues(field).Observe(float64(o.Result.Confidence))
	}
}

// UnaryInterceptor counts and times every unary call.
func (m *Metrics) UnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		m.RPCTotal.WithLabelValues(info.FullMethod, status.Code(err).String()).Inc()
		m.RPCDuration.WithLabelValues(info.FullMethod).Observe(time.Since(start).Seconds())
		return resp, err
	}
}

// RegisterCacheStats exports the decode cache counters, read on each scrape.
func (m *Metrics) RegisterCacheStats(stats func() vindecode.Stats) error {
	return m.reg.Register(&cacheCollector{stats: stats})
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

var (
	cacheEntriesDesc = prometheus.NewDesc(namespace+"_vin_cache_entries", "Entries held by the VIN decode cache.", []string{"state"}, nil)
	cacheHitsDesc    = prometheus.NewDesc(namespace+"_vin_cache_hits_total", "VIN decode cache hits.", nil, nil)
	cacheMissesDesc  = prometheus.NewDesc(namespace+"_vin_cache_misses_total", "VIN decode cache misses.", nil, nil)
)

type cacheCollector struct {
	stats func() vindecode.Stats
}

func (c *cacheCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- cacheEntriesDesc
	ch <- cacheHitsDesc
	ch <- cacheMissesDesc
}

func (c *cacheCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.stats()
	ch <- prometheus.MustNewConstMetric(cacheEntriesDesc, prometheus.GaugeValue, float64(s.Active), "active")
	ch <- prometheus.MustNewConstMetric(cacheEntriesDesc, prometheus.GaugeValue, float64(s.Expired), "expired")
	ch <- prometheus.MustNewConstMetric(cacheHitsDesc, prometheus.CounterValue, float64(s.Hits))
	ch <- prometheus.MustNewConstMetric(cacheMissesDesc, prometheus.CounterValue, float64(s.Misses))
}
