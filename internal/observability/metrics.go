package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace is the metric namespace used when none is given.
const DefaultNamespace = "meshrouter"

// Metrics holds all Prometheus metrics for the mesh router.
//
// All recording methods are safe to call on a nil *Metrics, which lets
// components treat metrics as optional.
type Metrics struct {
	routeEvaluations *prometheus.CounterVec
	resolverLookups  *prometheus.CounterVec
	resolverDuration *prometheus.HistogramVec
	breakerChanges   *prometheus.CounterVec
	breakerRejects   prometheus.Counter
	rulesLoaded      prometheus.Gauge
	configReloads    *prometheus.CounterVec
	buildInfo        *prometheus.GaugeVec
	registry         *prometheus.Registry
}

// NewMetrics creates a new Metrics instance backed by its own registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}

	m.routeEvaluations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "router",
			Name:      "evaluations_total",
			Help:      "Total number of routing evaluations by outcome",
		},
		[]string{"router", "outcome"},
	)

	m.resolverLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolver",
			Name:      "lookups_total",
			Help:      "Total number of mesh address lookups by result",
		},
		[]string{"resolver", "result"},
	)

	m.resolverDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "resolver",
			Name:      "lookup_duration_seconds",
			Help:      "Mesh address lookup duration in seconds",
			Buckets: []float64{
				.0005, .001, .005, .01, .025, .05,
				.1, .25, .5, 1, 2.5, 5,
			},
		},
		[]string{"resolver"},
	)

	m.breakerChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolver",
			Name:      "breaker_state_changes_total",
			Help:      "Total number of lookup breaker state changes",
		},
		[]string{"from", "to"},
	)

	m.breakerRejects = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolver",
			Name:      "breaker_rejections_total",
			Help:      "Total number of lookups skipped by an open breaker",
		},
	)

	m.rulesLoaded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rules_loaded",
			Help:      "Number of routing rules currently installed",
		},
	)

	m.configReloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "config_reloads_total",
			Help:      "Total number of configuration reloads by result",
		},
		[]string{"result"},
	)

	m.buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_info",
			Help:      "Build information",
		},
		[]string{"version", "commit"},
	)

	m.registerCollectors()

	return m
}

// registerCollectors registers all metric collectors with the registry.
func (m *Metrics) registerCollectors() {
	m.registry.MustRegister(
		m.routeEvaluations,
		m.resolverLookups,
		m.resolverDuration,
		m.breakerChanges,
		m.breakerRejects,
		m.rulesLoaded,
		m.configReloads,
		m.buildInfo,
	)
	m.registry.MustRegister(collectors.NewGoCollector())
	m.registry.MustRegister(
		collectors.NewProcessCollector(
			collectors.ProcessCollectorOpts{},
		),
	)
}

// RecordRouteEvaluation counts one routing evaluation.
func (m *Metrics) RecordRouteEvaluation(router, outcome string) {
	if m == nil {
		return
	}
	m.routeEvaluations.WithLabelValues(router, outcome).Inc()
}

// RecordLookup counts one resolver lookup and observes its duration.
func (m *Metrics) RecordLookup(resolver string, ok bool, duration time.Duration) {
	if m == nil {
		return
	}
	result := "success"
	if !ok {
		result = "failure"
	}
	m.resolverLookups.WithLabelValues(resolver, result).Inc()
	m.resolverDuration.WithLabelValues(resolver).Observe(duration.Seconds())
}

// RecordBreakerStateChange counts a lookup breaker transition.
func (m *Metrics) RecordBreakerStateChange(from, to string) {
	if m == nil {
		return
	}
	m.breakerChanges.WithLabelValues(from, to).Inc()
}

// RecordBreakerRejection counts a lookup skipped by an open breaker.
func (m *Metrics) RecordBreakerRejection() {
	if m == nil {
		return
	}
	m.breakerRejects.Inc()
}

// SetRulesLoaded sets the number of installed routing rules.
func (m *Metrics) SetRulesLoaded(n int) {
	if m == nil {
		return
	}
	m.rulesLoaded.Set(float64(n))
}

// RecordConfigReload counts a configuration reload attempt.
func (m *Metrics) RecordConfigReload(ok bool) {
	if m == nil {
		return
	}
	result := "success"
	if !ok {
		result = "failure"
	}
	m.configReloads.WithLabelValues(result).Inc()
}

// SetBuildInfo publishes build information.
func (m *Metrics) SetBuildInfo(version, commit string) {
	if m == nil {
		return
	}
	m.buildInfo.WithLabelValues(version, commit).Set(1)
}

// Handler returns the HTTP handler exposing the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(
		m.registry,
		promhttp.HandlerOpts{EnableOpenMetrics: true},
	)
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
