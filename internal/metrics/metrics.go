// Package metrics bundles Prometheus collectors for the watch loop.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the watcher's Prometheus collectors on a dedicated registry.
type Metrics struct {
	Registry           *prometheus.Registry
	ChecksTotal        prometheus.Counter
	DetectionsTotal    prometheus.Counter
	CheckErrorsTotal   *prometheus.CounterVec
	AlertFailuresTotal *prometheus.CounterVec
	CheckDuration      prometheus.Histogram
}

// New constructs and registers all collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	checks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rdvwatch_checks_total",
		Help: "Total page checks performed by the watch loop.",
	})
	detections := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rdvwatch_detections_total",
		Help: "Total checks that detected availability.",
	})
	checkErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rdvwatch_check_errors_total",
		Help: "Total recoverable check failures by stage.",
	}, []string{"stage"})
	alertFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rdvwatch_alert_failures_total",
		Help: "Total alert step failures by step name.",
	}, []string{"step"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "rdvwatch_check_duration_seconds",
		Help:    "Duration of a full reload-and-classify check.",
		Buckets: prometheus.DefBuckets,
	})

	registry.MustRegister(checks, detections, checkErrors, alertFailures, duration)

	return &Metrics{
		Registry:           registry,
		ChecksTotal:        checks,
		DetectionsTotal:    detections,
		CheckErrorsTotal:   checkErrors,
		AlertFailuresTotal: alertFailures,
		CheckDuration:      duration,
	}
}

// IncCheck increments the checks counter.
func (m *Metrics) IncCheck() {
	if m == nil {
		return
	}
	m.ChecksTotal.Inc()
}

// IncDetection increments the detections counter.
func (m *Metrics) IncDetection() {
	if m == nil {
		return
	}
	m.DetectionsTotal.Inc()
}

// IncCheckError increments the check error counter for a stage label.
func (m *Metrics) IncCheckError(stage string) {
	if m == nil {
		return
	}
	m.CheckErrorsTotal.WithLabelValues(stage).Inc()
}

// IncAlertFailure increments the alert failure counter for a step label.
func (m *Metrics) IncAlertFailure(step string) {
	if m == nil {
		return
	}
	m.AlertFailuresTotal.WithLabelValues(step).Inc()
}

// ObserveCheck records the duration of one check.
func (m *Metrics) ObserveCheck(d time.Duration) {
	if m == nil {
		return
	}
	m.CheckDuration.Observe(d.Seconds())
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
