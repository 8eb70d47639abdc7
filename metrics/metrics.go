// Package metrics bundles the Prometheus collectors shared across one run.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics carries the collectors on a dedicated registry, so tests can run
// several instances side by side.
type Metrics struct {
	Registry           *prometheus.Registry
	RequestsTotal      *prometheus.CounterVec
	RequestDuration    prometheus.Histogram
	RecordsTotal       prometheus.Counter
	ImagesSavedTotal   prometheus.Counter
	ErrorsTotal        *prometheus.CounterVec
	FieldFailuresTotal *prometheus.CounterVec
}

// New constructs and registers all metrics on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "etl_requests_total",
			Help: "Total HTTP requests issued by the crawl.",
		},
		[]string{"phase"},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "etl_request_duration_seconds",
			Help:    "HTTP request latency for crawl requests.",
			Buckets: prometheus.DefBuckets,
		},
	)
	records := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "etl_records_total",
			Help: "Total product records written to output tables.",
		},
	)
	imagesSaved := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "etl_images_saved_total",
			Help: "Total images downloaded and validated.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "etl_errors_total",
			Help: "Total fetch errors by type.",
		},
		[]string{"error_type"},
	)
	fieldFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "etl_field_failures_total",
			Help: "Total extraction failures by record field.",
		},
		[]string{"field"},
	)

	registry.MustRegister(requests, requestDuration, records, imagesSaved, errorsTotal, fieldFailures)

	return &Metrics{
		Registry:           registry,
		RequestsTotal:      requests,
		RequestDuration:    requestDuration,
		RecordsTotal:       records,
		ImagesSavedTotal:   imagesSaved,
		ErrorsTotal:        errorsTotal,
		FieldFailuresTotal: fieldFailures,
	}
}

// IncRequest increments the requests counter for a phase.
func (m *Metrics) IncRequest(phase string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(phase).Inc()
}

// ObserveDuration records an HTTP request duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}

// IncRecord increments the written-records counter.
func (m *Metrics) IncRecord() {
	if m == nil {
		return
	}
	m.RecordsTotal.Inc()
}

// IncImageSaved increments the validated-images counter.
func (m *Metrics) IncImageSaved() {
	if m == nil {
		return
	}
	m.ImagesSavedTotal.Inc()
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

// IncFieldFailure increments the extraction-failures counter for a field.
func (m *Metrics) IncFieldFailure(field string) {
	if m == nil {
		return
	}
	m.FieldFailuresTotal.WithLabelValues(field).Inc()
}
