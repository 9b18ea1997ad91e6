package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zombor/receipt-extractor/internal/extraction"
)

// Metrics collects extraction, scan and HTTP metrics on a private registry.
// All methods are safe to call on a nil *Metrics.
type Metrics struct {
	registry *prometheus.Registry

	fieldsTotal     *prometheus.CounterVec
	scanTotal       *prometheus.CounterVec
	scanDuration    *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New creates Metrics on a private registry
func New() *Metrics {
	registry := prometheus.NewRegistry()

	fieldsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "receipts",
			Subsystem: "extraction",
			Name:      "fields_total",
			Help:      "Extracted fields by field and resolution status.",
		},
		[]string{"field", "status"},
	)
	scanTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "receipts",
			Subsystem: "scan",
			Name:      "total",
			Help:      "Receipt scans by OCR backend and status.",
		},
		[]string{"backend", "status"},
	)
	scanDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "receipts",
			Subsystem: "scan",
			Name:      "duration_seconds",
			Help:      "Receipt scan duration in seconds, OCR included.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"backend"},
	)
	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "receipts",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status code.",
		},
		[]string{"method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "receipts",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	registry.MustRegister(fieldsTotal, scanTotal, scanDuration, requestTotal, requestDuration)

	return &Metrics{
		registry:        registry,
		fieldsTotal:     fieldsTotal,
		scanTotal:       scanTotal,
		scanDuration:    scanDuration,
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveExtraction counts each field of r as resolved or unresolved
func (m *Metrics) ObserveExtraction(r extraction.Result) {
	if m == nil {
		return
	}
	m.fieldsTotal.WithLabelValues("merchant", status(r.MerchantResolved())).Inc()
	m.fieldsTotal.WithLabelValues("total", status(r.TotalResolved)).Inc()
	m.fieldsTotal.WithLabelValues("date", status(r.DateResolved())).Inc()
}

// ObserveScan records one scan through the given backend
func (m *Metrics) ObserveScan(backend string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	m.scanTotal.WithLabelValues(backend, result).Inc()
	m.scanDuration.WithLabelValues(backend).Observe(duration.Seconds())
}

// ObserveRequest records one HTTP request. path should be the route pattern, not the raw URL.
func (m *Metrics) ObserveRequest(method, path string, code int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestTotal.WithLabelValues(method, path, strconv.Itoa(code)).Inc()
	m.requestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func status(resolved bool) string {
	if resolved {
		return "resolved"
	}
	return "unresolved"
}
