package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	requestsTotal         *prometheus.CounterVec
	latencySeconds        *prometheus.HistogramVec
	errorsTotal           *prometheus.CounterVec
	registrationsTotal    *prometheus.CounterVec
	resultsProcessedTotal *prometheus.CounterVec
	driveTransitionsTotal *prometheus.CounterVec
	eventsPublishedTotal  *prometheus.CounterVec
	sseClientsActive      prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors used by the placement API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "placement_requests_total",
			Help: "Total number of placement API requests served.",
		}, []string{"method", "route", "status"})

		latencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "placement_latency_seconds",
			Help:    "Latency distribution for placement API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		errorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "placement_errors_total",
			Help: "Total number of error responses returned by placement endpoints.",
		}, []string{"method", "route", "status"})

		registrationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "placement_registrations_total",
			Help: "Drive registrations and withdrawals processed.",
		}, []string{"action"})

		resultsProcessedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "placement_results_processed_total",
			Help: "Result records written, by operation.",
		}, []string{"operation"})

		driveTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "placement_drive_transitions_total",
			Help: "Drive lifecycle transitions applied.",
		}, []string{"from", "to"})

		eventsPublishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "placement_events_published_total",
			Help: "Placement events published, by type.",
		}, []string{"type"})

		sseClientsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "placement_sse_clients_active",
			Help: "Currently connected SSE event subscribers.",
		})

		prometheus.MustRegister(
			requestsTotal, latencySeconds, errorsTotal,
			registrationsTotal, resultsProcessedTotal, driveTransitionsTotal,
			eventsPublishedTotal, sseClientsActive,
		)
	})
}

// Requests exposes the counter for API requests.
func Requests() *prometheus.CounterVec {
	RegisterMetrics()
	return requestsTotal
}

// Latency exposes the latency histogram for API requests.
func Latency() *prometheus.HistogramVec {
	RegisterMetrics()
	return latencySeconds
}

// Errors exposes the counter for error responses.
func Errors() *prometheus.CounterVec {
	RegisterMetrics()
	return errorsTotal
}

// RegistrationsTotal exposes the registration counter.
func RegistrationsTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return registrationsTotal
}

// ResultsProcessedTotal exposes the result processing counter.
func ResultsProcessedTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return resultsProcessedTotal
}

// DriveTransitionsTotal exposes the lifecycle transition counter.
func DriveTransitionsTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return driveTransitionsTotal
}

// EventsPublishedTotal exposes the placement event counter.
func EventsPublishedTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return eventsPublishedTotal
}

// SSEClientsActive exposes the live SSE subscriber gauge.
func SSEClientsActive() prometheus.Gauge {
	RegisterMetrics()
	return sseClientsActive
}
