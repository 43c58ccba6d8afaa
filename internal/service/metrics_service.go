package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the placement
// workflows.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	selectionRejections *prometheus.CounterVec
	selectionConfirmed  prometheus.Counter
	applicationDecided  *prometheus.CounterVec
	assignmentsCreated  prometheus.Counter
	assignmentsSkipped  prometheus.Counter
	assignmentsFailed   prometheus.Counter
}

// NewMetricsService registers the core collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	selectionRejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "selection_rejections_total",
		Help: "School selection attempts rejected, by reason",
	}, []string{"reason"})

	selectionConfirmed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "selection_confirmed_total",
		Help: "School selections confirmed onto student profiles",
	})

	applicationDecided := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "applications_decided_total",
		Help: "Subject applications decided, by outcome",
	}, []string{"outcome"})

	assignmentsCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "assessor_assignments_created_total",
		Help: "Assessor to school assignments created",
	})

	assignmentsSkipped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "assessor_assignments_skipped_total",
		Help: "Assessor assignments skipped as already existing",
	})

	assignmentsFailed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "assessor_assignments_failed_total",
		Help: "Assessor assignments that failed",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, selectionRejections,
		selectionConfirmed, applicationDecided, assignmentsCreated,
		assignmentsSkipped, assignmentsFailed, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:            registry,
		handler:             handler,
		requestDuration:     requestDuration,
		requestTotal:        requestTotal,
		selectionRejections: selectionRejections,
		selectionConfirmed:  selectionConfirmed,
		applicationDecided:  applicationDecided,
		assignmentsCreated:  assignmentsCreated,
		assignmentsSkipped:  assignmentsSkipped,
		assignmentsFailed:   assignmentsFailed,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// SelectionRejected counts one rejected selection attempt.
func (m *MetricsService) SelectionRejected(reason string) {
	if m == nil {
		return
	}
	m.selectionRejections.WithLabelValues(reason).Inc()
}

// SelectionConfirmed counts one confirmed selection.
func (m *MetricsService) SelectionConfirmed() {
	if m == nil {
		return
	}
	m.selectionConfirmed.Inc()
}

// ApplicationDecided counts one application decision.
func (m *MetricsService) ApplicationDecided(outcome string) {
	if m == nil {
		return
	}
	m.applicationDecided.WithLabelValues(outcome).Inc()
}

// AssignmentOutcome counts one assessor assignment result.
func (m *MetricsService) AssignmentOutcome(created, skipped bool) {
	if m == nil {
		return
	}
	switch {
	case created:
		m.assignmentsCreated.Inc()
	case skipped:
		m.assignmentsSkipped.Inc()
	default:
		m.assignmentsFailed.Inc()
	}
}
