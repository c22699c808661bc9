package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP layer
// and the timetable generator.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	generatorRuns        prometheus.Counter
	generatorDuration    prometheus.Histogram
	lessonsCreated       prometheus.Counter
	requirementsUnmet    prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
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

	generatorRuns := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_generator_runs_total",
		Help: "Total timetable generator invocations",
	})

	generatorDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_generator_run_seconds",
		Help:    "Wall time of timetable generator runs",
		Buckets: prometheus.DefBuckets,
	})

	lessonsCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_lessons_created_total",
		Help: "Lessons created by the generator",
	})

	requirementsUnmet := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_requirements_unfulfilled_total",
		Help: "Requirements the generator could not fully place",
	})

	registry.MustRegister(requestDuration, requestTotal, generatorRuns, generatorDuration, lessonsCreated, requirementsUnmet)

	return &MetricsService{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:   requestDuration,
		requestTotal:      requestTotal,
		generatorRuns:     generatorRuns,
		generatorDuration: generatorDuration,
		lessonsCreated:    lessonsCreated,
		requirementsUnmet: requirementsUnmet,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveHTTPRequest records one served request.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	labels := prometheus.Labels{"method": method, "path": path, "status": strconv.Itoa(status)}
	s.requestDuration.With(labels).Observe(duration.Seconds())
	s.requestTotal.With(labels).Inc()
}

// ObserveGenerationRun records the outcome of one generator run.
func (s *MetricsService) ObserveGenerationRun(lessonsCreated, unfulfilled int, duration time.Duration) {
	s.generatorRuns.Inc()
	s.generatorDuration.Observe(duration.Seconds())
	s.lessonsCreated.Add(float64(lessonsCreated))
	s.requirementsUnmet.Add(float64(unfulfilled))
}
