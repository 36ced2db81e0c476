// Package metrics exposes Prometheus collectors on a dedicated registry.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry is the dedicated Prometheus registry for the service.
	Registry = prometheus.NewRegistry()

	// SectionResults counts section outcomes by section and status.
	SectionResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "wayfarer_section_results_total", Help: "Section results by section and status."},
		[]string{"section", "status"},
	)
	// ProviderAttempts counts provider calls by provider and outcome.
	ProviderAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "wayfarer_provider_attempts_total", Help: "Provider attempts by provider and outcome."},
		[]string{"provider", "outcome"},
	)
	// CacheLookups counts cache lookups by namespace and result (hit, miss, error).
	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "wayfarer_cache_lookups_total", Help: "Cache lookups by namespace and result."},
		[]string{"namespace", "result"},
	)
	// GenerationDuration records end-to-end generation time by outcome.
	GenerationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "wayfarer_generation_duration_seconds", Help: "Guide generation duration in seconds.", Buckets: []float64{1, 2, 5, 10, 20, 30, 45, 60, 90}},
		[]string{"outcome"},
	)
	// HTTPRequests counts requests by method, route, and status.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "wayfarer_http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "route", "status"},
	)
	// HTTPDuration records request durations in seconds.
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "wayfarer_http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "route", "status"},
	)
)

var regOnce sync.Once

// RegisterDefault registers every collector on Registry. It is safe to call more than once.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(SectionResults)
		Registry.MustRegister(ProviderAttempts)
		Registry.MustRegister(CacheLookups)
		Registry.MustRegister(GenerationDuration)
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

// Handler serves Registry in the Prometheus exposition format.
func Handler() http.Handler {
	RegisterDefault()
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Recorder feeds the collectors. The zero value is ready to use.
type Recorder struct{}

// ObserveAttempt records one provider attempt.
func (Recorder) ObserveAttempt(provider, outcome string) {
	ProviderAttempts.WithLabelValues(provider, outcome).Inc()
}

// ObserveSection records how a section resolved.
func (Recorder) ObserveSection(section, status string) {
	SectionResults.WithLabelValues(section, status).Inc()
}

// ObserveCacheLookup records a cache lookup.
func (Recorder) ObserveCacheLookup(namespace, result string) {
	CacheLookups.WithLabelValues(namespace, result).Inc()
}

// ObserveGeneration records a finished generation run.
func (Recorder) ObserveGeneration(outcome string, d time.Duration) {
	GenerationDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush lets streaming handlers flush through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Middleware records request count and latency labelled by the matched route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(rec.status)
		HTTPRequests.WithLabelValues(r.Method, route, status).Inc()
		HTTPDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
	})
}
