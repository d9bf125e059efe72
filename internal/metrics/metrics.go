// Package metrics exposes Prometheus collectors for the librarian service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	servicesFetchedTotal       *prometheus.CounterVec
	fetchFailuresTotal         *prometheus.CounterVec
	datasetsProjectedTotal     prometheus.Counter
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		servicesFetchedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "librarian_services_fetched_total",
				Help: "Total number of MapServer documents fetched, labeled by folder.",
			},
			[]string{"folder"},
		)

		fetchFailuresTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "librarian_fetch_failures_total",
				Help: "Total number of crawl fetch failures, labeled by stage.",
			},
			[]string{"stage"},
		)

		datasetsProjectedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "librarian_datasets_projected_total",
				Help: "Total number of datasets projected into the catalog.",
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "librarian_http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "librarian_http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method.",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
			},
			[]string{"method"},
		)
	})
}

// ObserveServiceFetched increments the per-folder fetched counter.
func ObserveServiceFetched(folder string) {
	if servicesFetchedTotal != nil {
		servicesFetchedTotal.WithLabelValues(folder).Inc()
	}
}

// ObserveFetchFailure increments the failure counter for a crawl stage.
func ObserveFetchFailure(stage string) {
	if fetchFailuresTotal != nil {
		fetchFailuresTotal.WithLabelValues(stage).Inc()
	}
}

// ObserveDatasetProjected increments the projection counter.
func ObserveDatasetProjected() {
	if datasetsProjectedTotal != nil {
		datasetsProjectedTotal.Inc()
	}
}

// statusRecorder captures the response code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware instruments HTTP handlers with request counts and latencies.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		if httpRequestsTotal != nil {
			httpRequestsTotal.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Inc()
		}
		if httpRequestDurationSeconds != nil {
			httpRequestDurationSeconds.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
		}
	})
}
