// Package metrics exposes the control plane's Prometheus instrumentation:
// HTTP request metrics plus counters/histograms for dispatch, session
// lifecycle, and scheduler tick outcomes.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every collector this package registers.
var Registry = prometheus.NewRegistry()

var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "automation",
		Subsystem: "http",
		Name:      "inflight_requests",
		Help:      "Current number of in-flight HTTP requests.",
	})

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "automation",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests handled.",
	}, []string{"method", "path", "status"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "automation",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
	}, []string{"method", "path"})

	sessionTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "automation",
		Subsystem: "sessions",
		Name:      "transitions_total",
		Help:      "Total number of session status transitions.",
	}, []string{"to"})

	dispatchAssignments = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "automation",
		Subsystem: "dispatch",
		Name:      "assignments_total",
		Help:      "Total number of sessions assigned to a resource.",
	}, []string{"outcome"})

	schedulerTickDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "automation",
		Subsystem: "scheduler",
		Name:      "tick_duration_seconds",
		Help:      "Duration of a scheduler tick.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
	})

	schedulerTicks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "automation",
		Subsystem: "scheduler",
		Name:      "ticks_total",
		Help:      "Total number of scheduler ticks, by outcome.",
	}, []string{"outcome"})
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		sessionTransitions,
		dispatchAssignments,
		schedulerTickDuration,
		schedulerTicks,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}

// Handler exposes the registered collectors over HTTP for scraping.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps next with HTTP request/duration metrics.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		method := strings.ToUpper(r.Method)
		httpRequests.WithLabelValues(method, r.URL.Path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, r.URL.Path).Observe(duration.Seconds())
	})
}

// RecordSessionTransition increments the transition counter for a session
// reaching status `to`.
func RecordSessionTransition(to string) {
	sessionTransitions.WithLabelValues(to).Inc()
}

// RecordDispatchAssignment records one dispatch-pass outcome: "assigned" or
// "unassignable" (no compatible resource available).
func RecordDispatchAssignment(outcome string) {
	dispatchAssignments.WithLabelValues(outcome).Inc()
}

// RecordSchedulerTick records a completed scheduler tick's duration and
// outcome ("ok" or "error").
func RecordSchedulerTick(duration time.Duration, outcome string) {
	schedulerTickDuration.Observe(duration.Seconds())
	schedulerTicks.WithLabelValues(outcome).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}
