// Package metrics holds the Prometheus collectors of the ledger server.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "minerledger"

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	// StoreWriteConflicts counts optimistic-write conflicts that forced a
	// store to retry an atomic update.
	StoreWriteConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "write_conflicts_total",
			Help:      "Number of atomic updates retried after a concurrent write.",
		},
	)

	ledgerOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "operations_total",
			Help:      "Ledger operations by name and outcome kind.",
		},
		[]string{"op", "result"},
	)

	ledgerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "operation_duration_seconds",
			Help:      "Duration of ledger operations.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"op"},
	)

	sweepRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reset",
			Name:      "records_total",
			Help:      "Records visited by reset sweeps, by outcome.",
		},
		[]string{"outcome"},
	)

	sweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "reset",
			Name:      "sweep_duration_seconds",
			Help:      "Duration of reset sweeps.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		},
	)

	lastSweep = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "reset",
			Name:      "last_sweep_timestamp_seconds",
			Help:      "Unix time of the last completed reset sweep.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"method", "route"},
	)
)

func init() {
	Registry.MustRegister(
		StoreWriteConflicts,
		ledgerOperations,
		ledgerDuration,
		sweepRecords,
		sweepDuration,
		lastSweep,
		httpRequests,
		httpDuration,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordOperation records one ledger operation. result is an error kind, or
// "ok" on success.
func RecordOperation(op, result string, duration time.Duration) {
	if result == "" {
		result = "ok"
	}
	ledgerOperations.WithLabelValues(op, result).Inc()
	ledgerDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordSweep records the outcome counts of a finished reset sweep.
func RecordSweep(reset, skipped, failed int, duration time.Duration, finishedAt time.Time) {
	sweepRecords.WithLabelValues("reset").Add(float64(reset))
	sweepRecords.WithLabelValues("skipped").Add(float64(skipped))
	sweepRecords.WithLabelValues("failed").Add(float64(failed))
	sweepDuration.Observe(duration.Seconds())
	lastSweep.Set(float64(finishedAt.Unix()))
}

// InstrumentHandler wraps next with request counting. Requests are labelled
// with the matched mux route template, so per-user paths share one series.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		route := routeTemplate(r)
		method := strings.ToUpper(r.Method)
		httpRequests.WithLabelValues(method, route, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}
