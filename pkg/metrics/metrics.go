// Package metrics exposes Prometheus collectors for block application
// throughput, matching activity, and maintenance pass counters.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the application-specific Prometheus collectors.
var Registry = prometheus.NewRegistry()

var (
	blocksApplied = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ledgerchain",
		Subsystem: "block",
		Name:      "applied_total",
		Help:      "Total number of blocks applied to the state machine.",
	})

	blockApplyDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "ledgerchain",
		Subsystem: "block",
		Name:      "apply_duration_seconds",
		Help:      "Wall-clock duration of a single block's apply pass.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
	})

	operationsApplied = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledgerchain",
		Subsystem: "operation",
		Name:      "applied_total",
		Help:      "Total number of operations dispatched, by discriminator and outcome.",
	}, []string{"op", "outcome"})

	ordersFilled = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ledgerchain",
		Subsystem: "matching",
		Name:      "fills_total",
		Help:      "Total number of order fills (limit, call, or settle) emitted.",
	})

	blackSwans = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledgerchain",
		Subsystem: "matching",
		Name:      "black_swans_total",
		Help:      "Total number of global-settlement events, by asset.",
	}, []string{"asset"})

	maintenancePasses = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledgerchain",
		Subsystem: "scheduler",
		Name:      "passes_total",
		Help:      "Total number of Maintenance Scheduler passes run, by pass name.",
	}, []string{"pass"})
)

func init() {
	Registry.MustRegister(
		blocksApplied,
		blockApplyDuration,
		operationsApplied,
		ordersFilled,
		blackSwans,
		maintenancePasses,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// RecordBlockApplied records a single block's apply duration.
func RecordBlockApplied(d time.Duration) {
	blocksApplied.Inc()
	blockApplyDuration.Observe(d.Seconds())
}

// RecordOperation records one dispatched operation's discriminator and
// outcome ("ok" or "error").
func RecordOperation(op string, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	operationsApplied.WithLabelValues(op, outcome).Inc()
}

// RecordFill increments the matching-engine fill counter.
func RecordFill() {
	ordersFilled.Inc()
}

// RecordBlackSwan increments the black-swan counter for an asset symbol.
func RecordBlackSwan(asset string) {
	blackSwans.WithLabelValues(asset).Inc()
}

// RecordMaintenancePass increments the counter for a named scheduler pass.
func RecordMaintenancePass(pass string) {
	maintenancePasses.WithLabelValues(pass).Inc()
}

// Handler returns the http.Handler serving the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
