// Package metrics defines and registers the domain Prometheus metrics for the
// users API. Collectors register with the default registry on import; HTTP
// request metrics come from echoprometheus under the same namespace.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every collector, including the HTTP metrics recorded by
// echoprometheus.
const Namespace = "users_api"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthAttemptsTotal counts credential exchanges.
// Label:
//   - result: "success" or "failure"
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of authentication attempts, by result.",
	},
	[]string{"result"},
)

// GateRejectionsTotal counts requests refused by the bearer-token gate or the
// capability check.
// Label:
//   - reason: "expired", "invalid", "unauthenticated" or "forbidden"
var GateRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "gate_rejections_total",
		Help:      "Total number of requests rejected by authentication or authorization.",
	},
	[]string{"reason"},
)

// ── User metrics ──────────────────────────────────────────────────────────────

// UserMutationsTotal counts successful single-record writes.
// Label:
//   - operation: "create", "update" or "delete"
var UserMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "user_mutations_total",
		Help:      "Total number of user records created, updated or deleted.",
	},
	[]string{"operation"},
)

// ── Import metrics ────────────────────────────────────────────────────────────

// ImportsTotal counts finished CSV imports.
// Label:
//   - result: "committed", "replayed" or "failed"
var ImportsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "imports_total",
		Help:      "Total number of CSV imports, by outcome.",
	},
	[]string{"result"},
)

// ImportedRowsTotal counts rows committed by CSV imports.
var ImportedRowsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "imported_rows_total",
		Help:      "Total number of user rows committed by CSV imports.",
	},
)

// ImportDuration measures a CSV import from dequeue to commit or rollback.
var ImportDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "import_duration_seconds",
		Help:      "Duration of CSV imports from dequeue to commit or rollback.",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
	},
)

// ImportQueueDepth tracks imports waiting for a free worker.
var ImportQueueDepth = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "import_queue_depth",
		Help:      "Current number of CSV imports waiting for a worker.",
	},
)
