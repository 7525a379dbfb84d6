// Package metrics defines and registers all custom Prometheus metrics for the
// storefront API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default registry on package init through
// promauto; HTTP request metrics come from the echoprometheus middleware.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "shop"

// ── Cart metrics ──────────────────────────────────────────────────────────────

// CartOperationsTotal counts cart use-case invocations.
// Labels:
//   - operation: "add", "set_quantity", "remove", "clear", "get"
//   - result: "ok", "empty", "not_found", "invalid", "conflict", "error", "replay"
var CartOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_operations_total",
		Help:      "Total number of cart operations, by operation and result.",
	},
	[]string{"operation", "result"},
)

// CartWriteConflictsTotal counts optimistic-concurrency conflicts that caused
// a cart mutation to be retried.
var CartWriteConflictsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_write_conflicts_total",
		Help:      "Total number of cart writes rejected by a version conflict.",
	},
)

// CartOperationDuration measures a cart mutation end to end, including retries.
var CartOperationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "cart_operation_duration_seconds",
		Help:      "Duration of cart operations from request to persistence.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"operation"},
)

// CartQueueDepth tracks the number of mutations waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var CartQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "cart_queue_depth",
		Help:      "Current number of cart mutations pending in each worker channel.",
	},
	[]string{"worker_id"},
)

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthAttemptsTotal counts credential operations.
// Labels:
//   - operation: "register", "login", "verify", "logout"
//   - result: "ok" or "failed"
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of authentication operations, by operation and result.",
	},
	[]string{"operation", "result"},
)
