// Package metrics defines and registers all custom Prometheus metrics for the
// workout tracker. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default registry at package init through
// promauto; HTTP request metrics come from echoprometheus in the router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "workouts"

// ── Workout metrics ───────────────────────────────────────────────────────────

// WorkoutMutationsTotal counts successful workout mutations.
// Label:
//   - op: "created", "updated" or "deleted"
var WorkoutMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mutations_total",
		Help:      "Total number of successful workout mutations, by operation.",
	},
	[]string{"op"},
)

// WorkoutSearchesTotal counts list/search requests.
// Labels:
//   - scope: "mine" or "public"
//   - text:  "true" when a free-text query was given
var WorkoutSearchesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "searches_total",
		Help:      "Total number of workout list and search requests.",
	},
	[]string{"scope", "text"},
)

// IdempotentReplaysTotal counts creates answered from an earlier attempt.
var IdempotentReplaysTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "idempotent_replays_total",
		Help:      "Total number of workout creates replayed from an idempotency key.",
	},
)

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Labels:
//   - method: "local" or the federation provider (e.g. "github")
//   - result: "success" or "failure"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by method and result.",
	},
	[]string{"method", "result"},
)

// ── Event feed metrics ────────────────────────────────────────────────────────

// EventsPersistedTotal counts change events written to the audit collection.
// Label:
//   - type: the event type ("created", "updated", "deleted")
var EventsPersistedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_persisted_total",
		Help:      "Total number of workout change events persisted.",
	},
	[]string{"type"},
)

// EventsDroppedTotal counts events discarded because a shard queue was full.
var EventsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_dropped_total",
		Help:      "Total number of workout change events dropped on a full queue.",
	},
)

// EventsErrorsTotal counts events that failed to persist.
var EventsErrorsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_errors_total",
		Help:      "Total number of workout change events that failed to persist.",
	},
)

// EventsQueueDepth tracks the current number of events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var EventsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "events_queue_depth",
		Help:      "Current number of events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
