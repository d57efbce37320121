// Package metrics defines and registers the custom Prometheus metrics of the
// clinic client. It is the single source of truth for metric names, labels,
// and help strings.
//
// All metrics register with the default Prometheus registry at package
// init via promauto. The stub server exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "clinic"

// ── Dispatcher metrics ────────────────────────────────────────────────────────

// RequestsTotal counts requests sent by the dispatcher.
// Labels:
//   - method: HTTP method
//   - route: request path with numeric ids collapsed (e.g. "/patients/:id")
//   - outcome: HTTP status code, or the error kind when no response arrived
var RequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "client_requests_total",
		Help:      "Total number of requests sent to the clinic service.",
	},
	[]string{"method", "route", "outcome"},
)

// RequestDuration measures round-trip time of dispatcher requests.
var RequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "client_request_duration_seconds",
		Help:      "Round-trip duration of requests sent to the clinic service.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route"},
)

// ForcedLogoutsTotal counts 401 responses on protected calls.
var ForcedLogoutsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "client_forced_logouts_total",
		Help:      "Total number of forced logouts triggered by 401 responses.",
	},
)

// ── Session metrics ───────────────────────────────────────────────────────────

// SessionTransitionsTotal counts session state changes.
// Label:
//   - to: "authenticated" or "anonymous"
var SessionTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_transitions_total",
		Help:      "Total number of session state transitions, by target state.",
	},
	[]string{"to"},
)

// ── Cache metrics ─────────────────────────────────────────────────────────────

// CacheLookupsTotal counts entity cache reads.
// Labels:
//   - collection: e.g. "patients"
//   - result: "hit", "miss" (absent) or "stale"
var CacheLookupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_lookups_total",
		Help:      "Total number of entity cache lookups, labelled by result (hit/miss/stale).",
	},
	[]string{"collection", "result"},
)

// CacheInvalidationsTotal counts whole-collection invalidations.
var CacheInvalidationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_invalidations_total",
		Help:      "Total number of collection invalidations caused by mutations.",
	},
	[]string{"collection", "op"},
)

// PendingMutations tracks in-flight mutations per collection.
var PendingMutations = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "pending_mutations",
		Help:      "Current number of unsettled create/update/delete calls.",
	},
	[]string{"collection"},
)

// ── Chat metrics ──────────────────────────────────────────────────────────────

// ChatExchangesTotal counts assistant round trips.
// Label:
//   - result: "ok" or the error kind
var ChatExchangesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "chat_exchanges_total",
		Help:      "Total number of questions relayed to the assistant.",
	},
	[]string{"result"},
)
