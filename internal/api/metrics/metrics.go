// Package metrics defines and registers all custom Prometheus metrics for the
// Semantic Pilot API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics register with the default Prometheus registry at import time and
// are exposed through the echoprometheus handler on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "semanticpilot"

// ── Admission metrics ─────────────────────────────────────────────────────────

// AdmissionDecisionsTotal counts admission gate outcomes per route.
// Labels:
//   - route: the route policy name (e.g. "admin", "reports")
//   - decision: "allowed", "unauthenticated", "forbidden", or "rate_limited"
var AdmissionDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "admission_decisions_total",
		Help:      "Total number of admission gate decisions, by route and decision.",
	},
	[]string{"route", "decision"},
)

// ProfilesProvisionedTotal counts profiles lazily created on first
// authenticated contact.
var ProfilesProvisionedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "profiles_provisioned_total",
		Help:      "Total number of user profiles auto-provisioned by the admission gate.",
	},
)

// ── Webhook metrics ───────────────────────────────────────────────────────────

// WebhookEventsTotal counts payment webhook deliveries by terminal outcome.
// Label:
//   - outcome: "applied", "already_applied", "ignored", "invalid_signature",
//     "unresolved_user", or "storage_error"
var WebhookEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "webhook_events_total",
		Help:      "Total number of payment webhook deliveries, by outcome.",
	},
	[]string{"outcome"},
)

// UpgradeDuration measures how long one webhook delivery takes end-to-end.
var UpgradeDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upgrade_duration_seconds",
		Help:      "Duration of entitlement upgrade handling from receipt to persistence.",
		Buckets:   prometheus.DefBuckets,
	},
)

// ── Cleanup metrics ───────────────────────────────────────────────────────────

// HistoryRecordsDeletedTotal counts history records removed by cleanup runs.
var HistoryRecordsDeletedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "history_records_deleted_total",
		Help:      "Total number of history records deleted by the cleanup enforcer.",
	},
)
