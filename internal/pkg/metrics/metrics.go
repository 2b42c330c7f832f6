// Package metrics defines and registers all custom Prometheus metrics for the
// trip monitoring service. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation (promauto).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "trip_monitor"

// ── Trip metrics ──────────────────────────────────────────────────────────────

// TripAdvancesTotal counts stage advance attempts.
// Label:
//   - result: "advanced", "idempotent", "rejected", "conflict", "error"
var TripAdvancesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "trip_advances_total",
		Help:      "Total number of trip stage advance attempts, by result.",
	},
	[]string{"result"},
)

// TripEventsQueueDepth tracks events waiting in each trip event worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var TripEventsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "trip_events_queue_depth",
		Help:      "Current number of trip events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// ── Location metrics ──────────────────────────────────────────────────────────

// LocationReportsTotal counts location reports.
// Label:
//   - result: "accepted" or a reject reason ("throttled", "in_flight", "invalid_sample", "write_failed")
var LocationReportsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "location_reports_total",
		Help:      "Total number of location reports, by result.",
	},
	[]string{"result"},
)

// LocationSecondaryWriteFailuresTotal counts swallowed fallback/history write failures.
// Label:
//   - target: "legacy" or "history"
var LocationSecondaryWriteFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "location_secondary_write_failures_total",
		Help:      "Total number of non-fatal location write failures, by target.",
	},
	[]string{"target"},
)

// ── Monitoring metrics ────────────────────────────────────────────────────────

// AcquisitionFailuresTotal counts failed position acquisitions across sessions.
var AcquisitionFailuresTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gps_acquisition_failures_total",
		Help:      "Total number of failed position acquisitions.",
	},
)

// IncidentsCreatedTotal counts incidents handed to the incident sink.
// Label:
//   - type: incident type (e.g. "gps_acquisition_failure", "signal_lost")
var IncidentsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "incidents_created_total",
		Help:      "Total number of incidents created, by type.",
	},
	[]string{"type"},
)

// IncidentsSuppressedTotal counts escalations that were not raised.
// Label:
//   - reason: "cooldown", "inactive", "liveness_error"
var IncidentsSuppressedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "incidents_suppressed_total",
		Help:      "Total number of suppressed incident escalations, by reason.",
	},
	[]string{"reason"},
)

// SignalLossWarningsTotal counts signal-loss warnings sent to drivers.
var SignalLossWarningsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signal_loss_warnings_total",
		Help:      "Total number of signal-loss warnings sent.",
	},
)

// ActiveSessions tracks the number of running monitoring sessions.
var ActiveSessions = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "monitoring_sessions_active",
		Help:      "Current number of active monitoring sessions.",
	},
)

// NotificationsTotal counts notification deliveries by the queue consumer.
// Labels:
//   - kind: "user" or "operators"
//   - result: "delivered" or "failed"
var NotificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Total number of notifications handled by the consumer.",
	},
	[]string{"kind", "result"},
)
