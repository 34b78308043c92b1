// Package metrics defines and registers the custom Prometheus metrics of the
// class-booking API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default registry on package init through
// promauto; the /metrics endpoint exposes them alongside the HTTP request
// metrics collected by echoprometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "booking"

// ── Enrollment metrics ────────────────────────────────────────────────────────

// SelectionsTotal counts Select attempts.
// Label:
//   - result: "selected", "already_selected", or "already_enrolled"
var SelectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "selections_total",
		Help:      "Total number of class selection attempts, by result.",
	},
	[]string{"result"},
)

// EnrollmentsTotal counts completed Selected → Enrolled transitions.
// Label:
//   - kind: "paid" (transaction id present, seat consumed) or "test"
var EnrollmentsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "enrollments_total",
		Help:      "Total number of enrollments applied after payment confirmation.",
	},
	[]string{"kind"},
)

// SeatConflictsTotal counts purchases rejected because the class was full.
var SeatConflictsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "seat_conflicts_total",
		Help:      "Total number of payment confirmations rejected for lack of seats.",
	},
)

// ── Payment metrics ───────────────────────────────────────────────────────────

// PaymentsRecordedTotal counts payment audit records written.
var PaymentsRecordedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payments_recorded_total",
		Help:      "Total number of payment records appended to the audit trail.",
	},
)

// PaymentReconciliationsTotal counts payments left without a matching enrollment.
// Label:
//   - step: "seat", "enroll", "already_enrolled" or "class_status"
var PaymentReconciliationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payment_reconciliations_total",
		Help:      "Total number of recorded payments flagged for manual reconciliation.",
	},
	[]string{"step"},
)

// PaymentIntentDuration measures round trips to the payment processor.
// Label:
//   - outcome: "ok" or "error"
var PaymentIntentDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "payment_intent_duration_seconds",
		Help:      "Duration of payment intent creation calls to the processor.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"outcome"},
)

// ── Class metrics ─────────────────────────────────────────────────────────────

// ClassesCreatedTotal counts classes submitted by instructors.
var ClassesCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "classes_created_total",
		Help:      "Total number of classes created by instructors.",
	},
)
