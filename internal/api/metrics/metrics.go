// Package metrics defines the custom Prometheus metrics of the logistics API.
// Metrics register with the default registry on package init via promauto.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "crownshift"

// ── Shipments ─────────────────────────────────────────────────────────────────

// ShipmentsCreatedTotal counts newly created shipments by service slug.
var ShipmentsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "shipments_created_total",
		Help:      "Total number of shipments created, by service.",
	},
	[]string{"service_slug"},
)

// ShipmentStatusUpdatesTotal counts admin timeline updates by resulting status.
var ShipmentStatusUpdatesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "shipment_status_updates_total",
		Help:      "Total number of shipment status updates applied.",
	},
	[]string{"status"},
)

// ── Inventory & fleet ─────────────────────────────────────────────────────────

// ReservationsTotal counts inventory reservation attempts.
// Label result: "ok", "insufficient_stock", "not_found", "error".
var ReservationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "inventory_reservations_total",
		Help:      "Total number of inventory reservation attempts, by result.",
	},
	[]string{"result"},
)

// AssignmentsTotal counts fleet assignment attempts.
var AssignmentsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fleet_assignments_total",
		Help:      "Total number of fleet assignment attempts, by result.",
	},
	[]string{"result"},
)

// ── Payments ──────────────────────────────────────────────────────────────────

// PaymentsStartedTotal counts payment initiations by provider.
var PaymentsStartedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payments_started_total",
		Help:      "Total number of payments initiated, by provider.",
	},
	[]string{"provider"},
)

// WebhooksTotal counts provider notifications.
// Label result: "processed", "duplicate", "rejected", "error".
var WebhooksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payment_webhooks_total",
		Help:      "Total number of payment webhooks received, by provider and result.",
	},
	[]string{"provider", "result"},
)

// WebhookDuration measures webhook handling end to end.
var WebhookDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "payment_webhook_duration_seconds",
		Help:      "Duration of payment webhook handling.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"provider"},
)

// ── Invoices ──────────────────────────────────────────────────────────────────

var InvoicesGeneratedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "invoices_generated_total",
		Help:      "Total number of invoices rendered and stored.",
	},
)

// Result collapses an error into a short metric label.
func Result(err error, labels map[error]string) string {
	if err == nil {
		return "ok"
	}
	for target, label := range labels {
		if errors.Is(err, target) {
			return label
		}
	}
	return "error"
}
