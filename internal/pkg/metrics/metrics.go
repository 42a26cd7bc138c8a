// Package metrics holds the Prometheus instruments exposed on /metrics.
// All collectors are registered with the global registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	WebhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_webhook_events_total",
			Help: "Payment webhook deliveries by event name and outcome.",
		}, []string{"event", "outcome"})

	EnrollmentRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "class_enrollment_requests_total",
			Help: "Class enrollment requests by decision.",
		}, []string{"decision"})

	EnrollmentStatusChangesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "class_enrollment_status_changes_total",
			Help: "Admin payment status changes by target status and result.",
		}, []string{"status", "result"})

	DownloadsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "product_downloads_total",
			Help: "Download links handed out for purchased products.",
		})

	IntakeMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_messages_total",
			Help: "Contact and intro session messages stored, by type.",
		}, []string{"type"})
)

func init() {
	prometheus.MustRegister(
		WebhookEventsTotal,
		EnrollmentRequestsTotal,
		EnrollmentStatusChangesTotal,
		DownloadsTotal,
		IntakeMessagesTotal,
	)
}
