package models

import (
	"time"

	"gorm.io/datatypes"
)

const PaymentProviderLemonSqueezy = "lemonsqueezy"

// PaymentWebhookEvent stores verified provider webhook payloads keyed by
// (provider, event_key) so redeliveries are detected before any write.
type PaymentWebhookEvent struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Provider        string         `gorm:"type:varchar(20);not null;index:ux_payment_webhook_events_provider_key,unique,priority:1" json:"provider"`
	EventKey        string         `gorm:"type:varchar(191);not null;index:ux_payment_webhook_events_provider_key,unique,priority:2" json:"event_key"`
	EventName       string         `gorm:"type:varchar(100);not null;index" json:"event_name"`
	Payload         datatypes.JSON `json:"payload"`
	ProcessedAt     *time.Time     `json:"processed_at,omitempty"`
	ProcessingError string         `gorm:"type:text" json:"processing_error"`
	CreatedAt       time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

// Completed reports whether the event was processed without error.
func (e *PaymentWebhookEvent) Completed() bool {
	return e != nil && e.ProcessedAt != nil && e.ProcessingError == ""
}
