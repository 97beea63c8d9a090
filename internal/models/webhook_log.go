package models

import (
	"time"
)

// WebhookLog records every inbound provider notification before any
// processing happens, so at-least-once deliveries never lose their
// audit trail. Processed stays false when settlement fails internally;
// those rows are the manual reconciliation queue.
type WebhookLog struct {
	ID        uint   `gorm:"primarykey"`
	Provider  string `gorm:"not null;index"`
	EventType string `gorm:"index"`
	Payload   string `gorm:"type:jsonb;not null"`
	Processed bool   `gorm:"default:false;index"`
	Error     string

	CreatedAt time.Time
	UpdatedAt time.Time
}
