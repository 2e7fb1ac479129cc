package models

import "time"

// Platform webhook topics processed by the app.
const (
	TopicAppUninstalled = "app/uninstalled"
)

// PlatformEvent is the idempotency log for inbound platform webhooks. One row
// per delivery id and topic; duplicate deliveries are detected on insert.
type PlatformEvent struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	EventID         string     `gorm:"type:varchar(191);not null;index:ux_platform_events_topic_event,unique,priority:2" json:"event_id"`
	Topic           string     `gorm:"type:varchar(100);not null;index:ux_platform_events_topic_event,unique,priority:1" json:"topic"`
	TenantID        uint       `gorm:"index" json:"tenant_id"`
	PayloadJSON     string     `gorm:"type:longtext" json:"payload_json"`
	SignatureValid  bool       `gorm:"default:false" json:"signature_valid"`
	ProcessedAt     *time.Time `gorm:"type:timestamp;default:null" json:"processed_at,omitempty"`
	ProcessingError string     `gorm:"type:text" json:"processing_error,omitempty"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
