package entities

import "time"

type AuditEventType string

const (
	AuditEventAdd    AuditEventType = "add"
	AuditEventRemove AuditEventType = "remove"
	AuditEventBorrow AuditEventType = "borrow"
	AuditEventReturn AuditEventType = "return"
	AuditEventImport AuditEventType = "import"
	AuditEventBackup AuditEventType = "backup"
	AuditEventAuth   AuditEventType = "auth"
)

type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusNoop    AuditStatus = "noop"
	AuditStatusFailed  AuditStatus = "failed"
)

type AuditEvent struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	EventType   AuditEventType `gorm:"index;size:50" json:"event_type"`
	Collection  string         `gorm:"size:20" json:"collection"`      // "catalog" or "shelf"
	EntityID    string         `gorm:"index;size:512" json:"entity_id"` // book_id, or title for the shelf
	Description string         `gorm:"size:500" json:"description"`
	Metadata    string         `gorm:"type:text" json:"metadata,omitempty"` // JSON for extra data
	RequestID   string         `gorm:"size:64" json:"request_id,omitempty"`
	IPAddress   string         `gorm:"size:45" json:"ip_address,omitempty"`
	Status      AuditStatus    `gorm:"size:20" json:"status"`
	ErrorMsg    string         `gorm:"size:500" json:"error_msg,omitempty"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
}

func (AuditEvent) TableName() string {
	return "audit_events"
}
