package models

import "time"

// AuditEntry records one mutation issued through the console
type AuditEntry struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Entity    string    `gorm:"type:varchar(20);not null;index" json:"entity"`
	Action    string    `gorm:"type:varchar(20);not null" json:"action"`
	TargetID  string    `gorm:"type:varchar(64);index" json:"target_id"`
	Actor     string    `gorm:"type:varchar(100)" json:"actor"`
	Simulated bool      `gorm:"not null;default:false" json:"simulated"`
	Detail    string    `gorm:"type:text" json:"detail,omitempty"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

// TableName specifies the table name
func (AuditEntry) TableName() string {
	return "audit_entries"
}

// Audit actions
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionUpload = "upload"
)
