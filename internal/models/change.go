package models

import "time"

// PropertyChange is one difference found between two refreshes
type PropertyChange struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id,omitempty"`
	PropertyID string    `gorm:"type:varchar(64);not null;index" json:"property_id"`
	Community  string    `gorm:"type:varchar(100)" json:"community_name"`
	ChangeType string    `gorm:"type:varchar(50);not null" json:"change_type"`
	OldValue   string    `gorm:"type:text" json:"old_value,omitempty"`
	NewValue   string    `gorm:"type:text" json:"new_value,omitempty"`
	DetectedAt time.Time `gorm:"not null;index" json:"detected_at"`
}

// TableName specifies the table name
func (PropertyChange) TableName() string {
	return "property_changes"
}

// ChangeType constants
const (
	ChangeTypeNew     = "new_listing"
	ChangeTypeRemoved = "listing_removed"
	ChangeTypePrice   = "price_changed"
	ChangeTypeStatus  = "status_changed"
	ChangeTypeArea    = "area_changed"
)
