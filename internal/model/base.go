package model

import "time"

// BaseModel handles the numeric ID and standard audit trail.
// Rows are hard-deleted: inventory cascades rely on rows actually disappearing.
type BaseModel struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Audit User Tracking
	CreatedBy string `gorm:"type:varchar(100)" json:"created_by,omitempty"`
	UpdatedBy string `gorm:"type:varchar(100)" json:"updated_by,omitempty"`
}
