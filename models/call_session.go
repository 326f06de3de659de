package models

import (
	"time"

	"github.com/google/uuid"
)

// CallSession is a named, owned grouping of contacts imported together.
// ContactCount is denormalized and maintained by the import flow, not by the
// dispatch engine.
type CallSession struct {
	ID   uint      `gorm:"primaryKey" json:"id"`
	UUID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_call_sessions_uuid" json:"uuid"`

	Name         string `gorm:"size:255;not null" json:"name"`
	ContactCount int    `gorm:"not null;default:0" json:"contact_count"`
	UserID       string `gorm:"type:uuid;not null;index:idx_call_sessions_user_id" json:"user_id"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_call_sessions_created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`

	Contacts []Contact `gorm:"foreignKey:CallSessionID" json:"-"`
}

func (CallSession) TableName() string {
	return "call_sessions"
}

// CallSessionFilter represents filter criteria for call session queries
type CallSessionFilter struct {
	ID            *uint
	UUID          *uuid.UUID
	Name          *string
	UserID        *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
