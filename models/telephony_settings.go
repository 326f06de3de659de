package models

import "time"

// TelephonySettings stores a user's preferred caller number. When present it
// overrides the provider configuration's global from-number for that user's
// dispatches.
type TelephonySettings struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	UserID       string `gorm:"type:uuid;not null;uniqueIndex:uk_telephony_settings_user_id" json:"user_id"`
	CallerNumber string `gorm:"size:20;not null" json:"caller_number"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (TelephonySettings) TableName() string {
	return "telephony_settings"
}

// TelephonySettingsFilter represents filter criteria for settings queries
type TelephonySettingsFilter struct {
	ID     *uint
	UserID *string
}
