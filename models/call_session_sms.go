package models

import "time"

// CallSessionSMS holds the custom text template of one call session. At most
// one record exists per session (upsert keyed by CallSessionID); absence is a
// valid state and means the default template applies.
type CallSessionSMS struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	CallSessionID uint   `gorm:"not null;uniqueIndex:uk_call_session_sms_session_id" json:"call_session_id"`
	SMSContent    string `gorm:"type:text;not null" json:"sms_content"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (CallSessionSMS) TableName() string {
	return "call_session_sms"
}

// CallSessionSMSFilter represents filter criteria for session SMS queries
type CallSessionSMSFilter struct {
	ID            *uint
	CallSessionID *uint
}
