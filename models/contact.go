// Package models contains domain entities and business models for the outreach dialer
package models

import (
	"time"

	"github.com/google/uuid"
)

// CallStatus enumerates the outreach progress of a contact.
//
// The model is a last-write-wins per-attempt recorder, not a workflow
// machine: every dispatch attempt produces exactly one outcome status and
// unconditionally overwrites the previous one, so a contact marked busy can
// be called again and land in any other state.
type CallStatus string

const (
	CallStatusNotCalled  CallStatus = "not-called"
	CallStatusCalled     CallStatus = "called"
	CallStatusBusy       CallStatus = "busy"
	CallStatusCallFailed CallStatus = "call-failed"
	CallStatusTextSent   CallStatus = "text-sent"
)

// IsValid reports whether s is one of the five defined statuses.
func (s CallStatus) IsValid() bool {
	switch s {
	case CallStatusNotCalled, CallStatusCalled, CallStatusBusy, CallStatusCallFailed, CallStatusTextSent:
		return true
	}
	return false
}

// DispatchChannel identifies the outbound channel of a dispatch attempt.
type DispatchChannel string

const (
	DispatchChannelVoice DispatchChannel = "voice"
	DispatchChannelText  DispatchChannel = "text"
)

// DispatchOutcome is the provider-level result of one dispatch attempt.
type DispatchOutcome string

const (
	DispatchOutcomeConnected DispatchOutcome = "connected"
	DispatchOutcomeBusy      DispatchOutcome = "busy"
	DispatchOutcomeFailed    DispatchOutcome = "failed"
	DispatchOutcomeSent      DispatchOutcome = "sent"
)

// OutcomeStatus maps a dispatch outcome to the status it records. Voice and
// text failures share the call-failed bucket; there is no distinct
// text-failure status.
func OutcomeStatus(channel DispatchChannel, outcome DispatchOutcome) CallStatus {
	if channel == DispatchChannelText {
		if outcome == DispatchOutcomeSent {
			return CallStatusTextSent
		}
		return CallStatusCallFailed
	}
	switch outcome {
	case DispatchOutcomeConnected:
		return CallStatusCalled
	case DispatchOutcomeBusy:
		return CallStatusBusy
	default:
		return CallStatusCallFailed
	}
}

// AttendanceStatus enumerates the user-recorded attendance answer of a contact.
type AttendanceStatus string

const (
	AttendanceAttending    AttendanceStatus = "attending"
	AttendanceNotAttending AttendanceStatus = "not-attending"
	AttendanceUnknown      AttendanceStatus = "unknown"
)

// Contact is one row of an imported outreach list. Status and
// StatusUpdatedAt are written together as a pair, never one without the
// other.
type Contact struct {
	ID   uint      `gorm:"primaryKey" json:"id"`
	UUID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_contacts_uuid" json:"uuid"`

	FirstName string  `gorm:"size:255;not null" json:"first_name"`
	LastName  string  `gorm:"size:255;not null" json:"last_name"`
	Phone     string  `gorm:"size:20;not null;index:idx_contacts_phone" json:"phone"`
	Email     *string `gorm:"size:255" json:"email,omitempty"`

	Attending AttendanceStatus `gorm:"size:20;not null;default:'unknown'" json:"attending"`
	Comments  *string          `gorm:"type:text" json:"comments,omitempty"`

	Status          CallStatus `gorm:"size:20;not null;default:'not-called';index:idx_contacts_status" json:"status"`
	StatusUpdatedAt *time.Time `json:"status_updated_at,omitempty"`
	LastCalled      *time.Time `json:"last_called,omitempty"`
	CallInitiated   bool       `gorm:"not null;default:false" json:"call_initiated"`

	CallSessionID *uint        `gorm:"index:idx_contacts_call_session_id" json:"call_session_id,omitempty"`
	CallSession   *CallSession `gorm:"foreignKey:CallSessionID;references:ID" json:"call_session,omitempty"`

	UserID string `gorm:"type:uuid;not null;index:idx_contacts_user_id" json:"user_id"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_contacts_created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (Contact) TableName() string {
	return "contacts"
}

// ContactFilter represents filter criteria for contact queries
type ContactFilter struct {
	ID            *uint
	UUID          *uuid.UUID
	Phone         *string
	Status        *CallStatus
	Attending     *AttendanceStatus
	CallSessionID *uint
	UserID        *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

// StatusSummary is the aggregate view of an outreach list. It is always
// recomputed from the contact rows so it cannot drift from per-contact state.
type StatusSummary struct {
	NotCalled  int `json:"not_called"`
	Called     int `json:"called"`
	Busy       int `json:"busy"`
	CallFailed int `json:"call_failed"`
	TextSent   int `json:"text_sent"`
	Total      int `json:"total"`
}

// SummarizeStatuses tallies contacts by current status.
func SummarizeStatuses(contacts []*Contact) StatusSummary {
	var s StatusSummary
	for _, c := range contacts {
		switch c.Status {
		case CallStatusCalled:
			s.Called++
		case CallStatusBusy:
			s.Busy++
		case CallStatusCallFailed:
			s.CallFailed++
		case CallStatusTextSent:
			s.TextSent++
		default:
			s.NotCalled++
		}
		s.Total++
	}
	return s
}
