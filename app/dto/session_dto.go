package dto

import (
	"time"
)

// CallSessionResponse represents a call session in list and detail responses
type CallSessionResponse struct {
	UUID         string    `json:"uuid"`
	Name         string    `json:"name"`
	ContactCount int       `json:"contact_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// ListCallSessionsRequest represents the request to list call sessions
type ListCallSessionsRequest struct {
	UserID  string `json:"-"`
	IsAdmin bool   `json:"-"`
}

// ListCallSessionsResponse represents the response to list call sessions
type ListCallSessionsResponse struct {
	Sessions []CallSessionResponse `json:"sessions"`
}

// ImportCallSessionRequest represents an XLSX contact list upload
type ImportCallSessionRequest struct {
	UserID      string `json:"-"`
	SessionName string `json:"-"`
	FileName    string `json:"-"`
	File        []byte `json:"-"`
}

// ImportCallSessionResponse represents the result of a contact list import
type ImportCallSessionResponse struct {
	Message      string `json:"message"`
	SessionUUID  string `json:"session_uuid"`
	SessionName  string `json:"session_name"`
	ContactCount int    `json:"contact_count"`
	SkippedRows  int    `json:"skipped_rows"`
}

// GetSessionSMSRequest represents the request to read a session's text content
type GetSessionSMSRequest struct {
	SessionUUID string `json:"-"`
	UserID      string `json:"-"`
	IsAdmin     bool   `json:"-"`
}

// SessionSMSResponse represents a session's text message content
type SessionSMSResponse struct {
	SessionUUID string     `json:"session_uuid"`
	SMSContent  string     `json:"sms_content"`
	IsDefault   bool       `json:"is_default"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// SetSessionSMSRequest represents the request to set a session's text content
type SetSessionSMSRequest struct {
	SessionUUID string `json:"-"`
	UserID      string `json:"-"`
	IsAdmin     bool   `json:"-"`
	SMSContent  string `json:"sms_content" validate:"required,min=1,max=1600"`
}
