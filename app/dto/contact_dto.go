package dto

import (
	"time"
)

// ContactResponse represents a contact as rendered for the dashboard.
// LastName and Phone carry masked display values; the raw values never
// leave the server through this type.
type ContactResponse struct {
	UUID            string     `json:"uuid"`
	FirstName       string     `json:"first_name"`
	LastName        string     `json:"last_name"`
	Phone           string     `json:"phone"`
	Email           *string    `json:"email,omitempty"`
	Attending       string     `json:"attending"`
	Comments        *string    `json:"comments,omitempty"`
	Status          string     `json:"status"`
	StatusUpdatedAt *time.Time `json:"status_updated_at,omitempty"`
	LastCalled      *time.Time `json:"last_called,omitempty"`
	CallInitiated   bool       `json:"call_initiated"`
	CallSessionUUID *string    `json:"call_session_uuid,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// ListContactsRequest represents the request to list a user's contacts
type ListContactsRequest struct {
	UserID          string  `json:"-"`
	CallSessionUUID *string `json:"call_session_uuid,omitempty"`
	Status          *string `json:"status,omitempty" validate:"omitempty,oneof=not-called called busy call-failed text-sent"`
	Page            int     `json:"page" validate:"omitempty,min=1"`
	PageSize        int     `json:"page_size" validate:"omitempty,min=1,max=100"`
}

// ListContactsResponse represents the response to list a user's contacts
type ListContactsResponse struct {
	Contacts []ContactResponse `json:"contacts"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
	// Version is the user's contact list version. Pollers refetch only when
	// it moves. Zero when version tracking is not configured.
	Version int64 `json:"version"`
}

// UpdateContactRequest represents a partial contact update. Status is
// deliberately absent; status only changes through dispatch.
type UpdateContactRequest struct {
	UUID      string  `json:"-"`
	UserID    string  `json:"-"`
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,min=1,max=100"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,max=100"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	Attending *string `json:"attending,omitempty" validate:"omitempty,oneof=attending not-attending unknown"`
	Comments  *string `json:"comments,omitempty" validate:"omitempty,max=2000"`
}

// UpdateContactResponse represents the response to a contact update
type UpdateContactResponse struct {
	Message string          `json:"message"`
	Contact ContactResponse `json:"contact"`
}

// StatusSummaryRequest represents the request for aggregate status counts
type StatusSummaryRequest struct {
	UserID          string  `json:"-"`
	CallSessionUUID *string `json:"call_session_uuid,omitempty"`
}

// StatusSummaryResponse represents aggregate status counts for the dashboard
type StatusSummaryResponse struct {
	Total      int `json:"total"`
	NotCalled  int `json:"not_called"`
	Called     int `json:"called"`
	Busy       int `json:"busy"`
	CallFailed int `json:"call_failed"`
	TextSent   int `json:"text_sent"`
}
