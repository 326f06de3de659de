// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/occsec/secure-dialer/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// ContactRepository defines operations for contacts
type ContactRepository interface {
	Repository[models.Contact, models.ContactFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Contact, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Contact, error)
	ListBySession(ctx context.Context, sessionID uint) ([]*models.Contact, error)
	// UpdateFields applies a partial update. It must never be handed a status
	// change; status writes go through UpdateStatus so the status and
	// status_updated_at pair stays atomic.
	UpdateFields(ctx context.Context, contactID uint, fields map[string]any) (*models.Contact, error)
	// UpdateStatus records a dispatch outcome in a single UPDATE: status,
	// status_updated_at, call_initiated, and optionally last_called.
	UpdateStatus(ctx context.Context, contactID uint, status models.CallStatus, at time.Time, lastCalled *time.Time) (*models.Contact, error)
}

// CallSessionRepository defines operations for call sessions
type CallSessionRepository interface {
	Repository[models.CallSession, models.CallSessionFilter]
	ByUUID(ctx context.Context, uuid string) (*models.CallSession, error)
	ListByUser(ctx context.Context, userID string) ([]*models.CallSession, error)
	ListAll(ctx context.Context, limit, offset int) ([]*models.CallSession, error)
}

// CallSessionSMSRepository defines operations for per-session SMS content
type CallSessionSMSRepository interface {
	Repository[models.CallSessionSMS, models.CallSessionSMSFilter]
	BySessionID(ctx context.Context, sessionID uint) (*models.CallSessionSMS, error)
	// Upsert enforces the one-record-per-session invariant: insert-or-replace
	// keyed by call_session_id.
	Upsert(ctx context.Context, sessionID uint, content string) error
}

// TelephonySettingsRepository defines operations for per-user caller numbers
type TelephonySettingsRepository interface {
	Repository[models.TelephonySettings, models.TelephonySettingsFilter]
	ByUserID(ctx context.Context, userID string) (*models.TelephonySettings, error)
	Upsert(ctx context.Context, userID, callerNumber string) error
}

// AuditLogRepository defines operations for audit logs
type AuditLogRepository interface {
	Repository[models.AuditLog, models.AuditLogFilter]
	ListByContact(ctx context.Context, contactID uint, limit, offset int) ([]*models.AuditLog, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*models.AuditLog, error)
}
