package testing

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/occsec/secure-dialer/models"
	"github.com/occsec/secure-dialer/utils"
)

// TestFixtures provides helpers for creating test data
type TestFixtures struct {
	db *TestDB
}

// NewTestFixtures creates a fixtures helper bound to a test database
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{db: db}
}

// CreateTestSession creates a call session owned by the given user
func (tf *TestFixtures) CreateTestSession(userID, name string) (*models.CallSession, error) {
	session := &models.CallSession{
		UUID:   uuid.New(),
		Name:   name,
		UserID: userID,
	}
	if err := tf.db.DB.Create(session).Error; err != nil {
		return nil, fmt.Errorf("failed to create test session: %w", err)
	}
	return session, nil
}

// CreateTestContact creates a contact owned by the given user
func (tf *TestFixtures) CreateTestContact(userID string, sessionID *uint) (*models.Contact, error) {
	contact := &models.Contact{
		UUID:          uuid.New(),
		FirstName:     "Jordan",
		LastName:      "Rivera",
		Phone:         "+15551234567",
		Status:        models.CallStatusNotCalled,
		Attending:     models.AttendanceUnknown,
		CallSessionID: sessionID,
		UserID:        userID,
	}
	if err := tf.db.DB.Create(contact).Error; err != nil {
		return nil, fmt.Errorf("failed to create test contact: %w", err)
	}
	return contact, nil
}

// CreateContactsWithStatuses creates one contact per given status
func (tf *TestFixtures) CreateContactsWithStatuses(userID string, sessionID *uint, statuses []models.CallStatus) ([]*models.Contact, error) {
	contacts := make([]*models.Contact, 0, len(statuses))
	for i, status := range statuses {
		contact := &models.Contact{
			UUID:          uuid.New(),
			FirstName:     fmt.Sprintf("Contact%d", i),
			LastName:      "Tester",
			Phone:         fmt.Sprintf("+1555000%04d", i),
			Status:        status,
			Attending:     models.AttendanceUnknown,
			CallSessionID: sessionID,
			UserID:        userID,
		}
		if status != models.CallStatusNotCalled {
			contact.StatusUpdatedAt = utils.UTCNowPtr()
			contact.CallInitiated = true
		}
		if err := tf.db.DB.Create(contact).Error; err != nil {
			return nil, fmt.Errorf("failed to create test contact %d: %w", i, err)
		}
		contacts = append(contacts, contact)
	}
	return contacts, nil
}

// CreateTestSessionSMS creates a custom text message for a session
func (tf *TestFixtures) CreateTestSessionSMS(sessionID uint, content string) (*models.CallSessionSMS, error) {
	record := &models.CallSessionSMS{
		CallSessionID: sessionID,
		SMSContent:    content,
	}
	if err := tf.db.DB.Create(record).Error; err != nil {
		return nil, fmt.Errorf("failed to create test session sms: %w", err)
	}
	return record, nil
}

// CreateTestTelephonySettings creates a caller number for a user
func (tf *TestFixtures) CreateTestTelephonySettings(userID, callerNumber string) (*models.TelephonySettings, error) {
	settings := &models.TelephonySettings{
		UserID:       userID,
		CallerNumber: callerNumber,
	}
	if err := tf.db.DB.Create(settings).Error; err != nil {
		return nil, fmt.Errorf("failed to create test telephony settings: %w", err)
	}
	return settings, nil
}
