package businessflow

import (
	"context"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/occsec/secure-dialer/models"
	"github.com/occsec/secure-dialer/utils"
)

// In-memory repository fakes shared by the flow tests.

type fakeContactRepo struct {
	mu              sync.Mutex
	contacts        map[uint]*models.Contact
	nextID          uint
	updateFieldsErr error
	updateStatusErr error
}

func newFakeContactRepo() *fakeContactRepo {
	return &fakeContactRepo{contacts: make(map[uint]*models.Contact)}
}

func (r *fakeContactRepo) add(contact *models.Contact) *models.Contact {
	r.mu.Lock()
	defer r.mu.Unlock()
	if contact.ID == 0 {
		r.nextID++
		contact.ID = r.nextID
	}
	stored := *contact
	r.contacts[stored.ID] = &stored
	return contact
}

func (r *fakeContactRepo) get(id uint) *models.Contact {
	r.mu.Lock()
	defer r.mu.Unlock()
	if contact, ok := r.contacts[id]; ok {
		copied := *contact
		return &copied
	}
	return nil
}

func (r *fakeContactRepo) ByID(ctx context.Context, id uint) (*models.Contact, error) {
	return r.get(id), nil
}

func (r *fakeContactRepo) ByUUID(ctx context.Context, contactUUID string) (*models.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, contact := range r.contacts {
		if contact.UUID.String() == contactUUID {
			copied := *contact
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeContactRepo) matching(filter models.ContactFilter) []*models.Contact {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.Contact
	for _, contact := range r.contacts {
		if filter.UserID != nil && contact.UserID != *filter.UserID {
			continue
		}
		if filter.Status != nil && contact.Status != *filter.Status {
			continue
		}
		if filter.CallSessionID != nil {
			if contact.CallSessionID == nil || *contact.CallSessionID != *filter.CallSessionID {
				continue
			}
		}
		copied := *contact
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func (r *fakeContactRepo) ByFilter(ctx context.Context, filter models.ContactFilter, orderBy string, limit, offset int) ([]*models.Contact, error) {
	result := r.matching(filter)
	if offset > len(result) {
		return nil, nil
	}
	result = result[offset:]
	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}

func (r *fakeContactRepo) Save(ctx context.Context, contact *models.Contact) error {
	r.add(contact)
	return nil
}

func (r *fakeContactRepo) SaveBatch(ctx context.Context, contacts []*models.Contact) error {
	for _, contact := range contacts {
		r.add(contact)
	}
	return nil
}

func (r *fakeContactRepo) Count(ctx context.Context, filter models.ContactFilter) (int64, error) {
	return int64(len(r.matching(filter))), nil
}

func (r *fakeContactRepo) Exists(ctx context.Context, filter models.ContactFilter) (bool, error) {
	return len(r.matching(filter)) > 0, nil
}

func (r *fakeContactRepo) ListByUser(ctx context.Context, userID string) ([]*models.Contact, error) {
	return r.matching(models.ContactFilter{UserID: &userID}), nil
}

func (r *fakeContactRepo) ListBySession(ctx context.Context, sessionID uint) ([]*models.Contact, error) {
	return r.matching(models.ContactFilter{CallSessionID: &sessionID}), nil
}

func (r *fakeContactRepo) UpdateFields(ctx context.Context, contactID uint, fields map[string]any) (*models.Contact, error) {
	if r.updateFieldsErr != nil {
		return nil, r.updateFieldsErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	contact, ok := r.contacts[contactID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	for name, value := range fields {
		switch name {
		case "first_name":
			contact.FirstName = value.(string)
		case "last_name":
			contact.LastName = value.(string)
		case "email":
			email := value.(string)
			contact.Email = &email
		case "attending":
			contact.Attending = value.(models.AttendanceStatus)
		case "comments":
			comments := value.(string)
			contact.Comments = &comments
		}
	}
	contact.UpdatedAt = utils.UTCNow()
	copied := *contact
	return &copied, nil
}

func (r *fakeContactRepo) UpdateStatus(ctx context.Context, contactID uint, status models.CallStatus, at time.Time, lastCalled *time.Time) (*models.Contact, error) {
	if r.updateStatusErr != nil {
		return nil, r.updateStatusErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	contact, ok := r.contacts[contactID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	contact.Status = status
	contact.StatusUpdatedAt = &at
	contact.CallInitiated = true
	if lastCalled != nil {
		contact.LastCalled = lastCalled
	}
	contact.UpdatedAt = at
	copied := *contact
	return &copied, nil
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[uint]*models.CallSession
	nextID   uint
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[uint]*models.CallSession)}
}

func (r *fakeSessionRepo) add(session *models.CallSession) *models.CallSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session.ID == 0 {
		r.nextID++
		session.ID = r.nextID
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = utils.UTCNow()
	}
	stored := *session
	r.sessions[stored.ID] = &stored
	return session
}

func (r *fakeSessionRepo) ByID(ctx context.Context, id uint) (*models.CallSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session, ok := r.sessions[id]; ok {
		copied := *session
		return &copied, nil
	}
	return nil, nil
}

func (r *fakeSessionRepo) ByUUID(ctx context.Context, sessionUUID string) (*models.CallSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, session := range r.sessions {
		if session.UUID.String() == sessionUUID {
			copied := *session
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeSessionRepo) all() []*models.CallSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.CallSession
	for _, session := range r.sessions {
		copied := *session
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result
}

func (r *fakeSessionRepo) ByFilter(ctx context.Context, filter models.CallSessionFilter, orderBy string, limit, offset int) ([]*models.CallSession, error) {
	return r.all(), nil
}

func (r *fakeSessionRepo) Save(ctx context.Context, session *models.CallSession) error {
	r.add(session)
	return nil
}

func (r *fakeSessionRepo) SaveBatch(ctx context.Context, sessions []*models.CallSession) error {
	for _, session := range sessions {
		r.add(session)
	}
	return nil
}

func (r *fakeSessionRepo) Count(ctx context.Context, filter models.CallSessionFilter) (int64, error) {
	return int64(len(r.all())), nil
}

func (r *fakeSessionRepo) Exists(ctx context.Context, filter models.CallSessionFilter) (bool, error) {
	return len(r.all()) > 0, nil
}

func (r *fakeSessionRepo) ListByUser(ctx context.Context, userID string) ([]*models.CallSession, error) {
	var result []*models.CallSession
	for _, session := range r.all() {
		if session.UserID == userID {
			result = append(result, session)
		}
	}
	return result, nil
}

func (r *fakeSessionRepo) ListAll(ctx context.Context, limit, offset int) ([]*models.CallSession, error) {
	return r.all(), nil
}

type fakeSessionSMSRepo struct {
	mu      sync.Mutex
	content map[uint]*models.CallSessionSMS
}

func newFakeSessionSMSRepo() *fakeSessionSMSRepo {
	return &fakeSessionSMSRepo{content: make(map[uint]*models.CallSessionSMS)}
}

func (r *fakeSessionSMSRepo) ByID(ctx context.Context, id uint) (*models.CallSessionSMS, error) {
	return nil, nil
}

func (r *fakeSessionSMSRepo) ByFilter(ctx context.Context, filter models.CallSessionSMSFilter, orderBy string, limit, offset int) ([]*models.CallSessionSMS, error) {
	return nil, nil
}

func (r *fakeSessionSMSRepo) Save(ctx context.Context, record *models.CallSessionSMS) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *record
	r.content[stored.CallSessionID] = &stored
	return nil
}

func (r *fakeSessionSMSRepo) SaveBatch(ctx context.Context, records []*models.CallSessionSMS) error {
	for _, record := range records {
		if err := r.Save(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeSessionSMSRepo) Count(ctx context.Context, filter models.CallSessionSMSFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.content)), nil
}

func (r *fakeSessionSMSRepo) Exists(ctx context.Context, filter models.CallSessionSMSFilter) (bool, error) {
	count, _ := r.Count(ctx, filter)
	return count > 0, nil
}

func (r *fakeSessionSMSRepo) BySessionID(ctx context.Context, sessionID uint) (*models.CallSessionSMS, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if record, ok := r.content[sessionID]; ok {
		copied := *record
		return &copied, nil
	}
	return nil, nil
}

func (r *fakeSessionSMSRepo) Upsert(ctx context.Context, sessionID uint, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.content[sessionID] = &models.CallSessionSMS{
		CallSessionID: sessionID,
		SMSContent:    content,
		UpdatedAt:     utils.UTCNow(),
	}
	return nil
}

type fakeSettingsRepo struct {
	mu      sync.Mutex
	numbers map[string]string
}

func newFakeSettingsRepo() *fakeSettingsRepo {
	return &fakeSettingsRepo{numbers: make(map[string]string)}
}

func (r *fakeSettingsRepo) ByID(ctx context.Context, id uint) (*models.TelephonySettings, error) {
	return nil, nil
}

func (r *fakeSettingsRepo) ByFilter(ctx context.Context, filter models.TelephonySettingsFilter, orderBy string, limit, offset int) ([]*models.TelephonySettings, error) {
	return nil, nil
}

func (r *fakeSettingsRepo) Save(ctx context.Context, settings *models.TelephonySettings) error {
	return r.Upsert(ctx, settings.UserID, settings.CallerNumber)
}

func (r *fakeSettingsRepo) SaveBatch(ctx context.Context, settings []*models.TelephonySettings) error {
	for _, s := range settings {
		if err := r.Save(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeSettingsRepo) Count(ctx context.Context, filter models.TelephonySettingsFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.numbers)), nil
}

func (r *fakeSettingsRepo) Exists(ctx context.Context, filter models.TelephonySettingsFilter) (bool, error) {
	count, _ := r.Count(ctx, filter)
	return count > 0, nil
}

func (r *fakeSettingsRepo) ByUserID(ctx context.Context, userID string) (*models.TelephonySettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if number, ok := r.numbers[userID]; ok {
		return &models.TelephonySettings{UserID: userID, CallerNumber: number}, nil
	}
	return nil, nil
}

func (r *fakeSettingsRepo) Upsert(ctx context.Context, userID, callerNumber string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.numbers[userID] = callerNumber
	return nil
}

type fakeAuditRepo struct {
	mu   sync.Mutex
	logs []*models.AuditLog
}

func newFakeAuditRepo() *fakeAuditRepo {
	return &fakeAuditRepo{}
}

func (r *fakeAuditRepo) ByID(ctx context.Context, id uint) (*models.AuditLog, error) {
	return nil, nil
}

func (r *fakeAuditRepo) ByFilter(ctx context.Context, filter models.AuditLogFilter, orderBy string, limit, offset int) ([]*models.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.AuditLog(nil), r.logs...), nil
}

func (r *fakeAuditRepo) Save(ctx context.Context, log *models.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *log
	r.logs = append(r.logs, &stored)
	return nil
}

func (r *fakeAuditRepo) SaveBatch(ctx context.Context, logs []*models.AuditLog) error {
	for _, log := range logs {
		if err := r.Save(ctx, log); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeAuditRepo) Count(ctx context.Context, filter models.AuditLogFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.logs)), nil
}

func (r *fakeAuditRepo) Exists(ctx context.Context, filter models.AuditLogFilter) (bool, error) {
	count, _ := r.Count(ctx, filter)
	return count > 0, nil
}

func (r *fakeAuditRepo) ListByContact(ctx context.Context, contactID uint, limit, offset int) ([]*models.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.AuditLog
	for _, log := range r.logs {
		if log.ContactID != nil && *log.ContactID == contactID {
			result = append(result, log)
		}
	}
	return result, nil
}

func (r *fakeAuditRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*models.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.AuditLog
	for _, log := range r.logs {
		if log.UserID != nil && *log.UserID == userID {
			result = append(result, log)
		}
	}
	return result, nil
}

func (r *fakeAuditRepo) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []string
	for _, log := range r.logs {
		result = append(result, log.Action)
	}
	return result
}
