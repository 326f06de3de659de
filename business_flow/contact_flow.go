package businessflow

import (
	"context"
	"fmt"
	"time"

	"github.com/occsec/secure-dialer/app/dto"
	"github.com/occsec/secure-dialer/models"
	"github.com/occsec/secure-dialer/repository"
	"github.com/occsec/secure-dialer/utils"
)

// ContactFlow is the single gateway for reading and mutating contacts.
// Every contact mutation in the system goes through it; dispatch writes its
// status outcomes through RecordDispatchStatus.
type ContactFlow interface {
	ListContacts(ctx context.Context, req *dto.ListContactsRequest, metadata *ClientMetadata) (*dto.ListContactsResponse, error)
	UpdateContact(ctx context.Context, req *dto.UpdateContactRequest, metadata *ClientMetadata) (*dto.UpdateContactResponse, error)
	StatusSummary(ctx context.Context, req *dto.StatusSummaryRequest, metadata *ClientMetadata) (*dto.StatusSummaryResponse, error)

	// GetOwnedContact loads a contact and verifies ownership. Used by the
	// dispatch flow before any provider work starts.
	GetOwnedContact(ctx context.Context, contactUUID, userID string) (*models.Contact, error)
	// RecordDispatchStatus applies a dispatch outcome with last-write-wins
	// semantics. markCalled also stamps last_called.
	RecordDispatchStatus(ctx context.Context, contact *models.Contact, status models.CallStatus, markCalled bool) (*models.Contact, error)
}

// ContactFlowImpl implements the contact gateway
type ContactFlowImpl struct {
	contactRepo repository.ContactRepository
	sessionRepo repository.CallSessionRepository
	auditRepo   repository.AuditLogRepository
	cache       *ContactCache
}

// NewContactFlow creates a new contact flow instance
func NewContactFlow(
	contactRepo repository.ContactRepository,
	sessionRepo repository.CallSessionRepository,
	auditRepo repository.AuditLogRepository,
	cache *ContactCache,
) ContactFlow {
	return &ContactFlowImpl{
		contactRepo: contactRepo,
		sessionRepo: sessionRepo,
		auditRepo:   auditRepo,
		cache:       cache,
	}
}

// ListContacts returns the user's contacts with masked display fields.
func (f *ContactFlowImpl) ListContacts(ctx context.Context, req *dto.ListContactsRequest, metadata *ClientMetadata) (*dto.ListContactsResponse, error) {
	page := req.Page
	if page == 0 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize == 0 {
		pageSize = 100
	}
	if page < 1 {
		return nil, ErrInvalidPage
	}
	if pageSize < 1 || pageSize > 100 {
		return nil, ErrInvalidPageSize
	}

	filter := models.ContactFilter{
		UserID: utils.ToPtr(req.UserID),
	}
	if req.Status != nil {
		status := models.CallStatus(*req.Status)
		if !status.IsValid() {
			return nil, ErrInvalidCallStatus
		}
		filter.Status = &status
	}
	if req.CallSessionUUID != nil {
		session, err := ownedSessionForUser(ctx, f.sessionRepo, *req.CallSessionUUID, req.UserID, false)
		if err != nil {
			return nil, err
		}
		filter.CallSessionID = &session.ID
	}

	contacts, err := f.contactRepo.ByFilter(ctx, filter, "created_at ASC", pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	total, err := f.contactRepo.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count contacts: %w", err)
	}

	sessionUUIDs, err := f.sessionUUIDsByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	resp := &dto.ListContactsResponse{
		Contacts: make([]dto.ContactResponse, 0, len(contacts)),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		Version:  f.cache.Version(ctx, req.UserID),
	}
	for _, contact := range contacts {
		// Rows already in the optimistic cache are served from it, so a
		// mutation applied there stays visible until the persisted row
		// replaces it. Uncached rows seed the cache.
		if cached, ok := f.cache.Get(contact.ID); ok {
			contact = cached
		} else {
			f.cache.Put(contact)
		}
		resp.Contacts = append(resp.Contacts, ToContactResponse(contact, sessionUUIDForContact(contact, sessionUUIDs)))
	}
	return resp, nil
}

// UpdateContact applies a partial update optimistically: the cached view
// changes first, persistence follows, and a persistence failure restores the
// snapshot so the caller sees the server state again.
func (f *ContactFlowImpl) UpdateContact(ctx context.Context, req *dto.UpdateContactRequest, metadata *ClientMetadata) (*dto.UpdateContactResponse, error) {
	contact, err := f.GetOwnedContact(ctx, req.UUID, req.UserID)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]any)
	updated := *contact
	if req.FirstName != nil {
		fields["first_name"] = *req.FirstName
		updated.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		fields["last_name"] = *req.LastName
		updated.LastName = *req.LastName
	}
	if req.Email != nil {
		fields["email"] = *req.Email
		updated.Email = req.Email
	}
	if req.Attending != nil {
		attending := models.AttendanceStatus(*req.Attending)
		switch attending {
		case models.AttendanceAttending, models.AttendanceNotAttending, models.AttendanceUnknown:
		default:
			return nil, ErrInvalidAttendance
		}
		fields["attending"] = attending
		updated.Attending = attending
	}
	if req.Comments != nil {
		fields["comments"] = *req.Comments
		updated.Comments = req.Comments
	}
	if len(fields) == 0 {
		return nil, ErrContactUpdateEmpty
	}

	snapshot := f.cache.Snapshot(contact.ID)
	f.cache.Put(&updated)

	persisted, err := f.contactRepo.UpdateFields(ctx, contact.ID, fields)
	if err != nil {
		f.cache.Restore(contact.ID, snapshot)
		return nil, fmt.Errorf("failed to update contact: %w", err)
	}

	f.cache.Put(persisted)
	f.cache.Invalidate(ctx, req.UserID)
	f.audit(ctx, models.AuditActionContactUpdated, req.UserID, &contact.ID, true, metadata, map[string]any{
		"fields": fieldNames(fields),
	})

	sessionUUIDs, err := f.sessionUUIDsByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	return &dto.UpdateContactResponse{
		Message: "Contact updated successfully",
		Contact: ToContactResponse(persisted, sessionUUIDForContact(persisted, sessionUUIDs)),
	}, nil
}

// StatusSummary recomputes aggregate counts from the contact rows. Counts
// are never cached or incrementally maintained.
func (f *ContactFlowImpl) StatusSummary(ctx context.Context, req *dto.StatusSummaryRequest, metadata *ClientMetadata) (*dto.StatusSummaryResponse, error) {
	var contacts []*models.Contact
	var err error
	if req.CallSessionUUID != nil {
		session, serr := ownedSessionForUser(ctx, f.sessionRepo, *req.CallSessionUUID, req.UserID, false)
		if serr != nil {
			return nil, serr
		}
		contacts, err = f.contactRepo.ListBySession(ctx, session.ID)
	} else {
		contacts, err = f.contactRepo.ListByUser(ctx, req.UserID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load contacts for summary: %w", err)
	}

	summary := ToStatusSummaryResponse(models.SummarizeStatuses(contacts))
	return &summary, nil
}

// GetOwnedContact loads a contact by UUID and verifies the caller owns it.
func (f *ContactFlowImpl) GetOwnedContact(ctx context.Context, contactUUID, userID string) (*models.Contact, error) {
	contact, err := f.contactRepo.ByUUID(ctx, contactUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to load contact: %w", err)
	}
	if contact == nil {
		return nil, ErrContactNotFound
	}
	if contact.UserID != userID {
		return nil, ErrContactAccessDenied
	}
	return contact, nil
}

// RecordDispatchStatus writes a dispatch outcome. Last write wins: whatever
// outcome lands last overwrites the previous status without comparison.
func (f *ContactFlowImpl) RecordDispatchStatus(ctx context.Context, contact *models.Contact, status models.CallStatus, markCalled bool) (*models.Contact, error) {
	if !status.IsValid() {
		return nil, ErrInvalidCallStatus
	}

	now := utils.UTCNow()
	var lastCalled *time.Time
	if markCalled {
		lastCalled = &now
	}

	snapshot := f.cache.Snapshot(contact.ID)
	updated := *contact
	updated.Status = status
	updated.StatusUpdatedAt = &now
	updated.CallInitiated = true
	if markCalled {
		updated.LastCalled = &now
	}
	f.cache.Put(&updated)

	persisted, err := f.contactRepo.UpdateStatus(ctx, contact.ID, status, now, lastCalled)
	if err != nil {
		f.cache.Restore(contact.ID, snapshot)
		return nil, fmt.Errorf("failed to record dispatch status: %w", err)
	}

	f.cache.Put(persisted)
	f.cache.Invalidate(ctx, contact.UserID)
	return persisted, nil
}

func (f *ContactFlowImpl) sessionUUIDsByID(ctx context.Context, userID string) (map[uint]string, error) {
	sessions, err := f.sessionRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load call sessions: %w", err)
	}
	uuids := make(map[uint]string, len(sessions))
	for _, session := range sessions {
		uuids[session.ID] = session.UUID.String()
	}
	return uuids, nil
}

func sessionUUIDForContact(contact *models.Contact, sessionUUIDs map[uint]string) *string {
	if contact.CallSessionID == nil {
		return nil
	}
	if id, ok := sessionUUIDs[*contact.CallSessionID]; ok {
		return &id
	}
	return nil
}

func fieldNames(fields map[string]any) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	return names
}

func (f *ContactFlowImpl) audit(ctx context.Context, action, userID string, contactID *uint, success bool, metadata *ClientMetadata, details map[string]any) {
	saveAuditLog(ctx, f.auditRepo, action, userID, contactID, success, nil, metadata, details)
}
