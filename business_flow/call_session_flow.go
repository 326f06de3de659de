package businessflow

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/occsec/secure-dialer/app/dto"
	"github.com/occsec/secure-dialer/models"
	"github.com/occsec/secure-dialer/repository"
)

// maxImportContacts bounds one uploaded contact list.
const maxImportContacts = 5000

// CallSessionFlow manages outreach lists: listing them and importing new
// ones from uploaded XLSX files.
type CallSessionFlow interface {
	ListSessions(ctx context.Context, req *dto.ListCallSessionsRequest, metadata *ClientMetadata) (*dto.ListCallSessionsResponse, error)
	ImportSession(ctx context.Context, req *dto.ImportCallSessionRequest, metadata *ClientMetadata) (*dto.ImportCallSessionResponse, error)
}

// CallSessionFlowImpl implements the call session flow
type CallSessionFlowImpl struct {
	sessionRepo repository.CallSessionRepository
	contactRepo repository.ContactRepository
	auditRepo   repository.AuditLogRepository
	db          *gorm.DB
}

// NewCallSessionFlow creates a new call session flow instance
func NewCallSessionFlow(
	sessionRepo repository.CallSessionRepository,
	contactRepo repository.ContactRepository,
	auditRepo repository.AuditLogRepository,
	db *gorm.DB,
) CallSessionFlow {
	return &CallSessionFlowImpl{
		sessionRepo: sessionRepo,
		contactRepo: contactRepo,
		auditRepo:   auditRepo,
		db:          db,
	}
}

// ListSessions returns the user's call sessions, newest first. Admins see
// every session.
func (f *CallSessionFlowImpl) ListSessions(ctx context.Context, req *dto.ListCallSessionsRequest, metadata *ClientMetadata) (*dto.ListCallSessionsResponse, error) {
	var sessions []*models.CallSession
	var err error
	if req.IsAdmin {
		sessions, err = f.sessionRepo.ListAll(ctx, 0, 0)
	} else {
		sessions, err = f.sessionRepo.ListByUser(ctx, req.UserID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list call sessions: %w", err)
	}

	resp := &dto.ListCallSessionsResponse{
		Sessions: make([]dto.CallSessionResponse, 0, len(sessions)),
	}
	for _, session := range sessions {
		resp.Sessions = append(resp.Sessions, ToCallSessionResponse(session))
	}
	return resp, nil
}

// importColumns maps the spreadsheet header to column positions.
type importColumns struct {
	firstName int
	lastName  int
	phone     int
	email     int
}

// ImportSession parses an uploaded XLSX contact list and creates the
// session plus its contacts in one transaction. Rows without a phone number
// are skipped and reported, not rejected.
func (f *CallSessionFlowImpl) ImportSession(ctx context.Context, req *dto.ImportCallSessionRequest, metadata *ClientMetadata) (*dto.ImportCallSessionResponse, error) {
	name := strings.TrimSpace(req.SessionName)
	if name == "" {
		name = strings.TrimSuffix(req.FileName, ".xlsx")
	}
	if name == "" {
		return nil, ErrCallSessionNameRequired
	}

	rows, err := readWorkbookRows(req.File)
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, ErrImportEmpty
	}

	columns, err := resolveImportColumns(rows[0])
	if err != nil {
		return nil, err
	}

	session := &models.CallSession{
		UUID:   uuid.New(),
		Name:   name,
		UserID: req.UserID,
	}

	contacts := make([]*models.Contact, 0, len(rows)-1)
	skipped := 0
	for _, row := range rows[1:] {
		phone := cellAt(row, columns.phone)
		if phone == "" {
			skipped++
			continue
		}
		contact := &models.Contact{
			UUID:      uuid.New(),
			FirstName: cellAt(row, columns.firstName),
			LastName:  cellAt(row, columns.lastName),
			Phone:     phone,
			Status:    models.CallStatusNotCalled,
			Attending: models.AttendanceUnknown,
			UserID:    req.UserID,
		}
		if email := cellAt(row, columns.email); email != "" {
			contact.Email = &email
		}
		contacts = append(contacts, contact)
	}
	if len(contacts) == 0 {
		return nil, ErrImportEmpty
	}
	if len(contacts) > maxImportContacts {
		return nil, ErrImportTooLarge
	}
	session.ContactCount = len(contacts)

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if err := f.sessionRepo.Save(txCtx, session); err != nil {
			return fmt.Errorf("failed to save call session: %w", err)
		}
		for _, contact := range contacts {
			contact.CallSessionID = &session.ID
		}
		if err := f.contactRepo.SaveBatch(txCtx, contacts); err != nil {
			return fmt.Errorf("failed to save contacts: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	saveAuditLog(ctx, f.auditRepo, models.AuditActionSessionImported, req.UserID, nil, true, nil, metadata, map[string]any{
		"session_uuid":  session.UUID.String(),
		"contact_count": len(contacts),
		"skipped_rows":  skipped,
	})

	return &dto.ImportCallSessionResponse{
		Message:      "Contact list imported successfully",
		SessionUUID:  session.UUID.String(),
		SessionName:  session.Name,
		ContactCount: len(contacts),
		SkippedRows:  skipped,
	}, nil
}

func readWorkbookRows(file []byte) ([][]string, error) {
	workbook, err := excelize.OpenReader(bytes.NewReader(file))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrImportEmpty
	}
	rows, err := workbook.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet: %w", err)
	}
	return rows, nil
}

func resolveImportColumns(header []string) (importColumns, error) {
	columns := importColumns{firstName: -1, lastName: -1, phone: -1, email: -1}
	for i, cell := range header {
		switch normalizeHeader(cell) {
		case "firstname":
			columns.firstName = i
		case "lastname":
			columns.lastName = i
		case "phone", "phonenumber":
			columns.phone = i
		case "email", "emailaddress":
			columns.email = i
		}
	}
	if columns.firstName < 0 || columns.lastName < 0 || columns.phone < 0 {
		return columns, ErrImportMissingColumns
	}
	return columns, nil
}

func normalizeHeader(cell string) string {
	cell = strings.ToLower(strings.TrimSpace(cell))
	cell = strings.ReplaceAll(cell, " ", "")
	cell = strings.ReplaceAll(cell, "_", "")
	return cell
}

func cellAt(row []string, index int) string {
	if index < 0 || index >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[index])
}

// ownedSessionForUser loads a session and checks access. Admins may touch
// any session.
func ownedSessionForUser(ctx context.Context, sessionRepo repository.CallSessionRepository, sessionUUID, userID string, isAdmin bool) (*models.CallSession, error) {
	session, err := sessionRepo.ByUUID(ctx, sessionUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to load call session: %w", err)
	}
	if session == nil {
		return nil, ErrCallSessionNotFound
	}
	if !isAdmin && session.UserID != userID {
		return nil, ErrCallSessionAccessDenied
	}
	return session, nil
}
