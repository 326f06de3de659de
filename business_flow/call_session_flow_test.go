package businessflow

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/occsec/secure-dialer/app/dto"
	"github.com/occsec/secure-dialer/models"
)

type sessionEnv struct {
	sessionRepo *fakeSessionRepo
	contactRepo *fakeContactRepo
	auditRepo   *fakeAuditRepo
	flow        CallSessionFlow
}

func newSessionEnv() *sessionEnv {
	env := &sessionEnv{
		sessionRepo: newFakeSessionRepo(),
		contactRepo: newFakeContactRepo(),
		auditRepo:   newFakeAuditRepo(),
	}
	env.flow = NewCallSessionFlow(env.sessionRepo, env.contactRepo, env.auditRepo, nil)
	return env
}

func buildWorkbook(t *testing.T, rows [][]string) []byte {
	t.Helper()
	workbook := excelize.NewFile()
	sheet := workbook.GetSheetName(0)
	for i, row := range rows {
		for j, value := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, workbook.SetCellValue(sheet, cell, value))
		}
	}
	buf, err := workbook.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestImportSessionCreatesContacts(t *testing.T) {
	// Test a full import: session created, contacts saved not-called, rows
	// without a phone skipped and reported
	env := newSessionEnv()
	file := buildWorkbook(t, [][]string{
		{"First Name", "Last Name", "Phone", "Email"},
		{"Jordan", "Rivera", "+15551234567", "jordan@example.com"},
		{"Morgan", "Lee", "", "morgan@example.com"},
		{"Casey", "Nguyen", "+15557654321", ""},
	})

	resp, err := env.flow.ImportSession(context.Background(), &dto.ImportCallSessionRequest{
		UserID:      "user-1",
		SessionName: "Fall Outreach",
		FileName:    "contacts.xlsx",
		File:        file,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Fall Outreach", resp.SessionName)
	assert.Equal(t, 2, resp.ContactCount)
	assert.Equal(t, 1, resp.SkippedRows)

	session, err := env.sessionRepo.ByUUID(context.Background(), resp.SessionUUID)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, 2, session.ContactCount)
	assert.Equal(t, "user-1", session.UserID)

	contacts, err := env.contactRepo.ListBySession(context.Background(), session.ID)
	require.NoError(t, err)
	require.Len(t, contacts, 2)
	for _, contact := range contacts {
		assert.Equal(t, models.CallStatusNotCalled, contact.Status)
		assert.Equal(t, models.AttendanceUnknown, contact.Attending)
		assert.False(t, contact.CallInitiated)
		assert.Equal(t, "user-1", contact.UserID)
	}
	assert.Equal(t, "Jordan", contacts[0].FirstName)
	require.NotNil(t, contacts[0].Email)
	assert.Equal(t, "jordan@example.com", *contacts[0].Email)
	assert.Nil(t, contacts[1].Email)

	assert.Contains(t, env.auditRepo.actions(), models.AuditActionSessionImported)
}

func TestImportSessionHeaderVariants(t *testing.T) {
	// Test that header matching tolerates case, spacing, and underscores
	env := newSessionEnv()
	file := buildWorkbook(t, [][]string{
		{"first_name", "LAST NAME", "Phone Number", "Email Address"},
		{"Jordan", "Rivera", "+15551234567", "jordan@example.com"},
	})

	resp, err := env.flow.ImportSession(context.Background(), &dto.ImportCallSessionRequest{
		UserID:      "user-1",
		SessionName: "Fall Outreach",
		File:        file,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.ContactCount)
}

func TestImportSessionNameFromFileName(t *testing.T) {
	// Test the session name falling back to the upload's file name
	env := newSessionEnv()
	file := buildWorkbook(t, [][]string{
		{"First Name", "Last Name", "Phone"},
		{"Jordan", "Rivera", "+15551234567"},
	})

	resp, err := env.flow.ImportSession(context.Background(), &dto.ImportCallSessionRequest{
		UserID:   "user-1",
		FileName: "fall_outreach.xlsx",
		File:     file,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "fall_outreach", resp.SessionName)

	_, err = env.flow.ImportSession(context.Background(), &dto.ImportCallSessionRequest{
		UserID: "user-1",
		File:   file,
	}, nil)
	assert.ErrorIs(t, err, ErrCallSessionNameRequired)
}

func TestImportSessionMissingColumns(t *testing.T) {
	// Test that a file without the required columns is rejected
	env := newSessionEnv()
	file := buildWorkbook(t, [][]string{
		{"First Name", "Last Name", "Email"},
		{"Jordan", "Rivera", "jordan@example.com"},
	})

	_, err := env.flow.ImportSession(context.Background(), &dto.ImportCallSessionRequest{
		UserID:      "user-1",
		SessionName: "Fall Outreach",
		File:        file,
	}, nil)
	assert.True(t, IsImportMissingColumns(err))
}

func TestImportSessionEmptyFile(t *testing.T) {
	// Test that a header-only file and an all-skipped file are both empty
	env := newSessionEnv()

	headerOnly := buildWorkbook(t, [][]string{
		{"First Name", "Last Name", "Phone"},
	})
	_, err := env.flow.ImportSession(context.Background(), &dto.ImportCallSessionRequest{
		UserID:      "user-1",
		SessionName: "Fall Outreach",
		File:        headerOnly,
	}, nil)
	assert.True(t, IsImportEmpty(err))

	noPhones := buildWorkbook(t, [][]string{
		{"First Name", "Last Name", "Phone"},
		{"Jordan", "Rivera", ""},
		{"Morgan", "Lee", ""},
	})
	_, err = env.flow.ImportSession(context.Background(), &dto.ImportCallSessionRequest{
		UserID:      "user-1",
		SessionName: "Fall Outreach",
		File:        noPhones,
	}, nil)
	assert.True(t, IsImportEmpty(err))
}

func TestImportSessionRejectsUnreadableFile(t *testing.T) {
	// Test that a non-XLSX upload fails cleanly
	env := newSessionEnv()

	_, err := env.flow.ImportSession(context.Background(), &dto.ImportCallSessionRequest{
		UserID:      "user-1",
		SessionName: "Fall Outreach",
		File:        []byte("not a workbook"),
	}, nil)
	assert.Error(t, err)
}

func TestListSessionsScopedToUser(t *testing.T) {
	// Test that users see their own sessions and admins see all of them
	env := newSessionEnv()
	env.sessionRepo.add(&models.CallSession{UUID: uuid.New(), Name: "Mine", UserID: "user-1"})
	env.sessionRepo.add(&models.CallSession{UUID: uuid.New(), Name: "Theirs", UserID: "user-2"})

	resp, err := env.flow.ListSessions(context.Background(), &dto.ListCallSessionsRequest{
		UserID: "user-1",
	}, nil)
	require.NoError(t, err)
	require.Len(t, resp.Sessions, 1)
	assert.Equal(t, "Mine", resp.Sessions[0].Name)

	resp, err = env.flow.ListSessions(context.Background(), &dto.ListCallSessionsRequest{
		UserID:  "admin-1",
		IsAdmin: true,
	}, nil)
	require.NoError(t, err)
	assert.Len(t, resp.Sessions, 2)
}
