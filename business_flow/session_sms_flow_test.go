package businessflow

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/occsec/secure-dialer/app/dto"
	"github.com/occsec/secure-dialer/models"
	"github.com/occsec/secure-dialer/utils"
)

type smsEnv struct {
	sessionRepo *fakeSessionRepo
	smsRepo     *fakeSessionSMSRepo
	auditRepo   *fakeAuditRepo
	flow        SessionSMSFlow
}

func newSMSEnv() *smsEnv {
	env := &smsEnv{
		sessionRepo: newFakeSessionRepo(),
		smsRepo:     newFakeSessionSMSRepo(),
		auditRepo:   newFakeAuditRepo(),
	}
	env.flow = NewSessionSMSFlow(env.sessionRepo, env.smsRepo, env.auditRepo, nil)
	return env
}

func (env *smsEnv) seedSession(userID string) *models.CallSession {
	session := &models.CallSession{UUID: uuid.New(), Name: "Fall Outreach", UserID: userID}
	env.sessionRepo.add(session)
	return session
}

func TestGetSessionSMSDefaultsWhenUnset(t *testing.T) {
	// Test that a session without custom content reports the default template
	env := newSMSEnv()
	session := env.seedSession("user-1")

	resp, err := env.flow.GetSessionSMS(context.Background(), &dto.GetSessionSMSRequest{
		SessionUUID: session.UUID.String(),
		UserID:      "user-1",
	}, nil)
	require.NoError(t, err)
	assert.True(t, resp.IsDefault)
	assert.Equal(t, utils.DefaultSMSTemplate, resp.SMSContent)
	assert.Nil(t, resp.UpdatedAt)
}

func TestSetAndGetSessionSMS(t *testing.T) {
	// Test the set-then-get round trip, content trimmed and no longer default
	env := newSMSEnv()
	session := env.seedSession("user-1")

	setResp, err := env.flow.SetSessionSMS(context.Background(), &dto.SetSessionSMSRequest{
		SessionUUID: session.UUID.String(),
		UserID:      "user-1",
		SMSContent:  "  Hi {firstName}, see you at the meeting.  ",
	}, nil)
	require.NoError(t, err)
	assert.False(t, setResp.IsDefault)
	assert.Equal(t, "Hi {firstName}, see you at the meeting.", setResp.SMSContent)

	getResp, err := env.flow.GetSessionSMS(context.Background(), &dto.GetSessionSMSRequest{
		SessionUUID: session.UUID.String(),
		UserID:      "user-1",
	}, nil)
	require.NoError(t, err)
	assert.False(t, getResp.IsDefault)
	assert.Equal(t, "Hi {firstName}, see you at the meeting.", getResp.SMSContent)
	assert.NotNil(t, getResp.UpdatedAt)

	assert.Contains(t, env.auditRepo.actions(), models.AuditActionSMSContentUpdated)
}

func TestSetSessionSMSReplacesPrevious(t *testing.T) {
	// Test that a second write replaces the first, one record per session
	env := newSMSEnv()
	session := env.seedSession("user-1")

	_, err := env.flow.SetSessionSMS(context.Background(), &dto.SetSessionSMSRequest{
		SessionUUID: session.UUID.String(),
		UserID:      "user-1",
		SMSContent:  "First version",
	}, nil)
	require.NoError(t, err)

	_, err = env.flow.SetSessionSMS(context.Background(), &dto.SetSessionSMSRequest{
		SessionUUID: session.UUID.String(),
		UserID:      "user-1",
		SMSContent:  "Second version",
	}, nil)
	require.NoError(t, err)

	record, err := env.smsRepo.BySessionID(context.Background(), session.ID)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "Second version", record.SMSContent)

	count, err := env.smsRepo.Count(context.Background(), models.CallSessionSMSFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestSetSessionSMSRejectsBlankContent(t *testing.T) {
	// Test that whitespace-only content is rejected
	env := newSMSEnv()
	session := env.seedSession("user-1")

	_, err := env.flow.SetSessionSMS(context.Background(), &dto.SetSessionSMSRequest{
		SessionUUID: session.UUID.String(),
		UserID:      "user-1",
		SMSContent:  "   ",
	}, nil)
	assert.ErrorIs(t, err, ErrSMSContentRequired)
}

func TestSessionSMSOwnership(t *testing.T) {
	// Test that session SMS access honors ownership, with an admin bypass
	env := newSMSEnv()
	session := env.seedSession("user-1")

	_, err := env.flow.GetSessionSMS(context.Background(), &dto.GetSessionSMSRequest{
		SessionUUID: session.UUID.String(),
		UserID:      "user-2",
	}, nil)
	assert.True(t, IsCallSessionAccessDenied(err))

	_, err = env.flow.GetSessionSMS(context.Background(), &dto.GetSessionSMSRequest{
		SessionUUID: session.UUID.String(),
		UserID:      "admin-1",
		IsAdmin:     true,
	}, nil)
	assert.NoError(t, err)

	_, err = env.flow.GetSessionSMS(context.Background(), &dto.GetSessionSMSRequest{
		SessionUUID: uuid.New().String(),
		UserID:      "user-1",
	}, nil)
	assert.True(t, IsCallSessionNotFound(err))
}
