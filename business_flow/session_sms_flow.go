package businessflow

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/occsec/secure-dialer/app/dto"
	"github.com/occsec/secure-dialer/models"
	"github.com/occsec/secure-dialer/repository"
	"github.com/occsec/secure-dialer/utils"
)

// sessionSMSCacheTTL bounds how long cached session text content stays
// fresh.
const sessionSMSCacheTTL = 5 * time.Minute

// SessionSMSFlow reads and writes the per-session text message content.
// Each session has at most one content record; writes upsert.
type SessionSMSFlow interface {
	GetSessionSMS(ctx context.Context, req *dto.GetSessionSMSRequest, metadata *ClientMetadata) (*dto.SessionSMSResponse, error)
	SetSessionSMS(ctx context.Context, req *dto.SetSessionSMSRequest, metadata *ClientMetadata) (*dto.SessionSMSResponse, error)
}

// SessionSMSFlowImpl implements the session SMS flow
type SessionSMSFlowImpl struct {
	sessionRepo repository.CallSessionRepository
	smsRepo     repository.CallSessionSMSRepository
	auditRepo   repository.AuditLogRepository
	redis       *redis.Client
}

// NewSessionSMSFlow creates a new session SMS flow instance. redisClient may
// be nil; content is then read from the store on every request.
func NewSessionSMSFlow(
	sessionRepo repository.CallSessionRepository,
	smsRepo repository.CallSessionSMSRepository,
	auditRepo repository.AuditLogRepository,
	redisClient *redis.Client,
) SessionSMSFlow {
	return &SessionSMSFlowImpl{
		sessionRepo: sessionRepo,
		smsRepo:     smsRepo,
		auditRepo:   auditRepo,
		redis:       redisClient,
	}
}

// GetSessionSMS returns the session's text content, or the default template
// when none has been set.
func (f *SessionSMSFlowImpl) GetSessionSMS(ctx context.Context, req *dto.GetSessionSMSRequest, metadata *ClientMetadata) (*dto.SessionSMSResponse, error) {
	session, err := ownedSessionForUser(ctx, f.sessionRepo, req.SessionUUID, req.UserID, req.IsAdmin)
	if err != nil {
		return nil, err
	}

	if cached := f.cachedContent(ctx, session.ID); cached != nil {
		return cached, nil
	}

	record, err := f.smsRepo.BySessionID(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session sms content: %w", err)
	}

	resp := &dto.SessionSMSResponse{
		SessionUUID: session.UUID.String(),
	}
	if record == nil || record.SMSContent == "" {
		resp.SMSContent = utils.DefaultSMSTemplate
		resp.IsDefault = true
	} else {
		resp.SMSContent = record.SMSContent
		resp.UpdatedAt = &record.UpdatedAt
	}

	f.cacheContent(ctx, session.ID, resp)
	return resp, nil
}

// SetSessionSMS stores the session's text content, replacing any previous
// record for the session.
func (f *SessionSMSFlowImpl) SetSessionSMS(ctx context.Context, req *dto.SetSessionSMSRequest, metadata *ClientMetadata) (*dto.SessionSMSResponse, error) {
	content := strings.TrimSpace(req.SMSContent)
	if content == "" {
		return nil, ErrSMSContentRequired
	}

	session, err := ownedSessionForUser(ctx, f.sessionRepo, req.SessionUUID, req.UserID, req.IsAdmin)
	if err != nil {
		return nil, err
	}

	if err := f.smsRepo.Upsert(ctx, session.ID, content); err != nil {
		return nil, fmt.Errorf("failed to save session sms content: %w", err)
	}

	saveAuditLog(ctx, f.auditRepo, models.AuditActionSMSContentUpdated, req.UserID, nil, true, nil, metadata, map[string]any{
		"session_uuid": session.UUID.String(),
	})

	resp := &dto.SessionSMSResponse{
		SessionUUID: session.UUID.String(),
		SMSContent:  content,
		IsDefault:   false,
		UpdatedAt:   utils.UTCNowPtr(),
	}
	f.cacheContent(ctx, session.ID, resp)
	return resp, nil
}

func sessionSMSCacheKey(sessionID uint) string {
	return fmt.Sprintf("session:sms:%d", sessionID)
}

// cachedContent returns the cached response for a session, or nil on a miss.
// Best effort; a redis failure reads through to the store.
func (f *SessionSMSFlowImpl) cachedContent(ctx context.Context, sessionID uint) *dto.SessionSMSResponse {
	if f.redis == nil {
		return nil
	}
	payload, err := f.redis.Get(ctx, sessionSMSCacheKey(sessionID)).Bytes()
	if err != nil {
		return nil
	}
	var resp dto.SessionSMSResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil
	}
	return &resp
}

func (f *SessionSMSFlowImpl) cacheContent(ctx context.Context, sessionID uint, resp *dto.SessionSMSResponse) {
	if f.redis == nil {
		return
	}
	payload, err := json.Marshal(resp)
	if err != nil {
		return
	}
	_ = f.redis.Set(ctx, sessionSMSCacheKey(sessionID), payload, sessionSMSCacheTTL).Err()
}
