package businessflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/occsec/secure-dialer/app/dto"
	"github.com/occsec/secure-dialer/app/services"
	"github.com/occsec/secure-dialer/models"
	"github.com/occsec/secure-dialer/repository"
	"github.com/occsec/secure-dialer/utils"
)

var dispatchTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "secure_dialer_dispatch_total",
		Help: "Total dispatch attempts by channel and recorded outcome",
	},
	[]string{"channel", "outcome"},
)

// DispatchFlow drives outbound calls and texts: provider configuration
// fetch, message resolution, the provider request, the status write, and
// the audit entry. A contact has at most one dispatch in flight; that guard
// is the only concurrency control in the pipeline.
type DispatchFlow interface {
	DispatchCall(ctx context.Context, req *dto.DispatchCallRequest, metadata *ClientMetadata) (*dto.DispatchResponse, error)
	DispatchText(ctx context.Context, req *dto.DispatchTextRequest, metadata *ClientMetadata) (*dto.DispatchResponse, error)
}

// DispatchFlowImpl implements the dispatch pipeline
type DispatchFlowImpl struct {
	contactFlow  ContactFlow
	smsRepo      repository.CallSessionSMSRepository
	settingsRepo repository.TelephonySettingsRepository
	auditRepo    repository.AuditLogRepository
	telephony    services.TelephonyService
	guard        *dispatchGuard
	timeout      time.Duration
}

// NewDispatchFlow creates a new dispatch flow instance. timeout bounds one
// full dispatch; zero selects the default.
func NewDispatchFlow(
	contactFlow ContactFlow,
	smsRepo repository.CallSessionSMSRepository,
	settingsRepo repository.TelephonySettingsRepository,
	auditRepo repository.AuditLogRepository,
	telephony services.TelephonyService,
	timeout time.Duration,
) DispatchFlow {
	if timeout <= 0 {
		timeout = utils.DefaultDispatchTimeout
	}
	return &DispatchFlowImpl{
		contactFlow:  contactFlow,
		smsRepo:      smsRepo,
		settingsRepo: settingsRepo,
		auditRepo:    auditRepo,
		telephony:    telephony,
		guard:        newDispatchGuard(),
		timeout:      timeout,
	}
}

// DispatchCall places an outbound call to the contact and records the
// outcome. The provider receives the raw stored phone number.
func (f *DispatchFlowImpl) DispatchCall(ctx context.Context, req *dto.DispatchCallRequest, metadata *ClientMetadata) (*dto.DispatchResponse, error) {
	contact, err := f.contactFlow.GetOwnedContact(ctx, req.ContactUUID, req.UserID)
	if err != nil {
		return nil, err
	}
	if contact.Phone == "" {
		f.auditDispatch(ctx, models.AuditActionCallDispatchFailed, req.UserID, contact.ID, ErrContactPhoneRequired, metadata)
		return nil, ErrContactPhoneRequired
	}

	if !f.guard.acquire(contact.ID) {
		return nil, ErrDispatchInFlight
	}
	defer f.guard.release(contact.ID)

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	from, err := f.callerNumber(ctx, req.UserID)
	if err != nil {
		f.auditDispatch(ctx, models.AuditActionCallDispatchFailed, req.UserID, contact.ID, err, metadata)
		return nil, err
	}

	outcome, callErr := f.telephony.SendVoiceCall(ctx, from, contact.Phone)
	status := models.OutcomeStatus(models.DispatchChannelVoice, outcome)

	updated, recordErr := f.contactFlow.RecordDispatchStatus(ctx, contact, status, true)
	if recordErr != nil {
		return nil, recordErr
	}
	dispatchTotal.WithLabelValues(string(models.DispatchChannelVoice), string(status)).Inc()

	if callErr != nil {
		f.auditDispatch(ctx, models.AuditActionCallDispatchFailed, req.UserID, contact.ID, callErr, metadata)
		return nil, fmt.Errorf("%w: %v", ErrProviderDispatchFailed, callErr)
	}

	f.auditDispatch(ctx, models.AuditActionCallDispatched, req.UserID, contact.ID, nil, metadata)
	return &dto.DispatchResponse{
		Message: "Call dispatched successfully",
		Outcome: string(outcome),
		Contact: ToContactResponse(updated, nil),
	}, nil
}

// DispatchText sends the session's text message, or the default template,
// to the contact and records the outcome.
func (f *DispatchFlowImpl) DispatchText(ctx context.Context, req *dto.DispatchTextRequest, metadata *ClientMetadata) (*dto.DispatchResponse, error) {
	contact, err := f.contactFlow.GetOwnedContact(ctx, req.ContactUUID, req.UserID)
	if err != nil {
		return nil, err
	}
	if contact.Phone == "" {
		f.auditDispatch(ctx, models.AuditActionTextDispatchFailed, req.UserID, contact.ID, ErrContactPhoneRequired, metadata)
		return nil, ErrContactPhoneRequired
	}

	if !f.guard.acquire(contact.ID) {
		return nil, ErrDispatchInFlight
	}
	defer f.guard.release(contact.ID)

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	from, err := f.callerNumber(ctx, req.UserID)
	if err != nil {
		f.auditDispatch(ctx, models.AuditActionTextDispatchFailed, req.UserID, contact.ID, err, metadata)
		return nil, err
	}

	message, err := f.resolveMessage(ctx, contact)
	if err != nil {
		f.auditDispatch(ctx, models.AuditActionTextDispatchFailed, req.UserID, contact.ID, err, metadata)
		return nil, err
	}

	sendErr := f.telephony.SendText(ctx, from, contact.Phone, message)

	var outcome models.DispatchOutcome
	if sendErr != nil {
		outcome = models.DispatchOutcomeFailed
	} else {
		outcome = models.DispatchOutcomeSent
	}
	status := models.OutcomeStatus(models.DispatchChannelText, outcome)

	updated, recordErr := f.contactFlow.RecordDispatchStatus(ctx, contact, status, false)
	if recordErr != nil {
		return nil, recordErr
	}
	dispatchTotal.WithLabelValues(string(models.DispatchChannelText), string(status)).Inc()

	if sendErr != nil {
		f.auditDispatch(ctx, models.AuditActionTextDispatchFailed, req.UserID, contact.ID, sendErr, metadata)
		if services.IsCapabilityMismatch(sendErr) {
			return nil, fmt.Errorf("%w: %v", ErrSMSCapabilityMissing, sendErr)
		}
		return nil, fmt.Errorf("%w: %v", ErrProviderDispatchFailed, sendErr)
	}

	f.auditDispatch(ctx, models.AuditActionTextDispatched, req.UserID, contact.ID, nil, metadata)
	return &dto.DispatchResponse{
		Message: "Text dispatched successfully",
		Outcome: string(outcome),
		Contact: ToContactResponse(updated, nil),
	}, nil
}

// callerNumber resolves the outbound number: the user's configured caller
// number when present, the provider default otherwise. A missing or
// unusable provider configuration fails the dispatch before any provider
// request is made.
func (f *DispatchFlowImpl) callerNumber(ctx context.Context, userID string) (string, error) {
	cfg, err := f.telephony.FetchConfig(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTelephonyConfigMissing, err)
	}

	settings, err := f.settingsRepo.ByUserID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to load telephony settings: %w", err)
	}
	if settings != nil && settings.CallerNumber != "" {
		return settings.CallerNumber, nil
	}
	if cfg.FromNumber == "" {
		return "", ErrCallerNumberMissing
	}
	return cfg.FromNumber, nil
}

// resolveMessage picks the session's custom text when one exists, falling
// back to the default template. The first name substitution uses the raw
// stored name, not the masked display form.
func (f *DispatchFlowImpl) resolveMessage(ctx context.Context, contact *models.Contact) (string, error) {
	template := utils.DefaultSMSTemplate
	if contact.CallSessionID != nil {
		record, err := f.smsRepo.BySessionID(ctx, *contact.CallSessionID)
		if err != nil {
			return "", fmt.Errorf("failed to load session sms content: %w", err)
		}
		if record != nil && record.SMSContent != "" {
			template = record.SMSContent
		}
	}
	return strings.ReplaceAll(template, utils.SMSFirstNamePlaceholder, contact.FirstName), nil
}

func (f *DispatchFlowImpl) auditDispatch(ctx context.Context, action, userID string, contactID uint, opErr error, metadata *ClientMetadata) {
	saveAuditLog(ctx, f.auditRepo, action, userID, &contactID, opErr == nil, opErr, metadata, nil)
}
