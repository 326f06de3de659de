package businessflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/occsec/secure-dialer/app/dto"
	"github.com/occsec/secure-dialer/app/services"
	"github.com/occsec/secure-dialer/repository"
)

// SettingsFlow manages per-user telephony settings, currently the caller
// number used as the outbound line.
type SettingsFlow interface {
	GetCallerNumber(ctx context.Context, req *dto.GetCallerNumberRequest, metadata *ClientMetadata) (*dto.CallerNumberResponse, error)
	SetCallerNumber(ctx context.Context, req *dto.SetCallerNumberRequest, metadata *ClientMetadata) (*dto.SetCallerNumberResponse, error)
}

// SettingsFlowImpl implements the settings flow
type SettingsFlowImpl struct {
	settingsRepo repository.TelephonySettingsRepository
	telephony    services.TelephonyService
}

// NewSettingsFlow creates a new settings flow instance
func NewSettingsFlow(settingsRepo repository.TelephonySettingsRepository, telephony services.TelephonyService) SettingsFlow {
	return &SettingsFlowImpl{
		settingsRepo: settingsRepo,
		telephony:    telephony,
	}
}

// GetCallerNumber returns the user's configured caller number, falling back
// to the provider default when none is set.
func (f *SettingsFlowImpl) GetCallerNumber(ctx context.Context, req *dto.GetCallerNumberRequest, metadata *ClientMetadata) (*dto.CallerNumberResponse, error) {
	settings, err := f.settingsRepo.ByUserID(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load telephony settings: %w", err)
	}
	if settings != nil && settings.CallerNumber != "" {
		return &dto.CallerNumberResponse{
			CallerNumber: settings.CallerNumber,
			IsDefault:    false,
		}, nil
	}

	cfg, err := f.telephony.FetchConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTelephonyConfigMissing, err)
	}
	return &dto.CallerNumberResponse{
		CallerNumber: cfg.FromNumber,
		IsDefault:    true,
	}, nil
}

// SetCallerNumber stores the user's caller number, replacing any previous
// value.
func (f *SettingsFlowImpl) SetCallerNumber(ctx context.Context, req *dto.SetCallerNumberRequest, metadata *ClientMetadata) (*dto.SetCallerNumberResponse, error) {
	number := strings.TrimSpace(req.CallerNumber)
	if number == "" {
		return nil, ErrCallerNumberMissing
	}

	if err := f.settingsRepo.Upsert(ctx, req.UserID, number); err != nil {
		return nil, fmt.Errorf("failed to save caller number: %w", err)
	}

	return &dto.SetCallerNumberResponse{
		Message:      "Caller number updated successfully",
		CallerNumber: number,
	}, nil
}
