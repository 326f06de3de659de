// Package services provides external service integrations and technical concerns like telephony and tokens
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/occsec/secure-dialer/config"
	"github.com/occsec/secure-dialer/models"
	"github.com/occsec/secure-dialer/utils"
)

// Telephony service error constants
var (
	ErrProviderConfigUnavailable = errors.New("telephony provider configuration unavailable")
)

// ProviderCodeFeatureNotAvailable is the provider error code returned when the
// outbound number lacks the capability for the attempted channel (SMS not
// enabled on the line).
const ProviderCodeFeatureNotAvailable = "FeatureNotAvailable"

// ProviderConfig is the credential set fetched per dispatch from the trusted
// configuration endpoint. It is never persisted by this service.
type ProviderConfig struct {
	ClientID   string `json:"clientId"`
	ServerURL  string `json:"serverUrl"`
	Username   string `json:"username"`
	FromNumber string `json:"fromNumber"`
}

// Usable reports whether the config is complete enough to dispatch with.
func (c *ProviderConfig) Usable() bool {
	return c != nil && c.ServerURL != "" && c.ClientID != "" && c.FromNumber != ""
}

// ProviderError carries a provider-defined error code from a failed dispatch.
type ProviderError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("provider error %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("provider error %s (HTTP %d)", e.Code, e.StatusCode)
}

// IsCapabilityMismatch reports whether err is the provider telling us the line
// cannot serve the attempted channel.
func IsCapabilityMismatch(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Code == ProviderCodeFeatureNotAvailable
}

// TelephonyService handles outbound voice and text dispatch through the
// external provider.
type TelephonyService interface {
	// FetchConfig retrieves the provider configuration from the trusted
	// endpoint, briefly cached. Returns ErrProviderConfigUnavailable when
	// nothing usable can be obtained.
	FetchConfig(ctx context.Context) (*ProviderConfig, error)
	SendVoiceCall(ctx context.Context, from, to string) (models.DispatchOutcome, error)
	SendText(ctx context.Context, from, to, message string) error
}

// TelephonyServiceImpl implements TelephonyService against a RingCentral-style
// REST API.
type TelephonyServiceImpl struct {
	config *config.TelephonyConfig
	client *http.Client

	mu          sync.Mutex
	cachedCfg   *ProviderConfig
	cachedUntil time.Time
}

// NewTelephonyService creates a new telephony service instance
func NewTelephonyService(cfg *config.TelephonyConfig) TelephonyService {
	return &TelephonyServiceImpl{
		config: cfg,
		client: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
	}
}

// FetchConfig retrieves the provider configuration, serving a cached copy
// while it is still fresh.
func (s *TelephonyServiceImpl) FetchConfig(ctx context.Context) (*ProviderConfig, error) {
	s.mu.Lock()
	if s.cachedCfg != nil && time.Now().Before(s.cachedUntil) {
		cfg := s.cachedCfg
		s.mu.Unlock()
		return cfg, nil
	}
	s.mu.Unlock()

	if s.config.ConfigEndpoint == "" {
		return nil, ErrProviderConfigUnavailable
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.config.ConfigEndpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create config request: %w", err)
	}
	if s.config.ConfigAPIKey != "" {
		req.Header.Set("x-api-key", s.config.ConfigAPIKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderConfigUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: config endpoint returned HTTP %d", ErrProviderConfigUnavailable, resp.StatusCode)
	}

	var cfg ProviderConfig
	if err := json.NewDecoder(resp.Body).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderConfigUnavailable, err)
	}
	if !cfg.Usable() {
		return nil, ErrProviderConfigUnavailable
	}

	ttl := s.config.ConfigCacheTTL
	if ttl <= 0 {
		ttl = utils.ProviderConfigCacheTTL
	}

	s.mu.Lock()
	s.cachedCfg = &cfg
	s.cachedUntil = time.Now().Add(ttl)
	s.mu.Unlock()

	return &cfg, nil
}

type ringOutRequest struct {
	From       phoneNumber `json:"from"`
	To         phoneNumber `json:"to"`
	PlayPrompt bool        `json:"playPrompt"`
}

type phoneNumber struct {
	PhoneNumber string `json:"phoneNumber"`
}

type ringOutResponse struct {
	Status struct {
		CallStatus string `json:"callStatus"`
	} `json:"status"`
}

type smsRequest struct {
	From phoneNumber   `json:"from"`
	To   []phoneNumber `json:"to"`
	Text string        `json:"text"`
}

type providerErrorResponse struct {
	ErrorCode string `json:"errorCode"`
	Message   string `json:"message"`
}

// SendVoiceCall initiates a ring-out call and interprets the provider's call
// status. The to number must be the raw stored value, never a masked one.
func (s *TelephonyServiceImpl) SendVoiceCall(ctx context.Context, from, to string) (models.DispatchOutcome, error) {
	cfg, err := s.FetchConfig(ctx)
	if err != nil {
		return models.DispatchOutcomeFailed, err
	}

	body, err := json.Marshal(ringOutRequest{
		From: phoneNumber{PhoneNumber: from},
		To:   phoneNumber{PhoneNumber: to},
	})
	if err != nil {
		return models.DispatchOutcomeFailed, fmt.Errorf("failed to marshal ring-out request: %w", err)
	}

	url := strings.TrimRight(cfg.ServerURL, "/") + "/restapi/v1.0/account/~/extension/~/ring-out"
	resp, err := s.post(ctx, cfg, url, body)
	if err != nil {
		return models.DispatchOutcomeFailed, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.DispatchOutcomeFailed, decodeProviderError(resp)
	}

	var out ringOutResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return models.DispatchOutcomeFailed, fmt.Errorf("failed to decode ring-out response: %w", err)
	}

	if strings.EqualFold(out.Status.CallStatus, "Busy") {
		return models.DispatchOutcomeBusy, nil
	}
	return models.DispatchOutcomeConnected, nil
}

// SendText sends a single SMS through the provider.
func (s *TelephonyServiceImpl) SendText(ctx context.Context, from, to, message string) error {
	cfg, err := s.FetchConfig(ctx)
	if err != nil {
		return err
	}

	body, err := json.Marshal(smsRequest{
		From: phoneNumber{PhoneNumber: from},
		To:   []phoneNumber{{PhoneNumber: to}},
		Text: message,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal sms request: %w", err)
	}

	url := strings.TrimRight(cfg.ServerURL, "/") + "/restapi/v1.0/account/~/extension/~/sms"
	resp, err := s.post(ctx, cfg, url, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeProviderError(resp)
	}
	return nil
}

func (s *TelephonyServiceImpl) post(ctx context.Context, cfg *ProviderConfig, url string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create provider request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Client-Id", cfg.ClientID)
	req.Header.Set("X-Username", cfg.Username)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider request failed: %w", err)
	}
	return resp, nil
}

func decodeProviderError(resp *http.Response) error {
	var body providerErrorResponse
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if body.ErrorCode == "" {
		body.ErrorCode = fmt.Sprintf("HTTP_%d", resp.StatusCode)
	}
	return &ProviderError{
		StatusCode: resp.StatusCode,
		Code:       body.ErrorCode,
		Message:    body.Message,
	}
}

// MockTelephonyService implements TelephonyService for testing
type MockTelephonyService struct {
	mu sync.Mutex

	Config      *ProviderConfig
	ConfigErr   error
	CallOutcome models.DispatchOutcome
	CallErr     error
	TextErr     error
	// CallDelay, when set, makes each dispatch block before resolving so
	// tests can overlap attempts deterministically.
	CallDelay time.Duration

	Calls []MockDispatch
	Texts []MockDispatch
}

// MockDispatch records one mock provider invocation
type MockDispatch struct {
	From    string
	To      string
	Message string
	SentAt  time.Time
}

// NewMockTelephonyService creates a mock with a usable default config
func NewMockTelephonyService() *MockTelephonyService {
	return &MockTelephonyService{
		Config: &ProviderConfig{
			ClientID:   "mock-client",
			ServerURL:  "https://mock.invalid",
			Username:   "mock",
			FromNumber: "+15550000000",
		},
		CallOutcome: models.DispatchOutcomeConnected,
	}
}

func (m *MockTelephonyService) FetchConfig(ctx context.Context) (*ProviderConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ConfigErr != nil {
		return nil, m.ConfigErr
	}
	if m.Config == nil {
		return nil, ErrProviderConfigUnavailable
	}
	return m.Config, nil
}

func (m *MockTelephonyService) SendVoiceCall(ctx context.Context, from, to string) (models.DispatchOutcome, error) {
	m.delay()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, MockDispatch{From: from, To: to, SentAt: utils.UTCNow()})
	if m.CallErr != nil {
		return models.DispatchOutcomeFailed, m.CallErr
	}
	return m.CallOutcome, nil
}

func (m *MockTelephonyService) SendText(ctx context.Context, from, to, message string) error {
	m.delay()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Texts = append(m.Texts, MockDispatch{From: from, To: to, Message: message, SentAt: utils.UTCNow()})
	return m.TextErr
}

func (m *MockTelephonyService) delay() {
	m.mu.Lock()
	d := m.CallDelay
	m.mu.Unlock()
	if d > 0 {
		time.Sleep(d)
	}
}

// InvocationCount returns the total number of provider invocations recorded
func (m *MockTelephonyService) InvocationCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls) + len(m.Texts)
}
