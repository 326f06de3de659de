package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/occsec/secure-dialer/config"
	"github.com/occsec/secure-dialer/models"
)

// fakeProvider stands in for the telephony REST API.
type fakeProvider struct {
	server       *httptest.Server
	callStatus   string
	smsStatus    int
	smsErrorCode string
	lastRingOut  map[string]any
	lastSMS      map[string]any
}

func newFakeProvider() *fakeProvider {
	p := &fakeProvider{callStatus: "InProgress", smsStatus: http.StatusOK}
	mux := http.NewServeMux()
	mux.HandleFunc("/restapi/v1.0/account/~/extension/~/ring-out", func(w http.ResponseWriter, r *http.Request) {
		p.lastRingOut = decodeBody(r)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": map[string]any{"callStatus": p.callStatus},
		})
	})
	mux.HandleFunc("/restapi/v1.0/account/~/extension/~/sms", func(w http.ResponseWriter, r *http.Request) {
		p.lastSMS = decodeBody(r)
		if p.smsStatus != http.StatusOK {
			w.WriteHeader(p.smsStatus)
			if p.smsErrorCode != "" {
				_ = json.NewEncoder(w).Encode(map[string]any{
					"errorCode": p.smsErrorCode,
					"message":   "feature is not available",
				})
			}
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"messageStatus": "Queued"})
	})
	p.server = httptest.NewServer(mux)
	return p
}

func decodeBody(r *http.Request) map[string]any {
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)
	return body
}

func newConfigServer(t *testing.T, providerURL string, hits *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		assert.Equal(t, "test-api-key", r.Header.Get("x-api-key"))
		_ = json.NewEncoder(w).Encode(ProviderConfig{
			ClientID:   "client-1",
			ServerURL:  providerURL,
			Username:   "dialer",
			FromNumber: "+15550000000",
		})
	}))
}

func newTelephonyUnderTest(configURL string) TelephonyService {
	return NewTelephonyService(&config.TelephonyConfig{
		ConfigEndpoint: configURL,
		ConfigAPIKey:   "test-api-key",
		ConfigCacheTTL: time.Minute,
		HTTPTimeout:    5 * time.Second,
	})
}

func TestFetchConfigCachesResult(t *testing.T) {
	// Test that the provider config is fetched once and then served from cache
	var hits int32
	configServer := newConfigServer(t, "https://provider.invalid", &hits)
	defer configServer.Close()

	service := newTelephonyUnderTest(configServer.URL)

	cfg, err := service.FetchConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "+15550000000", cfg.FromNumber)

	_, err = service.FetchConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestFetchConfigUnavailable(t *testing.T) {
	// Test that a missing endpoint and an unusable payload both fail
	service := newTelephonyUnderTest("")
	_, err := service.FetchConfig(context.Background())
	assert.ErrorIs(t, err, ErrProviderConfigUnavailable)

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(ProviderConfig{})
	}))
	defer empty.Close()

	service = newTelephonyUnderTest(empty.URL)
	_, err = service.FetchConfig(context.Background())
	assert.ErrorIs(t, err, ErrProviderConfigUnavailable)
}

func TestSendVoiceCallOutcomes(t *testing.T) {
	// Test the provider call status mapping to dispatch outcomes
	provider := newFakeProvider()
	defer provider.server.Close()
	configServer := newConfigServer(t, provider.server.URL, nil)
	defer configServer.Close()

	service := newTelephonyUnderTest(configServer.URL)

	outcome, err := service.SendVoiceCall(context.Background(), "+15550000000", "+15551234567")
	require.NoError(t, err)
	assert.Equal(t, models.DispatchOutcomeConnected, outcome)

	from, ok := provider.lastRingOut["from"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "+15550000000", from["phoneNumber"])

	provider.callStatus = "Busy"
	outcome, err = service.SendVoiceCall(context.Background(), "+15550000000", "+15551234567")
	require.NoError(t, err)
	assert.Equal(t, models.DispatchOutcomeBusy, outcome)
}

func TestSendTextSuccess(t *testing.T) {
	// Test a successful SMS send carrying the message text
	provider := newFakeProvider()
	defer provider.server.Close()
	configServer := newConfigServer(t, provider.server.URL, nil)
	defer configServer.Close()

	service := newTelephonyUnderTest(configServer.URL)

	err := service.SendText(context.Background(), "+15550000000", "+15551234567", "Hello Jordan")
	require.NoError(t, err)
	assert.Equal(t, "Hello Jordan", provider.lastSMS["text"])
}

func TestSendTextCapabilityMismatch(t *testing.T) {
	// Test that the FeatureNotAvailable provider code is recognizable
	provider := newFakeProvider()
	defer provider.server.Close()
	provider.smsStatus = http.StatusForbidden
	provider.smsErrorCode = ProviderCodeFeatureNotAvailable
	configServer := newConfigServer(t, provider.server.URL, nil)
	defer configServer.Close()

	service := newTelephonyUnderTest(configServer.URL)

	err := service.SendText(context.Background(), "+15550000000", "+15551234567", "Hello Jordan")
	require.Error(t, err)
	assert.True(t, IsCapabilityMismatch(err))
}

func TestSendTextProviderErrorWithoutCode(t *testing.T) {
	// Test that a provider failure without an error code falls back to the
	// HTTP status
	provider := newFakeProvider()
	defer provider.server.Close()
	provider.smsStatus = http.StatusInternalServerError
	configServer := newConfigServer(t, provider.server.URL, nil)
	defer configServer.Close()

	service := newTelephonyUnderTest(configServer.URL)

	err := service.SendText(context.Background(), "+15550000000", "+15551234567", "Hello Jordan")
	require.Error(t, err)
	assert.False(t, IsCapabilityMismatch(err))
	assert.Contains(t, err.Error(), "HTTP_500")
}
