package utils

import (
	"time"
)

// ContextKey is the type for request-scoped context values
type ContextKey string

// Request context keys
const (
	RequestIDKey ContextKey = "request_id"
	UserAgentKey ContextKey = "user_agent"
	IPAddressKey ContextKey = "ip_address"
	EndpointKey  ContextKey = "endpoint"
)

// Dispatch constants
const (
	// DefaultDispatchTimeout bounds a single provider call so a hung dispatch
	// cannot hold a contact in flight forever
	DefaultDispatchTimeout = 30 * time.Second

	// DefaultSMSTemplate is used for text dispatches when the owning call
	// session has no custom message. {firstName} expands to the contact's
	// raw first name.
	DefaultSMSTemplate = "Hello {firstName}, this is a message from OCC Secure Dialer."

	// SMSFirstNamePlaceholder is the substitution token in text templates
	SMSFirstNamePlaceholder = "{firstName}"

	// ProviderConfigCacheTTL is how long a fetched telephony provider
	// configuration stays usable before it must be re-fetched
	ProviderConfigCacheTTL = 5 * time.Minute
)
