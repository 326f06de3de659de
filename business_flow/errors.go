// Package businessflow contains the core business logic and use cases for outreach workflows
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Contact-related errors
	ErrContactNotFound      = errors.New("contact not found")
	ErrContactAccessDenied  = errors.New("contact access denied")
	ErrContactUpdateEmpty   = errors.New("at least one field must be provided for update")
	ErrInvalidCallStatus    = errors.New("invalid call status")
	ErrInvalidAttendance    = errors.New("invalid attendance status")
	ErrContactPhoneRequired = errors.New("contact phone number is required")

	// Call session errors
	ErrCallSessionNotFound     = errors.New("call session not found")
	ErrCallSessionAccessDenied = errors.New("call session access denied")
	ErrCallSessionNameRequired = errors.New("call session name is required")

	// Dispatch errors
	ErrTelephonyConfigMissing = errors.New("telephony configuration is missing or unusable")
	ErrProviderDispatchFailed = errors.New("provider dispatch failed")
	ErrSMSCapabilityMissing   = errors.New("outbound number cannot send text messages")
	ErrDispatchInFlight       = errors.New("a dispatch for this contact is already in flight")
	ErrCallerNumberMissing    = errors.New("no caller number configured")

	// SMS content errors
	ErrSMSContentRequired = errors.New("sms content is required")

	// Import errors
	ErrImportEmpty          = errors.New("import file contains no contacts")
	ErrImportMissingColumns = errors.New("import file is missing required columns")
	ErrImportTooLarge       = errors.New("import file exceeds the contact limit")

	// Filter errors
	ErrInvalidPage     = errors.New("page must be at least 1")
	ErrInvalidPageSize = errors.New("page size must be between 1 and 100")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func IsContactNotFound(err error) bool {
	return errors.Is(err, ErrContactNotFound)
}

func IsContactAccessDenied(err error) bool {
	return errors.Is(err, ErrContactAccessDenied)
}

func IsContactPhoneRequired(err error) bool {
	return errors.Is(err, ErrContactPhoneRequired)
}

func IsCallSessionNotFound(err error) bool {
	return errors.Is(err, ErrCallSessionNotFound)
}

func IsCallSessionAccessDenied(err error) bool {
	return errors.Is(err, ErrCallSessionAccessDenied)
}

func IsTelephonyConfigMissing(err error) bool {
	return errors.Is(err, ErrTelephonyConfigMissing)
}

func IsProviderDispatchFailed(err error) bool {
	return errors.Is(err, ErrProviderDispatchFailed)
}

func IsSMSCapabilityMissing(err error) bool {
	return errors.Is(err, ErrSMSCapabilityMissing)
}

func IsDispatchInFlight(err error) bool {
	return errors.Is(err, ErrDispatchInFlight)
}

func IsImportEmpty(err error) bool {
	return errors.Is(err, ErrImportEmpty)
}

func IsImportMissingColumns(err error) bool {
	return errors.Is(err, ErrImportMissingColumns)
}
