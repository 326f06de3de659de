package dto

// APIResponse is the envelope every dialer endpoint returns. Success
// responses carry Data; failures carry a typed Error so callers can branch
// on the code without sniffing the payload shape.
type APIResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    any          `json:"data,omitempty" validate:"omitempty"`
	Error   *ErrorDetail `json:"error,omitempty" validate:"omitempty"`
}

// ErrorDetail identifies a failure by machine-readable code. Details holds
// optional context such as validation field errors.
type ErrorDetail struct {
	Code    string `json:"code"`
	Details any    `json:"details,omitempty" validate:"omitempty"`
}
