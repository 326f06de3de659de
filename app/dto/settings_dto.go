package dto

// GetCallerNumberRequest represents the request to read the user's caller number
type GetCallerNumberRequest struct {
	UserID string `json:"-"`
}

// CallerNumberResponse represents the user's configured caller number
type CallerNumberResponse struct {
	CallerNumber string `json:"caller_number"`
	IsDefault    bool   `json:"is_default"`
}

// SetCallerNumberRequest represents the request to set the user's caller number
type SetCallerNumberRequest struct {
	UserID       string `json:"-"`
	CallerNumber string `json:"caller_number" validate:"required,e164"`
}

// SetCallerNumberResponse represents the response to setting a caller number
type SetCallerNumberResponse struct {
	Message      string `json:"message"`
	CallerNumber string `json:"caller_number"`
}
