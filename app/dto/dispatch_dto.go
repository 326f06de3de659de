package dto

// DispatchCallRequest represents the request to place an outbound call
type DispatchCallRequest struct {
	ContactUUID string `json:"-"`
	UserID      string `json:"-"`
}

// DispatchTextRequest represents the request to send an outbound text
type DispatchTextRequest struct {
	ContactUUID string `json:"-"`
	UserID      string `json:"-"`
}

// DispatchResponse represents the outcome of a dispatch attempt
type DispatchResponse struct {
	Message string          `json:"message"`
	Outcome string          `json:"outcome"`
	Contact ContactResponse `json:"contact"`
}
