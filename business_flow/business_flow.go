// Package businessflow contains the business logic for the application.
package businessflow

import (
	"context"
	"encoding/json"
	"log"

	"github.com/occsec/secure-dialer/app/dto"
	"github.com/occsec/secure-dialer/models"
	"github.com/occsec/secure-dialer/repository"
	"github.com/occsec/secure-dialer/utils"
)

// ClientMetadata holds all client-related information for audit logging
type ClientMetadata struct {
	IPAddress  string            `json:"ip_address"`
	UserAgent  string            `json:"user_agent"`
	RequestID  string            `json:"request_id,omitempty"`
	Additional map[string]string `json:"additional,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Additional: make(map[string]string),
	}
}

// AddAdditional adds additional custom information to the metadata
func (cm *ClientMetadata) AddAdditional(key, value string) {
	if cm.Additional == nil {
		cm.Additional = make(map[string]string)
	}
	cm.Additional[key] = value
}

// saveAuditLog records a best-effort audit entry. Audit failures are logged
// and never fail the operation they describe.
func saveAuditLog(ctx context.Context, auditRepo repository.AuditLogRepository, action, userID string, contactID *uint, success bool, opErr error, metadata *ClientMetadata, details map[string]any) {
	var payload json.RawMessage
	if len(details) > 0 {
		data, err := json.Marshal(details)
		if err != nil {
			log.Printf("failed to marshal audit metadata for %s: %v", action, err)
		} else {
			payload = data
		}
	}

	auditLog := &models.AuditLog{
		UserID:    &userID,
		ContactID: contactID,
		Action:    action,
		Metadata:  payload,
		Success:   &success,
	}
	if opErr != nil {
		auditLog.ErrorMessage = utils.ToPtr(opErr.Error())
	}
	if metadata != nil {
		if metadata.IPAddress != "" {
			auditLog.IPAddress = utils.ToPtr(metadata.IPAddress)
		}
		if metadata.UserAgent != "" {
			auditLog.UserAgent = utils.ToPtr(metadata.UserAgent)
		}
		if metadata.RequestID != "" {
			auditLog.RequestID = utils.ToPtr(metadata.RequestID)
		}
	}
	if err := auditRepo.Save(ctx, auditLog); err != nil {
		log.Printf("failed to save audit log for %s: %v", action, err)
	}
}

// ToContactResponse converts a contact to its display representation.
// Last name and phone are masked here; every read path goes through this
// converter so raw values never reach a response body.
func ToContactResponse(contact *models.Contact, sessionUUID *string) dto.ContactResponse {
	resp := dto.ContactResponse{
		UUID:            contact.UUID.String(),
		FirstName:       contact.FirstName,
		LastName:        utils.MaskLastName(contact.LastName),
		Phone:           utils.MaskPhoneNumber(contact.Phone),
		Email:           contact.Email,
		Attending:       string(contact.Attending),
		Comments:        contact.Comments,
		Status:          string(contact.Status),
		StatusUpdatedAt: contact.StatusUpdatedAt,
		LastCalled:      contact.LastCalled,
		CallInitiated:   contact.CallInitiated,
		CallSessionUUID: sessionUUID,
		CreatedAt:       utils.TimeToUTC(contact.CreatedAt),
		UpdatedAt:       utils.TimeToUTC(contact.UpdatedAt),
	}
	return resp
}

// ToCallSessionResponse converts a call session to its API representation
func ToCallSessionResponse(session *models.CallSession) dto.CallSessionResponse {
	return dto.CallSessionResponse{
		UUID:         session.UUID.String(),
		Name:         session.Name,
		ContactCount: session.ContactCount,
		CreatedAt:    utils.TimeToUTC(session.CreatedAt),
	}
}

// ToStatusSummaryResponse converts recomputed status counts to their API form
func ToStatusSummaryResponse(summary models.StatusSummary) dto.StatusSummaryResponse {
	return dto.StatusSummaryResponse{
		Total:      summary.Total,
		NotCalled:  summary.NotCalled,
		Called:     summary.Called,
		Busy:       summary.Busy,
		CallFailed: summary.CallFailed,
		TextSent:   summary.TextSent,
	}
}
