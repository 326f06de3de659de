package handlers

import (
	"context"
	"errors"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/occsec/secure-dialer/app/dto"
	businessflow "github.com/occsec/secure-dialer/business_flow"
	"github.com/occsec/secure-dialer/utils"
)

// ContactHandlerInterface defines the contract for contact handlers
type ContactHandlerInterface interface {
	ListContacts(c fiber.Ctx) error
	UpdateContact(c fiber.Ctx) error
	StatusSummary(c fiber.Ctx) error
}

// ContactHandler handles contact-related HTTP requests
type ContactHandler struct {
	contactFlow businessflow.ContactFlow
	validator   *validator.Validate
}

// NewContactHandler creates a new contact handler
func NewContactHandler(contactFlow businessflow.ContactFlow) *ContactHandler {
	return &ContactHandler{
		contactFlow: contactFlow,
		validator:   validator.New(),
	}
}

func (h *ContactHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: &dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *ContactHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ListContacts returns the caller's contacts with masked display fields
func (h *ContactHandler) ListContacts(c fiber.Ctx) error {
	userID, ok := authenticatedUserID(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	req := dto.ListContactsRequest{
		UserID:   userID,
		Page:     fiber.Query(c, "page", 1),
		PageSize: fiber.Query(c, "page_size", 100),
	}
	if v := c.Query("call_session_uuid"); v != "" {
		req.CallSessionUUID = &v
	}
	if v := c.Query("status"); v != "" {
		req.Status = &v
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrorMessages(err))
	}

	result, err := h.contactFlow.ListContacts(h.createRequestContext(c, "/api/v1/contacts"), &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsCallSessionNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Call session not found", "CALL_SESSION_NOT_FOUND", nil)
		}
		if businessflow.IsCallSessionAccessDenied(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Call session access denied", "CALL_SESSION_ACCESS_DENIED", nil)
		}

		log.Println("Listing contacts failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list contacts", "LIST_CONTACTS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Contacts retrieved successfully", result)
}

// UpdateContact applies a partial update to a contact. Call status cannot be
// changed here; it only moves through dispatch.
func (h *ContactHandler) UpdateContact(c fiber.Ctx) error {
	contactUUID := c.Params("uuid")
	if contactUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Contact UUID is required", "MISSING_CONTACT_UUID", nil)
	}

	userID, ok := authenticatedUserID(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	var req dto.UpdateContactRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.UUID = contactUUID
	req.UserID = userID

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrorMessages(err))
	}

	result, err := h.contactFlow.UpdateContact(h.createRequestContext(c, "/api/v1/contacts/"+contactUUID), &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsContactNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Contact not found", "CONTACT_NOT_FOUND", nil)
		}
		if businessflow.IsContactAccessDenied(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Contact access denied", "CONTACT_ACCESS_DENIED", nil)
		}
		if errors.Is(err, businessflow.ErrContactUpdateEmpty) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "At least one field must be provided", "EMPTY_UPDATE", nil)
		}
		if errors.Is(err, businessflow.ErrInvalidAttendance) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid attendance status", "INVALID_ATTENDANCE", nil)
		}

		log.Println("Contact update failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update contact", "UPDATE_CONTACT_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, fiber.Map{
		"contact": result.Contact,
	})
}

// StatusSummary returns recomputed aggregate status counts
func (h *ContactHandler) StatusSummary(c fiber.Ctx) error {
	userID, ok := authenticatedUserID(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	req := dto.StatusSummaryRequest{UserID: userID}
	if v := c.Query("call_session_uuid"); v != "" {
		req.CallSessionUUID = &v
	}

	result, err := h.contactFlow.StatusSummary(h.createRequestContext(c, "/api/v1/contacts/summary"), &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsCallSessionNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Call session not found", "CALL_SESSION_NOT_FOUND", nil)
		}
		if businessflow.IsCallSessionAccessDenied(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Call session access denied", "CALL_SESSION_ACCESS_DENIED", nil)
		}

		log.Println("Status summary failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to compute status summary", "STATUS_SUMMARY_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Status summary computed successfully", result)
}

func (h *ContactHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	ctx := context.WithValue(context.Background(), utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	return ctx
}
