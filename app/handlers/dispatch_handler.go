package handlers

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v3"

	"github.com/occsec/secure-dialer/app/dto"
	businessflow "github.com/occsec/secure-dialer/business_flow"
	"github.com/occsec/secure-dialer/utils"
)

// DispatchHandlerInterface defines the contract for dispatch handlers
type DispatchHandlerInterface interface {
	DispatchCall(c fiber.Ctx) error
	DispatchText(c fiber.Ctx) error
}

// DispatchHandler handles outbound call and text HTTP requests
type DispatchHandler struct {
	dispatchFlow businessflow.DispatchFlow
}

// NewDispatchHandler creates a new dispatch handler
func NewDispatchHandler(dispatchFlow businessflow.DispatchFlow) *DispatchHandler {
	return &DispatchHandler{
		dispatchFlow: dispatchFlow,
	}
}

func (h *DispatchHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: &dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *DispatchHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// DispatchCall places an outbound call to a contact
func (h *DispatchHandler) DispatchCall(c fiber.Ctx) error {
	contactUUID := c.Params("uuid")
	if contactUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Contact UUID is required", "MISSING_CONTACT_UUID", nil)
	}

	userID, ok := authenticatedUserID(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	req := dto.DispatchCallRequest{
		ContactUUID: contactUUID,
		UserID:      userID,
	}

	result, err := h.dispatchFlow.DispatchCall(h.createRequestContext(c, "/api/v1/contacts/"+contactUUID+"/call"), &req, clientMetadata(c))
	if err != nil {
		return h.dispatchErrorResponse(c, "Call dispatch failed", err)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, fiber.Map{
		"outcome": result.Outcome,
		"contact": result.Contact,
	})
}

// DispatchText sends the session's text message to a contact
func (h *DispatchHandler) DispatchText(c fiber.Ctx) error {
	contactUUID := c.Params("uuid")
	if contactUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Contact UUID is required", "MISSING_CONTACT_UUID", nil)
	}

	userID, ok := authenticatedUserID(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	req := dto.DispatchTextRequest{
		ContactUUID: contactUUID,
		UserID:      userID,
	}

	result, err := h.dispatchFlow.DispatchText(h.createRequestContext(c, "/api/v1/contacts/"+contactUUID+"/text"), &req, clientMetadata(c))
	if err != nil {
		return h.dispatchErrorResponse(c, "Text dispatch failed", err)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, fiber.Map{
		"outcome": result.Outcome,
		"contact": result.Contact,
	})
}

func (h *DispatchHandler) dispatchErrorResponse(c fiber.Ctx, message string, err error) error {
	if businessflow.IsContactNotFound(err) {
		return h.ErrorResponse(c, fiber.StatusNotFound, "Contact not found", "CONTACT_NOT_FOUND", nil)
	}
	if businessflow.IsContactAccessDenied(err) {
		return h.ErrorResponse(c, fiber.StatusForbidden, "Contact access denied", "CONTACT_ACCESS_DENIED", nil)
	}
	if businessflow.IsContactPhoneRequired(err) {
		return h.ErrorResponse(c, fiber.StatusUnprocessableEntity, "The contact has no phone number", "CONTACT_PHONE_MISSING", nil)
	}
	if businessflow.IsDispatchInFlight(err) {
		return h.ErrorResponse(c, fiber.StatusConflict, "A dispatch for this contact is already in flight", "DISPATCH_IN_FLIGHT", nil)
	}
	if businessflow.IsTelephonyConfigMissing(err) {
		return h.ErrorResponse(c, fiber.StatusServiceUnavailable, "Telephony configuration is unavailable", "TELEPHONY_CONFIG_MISSING", nil)
	}
	if businessflow.IsSMSCapabilityMissing(err) {
		return h.ErrorResponse(c, fiber.StatusUnprocessableEntity, "The outbound number cannot send text messages", "SMS_CAPABILITY_MISSING", nil)
	}
	if businessflow.IsProviderDispatchFailed(err) {
		return h.ErrorResponse(c, fiber.StatusBadGateway, "The telephony provider rejected the dispatch", "PROVIDER_DISPATCH_FAILED", nil)
	}

	log.Println(message, err)
	return h.ErrorResponse(c, fiber.StatusInternalServerError, message, "DISPATCH_FAILED", nil)
}

func (h *DispatchHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	ctx := context.WithValue(context.Background(), utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	return ctx
}
