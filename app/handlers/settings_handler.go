package handlers

import (
	"context"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/occsec/secure-dialer/app/dto"
	businessflow "github.com/occsec/secure-dialer/business_flow"
	"github.com/occsec/secure-dialer/utils"
)

// SettingsHandlerInterface defines the contract for settings handlers
type SettingsHandlerInterface interface {
	GetCallerNumber(c fiber.Ctx) error
	SetCallerNumber(c fiber.Ctx) error
}

// SettingsHandler handles telephony settings HTTP requests
type SettingsHandler struct {
	settingsFlow businessflow.SettingsFlow
	validator    *validator.Validate
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(settingsFlow businessflow.SettingsFlow) *SettingsHandler {
	return &SettingsHandler{
		settingsFlow: settingsFlow,
		validator:    validator.New(),
	}
}

func (h *SettingsHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: &dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *SettingsHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// GetCallerNumber returns the caller number used for the user's dispatches
func (h *SettingsHandler) GetCallerNumber(c fiber.Ctx) error {
	userID, ok := authenticatedUserID(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	req := dto.GetCallerNumberRequest{UserID: userID}

	result, err := h.settingsFlow.GetCallerNumber(h.createRequestContext(c, "/api/v1/settings/caller-number"), &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsTelephonyConfigMissing(err) {
			return h.ErrorResponse(c, fiber.StatusServiceUnavailable, "Telephony configuration is unavailable", "TELEPHONY_CONFIG_MISSING", nil)
		}

		log.Println("Getting caller number failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to get caller number", "GET_CALLER_NUMBER_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Caller number retrieved successfully", result)
}

// SetCallerNumber stores the user's caller number
func (h *SettingsHandler) SetCallerNumber(c fiber.Ctx) error {
	userID, ok := authenticatedUserID(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	var req dto.SetCallerNumberRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.UserID = userID

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrorMessages(err))
	}

	result, err := h.settingsFlow.SetCallerNumber(h.createRequestContext(c, "/api/v1/settings/caller-number"), &req, clientMetadata(c))
	if err != nil {
		log.Println("Setting caller number failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to set caller number", "SET_CALLER_NUMBER_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, fiber.Map{
		"caller_number": result.CallerNumber,
	})
}

func (h *SettingsHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	ctx := context.WithValue(context.Background(), utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	return ctx
}
