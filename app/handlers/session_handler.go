package handlers

import (
	"context"
	"errors"
	"io"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/occsec/secure-dialer/app/dto"
	businessflow "github.com/occsec/secure-dialer/business_flow"
	"github.com/occsec/secure-dialer/utils"
)

// maxImportFileSize bounds an uploaded contact list file.
const maxImportFileSize = 10 << 20

// SessionHandlerInterface defines the contract for call session handlers
type SessionHandlerInterface interface {
	ListSessions(c fiber.Ctx) error
	ImportSession(c fiber.Ctx) error
	GetSessionSMS(c fiber.Ctx) error
	SetSessionSMS(c fiber.Ctx) error
}

// SessionHandler handles call session HTTP requests
type SessionHandler struct {
	sessionFlow businessflow.CallSessionFlow
	smsFlow     businessflow.SessionSMSFlow
	validator   *validator.Validate
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionFlow businessflow.CallSessionFlow, smsFlow businessflow.SessionSMSFlow) *SessionHandler {
	return &SessionHandler{
		sessionFlow: sessionFlow,
		smsFlow:     smsFlow,
		validator:   validator.New(),
	}
}

func (h *SessionHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: &dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *SessionHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ListSessions returns the caller's call sessions, newest first
func (h *SessionHandler) ListSessions(c fiber.Ctx) error {
	userID, ok := authenticatedUserID(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	req := dto.ListCallSessionsRequest{
		UserID:  userID,
		IsAdmin: isAdminUser(c),
	}

	result, err := h.sessionFlow.ListSessions(h.createRequestContext(c, "/api/v1/sessions"), &req, clientMetadata(c))
	if err != nil {
		log.Println("Listing call sessions failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list call sessions", "LIST_SESSIONS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Call sessions retrieved successfully", result)
}

// ImportSession creates a call session from an uploaded XLSX contact list
func (h *SessionHandler) ImportSession(c fiber.Ctx) error {
	userID, ok := authenticatedUserID(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Contact list file is required", "MISSING_FILE", nil)
	}
	if fileHeader.Size > maxImportFileSize {
		return h.ErrorResponse(c, fiber.StatusRequestEntityTooLarge, "Contact list file is too large", "FILE_TOO_LARGE", nil)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Failed to open uploaded file", "INVALID_FILE", nil)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Failed to read uploaded file", "INVALID_FILE", nil)
	}

	req := dto.ImportCallSessionRequest{
		UserID:      userID,
		SessionName: c.FormValue("name"),
		FileName:    fileHeader.Filename,
		File:        content,
	}

	metadata := clientMetadata(c)
	metadata.AddAdditional("file_name", fileHeader.Filename)

	result, err := h.sessionFlow.ImportSession(h.createRequestContext(c, "/api/v1/sessions/import"), &req, metadata)
	if err != nil {
		if businessflow.IsImportEmpty(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "The contact list contains no usable contacts", "IMPORT_EMPTY", nil)
		}
		if businessflow.IsImportMissingColumns(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "The contact list is missing required columns", "IMPORT_MISSING_COLUMNS", nil)
		}
		if errors.Is(err, businessflow.ErrImportTooLarge) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "The contact list exceeds the contact limit", "IMPORT_TOO_LARGE", nil)
		}
		if errors.Is(err, businessflow.ErrCallSessionNameRequired) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "A session name is required", "MISSING_SESSION_NAME", nil)
		}

		log.Println("Contact list import failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to import contact list", "IMPORT_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, result.Message, fiber.Map{
		"session_uuid":  result.SessionUUID,
		"session_name":  result.SessionName,
		"contact_count": result.ContactCount,
		"skipped_rows":  result.SkippedRows,
	})
}

// GetSessionSMS returns a session's text message content
func (h *SessionHandler) GetSessionSMS(c fiber.Ctx) error {
	sessionUUID := c.Params("uuid")
	if sessionUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Session UUID is required", "MISSING_SESSION_UUID", nil)
	}

	userID, ok := authenticatedUserID(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	req := dto.GetSessionSMSRequest{
		SessionUUID: sessionUUID,
		UserID:      userID,
		IsAdmin:     isAdminUser(c),
	}

	result, err := h.smsFlow.GetSessionSMS(h.createRequestContext(c, "/api/v1/sessions/"+sessionUUID+"/sms-content"), &req, clientMetadata(c))
	if err != nil {
		return h.sessionErrorResponse(c, "Failed to get session sms content", "GET_SESSION_SMS_FAILED", err)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Session sms content retrieved successfully", result)
}

// SetSessionSMS stores a session's text message content
func (h *SessionHandler) SetSessionSMS(c fiber.Ctx) error {
	sessionUUID := c.Params("uuid")
	if sessionUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Session UUID is required", "MISSING_SESSION_UUID", nil)
	}

	userID, ok := authenticatedUserID(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	var req dto.SetSessionSMSRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.SessionUUID = sessionUUID
	req.UserID = userID
	req.IsAdmin = isAdminUser(c)

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrorMessages(err))
	}

	result, err := h.smsFlow.SetSessionSMS(h.createRequestContext(c, "/api/v1/sessions/"+sessionUUID+"/sms-content"), &req, clientMetadata(c))
	if err != nil {
		if errors.Is(err, businessflow.ErrSMSContentRequired) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "SMS content is required", "MISSING_SMS_CONTENT", nil)
		}
		return h.sessionErrorResponse(c, "Failed to set session sms content", "SET_SESSION_SMS_FAILED", err)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Session sms content updated successfully", result)
}

func (h *SessionHandler) sessionErrorResponse(c fiber.Ctx, message, errorCode string, err error) error {
	if businessflow.IsCallSessionNotFound(err) {
		return h.ErrorResponse(c, fiber.StatusNotFound, "Call session not found", "CALL_SESSION_NOT_FOUND", nil)
	}
	if businessflow.IsCallSessionAccessDenied(err) {
		return h.ErrorResponse(c, fiber.StatusForbidden, "Call session access denied", "CALL_SESSION_ACCESS_DENIED", nil)
	}

	log.Println(message, err)
	return h.ErrorResponse(c, fiber.StatusInternalServerError, message, errorCode, nil)
}

func (h *SessionHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	ctx := context.WithValue(context.Background(), utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	return ctx
}
