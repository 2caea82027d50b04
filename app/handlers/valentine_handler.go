// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/bemyval/valentine-api/app/dto"
	"github.com/bemyval/valentine-api/app/middleware"
	businessflow "github.com/bemyval/valentine-api/business_flow"
	"github.com/bemyval/valentine-api/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// ValentineHandlerInterface defines the contract for valentine page handlers
type ValentineHandlerInterface interface {
	Create(c fiber.Ctx) error
	List(c fiber.Ctx) error
	Delete(c fiber.Ctx) error
	Export(c fiber.Ctx) error
}

// ValentineHandler handles valentine page management for authenticated users
type ValentineHandler struct {
	flow      businessflow.ValentineFlow
	validator *validator.Validate
}

// NewValentineHandler creates a new valentine handler
func NewValentineHandler(flow businessflow.ValentineFlow) *ValentineHandler {
	return &ValentineHandler{
		flow:      flow,
		validator: validator.New(),
	}
}

func (h *ValentineHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *ValentineHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Create handles creation of a new valentine page
func (h *ValentineHandler) Create(c fiber.Ctx) error {
	var req dto.CreateValentineRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	// Validate request
	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	result, err := h.flow.CreateValentine(h.createRequestContext(c, "/api/v1/valentines"), userID, &req, metadata)
	if err != nil {
		if businessflow.IsSlugTaken(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Custom URL is already taken", "CUSTOM_URL_TAKEN", nil)
		}
		if businessflow.IsSlugGenerationExhausted(err) {
			return h.ErrorResponse(c, fiber.StatusServiceUnavailable, "Could not generate a unique URL, please retry", "CUSTOM_URL_GENERATION_EXHAUSTED", nil)
		}
		if businessflow.IsNameRequired(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Name is required", "NAME_REQUIRED", nil)
		}
		if businessflow.IsMessageTooLong(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Message is too long", "MESSAGE_TOO_LONG", nil)
		}
		if businessflow.IsTooManyImages(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Too many images", "TOO_MANY_IMAGES", nil)
		}

		log.Println("Create valentine failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create valentine", "VALENTINE_CREATE_FAILED", nil)
	}

	middleware.RecordValentineCreated()
	return h.SuccessResponse(c, fiber.StatusCreated, "Valentine created successfully", result)
}

// List returns the authenticated user's valentine pages with dashboard stats
func (h *ValentineHandler) List(c fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	page := 1
	pageSize := 20
	if v, err := strconv.Atoi(c.Query("page", "1")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(c.Query("page_size", "20")); err == nil && v > 0 {
		pageSize = v
	}

	result, err := h.flow.ListValentines(h.createRequestContext(c, "/api/v1/valentines"), userID, page, pageSize)
	if err != nil {
		if businessflow.IsInvalidPage(err) || businessflow.IsInvalidPageSize(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid pagination parameters", "INVALID_PAGINATION", nil)
		}

		log.Println("List valentines failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list valentines", "VALENTINE_LIST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Valentines retrieved successfully", result)
}

// Delete removes a valentine page owned by the authenticated user
func (h *ValentineHandler) Delete(c fiber.Ctx) error {
	valentineUUID := c.Params("uuid")
	if valentineUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Valentine UUID is required", "INVALID_UUID", nil)
	}

	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	err := h.flow.DeleteValentine(h.createRequestContext(c, "/api/v1/valentines/"+valentineUUID), userID, valentineUUID, metadata)
	if err != nil {
		if businessflow.IsValentineNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Valentine not found", "VALENTINE_NOT_FOUND", nil)
		}

		log.Println("Delete valentine failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete valentine", "VALENTINE_DELETE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Valentine deleted successfully", nil)
}

// Export streams the user's valentines and responses as an XLSX workbook
func (h *ValentineHandler) Export(c fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	filename, data, err := h.flow.ExportValentines(h.createRequestContext(c, "/api/v1/valentines/export"), userID)
	if err != nil {
		log.Println("Export valentines failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to generate export", "EXPORT_FAILED", nil)
	}

	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", "attachment; filename="+filename)
	return c.Send(data)
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *ValentineHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

// createRequestContextWithTimeout creates a context with custom timeout and request-scoped values
func (h *ValentineHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
