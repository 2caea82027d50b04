// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"log"
	"time"

	"github.com/bemyval/valentine-api/app/dto"
	"github.com/bemyval/valentine-api/app/middleware"
	businessflow "github.com/bemyval/valentine-api/business_flow"
	"github.com/bemyval/valentine-api/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// VisitHandlerInterface defines the contract for public valentine page handlers
type VisitHandlerInterface interface {
	Visit(c fiber.Ctx) error
	SubmitResponse(c fiber.Ctx) error
}

// VisitHandler handles unauthenticated visitor traffic to valentine pages
type VisitHandler struct {
	flow      businessflow.VisitFlow
	validator *validator.Validate
}

// NewVisitHandler creates a new visit handler
func NewVisitHandler(flow businessflow.VisitFlow) *VisitHandler {
	return &VisitHandler{
		flow:      flow,
		validator: validator.New(),
	}
}

func (h *VisitHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *VisitHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Visit resolves a valentine page by slug and records the view
func (h *VisitHandler) Visit(c fiber.Ctx) error {
	slug := c.Params("slug")
	if slug == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Slug is required", "INVALID_SLUG", nil)
	}

	result, err := h.flow.Visit(h.createRequestContext(c, "/api/v1/v/"+slug), slug)
	if err != nil {
		if businessflow.IsValentineNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Valentine not found", "VALENTINE_NOT_FOUND", nil)
		}

		log.Println("Visit valentine failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load valentine", "VALENTINE_VISIT_FAILED", nil)
	}

	middleware.RecordValentineView()
	return h.SuccessResponse(c, fiber.StatusOK, "Valentine retrieved successfully", result)
}

// SubmitResponse records the visitor's answer on a valentine page
func (h *VisitHandler) SubmitResponse(c fiber.Ctx) error {
	slug := c.Params("slug")
	if slug == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Slug is required", "INVALID_SLUG", nil)
	}

	var req dto.SubmitResponseRequest
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

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	result, err := h.flow.SubmitResponse(h.createRequestContext(c, "/api/v1/v/"+slug+"/response"), slug, &req, metadata)
	if err != nil {
		if businessflow.IsValentineNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Valentine not found", "VALENTINE_NOT_FOUND", nil)
		}
		if businessflow.IsInvalidResponseKind(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Response must be accepted or rejected", "INVALID_RESPONSE", nil)
		}

		log.Println("Submit response failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to submit response", "RESPONSE_SUBMIT_FAILED", nil)
	}

	middleware.RecordValentineResponse(req.Response)
	return h.SuccessResponse(c, fiber.StatusOK, "Response recorded successfully", result)
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *VisitHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 10*time.Second)
}

// createRequestContextWithTimeout creates a context with custom timeout and request-scoped values
func (h *VisitHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
