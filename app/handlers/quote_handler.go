package handlers

import (
	"time"

	"github.com/amirphl/freightdesk/app/dto"
	businessflow "github.com/amirphl/freightdesk/business_flow"
	"github.com/gofiber/fiber/v3"
)

// QuoteHandlerInterface defines the contract for quote handlers
type QuoteHandlerInterface interface {
	Preview(c fiber.Ctx) error
	Submit(c fiber.Ctx) error
	SetStatus(c fiber.Ctx) error
	Get(c fiber.Ctx) error
	List(c fiber.Ctx) error
}

// QuoteHandler handles pricing and quote review requests
type QuoteHandler struct {
	baseHandler
	flow businessflow.QuoteFlow
}

func NewQuoteHandler(flow businessflow.QuoteFlow, timeout time.Duration) *QuoteHandler {
	return &QuoteHandler{baseHandler: newBaseHandler(timeout), flow: flow}
}

// Preview prices a shipment against a carrier without storing a quote
func (h *QuoteHandler) Preview(c fiber.Ctx) error {
	var req dto.PreviewQuoteRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.validationFailed(c, err)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/quotes/preview")
	defer cancel()

	result, err := h.flow.Preview(ctx, &req)
	if err != nil {
		return h.flowError(c, "Preview quote", err)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Quote priced successfully", result)
}

// Submit creates the quote of a shipment, or overwrites it; 201 on create, 200 on overwrite
func (h *QuoteHandler) Submit(c fiber.Ctx) error {
	var req dto.SubmitQuoteRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.validationFailed(c, err)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/quotes")
	defer cancel()

	result, err := h.flow.Submit(ctx, &req, h.clientMetadata(c))
	if err != nil {
		return h.flowError(c, "Submit quote", err)
	}
	if result.Overwritten {
		return h.SuccessResponse(c, fiber.StatusOK, "Quote updated successfully", result)
	}
	return h.SuccessResponse(c, fiber.StatusCreated, "Quote created successfully", result)
}

func (h *QuoteHandler) SetStatus(c fiber.Ctx) error {
	id, err := h.idParam(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid quote id", "INVALID_ID", err.Error())
	}
	var req dto.SetQuoteStatusRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.validationFailed(c, err)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/quotes/:id/status")
	defer cancel()

	result, err := h.flow.SetStatus(ctx, id, &req, h.clientMetadata(c))
	if err != nil {
		return h.flowError(c, "Set quote status", err)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Quote status updated successfully", result)
}

func (h *QuoteHandler) Get(c fiber.Ctx) error {
	id, err := h.idParam(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid quote id", "INVALID_ID", err.Error())
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/quotes/:id")
	defer cancel()

	result, err := h.flow.Get(ctx, id)
	if err != nil {
		return h.flowError(c, "Get quote", err)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Quote retrieved successfully", result)
}

func (h *QuoteHandler) List(c fiber.Ctx) error {
	var req dto.ListQuotesRequest
	if err := c.Bind().Query(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_QUERY", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.validationFailed(c, err)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/quotes")
	defer cancel()

	result, err := h.flow.List(ctx, &req)
	if err != nil {
		return h.flowError(c, "List quotes", err)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Quotes retrieved successfully", result)
}
