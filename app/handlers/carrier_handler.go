package handlers

import (
	"strconv"
	"time"

	"github.com/amirphl/freightdesk/app/dto"
	businessflow "github.com/amirphl/freightdesk/business_flow"
	"github.com/gofiber/fiber/v3"
)

// CarrierHandlerInterface defines the contract for carrier handlers
type CarrierHandlerInterface interface {
	Create(c fiber.Ctx) error
	Update(c fiber.Ctx) error
	ToggleActive(c fiber.Ctx) error
	Get(c fiber.Ctx) error
	List(c fiber.Ctx) error
}

// CarrierHandler handles carrier rate table requests
type CarrierHandler struct {
	baseHandler
	flow businessflow.CarrierFlow
}

func NewCarrierHandler(flow businessflow.CarrierFlow, timeout time.Duration) *CarrierHandler {
	return &CarrierHandler{baseHandler: newBaseHandler(timeout), flow: flow}
}

func (h *CarrierHandler) Create(c fiber.Ctx) error {
	var req dto.SaveCarrierRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.validationFailed(c, err)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/carriers")
	defer cancel()

	result, err := h.flow.Create(ctx, &req, h.clientMetadata(c))
	if err != nil {
		return h.flowError(c, "Create carrier", err)
	}
	return h.SuccessResponse(c, fiber.StatusCreated, "Carrier created successfully", result)
}

func (h *CarrierHandler) Update(c fiber.Ctx) error {
	id, err := h.idParam(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid carrier id", "INVALID_ID", err.Error())
	}
	var req dto.SaveCarrierRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.validationFailed(c, err)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/carriers/:id")
	defer cancel()

	result, err := h.flow.Update(ctx, id, &req, h.clientMetadata(c))
	if err != nil {
		return h.flowError(c, "Update carrier", err)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Carrier updated successfully", result)
}

// ToggleActive flips whether new quotes may be priced against the carrier
func (h *CarrierHandler) ToggleActive(c fiber.Ctx) error {
	id, err := h.idParam(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid carrier id", "INVALID_ID", err.Error())
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/carriers/:id/toggle")
	defer cancel()

	result, err := h.flow.ToggleActive(ctx, id, h.clientMetadata(c))
	if err != nil {
		return h.flowError(c, "Toggle carrier", err)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Carrier updated successfully", result)
}

func (h *CarrierHandler) Get(c fiber.Ctx) error {
	id, err := h.idParam(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid carrier id", "INVALID_ID", err.Error())
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/carriers/:id")
	defer cancel()

	result, err := h.flow.Get(ctx, id)
	if err != nil {
		return h.flowError(c, "Get carrier", err)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Carrier retrieved successfully", result)
}

// List returns all carriers, or only the active ones with ?active=true
func (h *CarrierHandler) List(c fiber.Ctx) error {
	activeOnly := false
	if raw := c.Query("active"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_QUERY", "active must be true or false")
		}
		activeOnly = v
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/carriers")
	defer cancel()

	result, err := h.flow.List(ctx, activeOnly)
	if err != nil {
		return h.flowError(c, "List carriers", err)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Carriers retrieved successfully", result)
}
