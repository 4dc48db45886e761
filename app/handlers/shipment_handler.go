package handlers

import (
	"time"

	"github.com/amirphl/freightdesk/app/dto"
	businessflow "github.com/amirphl/freightdesk/business_flow"
	"github.com/gofiber/fiber/v3"
)

// ShipmentHandlerInterface defines the contract for shipment handlers
type ShipmentHandlerInterface interface {
	Create(c fiber.Ctx) error
	Update(c fiber.Ctx) error
	Get(c fiber.Ctx) error
	List(c fiber.Ctx) error
}

// ShipmentHandler handles shipment intake requests
type ShipmentHandler struct {
	baseHandler
	flow businessflow.ShipmentFlow
}

func NewShipmentHandler(flow businessflow.ShipmentFlow, timeout time.Duration) *ShipmentHandler {
	return &ShipmentHandler{baseHandler: newBaseHandler(timeout), flow: flow}
}

// Create registers a shipment with its package measurements
func (h *ShipmentHandler) Create(c fiber.Ctx) error {
	var req dto.SaveShipmentRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.validationFailed(c, err)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/shipments")
	defer cancel()

	result, err := h.flow.Create(ctx, &req, h.clientMetadata(c))
	if err != nil {
		return h.flowError(c, "Create shipment", err)
	}
	return h.SuccessResponse(c, fiber.StatusCreated, "Shipment created successfully", result)
}

// Update replaces a shipment header and its whole measurement set
func (h *ShipmentHandler) Update(c fiber.Ctx) error {
	id, err := h.idParam(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid shipment id", "INVALID_ID", err.Error())
	}
	var req dto.SaveShipmentRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.validationFailed(c, err)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/shipments/:id")
	defer cancel()

	result, err := h.flow.Update(ctx, id, &req, h.clientMetadata(c))
	if err != nil {
		return h.flowError(c, "Update shipment", err)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Shipment updated successfully", result)
}

func (h *ShipmentHandler) Get(c fiber.Ctx) error {
	id, err := h.idParam(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid shipment id", "INVALID_ID", err.Error())
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/shipments/:id")
	defer cancel()

	result, err := h.flow.Get(ctx, id)
	if err != nil {
		return h.flowError(c, "Get shipment", err)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Shipment retrieved successfully", result)
}

func (h *ShipmentHandler) List(c fiber.Ctx) error {
	var req dto.ListShipmentsRequest
	if err := c.Bind().Query(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_QUERY", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.validationFailed(c, err)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/shipments")
	defer cancel()

	result, err := h.flow.List(ctx, &req)
	if err != nil {
		return h.flowError(c, "List shipments", err)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Shipments retrieved successfully", result)
}
