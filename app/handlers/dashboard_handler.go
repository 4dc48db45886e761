package handlers

import (
	"time"

	businessflow "github.com/amirphl/freightdesk/business_flow"
	"github.com/gofiber/fiber/v3"
)

// DashboardHandlerInterface defines the contract for dashboard handlers
type DashboardHandlerInterface interface {
	Summary(c fiber.Ctx) error
}

type DashboardHandler struct {
	baseHandler
	flow businessflow.DashboardFlow
}

func NewDashboardHandler(flow businessflow.DashboardFlow, timeout time.Duration) *DashboardHandler {
	return &DashboardHandler{baseHandler: newBaseHandler(timeout), flow: flow}
}

func (h *DashboardHandler) Summary(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/api/v1/dashboard/summary")
	defer cancel()

	result, err := h.flow.Summary(ctx)
	if err != nil {
		return h.flowError(c, "Dashboard summary", err)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Dashboard summary retrieved successfully", result)
}
