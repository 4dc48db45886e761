package handlers

import (
	"encoding/json"
	"io"
	"path/filepath"
	"strings"
	"time"

	businessflow "github.com/amirphl/freightdesk/business_flow"
	"github.com/gofiber/fiber/v3"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReconciliationHandlerInterface defines the contract for reconciliation handlers
type ReconciliationHandlerInterface interface {
	Reconcile(c fiber.Ctx) error
	Import(c fiber.Ctx) error
	Export(c fiber.Ctx) error
}

// ReconciliationHandler handles carrier invoice reconciliation requests
type ReconciliationHandler struct {
	baseHandler
	flow businessflow.ReconciliationFlow
}

func NewReconciliationHandler(flow businessflow.ReconciliationFlow, timeout time.Duration) *ReconciliationHandler {
	return &ReconciliationHandler{baseHandler: newBaseHandler(timeout), flow: flow}
}

// bindLines splits the batch into raw lines, each decoded later on its own.
// Only a body that is not a JSON array is rejected; when ok is false the error response has already been written.
func (h *ReconciliationHandler) bindLines(c fiber.Ctx) (lines []json.RawMessage, ok bool, err error) {
	if err := c.Bind().JSON(&lines); err != nil {
		return nil, false, h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	return lines, true, nil
}

// Reconcile classifies a JSON batch of invoice lines against the stored quotes
func (h *ReconciliationHandler) Reconcile(c fiber.Ctx) error {
	lines, ok, err := h.bindLines(c)
	if !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/reconciliations")
	defer cancel()

	result, err := h.flow.ReconcileLines(ctx, lines, h.clientMetadata(c))
	if err != nil {
		return h.flowError(c, "Reconcile invoices", err)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Reconciliation completed", result)
}

// Import reconciles a carrier ledger sent as the raw body or as a multipart "file" field.
// The format comes from ?format, else from the uploaded file extension, else csv.
func (h *ReconciliationHandler) Import(c fiber.Ctx) error {
	format := c.Query("format")
	data := c.Body()

	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Ledger file is required", "FILE_REQUIRED", err.Error())
		}
		f, err := fileHeader.Open()
		if err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Ledger file could not be opened", "FILE_UNREADABLE", err.Error())
		}
		defer f.Close()
		if data, err = io.ReadAll(f); err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Ledger file could not be read", "FILE_UNREADABLE", err.Error())
		}
		if format == "" {
			format = strings.TrimPrefix(strings.ToLower(filepath.Ext(fileHeader.Filename)), ".")
		}
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/reconciliations/import")
	defer cancel()

	result, err := h.flow.Import(ctx, data, format, h.clientMetadata(c))
	if err != nil {
		return h.flowError(c, "Import ledger", err)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Ledger reconciled", result)
}

// Export reconciles a JSON batch and answers with the XLSX workbook
func (h *ReconciliationHandler) Export(c fiber.Ctx) error {
	lines, ok, err := h.bindLines(c)
	if !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/reconciliations/export")
	defer cancel()

	bs, err := h.flow.Export(ctx, lines)
	if err != nil {
		return h.flowError(c, "Export reconciliation", err)
	}

	filename := "conciliacao_" + time.Now().UTC().Format("20060102_150405") + ".xlsx"
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Status(fiber.StatusOK).Send(bs)
}
