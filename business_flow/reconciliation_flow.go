package businessflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/amirphl/freightdesk/app/dto"
	"github.com/amirphl/freightdesk/config"
	"github.com/amirphl/freightdesk/freight"
	"github.com/amirphl/freightdesk/ledger"
	"github.com/amirphl/freightdesk/models"
	"github.com/amirphl/freightdesk/repository"
	"github.com/xuri/excelize/v2"
)

const reconciliationSheet = "Conciliacao"

// ReconciliationFlow compares carrier invoice lines with the stored quotes
type ReconciliationFlow interface {
	ReconcileLines(ctx context.Context, lines []json.RawMessage, metadata *ClientMetadata) (*dto.ReconciliationResponse, error)
	Import(ctx context.Context, data []byte, format string, metadata *ClientMetadata) (*dto.ReconciliationResponse, error)
	Export(ctx context.Context, lines []json.RawMessage) ([]byte, error)
}

type ReconciliationFlowImpl struct {
	quoteRepo     repository.QuoteRepository
	auditRepo     repository.AuditLogRepository
	pricingConfig *config.PricingConfig
}

func NewReconciliationFlow(quoteRepo repository.QuoteRepository, auditRepo repository.AuditLogRepository, pricingConfig *config.PricingConfig) ReconciliationFlow {
	return &ReconciliationFlowImpl{
		quoteRepo:     quoteRepo,
		auditRepo:     auditRepo,
		pricingConfig: pricingConfig,
	}
}

// invoiceChunk bounds the IN list of one prefetch query
const invoiceChunk = 500

// prefetch loads every quote the batch can match, then answers lookups from memory
func (f *ReconciliationFlowImpl) prefetch(ctx context.Context, lines []freight.InvoiceLine) (freight.QuoteLookup, error) {
	seen := make(map[string]struct{}, len(lines))
	numbers := make([]string, 0, len(lines))
	for _, l := range lines {
		n := strings.TrimSpace(l.InvoiceNumber)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		numbers = append(numbers, n)
	}

	byNumber := make(map[string]*freight.MatchedQuote, len(numbers))
	for start := 0; start < len(numbers); start += invoiceChunk {
		end := min(start+invoiceChunk, len(numbers))
		quotes, err := f.quoteRepo.ByInvoiceNumbers(ctx, numbers[start:end])
		if err != nil {
			return nil, err
		}
		for _, q := range quotes {
			byNumber[q.InvoiceNumber] = matchedQuote(q)
		}
	}

	return freight.QuoteLookupFunc(func(ctx context.Context, invoiceNumber string) (*freight.MatchedQuote, error) {
		return byNumber[invoiceNumber], nil
	}), nil
}

func matchedQuote(q *models.Quote) *freight.MatchedQuote {
	m := &freight.MatchedQuote{QuoteID: q.ID, ComputedFreight: q.ComputedFreight}
	if q.Shipment != nil {
		m.ShipmentOrder = q.Shipment.OrderNumber
	}
	if q.Carrier != nil {
		m.CarrierName = q.Carrier.Name
	}
	return m
}

func (f *ReconciliationFlowImpl) maxLines() int {
	if f.pricingConfig != nil && f.pricingConfig.MaxImportRows > 0 {
		return f.pricingConfig.MaxImportRows
	}
	return 20000
}

func (f *ReconciliationFlowImpl) run(ctx context.Context, lines []freight.InvoiceLine) ([]freight.Record, freight.Summary, error) {
	if len(lines) > f.maxLines() {
		return nil, freight.Summary{}, fmt.Errorf("%w: %d lines, at most %d", ErrTooManyLines, len(lines), f.maxLines())
	}
	lookup, err := f.prefetch(ctx, lines)
	if err != nil {
		return nil, freight.Summary{}, err
	}
	records, summary, err := freight.Reconcile(ctx, lines, lookup)
	if err != nil {
		return nil, freight.Summary{}, err
	}
	for _, r := range records {
		reconciliationLines.WithLabelValues(r.Classification.String()).Inc()
	}
	return records, summary, nil
}

// ReconcileLines classifies a JSON batch of invoice lines; malformed lines are reported, not fatal
func (f *ReconciliationFlowImpl) ReconcileLines(ctx context.Context, lines []json.RawMessage, metadata *ClientMetadata) (*dto.ReconciliationResponse, error) {
	if len(lines) > f.maxLines() {
		return nil, reconciliationError(fmt.Errorf("%w: %d lines, at most %d", ErrTooManyLines, len(lines), f.maxLines()))
	}
	batch := ledger.ParseJSONLines(lines)

	records, summary, err := f.run(ctx, batch.Lines)
	if err != nil {
		return nil, reconciliationError(err)
	}

	f.audit(ctx, models.AuditActionReconciliationRun, summary, len(batch.Skipped), metadata)

	return toReconciliationResponse(records, summary, batch.Skipped), nil
}

// Import parses a carrier ledger and reconciles its lines; unreadable rows are reported, not fatal
func (f *ReconciliationFlowImpl) Import(ctx context.Context, data []byte, format string, metadata *ClientMetadata) (*dto.ReconciliationResponse, error) {
	ledgerFormat := ledger.Format(strings.ToLower(strings.TrimSpace(format)))
	if ledgerFormat == "" {
		ledgerFormat = ledger.FormatCSV
	}
	if !ledgerFormat.Valid() {
		return nil, NewBusinessError("LEDGER_FORMAT_UNSUPPORTED", "Format must be csv or xlsx",
			&freight.FieldError{Field: "format", Index: -1, Reason: "must be csv or xlsx"})
	}
	if len(data) == 0 {
		return nil, NewBusinessError("LEDGER_EMPTY", "Ledger file is empty", ErrEmptyLedger)
	}

	result, err := ledger.Parse(data, ledgerFormat)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrEmptyLedger):
			return nil, NewBusinessError("LEDGER_EMPTY", "Ledger file is empty", fmt.Errorf("%w: %v", ErrEmptyLedger, err))
		case errors.Is(err, ledger.ErrMissingColumn):
			return nil, NewBusinessError("LEDGER_COLUMN_MISSING", "Ledger is missing a required column",
				&freight.FieldError{Field: "header", Index: -1, Reason: err.Error()})
		}
		return nil, NewBusinessError("LEDGER_UNREADABLE", "Failed to read ledger",
			&freight.FieldError{Field: "file", Index: -1, Reason: err.Error()})
	}

	records, summary, err := f.run(ctx, result.Lines)
	if err != nil {
		return nil, reconciliationError(err)
	}

	f.audit(ctx, models.AuditActionReconciliationImported, summary, len(result.Skipped), metadata)

	return toReconciliationResponse(records, summary, result.Skipped), nil
}

// Export reconciles a batch and renders it as an XLSX workbook; malformed lines are left out
func (f *ReconciliationFlowImpl) Export(ctx context.Context, lines []json.RawMessage) ([]byte, error) {
	if len(lines) > f.maxLines() {
		return nil, reconciliationError(fmt.Errorf("%w: %d lines, at most %d", ErrTooManyLines, len(lines), f.maxLines()))
	}
	records, summary, err := f.run(ctx, ledger.ParseJSONLines(lines).Lines)
	if err != nil {
		return nil, reconciliationError(err)
	}

	currency := freight.DefaultCurrency
	if f.pricingConfig != nil && f.pricingConfig.Currency != "" {
		currency = f.pricingConfig.Currency
	}

	bs, err := renderWorkbook(records, summary, currency)
	if err != nil {
		return nil, NewBusinessError("RECONCILIATION_EXPORT_FAILED", "Failed to render workbook", err)
	}
	return bs, nil
}

func renderWorkbook(records []freight.Record, summary freight.Summary, currency string) ([]byte, error) {
	wb := excelize.NewFile()
	defer wb.Close()

	if err := wb.SetSheetName(wb.GetSheetName(0), reconciliationSheet); err != nil {
		return nil, err
	}

	header := []any{"NF", "Pedido", "Transportadora", "Valor Sistema", "Valor Fatura", "Diferenca", "Diferenca %", "Status"}
	if err := wb.SetSheetRow(reconciliationSheet, "A1", &header); err != nil {
		return nil, err
	}

	for i, r := range records {
		order, carrier := "", ""
		if r.MatchedQuote != nil {
			order = r.MatchedQuote.ShipmentOrder
			carrier = r.MatchedQuote.CarrierName
		}
		row := []any{
			r.InvoiceNumber,
			order,
			carrier,
			freight.FormatMoney(r.SystemValue, currency),
			freight.FormatMoney(r.InvoiceValue, currency),
			freight.FormatMoney(r.Delta, currency),
			r.PercentDelta.StringFixed(2),
			r.Classification.String(),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := wb.SetSheetRow(reconciliationSheet, cell, &row); err != nil {
			return nil, err
		}
	}

	totals := [][]any{
		{"Total", summary.Total},
		{"OK", summary.OK},
		{"Divergente", summary.Divergent},
		{"Nao encontrado", summary.NotFound},
	}
	start := len(records) + 3
	for i, row := range totals {
		cell, err := excelize.CoordinatesToCellName(1, start+i)
		if err != nil {
			return nil, err
		}
		if err := wb.SetSheetRow(reconciliationSheet, cell, &row); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := wb.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// audit records a run; a failure is logged and does not fail the read-only reconciliation
func (f *ReconciliationFlowImpl) audit(ctx context.Context, action string, summary freight.Summary, skipped int, metadata *ClientMetadata) {
	err := createAuditLog(ctx, f.auditRepo, auditEntry{
		action:  action,
		message: fmt.Sprintf("Reconciled %d lines: %d ok, %d divergent, %d not found", summary.Total, summary.OK, summary.Divergent, summary.NotFound),
		success: true,
		details: map[string]any{
			"total":     summary.Total,
			"ok":        summary.OK,
			"divergent": summary.Divergent,
			"not_found": summary.NotFound,
			"skipped":   skipped,
		},
	}, metadata)
	if err != nil {
		log.Printf("WARN: reconciliation audit failed: %v", err)
	}
}

func reconciliationError(err error) error {
	if IsValidation(err) {
		return NewBusinessError("RECONCILIATION_VALIDATION_FAILED", "Invoice batch is invalid", err)
	}
	return NewBusinessError("RECONCILIATION_FAILED", "Failed to reconcile invoice lines", err)
}

func toReconciliationResponse(records []freight.Record, summary freight.Summary, skipped []ledger.SkippedRow) *dto.ReconciliationResponse {
	out := &dto.ReconciliationResponse{
		Records: make([]dto.ReconciliationRecordDTO, 0, len(records)),
		Summary: dto.ReconciliationSummaryDTO{
			OK:        summary.OK,
			Divergent: summary.Divergent,
			NotFound:  summary.NotFound,
			Total:     summary.Total,
		},
	}
	for _, r := range records {
		out.Records = append(out.Records, ToReconciliationRecordDTO(r))
	}
	for _, s := range skipped {
		out.Skipped = append(out.Skipped, dto.SkippedRowDTO{Row: s.Row, Reason: s.Reason})
	}
	return out
}
