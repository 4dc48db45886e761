package dto

import (
	"github.com/shopspring/decimal"
)

// ReconciliationRecordDTO is the comparison result of one invoice line
type ReconciliationRecordDTO struct {
	InvoiceNumber  string          `json:"invoice_number"`
	QuoteID        *uint           `json:"quote_id,omitempty"`
	OrderNumber    *string         `json:"order_number,omitempty"`
	CarrierName    *string         `json:"carrier_name,omitempty"`
	SystemValue    decimal.Decimal `json:"system_value"`
	InvoiceValue   decimal.Decimal `json:"invoice_value"`
	Delta          decimal.Decimal `json:"delta"`
	PercentDelta   decimal.Decimal `json:"percent_delta"`
	Classification string          `json:"classification"`
}

// ReconciliationSummaryDTO counts records per classification
type ReconciliationSummaryDTO struct {
	OK        int `json:"ok"`
	Divergent int `json:"divergent"`
	NotFound  int `json:"not_found"`
	Total     int `json:"total"`
}

// SkippedRowDTO reports a ledger row or batch line that could not be read
type SkippedRowDTO struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ReconciliationResponse is the report of a reconciliation run
type ReconciliationResponse struct {
	Records []ReconciliationRecordDTO `json:"records"`
	Summary ReconciliationSummaryDTO  `json:"summary"`
	Skipped []SkippedRowDTO           `json:"skipped,omitempty"`
}
