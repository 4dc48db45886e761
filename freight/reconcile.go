package freight

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// DivergenceTolerancePercent is the inclusive tolerance band for invoice deltas
const DivergenceTolerancePercent = 5

// Classification labels a reconciled invoice line
type Classification string

const (
	ClassificationOK        Classification = "ok"
	ClassificationDivergent Classification = "divergent"
	ClassificationNotFound  Classification = "not_found"
)

func (c Classification) String() string {
	return string(c)
}

// InvoiceLine is one parsed line of a carrier ledger
type InvoiceLine struct {
	InvoiceNumber        string          `json:"invoice_number"`
	DeclaredFreightValue decimal.Decimal `json:"invoice_freight_value"`
}

// MatchedQuote is the part of a stored quote the matcher needs
type MatchedQuote struct {
	QuoteID         uint
	ShipmentOrder   string
	CarrierName     string
	ComputedFreight decimal.Decimal
}

// QuoteLookup resolves an invoice number to its quote, returning nil when none exists
type QuoteLookup interface {
	FindQuoteByInvoiceNumber(ctx context.Context, invoiceNumber string) (*MatchedQuote, error)
}

// QuoteLookupFunc adapts a function to QuoteLookup
type QuoteLookupFunc func(ctx context.Context, invoiceNumber string) (*MatchedQuote, error)

func (f QuoteLookupFunc) FindQuoteByInvoiceNumber(ctx context.Context, invoiceNumber string) (*MatchedQuote, error) {
	return f(ctx, invoiceNumber)
}

// Record is the comparison result for one invoice line
type Record struct {
	InvoiceNumber  string          `json:"invoice_number"`
	MatchedQuote   *MatchedQuote   `json:"-"`
	SystemValue    decimal.Decimal `json:"system_value"`
	InvoiceValue   decimal.Decimal `json:"invoice_value"`
	Delta          decimal.Decimal `json:"delta"`
	PercentDelta   decimal.Decimal `json:"percent_delta"`
	Classification Classification  `json:"classification"`
}

// Summary counts records per classification
type Summary struct {
	OK        int `json:"ok"`
	Divergent int `json:"divergent"`
	NotFound  int `json:"not_found"`
	Total     int `json:"total"`
}

func (s *Summary) add(c Classification) {
	switch c {
	case ClassificationOK:
		s.OK++
	case ClassificationDivergent:
		s.Divergent++
	case ClassificationNotFound:
		s.NotFound++
	}
	s.Total++
}

// Reconcile compares each invoice line with the stored quote of the same invoice number.
// Lines with a blank invoice number are skipped. A lookup failure aborts the batch.
func Reconcile(ctx context.Context, lines []InvoiceLine, lookup QuoteLookup) ([]Record, Summary, error) {
	records := make([]Record, 0, len(lines))
	var summary Summary

	for _, line := range lines {
		number := strings.TrimSpace(line.InvoiceNumber)
		if number == "" {
			continue
		}

		quote, err := lookup.FindQuoteByInvoiceNumber(ctx, number)
		if err != nil {
			return nil, Summary{}, err
		}

		record := Classify(number, line.DeclaredFreightValue, quote)
		summary.add(record.Classification)
		records = append(records, record)
	}

	return records, summary, nil
}

// Classify builds the record of a single invoice value against an optional quote
func Classify(invoiceNumber string, invoiceValue decimal.Decimal, quote *MatchedQuote) Record {
	if quote == nil {
		return Record{
			InvoiceNumber:  invoiceNumber,
			SystemValue:    decimal.Zero,
			InvoiceValue:   invoiceValue,
			Delta:          invoiceValue,
			PercentDelta:   decimal.Zero,
			Classification: ClassificationNotFound,
		}
	}

	system := quote.ComputedFreight
	delta := invoiceValue.Sub(system)
	percent := decimal.Zero
	if system.IsPositive() {
		percent = delta.Div(system).Mul(hundredPercent)
	}

	classification := ClassificationOK
	if percent.Abs().GreaterThan(decimal.NewFromInt(DivergenceTolerancePercent)) {
		classification = ClassificationDivergent
	}

	return Record{
		InvoiceNumber:  invoiceNumber,
		MatchedQuote:   quote,
		SystemValue:    system,
		InvoiceValue:   invoiceValue,
		Delta:          delta,
		PercentDelta:   percent,
		Classification: classification,
	}
}
