package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/amirphl/freightdesk/freight"
	"github.com/shopspring/decimal"
)

type jsonLine struct {
	InvoiceNumber       string          `json:"invoice_number"`
	InvoiceFreightValue json.RawMessage `json:"invoice_freight_value"`
}

// ParseJSONLines reads a batch of invoice lines one element at a time, so a malformed
// element is reported in Skipped instead of failing the batch. Row is the 1-based position.
// The freight value may be a JSON number or a string in any form ParseAmount accepts.
func ParseJSONLines(raw []json.RawMessage) *Result {
	result := &Result{Lines: make([]freight.InvoiceLine, 0, len(raw))}
	for i, elem := range raw {
		rowNum := i + 1

		line, err := decodeJSONLine(elem)
		if err != nil {
			log.Printf("WARN: invoice line %d skipped: %v", rowNum, err)
			result.Skipped = append(result.Skipped, SkippedRow{Row: rowNum, Reason: err.Error()})
			continue
		}
		if line == nil {
			continue
		}
		result.Lines = append(result.Lines, *line)
	}
	return result
}

// decodeJSONLine returns nil, nil for a line with a blank invoice number
func decodeJSONLine(elem json.RawMessage) (*freight.InvoiceLine, error) {
	var l jsonLine
	if err := json.Unmarshal(elem, &l); err != nil {
		return nil, fmt.Errorf("malformed invoice line: %v", err)
	}

	number := strings.TrimSpace(l.InvoiceNumber)
	if number == "" {
		return nil, nil
	}
	if err := checkInvoiceNumber(number); err != nil {
		return nil, err
	}

	value, err := jsonAmount(l.InvoiceFreightValue)
	if err != nil {
		return nil, err
	}
	return &freight.InvoiceLine{InvoiceNumber: number, DeclaredFreightValue: value}, nil
}

func jsonAmount(raw json.RawMessage) (decimal.Decimal, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return decimal.Zero, fmt.Errorf("missing freight value")
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return decimal.Zero, fmt.Errorf("invalid freight value %s", raw)
		}
		return ParseAmount(s)
	}
	value, err := decimal.NewFromString(string(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid freight value %s", raw)
	}
	return value, nil
}

func checkInvoiceNumber(number string) error {
	if n := utf8.RuneCountInString(number); n > MaxInvoiceNumberLength {
		return fmt.Errorf("invoice number has %d characters, at most %d", n, MaxInvoiceNumberLength)
	}
	return nil
}
