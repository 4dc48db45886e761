package ledger

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSONLines(t *testing.T) {
	var raw []json.RawMessage
	body := `[
		{"invoice_number":"NF1","invoice_freight_value":84},
		{"invoice_number":"` + strings.Repeat("9", 101) + `","invoice_freight_value":10},
		{"invoice_number":"NF3","invoice_freight_value":"abc"},
		{"invoice_number":"NF4","invoice_freight_value":"R$ 1.234,56"},
		{"invoice_number":42,"invoice_freight_value":10},
		{"invoice_number":"   ","invoice_freight_value":"abc"},
		{"invoice_number":"NF7"},
		"not an object",
		{"invoice_number":" NF9 ","invoice_freight_value":"84.01"}
	]`
	require.NoError(t, json.Unmarshal([]byte(body), &raw))

	res := ParseJSONLines(raw)

	require.Len(t, res.Lines, 3)
	assert.Equal(t, "NF1", res.Lines[0].InvoiceNumber)
	assert.True(t, res.Lines[0].DeclaredFreightValue.Equal(decimal.NewFromInt(84)))
	assert.Equal(t, "NF4", res.Lines[1].InvoiceNumber)
	assert.True(t, res.Lines[1].DeclaredFreightValue.Equal(decimal.RequireFromString("1234.56")))
	assert.Equal(t, "NF9", res.Lines[2].InvoiceNumber)

	rows := make([]int, 0, len(res.Skipped))
	for _, s := range res.Skipped {
		rows = append(rows, s.Row)
		assert.NotEmpty(t, s.Reason)
	}
	assert.Equal(t, []int{2, 3, 5, 7, 8}, rows, "blank invoice numbers are dropped without a report")
	assert.Contains(t, res.Skipped[0].Reason, "at most 100")
	assert.Contains(t, res.Skipped[3].Reason, "missing freight value")
}

func TestParseCSVLongInvoiceNumber(t *testing.T) {
	csv := "nf,frete\n" + strings.Repeat("X", 101) + ",10\nNF2,20\n"
	res, err := ParseCSV(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, res.Lines, 1)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, 2, res.Skipped[0].Row)
}
