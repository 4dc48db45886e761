package freight

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapLookup map[string]*MatchedQuote

func (m mapLookup) FindQuoteByInvoiceNumber(_ context.Context, invoiceNumber string) (*MatchedQuote, error) {
	return m[invoiceNumber], nil
}

func TestReconcile(t *testing.T) {
	ctx := context.Background()
	lookup := mapLookup{
		"NF1": {QuoteID: 1, ComputedFreight: d("100")},
		"NF2": {QuoteID: 2, ComputedFreight: d("100")},
		"NF3": {QuoteID: 3, ComputedFreight: d("100")},
		"NF0": {QuoteID: 4, ComputedFreight: d("0")},
	}

	t.Run("BoundaryInclusive", func(t *testing.T) {
		records, summary, err := Reconcile(ctx, []InvoiceLine{
			{InvoiceNumber: "NF1", DeclaredFreightValue: d("105")},
			{InvoiceNumber: "NF2", DeclaredFreightValue: d("105.01")},
			{InvoiceNumber: "NF3", DeclaredFreightValue: d("95")},
		}, lookup)
		require.NoError(t, err)
		require.Len(t, records, 3)

		assert.Equal(t, ClassificationOK, records[0].Classification)
		assert.True(t, records[0].PercentDelta.Equal(d("5")))
		assert.True(t, records[0].Delta.Equal(d("5")))

		assert.Equal(t, ClassificationDivergent, records[1].Classification)
		assert.True(t, records[1].PercentDelta.Equal(d("5.01")))

		assert.Equal(t, ClassificationOK, records[2].Classification)
		assert.True(t, records[2].PercentDelta.Equal(d("-5")))

		assert.Equal(t, Summary{OK: 2, Divergent: 1, NotFound: 0, Total: 3}, summary)
	})

	t.Run("NotFound", func(t *testing.T) {
		records, summary, err := Reconcile(ctx, []InvoiceLine{
			{InvoiceNumber: "NF100", DeclaredFreightValue: d("150")},
		}, lookup)
		require.NoError(t, err)
		require.Len(t, records, 1)

		r := records[0]
		assert.Equal(t, ClassificationNotFound, r.Classification)
		assert.True(t, r.SystemValue.IsZero())
		assert.True(t, r.Delta.Equal(d("150")))
		assert.True(t, r.PercentDelta.IsZero())
		assert.Nil(t, r.MatchedQuote)
		assert.Equal(t, 1, summary.NotFound)
	})

	t.Run("ZeroSystemValue", func(t *testing.T) {
		records, _, err := Reconcile(ctx, []InvoiceLine{
			{InvoiceNumber: "NF0", DeclaredFreightValue: d("40")},
		}, lookup)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.True(t, records[0].PercentDelta.IsZero())
		assert.Equal(t, ClassificationOK, records[0].Classification)
	})

	t.Run("SkipsBlankInvoiceNumbers", func(t *testing.T) {
		records, summary, err := Reconcile(ctx, []InvoiceLine{
			{InvoiceNumber: "", DeclaredFreightValue: d("10")},
			{InvoiceNumber: "   ", DeclaredFreightValue: d("10")},
			{InvoiceNumber: " NF1 ", DeclaredFreightValue: d("100")},
		}, lookup)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "NF1", records[0].InvoiceNumber)
		assert.Equal(t, 1, summary.Total)
	})

	t.Run("EmptyBatch", func(t *testing.T) {
		records, summary, err := Reconcile(ctx, nil, lookup)
		require.NoError(t, err)
		assert.Empty(t, records)
		assert.Equal(t, Summary{}, summary)
	})

	t.Run("LookupFailureAborts", func(t *testing.T) {
		boom := errors.New("connection reset")
		failing := QuoteLookupFunc(func(context.Context, string) (*MatchedQuote, error) {
			return nil, boom
		})
		_, _, err := Reconcile(ctx, []InvoiceLine{{InvoiceNumber: "NF1", DeclaredFreightValue: d("1")}}, failing)
		assert.ErrorIs(t, err, boom)
	})
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "$1,234.56", FormatMoney(d("1234.56"), "USD"))
	assert.Equal(t, "$0.10", FormatMoney(d("0.1"), "USD"))
}
