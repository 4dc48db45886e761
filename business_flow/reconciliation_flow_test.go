package businessflow_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/amirphl/freightdesk/app/dto"
	businessflow "github.com/amirphl/freightdesk/business_flow"
	"github.com/amirphl/freightdesk/config"
	"github.com/amirphl/freightdesk/freight"
	"github.com/amirphl/freightdesk/models"
	testingutil "github.com/amirphl/freightdesk/testing"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func rawLines(t *testing.T, body string) []json.RawMessage {
	t.Helper()
	var lines []json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(body), &lines))
	return lines
}

func TestReconciliationFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flows := newFlowSet(testDB, config.QuoteUpsertOverwrite)
		ctx := context.Background()

		carrier, err := fixtures.CreateTestCarrier("Transvale")
		require.NoError(t, err)
		shipment, err := fixtures.CreateTestShipment("PED-REC")
		require.NoError(t, err)

		// 36 kg declared, 72 kg estimated: 14.4 + 12 + 2.2 = 28.6, floored to 80
		req := submitRequest(shipment.ID, carrier.ID, "NF200")
		req.InvoiceValue = decimal.NewFromInt(110)
		_, err = flows.quotes.Submit(ctx, req, nil)
		require.NoError(t, err)

		t.Run("ClassifiesLines", func(t *testing.T) {
			resp, err := flows.recon.ReconcileLines(ctx, rawLines(t, `[
				{"invoice_number":"NF200","invoice_freight_value":84},
				{"invoice_number":"NF200","invoice_freight_value":"84.01"},
				{"invoice_number":"NF100","invoice_freight_value":150},
				{"invoice_number":"   ","invoice_freight_value":10}
			]`), businessflow.NewClientMetadata("10.0.0.1", "go-test"))
			require.NoError(t, err)
			require.Len(t, resp.Records, 3)
			assert.Empty(t, resp.Skipped)

			assert.Equal(t, freight.ClassificationOK.String(), resp.Records[0].Classification)
			assert.True(t, resp.Records[0].PercentDelta.Equal(decimal.NewFromInt(5)))
			require.NotNil(t, resp.Records[0].OrderNumber)
			assert.Equal(t, "PED-REC", *resp.Records[0].OrderNumber)
			require.NotNil(t, resp.Records[0].CarrierName)
			assert.Equal(t, "Transvale", *resp.Records[0].CarrierName)

			assert.Equal(t, freight.ClassificationDivergent.String(), resp.Records[1].Classification)

			notFound := resp.Records[2]
			assert.Equal(t, freight.ClassificationNotFound.String(), notFound.Classification)
			assert.True(t, notFound.SystemValue.IsZero())
			assert.True(t, notFound.Delta.Equal(decimal.NewFromInt(150)))
			assert.Nil(t, notFound.QuoteID)

			assert.Equal(t, dto.ReconciliationSummaryDTO{OK: 1, Divergent: 1, NotFound: 1, Total: 3}, resp.Summary)

			runs, err := flows.auditRepo.ListByAction(ctx, models.AuditActionReconciliationRun, 10, 0)
			require.NoError(t, err)
			assert.Len(t, runs, 1)
		})

		t.Run("MalformedLinesAreSkipped", func(t *testing.T) {
			resp, err := flows.recon.ReconcileLines(ctx, rawLines(t, `[
				{"invoice_number":"NF200","invoice_freight_value":"80,00"},
				{"invoice_number":"`+strings.Repeat("N", 101)+`","invoice_freight_value":80},
				{"invoice_number":"NF100","invoice_freight_value":"abc"}
			]`), nil)
			require.NoError(t, err)
			require.Len(t, resp.Records, 1)
			assert.Equal(t, "NF200", resp.Records[0].InvoiceNumber)
			assert.Equal(t, freight.ClassificationOK.String(), resp.Records[0].Classification)
			assert.Equal(t, dto.ReconciliationSummaryDTO{OK: 1, Total: 1}, resp.Summary)
			require.Len(t, resp.Skipped, 2)
			assert.Equal(t, 2, resp.Skipped[0].Row)
			assert.Equal(t, 3, resp.Skipped[1].Row)
		})

		t.Run("EmptyBatch", func(t *testing.T) {
			resp, err := flows.recon.ReconcileLines(ctx, nil, nil)
			require.NoError(t, err)
			assert.Empty(t, resp.Records)
			assert.Equal(t, dto.ReconciliationSummaryDTO{}, resp.Summary)
		})

		t.Run("TooManyLines", func(t *testing.T) {
			lines := make([]json.RawMessage, 101)
			for i := range lines {
				lines[i] = json.RawMessage(fmt.Sprintf(`{"invoice_number":"NF%d","invoice_freight_value":1}`, i))
			}
			_, err := flows.recon.ReconcileLines(ctx, lines, nil)
			assert.True(t, businessflow.IsValidation(err))
		})

		t.Run("ImportCSV", func(t *testing.T) {
			csv := "Numero NF;Valor Frete\nNF200;80,00\nNF300;abc\nNF100;150,00\n"
			resp, err := flows.recon.Import(ctx, []byte(csv), "csv", nil)
			require.NoError(t, err)
			require.Len(t, resp.Records, 2)
			assert.Equal(t, freight.ClassificationOK.String(), resp.Records[0].Classification)
			assert.Equal(t, freight.ClassificationNotFound.String(), resp.Records[1].Classification)
			require.Len(t, resp.Skipped, 1)
			assert.Equal(t, 3, resp.Skipped[0].Row)
		})

		t.Run("ImportRejectsUnknownFormat", func(t *testing.T) {
			_, err := flows.recon.Import(ctx, []byte("x"), "pdf", nil)
			assert.True(t, businessflow.IsValidation(err))
		})

		t.Run("ImportRejectsMissingColumn", func(t *testing.T) {
			_, err := flows.recon.Import(ctx, []byte("pedido,cliente\n1,2\n"), "csv", nil)
			assert.True(t, businessflow.IsValidation(err))
		})

		t.Run("ExportWorkbook", func(t *testing.T) {
			bs, err := flows.recon.Export(ctx, rawLines(t, `[
				{"invoice_number":"NF200","invoice_freight_value":80},
				{"invoice_number":"NF300","invoice_freight_value":"abc"},
				{"invoice_number":"NF100","invoice_freight_value":150}
			]`))
			require.NoError(t, err)

			wb, err := excelize.OpenReader(bytes.NewReader(bs))
			require.NoError(t, err)
			defer wb.Close()

			rows, err := wb.GetRows(wb.GetSheetList()[0])
			require.NoError(t, err)
			require.GreaterOrEqual(t, len(rows), 3)
			assert.Equal(t, "NF", rows[0][0])
			assert.Equal(t, "NF200", rows[1][0])
			assert.Equal(t, "PED-REC", rows[1][1])
			assert.Equal(t, "ok", rows[1][7])
			assert.Equal(t, "not_found", rows[2][7])
		})

		return nil
	})
	require.NoError(t, err)
}
