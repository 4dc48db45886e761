package businessflow_test

import (
	"context"
	"testing"

	"github.com/amirphl/freightdesk/app/dto"
	businessflow "github.com/amirphl/freightdesk/business_flow"
	"github.com/amirphl/freightdesk/config"
	"github.com/amirphl/freightdesk/freight"
	"github.com/amirphl/freightdesk/models"
	"github.com/amirphl/freightdesk/repository"
	testingutil "github.com/amirphl/freightdesk/testing"
	"github.com/amirphl/freightdesk/utils"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flowSet struct {
	shipments businessflow.ShipmentFlow
	carriers  businessflow.CarrierFlow
	quotes    businessflow.QuoteFlow
	recon     businessflow.ReconciliationFlow
	dashboard businessflow.DashboardFlow
	quoteRepo repository.QuoteRepository
	auditRepo repository.AuditLogRepository
}

func newFlowSet(testDB *testingutil.TestDB, upsertMode string) *flowSet {
	return newCachedFlowSet(testDB, upsertMode, nil)
}

// newCachedFlowSet wires the flows against rc; nil disables the lock and the dashboard cache
func newCachedFlowSet(testDB *testingutil.TestDB, upsertMode string, rc *redis.Client) *flowSet {
	shipmentRepo := repository.NewShipmentRepository(testDB.DB)
	carrierRepo := repository.NewCarrierRepository(testDB.DB)
	quoteRepo := repository.NewQuoteRepository(testDB.DB)
	auditRepo := repository.NewAuditLogRepository(testDB.DB)

	cacheCfg := &config.CacheConfig{RedisPrefix: "test:"}
	pricingCfg := &config.PricingConfig{
		QuoteUpsertMode: upsertMode,
		Currency:        "BRL",
		MaxImportRows:   100,
	}

	return &flowSet{
		shipments: businessflow.NewShipmentFlow(shipmentRepo, auditRepo, testDB.DB),
		carriers:  businessflow.NewCarrierFlow(carrierRepo, auditRepo, testDB.DB),
		quotes:    businessflow.NewQuoteFlow(quoteRepo, shipmentRepo, carrierRepo, auditRepo, testDB.DB, rc, cacheCfg, pricingCfg),
		recon:     businessflow.NewReconciliationFlow(quoteRepo, auditRepo, pricingCfg),
		dashboard: businessflow.NewDashboardFlow(shipmentRepo, quoteRepo, carrierRepo, rc, cacheCfg),
		quoteRepo: quoteRepo,
		auditRepo: auditRepo,
	}
}

func submitRequest(shipmentID, carrierID uint, invoiceNumber string) *dto.SubmitQuoteRequest {
	return &dto.SubmitQuoteRequest{
		ShipmentID:      shipmentID,
		CarrierID:       carrierID,
		InvoiceNumber:   invoiceNumber,
		InvoiceValue:    decimal.NewFromInt(1000),
		InvoiceWeightKg: decimal.NewFromInt(36),
		DeclaredFreight: decimal.NewFromInt(80),
		DeliveryDays:    3,
	}
}

func TestQuoteFlowSubmit(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flows := newFlowSet(testDB, config.QuoteUpsertOverwrite)
		ctx := context.Background()
		metadata := businessflow.NewClientMetadata("127.0.0.1", "go-test")

		carrier, err := fixtures.CreateTestCarrier("Rapido Sul")
		require.NoError(t, err)

		t.Run("EndToEndMinimumFreight", func(t *testing.T) {
			shipment, err := flows.shipments.Create(ctx, &dto.SaveShipmentRequest{
				OrderNumber: "PED-E2E",
				Measurements: []dto.MeasurementRequest{
					{Length: decimal.NewFromInt(50), Height: decimal.NewFromInt(40), Width: decimal.NewFromInt(30), VolumeCount: 2},
				},
			}, metadata)
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString("0.12").Equal(shipment.TotalVolumeM3))
			assert.True(t, decimal.NewFromInt(36).Equal(shipment.EstimatedWeightKg))

			resp, err := flows.quotes.Submit(ctx, submitRequest(shipment.ID, carrier.ID, "NF-E2E"), metadata)
			require.NoError(t, err)
			assert.False(t, resp.Overwritten)
			assert.True(t, resp.Breakdown.Raw.Equal(decimal.RequireFromString("33.2")), resp.Breakdown.Raw.String())
			assert.True(t, resp.Breakdown.MinimumApplied)
			assert.True(t, resp.Quote.ComputedFreight.Equal(decimal.NewFromInt(80)))
			assert.Equal(t, models.QuoteStatusPending.String(), resp.Quote.Status)
			assert.Equal(t, "PED-E2E", resp.Quote.OrderNumber)
			assert.Equal(t, "Rapido Sul", resp.Quote.CarrierName)
		})

		t.Run("SubmitTwiceKeepsSingleRow", func(t *testing.T) {
			shipment, err := fixtures.CreateTestShipment("PED-TWICE")
			require.NoError(t, err)

			first, err := flows.quotes.Submit(ctx, submitRequest(shipment.ID, carrier.ID, "NF-TWICE"), metadata)
			require.NoError(t, err)

			_, err = flows.quotes.SetStatus(ctx, first.Quote.ID, &dto.SetQuoteStatusRequest{Status: "approved"}, metadata)
			require.NoError(t, err)

			second := submitRequest(shipment.ID, carrier.ID, "NF-TWICE")
			second.InvoiceValue = decimal.NewFromInt(20000)
			second.DeliveryDays = 5
			resp, err := flows.quotes.Submit(ctx, second, metadata)
			require.NoError(t, err)
			assert.True(t, resp.Overwritten)
			assert.Equal(t, first.Quote.ID, resp.Quote.ID)
			assert.Equal(t, models.QuoteStatusPending.String(), resp.Quote.Status)
			assert.Equal(t, 5, resp.Quote.DeliveryDays)

			count, err := flows.quoteRepo.Count(ctx, models.QuoteFilter{ShipmentID: &shipment.ID})
			require.NoError(t, err)
			assert.Equal(t, int64(1), count)

			stored, err := flows.quoteRepo.ByShipmentID(ctx, shipment.ID)
			require.NoError(t, err)
			require.NotNil(t, stored)
			assert.True(t, stored.InvoiceValue.Equal(decimal.NewFromInt(20000)))
			assert.True(t, stored.ComputedFreight.Equal(resp.Quote.ComputedFreight))

			overwrites, err := flows.auditRepo.ListByAction(ctx, models.AuditActionQuoteOverwritten, 10, 0)
			require.NoError(t, err)
			assert.NotEmpty(t, overwrites)
		})

		t.Run("InvoiceNumberHeldByAnotherShipment", func(t *testing.T) {
			a, err := fixtures.CreateTestShipment("PED-A")
			require.NoError(t, err)
			b, err := fixtures.CreateTestShipment("PED-B")
			require.NoError(t, err)

			_, err = flows.quotes.Submit(ctx, submitRequest(a.ID, carrier.ID, "NF-SHARED"), metadata)
			require.NoError(t, err)

			_, err = flows.quotes.Submit(ctx, submitRequest(b.ID, carrier.ID, "NF-SHARED"), metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsInvoiceNumberConflict(err))
			assert.True(t, businessflow.IsStorageConflict(err))

			quote, err := flows.quoteRepo.ByShipmentID(ctx, b.ID)
			require.NoError(t, err)
			assert.Nil(t, quote)
		})

		t.Run("ValidationFailures", func(t *testing.T) {
			shipment, err := fixtures.CreateTestShipment("")
			require.NoError(t, err)

			req := submitRequest(shipment.ID, carrier.ID, "  ")
			_, err = flows.quotes.Submit(ctx, req, metadata)
			assert.True(t, businessflow.IsValidation(err))

			req = submitRequest(shipment.ID, carrier.ID, "NF-ZERO")
			req.InvoiceValue = decimal.Zero
			_, err = flows.quotes.Submit(ctx, req, metadata)
			assert.True(t, businessflow.IsValidation(err))

			req = submitRequest(shipment.ID, carrier.ID, "NF-DAYS")
			req.DeliveryDays = 0
			_, err = flows.quotes.Submit(ctx, req, metadata)
			assert.True(t, businessflow.IsValidation(err))
		})

		t.Run("PrecisionBeyondColumnIsRejected", func(t *testing.T) {
			shipment, err := fixtures.CreateTestShipment("")
			require.NoError(t, err)

			cases := []struct {
				field  string
				mutate func(*dto.SubmitQuoteRequest)
			}{
				{"invoice_value", func(r *dto.SubmitQuoteRequest) { r.InvoiceValue = decimal.RequireFromString("1000.005") }},
				{"invoice_weight_kg", func(r *dto.SubmitQuoteRequest) { r.InvoiceWeightKg = decimal.RequireFromString("36.0001") }},
				{"declared_freight", func(r *dto.SubmitQuoteRequest) { r.DeclaredFreight = decimal.RequireFromString("80.001") }},
				{"invoice_value", func(r *dto.SubmitQuoteRequest) { r.InvoiceValue = decimal.New(1, 12) }},
			}
			for _, tc := range cases {
				req := submitRequest(shipment.ID, carrier.ID, "NF-PRECISION")
				tc.mutate(req)
				_, err := flows.quotes.Submit(ctx, req, metadata)
				require.Error(t, err)
				var fe *freight.FieldError
				require.ErrorAs(t, err, &fe)
				assert.Equal(t, tc.field, fe.Field)
			}

			stored, err := flows.quoteRepo.ByShipmentID(ctx, shipment.ID)
			require.NoError(t, err)
			assert.Nil(t, stored)

			_, err = flows.quotes.Preview(ctx, &dto.PreviewQuoteRequest{
				ShipmentID:      shipment.ID,
				CarrierID:       carrier.ID,
				InvoiceValue:    decimal.NewFromInt(100),
				InvoiceWeightKg: decimal.RequireFromString("10.0005"),
			})
			assert.True(t, businessflow.IsValidation(err))
		})

		t.Run("UnknownShipmentAndCarrier", func(t *testing.T) {
			shipment, err := fixtures.CreateTestShipment("")
			require.NoError(t, err)

			_, err = flows.quotes.Submit(ctx, submitRequest(999999, carrier.ID, "NF-404"), metadata)
			assert.True(t, businessflow.IsShipmentNotFound(err))

			_, err = flows.quotes.Submit(ctx, submitRequest(shipment.ID, 999999, "NF-404"), metadata)
			assert.True(t, businessflow.IsCarrierNotFound(err))
		})

		t.Run("InactiveCarrierIsUnavailable", func(t *testing.T) {
			inactive, err := fixtures.CreateTestCarrier("Parado Ltda")
			require.NoError(t, err)
			_, err = flows.carriers.ToggleActive(ctx, inactive.ID, metadata)
			require.NoError(t, err)

			shipment, err := fixtures.CreateTestShipment("")
			require.NoError(t, err)

			_, err = flows.quotes.Submit(ctx, submitRequest(shipment.ID, inactive.ID, "NF-OFF"), metadata)
			assert.True(t, businessflow.IsRateUnavailable(err))

			_, err = flows.quotes.Preview(ctx, &dto.PreviewQuoteRequest{
				ShipmentID:      shipment.ID,
				CarrierID:       inactive.ID,
				InvoiceValue:    decimal.NewFromInt(100),
				InvoiceWeightKg: decimal.NewFromInt(10),
			})
			assert.True(t, businessflow.IsRateUnavailable(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestQuoteFlowStrictMode(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flows := newFlowSet(testDB, config.QuoteUpsertStrict)
		ctx := context.Background()

		carrier, err := fixtures.CreateTestCarrier("")
		require.NoError(t, err)
		shipment, err := fixtures.CreateTestShipment("")
		require.NoError(t, err)

		_, err = flows.quotes.Submit(ctx, submitRequest(shipment.ID, carrier.ID, "NF-STRICT"), nil)
		require.NoError(t, err)

		_, err = flows.quotes.Submit(ctx, submitRequest(shipment.ID, carrier.ID, "NF-STRICT"), nil)
		require.Error(t, err)
		assert.True(t, businessflow.IsDuplicateQuote(err))
		assert.True(t, businessflow.IsStorageConflict(err))
		return nil
	})
	require.NoError(t, err)
}

func TestQuoteFlowPreview(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flows := newFlowSet(testDB, config.QuoteUpsertOverwrite)
		ctx := context.Background()

		carrier, err := fixtures.CreateTestCarrier("")
		require.NoError(t, err)
		shipment, err := fixtures.CreateTestShipment("")
		require.NoError(t, err)

		// 72 kg estimated beats the 10 kg on the invoice
		preview, err := flows.quotes.Preview(ctx, &dto.PreviewQuoteRequest{
			ShipmentID:      shipment.ID,
			CarrierID:       carrier.ID,
			InvoiceValue:    decimal.NewFromInt(10000),
			InvoiceWeightKg: decimal.NewFromInt(10),
		})
		require.NoError(t, err)
		assert.True(t, preview.ChargeableWeightKg.Equal(decimal.NewFromInt(72)))
		// 14.4 + 12 + 200
		assert.True(t, preview.Breakdown.ComputedFreight.Equal(decimal.RequireFromString("226.4")), preview.Breakdown.ComputedFreight.String())
		assert.False(t, preview.Breakdown.MinimumApplied)

		count, err := flows.quoteRepo.Count(ctx, models.QuoteFilter{})
		require.NoError(t, err)
		assert.Zero(t, count)
		return nil
	})
	require.NoError(t, err)
}

func TestQuoteFlowSetStatus(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flows := newFlowSet(testDB, config.QuoteUpsertOverwrite)
		ctx := context.Background()

		carrier, err := fixtures.CreateTestCarrier("")
		require.NoError(t, err)
		shipment, err := fixtures.CreateTestShipment("")
		require.NoError(t, err)
		submitted, err := flows.quotes.Submit(ctx, submitRequest(shipment.ID, carrier.ID, "NF-STATUS"), nil)
		require.NoError(t, err)
		id := submitted.Quote.ID

		t.Run("PendingIsNotSettable", func(t *testing.T) {
			_, err := flows.quotes.SetStatus(ctx, id, &dto.SetQuoteStatusRequest{Status: "pending"}, nil)
			assert.True(t, businessflow.IsValidation(err))
		})

		t.Run("ApproveThenReject", func(t *testing.T) {
			q, err := flows.quotes.SetStatus(ctx, id, &dto.SetQuoteStatusRequest{Status: "APPROVED"}, nil)
			require.NoError(t, err)
			assert.Equal(t, "approved", q.Status)

			q, err = flows.quotes.SetStatus(ctx, id, &dto.SetQuoteStatusRequest{Status: "rejected"}, nil)
			require.NoError(t, err)
			assert.Equal(t, "rejected", q.Status)
		})

		t.Run("SameStatusWritesNothing", func(t *testing.T) {
			before, err := flows.auditRepo.Count(ctx, models.AuditLogFilter{QuoteID: &id})
			require.NoError(t, err)

			q, err := flows.quotes.SetStatus(ctx, id, &dto.SetQuoteStatusRequest{Status: "rejected"}, nil)
			require.NoError(t, err)
			assert.Equal(t, "rejected", q.Status)

			after, err := flows.auditRepo.Count(ctx, models.AuditLogFilter{QuoteID: &id})
			require.NoError(t, err)
			assert.Equal(t, before, after)
		})

		t.Run("UnknownQuote", func(t *testing.T) {
			_, err := flows.quotes.SetStatus(ctx, 424242, &dto.SetQuoteStatusRequest{Status: "approved"}, nil)
			assert.True(t, businessflow.IsQuoteNotFound(err))
		})

		t.Run("ListByStatus", func(t *testing.T) {
			resp, err := flows.quotes.List(ctx, &dto.ListQuotesRequest{Status: utils.ToPtr("rejected")})
			require.NoError(t, err)
			require.Len(t, resp.Items, 1)
			assert.Equal(t, id, resp.Items[0].ID)
			assert.Equal(t, int64(1), resp.Pagination.Total)

			_, err = flows.quotes.List(ctx, &dto.ListQuotesRequest{Status: utils.ToPtr("archived")})
			assert.True(t, businessflow.IsValidation(err))
		})

		return nil
	})
	require.NoError(t, err)
}
