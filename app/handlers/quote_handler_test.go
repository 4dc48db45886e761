package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/amirphl/freightdesk/app/dto"
	businessflow "github.com/amirphl/freightdesk/business_flow"
	"github.com/amirphl/freightdesk/freight"
	"github.com/amirphl/freightdesk/models"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubQuoteFlow struct {
	submitResp *dto.SubmitQuoteResponse
	err        error
	lastStatus string
}

func (s *stubQuoteFlow) Preview(ctx context.Context, req *dto.PreviewQuoteRequest) (*dto.QuotePreviewDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &dto.QuotePreviewDTO{ShipmentID: req.ShipmentID, CarrierID: req.CarrierID}, nil
}

func (s *stubQuoteFlow) Submit(ctx context.Context, req *dto.SubmitQuoteRequest, metadata *businessflow.ClientMetadata) (*dto.SubmitQuoteResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.submitResp, nil
}

func (s *stubQuoteFlow) SetStatus(ctx context.Context, id uint, req *dto.SetQuoteStatusRequest, metadata *businessflow.ClientMetadata) (*dto.QuoteDTO, error) {
	s.lastStatus = req.Status
	if s.err != nil {
		return nil, s.err
	}
	return &dto.QuoteDTO{ID: id, Status: req.Status}, nil
}

func (s *stubQuoteFlow) Get(ctx context.Context, id uint) (*dto.QuoteDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &dto.QuoteDTO{ID: id}, nil
}

func (s *stubQuoteFlow) List(ctx context.Context, req *dto.ListQuotesRequest) (*dto.ListQuotesResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &dto.ListQuotesResponse{Items: []dto.QuoteDTO{}}, nil
}

func newQuoteApp(flow businessflow.QuoteFlow) *fiber.App {
	h := NewQuoteHandler(flow, time.Second)
	app := fiber.New()
	app.Post("/quotes", h.Submit)
	app.Put("/quotes/:id/status", h.SetStatus)
	app.Get("/quotes/:id", h.Get)
	return app
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func doJSON(t *testing.T, app *fiber.App, method, target, body string) (int, dto.APIResponse) {
	t.Helper()
	resp, err := app.Test(jsonRequest(method, target, body))
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out dto.APIResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	return resp.StatusCode, out
}

func errorCode(t *testing.T, resp dto.APIResponse) string {
	t.Helper()
	m, ok := resp.Error.(map[string]any)
	require.True(t, ok, "error detail missing")
	code, _ := m["code"].(string)
	return code
}

const validSubmit = `{"shipment_id":1,"carrier_id":2,"invoice_number":"NF1","invoice_value":"1000","invoice_weight_kg":"36","declared_freight":"80","delivery_days":3}`

func TestQuoteHandlerSubmit(t *testing.T) {
	t.Run("created answers 201", func(t *testing.T) {
		flow := &stubQuoteFlow{submitResp: &dto.SubmitQuoteResponse{Quote: dto.QuoteDTO{ID: 7}}}
		status, resp := doJSON(t, newQuoteApp(flow), http.MethodPost, "/quotes", validSubmit)
		assert.Equal(t, fiber.StatusCreated, status)
		assert.True(t, resp.Success)
	})

	t.Run("overwrite answers 200", func(t *testing.T) {
		flow := &stubQuoteFlow{submitResp: &dto.SubmitQuoteResponse{Quote: dto.QuoteDTO{ID: 7}, Overwritten: true}}
		status, _ := doJSON(t, newQuoteApp(flow), http.MethodPost, "/quotes", validSubmit)
		assert.Equal(t, fiber.StatusOK, status)
	})

	t.Run("missing invoice number is rejected before the flow", func(t *testing.T) {
		flow := &stubQuoteFlow{err: fmt.Errorf("must not be called")}
		status, resp := doJSON(t, newQuoteApp(flow), http.MethodPost, "/quotes",
			`{"shipment_id":1,"carrier_id":2,"delivery_days":3}`)
		assert.Equal(t, fiber.StatusBadRequest, status)
		assert.Equal(t, "VALIDATION_ERROR", errorCode(t, resp))
	})

	t.Run("error kinds map to statuses", func(t *testing.T) {
		cases := []struct {
			name   string
			err    error
			status int
			code   string
		}{
			{"field error", businessflow.NewBusinessError("QUOTE_VALIDATION_FAILED", "Quote input is invalid",
				&freight.FieldError{Field: "invoice_value", Index: -1, Reason: "must be positive"}), fiber.StatusBadRequest, "QUOTE_VALIDATION_FAILED"},
			{"not found", businessflow.NewBusinessError("SHIPMENT_NOT_FOUND", "Shipment not found", businessflow.ErrShipmentNotFound), fiber.StatusNotFound, "SHIPMENT_NOT_FOUND"},
			{"rate unavailable", businessflow.NewBusinessError("RATE_UNAVAILABLE", "Carrier is inactive",
				&freight.RateUnavailableError{CarrierID: 2}), fiber.StatusUnprocessableEntity, "RATE_UNAVAILABLE"},
			{"invoice conflict", businessflow.NewBusinessError("INVOICE_NUMBER_CONFLICT", "Invoice number in use", businessflow.ErrInvoiceNumberConflict), fiber.StatusConflict, "INVOICE_NUMBER_CONFLICT"},
			{"deadline", context.DeadlineExceeded, fiber.StatusGatewayTimeout, "REQUEST_TIMEOUT"},
			{"unexpected", businessflow.NewBusinessError("QUOTE_SUBMIT_FAILED", "Failed to submit quote", fmt.Errorf("boom")), fiber.StatusInternalServerError, "QUOTE_SUBMIT_FAILED"},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				status, resp := doJSON(t, newQuoteApp(&stubQuoteFlow{err: tc.err}), http.MethodPost, "/quotes", validSubmit)
				assert.Equal(t, tc.status, status)
				assert.False(t, resp.Success)
				assert.Equal(t, tc.code, errorCode(t, resp))
			})
		}
	})

	t.Run("field error details name the field", func(t *testing.T) {
		flow := &stubQuoteFlow{err: businessflow.NewBusinessError("QUOTE_VALIDATION_FAILED", "Quote input is invalid",
			&freight.FieldError{Field: "measurements", Index: 2, Reason: "length must be positive"})}
		_, resp := doJSON(t, newQuoteApp(flow), http.MethodPost, "/quotes", validSubmit)
		details := resp.Error.(map[string]any)["details"].(map[string]any)
		assert.Equal(t, "measurements", details["field"])
		assert.EqualValues(t, 2, details["index"])
	})
}

func TestQuoteHandlerSetStatus(t *testing.T) {
	t.Run("pending is refused by tag validation", func(t *testing.T) {
		flow := &stubQuoteFlow{}
		status, _ := doJSON(t, newQuoteApp(flow), http.MethodPut, "/quotes/3/status", `{"status":"pending"}`)
		assert.Equal(t, fiber.StatusBadRequest, status)
		assert.Empty(t, flow.lastStatus)
	})

	t.Run("invalid transition answers 409", func(t *testing.T) {
		flow := &stubQuoteFlow{err: businessflow.NewBusinessError("INVALID_STATUS_TRANSITION", "Status change not allowed",
			&models.TransitionError{From: models.QuoteStatusApproved, To: models.QuoteStatusPending})}
		status, resp := doJSON(t, newQuoteApp(flow), http.MethodPut, "/quotes/3/status", `{"status":"approved"}`)
		assert.Equal(t, fiber.StatusConflict, status)
		assert.Equal(t, "INVALID_STATUS_TRANSITION", errorCode(t, resp))
	})

	t.Run("approve", func(t *testing.T) {
		flow := &stubQuoteFlow{}
		status, resp := doJSON(t, newQuoteApp(flow), http.MethodPut, "/quotes/3/status", `{"status":"approved"}`)
		assert.Equal(t, fiber.StatusOK, status)
		assert.True(t, resp.Success)
		assert.Equal(t, "approved", flow.lastStatus)
	})

	t.Run("bad id", func(t *testing.T) {
		status, resp := doJSON(t, newQuoteApp(&stubQuoteFlow{}), http.MethodGet, "/quotes/abc", "")
		assert.Equal(t, fiber.StatusBadRequest, status)
		assert.Equal(t, "INVALID_ID", errorCode(t, resp))
	})
}
