package dto

import (
	"github.com/shopspring/decimal"
)

// PreviewQuoteRequest prices a shipment against a carrier without storing anything
type PreviewQuoteRequest struct {
	ShipmentID      uint            `json:"shipment_id" validate:"required"`
	CarrierID       uint            `json:"carrier_id" validate:"required"`
	InvoiceValue    decimal.Decimal `json:"invoice_value"`
	InvoiceWeightKg decimal.Decimal `json:"invoice_weight_kg"`
}

// SubmitQuoteRequest creates the quote of a shipment or overwrites the existing one
type SubmitQuoteRequest struct {
	ShipmentID      uint            `json:"shipment_id" validate:"required"`
	CarrierID       uint            `json:"carrier_id" validate:"required"`
	InvoiceNumber   string          `json:"invoice_number" validate:"required,max=100"`
	InvoiceValue    decimal.Decimal `json:"invoice_value"`
	InvoiceWeightKg decimal.Decimal `json:"invoice_weight_kg"`
	DeclaredFreight decimal.Decimal `json:"declared_freight"`
	DeliveryDays    int             `json:"delivery_days" validate:"min=1,max=365"`
	Notes           *string         `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// SetQuoteStatusRequest carries a review decision
type SetQuoteStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
}

// BreakdownDTO exposes every term of a freight computation
type BreakdownDTO struct {
	WeightKg        decimal.Decimal `json:"weight_kg"`
	Tons            decimal.Decimal `json:"tons"`
	WeightComponent decimal.Decimal `json:"weight_component"`
	TollComponent   decimal.Decimal `json:"toll_component"`
	ValueComponent  decimal.Decimal `json:"value_component"`
	Raw             decimal.Decimal `json:"raw"`
	MinimumFreight  decimal.Decimal `json:"minimum_freight"`
	MinimumApplied  bool            `json:"minimum_applied"`
	ComputedFreight decimal.Decimal `json:"computed_freight"`
}

// QuotePreviewDTO is the result of a preview
type QuotePreviewDTO struct {
	ShipmentID         uint            `json:"shipment_id"`
	CarrierID          uint            `json:"carrier_id"`
	CarrierName        string          `json:"carrier_name"`
	TotalVolumeM3      decimal.Decimal `json:"total_volume_m3"`
	EstimatedWeightKg  decimal.Decimal `json:"estimated_weight_kg"`
	ChargeableWeightKg decimal.Decimal `json:"chargeable_weight_kg"`
	Breakdown          BreakdownDTO    `json:"breakdown"`
}

// QuoteDTO represents a stored quote
type QuoteDTO struct {
	ID                 uint            `json:"id"`
	UUID               string          `json:"uuid"`
	ShipmentID         uint            `json:"shipment_id"`
	OrderNumber        string          `json:"order_number,omitempty"`
	CarrierID          uint            `json:"carrier_id"`
	CarrierName        string          `json:"carrier_name,omitempty"`
	InvoiceNumber      string          `json:"invoice_number"`
	InvoiceValue       decimal.Decimal `json:"invoice_value"`
	InvoiceWeightKg    decimal.Decimal `json:"invoice_weight_kg"`
	ChargeableWeightKg decimal.Decimal `json:"chargeable_weight_kg"`
	TotalVolumeM3      decimal.Decimal `json:"total_volume_m3"`
	ComputedFreight    decimal.Decimal `json:"computed_freight"`
	DeclaredFreight    decimal.Decimal `json:"declared_freight"`
	DeliveryDays       int             `json:"delivery_days"`
	Status             string          `json:"status"`
	Notes              *string         `json:"notes,omitempty"`
	CreatedAt          string          `json:"created_at"`
	UpdatedAt          string          `json:"updated_at"`
}

// SubmitQuoteResponse tells whether the submission created or overwrote the quote
type SubmitQuoteResponse struct {
	Quote       QuoteDTO     `json:"quote"`
	Overwritten bool         `json:"overwritten"`
	Breakdown   BreakdownDTO `json:"breakdown"`
}

// ListQuotesRequest filters the quote listing; dates are YYYY-MM-DD or RFC3339
type ListQuotesRequest struct {
	Status        *string `query:"status" validate:"omitempty,oneof=pending approved rejected"`
	CarrierID     *uint   `query:"carrier_id" validate:"omitempty"`
	InvoiceNumber *string `query:"invoice_number" validate:"omitempty,max=100"`
	OrderNumber   *string `query:"order_number" validate:"omitempty,max=100"`
	CreatedAfter  *string `query:"created_after" validate:"omitempty"`
	CreatedBefore *string `query:"created_before" validate:"omitempty"`
	Page          int     `query:"page" validate:"omitempty,min=1"`
	Limit         int     `query:"limit" validate:"omitempty,min=1,max=100"`
}

// ListQuotesResponse is a page of quotes
type ListQuotesResponse struct {
	Items      []QuoteDTO     `json:"items"`
	Pagination PaginationInfo `json:"pagination"`
}
