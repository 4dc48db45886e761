package dto

import (
	"github.com/shopspring/decimal"
)

// MeasurementRequest is one package line, dimensions in centimeters
type MeasurementRequest struct {
	Length      decimal.Decimal `json:"length"`
	Height      decimal.Decimal `json:"height"`
	Width       decimal.Decimal `json:"width"`
	VolumeCount int             `json:"volume_count" validate:"min=1"`
}

// SaveShipmentRequest creates a shipment or replaces one as a whole
type SaveShipmentRequest struct {
	OrderNumber      string               `json:"order_number" validate:"required,max=100"`
	PickingNumber    *string              `json:"picking_number,omitempty" validate:"omitempty,max=100"`
	CustomerName     *string              `json:"customer_name,omitempty" validate:"omitempty,max=255"`
	Origin           *string              `json:"origin,omitempty" validate:"omitempty,max=255"`
	Destination      *string              `json:"destination,omitempty" validate:"omitempty,max=255"`
	DeclaredWeightKg *decimal.Decimal     `json:"declared_weight_kg,omitempty"`
	MerchandiseValue *decimal.Decimal     `json:"merchandise_value,omitempty"`
	Notes            *string              `json:"notes,omitempty" validate:"omitempty,max=2000"`
	Measurements     []MeasurementRequest `json:"measurements" validate:"max=500,dive"`
}

// MeasurementDTO is a stored package line
type MeasurementDTO struct {
	Position    int             `json:"position"`
	Length      decimal.Decimal `json:"length"`
	Height      decimal.Decimal `json:"height"`
	Width       decimal.Decimal `json:"width"`
	VolumeCount int             `json:"volume_count"`
	VolumeM3    decimal.Decimal `json:"volume_m3"`
}

// ShipmentDTO represents a shipment with its aggregated totals
type ShipmentDTO struct {
	ID                uint             `json:"id"`
	UUID              string           `json:"uuid"`
	OrderNumber       string           `json:"order_number"`
	PickingNumber     *string          `json:"picking_number,omitempty"`
	CustomerName      *string          `json:"customer_name,omitempty"`
	Origin            *string          `json:"origin,omitempty"`
	Destination       *string          `json:"destination,omitempty"`
	DeclaredWeightKg  *decimal.Decimal `json:"declared_weight_kg,omitempty"`
	MerchandiseValue  *decimal.Decimal `json:"merchandise_value,omitempty"`
	Notes             *string          `json:"notes,omitempty"`
	Measurements      []MeasurementDTO `json:"measurements"`
	TotalVolumeM3     decimal.Decimal  `json:"total_volume_m3"`
	EstimatedWeightKg decimal.Decimal  `json:"estimated_weight_kg"`
	PricingWeightKg   decimal.Decimal  `json:"pricing_weight_kg"`
	CreatedAt         string           `json:"created_at"`
	UpdatedAt         string           `json:"updated_at"`
}

// ListShipmentsRequest filters the shipment listing
type ListShipmentsRequest struct {
	OrderNumber *string `query:"order_number" validate:"omitempty,max=100"`
	Customer    *string `query:"customer" validate:"omitempty,max=255"`
	Page        int     `query:"page" validate:"omitempty,min=1"`
	Limit       int     `query:"limit" validate:"omitempty,min=1,max=100"`
}

// ListShipmentsResponse is a page of shipments
type ListShipmentsResponse struct {
	Items      []ShipmentDTO  `json:"items"`
	Pagination PaginationInfo `json:"pagination"`
}
