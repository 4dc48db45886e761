package dto

import (
	"github.com/shopspring/decimal"
)

// SaveCarrierRequest creates or updates a carrier rate table.
// Coefficients must not be negative; percent_of_value is a percentage (2 means 2%).
type SaveCarrierRequest struct {
	Name              string          `json:"name" validate:"required,max=255"`
	WeightUpTo50Kg    decimal.Decimal `json:"weight_up_to_50kg"`
	WeightUpTo100Kg   decimal.Decimal `json:"weight_up_to_100kg"`
	WeightUpTo150Kg   decimal.Decimal `json:"weight_up_to_150kg"`
	WeightUpTo200Kg   decimal.Decimal `json:"weight_up_to_200kg"`
	WeightUpTo300Kg   decimal.Decimal `json:"weight_up_to_300kg"`
	RatePerTon        decimal.Decimal `json:"rate_per_ton"`
	MinimumFreight    decimal.Decimal `json:"minimum_freight"`
	TollPerCubicMeter decimal.Decimal `json:"toll_per_cubic_meter"`
	PercentOfValue    decimal.Decimal `json:"percent_of_value"`
	IsActive          *bool           `json:"is_active,omitempty"`
}

// CarrierDTO represents a carrier rate table with its quote statistics.
// CubicWeightFactor is read-only: every carrier is priced with the same 300 kg/m³ density.
type CarrierDTO struct {
	ID                uint            `json:"id"`
	UUID              string          `json:"uuid"`
	Name              string          `json:"name"`
	WeightUpTo50Kg    decimal.Decimal `json:"weight_up_to_50kg"`
	WeightUpTo100Kg   decimal.Decimal `json:"weight_up_to_100kg"`
	WeightUpTo150Kg   decimal.Decimal `json:"weight_up_to_150kg"`
	WeightUpTo200Kg   decimal.Decimal `json:"weight_up_to_200kg"`
	WeightUpTo300Kg   decimal.Decimal `json:"weight_up_to_300kg"`
	RatePerTon        decimal.Decimal `json:"rate_per_ton"`
	MinimumFreight    decimal.Decimal `json:"minimum_freight"`
	TollPerCubicMeter decimal.Decimal `json:"toll_per_cubic_meter"`
	PercentOfValue    decimal.Decimal `json:"percent_of_value"`
	CubicWeightFactor decimal.Decimal `json:"cubic_weight_factor"`
	IsActive          bool            `json:"is_active"`
	QuoteCount        int64           `json:"quote_count"`
	AverageFreight    decimal.Decimal `json:"average_freight"`
	CreatedAt         string          `json:"created_at"`
	UpdatedAt         string          `json:"updated_at"`
}

// ListCarriersResponse wraps the carrier listing
type ListCarriersResponse struct {
	Items []CarrierDTO `json:"items"`
}
