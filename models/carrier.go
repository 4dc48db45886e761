package models

import (
	"time"

	"github.com/amirphl/freightdesk/freight"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Carrier holds the live rate table of a transport company.
// Quotes copy what they need at pricing time, so edits and toggles never touch them.
type Carrier struct {
	ID   uint      `gorm:"primaryKey" json:"id"`
	UUID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_carriers_uuid" json:"uuid"`
	Name string    `gorm:"size:255;not null;uniqueIndex:uk_carriers_name" json:"name"`

	WeightUpTo50Kg  decimal.Decimal `gorm:"column:weight_up_to_50kg;type:numeric(12,2);not null" json:"weight_up_to_50kg"`
	WeightUpTo100Kg decimal.Decimal `gorm:"column:weight_up_to_100kg;type:numeric(12,2);not null" json:"weight_up_to_100kg"`
	WeightUpTo150Kg decimal.Decimal `gorm:"column:weight_up_to_150kg;type:numeric(12,2);not null" json:"weight_up_to_150kg"`
	WeightUpTo200Kg decimal.Decimal `gorm:"column:weight_up_to_200kg;type:numeric(12,2);not null" json:"weight_up_to_200kg"`
	WeightUpTo300Kg decimal.Decimal `gorm:"column:weight_up_to_300kg;type:numeric(12,2);not null" json:"weight_up_to_300kg"`

	RatePerTon        decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"rate_per_ton"`
	MinimumFreight    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"minimum_freight"`
	TollPerCubicMeter decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"toll_per_cubic_meter"`
	PercentOfValue    decimal.Decimal `gorm:"type:numeric(8,4);not null" json:"percent_of_value"`
	// CubicWeightFactor is informational and always freight.VolumetricDensityKgPerM3; pricing never reads it
	CubicWeightFactor decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"cubic_weight_factor"`

	IsActive  *bool     `gorm:"not null;index:idx_carriers_is_active" json:"is_active"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Carrier) TableName() string {
	return "carriers"
}

// Active reports the is_active flag, treating nil as inactive
func (c *Carrier) Active() bool {
	return c.IsActive != nil && *c.IsActive
}

// RateTable takes the pricing snapshot used by the calculator
func (c *Carrier) RateTable() freight.RateTable {
	return freight.RateTable{
		CarrierID:         c.ID,
		Name:              c.Name,
		Active:            c.Active(),
		RatePerTon:        c.RatePerTon,
		MinimumFreight:    c.MinimumFreight,
		TollPerCubicMeter: c.TollPerCubicMeter,
		PercentOfValue:    c.PercentOfValue,
		WeightTierPrices: [5]decimal.Decimal{
			c.WeightUpTo50Kg,
			c.WeightUpTo100Kg,
			c.WeightUpTo150Kg,
			c.WeightUpTo200Kg,
			c.WeightUpTo300Kg,
		},
	}
}

// CarrierFilter represents filter criteria for carrier queries
type CarrierFilter struct {
	ID       *uint
	UUID     *uuid.UUID
	Name     *string
	IsActive *bool
}

// CarrierQuoteStats aggregates the quotes issued against a carrier
type CarrierQuoteStats struct {
	CarrierID      uint
	QuoteCount     int64
	AverageFreight decimal.Decimal
}
