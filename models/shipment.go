// Package models contains domain entities and persistence models for the freight desk
package models

import (
	"time"

	"github.com/amirphl/freightdesk/freight"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Shipment is a customer order waiting to be quoted.
// Its measurement set is always replaced as a whole.
type Shipment struct {
	ID               uint             `gorm:"primaryKey" json:"id"`
	UUID             uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:uk_shipments_uuid" json:"uuid"`
	OrderNumber      string           `gorm:"size:100;not null;uniqueIndex:uk_shipments_order_number" json:"order_number"`
	PickingNumber    *string          `gorm:"size:100;index:idx_shipments_picking_number" json:"picking_number,omitempty"`
	CustomerName     *string          `gorm:"size:255" json:"customer_name,omitempty"`
	Origin           *string          `gorm:"size:255" json:"origin,omitempty"`
	Destination      *string          `gorm:"size:255" json:"destination,omitempty"`
	DeclaredWeightKg *decimal.Decimal `gorm:"type:numeric(14,3)" json:"declared_weight_kg,omitempty"`
	MerchandiseValue *decimal.Decimal `gorm:"type:numeric(14,2)" json:"merchandise_value,omitempty"`
	Notes            *string          `gorm:"type:text" json:"notes,omitempty"`

	Measurements []ShipmentMeasurement `gorm:"foreignKey:ShipmentID;constraint:OnDelete:CASCADE" json:"measurements,omitempty"`

	CreatedAt time.Time `gorm:"not null;index:idx_shipments_created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Shipment) TableName() string {
	return "shipments"
}

// FreightMeasurements converts the persisted rows for the engine
func (s *Shipment) FreightMeasurements() []freight.Measurement {
	out := make([]freight.Measurement, 0, len(s.Measurements))
	for _, m := range s.Measurements {
		out = append(out, m.ToFreight())
	}
	return out
}

// Totals aggregates the stored measurement set
func (s *Shipment) Totals() (freight.Totals, error) {
	return freight.Aggregate(s.FreightMeasurements())
}

// PricingWeightKg is the declared weight when present, otherwise the volumetric estimate
func (s *Shipment) PricingWeightKg(totals freight.Totals) decimal.Decimal {
	if s.DeclaredWeightKg != nil && s.DeclaredWeightKg.IsPositive() {
		return *s.DeclaredWeightKg
	}
	return totals.EstimatedWeightKg
}

// ShipmentMeasurement is one package line of a shipment, dimensions in centimeters
type ShipmentMeasurement struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	ShipmentID  uint            `gorm:"not null;index:idx_shipment_measurements_shipment_id" json:"shipment_id"`
	Position    int             `gorm:"not null" json:"position"`
	LengthCm    decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"length_cm"`
	HeightCm    decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"height_cm"`
	WidthCm     decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"width_cm"`
	VolumeCount int             `gorm:"not null" json:"volume_count"`
	VolumeM3    decimal.Decimal `gorm:"type:numeric(14,6);not null" json:"volume_m3"`
	CreatedAt   time.Time       `gorm:"not null" json:"created_at"`
}

func (ShipmentMeasurement) TableName() string {
	return "shipment_measurements"
}

// ToFreight returns the engine view of the row
func (m ShipmentMeasurement) ToFreight() freight.Measurement {
	return freight.Measurement{
		Length: m.LengthCm,
		Height: m.HeightCm,
		Width:  m.WidthCm,
		Count:  m.VolumeCount,
	}
}

// NewShipmentMeasurement builds a row from a validated measurement
func NewShipmentMeasurement(position int, m freight.Measurement, now time.Time) ShipmentMeasurement {
	return ShipmentMeasurement{
		Position:    position,
		LengthCm:    m.Length,
		HeightCm:    m.Height,
		WidthCm:     m.Width,
		VolumeCount: m.Count,
		VolumeM3:    m.VolumeM3(),
		CreatedAt:   now,
	}
}

// ShipmentFilter represents filter criteria for shipment queries
type ShipmentFilter struct {
	ID            *uint
	UUID          *uuid.UUID
	OrderNumber   *string
	PickingNumber *string
	CustomerLike  *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
