package models

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuoteStatus represents the review state of a quote
type QuoteStatus string

const (
	QuoteStatusPending  QuoteStatus = "pending"
	QuoteStatusApproved QuoteStatus = "approved"
	QuoteStatusRejected QuoteStatus = "rejected"
)

// ErrInvalidTransition is the root of every refused status change
var ErrInvalidTransition = errors.New("invalid quote status transition")

// TransitionError names the refused edge
type TransitionError struct {
	From QuoteStatus
	To   QuoteStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move quote from %q to %q", e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// String returns the string representation of the status
func (s QuoteStatus) String() string {
	return string(s)
}

// Valid checks if the status is one of the known values
func (s QuoteStatus) Valid() bool {
	switch s {
	case QuoteStatusPending, QuoteStatusApproved, QuoteStatusRejected:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for QuoteStatus
func (s *QuoteStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = QuoteStatus(v)
	case []byte:
		*s = QuoteStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into QuoteStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for QuoteStatus
func (s QuoteStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid QuoteStatus: %s", s)
	}
	return string(s), nil
}

// CheckTransition validates a review decision.
// Re-applying the current status is allowed and means no change.
// Nothing ever moves back to pending; only a new submission does that.
func (s QuoteStatus) CheckTransition(to QuoteStatus) error {
	if !s.Valid() || !to.Valid() {
		return &TransitionError{From: s, To: to}
	}
	if s == to {
		return nil
	}

	switch s {
	case QuoteStatusPending:
		if to == QuoteStatusApproved || to == QuoteStatusRejected {
			return nil
		}
	case QuoteStatusApproved:
		if to == QuoteStatusRejected {
			return nil
		}
	case QuoteStatusRejected:
		if to == QuoteStatusApproved {
			return nil
		}
	}
	return &TransitionError{From: s, To: to}
}

// Quote is the single active price of a shipment.
// A new submission overwrites the pricing fields and resets the status to pending.
type Quote struct {
	ID   uint      `gorm:"primaryKey" json:"id"`
	UUID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_quotes_uuid" json:"uuid"`

	ShipmentID uint      `gorm:"not null;uniqueIndex:uk_quotes_shipment_id" json:"shipment_id"`
	Shipment   *Shipment `gorm:"foreignKey:ShipmentID;references:ID" json:"shipment,omitempty"`
	CarrierID  uint      `gorm:"not null;index:idx_quotes_carrier_id" json:"carrier_id"`
	Carrier    *Carrier  `gorm:"foreignKey:CarrierID;references:ID" json:"carrier,omitempty"`

	InvoiceNumber      string          `gorm:"size:100;not null;uniqueIndex:uk_quotes_invoice_number" json:"invoice_number"`
	InvoiceValue       decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"invoice_value"`
	InvoiceWeightKg    decimal.Decimal `gorm:"type:numeric(14,3);not null" json:"invoice_weight_kg"`
	ChargeableWeightKg decimal.Decimal `gorm:"type:numeric(14,3);not null" json:"chargeable_weight_kg"`
	TotalVolumeM3      decimal.Decimal `gorm:"type:numeric(14,6);not null" json:"total_volume_m3"`
	ComputedFreight    decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"computed_freight"`
	DeclaredFreight    decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"declared_freight"`
	DeliveryDays       int             `gorm:"not null" json:"delivery_days"`
	Status             QuoteStatus     `gorm:"size:20;not null;index:idx_quotes_status" json:"status"`
	Notes              *string         `gorm:"type:text" json:"notes,omitempty"`

	CreatedAt time.Time `gorm:"not null;index:idx_quotes_created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Quote) TableName() string {
	return "quotes"
}

// QuoteFilter represents filter criteria for quote queries
type QuoteFilter struct {
	ID                *uint
	UUID              *uuid.UUID
	ShipmentID        *uint
	CarrierID         *uint
	InvoiceNumber     *string
	InvoiceNumberLike *string
	OrderNumber       *string
	Status            *QuoteStatus
	CreatedAfter      *time.Time
	CreatedBefore     *time.Time
}
