package models

import (
	"encoding/json"
	"time"
)

type AuditLog struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	QuoteID      *uint           `gorm:"index:idx_audit_quote_id" json:"quote_id,omitempty"`
	ShipmentID   *uint           `gorm:"index:idx_audit_shipment_id" json:"shipment_id,omitempty"`
	CarrierID    *uint           `gorm:"index:idx_audit_carrier_id" json:"carrier_id,omitempty"`
	Action       string          `gorm:"size:64;not null;index:idx_audit_action" json:"action"`
	Description  *string         `gorm:"type:text" json:"description,omitempty"`
	IPAddress    *string         `gorm:"size:64" json:"ip_address,omitempty"`
	UserAgent    *string         `gorm:"type:text" json:"user_agent,omitempty"`
	RequestID    *string         `gorm:"size:255;index:idx_audit_request_id" json:"request_id,omitempty"`
	Metadata     json.RawMessage `gorm:"type:jsonb" json:"metadata,omitempty"`
	Success      *bool           `gorm:"not null;index:idx_audit_success" json:"success"`
	ErrorMessage *string         `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt    time.Time       `gorm:"not null;index:idx_audit_created_at" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_log"
}

// Audit action constants
const (
	AuditActionShipmentCreated        = "shipment_created"
	AuditActionShipmentReplaced       = "shipment_replaced"
	AuditActionCarrierCreated         = "carrier_created"
	AuditActionCarrierUpdated         = "carrier_updated"
	AuditActionCarrierToggled         = "carrier_toggled"
	AuditActionQuoteSubmitted         = "quote_submitted"
	AuditActionQuoteOverwritten       = "quote_overwritten"
	AuditActionQuoteApproved          = "quote_approved"
	AuditActionQuoteRejected          = "quote_rejected"
	AuditActionReconciliationRun      = "reconciliation_run"
	AuditActionReconciliationImported = "reconciliation_imported"
)

// AuditLogFilter represents filter criteria for audit log queries
type AuditLogFilter struct {
	ID            *uint
	QuoteID       *uint
	ShipmentID    *uint
	CarrierID     *uint
	Action        *string
	Success       *bool
	RequestID     *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

func (a *AuditLog) IsFailed() bool {
	return a.Success != nil && !*a.Success
}
