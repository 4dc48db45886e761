// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/amirphl/freightdesk/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	Count(ctx context.Context, filter F) (int64, error)
}

// ShipmentRepository defines operations for shipments and their measurement sets
type ShipmentRepository interface {
	Repository[models.Shipment, models.ShipmentFilter]
	Exists(ctx context.Context, filter models.ShipmentFilter) (bool, error)
	ByOrderNumber(ctx context.Context, orderNumber string) (*models.Shipment, error)
	ByIDWithMeasurements(ctx context.Context, id uint) (*models.Shipment, error)
	UpdateHeader(ctx context.Context, shipment *models.Shipment) error
	ReplaceMeasurements(ctx context.Context, shipmentID uint, measurements []models.ShipmentMeasurement) error
	CountCreatedBetween(ctx context.Context, from, to time.Time) (int64, error)
}

// CarrierRepository defines operations for carrier rate tables
type CarrierRepository interface {
	Repository[models.Carrier, models.CarrierFilter]
	Exists(ctx context.Context, filter models.CarrierFilter) (bool, error)
	Update(ctx context.Context, carrier *models.Carrier) error
	SetActive(ctx context.Context, carrierID uint, active bool) error
	QuoteStats(ctx context.Context, carrierIDs []uint) (map[uint]models.CarrierQuoteStats, error)
}

// QuoteRepository defines operations for quotes
type QuoteRepository interface {
	Repository[models.Quote, models.QuoteFilter]
	ByShipmentID(ctx context.Context, shipmentID uint) (*models.Quote, error)
	ByInvoiceNumber(ctx context.Context, invoiceNumber string) (*models.Quote, error)
	ByIDForUpdate(ctx context.Context, id uint) (*models.Quote, error)
	ByShipmentIDForUpdate(ctx context.Context, shipmentID uint) (*models.Quote, error)
	ByInvoiceNumbers(ctx context.Context, invoiceNumbers []string) ([]*models.Quote, error)
	Overwrite(ctx context.Context, quote *models.Quote) error
	UpdateStatus(ctx context.Context, quoteID uint, status models.QuoteStatus) error
}

// AuditLogRepository defines operations for audit logs
type AuditLogRepository interface {
	Repository[models.AuditLog, models.AuditLogFilter]
	ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.AuditLog, error)
}
