// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirphl/freightdesk/models"
	"github.com/amirphl/freightdesk/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QuoteRepositoryImpl implements QuoteRepository interface
type QuoteRepositoryImpl struct {
	*BaseRepository[models.Quote, models.QuoteFilter]
}

// NewQuoteRepository creates a new quote repository
func NewQuoteRepository(db *gorm.DB) QuoteRepository {
	return &QuoteRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Quote, models.QuoteFilter](db),
	}
}

// ByID retrieves a quote with its shipment and carrier
func (r *QuoteRepositoryImpl) ByID(ctx context.Context, id uint) (*models.Quote, error) {
	items, err := r.ByFilter(ctx, models.QuoteFilter{ID: &id}, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

// ByShipmentID retrieves the quote of a shipment
func (r *QuoteRepositoryImpl) ByShipmentID(ctx context.Context, shipmentID uint) (*models.Quote, error) {
	items, err := r.ByFilter(ctx, models.QuoteFilter{ShipmentID: &shipmentID}, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

// ByInvoiceNumber retrieves the quote carrying an invoice number
func (r *QuoteRepositoryImpl) ByInvoiceNumber(ctx context.Context, invoiceNumber string) (*models.Quote, error) {
	items, err := r.ByFilter(ctx, models.QuoteFilter{InvoiceNumber: &invoiceNumber}, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

// ByIDForUpdate retrieves a quote and locks its row until the surrounding transaction ends
func (r *QuoteRepositoryImpl) ByIDForUpdate(ctx context.Context, id uint) (*models.Quote, error) {
	return r.lockedBy(ctx, "id = ?", id)
}

// ByShipmentIDForUpdate retrieves a shipment's quote with a row lock
func (r *QuoteRepositoryImpl) ByShipmentIDForUpdate(ctx context.Context, shipmentID uint) (*models.Quote, error) {
	return r.lockedBy(ctx, "shipment_id = ?", shipmentID)
}

func (r *QuoteRepositoryImpl) lockedBy(ctx context.Context, cond string, arg any) (*models.Quote, error) {
	db := r.getDB(ctx)

	var quote models.Quote
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where(cond, arg).
		First(&quote).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock quote: %w", err)
	}
	return &quote, nil
}

// ByInvoiceNumbers fetches every quote whose invoice number is in the list, shipment and carrier preloaded
func (r *QuoteRepositoryImpl) ByInvoiceNumbers(ctx context.Context, invoiceNumbers []string) ([]*models.Quote, error) {
	if len(invoiceNumbers) == 0 {
		return nil, nil
	}
	db := r.getDB(ctx)

	var quotes []*models.Quote
	err := db.Where("invoice_number IN ?", invoiceNumbers).
		Preload("Shipment").
		Preload("Carrier").
		Find(&quotes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find quotes by invoice numbers: %w", err)
	}
	return quotes, nil
}

// applyFilter applies filter criteria to a GORM query
func (r *QuoteRepositoryImpl) applyFilter(query *gorm.DB, filter models.QuoteFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("quotes.id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("quotes.uuid = ?", *filter.UUID)
	}
	if filter.ShipmentID != nil {
		query = query.Where("quotes.shipment_id = ?", *filter.ShipmentID)
	}
	if filter.CarrierID != nil {
		query = query.Where("quotes.carrier_id = ?", *filter.CarrierID)
	}
	if filter.InvoiceNumber != nil {
		query = query.Where("quotes.invoice_number = ?", *filter.InvoiceNumber)
	}
	if filter.InvoiceNumberLike != nil {
		query = query.Where("quotes.invoice_number LIKE ?", "%"+*filter.InvoiceNumberLike+"%")
	}
	if filter.OrderNumber != nil {
		query = query.Where("quotes.shipment_id IN (?)",
			query.Session(&gorm.Session{NewDB: true}).
				Model(&models.Shipment{}).
				Select("id").
				Where("order_number = ?", *filter.OrderNumber))
	}
	if filter.Status != nil {
		query = query.Where("quotes.status = ?", *filter.Status)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("quotes.created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("quotes.created_at < ?", *filter.CreatedBefore)
	}
	return query
}

// ByFilter retrieves quotes based on filter criteria, shipment and carrier preloaded
func (r *QuoteRepositoryImpl) ByFilter(ctx context.Context, filter models.QuoteFilter, orderBy string, limit, offset int) ([]*models.Quote, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Quote{}), filter)

	if orderBy == "" {
		orderBy = "quotes.id DESC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var quotes []*models.Quote
	if err := query.Preload("Shipment").Preload("Carrier").Find(&quotes).Error; err != nil {
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}
	return quotes, nil
}

// Count returns the number of quotes matching the filter
func (r *QuoteRepositoryImpl) Count(ctx context.Context, filter models.QuoteFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Quote{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Overwrite replaces the pricing snapshot of an existing quote and resets it to pending
func (r *QuoteRepositoryImpl) Overwrite(ctx context.Context, quote *models.Quote) (err error) {
	if quote == nil || quote.ID == 0 {
		return errors.New("quote ID is required for overwrite")
	}

	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}
	defer finish(db, shouldCommit, &err)

	quote.Status = models.QuoteStatusPending
	updates := map[string]any{
		"carrier_id":           quote.CarrierID,
		"invoice_number":       quote.InvoiceNumber,
		"invoice_value":        quote.InvoiceValue,
		"invoice_weight_kg":    quote.InvoiceWeightKg,
		"chargeable_weight_kg": quote.ChargeableWeightKg,
		"total_volume_m3":      quote.TotalVolumeM3,
		"computed_freight":     quote.ComputedFreight,
		"declared_freight":     quote.DeclaredFreight,
		"delivery_days":        quote.DeliveryDays,
		"status":               quote.Status,
		"notes":                quote.Notes,
		"updated_at":           quote.UpdatedAt,
	}

	result := db.Model(&models.Quote{}).Where("id = ?", quote.ID).Updates(updates)
	if result.Error != nil {
		err = fmt.Errorf("failed to overwrite quote %d: %w", quote.ID, translateError(result.Error))
		return err
	}
	if result.RowsAffected == 0 {
		err = fmt.Errorf("quote not found with ID: %d", quote.ID)
		return err
	}
	return nil
}

// UpdateStatus stores a review decision
func (r *QuoteRepositoryImpl) UpdateStatus(ctx context.Context, quoteID uint, status models.QuoteStatus) (err error) {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}
	defer finish(db, shouldCommit, &err)

	result := db.Model(&models.Quote{}).
		Where("id = ?", quoteID).
		Updates(map[string]any{
			"status":     status,
			"updated_at": utils.UTCNow(),
		})
	if result.Error != nil {
		err = fmt.Errorf("failed to update quote %d status: %w", quoteID, result.Error)
		return err
	}
	if result.RowsAffected == 0 {
		err = fmt.Errorf("quote not found with ID: %d", quoteID)
		return err
	}
	return nil
}
