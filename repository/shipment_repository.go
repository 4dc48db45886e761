// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amirphl/freightdesk/models"
	"gorm.io/gorm"
)

// ShipmentRepositoryImpl implements ShipmentRepository interface
type ShipmentRepositoryImpl struct {
	*BaseRepository[models.Shipment, models.ShipmentFilter]
}

// NewShipmentRepository creates a new shipment repository
func NewShipmentRepository(db *gorm.DB) ShipmentRepository {
	return &ShipmentRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Shipment, models.ShipmentFilter](db),
	}
}

// ByIDWithMeasurements loads a shipment and its ordered measurement set
func (r *ShipmentRepositoryImpl) ByIDWithMeasurements(ctx context.Context, id uint) (*models.Shipment, error) {
	db := r.getDB(ctx)

	var shipment models.Shipment
	err := db.Preload("Measurements", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("position ASC")
	}).First(&shipment, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find shipment %d: %w", id, err)
	}

	return &shipment, nil
}

// ByOrderNumber retrieves a shipment by its external order number
func (r *ShipmentRepositoryImpl) ByOrderNumber(ctx context.Context, orderNumber string) (*models.Shipment, error) {
	items, err := r.ByFilter(ctx, models.ShipmentFilter{OrderNumber: &orderNumber}, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

// applyFilter applies filter criteria to a GORM query
func (r *ShipmentRepositoryImpl) applyFilter(query *gorm.DB, filter models.ShipmentFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.OrderNumber != nil {
		query = query.Where("order_number = ?", *filter.OrderNumber)
	}
	if filter.PickingNumber != nil {
		query = query.Where("picking_number = ?", *filter.PickingNumber)
	}
	if filter.CustomerLike != nil {
		query = query.Where("LOWER(customer_name) LIKE LOWER(?)", "%"+*filter.CustomerLike+"%")
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}
	return query
}

// ByFilter retrieves shipments based on filter criteria, measurements included
func (r *ShipmentRepositoryImpl) ByFilter(ctx context.Context, filter models.ShipmentFilter, orderBy string, limit, offset int) ([]*models.Shipment, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Shipment{}), filter)

	if orderBy == "" {
		orderBy = "id DESC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var shipments []*models.Shipment
	err := query.Preload("Measurements", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("position ASC")
	}).Find(&shipments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list shipments: %w", err)
	}
	return shipments, nil
}

// Count returns the number of shipments matching the filter
func (r *ShipmentRepositoryImpl) Count(ctx context.Context, filter models.ShipmentFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Shipment{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any shipment matching the filter exists
func (r *ShipmentRepositoryImpl) Exists(ctx context.Context, filter models.ShipmentFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountCreatedBetween counts shipments created in [from, to)
func (r *ShipmentRepositoryImpl) CountCreatedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	return r.Count(ctx, models.ShipmentFilter{CreatedAfter: &from, CreatedBefore: &to})
}

// UpdateHeader rewrites every header column of a shipment; measurements are untouched
func (r *ShipmentRepositoryImpl) UpdateHeader(ctx context.Context, shipment *models.Shipment) (err error) {
	if shipment == nil || shipment.ID == 0 {
		return errors.New("shipment ID is required for update")
	}

	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}
	defer finish(db, shouldCommit, &err)

	updates := map[string]any{
		"order_number":       shipment.OrderNumber,
		"picking_number":     shipment.PickingNumber,
		"customer_name":      shipment.CustomerName,
		"origin":             shipment.Origin,
		"destination":        shipment.Destination,
		"declared_weight_kg": shipment.DeclaredWeightKg,
		"merchandise_value":  shipment.MerchandiseValue,
		"notes":              shipment.Notes,
		"updated_at":         shipment.UpdatedAt,
	}

	result := db.Model(&models.Shipment{}).Where("id = ?", shipment.ID).Updates(updates)
	if result.Error != nil {
		err = fmt.Errorf("failed to update shipment %d: %w", shipment.ID, translateError(result.Error))
		return err
	}
	if result.RowsAffected == 0 {
		err = fmt.Errorf("shipment not found with ID: %d", shipment.ID)
		return err
	}
	return nil
}

// ReplaceMeasurements deletes the current measurement set and inserts the given one
func (r *ShipmentRepositoryImpl) ReplaceMeasurements(ctx context.Context, shipmentID uint, measurements []models.ShipmentMeasurement) (err error) {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}
	defer finish(db, shouldCommit, &err)

	if err = db.Where("shipment_id = ?", shipmentID).Delete(&models.ShipmentMeasurement{}).Error; err != nil {
		return fmt.Errorf("failed to delete measurements of shipment %d: %w", shipmentID, err)
	}

	if len(measurements) == 0 {
		return nil
	}
	for i := range measurements {
		measurements[i].ID = 0
		measurements[i].ShipmentID = shipmentID
	}
	if err = db.Create(&measurements).Error; err != nil {
		return fmt.Errorf("failed to insert measurements of shipment %d: %w", shipmentID, err)
	}
	return nil
}
