// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirphl/freightdesk/models"
	"github.com/amirphl/freightdesk/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CarrierRepositoryImpl implements CarrierRepository interface
type CarrierRepositoryImpl struct {
	*BaseRepository[models.Carrier, models.CarrierFilter]
}

// NewCarrierRepository creates a new carrier repository
func NewCarrierRepository(db *gorm.DB) CarrierRepository {
	return &CarrierRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Carrier, models.CarrierFilter](db),
	}
}

// applyFilter applies filter criteria to a GORM query
func (r *CarrierRepositoryImpl) applyFilter(query *gorm.DB, filter models.CarrierFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.Name != nil {
		query = query.Where("name = ?", *filter.Name)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	return query
}

// ByFilter retrieves carriers based on filter criteria
func (r *CarrierRepositoryImpl) ByFilter(ctx context.Context, filter models.CarrierFilter, orderBy string, limit, offset int) ([]*models.Carrier, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Carrier{}), filter)

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

	var carriers []*models.Carrier
	if err := query.Find(&carriers).Error; err != nil {
		return nil, fmt.Errorf("failed to list carriers: %w", err)
	}
	return carriers, nil
}

// Count returns the number of carriers matching the filter
func (r *CarrierRepositoryImpl) Count(ctx context.Context, filter models.CarrierFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Carrier{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any carrier matching the filter exists
func (r *CarrierRepositoryImpl) Exists(ctx context.Context, filter models.CarrierFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Update rewrites the rate table of an existing carrier
func (r *CarrierRepositoryImpl) Update(ctx context.Context, carrier *models.Carrier) (err error) {
	if carrier == nil || carrier.ID == 0 {
		return errors.New("carrier ID is required for update")
	}

	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}
	defer finish(db, shouldCommit, &err)

	updates := map[string]any{
		"name":                 carrier.Name,
		"weight_up_to_50kg":    carrier.WeightUpTo50Kg,
		"weight_up_to_100kg":   carrier.WeightUpTo100Kg,
		"weight_up_to_150kg":   carrier.WeightUpTo150Kg,
		"weight_up_to_200kg":   carrier.WeightUpTo200Kg,
		"weight_up_to_300kg":   carrier.WeightUpTo300Kg,
		"rate_per_ton":         carrier.RatePerTon,
		"minimum_freight":      carrier.MinimumFreight,
		"toll_per_cubic_meter": carrier.TollPerCubicMeter,
		"percent_of_value":     carrier.PercentOfValue,
		"cubic_weight_factor":  carrier.CubicWeightFactor,
		"is_active":            carrier.IsActive,
		"updated_at":           utils.UTCNow(),
	}

	result := db.Model(&models.Carrier{}).Where("id = ?", carrier.ID).Updates(updates)
	if result.Error != nil {
		err = fmt.Errorf("failed to update carrier %d: %w", carrier.ID, translateError(result.Error))
		return err
	}
	if result.RowsAffected == 0 {
		err = fmt.Errorf("carrier not found with ID: %d", carrier.ID)
		return err
	}
	return nil
}

// SetActive flips the availability flag of a carrier
func (r *CarrierRepositoryImpl) SetActive(ctx context.Context, carrierID uint, active bool) (err error) {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}
	defer finish(db, shouldCommit, &err)

	result := db.Model(&models.Carrier{}).
		Where("id = ?", carrierID).
		Updates(map[string]any{
			"is_active":  active,
			"updated_at": utils.UTCNow(),
		})
	if result.Error != nil {
		err = fmt.Errorf("failed to set carrier %d active=%t: %w", carrierID, active, result.Error)
		return err
	}
	if result.RowsAffected == 0 {
		err = fmt.Errorf("carrier not found with ID: %d", carrierID)
		return err
	}
	return nil
}

// QuoteStats returns per-carrier quote count and average computed freight.
// Carriers without quotes are absent from the map.
func (r *CarrierRepositoryImpl) QuoteStats(ctx context.Context, carrierIDs []uint) (map[uint]models.CarrierQuoteStats, error) {
	stats := make(map[uint]models.CarrierQuoteStats)
	if len(carrierIDs) == 0 {
		return stats, nil
	}

	db := r.getDB(ctx)

	type row struct {
		CarrierID  uint
		QuoteCount int64
		FreightSum decimal.Decimal
	}
	var rows []row
	err := db.Model(&models.Quote{}).
		Select("carrier_id, COUNT(*) AS quote_count, COALESCE(SUM(computed_freight), 0) AS freight_sum").
		Where("carrier_id IN ?", carrierIDs).
		Group("carrier_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate quote stats: %w", err)
	}

	for _, rw := range rows {
		avg := decimal.Zero
		if rw.QuoteCount > 0 {
			avg = rw.FreightSum.Div(decimal.NewFromInt(rw.QuoteCount)).Round(2)
		}
		stats[rw.CarrierID] = models.CarrierQuoteStats{
			CarrierID:      rw.CarrierID,
			QuoteCount:     rw.QuoteCount,
			AverageFreight: avg,
		}
	}
	return stats, nil
}
