package businessflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/amirphl/freightdesk/app/dto"
	"github.com/amirphl/freightdesk/freight"
	"github.com/amirphl/freightdesk/models"
	"github.com/amirphl/freightdesk/repository"
	"github.com/amirphl/freightdesk/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CarrierFlow handles carrier rate table administration
type CarrierFlow interface {
	Create(ctx context.Context, req *dto.SaveCarrierRequest, metadata *ClientMetadata) (*dto.CarrierDTO, error)
	Update(ctx context.Context, id uint, req *dto.SaveCarrierRequest, metadata *ClientMetadata) (*dto.CarrierDTO, error)
	ToggleActive(ctx context.Context, id uint, metadata *ClientMetadata) (*dto.CarrierDTO, error)
	Get(ctx context.Context, id uint) (*dto.CarrierDTO, error)
	List(ctx context.Context, activeOnly bool) (*dto.ListCarriersResponse, error)
}

type CarrierFlowImpl struct {
	carrierRepo repository.CarrierRepository
	auditRepo   repository.AuditLogRepository
	db          *gorm.DB
}

func NewCarrierFlow(carrierRepo repository.CarrierRepository, auditRepo repository.AuditLogRepository, db *gorm.DB) CarrierFlow {
	return &CarrierFlowImpl{
		carrierRepo: carrierRepo,
		auditRepo:   auditRepo,
		db:          db,
	}
}

// carrierFromRequest validates the rate table and maps it onto a model
func carrierFromRequest(req *dto.SaveCarrierRequest) (models.Carrier, error) {
	if req == nil {
		return models.Carrier{}, &freight.FieldError{Field: "body", Index: -1, Reason: "is required"}
	}
	name := strings.TrimSpace(req.Name)

	rate, err := freight.NewRateTable(freight.RateTable{
		Name:              name,
		RatePerTon:        req.RatePerTon,
		MinimumFreight:    req.MinimumFreight,
		TollPerCubicMeter: req.TollPerCubicMeter,
		PercentOfValue:    req.PercentOfValue,
		WeightTierPrices: [5]decimal.Decimal{
			req.WeightUpTo50Kg,
			req.WeightUpTo100Kg,
			req.WeightUpTo150Kg,
			req.WeightUpTo200Kg,
			req.WeightUpTo300Kg,
		},
	})
	if err != nil {
		return models.Carrier{}, err
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	return models.Carrier{
		Name:              rate.Name,
		WeightUpTo50Kg:    rate.WeightTierPrices[0],
		WeightUpTo100Kg:   rate.WeightTierPrices[1],
		WeightUpTo150Kg:   rate.WeightTierPrices[2],
		WeightUpTo200Kg:   rate.WeightTierPrices[3],
		WeightUpTo300Kg:   rate.WeightTierPrices[4],
		RatePerTon:        rate.RatePerTon,
		MinimumFreight:    rate.MinimumFreight,
		TollPerCubicMeter: rate.TollPerCubicMeter,
		PercentOfValue:    rate.PercentOfValue,
		CubicWeightFactor: decimal.NewFromInt(freight.VolumetricDensityKgPerM3),
		IsActive:          utils.ToPtr(active),
	}, nil
}

func (f *CarrierFlowImpl) Create(ctx context.Context, req *dto.SaveCarrierRequest, metadata *ClientMetadata) (*dto.CarrierDTO, error) {
	carrier, err := carrierFromRequest(req)
	if err != nil {
		return nil, NewBusinessError("CARRIER_VALIDATION_FAILED", "Carrier validation failed", err)
	}

	taken, err := f.carrierRepo.Exists(ctx, models.CarrierFilter{Name: &carrier.Name})
	if err != nil {
		return nil, NewBusinessError("CARRIER_LOOKUP_FAILED", "Failed to check carrier name", err)
	}
	if taken {
		return nil, NewBusinessErrorf("CARRIER_NAME_EXISTS", "Carrier %s already exists", ErrCarrierNameExists, carrier.Name)
	}

	carrier.UUID = uuid.New()
	carrier.CreatedAt = utils.UTCNow()
	carrier.UpdatedAt = carrier.CreatedAt

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if err := f.carrierRepo.Save(txCtx, &carrier); err != nil {
			if repository.IsDuplicateKey(err) {
				return asConflict(ErrCarrierNameExists, err)
			}
			return err
		}
		return createAuditLog(txCtx, f.auditRepo, auditEntry{
			carrierID: &carrier.ID,
			action:    models.AuditActionCarrierCreated,
			message:   fmt.Sprintf("Carrier %s created", carrier.Name),
			success:   true,
		}, metadata)
	})
	if err != nil {
		if IsStorageConflict(err) {
			return nil, NewBusinessErrorf("CARRIER_NAME_EXISTS", "Carrier %s already exists", err, carrier.Name)
		}
		return nil, NewBusinessError("CARRIER_CREATE_FAILED", "Failed to create carrier", err)
	}

	resp := ToCarrierDTO(carrier, models.CarrierQuoteStats{CarrierID: carrier.ID})
	return &resp, nil
}

// Update rewrites the rate table; quotes already priced keep their own snapshot
func (f *CarrierFlowImpl) Update(ctx context.Context, id uint, req *dto.SaveCarrierRequest, metadata *ClientMetadata) (*dto.CarrierDTO, error) {
	carrier, err := carrierFromRequest(req)
	if err != nil {
		return nil, NewBusinessError("CARRIER_VALIDATION_FAILED", "Carrier validation failed", err)
	}
	carrier.ID = id

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		current, err := f.carrierRepo.ByID(txCtx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrCarrierNotFound
		}
		if req.IsActive == nil {
			carrier.IsActive = current.IsActive
		}

		if err := f.carrierRepo.Update(txCtx, &carrier); err != nil {
			if repository.IsDuplicateKey(err) {
				return asConflict(ErrCarrierNameExists, err)
			}
			return err
		}
		return createAuditLog(txCtx, f.auditRepo, auditEntry{
			carrierID: &id,
			action:    models.AuditActionCarrierUpdated,
			message:   fmt.Sprintf("Carrier %s updated", carrier.Name),
			success:   true,
		}, metadata)
	})
	if err != nil {
		switch {
		case IsCarrierNotFound(err):
			return nil, NewBusinessErrorf("CARRIER_NOT_FOUND", "Carrier %d not found", err, id)
		case IsStorageConflict(err):
			return nil, NewBusinessErrorf("CARRIER_NAME_EXISTS", "Carrier %s already exists", err, carrier.Name)
		}
		return nil, NewBusinessError("CARRIER_UPDATE_FAILED", "Failed to update carrier", err)
	}

	return f.Get(ctx, id)
}

// ToggleActive flips the availability of a carrier; existing quotes are untouched
func (f *CarrierFlowImpl) ToggleActive(ctx context.Context, id uint, metadata *ClientMetadata) (*dto.CarrierDTO, error) {
	err := repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		current, err := f.carrierRepo.ByID(txCtx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrCarrierNotFound
		}

		next := !current.Active()
		if err := f.carrierRepo.SetActive(txCtx, id, next); err != nil {
			return err
		}
		return createAuditLog(txCtx, f.auditRepo, auditEntry{
			carrierID: &id,
			action:    models.AuditActionCarrierToggled,
			message:   fmt.Sprintf("Carrier %s active=%t", current.Name, next),
			success:   true,
		}, metadata)
	})
	if err != nil {
		if IsCarrierNotFound(err) {
			return nil, NewBusinessErrorf("CARRIER_NOT_FOUND", "Carrier %d not found", err, id)
		}
		return nil, NewBusinessError("CARRIER_TOGGLE_FAILED", "Failed to toggle carrier", err)
	}

	return f.Get(ctx, id)
}

func (f *CarrierFlowImpl) Get(ctx context.Context, id uint) (*dto.CarrierDTO, error) {
	carrier, err := f.carrierRepo.ByID(ctx, id)
	if err != nil {
		return nil, NewBusinessError("CARRIER_LOOKUP_FAILED", "Failed to load carrier", err)
	}
	if carrier == nil {
		return nil, NewBusinessErrorf("CARRIER_NOT_FOUND", "Carrier %d not found", ErrCarrierNotFound, id)
	}

	stats, err := f.carrierRepo.QuoteStats(ctx, []uint{id})
	if err != nil {
		return nil, NewBusinessError("CARRIER_STATS_FAILED", "Failed to load carrier statistics", err)
	}
	resp := ToCarrierDTO(*carrier, stats[id])
	return &resp, nil
}

// List returns carriers by name with their quote count and average freight
func (f *CarrierFlowImpl) List(ctx context.Context, activeOnly bool) (*dto.ListCarriersResponse, error) {
	filter := models.CarrierFilter{}
	if activeOnly {
		filter.IsActive = utils.ToPtr(true)
	}

	carriers, err := f.carrierRepo.ByFilter(ctx, filter, "name ASC", 0, 0)
	if err != nil {
		return nil, NewBusinessError("CARRIER_LIST_FAILED", "Failed to list carriers", err)
	}

	ids := make([]uint, 0, len(carriers))
	for _, c := range carriers {
		ids = append(ids, c.ID)
	}
	stats, err := f.carrierRepo.QuoteStats(ctx, ids)
	if err != nil {
		return nil, NewBusinessError("CARRIER_STATS_FAILED", "Failed to load carrier statistics", err)
	}

	items := make([]dto.CarrierDTO, 0, len(carriers))
	for _, c := range carriers {
		items = append(items, ToCarrierDTO(*c, stats[c.ID]))
	}
	return &dto.ListCarriersResponse{Items: items}, nil
}
