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
	"gorm.io/gorm"
)

// ShipmentFlow handles shipment intake and edits
type ShipmentFlow interface {
	Create(ctx context.Context, req *dto.SaveShipmentRequest, metadata *ClientMetadata) (*dto.ShipmentDTO, error)
	Update(ctx context.Context, id uint, req *dto.SaveShipmentRequest, metadata *ClientMetadata) (*dto.ShipmentDTO, error)
	Get(ctx context.Context, id uint) (*dto.ShipmentDTO, error)
	List(ctx context.Context, req *dto.ListShipmentsRequest) (*dto.ListShipmentsResponse, error)
}

type ShipmentFlowImpl struct {
	shipmentRepo repository.ShipmentRepository
	auditRepo    repository.AuditLogRepository
	db           *gorm.DB
}

func NewShipmentFlow(shipmentRepo repository.ShipmentRepository, auditRepo repository.AuditLogRepository, db *gorm.DB) ShipmentFlow {
	return &ShipmentFlowImpl{
		shipmentRepo: shipmentRepo,
		auditRepo:    auditRepo,
		db:           db,
	}
}

// shipmentInput is a request that passed validation
type shipmentInput struct {
	header       models.Shipment
	measurements []freight.Measurement
	totals       freight.Totals
}

func validateShipmentRequest(req *dto.SaveShipmentRequest) (*shipmentInput, error) {
	if req == nil {
		return nil, &freight.FieldError{Field: "body", Index: -1, Reason: "is required"}
	}
	orderNumber := strings.TrimSpace(req.OrderNumber)
	if orderNumber == "" {
		return nil, &freight.FieldError{Field: "order_number", Index: -1, Reason: "is required"}
	}
	if req.DeclaredWeightKg != nil {
		if req.DeclaredWeightKg.IsNegative() {
			return nil, &freight.FieldError{Field: "declared_weight_kg", Index: -1, Reason: "must not be negative"}
		}
		if err := freight.WeightNumeric.Check("declared_weight_kg", *req.DeclaredWeightKg); err != nil {
			return nil, err
		}
	}
	if req.MerchandiseValue != nil {
		if req.MerchandiseValue.IsNegative() {
			return nil, &freight.FieldError{Field: "merchandise_value", Index: -1, Reason: "must not be negative"}
		}
		if err := freight.AmountNumeric.Check("merchandise_value", *req.MerchandiseValue); err != nil {
			return nil, err
		}
	}

	measurements := make([]freight.Measurement, 0, len(req.Measurements))
	for _, m := range req.Measurements {
		measurements = append(measurements, freight.Measurement{
			Length: m.Length,
			Height: m.Height,
			Width:  m.Width,
			Count:  m.VolumeCount,
		})
	}
	totals, err := freight.Aggregate(measurements)
	if err != nil {
		return nil, err
	}

	return &shipmentInput{
		header: models.Shipment{
			OrderNumber:      orderNumber,
			PickingNumber:    trimmedPtr(req.PickingNumber),
			CustomerName:     trimmedPtr(req.CustomerName),
			Origin:           trimmedPtr(req.Origin),
			Destination:      trimmedPtr(req.Destination),
			DeclaredWeightKg: decimalPtrOrNil(req.DeclaredWeightKg),
			MerchandiseValue: decimalPtrOrNil(req.MerchandiseValue),
			Notes:            trimmedPtr(req.Notes),
		},
		measurements: measurements,
		totals:       totals,
	}, nil
}

func (in *shipmentInput) rows() []models.ShipmentMeasurement {
	now := utils.UTCNow()
	rows := make([]models.ShipmentMeasurement, 0, len(in.measurements))
	for i, m := range in.measurements {
		rows = append(rows, models.NewShipmentMeasurement(i+1, m, now))
	}
	return rows
}

func (f *ShipmentFlowImpl) Create(ctx context.Context, req *dto.SaveShipmentRequest, metadata *ClientMetadata) (*dto.ShipmentDTO, error) {
	in, err := validateShipmentRequest(req)
	if err != nil {
		return nil, NewBusinessError("SHIPMENT_VALIDATION_FAILED", "Shipment validation failed", err)
	}

	taken, err := f.shipmentRepo.Exists(ctx, models.ShipmentFilter{OrderNumber: &in.header.OrderNumber})
	if err != nil {
		return nil, NewBusinessError("SHIPMENT_LOOKUP_FAILED", "Failed to check order number", err)
	}
	if taken {
		return nil, NewBusinessErrorf("ORDER_NUMBER_EXISTS", "Order number %s already exists", ErrOrderNumberExists, in.header.OrderNumber)
	}

	shipment := in.header
	shipment.UUID = uuid.New()
	shipment.Measurements = in.rows()
	shipment.CreatedAt = utils.UTCNow()
	shipment.UpdatedAt = shipment.CreatedAt

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if err := f.shipmentRepo.Save(txCtx, &shipment); err != nil {
			if repository.IsDuplicateKey(err) {
				return asConflict(ErrOrderNumberExists, err)
			}
			return err
		}

		return createAuditLog(txCtx, f.auditRepo, auditEntry{
			shipmentID: &shipment.ID,
			action:     models.AuditActionShipmentCreated,
			message:    fmt.Sprintf("Shipment %s created with %d packages", shipment.OrderNumber, len(shipment.Measurements)),
			success:    true,
			details: map[string]any{
				"total_volume_m3":     in.totals.TotalVolumeM3.String(),
				"estimated_weight_kg": in.totals.EstimatedWeightKg.String(),
			},
		}, metadata)
	})
	if err != nil {
		if IsStorageConflict(err) {
			return nil, NewBusinessErrorf("ORDER_NUMBER_EXISTS", "Order number %s already exists", err, shipment.OrderNumber)
		}
		return nil, NewBusinessError("SHIPMENT_CREATE_FAILED", "Failed to create shipment", err)
	}

	resp := ToShipmentDTO(shipment, in.totals)
	return &resp, nil
}

// Update replaces the header and the whole measurement set in one transaction
func (f *ShipmentFlowImpl) Update(ctx context.Context, id uint, req *dto.SaveShipmentRequest, metadata *ClientMetadata) (*dto.ShipmentDTO, error) {
	in, err := validateShipmentRequest(req)
	if err != nil {
		return nil, NewBusinessError("SHIPMENT_VALIDATION_FAILED", "Shipment validation failed", err)
	}

	var updated *models.Shipment
	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		current, err := f.shipmentRepo.ByIDWithMeasurements(txCtx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrShipmentNotFound
		}

		if current.OrderNumber != in.header.OrderNumber {
			other, err := f.shipmentRepo.ByOrderNumber(txCtx, in.header.OrderNumber)
			if err != nil {
				return err
			}
			if other != nil && other.ID != id {
				return ErrOrderNumberExists
			}
		}

		header := in.header
		header.ID = id
		header.UpdatedAt = utils.UTCNow()
		if err := f.shipmentRepo.UpdateHeader(txCtx, &header); err != nil {
			if repository.IsDuplicateKey(err) {
				return asConflict(ErrOrderNumberExists, err)
			}
			return err
		}
		if err := f.shipmentRepo.ReplaceMeasurements(txCtx, id, in.rows()); err != nil {
			return err
		}

		if err := createAuditLog(txCtx, f.auditRepo, auditEntry{
			shipmentID: &id,
			action:     models.AuditActionShipmentReplaced,
			message:    fmt.Sprintf("Shipment %s replaced: %d packages (was %d)", header.OrderNumber, len(in.measurements), len(current.Measurements)),
			success:    true,
		}, metadata); err != nil {
			return err
		}

		updated, err = f.shipmentRepo.ByIDWithMeasurements(txCtx, id)
		return err
	})
	if err != nil {
		switch {
		case IsShipmentNotFound(err):
			return nil, NewBusinessErrorf("SHIPMENT_NOT_FOUND", "Shipment %d not found", err, id)
		case IsStorageConflict(err):
			return nil, NewBusinessErrorf("ORDER_NUMBER_EXISTS", "Order number %s already exists", err, in.header.OrderNumber)
		}
		return nil, NewBusinessError("SHIPMENT_UPDATE_FAILED", "Failed to update shipment", err)
	}

	resp := ToShipmentDTO(*updated, in.totals)
	return &resp, nil
}

func (f *ShipmentFlowImpl) Get(ctx context.Context, id uint) (*dto.ShipmentDTO, error) {
	shipment, err := f.shipmentRepo.ByIDWithMeasurements(ctx, id)
	if err != nil {
		return nil, NewBusinessError("SHIPMENT_LOOKUP_FAILED", "Failed to load shipment", err)
	}
	if shipment == nil {
		return nil, NewBusinessErrorf("SHIPMENT_NOT_FOUND", "Shipment %d not found", ErrShipmentNotFound, id)
	}

	totals, err := shipment.Totals()
	if err != nil {
		return nil, NewBusinessError("SHIPMENT_CORRUPT", "Stored measurements are invalid", err)
	}
	resp := ToShipmentDTO(*shipment, totals)
	return &resp, nil
}

func (f *ShipmentFlowImpl) List(ctx context.Context, req *dto.ListShipmentsRequest) (*dto.ListShipmentsResponse, error) {
	if req == nil {
		req = &dto.ListShipmentsRequest{}
	}
	page, limit, offset, err := pageBounds(req.Page, req.Limit)
	if err != nil {
		return nil, NewBusinessError("SHIPMENT_LIST_VALIDATION_FAILED", "Invalid pagination", err)
	}

	filter := models.ShipmentFilter{
		OrderNumber:  trimmedPtr(req.OrderNumber),
		CustomerLike: trimmedPtr(req.Customer),
	}

	total, err := f.shipmentRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("SHIPMENT_LIST_FAILED", "Failed to count shipments", err)
	}
	shipments, err := f.shipmentRepo.ByFilter(ctx, filter, "id DESC", limit, offset)
	if err != nil {
		return nil, NewBusinessError("SHIPMENT_LIST_FAILED", "Failed to list shipments", err)
	}

	items := make([]dto.ShipmentDTO, 0, len(shipments))
	for _, s := range shipments {
		totals, err := s.Totals()
		if err != nil {
			return nil, NewBusinessError("SHIPMENT_CORRUPT", "Stored measurements are invalid", err)
		}
		items = append(items, ToShipmentDTO(*s, totals))
	}

	return &dto.ListShipmentsResponse{
		Items:      items,
		Pagination: dto.NewPaginationInfo(total, page, limit),
	}, nil
}
