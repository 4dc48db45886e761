package businessflow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/amirphl/freightdesk/app/dto"
	"github.com/amirphl/freightdesk/config"
	"github.com/amirphl/freightdesk/freight"
	"github.com/amirphl/freightdesk/models"
	"github.com/amirphl/freightdesk/repository"
	"github.com/amirphl/freightdesk/utils"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// QuoteFlow prices shipments and manages the quote lifecycle
type QuoteFlow interface {
	Preview(ctx context.Context, req *dto.PreviewQuoteRequest) (*dto.QuotePreviewDTO, error)
	Submit(ctx context.Context, req *dto.SubmitQuoteRequest, metadata *ClientMetadata) (*dto.SubmitQuoteResponse, error)
	SetStatus(ctx context.Context, id uint, req *dto.SetQuoteStatusRequest, metadata *ClientMetadata) (*dto.QuoteDTO, error)
	Get(ctx context.Context, id uint) (*dto.QuoteDTO, error)
	List(ctx context.Context, req *dto.ListQuotesRequest) (*dto.ListQuotesResponse, error)
}

type QuoteFlowImpl struct {
	quoteRepo     repository.QuoteRepository
	shipmentRepo  repository.ShipmentRepository
	carrierRepo   repository.CarrierRepository
	auditRepo     repository.AuditLogRepository
	db            *gorm.DB
	rc            *redis.Client
	cacheConfig   *config.CacheConfig
	pricingConfig *config.PricingConfig
}

// NewQuoteFlow wires the quote use cases; rc may be nil when the cache is disabled
func NewQuoteFlow(
	quoteRepo repository.QuoteRepository,
	shipmentRepo repository.ShipmentRepository,
	carrierRepo repository.CarrierRepository,
	auditRepo repository.AuditLogRepository,
	db *gorm.DB,
	rc *redis.Client,
	cacheConfig *config.CacheConfig,
	pricingConfig *config.PricingConfig,
) QuoteFlow {
	return &QuoteFlowImpl{
		quoteRepo:     quoteRepo,
		shipmentRepo:  shipmentRepo,
		carrierRepo:   carrierRepo,
		auditRepo:     auditRepo,
		db:            db,
		rc:            rc,
		cacheConfig:   cacheConfig,
		pricingConfig: pricingConfig,
	}
}

// pricing is the full result of pricing one shipment against one carrier
type pricing struct {
	totals           freight.Totals
	chargeableWeight decimal.Decimal
	breakdown        freight.Breakdown
}

// priceShipment applies the weight policy then the calculator.
// The chargeable weight is the larger of the invoice weight and the shipment's own weight.
func priceShipment(shipment *models.Shipment, carrier *models.Carrier, invoiceWeightKg, invoiceValue decimal.Decimal) (*pricing, error) {
	totals, err := shipment.Totals()
	if err != nil {
		return nil, err
	}
	weight := freight.ChargeableWeight(invoiceWeightKg, shipment.PricingWeightKg(totals))

	breakdown, err := freight.Calculate(carrier.RateTable(), weight, totals.TotalVolumeM3, invoiceValue)
	if err != nil {
		return nil, err
	}
	return &pricing{totals: totals, chargeableWeight: weight, breakdown: breakdown}, nil
}

func (f *QuoteFlowImpl) loadPair(ctx context.Context, shipmentID, carrierID uint) (*models.Shipment, *models.Carrier, error) {
	shipment, err := f.shipmentRepo.ByIDWithMeasurements(ctx, shipmentID)
	if err != nil {
		return nil, nil, err
	}
	if shipment == nil {
		return nil, nil, ErrShipmentNotFound
	}
	carrier, err := f.carrierRepo.ByID(ctx, carrierID)
	if err != nil {
		return nil, nil, err
	}
	if carrier == nil {
		return nil, nil, ErrCarrierNotFound
	}
	return shipment, carrier, nil
}

// Preview prices a shipment without writing anything
func (f *QuoteFlowImpl) Preview(ctx context.Context, req *dto.PreviewQuoteRequest) (*dto.QuotePreviewDTO, error) {
	if err := validatePreview(req); err != nil {
		return nil, NewBusinessError("QUOTE_VALIDATION_FAILED", "Quote preview validation failed", err)
	}

	shipment, carrier, err := f.loadPair(ctx, req.ShipmentID, req.CarrierID)
	if err != nil {
		return nil, lookupError(err)
	}

	p, err := priceShipment(shipment, carrier, req.InvoiceWeightKg, req.InvoiceValue)
	if err != nil {
		return nil, pricingError(err, carrier)
	}

	return &dto.QuotePreviewDTO{
		ShipmentID:         shipment.ID,
		CarrierID:          carrier.ID,
		CarrierName:        carrier.Name,
		TotalVolumeM3:      p.totals.TotalVolumeM3,
		EstimatedWeightKg:  p.totals.EstimatedWeightKg,
		ChargeableWeightKg: p.chargeableWeight,
		Breakdown:          ToBreakdownDTO(p.breakdown),
	}, nil
}

// Submit stores the quote of a shipment. The shipment is the canonical key: a second
// submission overwrites the pricing and resets the status to pending, unless the
// upsert mode is strict. An invoice number already used by another shipment's quote
// is refused.
func (f *QuoteFlowImpl) Submit(ctx context.Context, req *dto.SubmitQuoteRequest, metadata *ClientMetadata) (resp *dto.SubmitQuoteResponse, err error) {
	overwritten := false
	defer func() {
		quotesSubmitted.WithLabelValues(submitOutcome(err, overwritten)).Inc()
	}()

	if err := validateSubmit(req); err != nil {
		return nil, NewBusinessError("QUOTE_VALIDATION_FAILED", "Quote validation failed", err)
	}
	invoiceNumber := strings.TrimSpace(req.InvoiceNumber)

	if f.rc != nil {
		lockKey := redisKey(*f.cacheConfig, fmt.Sprintf(utils.QuoteShipmentLockKey, req.ShipmentID))
		ok, err := f.rc.SetNX(ctx, lockKey, "1", f.lockTTL()).Result()
		switch {
		case err != nil:
			// the row lock and unique constraints still serialize the write
			log.Printf("WARN: quote lock unavailable for shipment %d, continuing without it: %v", req.ShipmentID, err)
		case !ok:
			return nil, NewBusinessError("QUOTE_LOCK_BUSY", "Another submission for this shipment is in progress", ErrQuoteBusy)
		default:
			defer func() {
				_ = f.rc.Del(context.Background(), lockKey).Err()
			}()
		}
	}

	var (
		saved     *models.Quote
		breakdown freight.Breakdown
	)
	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		shipment, carrier, err := f.loadPair(txCtx, req.ShipmentID, req.CarrierID)
		if err != nil {
			return err
		}

		p, err := priceShipment(shipment, carrier, req.InvoiceWeightKg, req.InvoiceValue)
		if err != nil {
			return err
		}
		breakdown = p.breakdown

		existing, err := f.quoteRepo.ByShipmentIDForUpdate(txCtx, shipment.ID)
		if err != nil {
			return err
		}
		if existing != nil && f.pricingConfig.QuoteUpsertMode == config.QuoteUpsertStrict {
			return ErrDuplicateQuote
		}

		holder, err := f.quoteRepo.ByInvoiceNumber(txCtx, invoiceNumber)
		if err != nil {
			return err
		}
		if holder != nil && holder.ShipmentID != shipment.ID {
			return ErrInvoiceNumberConflict
		}

		now := utils.UTCNow()
		quote := models.Quote{
			ShipmentID:         shipment.ID,
			CarrierID:          carrier.ID,
			InvoiceNumber:      invoiceNumber,
			InvoiceValue:       req.InvoiceValue,
			InvoiceWeightKg:    req.InvoiceWeightKg,
			ChargeableWeightKg: p.chargeableWeight,
			TotalVolumeM3:      p.totals.TotalVolumeM3,
			ComputedFreight:    p.breakdown.ComputedFreight,
			DeclaredFreight:    req.DeclaredFreight,
			DeliveryDays:       req.DeliveryDays,
			Status:             models.QuoteStatusPending,
			Notes:              trimmedPtr(req.Notes),
			UpdatedAt:          now,
		}

		action := models.AuditActionQuoteSubmitted
		details := map[string]any{
			"carrier_id":       carrier.ID,
			"invoice_number":   invoiceNumber,
			"computed_freight": p.breakdown.ComputedFreight.String(),
			"minimum_applied":  p.breakdown.MinimumApplied,
		}

		if existing != nil {
			quote.ID = existing.ID
			if err := f.quoteRepo.Overwrite(txCtx, &quote); err != nil {
				if repository.IsDuplicateKey(err) {
					return asConflict(ErrInvoiceNumberConflict, err)
				}
				return err
			}
			overwritten = true
			action = models.AuditActionQuoteOverwritten
			details["previous_status"] = existing.Status.String()
			details["previous_freight"] = existing.ComputedFreight.String()
		} else {
			quote.UUID = uuid.New()
			quote.CreatedAt = now
			if err := f.quoteRepo.Save(txCtx, &quote); err != nil {
				if repository.IsDuplicateKey(err) {
					return asConflict(ErrStorageConflict, err)
				}
				return err
			}
		}

		if err := createAuditLog(txCtx, f.auditRepo, auditEntry{
			quoteID:    &quote.ID,
			shipmentID: &shipment.ID,
			carrierID:  &carrier.ID,
			action:     action,
			message:    fmt.Sprintf("Quote %s for order %s priced at %s", invoiceNumber, shipment.OrderNumber, p.breakdown.ComputedFreight.StringFixed(freight.MoneyPlaces)),
			success:    true,
			details:    details,
		}, metadata); err != nil {
			return err
		}

		saved, err = f.quoteRepo.ByID(txCtx, quote.ID)
		return err
	})
	if err != nil {
		switch {
		case IsValidation(err):
			return nil, NewBusinessError("QUOTE_VALIDATION_FAILED", "Quote validation failed", err)
		case IsNotFound(err):
			return nil, lookupError(err)
		case IsRateUnavailable(err):
			return nil, NewBusinessError("RATE_UNAVAILABLE", "Carrier rate table is not available", err)
		case IsDuplicateQuote(err):
			return nil, NewBusinessErrorf("QUOTE_ALREADY_EXISTS", "Shipment %d already has a quote", err, req.ShipmentID)
		case IsInvoiceNumberConflict(err):
			return nil, NewBusinessErrorf("INVOICE_NUMBER_CONFLICT", "Invoice number %s belongs to another shipment", err, invoiceNumber)
		case IsStorageConflict(err):
			return nil, NewBusinessError("QUOTE_CONFLICT", "Quote was changed concurrently, retry", err)
		}
		return nil, NewBusinessError("QUOTE_SUBMIT_FAILED", "Failed to submit quote", err)
	}

	f.invalidateDashboard(ctx)

	return &dto.SubmitQuoteResponse{
		Quote:       ToQuoteDTO(*saved),
		Overwritten: overwritten,
		Breakdown:   ToBreakdownDTO(breakdown),
	}, nil
}

// SetStatus applies a review decision. Re-applying the current status writes nothing.
func (f *QuoteFlowImpl) SetStatus(ctx context.Context, id uint, req *dto.SetQuoteStatusRequest, metadata *ClientMetadata) (*dto.QuoteDTO, error) {
	if req == nil {
		return nil, NewBusinessError("QUOTE_STATUS_VALIDATION_FAILED", "Status is required", ErrStatusNotSettable)
	}
	to := models.QuoteStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	if to != models.QuoteStatusApproved && to != models.QuoteStatusRejected {
		return nil, NewBusinessError("QUOTE_STATUS_VALIDATION_FAILED", "Status must be approved or rejected", ErrStatusNotSettable)
	}

	var updated *models.Quote
	err := repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		current, err := f.quoteRepo.ByIDForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrQuoteNotFound
		}
		if err := current.Status.CheckTransition(to); err != nil {
			return err
		}

		if current.Status != to {
			if err := f.quoteRepo.UpdateStatus(txCtx, id, to); err != nil {
				return err
			}

			action := models.AuditActionQuoteApproved
			if to == models.QuoteStatusRejected {
				action = models.AuditActionQuoteRejected
			}
			if err := createAuditLog(txCtx, f.auditRepo, auditEntry{
				quoteID:    &id,
				shipmentID: &current.ShipmentID,
				carrierID:  &current.CarrierID,
				action:     action,
				message:    fmt.Sprintf("Quote %s moved from %s to %s", current.InvoiceNumber, current.Status, to),
				success:    true,
				details:    map[string]any{"from": current.Status.String(), "to": to.String()},
			}, metadata); err != nil {
				return err
			}
			quoteStatusChanges.WithLabelValues(to.String()).Inc()
		}

		updated, err = f.quoteRepo.ByID(txCtx, id)
		return err
	})
	if err != nil {
		switch {
		case IsQuoteNotFound(err):
			return nil, NewBusinessErrorf("QUOTE_NOT_FOUND", "Quote %d not found", err, id)
		case IsInvalidTransition(err):
			return nil, NewBusinessError("INVALID_STATUS_TRANSITION", "Status change not allowed", err)
		}
		return nil, NewBusinessError("QUOTE_STATUS_UPDATE_FAILED", "Failed to update quote status", err)
	}

	f.invalidateDashboard(ctx)

	resp := ToQuoteDTO(*updated)
	return &resp, nil
}

func (f *QuoteFlowImpl) Get(ctx context.Context, id uint) (*dto.QuoteDTO, error) {
	quote, err := f.quoteRepo.ByID(ctx, id)
	if err != nil {
		return nil, NewBusinessError("QUOTE_LOOKUP_FAILED", "Failed to load quote", err)
	}
	if quote == nil {
		return nil, NewBusinessErrorf("QUOTE_NOT_FOUND", "Quote %d not found", ErrQuoteNotFound, id)
	}
	resp := ToQuoteDTO(*quote)
	return &resp, nil
}

func (f *QuoteFlowImpl) List(ctx context.Context, req *dto.ListQuotesRequest) (*dto.ListQuotesResponse, error) {
	if req == nil {
		req = &dto.ListQuotesRequest{}
	}
	page, limit, offset, err := pageBounds(req.Page, req.Limit)
	if err != nil {
		return nil, NewBusinessError("QUOTE_LIST_VALIDATION_FAILED", "Invalid pagination", err)
	}
	from, to, err := parseRange(req.CreatedAfter, req.CreatedBefore)
	if err != nil {
		return nil, NewBusinessError("QUOTE_LIST_VALIDATION_FAILED", "Invalid date range", err)
	}

	filter := models.QuoteFilter{
		CarrierID:         req.CarrierID,
		InvoiceNumberLike: trimmedPtr(req.InvoiceNumber),
		OrderNumber:       trimmedPtr(req.OrderNumber),
		CreatedAfter:      from,
		CreatedBefore:     to,
	}
	if s := trimmedPtr(req.Status); s != nil {
		status := models.QuoteStatus(strings.ToLower(*s))
		if !status.Valid() {
			return nil, NewBusinessError("QUOTE_LIST_VALIDATION_FAILED", "Unknown status",
				&freight.FieldError{Field: "status", Index: -1, Reason: "must be pending, approved or rejected"})
		}
		filter.Status = &status
	}

	total, err := f.quoteRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("QUOTE_LIST_FAILED", "Failed to count quotes", err)
	}
	quotes, err := f.quoteRepo.ByFilter(ctx, filter, "", limit, offset)
	if err != nil {
		return nil, NewBusinessError("QUOTE_LIST_FAILED", "Failed to list quotes", err)
	}

	items := make([]dto.QuoteDTO, 0, len(quotes))
	for _, q := range quotes {
		items = append(items, ToQuoteDTO(*q))
	}
	return &dto.ListQuotesResponse{
		Items:      items,
		Pagination: dto.NewPaginationInfo(total, page, limit),
	}, nil
}

func (f *QuoteFlowImpl) lockTTL() time.Duration {
	if f.pricingConfig != nil && f.pricingConfig.QuoteLockTTL > 0 {
		return f.pricingConfig.QuoteLockTTL
	}
	return utils.DefaultQuoteLockTTL
}

// invalidateDashboard drops the cached counters after a quote write
func (f *QuoteFlowImpl) invalidateDashboard(ctx context.Context) {
	if f.rc == nil {
		return
	}
	if err := f.rc.Del(ctx, redisKey(*f.cacheConfig, utils.DashboardSummaryCacheKey)).Err(); err != nil {
		log.Printf("WARN: dashboard cache invalidation failed: %v", err)
	}
}

func validatePreview(req *dto.PreviewQuoteRequest) error {
	switch {
	case req == nil:
		return &freight.FieldError{Field: "body", Index: -1, Reason: "is required"}
	case req.ShipmentID == 0:
		return &freight.FieldError{Field: "shipment_id", Index: -1, Reason: "is required"}
	case req.CarrierID == 0:
		return &freight.FieldError{Field: "carrier_id", Index: -1, Reason: "is required"}
	case req.InvoiceValue.IsNegative():
		return &freight.FieldError{Field: "invoice_value", Index: -1, Reason: "must not be negative"}
	case req.InvoiceWeightKg.IsNegative():
		return &freight.FieldError{Field: "invoice_weight_kg", Index: -1, Reason: "must not be negative"}
	}
	if err := freight.AmountNumeric.Check("invoice_value", req.InvoiceValue); err != nil {
		return err
	}
	return freight.WeightNumeric.Check("invoice_weight_kg", req.InvoiceWeightKg)
}

func validateSubmit(req *dto.SubmitQuoteRequest) error {
	switch {
	case req == nil:
		return &freight.FieldError{Field: "body", Index: -1, Reason: "is required"}
	case req.ShipmentID == 0:
		return &freight.FieldError{Field: "shipment_id", Index: -1, Reason: "is required"}
	case req.CarrierID == 0:
		return &freight.FieldError{Field: "carrier_id", Index: -1, Reason: "is required"}
	case strings.TrimSpace(req.InvoiceNumber) == "":
		return &freight.FieldError{Field: "invoice_number", Index: -1, Reason: "is required"}
	case !req.InvoiceValue.IsPositive():
		return &freight.FieldError{Field: "invoice_value", Index: -1, Reason: "must be greater than zero"}
	case !req.InvoiceWeightKg.IsPositive():
		return &freight.FieldError{Field: "invoice_weight_kg", Index: -1, Reason: "must be greater than zero"}
	case req.DeliveryDays < 1:
		return &freight.FieldError{Field: "delivery_days", Index: -1, Reason: "must be at least 1"}
	case req.DeclaredFreight.IsNegative():
		return &freight.FieldError{Field: "declared_freight", Index: -1, Reason: "must not be negative"}
	}
	if err := freight.AmountNumeric.Check("invoice_value", req.InvoiceValue); err != nil {
		return err
	}
	if err := freight.WeightNumeric.Check("invoice_weight_kg", req.InvoiceWeightKg); err != nil {
		return err
	}
	return freight.AmountNumeric.Check("declared_freight", req.DeclaredFreight)
}

func lookupError(err error) error {
	switch {
	case errors.Is(err, ErrShipmentNotFound):
		return NewBusinessError("SHIPMENT_NOT_FOUND", "Shipment not found", err)
	case errors.Is(err, ErrCarrierNotFound):
		return NewBusinessError("CARRIER_NOT_FOUND", "Carrier not found", err)
	}
	return NewBusinessError("QUOTE_LOOKUP_FAILED", "Failed to load shipment or carrier", err)
}

func pricingError(err error, carrier *models.Carrier) error {
	switch {
	case IsRateUnavailable(err):
		return NewBusinessErrorf("RATE_UNAVAILABLE", "Carrier %s is inactive", err, carrier.Name)
	case IsValidation(err):
		return NewBusinessError("SHIPMENT_CORRUPT", "Stored measurements are invalid", err)
	}
	return NewBusinessError("QUOTE_PRICING_FAILED", "Failed to price shipment", err)
}
