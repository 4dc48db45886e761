// Package businessflow contains the business logic for the application.
package businessflow

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/amirphl/freightdesk/app/dto"
	"github.com/amirphl/freightdesk/config"
	"github.com/amirphl/freightdesk/freight"
	"github.com/amirphl/freightdesk/models"
	"github.com/amirphl/freightdesk/repository"
	"github.com/amirphl/freightdesk/utils"
	"github.com/shopspring/decimal"
)

// ClientMetadata holds all client-related information for audit logging
type ClientMetadata struct {
	IPAddress  string            `json:"ip_address"`
	UserAgent  string            `json:"user_agent"`
	RequestID  string            `json:"request_id,omitempty"`
	Additional map[string]string `json:"additional,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Additional: make(map[string]string),
	}
}

// AddAdditional adds additional custom information to the metadata
func (cm *ClientMetadata) AddAdditional(key, value string) {
	if cm.Additional == nil {
		cm.Additional = make(map[string]string)
	}
	cm.Additional[key] = value
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// redisKey prefixes a cache key with the configured namespace
func redisKey(cfg config.CacheConfig, key string) string {
	return cfg.RedisPrefix + key
}

// auditEntry names what an audit row points at
type auditEntry struct {
	quoteID    *uint
	shipmentID *uint
	carrierID  *uint
	action     string
	message    string
	success    bool
	errorMsg   *string
	details    map[string]any
}

// createAuditLog writes an audit row; inside a transaction it joins it
func createAuditLog(ctx context.Context, auditRepo repository.AuditLogRepository, entry auditEntry, metadata *ClientMetadata) error {
	ipAddress := ""
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	audit := &models.AuditLog{
		QuoteID:      entry.quoteID,
		ShipmentID:   entry.shipmentID,
		CarrierID:    entry.carrierID,
		Action:       entry.action,
		Description:  &entry.message,
		Success:      utils.ToPtr(entry.success),
		IPAddress:    &ipAddress,
		UserAgent:    &userAgent,
		ErrorMessage: entry.errorMsg,
		CreatedAt:    utils.UTCNow(),
	}

	if len(entry.details) > 0 {
		if bs, err := json.Marshal(entry.details); err == nil {
			audit.Metadata = bs
		}
	}

	// Extract request ID from context if available
	if requestID := utils.RequestIDFromContext(ctx); requestID != "" {
		audit.RequestID = &requestID
	} else if metadata != nil && metadata.RequestID != "" {
		audit.RequestID = &metadata.RequestID
	}

	return auditRepo.Save(ctx, audit)
}

// pageBounds validates page/limit and returns limit and offset
func pageBounds(page, limit int) (int, int, int, error) {
	if page == 0 {
		page = 1
	}
	if limit == 0 {
		limit = utils.DefaultPageSize
	}
	if page < 1 {
		return 0, 0, 0, ErrInvalidPage
	}
	if limit < 1 || limit > utils.MaxPageSize {
		return 0, 0, 0, ErrInvalidPageSize
	}
	return page, limit, (page - 1) * limit, nil
}

// parseDate accepts YYYY-MM-DD (midnight UTC) or RFC3339; dateOnly reports the first form
func parseDate(s string) (t time.Time, dateOnly bool, err error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t.UTC(), true, nil
	}
	t, err = time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false, ErrInvalidDate
	}
	return t.UTC(), false, nil
}

// parseRange turns optional bounds into [after, before); a date-only upper bound covers that whole day
func parseRange(after, before *string) (*time.Time, *time.Time, error) {
	var from, to *time.Time
	if v := trimmedPtr(after); v != nil {
		t, _, err := parseDate(*v)
		if err != nil {
			return nil, nil, err
		}
		from = &t
	}
	if v := trimmedPtr(before); v != nil {
		t, dateOnly, err := parseDate(*v)
		if err != nil {
			return nil, nil, err
		}
		if dateOnly {
			t = t.AddDate(0, 0, 1)
		}
		to = &t
	}
	if from != nil && to != nil && from.After(*to) {
		return nil, nil, ErrStartDateAfterEndDate
	}
	return from, to, nil
}

func trimmedPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// ToShipmentDTO converts a shipment and its totals for responses
func ToShipmentDTO(s models.Shipment, totals freight.Totals) dto.ShipmentDTO {
	measurements := make([]dto.MeasurementDTO, 0, len(s.Measurements))
	for _, m := range s.Measurements {
		measurements = append(measurements, dto.MeasurementDTO{
			Position:    m.Position,
			Length:      m.LengthCm,
			Height:      m.HeightCm,
			Width:       m.WidthCm,
			VolumeCount: m.VolumeCount,
			VolumeM3:    m.VolumeM3,
		})
	}

	return dto.ShipmentDTO{
		ID:                s.ID,
		UUID:              s.UUID.String(),
		OrderNumber:       s.OrderNumber,
		PickingNumber:     s.PickingNumber,
		CustomerName:      s.CustomerName,
		Origin:            s.Origin,
		Destination:       s.Destination,
		DeclaredWeightKg:  s.DeclaredWeightKg,
		MerchandiseValue:  s.MerchandiseValue,
		Notes:             s.Notes,
		Measurements:      measurements,
		TotalVolumeM3:     totals.TotalVolumeM3,
		EstimatedWeightKg: totals.EstimatedWeightKg,
		PricingWeightKg:   s.PricingWeightKg(totals),
		CreatedAt:         s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         s.UpdatedAt.Format(time.RFC3339),
	}
}

// ToCarrierDTO converts a carrier for responses
func ToCarrierDTO(c models.Carrier, stats models.CarrierQuoteStats) dto.CarrierDTO {
	return dto.CarrierDTO{
		ID:                c.ID,
		UUID:              c.UUID.String(),
		Name:              c.Name,
		WeightUpTo50Kg:    c.WeightUpTo50Kg,
		WeightUpTo100Kg:   c.WeightUpTo100Kg,
		WeightUpTo150Kg:   c.WeightUpTo150Kg,
		WeightUpTo200Kg:   c.WeightUpTo200Kg,
		WeightUpTo300Kg:   c.WeightUpTo300Kg,
		RatePerTon:        c.RatePerTon,
		MinimumFreight:    c.MinimumFreight,
		TollPerCubicMeter: c.TollPerCubicMeter,
		PercentOfValue:    c.PercentOfValue,
		CubicWeightFactor: c.CubicWeightFactor,
		IsActive:          c.Active(),
		QuoteCount:        stats.QuoteCount,
		AverageFreight:    stats.AverageFreight,
		CreatedAt:         c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         c.UpdatedAt.Format(time.RFC3339),
	}
}

// ToQuoteDTO converts a quote for responses; shipment and carrier names are included when preloaded
func ToQuoteDTO(q models.Quote) dto.QuoteDTO {
	out := dto.QuoteDTO{
		ID:                 q.ID,
		UUID:               q.UUID.String(),
		ShipmentID:         q.ShipmentID,
		CarrierID:          q.CarrierID,
		InvoiceNumber:      q.InvoiceNumber,
		InvoiceValue:       q.InvoiceValue,
		InvoiceWeightKg:    q.InvoiceWeightKg,
		ChargeableWeightKg: q.ChargeableWeightKg,
		TotalVolumeM3:      q.TotalVolumeM3,
		ComputedFreight:    q.ComputedFreight,
		DeclaredFreight:    q.DeclaredFreight,
		DeliveryDays:       q.DeliveryDays,
		Status:             q.Status.String(),
		Notes:              q.Notes,
		CreatedAt:          q.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          q.UpdatedAt.Format(time.RFC3339),
	}
	if q.Shipment != nil {
		out.OrderNumber = q.Shipment.OrderNumber
	}
	if q.Carrier != nil {
		out.CarrierName = q.Carrier.Name
	}
	return out
}

// ToBreakdownDTO converts a freight breakdown for responses
func ToBreakdownDTO(b freight.Breakdown) dto.BreakdownDTO {
	return dto.BreakdownDTO{
		WeightKg:        b.WeightKg,
		Tons:            b.Tons,
		WeightComponent: b.WeightComponent.Round(4),
		TollComponent:   b.TollComponent.Round(4),
		ValueComponent:  b.ValueComponent.Round(4),
		Raw:             b.Raw.Round(4),
		MinimumFreight:  b.MinimumFreight,
		MinimumApplied:  b.MinimumApplied,
		ComputedFreight: b.ComputedFreight,
	}
}

// ToReconciliationRecordDTO converts a matcher record for responses
func ToReconciliationRecordDTO(r freight.Record) dto.ReconciliationRecordDTO {
	out := dto.ReconciliationRecordDTO{
		InvoiceNumber:  r.InvoiceNumber,
		SystemValue:    r.SystemValue,
		InvoiceValue:   r.InvoiceValue,
		Delta:          r.Delta.Round(freight.MoneyPlaces),
		PercentDelta:   r.PercentDelta.Round(2),
		Classification: r.Classification.String(),
	}
	if r.MatchedQuote != nil {
		out.QuoteID = utils.ToPtr(r.MatchedQuote.QuoteID)
		if r.MatchedQuote.ShipmentOrder != "" {
			out.OrderNumber = utils.ToPtr(r.MatchedQuote.ShipmentOrder)
		}
		if r.MatchedQuote.CarrierName != "" {
			out.CarrierName = utils.ToPtr(r.MatchedQuote.CarrierName)
		}
	}
	return out
}

func decimalPtrOrNil(d *decimal.Decimal) *decimal.Decimal {
	if d == nil || d.IsZero() {
		return nil
	}
	v := *d
	return &v
}
