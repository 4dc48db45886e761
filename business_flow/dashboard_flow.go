package businessflow

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/amirphl/freightdesk/app/dto"
	"github.com/amirphl/freightdesk/config"
	"github.com/amirphl/freightdesk/models"
	"github.com/amirphl/freightdesk/repository"
	"github.com/amirphl/freightdesk/utils"
	"github.com/redis/go-redis/v9"
)

// DashboardFlow serves the operational counters
type DashboardFlow interface {
	Summary(ctx context.Context) (*dto.DashboardSummaryDTO, error)
}

type DashboardFlowImpl struct {
	shipmentRepo repository.ShipmentRepository
	quoteRepo    repository.QuoteRepository
	carrierRepo  repository.CarrierRepository
	rc           *redis.Client
	cacheConfig  *config.CacheConfig
}

func NewDashboardFlow(
	shipmentRepo repository.ShipmentRepository,
	quoteRepo repository.QuoteRepository,
	carrierRepo repository.CarrierRepository,
	rc *redis.Client,
	cacheConfig *config.CacheConfig,
) DashboardFlow {
	return &DashboardFlowImpl{
		shipmentRepo: shipmentRepo,
		quoteRepo:    quoteRepo,
		carrierRepo:  carrierRepo,
		rc:           rc,
		cacheConfig:  cacheConfig,
	}
}

// Summary returns the counters, from cache when a fresh copy exists
func (f *DashboardFlowImpl) Summary(ctx context.Context) (*dto.DashboardSummaryDTO, error) {
	var cacheKey string
	if f.rc != nil {
		cacheKey = redisKey(*f.cacheConfig, utils.DashboardSummaryCacheKey)
		bs, err := f.rc.Get(ctx, cacheKey).Bytes()
		if err == nil {
			var cached dto.DashboardSummaryDTO
			if err := json.Unmarshal(bs, &cached); err == nil {
				return &cached, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			log.Printf("WARN: dashboard cache read failed: %v", err)
		}
	}

	now := utils.UTCNow()
	start := utils.StartOfDayUTC(now)

	shipmentsToday, err := f.shipmentRepo.CountCreatedBetween(ctx, start, start.Add(24*time.Hour))
	if err != nil {
		return nil, NewBusinessError("DASHBOARD_FAILED", "Failed to count shipments", err)
	}
	quotesTotal, err := f.quoteRepo.Count(ctx, models.QuoteFilter{})
	if err != nil {
		return nil, NewBusinessError("DASHBOARD_FAILED", "Failed to count quotes", err)
	}
	pending := models.QuoteStatusPending
	quotesPending, err := f.quoteRepo.Count(ctx, models.QuoteFilter{Status: &pending})
	if err != nil {
		return nil, NewBusinessError("DASHBOARD_FAILED", "Failed to count pending quotes", err)
	}
	activeCarriers, err := f.carrierRepo.Count(ctx, models.CarrierFilter{IsActive: utils.ToPtr(true)})
	if err != nil {
		return nil, NewBusinessError("DASHBOARD_FAILED", "Failed to count carriers", err)
	}

	summary := &dto.DashboardSummaryDTO{
		ShipmentsToday: shipmentsToday,
		QuotesTotal:    quotesTotal,
		QuotesPending:  quotesPending,
		ActiveCarriers: activeCarriers,
		GeneratedAt:    now.Format(time.RFC3339),
	}

	if f.rc != nil {
		if bs, err := json.Marshal(summary); err == nil {
			if err := f.rc.Set(ctx, cacheKey, bs, f.cacheConfig.DefaultTTL).Err(); err != nil {
				log.Printf("WARN: dashboard cache write failed: %v", err)
			}
		}
	}

	return summary, nil
}
