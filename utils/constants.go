package utils

import (
	"time"
)

// Cache keys, prefixed with CacheConfig.RedisPrefix at use
const (
	DashboardSummaryCacheKey = "dashboard:summary"
	QuoteShipmentLockKey     = "quote:shipment:%d"
)

const (
	// DefaultQuoteLockTTL bounds how long a submission holds the per-shipment lock
	DefaultQuoteLockTTL = 10 * time.Second

	// DefaultPageSize is used by list endpoints when none is given
	DefaultPageSize = 20

	// MaxPageSize caps list endpoint pages
	MaxPageSize = 100
)
