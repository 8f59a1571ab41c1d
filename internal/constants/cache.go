package constants

import "time"

// Cache key prefixes. CacheBuilder adds the colon.
const (
	UserCachePrefix     = "user_profile"
	UserCacheExpiry     = 7 * 24 * time.Hour
	CurrencyCachePrefix = "currency_rates"
	CurrencyCacheTTL    = 12 * time.Hour
	LimiterCachePrefix  = "limiter"
)
