package config

import (
    "os"
    "strconv"
    "strings"
    "time"
)

// RateLimitConfig controls the token-bucket limiter applied to the
// authentication endpoints.  A bucket is kept per client key (IP plus route)
// in Redis so that limits hold across replicas.  When Enabled is false or no
// Redis client could be constructed, the limiter becomes a no-op.
type RateLimitConfig struct {
    Enabled        bool          // master switch
    Capacity       int           // maximum tokens in the bucket
    RefillTokens   int           // tokens added per refill interval
    RefillInterval time.Duration // how often tokens are added
    TTL            time.Duration // how long idle bucket state survives in Redis
    Debug          bool          // emit per-request limiter logs and headers
}

// LoadRateLimitConfig reads environment variables to build a RateLimitConfig.
// Defaults allow ten requests with a one-per-six-seconds refill, which is
// generous for humans and hostile to brute-force login attempts.
func LoadRateLimitConfig() RateLimitConfig {
    return RateLimitConfig{
        Enabled:        getenv("RATELIMIT_ENABLED", "true") == "true",
        Capacity:       atoi(getenv("RATELIMIT_CAPACITY", "10")),
        RefillTokens:   atoi(getenv("RATELIMIT_REFILL_TOKENS", "1")),
        RefillInterval: parseDur(getenv("RATELIMIT_REFILL_INTERVAL", "6s")),
        TTL:            parseDur(getenv("RATELIMIT_TTL", "10m")),
        Debug:          strings.EqualFold(os.Getenv("RATELIMIT_DEBUG"), "true"),
    }
}

// atoi converts s to an int, returning 0 when conversion fails.
func atoi(s string) int {
    n, err := strconv.Atoi(s)
    if err != nil {
        return 0
    }
    return n
}

// parseDur converts s to a duration, returning 0 when conversion fails.
func parseDur(s string) time.Duration {
    d, err := time.ParseDuration(s)
    if err != nil {
        return 0
    }
    return d
}
