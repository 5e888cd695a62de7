package config

import (
    "os"
    "strconv"
    "time"
)

// RateLimitConfig configures the Redis token bucket in front of the API.
// Capacity tokens are available per key; RefillTokens are added every
// RefillInterval.  KeyStrategy is one of "ip", "user", "route" or a
// combination joined by underscores (default "ip_user_route").
type RateLimitConfig struct {
    Enabled        bool          `envconfig:"ENABLED" default:"true"`
    Capacity       int           `envconfig:"CAPACITY" default:"60"`
    RefillTokens   int           `envconfig:"REFILL_TOKENS" default:"1"`
    RefillInterval time.Duration `envconfig:"REFILL_INTERVAL" default:"1s"`
    TTL            time.Duration `envconfig:"TTL" default:"10m"`
    KeyStrategy    string        `envconfig:"KEY_STRATEGY" default:"ip_user_route"`
    Prefix         string        `envconfig:"PREFIX" default:"rl"`
    Debug          bool          `envconfig:"DEBUG" default:"false"`
}

// applyAliases honours RATE_LIMIT_BURST and RATE_LIMIT_REFILL_EVERY, the
// shorthand forms of capacity and a one-token refill interval.
func (c *RateLimitConfig) applyAliases() {
    if b := envInt("RATE_LIMIT_BURST", -1); b > 0 {
        c.Capacity = b
    }
    if every := envDur("RATE_LIMIT_REFILL_EVERY", 0); every > 0 {
        c.RefillTokens = 1
        c.RefillInterval = every
    }
}

func (c *RateLimitConfig) normalize() {
    if c.Capacity < 1 { c.Capacity = 1 }
    if c.RefillTokens < 1 { c.RefillTokens = 1 }
    if c.RefillInterval <= 0 { c.RefillInterval = time.Second }
    minTTL := 5 * c.RefillInterval
    if c.TTL < minTTL { c.TTL = minTTL }
}

// CacheConfig controls the Redis response cache used for report endpoints.
// Entries are purged whenever a lifecycle transition commits, so TTL only
// bounds staleness caused by writes from other instances.
type CacheConfig struct {
    Enabled      bool          `envconfig:"ENABLED" default:"true"`
    Methods      []string      `envconfig:"METHODS" default:"GET"`
    TTL          time.Duration `envconfig:"TTL" default:"30s"`
    KeyStrategy  string        `envconfig:"KEY_STRATEGY" default:"route_query"`
    Prefix       string        `envconfig:"PREFIX" default:"cache"`
    MaxBodyBytes int           `envconfig:"MAX_BODY_BYTES" default:"1048576"`
}

func envInt(k string, d int) int {
    v := os.Getenv(k); if v == "" { return d }
    if n, err := strconv.Atoi(v); err == nil { return n }
    return d
}

func envDur(k string, d time.Duration) time.Duration {
    v := os.Getenv(k); if v == "" { return d }
    if dur, err := time.ParseDuration(v); err == nil { return dur }
    return d
}
