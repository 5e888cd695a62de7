package middleware

import (
    "math"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "go.uber.org/zap"

    "github.com/iliyamo/motel-occupancy/internal/config"
)

// tokenBucketScript refills and takes one token atomically.  Bucket state
// lives in a hash (tokens, last_refill_ms) that expires after ttl seconds
// of inactivity.  Returns {allowed, remaining, retry_after_ms}.
var tokenBucketScript = redis.NewScript(`
    local key = KEYS[1]
    local now_ms = tonumber(ARGV[1])
    local capacity = tonumber(ARGV[2])
    local refill_tokens = tonumber(ARGV[3])
    local interval_ms = tonumber(ARGV[4])
    local ttl_seconds = tonumber(ARGV[5])

    local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
    local tokens = tonumber(state[1])
    local last_refill = tonumber(state[2])
    if tokens == nil or last_refill == nil then
        tokens = capacity
        last_refill = now_ms
    end

    if interval_ms > 0 and refill_tokens > 0 then
        local intervals = math.floor(math.max(0, now_ms - last_refill) / interval_ms)
        if intervals > 0 then
            tokens = math.min(capacity, tokens + intervals * refill_tokens)
            last_refill = last_refill + intervals * interval_ms
        end
    end

    local allowed = 0
    local retry_after_ms = 0
    if tokens > 0 then
        allowed = 1
        tokens = tokens - 1
    else
        retry_after_ms = math.max(0, interval_ms - (now_ms - last_refill))
    end

    redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
    redis.call('EXPIRE', key, ttl_seconds)
    return { allowed, tokens, retry_after_ms }
`)

type bucketResult struct {
    allowed   bool
    remaining int64
    retryMs   int64
}

// NewTokenBucket limits requests per key (see config.RateLimitConfig) using
// a Redis-side token bucket.  It fails open: without Redis, or when a
// script call errors, requests pass through.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, log *zap.Logger) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return passthrough
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := rateKey(cfg, c)
            args := []interface{}{
                time.Now().UnixMilli(),
                cfg.Capacity,
                cfg.RefillTokens,
                cfg.RefillInterval.Milliseconds(),
                int64(cfg.TTL / time.Second),
            }
            vals, err := tokenBucketScript.Run(c.Request().Context(), rdb, []string{key}, args...).Result()
            if err != nil {
                log.Warn("ratelimit: redis error, allowing request", zap.String("key", key), zap.Error(err))
                return next(c)
            }
            res, ok := parseBucketResult(vals)
            if !ok {
                log.Warn("ratelimit: unexpected script result", zap.String("key", key), zap.Any("result", vals))
                return next(c)
            }

            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(res.remaining, 10))
            if cfg.Debug {
                h.Set("X-RateLimit-Key", key)
            }
            if !res.allowed {
                secs := int(math.Ceil(float64(res.retryMs) / 1000.0))
                h.Set("Retry-After", strconv.Itoa(secs))
                if cfg.Debug {
                    log.Info("ratelimit: blocked", zap.String("key", key), zap.Int64("retry_ms", res.retryMs))
                }
                return c.JSON(http.StatusTooManyRequests, echo.Map{
                    "error":       "rate limit exceeded",
                    "code":        "too_many_requests",
                    "retry_after": secs,
                })
            }
            return next(c)
        }
    }
}

func parseBucketResult(v interface{}) (bucketResult, bool) {
    arr, ok := v.([]interface{})
    if !ok || len(arr) != 3 {
        return bucketResult{}, false
    }
    return bucketResult{
        allowed:   asInt64(arr[0]) == 1,
        remaining: asInt64(arr[1]),
        retryMs:   asInt64(arr[2]),
    }, true
}

func asInt64(v interface{}) int64 {
    switch t := v.(type) {
    case int64:
        return t
    case int:
        return int64(t)
    case float64:
        return int64(t)
    case string:
        n, _ := strconv.ParseInt(t, 10, 64)
        return n
    }
    return 0
}

// rateKey joins the configured parts of the request identity.  Strategies
// combine "ip", "user" and "route" with underscores; unknown strategies use
// all three.
func rateKey(cfg config.RateLimitConfig, c echo.Context) string {
    ip := c.RealIP()
    if ip == "" {
        ip = "unknown"
    }
    parts := map[string]string{
        "ip":    ip,
        "user":  StaffID(c),
        "route": c.Request().Method + " " + c.Path(),
    }
    strategy := strings.Split(strings.ToLower(cfg.KeyStrategy), "_")
    for _, s := range strategy {
        if _, ok := parts[s]; !ok {
            strategy = []string{"ip", "user", "route"}
            break
        }
    }
    out := []string{cfg.Prefix}
    for _, s := range strategy {
        out = append(out, s, parts[s])
    }
    return strings.Join(out, ":")
}

func passthrough(next echo.HandlerFunc) echo.HandlerFunc { return next }
