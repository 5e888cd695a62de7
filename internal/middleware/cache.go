package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "encoding/json"
    "errors"
    "fmt"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "go.uber.org/zap"

    "github.com/iliyamo/motel-occupancy/internal/config"
    "github.com/iliyamo/motel-occupancy/internal/queue"
)

// captureWriter tees the response body (up to limit bytes) while it is
// written to the client.
type captureWriter struct {
    http.ResponseWriter
    status int
    buf    bytes.Buffer
    size   int64
    limit  int64
}

func (cw *captureWriter) WriteHeader(code int) {
    cw.status = code
    cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
    switch {
    case cw.limit <= 0:
        cw.buf.Write(b)
    case cw.size < cw.limit:
        remain := cw.limit - cw.size
        if int64(len(b)) <= remain {
            cw.buf.Write(b)
        } else {
            cw.buf.Write(b[:remain])
        }
    }
    cw.size += int64(len(b))
    return cw.ResponseWriter.Write(b)
}

// ResponseCache stores successful report responses in Redis.  Every entry
// lives under Prefix, so Purge can drop all of them when room or booking
// state changes.  Keys also carry a generation read from <Prefix>:gen at the
// start of the request; Purge bumps it first, so a response rendered before
// a purge and stored after it sits under a generation nobody reads.
type ResponseCache struct {
    cfg     config.CacheConfig
    rdb     *redis.Client
    log     *zap.Logger
    methods map[string]bool
}

// NewResponseCache returns a cache; a nil rdb or disabled config yields a
// cache whose middleware is a no-op.
func NewResponseCache(cfg config.CacheConfig, rdb *redis.Client, log *zap.Logger) *ResponseCache {
    if cfg.TTL <= 0 {
        cfg.TTL = 30 * time.Second
    }
    if cfg.Prefix == "" {
        cfg.Prefix = "cache"
    }
    methods := map[string]bool{}
    for _, m := range cfg.Methods {
        if m = strings.ToUpper(strings.TrimSpace(m)); m != "" {
            methods[m] = true
        }
    }
    return &ResponseCache{cfg: cfg, rdb: rdb, log: log, methods: methods}
}

func (rc *ResponseCache) enabled() bool { return rc.cfg.Enabled && rc.rdb != nil }

func (rc *ResponseCache) genKey() string { return rc.cfg.Prefix + ":gen" }

// generation returns the current cache generation; zero before the first
// purge.
func (rc *ResponseCache) generation(ctx context.Context) (int64, error) {
    gen, err := rc.rdb.Get(ctx, rc.genKey()).Int64()
    if errors.Is(err, redis.Nil) {
        return 0, nil
    }
    return gen, err
}

// key builds a stable key from the configured strategy and generation,
// hashing everything after the prefix.
func (rc *ResponseCache) key(c echo.Context, gen int64) string {
    r := c.Request()
    var parts []string
    switch strings.ToLower(rc.cfg.KeyStrategy) {
    case "route":
        parts = []string{"route", c.Path()}
    case "method_route":
        parts = []string{"method", r.Method, "route", c.Path()}
    case "method_route_query":
        parts = []string{"method", r.Method, "route", c.Path(), "q", r.URL.RawQuery}
    default:
        parts = []string{"route", c.Path(), "q", r.URL.RawQuery}
    }
    // report bodies depend on the caller's role
    parts = append(parts, "role", Role(c))
    sum := sha1.Sum([]byte(strings.Join(parts, ":")))
    return fmt.Sprintf("%s:%d:%x", rc.cfg.Prefix, gen, sum[:])
}

// Middleware serves cached 200 responses and records new ones.  Responses
// carry X-Cache: HIT or MISS.
func (rc *ResponseCache) Middleware() echo.MiddlewareFunc {
    if !rc.enabled() {
        return passthrough
    }
    maxBody := int64(rc.cfg.MaxBodyBytes)
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !rc.methods[c.Request().Method] {
                return next(c)
            }
            ctx := c.Request().Context()
            gen, err := rc.generation(ctx)
            if err != nil {
                rc.log.Warn("cache: generation lookup failed", zap.Error(err))
                return next(c)
            }
            key := rc.key(c, gen)

            if bs, err := rc.rdb.Get(ctx, key).Bytes(); err == nil {
                if status, hdr, body, ok := decodePayload(bs); ok {
                    for k, vals := range hdr {
                        if strings.EqualFold(k, echo.HeaderContentLength) {
                            continue
                        }
                        for _, v := range vals {
                            c.Response().Header().Add(k, v)
                        }
                    }
                    c.Response().Header().Set("X-Cache", "HIT")
                    c.Response().WriteHeader(status)
                    _, _ = c.Response().Write(body)
                    return nil
                }
            }

            cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: maxBody}
            c.Response().Writer = cw
            c.Response().Header().Set("X-Cache", "MISS")
            if err := next(c); err != nil {
                return err
            }
            if cw.status != http.StatusOK || (maxBody > 0 && cw.size > maxBody) {
                return nil
            }

            hdr := c.Response().Header().Clone()
            hdr.Del("X-Cache")
            payload, err := encodePayload(cw.status, hdr, cw.buf.Bytes())
            if err != nil {
                return nil
            }
            if err := rc.rdb.Set(context.WithoutCancel(ctx), key, payload, rc.cfg.TTL).Err(); err != nil {
                rc.log.Warn("cache: store failed", zap.String("key", key), zap.Error(err))
            }
            return nil
        }
    }
}

// Purge starts a new generation and deletes every entry under the cache
// prefix.
func (rc *ResponseCache) Purge(ctx context.Context) error {
    if !rc.enabled() {
        return nil
    }
    if err := rc.rdb.Incr(ctx, rc.genKey()).Err(); err != nil {
        return err
    }
    iter := rc.rdb.Scan(ctx, 0, rc.cfg.Prefix+":*", 200).Iterator()
    var keys []string
    for iter.Next(ctx) {
        if k := iter.Val(); k != rc.genKey() {
            keys = append(keys, k)
        }
    }
    if err := iter.Err(); err != nil {
        return err
    }
    if len(keys) == 0 {
        return nil
    }
    return rc.rdb.Del(ctx, keys...).Err()
}

// Publish purges the cache whenever a lifecycle event is committed, which
// lets the cache sit behind the coordinator as an event sink.
func (rc *ResponseCache) Publish(ctx context.Context, _ queue.LifecycleEvent) error {
    return rc.Purge(ctx)
}

// cachedResponse is the stored form of a response.
type cachedResponse struct {
    Status int         `json:"s"`
    Header http.Header `json:"h"`
    Body   []byte      `json:"b"`
}

func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
    return json.Marshal(cachedResponse{Status: status, Header: header, Body: body})
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
    var cr cachedResponse
    if err := json.Unmarshal(bs, &cr); err != nil || cr.Status == 0 {
        return 0, nil, nil, false
    }
    return cr.Status, cr.Header, cr.Body, true
}
