package config

import (
    "context"
    "crypto/tls"
    "time"

    "github.com/redis/go-redis/v9"
)

// RedisConfig describes the Redis server backing rate limiting and the
// report cache.  Addr (host:port) is used when Host is empty.
type RedisConfig struct {
    Enabled  bool   `envconfig:"ENABLED" default:"true"`
    Addr     string `envconfig:"ADDR" default:"localhost:6379"`
    Host     string `envconfig:"HOST"`
    Port     string `envconfig:"PORT" default:"6379"`
    Password string `envconfig:"PASSWORD"`
    DB       int    `envconfig:"DB" default:"0"`
    TLS      bool   `envconfig:"TLS" default:"false"`
}

// Address returns host:port for the configured server.
func (r RedisConfig) Address() string {
    if r.Host != "" {
        return r.Host + ":" + r.Port
    }
    return r.Addr
}

// NewRedisClient connects to Redis and pings it with a short timeout.  It
// returns nil when Redis is disabled or unreachable; callers then run
// without rate limiting and caching.
func NewRedisClient(rc RedisConfig) *redis.Client {
    if !rc.Enabled {
        return nil
    }
    var tlsConf *tls.Config
    if rc.TLS {
        tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
    }
    client := redis.NewClient(&redis.Options{
        Addr:      rc.Address(),
        Password:  rc.Password,
        DB:        rc.DB,
        TLSConfig: tlsConf,
    })
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        _ = client.Close()
        return nil
    }
    return client
}
