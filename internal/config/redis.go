package config

import (
    "context"
    "crypto/tls"
    "os"
    "strconv"
    "strings"
    "time"

    "github.com/redis/go-redis/v9"
)

// NewRedisClient builds the Redis client backing the login rate limiter.
// Address resolution order: REDIS_HOST/REDIS_PORT, then REDIS_ADDR, then
// localhost:6379.  REDIS_PASSWORD, REDIS_DB and REDIS_TLS are optional.
//
// Returning nil is a supported outcome: when Redis is unreachable at boot
// the limiter runs as a pass-through, so a missing Redis slows nothing down
// except brute-force protection.
func NewRedisClient() *redis.Client {
    addr := os.Getenv("REDIS_ADDR")
    if h, p := os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT"); h != "" && p != "" {
        addr = h + ":" + p
    }
    if addr == "" {
        addr = "localhost:6379"
    }

    opts := &redis.Options{
        Addr:     addr,
        Password: os.Getenv("REDIS_PASSWORD"),
    }
    if n, err := strconv.Atoi(os.Getenv("REDIS_DB")); err == nil {
        opts.DB = n
    }
    if v := os.Getenv("REDIS_TLS"); v == "1" || strings.EqualFold(v, "true") {
        opts.TLSConfig = &tls.Config{InsecureSkipVerify: true}
    }

    client := redis.NewClient(opts)
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        return nil
    }
    return client
}
