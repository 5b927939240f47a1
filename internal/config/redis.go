package config

// This file defines a Redis client constructor for the application. Redis
// backs rate limiting, the access-token blacklist and the admin response
// cache. An unreachable server is reported but the client is still
// returned and reconnects on later calls. Until then rate limiting and
// caching let requests through and the blacklist check fails closed.

import (
    "context"
    "crypto/tls"
    "strings"
    "time"

    "github.com/redis/go-redis/v9"
)

// NewRedisClient instantiates a Redis client using environment variables.
// Supported variables are:
//   REDIS_HOST and REDIS_PORT – hostname and port of the Redis server
//   REDIS_ADDR – host:port shorthand (used when host/port are not both set)
//   REDIS_PASSWORD – optional password
//   REDIS_DB – database number (default 0)
//   REDIS_TLS – enable TLS when "true" or "1"
func NewRedisClient() (*redis.Client, error) {
    v := newEnv()
    v.SetDefault("REDIS_ADDR", "localhost:6379")
    v.SetDefault("REDIS_DB", 0)

    addr := v.GetString("REDIS_ADDR")
    if host, port := v.GetString("REDIS_HOST"), v.GetString("REDIS_PORT"); host != "" && port != "" {
        addr = host + ":" + port
    }
    var tlsConf *tls.Config
    if t := v.GetString("REDIS_TLS"); strings.EqualFold(t, "true") || t == "1" {
        tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
    }
    client := redis.NewClient(&redis.Options{
        Addr:      addr,
        Password:  v.GetString("REDIS_PASSWORD"),
        DB:        v.GetInt("REDIS_DB"),
        TLSConfig: tlsConf,
    })
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    return client, client.Ping(ctx).Err()
}
