package config

import (
    "strings"
    "time"
)

// CacheConfig defines settings for the response cache middleware used on the
// admin analytics endpoint. When Enabled is false or no Redis client is
// configured, caching is disabled. Methods lists the HTTP methods to cache,
// TTL the lifetime of entries, and MaxBodyBytes the largest body stored.
type CacheConfig struct {
    Enabled      bool
    Methods      map[string]bool
    TTL          time.Duration
    Prefix       string
    MaxBodyBytes int
}

// LoadCacheConfig reads environment variables to build a CacheConfig.
func LoadCacheConfig() CacheConfig {
    v := newEnv()
    v.SetDefault("CACHE_ENABLED", true)
    v.SetDefault("CACHE_METHODS", "GET")
    v.SetDefault("CACHE_TTL", "5m")
    v.SetDefault("CACHE_PREFIX", "cache")
    v.SetDefault("CACHE_MAX_BODY_BYTES", 1048576)

    ttl := v.GetDuration("CACHE_TTL")
    if ttl <= 0 {
        ttl = time.Minute
    }
    return CacheConfig{
        Enabled:      v.GetBool("CACHE_ENABLED"),
        Methods:      parseMethods(v.GetString("CACHE_METHODS")),
        TTL:          ttl,
        Prefix:       v.GetString("CACHE_PREFIX"),
        MaxBodyBytes: v.GetInt("CACHE_MAX_BODY_BYTES"),
    }
}

func parseMethods(s string) map[string]bool {
    m := map[string]bool{}
    for _, p := range strings.Split(s, ",") {
        p = strings.TrimSpace(strings.ToUpper(p))
        if p != "" {
            m[p] = true
        }
    }
    return m
}
