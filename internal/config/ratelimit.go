package config

import "strings"

// RateLimitConfig holds per route-class limits in "N/period" form, e.g.
// "5/minute". Classes without an entry fall back to the "api" rule.
type RateLimitConfig struct {
    Enabled bool
    Prefix  string
    Rules   map[string]string
}

var defaultRateRules = map[string]string{
    "register": "3/minute",
    "login":    "5/minute",
    "refresh":  "10/minute",
    "upload":   "10/minute",
    "api":      "100/minute",
}

func LoadRateLimitConfig() RateLimitConfig {
    v := newEnv()
    v.SetDefault("RATE_LIMIT_ENABLED", true)
    v.SetDefault("RATE_LIMIT_PREFIX", "rl")

    rules := make(map[string]string, len(defaultRateRules))
    for class, def := range defaultRateRules {
        key := "RATE_LIMIT_" + strings.ToUpper(class)
        v.SetDefault(key, def)
        rules[class] = strings.TrimSpace(v.GetString(key))
    }
    return RateLimitConfig{
        Enabled: v.GetBool("RATE_LIMIT_ENABLED"),
        Prefix:  v.GetString("RATE_LIMIT_PREFIX"),
        Rules:   rules,
    }
}
