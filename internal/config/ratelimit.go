package config

import (
    "os"
    "strconv"
    "time"
)

// RateLimitConfig drives one token-bucket limiter instance.
type RateLimitConfig struct {
    Enabled        bool
    Capacity       int
    RefillTokens   int
    RefillInterval time.Duration
    TTL            time.Duration
    KeyStrategy    string
    Prefix         string
    Debug          bool
}

// LoadRateLimitConfig returns the limiter applied to every /api request.
func LoadRateLimitConfig() RateLimitConfig {
    return loadRateLimit("RATE_LIMIT", RateLimitConfig{
        Enabled:        true,
        Capacity:       60,
        RefillTokens:   1,
        RefillInterval: time.Second,
        TTL:            10 * time.Minute,
        KeyStrategy:    "ip_user_route",
        Prefix:         "rl",
    })
}

// LoadOTPRateLimitConfig returns the stricter limiter for routes that issue
// or check one-time codes. Five attempts, then one per minute, per ip+route.
func LoadOTPRateLimitConfig() RateLimitConfig {
    return loadRateLimit("OTP_RATE_LIMIT", RateLimitConfig{
        Enabled:        true,
        Capacity:       5,
        RefillTokens:   1,
        RefillInterval: time.Minute,
        TTL:            30 * time.Minute,
        KeyStrategy:    "ip_route",
        Prefix:         "rl:otp",
    })
}

func loadRateLimit(env string, def RateLimitConfig) RateLimitConfig {
    cfg := RateLimitConfig{
        Enabled:        envBool(env+"_ENABLED", def.Enabled),
        Capacity:       envInt(env+"_CAPACITY", def.Capacity),
        RefillTokens:   envInt(env+"_REFILL_TOKENS", def.RefillTokens),
        RefillInterval: envDur(env+"_REFILL_INTERVAL", def.RefillInterval),
        TTL:            envDur(env+"_TTL", def.TTL),
        KeyStrategy:    envStr(env+"_KEY_STRATEGY", def.KeyStrategy),
        Prefix:         envStr(env+"_PREFIX", def.Prefix),
        Debug:          envBool(env+"_DEBUG", false),
    }
    if b := envInt(env+"_BURST", -1); b > 0 { cfg.Capacity = b }
    if every := envDur(env+"_REFILL_EVERY", 0); every > 0 {
        cfg.RefillTokens = 1
        cfg.RefillInterval = every
    }
    if cfg.Capacity < 1 { cfg.Capacity = 1 }
    if cfg.RefillTokens < 1 { cfg.RefillTokens = 1 }
    if cfg.RefillInterval <= 0 { cfg.RefillInterval = time.Second }
    minTTL := 5 * cfg.RefillInterval
    if cfg.TTL < minTTL { cfg.TTL = minTTL }
    return cfg
}

func envStr(k, d string) string { if v := os.Getenv(k); v != "" { return v }; return d }
func envBool(k string, d bool) bool {
    v := os.Getenv(k)
    if v == "" { return d }
    switch v {
    case "1","true","TRUE","True","yes","YES","on","ON": return true
    case "0","false","FALSE","False","no","NO","off","OFF": return false
    }
    return d
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
