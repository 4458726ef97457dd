// Package config loads the supervisor's environment-provided
// configuration: shared-memory name, GWT top-K, tick period, and the
// observational HTTP/Redis endpoints. None of this is consulted by the
// core substrate itself — it exists only to wire cmd/nexus-spine.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/nexusspine/spine/internal/spineconst"
)

// Config holds the supervisor's bootstrap configuration.
type Config struct {
	ShmName    string
	TopK       int
	CyclePeriod time.Duration
	HTTPPort   int
	RedisURL   string
}

// FromEnv loads configuration from environment variables, falling back
// to package defaults for anything unset or unparsable.
func FromEnv() Config {
	return Config{
		ShmName:     getEnv("SPINE_SHM_NAME", spineconst.DefaultShmName),
		TopK:        getEnvInt("SPINE_GWT_TOP_K", spineconst.DefaultTopK),
		CyclePeriod: time.Duration(getEnvInt("SPINE_CYCLE_US", spineconst.DefaultCycleMicros)) * time.Microsecond,
		HTTPPort:    getEnvInt("SPINE_HTTP_PORT", spineconst.DefaultHTTPPort),
		RedisURL:    getEnv("SPINE_REDIS_URL", spineconst.DefaultRedisURL),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
