package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the environment-driven settings. Scan options themselves
// come from the command line.
type Config struct {
	// Redis
	RedisPassword         string
	RedisSentinelPassword string
	RedisDialTimeout      time.Duration
	RedisReadTimeout      time.Duration

	// Scan
	MaxInFlight int

	// Metrics
	MetricsTextfile string
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.RedisSentinelPassword = getEnv("REDIS_SENTINEL_PASSWORD", "")
	cfg.RedisDialTimeout = getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second)
	cfg.RedisReadTimeout = getDuration("REDIS_READ_TIMEOUT", 30*time.Second)

	cfg.MaxInFlight = getInt("SCAN_MAX_INFLIGHT", 0)

	cfg.MetricsTextfile = getEnv("METRICS_TEXTFILE", "")

	// node-exporter's textfile collector only picks up *.prom
	if cfg.MetricsTextfile != "" && !strings.HasSuffix(cfg.MetricsTextfile, ".prom") {
		return nil, fmt.Errorf("bad METRICS_TEXTFILE (must end in .prom): %q", cfg.MetricsTextfile)
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n := def
	_, _ = fmt.Sscanf(v, "%d", &n)
	if n < 0 {
		return def
	}
	return n
}

func getDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
