package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr              string
	PollInterval      time.Duration
	FetchTimeout      time.Duration
	ShutdownTimeout   time.Duration
	ScrapeRateRPS     float64
	ScrapeRateBurst   int
	RuntimeCollectors bool
}

func LoadFromEnv() (Config, error) {
	cfg := Config{
		Addr:              strings.TrimSpace(getenv("METRICS_ADDR", "0.0.0.0:9000")),
		PollInterval:      parseDurationMS(getenv("POLL_INTERVAL_MS", "15000"), 15*time.Second),
		FetchTimeout:      parseDurationMS(getenv("FETCH_TIMEOUT_MS", "10000"), 10*time.Second),
		ShutdownTimeout:   parseDurationMS(getenv("SHUTDOWN_TIMEOUT_MS", "5000"), 5*time.Second),
		ScrapeRateRPS:     parseFloat(getenv("SCRAPE_RATELIMIT_RPS", "0"), 0),
		ScrapeRateBurst:   parseInt(getenv("SCRAPE_RATELIMIT_BURST", "0"), 0),
		RuntimeCollectors: parseBool(getenv("METRICS_RUNTIME_COLLECTORS", "false")),
	}

	if cfg.Addr == "" {
		return Config{}, fmt.Errorf("METRICS_ADDR is empty")
	}
	if cfg.PollInterval <= 0 {
		return Config{}, fmt.Errorf("POLL_INTERVAL_MS must be > 0")
	}
	return cfg, nil
}

func getenv(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return i
}

func parseFloat(s string, def float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return def
	}
	return f
}

func parseDurationMS(s string, def time.Duration) time.Duration {
	ms, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || ms < 0 {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}

func parseBool(v string) bool {
	switch strings.TrimSpace(v) {
	case "1", "true", "TRUE", "True", "yes", "YES", "y", "Y":
		return true
	default:
		return false
	}
}
