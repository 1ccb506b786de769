package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the beacon listing service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	AllowAnyOrigin bool

	// ApprovedOperators is the allowlist of operator ids permitted to build and
	// publish listings. Empty means everyone is allowed (development mode).
	ApprovedOperators []string

	// BroadcastChannel is the shared channel listings are posted to. Empty is
	// tolerated at startup; publishing reports a configuration notice instead.
	BroadcastChannel string

	// ListingDurations are the validity windows an operator may choose from.
	ListingDurations []time.Duration

	MaxImages int
	MaxVideos int

	DatabaseURL string
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:          envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace:  envOrDefault("APP_METRICS_NAMESPACE", "beacon"),
		AllowAnyOrigin:    false,
		ApprovedOperators: listFromEnv("APPROVED_OPERATORS"),
		BroadcastChannel:  strings.TrimSpace(os.Getenv("BROADCAST_CHANNEL")),
		DatabaseURL:       strings.TrimSpace(os.Getenv("DATABASE_URL")),
		ShutdownTimeout:   15 * time.Second,
		ListingDurations:  []time.Duration{2 * time.Hour, 4 * time.Hour, 6 * time.Hour},
		MaxImages:         10,
		MaxVideos:         4,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}
	cfg.ListingDurations, err = durationsFromEnv("LISTING_DURATIONS", cfg.ListingDurations)
	if err != nil {
		return Config{}, err
	}
	cfg.MaxImages, err = intFromEnv("MAX_LISTING_IMAGES", cfg.MaxImages)
	if err != nil {
		return Config{}, err
	}
	cfg.MaxVideos, err = intFromEnv("MAX_LISTING_VIDEOS", cfg.MaxVideos)
	if err != nil {
		return Config{}, err
	}

	if cfg.MaxImages <= 0 {
		return Config{}, fmt.Errorf("MAX_LISTING_IMAGES must be positive")
	}
	if cfg.MaxVideos <= 0 {
		return Config{}, fmt.Errorf("MAX_LISTING_VIDEOS must be positive")
	}
	if len(cfg.ListingDurations) == 0 {
		return Config{}, fmt.Errorf("LISTING_DURATIONS must name at least one duration")
	}
	for _, d := range cfg.ListingDurations {
		if d <= 0 {
			return Config{}, fmt.Errorf("LISTING_DURATIONS entries must be positive, got %s", d)
		}
	}

	return cfg, nil
}

// AllowedDuration reports whether d is one of the configured validity windows.
func (c Config) AllowedDuration(d time.Duration) bool {
	for _, allowed := range c.ListingDurations {
		if allowed == d {
			return true
		}
	}
	return false
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func listFromEnv(key string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func durationsFromEnv(key string, fallback []time.Duration) ([]time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]time.Duration, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		d, err := time.ParseDuration(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s entry %q: %w", key, p, err)
		}
		out = append(out, d)
	}
	return out, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
