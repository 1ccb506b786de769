package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != ":8080" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":8080")
	}
	if cfg.MaxImages != 10 || cfg.MaxVideos != 4 {
		t.Fatalf("media caps = (%d, %d), want (10, 4)", cfg.MaxImages, cfg.MaxVideos)
	}
	want := []time.Duration{2 * time.Hour, 4 * time.Hour, 6 * time.Hour}
	if len(cfg.ListingDurations) != len(want) {
		t.Fatalf("ListingDurations = %v, want %v", cfg.ListingDurations, want)
	}
	for i, d := range want {
		if cfg.ListingDurations[i] != d {
			t.Fatalf("ListingDurations[%d] = %s, want %s", i, cfg.ListingDurations[i], d)
		}
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APPROVED_OPERATORS", "op-1, op-2 ,")
	t.Setenv("LISTING_DURATIONS", "1h,30m")
	t.Setenv("MAX_LISTING_IMAGES", "5")
	t.Setenv("BROADCAST_CHANNEL", "room:main")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.ApprovedOperators) != 2 {
		t.Fatalf("ApprovedOperators = %v, want 2 entries", cfg.ApprovedOperators)
	}
	if cfg.BroadcastChannel != "room:main" {
		t.Fatalf("BroadcastChannel = %q", cfg.BroadcastChannel)
	}
	if cfg.MaxImages != 5 {
		t.Fatalf("MaxImages = %d, want 5", cfg.MaxImages)
	}
	if !cfg.AllowedDuration(30 * time.Minute) {
		t.Fatalf("AllowedDuration(30m) = false, want true")
	}
	if cfg.AllowedDuration(2 * time.Hour) {
		t.Fatalf("AllowedDuration(2h) = true, want false after override")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("LISTING_DURATIONS", "banana")
	if _, err := Load(); err == nil {
		t.Fatalf("Load() with invalid LISTING_DURATIONS should fail")
	}
}

func TestLoadRejectsNonPositiveCaps(t *testing.T) {
	t.Setenv("MAX_LISTING_IMAGES", "0")
	if _, err := Load(); err == nil {
		t.Fatalf("Load() with zero image cap should fail")
	}
}
