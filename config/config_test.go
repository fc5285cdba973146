package config

import (
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
	}
}

func TestDefaultsAreValid(t *testing.T) {
	clearEnv(t, "MODE", "REDIS_ADDR", "CACHE_TTL_SECONDS", "POLL_ACTIVE_INTERVAL_MS",
		"LOCK_TTL_MS", "UPSTREAM_TIMEOUT_MS", "UPSTREAM_MIN_INTERVAL_MS", "WAIT_ATTEMPTS", "WAIT_INTERVAL_MS",
		"REQUEST_TIMEOUT_MS", "LINE_ALLOWLIST", "ELASTICSEARCH_URL")

	cfg := FromEnvironment()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}

	if cfg.UsesRedis() {
		t.Error("expected in-memory backend without REDIS_ADDR")
	}
	if cfg.ArchiveEnabled() {
		t.Error("expected archive disabled without ELASTICSEARCH_URL")
	}
	if cfg.MaxWaiterLatency() != 6*time.Second {
		t.Errorf("expected 12 x 500ms wait budget, got %v", cfg.MaxWaiterLatency())
	}
	if cfg.MaxResolveLatency() != 25*time.Second || cfg.MaxResolveLatency() >= cfg.RequestTimeout {
		t.Errorf("throttle window, wait budget and upstream call must fit %v, got %v",
			cfg.RequestTimeout, cfg.MaxResolveLatency())
	}
	if len(cfg.LineAllowList) != len(DefaultLineAllowList) {
		t.Errorf("expected default allow-list, got %v", cfg.LineAllowList)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("CACHE_TTL_SECONDS", "10")
	t.Setenv("LOCK_TTL_MS", "8000")
	t.Setenv("LINE_ALLOWLIST", "U1, U6,U1")
	t.Setenv("POLL_CONSERVE_BATTERY", "true")
	t.Setenv("WAIT_ATTEMPTS", "not-a-number")

	cfg := FromEnvironment()

	if !cfg.UsesRedis() {
		t.Error("expected redis backend")
	}
	if cfg.Coordinator.CacheTTL != 10*time.Second {
		t.Errorf("expected 10s cache TTL, got %v", cfg.Coordinator.CacheTTL)
	}
	if cfg.Coordinator.LockTTL != 8*time.Second {
		t.Errorf("expected 8s lock TTL, got %v", cfg.Coordinator.LockTTL)
	}
	if strings.Join(cfg.LineAllowList, ",") != "U1,U6" {
		t.Errorf("expected de-duplicated allow-list, got %v", cfg.LineAllowList)
	}
	if !cfg.Poller.ConserveBattery {
		t.Error("expected conserve battery enabled")
	}
	if cfg.Coordinator.WaitAttempts != 12 {
		t.Errorf("invalid number should fall back to default, got %d", cfg.Coordinator.WaitAttempts)
	}
}

func TestValidateRejectsInconsistentTimings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{
			name:   "cache outlives poll interval",
			mutate: func(c *Config) { c.Coordinator.CacheTTL = c.Poller.ActiveInterval },
			want:   "CACHE_TTL_SECONDS",
		},
		{
			name:   "upstream timeout exceeds lock",
			mutate: func(c *Config) { c.Upstream.Timeout = c.Coordinator.LockTTL },
			want:   "UPSTREAM_TIMEOUT_MS",
		},
		{
			name:   "waiter budget exceeds request timeout",
			mutate: func(c *Config) { c.Coordinator.WaitAttempts = 100 },
			want:   "WAIT_ATTEMPTS",
		},
		{
			name:   "throttle window exceeds request timeout",
			mutate: func(c *Config) { c.Upstream.MinInterval = c.RequestTimeout },
			want:   "UPSTREAM_MIN_INTERVAL_MS",
		},
		{
			name:   "stale shorter than fresh",
			mutate: func(c *Config) { c.Coordinator.StaleCacheTTL = time.Second },
			want:   "STALE_CACHE_TTL_SECONDS",
		},
		{
			name:   "poller without stations",
			mutate: func(c *Config) { c.Mode = "poller"; c.Poller.StationIDs = nil },
			want:   "POLLER_STATION_IDS",
		},
		{
			name:   "unknown mode",
			mutate: func(c *Config) { c.Mode = "batch" },
			want:   "Mode",
		},
		{
			name:   "empty allow-list",
			mutate: func(c *Config) { c.LineAllowList = nil },
			want:   "LineAllowList",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t, "MODE", "POLLER_STATION_IDS", "LINE_ALLOWLIST", "REQUEST_TIMEOUT_MS", "UPSTREAM_MIN_INTERVAL_MS")
			cfg := FromEnvironment()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error mentioning %s, got %v", tt.want, err)
			}
		})
	}
}

func TestPollerModeValid(t *testing.T) {
	t.Setenv("MODE", "poller")
	t.Setenv("POLLER_STATION_IDS", "60201234, 60205678")

	cfg := FromEnvironment()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Poller.StationIDs) != 2 || cfg.Poller.StationIDs[1] != "60205678" {
		t.Errorf("unexpected station ids: %v", cfg.Poller.StationIDs)
	}
}

func TestMaskSensitive(t *testing.T) {
	if got := maskSensitive(""); got != "없음" {
		t.Errorf("unexpected mask for empty: %q", got)
	}
	if got := maskSensitive("abc"); got != "***" {
		t.Errorf("unexpected mask for short value: %q", got)
	}
	if got := maskSensitive("secret-key"); strings.Contains(got, "cret-k") {
		t.Errorf("value not masked: %q", got)
	}
}
