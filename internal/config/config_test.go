package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 8080 || cfg.MinScale != 0.25 || cfg.MaxScale != 8 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Errorf("TokenTTL = %v, want 24h", cfg.TokenTTL)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("MAX_SCALE", "4")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 9090 || cfg.MaxScale != 4 {
		t.Errorf("env not applied: %+v", cfg)
	}
	if got := cfg.SlogLevel(); got != slog.LevelDebug {
		t.Errorf("SlogLevel = %v, want debug", got)
	}
	want := []string{"https://a.example", "https://b.example"}
	if diff := cmp.Diff(want, cfg.Origins()); diff != "" {
		t.Errorf("Origins mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadRejectsBadScaleLimits(t *testing.T) {
	t.Setenv("MIN_SCALE", "2")
	if _, err := Load(); err == nil {
		t.Fatal("Load succeeded with MIN_SCALE above 1")
	}
}

func TestOriginHosts(t *testing.T) {
	cfg := &Config{AllowedOrigins: "http://localhost:5173,https://app.example,*"}
	want := []string{"localhost:5173", "app.example", "*"}
	if diff := cmp.Diff(want, cfg.OriginHosts()); diff != "" {
		t.Errorf("OriginHosts mismatch (-want +got):\n%s", diff)
	}
}
