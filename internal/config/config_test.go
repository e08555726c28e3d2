package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/mindbridge_test")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}
	if cfg.DefaultTenant != "default" {
		t.Errorf("expected default tenant, got %s", cfg.DefaultTenant)
	}
	if cfg.NoteCooldownMins != 15 {
		t.Errorf("expected 15 minute note cooldown, got %d", cfg.NoteCooldownMins)
	}
	if cfg.SessionResetHours != 24 {
		t.Errorf("expected 24 hour reset window, got %d", cfg.SessionResetHours)
	}
}

func TestLoad_DatabaseURLRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if _, err := Load(); err == nil {
		t.Error("expected error for missing DATABASE_URL")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/mindbridge_test")
	t.Setenv("PORT", "9090")
	t.Setenv("NOTE_COOLDOWN_MINS", "30")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.NoteCooldown() != 30*time.Minute {
		t.Errorf("expected 30m cooldown, got %s", cfg.NoteCooldown())
	}
}

func TestNoteCooldown_FallsBackTo15Minutes(t *testing.T) {
	cfg := &Config{NoteCooldownMins: 0}
	if cfg.NoteCooldown() != 15*time.Minute {
		t.Errorf("expected 15m fallback, got %s", cfg.NoteCooldown())
	}
}

func TestResetWindow_FallsBackTo24Hours(t *testing.T) {
	cfg := &Config{SessionResetHours: 0}
	if cfg.ResetWindow() != 24*time.Hour {
		t.Errorf("expected 24h fallback, got %s", cfg.ResetWindow())
	}
}

func TestValidate_RequiresAuthOutsideDev(t *testing.T) {
	cfg := &Config{Env: "production", HomeworkMaxBytes: 1}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error when production has no auth configuration")
	}
	cfg.AuthSigningKey = "shared-secret"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error with signing key set: %v", err)
	}
}

func TestValidate_DevNeedsNoAuth(t *testing.T) {
	cfg := &Config{Env: "development", HomeworkMaxBytes: 1}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error in development mode: %v", err)
	}
}

func TestValidate_HomeworkMaxBytes(t *testing.T) {
	cfg := &Config{Env: "development"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for non-positive HOMEWORK_MAX_BYTES")
	}
}
