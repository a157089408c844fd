package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("CHIME_VAPID_PUBLIC_KEY", "pub")
	t.Setenv("CHIME_VAPID_PRIVATE_KEY", "priv")
	t.Setenv("CHIME_VAPID_CONTACT", "mailto:ops@example.com")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("port = %q", cfg.Port)
	}
	if cfg.LookaheadDays != 365 {
		t.Errorf("lookahead = %d", cfg.LookaheadDays)
	}
	if cfg.LateWindow != 70*time.Second {
		t.Errorf("late window = %v", cfg.LateWindow)
	}
	if cfg.EarlyWindow != 5*time.Second {
		t.Errorf("early window = %v", cfg.EarlyWindow)
	}
	if cfg.PushTTLSeconds != 86400 {
		t.Errorf("ttl = %d", cfg.PushTTLSeconds)
	}
	if !cfg.CronEnabled {
		t.Error("cron should default on")
	}
	if cfg.BaseURL != "http://localhost:8080" {
		t.Errorf("base url = %q", cfg.BaseURL)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("CHIME_VAPID_PUBLIC_KEY", "")
	t.Setenv("CHIME_VAPID_PRIVATE_KEY", "")
	t.Setenv("CHIME_VAPID_CONTACT", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing VAPID config")
	}
}

func TestLoadLegacyWindowAlias(t *testing.T) {
	setRequired(t)
	t.Setenv("CHIME_NOTIFY_WINDOW_MS", "90000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LateWindow != 90*time.Second {
		t.Errorf("late window = %v, want 90s from legacy alias", cfg.LateWindow)
	}

	// The current name wins when both are present.
	t.Setenv("CHIME_LATE_WINDOW_MS", "60000")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LateWindow != 60*time.Second {
		t.Errorf("late window = %v, want 60s from current name", cfg.LateWindow)
	}
}

func TestLoadBadInteger(t *testing.T) {
	setRequired(t)
	t.Setenv("CHIME_LOOKAHEAD_DAYS", "soon")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for non-integer value")
	}
}

func TestLoadCronOff(t *testing.T) {
	setRequired(t)
	t.Setenv("CHIME_CRON", "off")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.CronEnabled {
		t.Error("cron should be off")
	}
}
