// Package config loads the service configuration from CHIME_-prefixed
// environment variables. Missing required values are a startup failure;
// nothing runs on a partial configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is the full service configuration.
type Config struct {
	Port   string
	DBPath string

	// BaseURL is the public app origin used to build notification
	// deep-link URLs ({BaseURL}/#date=YYYY-MM-DD).
	BaseURL string

	VAPIDPublicKey  string
	VAPIDPrivateKey string
	// VAPIDContact is the mailto: or https: URI placed in the VAPID claim.
	VAPIDContact string

	LookaheadDays  int
	LateWindow     time.Duration
	EarlyWindow    time.Duration
	PushTTLSeconds int

	// CronEnabled runs the in-process minute schedule; disable it when an
	// external scheduler drives POST /__cron instead.
	CronEnabled bool

	LogLevel string
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           envDefault("CHIME_PORT", "8080"),
		DBPath:         envDefault("CHIME_DB_PATH", "chime.db"),
		VAPIDPublicKey: os.Getenv("CHIME_VAPID_PUBLIC_KEY"),
		LogLevel:       envDefault("CHIME_LOG_LEVEL", "info"),
	}
	cfg.VAPIDPrivateKey = os.Getenv("CHIME_VAPID_PRIVATE_KEY")
	cfg.VAPIDContact = os.Getenv("CHIME_VAPID_CONTACT")
	cfg.BaseURL = envDefault("CHIME_BASE_URL", "http://localhost:"+cfg.Port)

	if cfg.VAPIDPublicKey == "" {
		return nil, fmt.Errorf("CHIME_VAPID_PUBLIC_KEY is required")
	}
	if cfg.VAPIDPrivateKey == "" {
		return nil, fmt.Errorf("CHIME_VAPID_PRIVATE_KEY is required")
	}
	if cfg.VAPIDContact == "" {
		return nil, fmt.Errorf("CHIME_VAPID_CONTACT is required")
	}

	var err error
	if cfg.LookaheadDays, err = envInt("CHIME_LOOKAHEAD_DAYS", 365); err != nil {
		return nil, err
	}
	if cfg.PushTTLSeconds, err = envInt("CHIME_PUSH_TTL_SECONDS", 86400); err != nil {
		return nil, err
	}

	// CHIME_NOTIFY_WINDOW_MS is the legacy name for the late window; the
	// new name wins when both are set.
	lateMs, err := envInt("CHIME_LATE_WINDOW_MS", -1)
	if err != nil {
		return nil, err
	}
	if lateMs < 0 {
		if lateMs, err = envInt("CHIME_NOTIFY_WINDOW_MS", 70000); err != nil {
			return nil, err
		}
	}
	cfg.LateWindow = time.Duration(lateMs) * time.Millisecond

	earlyMs, err := envInt("CHIME_EARLY_WINDOW_MS", 5000)
	if err != nil {
		return nil, err
	}
	cfg.EarlyWindow = time.Duration(earlyMs) * time.Millisecond

	cfg.CronEnabled = envDefault("CHIME_CRON", "on") != "off"

	return cfg, nil
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, v)
	}
	return n, nil
}
