package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is read from FOODSTATION_* environment variables.
type Config struct {
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`
	GRPCAddr string `envconfig:"GRPC_ADDR" default:":9090"`

	// DB
	Env    string `envconfig:"ENV" default:"dev"` // "dev" | "prod"
	DBPath string `envconfig:"DB_PATH" default:"./data/foodstation.db"`

	// Dev seeding: registers an admin user with this QR token.
	DevAdminToken string `envconfig:"DEV_ADMIN_TOKEN" default:""`

	ImageDir      string `envconfig:"IMAGE_DIR" default:"./data/images"`
	ImageBaseURL  string `envconfig:"IMAGE_BASE_URL" default:"/images/"`
	MaxImageBytes int64  `envconfig:"MAX_IMAGE_BYTES" default:"5242880"`

	// Sensor policy defaults; per-station overrides come from PolicyFile.
	PresentBelowCm  float64 `envconfig:"PRESENT_BELOW_CM" default:"15"`
	AbsentAboveCm   float64 `envconfig:"ABSENT_ABOVE_CM" default:"20"`
	DebounceSamples int     `envconfig:"DEBOUNCE_SAMPLES" default:"1"`
	PolicyFile      string  `envconfig:"POLICY_FILE" default:""`

	// Sessions
	MaxConfirmAttempts int           `envconfig:"MAX_CONFIRM_ATTEMPTS" default:"3"`
	ConfirmTimeout     time.Duration `envconfig:"CONFIRM_TIMEOUT" default:"2m"`
	RestoreTimeout     time.Duration `envconfig:"RESTORE_TIMEOUT" default:"2m"` // wait in Cancelling before forcing
	SessionIdleTTL     time.Duration `envconfig:"SESSION_IDLE_TTL" default:"10m"`

	// Identity cache
	IdentityCacheSize int           `envconfig:"IDENTITY_CACHE_SIZE" default:"1024"`
	IdentityCacheTTL  time.Duration `envconfig:"IDENTITY_CACHE_TTL" default:"5m"`

	// Telemetry retention
	TelemetryRetentionDays int `envconfig:"TELEMETRY_RETENTION_DAYS" default:"30"` // 0 = keep forever
	PruneIntervalHours     int `envconfig:"PRUNE_INTERVAL_HOURS" default:"6"`
}

const envPrefix = "FOODSTATION"

func FromEnv() (Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("process environment: %w", err)
	}
	if err := cfg.Normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Normalize fixes soft errors in place and rejects settings the service
// cannot run with.
func (c *Config) Normalize() error {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	if c.Env != "dev" && c.Env != "prod" {
		// fail-soft: treat unknown as dev
		c.Env = "dev"
	}
	if c.PresentBelowCm <= 0 || c.AbsentAboveCm <= 0 {
		return fmt.Errorf("sensor thresholds must be positive (present<%v, absent>%v)", c.PresentBelowCm, c.AbsentAboveCm)
	}
	if c.PresentBelowCm > c.AbsentAboveCm {
		return fmt.Errorf("PRESENT_BELOW_CM (%v) must not exceed ABSENT_ABOVE_CM (%v)", c.PresentBelowCm, c.AbsentAboveCm)
	}
	if c.DebounceSamples < 1 {
		c.DebounceSamples = 1
	}
	if c.MaxConfirmAttempts < 1 {
		c.MaxConfirmAttempts = 3
	}
	if c.ConfirmTimeout <= 0 {
		c.ConfirmTimeout = 2 * time.Minute
	}
	if c.RestoreTimeout <= 0 {
		c.RestoreTimeout = 2 * time.Minute
	}
	if c.SessionIdleTTL <= 0 {
		c.SessionIdleTTL = 10 * time.Minute
	}
	if c.TelemetryRetentionDays < 0 {
		c.TelemetryRetentionDays = 0
	}
	if c.PruneIntervalHours <= 0 {
		c.PruneIntervalHours = 6
	}
	if !strings.HasSuffix(c.ImageBaseURL, "/") {
		c.ImageBaseURL += "/"
	}
	return nil
}
