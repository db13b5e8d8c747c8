package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store"`
	Session   SessionConfig   `yaml:"session"`
	SLA       SLAConfig       `yaml:"sla"`
	Lifecycle LifecycleConfig `yaml:"lifecycle"`
	Seed      SeedConfig      `yaml:"seed"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Log       LogConfig       `yaml:"log"`
}

// StoreConfig contains session store settings.
type StoreConfig struct {
	DSN string `yaml:"dsn"` // SQLite DSN; empty means a fresh in-memory store per session
}

// SessionConfig contains login/session token settings.
type SessionConfig struct {
	Secret string        `yaml:"secret"` // HMAC key for session tokens
	TTL    time.Duration `yaml:"ttl"`
}

// SLAConfig contains SLA window and sweep settings.
type SLAConfig struct {
	Window        time.Duration `yaml:"window"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// LifecycleConfig tunes the order state machine.
type LifecycleConfig struct {
	// StrictTerminal rejects finalize targets that do not match the delivery option.
	StrictTerminal bool `yaml:"strict_terminal"`
}

// SeedConfig points at the fixture loaded into each new session store.
type SeedConfig struct {
	File string `yaml:"file"` // empty uses the embedded fixture
}

// DashboardConfig contains dashboard presentation limits.
type DashboardConfig struct {
	RecentActivities  int `yaml:"recent_activities"`
	UpcomingDeadlines int `yaml:"upcoming_deadlines"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

const devSecret = "dev-secret-change-me"

func defaults() *Config {
	return &Config{
		Session:   SessionConfig{TTL: 12 * time.Hour},
		SLA:       SLAConfig{Window: 24 * time.Hour, SweepInterval: 30 * time.Second},
		Dashboard: DashboardConfig{RecentActivities: 5, UpcomingDeadlines: 5},
		Log:       LogConfig{Level: "info", Format: "text"},
	}
}

// Load loads configuration from an optional YAML file (CONFIG_FILE) and environment variables.
// Environment variables win over the file. SESSION_SECRET is required.
func Load() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}

	// Validate critical settings
	if cfg.Session.Secret == "" {
		return nil, fmt.Errorf("SESSION_SECRET environment variable is not set; required for production")
	}
	return cfg, nil
}

// LoadWithDefaults is like Load but uses a fixed SESSION_SECRET when none is configured.
// WARNING: Only use in development! Use Load() in production.
func LoadWithDefaults() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if cfg.Session.Secret == "" {
		cfg.Session.Secret = devSecret
	}
	return cfg, nil
}

func load() (*Config, error) {
	cfg := defaults()
	if path := getEnv("CONFIG_FILE", ""); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.overlayEnv(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) overlayFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) overlayEnv() error {
	var err error
	c.Store.DSN = getEnv("STORE_DSN", c.Store.DSN)
	c.Session.Secret = getEnv("SESSION_SECRET", c.Session.Secret)
	if c.Session.TTL, err = getEnvDuration("SESSION_TTL", c.Session.TTL); err != nil {
		return err
	}
	if c.SLA.Window, err = getEnvDuration("SLA_WINDOW", c.SLA.Window); err != nil {
		return err
	}
	if c.SLA.SweepInterval, err = getEnvDuration("SLA_SWEEP_INTERVAL", c.SLA.SweepInterval); err != nil {
		return err
	}
	if c.Lifecycle.StrictTerminal, err = getEnvBool("STRICT_TERMINAL", c.Lifecycle.StrictTerminal); err != nil {
		return err
	}
	c.Seed.File = getEnv("SEED_FILE", c.Seed.File)
	if c.Dashboard.RecentActivities, err = getEnvInt("DASHBOARD_RECENT_ACTIVITIES", c.Dashboard.RecentActivities); err != nil {
		return err
	}
	if c.Dashboard.UpcomingDeadlines, err = getEnvInt("DASHBOARD_UPCOMING_DEADLINES", c.Dashboard.UpcomingDeadlines); err != nil {
		return err
	}
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
	return nil
}

func (c *Config) validate() error {
	if c.SLA.Window <= 0 {
		return fmt.Errorf("SLA_WINDOW must be positive, got %s", c.SLA.Window)
	}
	if c.SLA.SweepInterval <= 0 {
		return fmt.Errorf("SLA_SWEEP_INTERVAL must be positive, got %s", c.SLA.SweepInterval)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.Session.TTL)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// getEnv retrieves an environment variable with a default fallback.
func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

// getEnvInt retrieves an environment variable as an integer with a default fallback.
func getEnvInt(key string, defaultVal int) (int, error) {
	if value, exists := os.LookupEnv(key); exists {
		intVal, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid integer for %s: %w", key, err)
		}
		return intVal, nil
	}
	return defaultVal, nil
}

// getEnvDuration retrieves an environment variable as a time.Duration ("30s", "12h").
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	if value, exists := os.LookupEnv(key); exists {
		d, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
		}
		return d, nil
	}
	return defaultVal, nil
}

func getEnvBool(key string, defaultVal bool) (bool, error) {
	if value, exists := os.LookupEnv(key); exists {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return false, fmt.Errorf("invalid boolean for %s: %w", key, err)
		}
		return b, nil
	}
	return defaultVal, nil
}

// String returns a string representation of the config (sensitive values are masked).
func (c *Config) String() string {
	store := c.Store.DSN
	if store == "" {
		store = "memory"
	}
	return fmt.Sprintf("Config{Store: %s, Session: ttl=%s secret=*** (masked) ***, SLA: window=%s sweep=%s, StrictTerminal: %t, Seed: %q, Log: %s/%s}",
		store, c.Session.TTL, c.SLA.Window, c.SLA.SweepInterval, c.Lifecycle.StrictTerminal, c.Seed.File, c.Log.Level, c.Log.Format)
}
