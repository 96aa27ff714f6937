// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAutoBalanceCron = "*/5 * * * *"
	DefaultLeadTimeMinutes = 60
	DefaultEmailRegion     = "us-east-1"

	DefaultRateLimitCooldownSeconds = 2
	DefaultRateLimitMaxPerIPPerHour = 120
)

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Filename string `yaml:"filename"`
}

// BalancingConfig controls automatic team assignment ahead of kickoff.
type BalancingConfig struct {
	Enabled         bool   `yaml:"enabled"`
	AutoBalanceCron string `yaml:"auto_balance_cron"`
	LeadTimeMinutes int    `yaml:"lead_time_minutes"`
}

func (b BalancingConfig) LeadTime() time.Duration {
	return time.Duration(b.LeadTimeMinutes) * time.Minute
}

type EmailConfig struct {
	Region           string `yaml:"region"`
	Sender           string `yaml:"sender"`
	OrganizerAddress string `yaml:"organizer_address"`
	AccessKeyID      string `yaml:"-"` // Loaded from environment
	SecretAccessKey  string `yaml:"-"` // Loaded from environment
}

// Configured reports whether lineup emails can be sent.
func (e EmailConfig) Configured() bool {
	return e.Sender != ""
}

// RateLimitConfig throttles API writes per client.
type RateLimitConfig struct {
	Enabled         bool `yaml:"enabled"`
	CooldownSeconds int  `yaml:"cooldown_seconds"`
	MaxPerIPPerHour int  `yaml:"max_per_ip_per_hour"`
	TrustProxy      bool `yaml:"trust_proxy"`
}

func (r RateLimitConfig) Cooldown() time.Duration {
	return time.Duration(r.CooldownSeconds) * time.Second
}

type Config struct {
	App struct {
		Name        string `yaml:"name"`
		Environment string `yaml:"environment"`
		Port        int    `yaml:"port"`
		BaseURL     string `yaml:"base_url"`
		SecretKey   string `yaml:"-"` // Loaded from environment
	} `yaml:"app"`

	Database DatabaseConfig `yaml:"database"`

	Balancing BalancingConfig `yaml:"balancing"`

	Email EmailConfig `yaml:"email"`

	RateLimit RateLimitConfig `yaml:"rate_limit"`

	Features struct {
		EnableDebug bool `yaml:"enable_debug"`
	} `yaml:"features"`
}

// Load loads both .env and yaml configuration
func Load(configPath string) (*Config, error) {
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	// Load sensitive values from environment
	cfg.App.SecretKey = os.Getenv("APP_SECRET_KEY")
	cfg.Email.AccessKeyID = os.Getenv("SES_ACCESS_KEY_ID")
	cfg.Email.SecretAccessKey = os.Getenv("SES_SECRET_ACCESS_KEY")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Parse decodes YAML and fills defaults. It does not validate.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if strings.TrimSpace(c.Balancing.AutoBalanceCron) == "" {
		c.Balancing.AutoBalanceCron = DefaultAutoBalanceCron
	}
	if c.Balancing.LeadTimeMinutes == 0 {
		c.Balancing.LeadTimeMinutes = DefaultLeadTimeMinutes
	}
	if c.Email.Region == "" {
		c.Email.Region = DefaultEmailRegion
	}
	if c.RateLimit.CooldownSeconds == 0 {
		c.RateLimit.CooldownSeconds = DefaultRateLimitCooldownSeconds
	}
	if c.RateLimit.MaxPerIPPerHour == 0 {
		c.RateLimit.MaxPerIPPerHour = DefaultRateLimitMaxPerIPPerHour
	}
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}
	if c.App.Port == 0 {
		return fmt.Errorf("app port is required")
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Filename == "" {
			return fmt.Errorf("database filename is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	if c.Balancing.LeadTimeMinutes < 0 {
		return fmt.Errorf("balancing lead_time_minutes must be positive")
	}
	if c.Balancing.Enabled {
		if _, err := cron.ParseStandard(c.Balancing.AutoBalanceCron); err != nil {
			return fmt.Errorf("invalid balancing auto_balance_cron %q: %w", c.Balancing.AutoBalanceCron, err)
		}
	}

	if c.Email.Configured() && !strings.Contains(c.Email.Sender, "@") {
		return fmt.Errorf("email sender must be an address: %q", c.Email.Sender)
	}

	if c.RateLimit.CooldownSeconds < 0 || c.RateLimit.MaxPerIPPerHour < 0 {
		return fmt.Errorf("rate_limit values must not be negative")
	}

	return nil
}
