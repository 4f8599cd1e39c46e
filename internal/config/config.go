// Package config handles application configuration loading and validation using Viper.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Checkin   CheckinConfig   `mapstructure:"checkin"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Notifier  NotifierConfig  `mapstructure:"notifier"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port        int    `mapstructure:"port"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig contains database connection settings for PostgreSQL and Redis.
type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// PostgresConfig contains PostgreSQL database connection and pool settings.
type PostgresConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Database        string `mapstructure:"database"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

// RedisConfig contains Redis cache connection and pool settings.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// CheckinConfig contains the streak engine's tunables: the canonical day
// boundary, the currency balance new users start with, and the milestone table.
type CheckinConfig struct {
	Timezone        string            `mapstructure:"timezone"`
	InitialCurrency int64             `mapstructure:"initial_currency"`
	Milestones      []MilestoneConfig `mapstructure:"milestones"`
	MilestonesFile  string            `mapstructure:"milestones_file"`
}

// MilestoneConfig represents one streak milestone and its reward.
type MilestoneConfig struct {
	Days     int    `mapstructure:"days" yaml:"days"`
	Kind     string `mapstructure:"kind" yaml:"kind"` // "currency" or "loyalty_badge"
	Currency int64  `mapstructure:"currency" yaml:"currency"`
	Label    string `mapstructure:"label" yaml:"label"`
}

// SchedulerConfig contains daily engagement job settings.
type SchedulerConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Time     string `mapstructure:"time"` // "HH:MM"
	Timezone string `mapstructure:"timezone"`
}

// NotifierConfig contains webhook notification settings.
type NotifierConfig struct {
	WebhookURL string `mapstructure:"webhook_url"`
	Username   string `mapstructure:"username"`
	Enabled    bool   `mapstructure:"enabled"`
}

// MetricsConfig contains metrics exporter settings.
type MetricsConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
}

// PrometheusConfig contains Prometheus metrics exporter settings.
type PrometheusConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig contains application logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// DefaultMilestones is the reference reward table: escalating currency at
// 7/14/28 days and the permanent loyalty badge at 40.
func DefaultMilestones() []MilestoneConfig {
	return []MilestoneConfig{
		{Days: 7, Kind: "currency", Currency: 200, Label: "7-Day Streak!"},
		{Days: 14, Kind: "currency", Currency: 250, Label: "14-Day Streak!"},
		{Days: 28, Kind: "currency", Currency: 300, Label: "28-Day Streak!"},
		{Days: 40, Kind: "loyalty_badge", Currency: 0, Label: "Loyalty Badge Unlocked!"},
	}
}

// Load reads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/checkin-service/")
	}

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.environment", "development")
	v.SetDefault("checkin.timezone", "UTC")
	v.SetDefault("checkin.initial_currency", 0)
	v.SetDefault("scheduler.time", "08:00")
	v.SetDefault("scheduler.timezone", "UTC")
	v.SetDefault("metrics.prometheus.path", "/metrics")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")

	// Bind specific environment variables (explicit bindings for 12-factor app compliance)
	// Server configuration
	_ = v.BindEnv("server.port", "SERVER_PORT")
	_ = v.BindEnv("server.environment", "SERVER_ENVIRONMENT")

	// PostgreSQL configuration
	_ = v.BindEnv("database.postgres.host", "POSTGRES_HOST")
	_ = v.BindEnv("database.postgres.port", "POSTGRES_PORT")
	_ = v.BindEnv("database.postgres.database", "POSTGRES_DB")
	_ = v.BindEnv("database.postgres.user", "POSTGRES_USER")
	_ = v.BindEnv("database.postgres.password", "POSTGRES_PASSWORD")
	_ = v.BindEnv("database.postgres.ssl_mode", "POSTGRES_SSL_MODE")
	_ = v.BindEnv("database.postgres.max_open_conns", "POSTGRES_MAX_OPEN_CONNS")
	_ = v.BindEnv("database.postgres.max_idle_conns", "POSTGRES_MAX_IDLE_CONNS")
	_ = v.BindEnv("database.postgres.conn_max_lifetime", "POSTGRES_CONN_MAX_LIFETIME")

	// Redis configuration
	_ = v.BindEnv("database.redis.host", "REDIS_HOST")
	_ = v.BindEnv("database.redis.port", "REDIS_PORT")
	_ = v.BindEnv("database.redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("database.redis.db", "REDIS_DB")
	_ = v.BindEnv("database.redis.pool_size", "REDIS_POOL_SIZE")

	// Check-in configuration
	_ = v.BindEnv("checkin.timezone", "CHECKIN_TIMEZONE")
	_ = v.BindEnv("checkin.initial_currency", "CHECKIN_INITIAL_CURRENCY")
	_ = v.BindEnv("checkin.milestones_file", "CHECKIN_MILESTONES_FILE")

	// Scheduler configuration
	_ = v.BindEnv("scheduler.enabled", "SCHEDULER_ENABLED")
	_ = v.BindEnv("scheduler.time", "SCHEDULER_TIME")
	_ = v.BindEnv("scheduler.timezone", "SCHEDULER_TIMEZONE")

	// Notifier configuration
	_ = v.BindEnv("notifier.webhook_url", "NOTIFIER_WEBHOOK_URL")
	_ = v.BindEnv("notifier.username", "NOTIFIER_USERNAME")
	_ = v.BindEnv("notifier.enabled", "NOTIFIER_ENABLED")

	// Logging configuration
	_ = v.BindEnv("logging.level", "LOG_LEVEL")
	_ = v.BindEnv("logging.format", "LOG_FORMAT")
	_ = v.BindEnv("logging.output", "LOG_OUTPUT")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// A standalone milestones file overrides the inline table so reward tuning
	// does not require touching the main config.
	if config.Checkin.MilestonesFile != "" {
		milestones, err := LoadMilestonesFile(config.Checkin.MilestonesFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load milestones file: %w", err)
		}
		config.Checkin.Milestones = milestones
	}

	if len(config.Checkin.Milestones) == 0 {
		config.Checkin.Milestones = DefaultMilestones()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// LoadMilestonesFile reads a milestone table from a standalone YAML file.
func LoadMilestonesFile(path string) ([]MilestoneConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var doc struct {
		Milestones []MilestoneConfig `yaml:"milestones"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(doc.Milestones) == 0 {
		return nil, fmt.Errorf("%s contains no milestones", path)
	}
	return doc.Milestones, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if c.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if c.Database.Postgres.User == "" {
		return fmt.Errorf("database.postgres.user is required")
	}
	if c.Database.Redis.Host == "" {
		return fmt.Errorf("database.redis.host is required")
	}
	if _, err := time.LoadLocation(c.Checkin.Timezone); err != nil {
		return fmt.Errorf("invalid checkin.timezone %q: %w", c.Checkin.Timezone, err)
	}
	if c.Checkin.InitialCurrency < 0 {
		return fmt.Errorf("checkin.initial_currency must not be negative")
	}
	for _, m := range c.Checkin.Milestones {
		if m.Days <= 0 {
			return fmt.Errorf("milestone day count must be positive, got %d", m.Days)
		}
		if m.Kind != "currency" && m.Kind != "loyalty_badge" {
			return fmt.Errorf("milestone kind must be currency or loyalty_badge, got %q", m.Kind)
		}
		if m.Currency < 0 {
			return fmt.Errorf("milestone currency must not be negative, got %d", m.Currency)
		}
	}
	if c.Notifier.Enabled && c.Notifier.WebhookURL == "" {
		return fmt.Errorf("notifier.webhook_url is required when notifier is enabled")
	}
	return nil
}

// GetLocation returns the timezone location used as the canonical day boundary.
func (c *CheckinConfig) GetLocation() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}
