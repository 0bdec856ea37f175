// Package config handles application configuration loading and validation using Viper.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration.
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Stripe        StripeConfig        `mapstructure:"stripe"`
	Credits       CreditsConfig       `mapstructure:"credits"`
	Tiers         []TierConfig        `mapstructure:"tiers"`
	Packs         []CreditPackConfig  `mapstructure:"packs"`
	Earnings      EarningsConfig      `mapstructure:"earnings"`
	Scheduler     SchedulerConfig     `mapstructure:"scheduler"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Metrics       MetricsConfig       `mapstructure:"metrics"`
	Logging       LoggingConfig       `mapstructure:"logging"`
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
	CacheTTL int    `mapstructure:"cache_ttl"` // seconds
}

// StripeConfig contains Stripe API and webhook settings.
type StripeConfig struct {
	SecretKey     string `mapstructure:"secret_key"`
	WebhookSecret string `mapstructure:"webhook_secret"`
	SuccessURL    string `mapstructure:"success_url"`
	CancelURL     string `mapstructure:"cancel_url"`
	Enabled       bool   `mapstructure:"enabled"`
}

// CreditsConfig contains credit economy settings.
type CreditsConfig struct {
	SignupBonus   int `mapstructure:"signup_bonus"`
	RequestCost   int `mapstructure:"request_cost"`
	LookupTimeout int `mapstructure:"lookup_timeout"` // seconds, bound on profile lookups
}

// TierConfig defines how many verdicts a request of this tier collects and how
// each verdict pays out. Community tiers pay judges in credits instead of cash.
type TierConfig struct {
	Name               string `mapstructure:"name"`
	TargetVerdictCount int    `mapstructure:"target_verdict_count"`
	PayoutCents        int64  `mapstructure:"payout_cents"`
	RewardCredits      int    `mapstructure:"reward_credits"`
}

// CreditPackConfig defines a purchasable credit pack.
type CreditPackConfig struct {
	ID         string `mapstructure:"id"`
	Credits    int    `mapstructure:"credits"`
	PriceCents int64  `mapstructure:"price_cents"`
}

// EarningsConfig contains payout maturation settings.
type EarningsConfig struct {
	MaturationDays int `mapstructure:"maturation_days"`
}

// SchedulerConfig contains background job schedules (cron expressions).
type SchedulerConfig struct {
	Enabled            bool   `mapstructure:"enabled"`
	MaturationSchedule string `mapstructure:"maturation_schedule"`
	ReconcileSchedule  string `mapstructure:"reconcile_schedule"`
	Timezone           string `mapstructure:"timezone"`
}

// NotificationsConfig contains outbound webhook notification settings.
type NotificationsConfig struct {
	WebhookURL string `mapstructure:"webhook_url"`
	Enabled    bool   `mapstructure:"enabled"`
}

// MetricsConfig contains Prometheus exporter settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig contains application logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
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
		v.AddConfigPath("/etc/verdict/")
	}

	setDefaults(v)

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

	// Stripe configuration
	_ = v.BindEnv("stripe.secret_key", "STRIPE_SECRET_KEY")
	_ = v.BindEnv("stripe.webhook_secret", "STRIPE_WEBHOOK_SECRET")
	_ = v.BindEnv("stripe.success_url", "STRIPE_SUCCESS_URL")
	_ = v.BindEnv("stripe.cancel_url", "STRIPE_CANCEL_URL")
	_ = v.BindEnv("stripe.enabled", "STRIPE_ENABLED")

	// Notifications configuration
	_ = v.BindEnv("notifications.webhook_url", "NOTIFICATIONS_WEBHOOK_URL")
	_ = v.BindEnv("notifications.enabled", "NOTIFICATIONS_ENABLED")

	// Scheduler configuration
	_ = v.BindEnv("scheduler.enabled", "SCHEDULER_ENABLED")
	_ = v.BindEnv("scheduler.maturation_schedule", "SCHEDULER_MATURATION_SCHEDULE")
	_ = v.BindEnv("scheduler.reconcile_schedule", "SCHEDULER_RECONCILE_SCHEDULE")
	_ = v.BindEnv("scheduler.timezone", "SCHEDULER_TIMEZONE")

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

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.environment", "development")
	v.SetDefault("database.postgres.ssl_mode", "disable")
	v.SetDefault("database.postgres.max_open_conns", 25)
	v.SetDefault("database.postgres.max_idle_conns", 5)
	v.SetDefault("database.postgres.conn_max_lifetime", 300)
	v.SetDefault("database.redis.pool_size", 10)
	v.SetDefault("database.redis.cache_ttl", 60)
	v.SetDefault("credits.signup_bonus", 3)
	v.SetDefault("credits.request_cost", 1)
	v.SetDefault("credits.lookup_timeout", 5)
	v.SetDefault("earnings.maturation_days", 7)
	v.SetDefault("scheduler.maturation_schedule", "@hourly")
	v.SetDefault("scheduler.reconcile_schedule", "0 3 * * *")
	v.SetDefault("scheduler.timezone", "UTC")
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
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
	if len(c.Tiers) == 0 {
		return fmt.Errorf("at least one tier must be configured")
	}
	for _, tier := range c.Tiers {
		if tier.Name == "" {
			return fmt.Errorf("tier name is required")
		}
		if tier.TargetVerdictCount < 1 {
			return fmt.Errorf("tier %q: target_verdict_count must be at least 1", tier.Name)
		}
	}
	if c.Credits.SignupBonus < 0 {
		return fmt.Errorf("credits.signup_bonus must not be negative")
	}
	if c.Credits.RequestCost < 1 {
		return fmt.Errorf("credits.request_cost must be at least 1")
	}
	if c.Stripe.Enabled {
		if c.Stripe.SecretKey == "" {
			return fmt.Errorf("stripe.secret_key is required when stripe is enabled")
		}
		if c.Stripe.WebhookSecret == "" {
			return fmt.Errorf("stripe.webhook_secret is required when stripe is enabled")
		}
	}
	return nil
}

// TierByName returns the tier configuration for name, or nil if unknown.
func (c *Config) TierByName(name string) *TierConfig {
	for i := range c.Tiers {
		if c.Tiers[i].Name == name {
			return &c.Tiers[i]
		}
	}
	return nil
}

// PackByID returns the credit pack configuration for id, or nil if unknown.
func (c *Config) PackByID(id string) *CreditPackConfig {
	for i := range c.Packs {
		if c.Packs[i].ID == id {
			return &c.Packs[i]
		}
	}
	return nil
}

// MaturationWindow returns the configured earnings maturation delay.
func (c *EarningsConfig) MaturationWindow() time.Duration {
	return time.Duration(c.MaturationDays) * 24 * time.Hour
}

// LookupTimeoutDuration returns the bound applied to profile lookups.
func (c *CreditsConfig) LookupTimeoutDuration() time.Duration {
	return time.Duration(c.LookupTimeout) * time.Second
}

// GetLocation returns the scheduler timezone location.
func (c *SchedulerConfig) GetLocation() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}
