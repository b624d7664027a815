// Package config provides application configuration loaded from the
// environment, with an optional YAML file overlay.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment constants
const (
	EnvProduction = "production"
)

// Config holds all application configuration.
type Config struct {
	App          AppConfig
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	Log          LogConfig
	Monitor      MonitorConfig
	Notification NotificationConfig
	Platforms    PlatformsConfig
	Worker       WorkerConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Name  string
	Env   string
	Debug bool
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Host         string
	Port         int
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string
	Format string
}

// MonitorConfig holds scope monitoring cadence configuration.
type MonitorConfig struct {
	// ScopeCheckCron is the cron expression for the scope monitoring
	// cycle over all active programs.
	ScopeCheckCron string
	// Concurrency bounds how many programs are checked in parallel.
	Concurrency int
	// ChecksumCacheTTL bounds how long the last scope checksum is kept
	// in Redis for the cheap unchanged pre-check.
	ChecksumCacheTTL time.Duration
	// HistoryLimit caps how many history rows list endpoints return.
	HistoryLimit int
}

// NotificationConfig holds alert delivery configuration.
type NotificationConfig struct {
	SlackWebhookURL   string
	DiscordWebhookURL string
	WebhookURL        string
	Timeout           time.Duration
}

// PlatformsConfig holds bug-bounty platform API configuration.
type PlatformsConfig struct {
	HackerOneUsername string
	HackerOneToken    string
	BugcrowdToken     string
	RequestTimeout    time.Duration
	// RatePerSecond limits outbound platform API calls per platform.
	RatePerSecond float64
}

// WorkerConfig holds background job worker configuration.
type WorkerConfig struct {
	Concurrency   int
	QueueDefault  int
	QueueCritical int
}

// Load reads configuration from the environment. When the config file
// named by SCOPEWATCH_CONFIG_FILE exists, its values are applied on top
// of the environment.
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:  getEnv("APP_NAME", "scopewatch"),
			Env:   getEnv("APP_ENV", "development"),
			Debug: getEnvBool("APP_DEBUG", false),
		},
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			RequestTimeout:  getEnvDuration("SERVER_REQUEST_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "scopewatch"),
			Password:        getEnv("DB_PASSWORD", "secret"),
			Name:            getEnv("DB_NAME", "scopewatch"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnvInt("REDIS_PORT", 6379),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvInt("REDIS_DB", 0),
			PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Monitor: MonitorConfig{
			ScopeCheckCron:   getEnv("MONITOR_SCOPE_CRON", "0 */6 * * *"),
			Concurrency:      getEnvInt("MONITOR_CONCURRENCY", 5),
			ChecksumCacheTTL: getEnvDuration("MONITOR_CHECKSUM_CACHE_TTL", 48*time.Hour),
			HistoryLimit:     getEnvInt("MONITOR_HISTORY_LIMIT", 50),
		},
		Notification: NotificationConfig{
			SlackWebhookURL:   getEnv("NOTIFY_SLACK_WEBHOOK_URL", ""),
			DiscordWebhookURL: getEnv("NOTIFY_DISCORD_WEBHOOK_URL", ""),
			WebhookURL:        getEnv("NOTIFY_WEBHOOK_URL", ""),
			Timeout:           getEnvDuration("NOTIFY_TIMEOUT", 10*time.Second),
		},
		Platforms: PlatformsConfig{
			HackerOneUsername: getEnv("HACKERONE_USERNAME", ""),
			HackerOneToken:    getEnv("HACKERONE_TOKEN", ""),
			BugcrowdToken:     getEnv("BUGCROWD_TOKEN", ""),
			RequestTimeout:    getEnvDuration("PLATFORM_REQUEST_TIMEOUT", 30*time.Second),
			RatePerSecond:     getEnvFloat("PLATFORM_RATE_PER_SECOND", 2),
		},
		Worker: WorkerConfig{
			Concurrency:   getEnvInt("WORKER_CONCURRENCY", 10),
			QueueDefault:  getEnvInt("WORKER_QUEUE_DEFAULT", 5),
			QueueCritical: getEnvInt("WORKER_QUEUE_CRITICAL", 10),
		},
	}

	if path := os.Getenv("SCOPEWATCH_CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// fileConfig is the YAML overlay shape. Only a subset of settings makes
// sense in a file; secrets stay in the environment.
type fileConfig struct {
	Monitor struct {
		ScopeCheckCron *string `yaml:"scope_check_cron"`
		Concurrency    *int    `yaml:"concurrency"`
	} `yaml:"monitor"`
	Notification struct {
		SlackWebhookURL   *string `yaml:"slack_webhook_url"`
		DiscordWebhookURL *string `yaml:"discord_webhook_url"`
		WebhookURL        *string `yaml:"webhook_url"`
	} `yaml:"notification"`
	Log struct {
		Level  *string `yaml:"level"`
		Format *string `yaml:"format"`
	} `yaml:"log"`
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return err
	}

	applyStr := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	applyStr(&c.Monitor.ScopeCheckCron, fc.Monitor.ScopeCheckCron)
	if fc.Monitor.Concurrency != nil {
		c.Monitor.Concurrency = *fc.Monitor.Concurrency
	}
	applyStr(&c.Notification.SlackWebhookURL, fc.Notification.SlackWebhookURL)
	applyStr(&c.Notification.DiscordWebhookURL, fc.Notification.DiscordWebhookURL)
	applyStr(&c.Notification.WebhookURL, fc.Notification.WebhookURL)
	applyStr(&c.Log.Level, fc.Log.Level)
	applyStr(&c.Log.Format, fc.Log.Format)
	return nil
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Monitor.Concurrency < 1 {
		return fmt.Errorf("monitor concurrency must be positive")
	}
	if c.IsProduction() && c.Database.Password == "secret" {
		return fmt.Errorf("default database password is not allowed in production")
	}
	return nil
}

// IsProduction returns true when running in production.
func (c *Config) IsProduction() bool {
	return c.App.Env == EnvProduction
}

// Addr returns the HTTP listen address.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DSN returns the postgres connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Addr returns the redis address.
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
