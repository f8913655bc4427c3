package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Webhook   WebhookConfig   `yaml:"webhook"`
	Backend   BackendConfig   `yaml:"backend"`
	Server    ServerConfig    `yaml:"server"`
	Console   ConsoleConfig   `yaml:"console"`
	Auth      AuthConfig      `yaml:"auth"`
	Database  DatabaseConfig  `yaml:"database"`
	Search    SearchConfig    `yaml:"search"`
	Session   SessionConfig   `yaml:"session"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Logging   LoggingConfig   `yaml:"logging"`
	Timezone  string          `yaml:"timezone"`
}

// WebhookConfig contains the remote webhook API settings
type WebhookConfig struct {
	BaseURL          string          `yaml:"base_url"`
	TestURL          string          `yaml:"test_url"`
	UseTest          bool            `yaml:"use_test"`
	Token            string          `yaml:"token"`
	TimeoutSeconds   int             `yaml:"timeout_seconds"`
	RetryCount       int             `yaml:"retry_count"`
	RetryWaitSeconds int             `yaml:"retry_wait_seconds"`
	Endpoints        EndpointsConfig `yaml:"endpoints"`
}

// EndpointsConfig lists the webhook paths
type EndpointsConfig struct {
	AllData     string `yaml:"all_data"`
	Properties  string `yaml:"properties"`
	Communities string `yaml:"communities"`
	Users       string `yaml:"users"`
	PhotoUpload string `yaml:"photo_upload"`
}

// BackendConfig controls the remote/fallback policy
type BackendConfig struct {
	LocalFallback       bool `yaml:"local_fallback"`
	BreakerThreshold    int  `yaml:"breaker_threshold"`
	BreakerResetSeconds int  `yaml:"breaker_reset_seconds"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port           string   `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// ConsoleConfig contains listing table settings
type ConsoleConfig struct {
	PageSize       int `yaml:"page_size"`
	PageWindow     int `yaml:"page_window"`
	ReferenceYear  int `yaml:"reference_year"`
	TopCommunities int `yaml:"top_communities"`
}

// AuthConfig contains session token settings
type AuthConfig struct {
	JWTSecret     string `yaml:"jwt_secret"`
	Issuer        string `yaml:"issuer"`
	TokenTTLHours int    `yaml:"token_ttl_hours"`
	DemoLogin     bool   `yaml:"demo_login"`
}

// DatabaseConfig contains audit database settings
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// SearchConfig contains Meilisearch connection settings
type SearchConfig struct {
	Host   string `yaml:"host"`
	APIKey string `yaml:"api_key"`
	Index  string `yaml:"index"`
}

// SessionConfig selects where per-user view state lives
type SessionConfig struct {
	Backend       string `yaml:"backend"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	TTLHours      int    `yaml:"ttl_hours"`
}

// SchedulerConfig contains background job settings
type SchedulerConfig struct {
	Enabled            bool   `yaml:"enabled"`
	RefreshSpec        string `yaml:"refresh_spec"`
	CleanupTime        string `yaml:"cleanup_time"`
	AuditRetentionDays int    `yaml:"audit_retention_days"`
}

// RateLimitConfig contains rate limiting settings
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
	RequestsPerHour   int  `yaml:"requests_per_hour"`
	RequestsPerDay    int  `yaml:"requests_per_day"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Webhook: WebhookConfig{
			BaseURL:          "https://findmyhome.zeabur.app/webhook",
			TestURL:          "https://findmyhome.zeabur.app/webhook-test",
			TimeoutSeconds:   15,
			RetryCount:       2,
			RetryWaitSeconds: 1,
			Endpoints: EndpointsConfig{
				AllData:     "/all-data",
				Properties:  "/admin/properties",
				Communities: "/admin/communities",
				Users:       "/admin/users",
				PhotoUpload: "/admin/photos/upload",
			},
		},
		Backend: BackendConfig{
			LocalFallback:       true,
			BreakerThreshold:    3,
			BreakerResetSeconds: 60,
		},
		Server: ServerConfig{
			Port:           "8080",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Console: ConsoleConfig{
			PageSize:       20,
			PageWindow:     5,
			ReferenceYear:  115,
			TopCommunities: 10,
		},
		Auth: AuthConfig{
			JWTSecret:     "change-me",
			Issuer:        "haoshi-console",
			TokenTTLHours: 24,
			DemoLogin:     true,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "haoshi_audit.db",
		},
		Search: SearchConfig{
			Index: "listings",
		},
		Session: SessionConfig{
			Backend:   "memory",
			RedisAddr: "localhost:6379",
			TTLHours:  12,
		},
		Scheduler: SchedulerConfig{
			Enabled:            true,
			RefreshSpec:        "@every 10m",
			CleanupTime:        "03:00",
			AuditRetentionDays: 90,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 60,
			RequestsPerHour:   1200,
			RequestsPerDay:    10000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Timezone: "Asia/Taipei",
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(filepath string) (*Config, error) {
	// Start with default config
	config := DefaultConfig()

	// If file doesn't exist, return default config
	if _, err := os.Stat(filepath); os.IsNotExist(err) {
		config.applyEnv()
		return config, nil
	}

	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyEnv()
	return config, nil
}

// applyEnv lets deployment environments override secrets and endpoints
func (c *Config) applyEnv() {
	if v := os.Getenv("WEBHOOK_BASE_URL"); v != "" {
		c.Webhook.BaseURL = v
	}
	if v := os.Getenv("WEBHOOK_TOKEN"); v != "" {
		c.Webhook.Token = v
	}
	if v := os.Getenv("WEBHOOK_USE_TEST"); v != "" {
		c.Webhook.UseTest, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("DB_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("DB_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("MEILISEARCH_HOST"); v != "" {
		c.Search.Host = v
	}
	if v := os.Getenv("MEILISEARCH_API_KEY"); v != "" {
		c.Search.APIKey = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Session.RedisAddr = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
}

// ActiveURL returns the webhook base the client should talk to
func (c *WebhookConfig) ActiveURL() string {
	if c.UseTest {
		return c.TestURL
	}
	return c.BaseURL
}

// GetTimeout returns the request timeout as a duration
func (c *WebhookConfig) GetTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// GetRetryWait returns the wait between retries as a duration
func (c *WebhookConfig) GetRetryWait() time.Duration {
	return time.Duration(c.RetryWaitSeconds) * time.Second
}

// GetBreakerReset returns how long the circuit stays open
func (c *BackendConfig) GetBreakerReset() time.Duration {
	return time.Duration(c.BreakerResetSeconds) * time.Second
}

// GetTokenTTL returns the session token lifetime
func (c *AuthConfig) GetTokenTTL() time.Duration {
	return time.Duration(c.TokenTTLHours) * time.Hour
}

// GetTTL returns how long an idle session is kept
func (c *SessionConfig) GetTTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

// GetRetention returns the audit retention window
func (c *SchedulerConfig) GetRetention() time.Duration {
	return time.Duration(c.AuditRetentionDays) * 24 * time.Hour
}

// Location resolves the configured timezone, falling back to UTC
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
