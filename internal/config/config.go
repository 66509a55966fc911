package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/benvon/study-advent/internal/services/oidc"
	"github.com/ulule/limiter/v3"
)

// Remote progress backends.
const (
	RemoteStoreNone     = "none"
	RemoteStorePostgres = "postgres"
	RemoteStoreRedis    = "redis"
)

// Config holds application configuration
type Config struct {
	ServerPort      string
	BaseURL         string
	FrontendURL     string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	EnableHSTS      bool
	ServerDebugMode bool
	WorkerDebugMode bool
	LogFile         string

	// LocalDBPath is the bbolt file; empty means the xdg data dir.
	LocalDBPath   string
	DatabaseURL   string
	RedisURL      string
	RemoteStore   string
	RemoteTimeout time.Duration

	RabbitMQURL      string
	RabbitMQPrefetch int

	OpenAIKey string
	AIModel   string
	AIBaseURL string

	OIDCIssuer       string
	OIDCJWKSURL      string
	OIDCClientID     string
	OIDCClientSecret string
	OIDCRedirectURI  string
	OIDCAudience     string

	Timezone           string
	TargetDays         int
	ReminderInterval   time.Duration
	ReminderWebhookURL string
	ReminderTTL        time.Duration
	DLQRetention       time.Duration
	DLQGCInterval      time.Duration

	CORSOrigins      []string
	RateLimitEnabled bool
	RateLimit        string

	OTELEnabled  bool
	OTELEndpoint string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom reads configuration through getenv and validates it.
func LoadFrom(getenv func(string) string) (*Config, error) {
	e := env(getenv)
	cfg := &Config{
		ServerPort:      e.getEnv("SERVER_PORT", "8080"),
		BaseURL:         e.getEnv("BASE_URL", "http://localhost:8080"),
		FrontendURL:     e.getEnv("FRONTEND_URL", "http://localhost:3000"),
		ReadTimeout:     e.getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    e.getEnvDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
		IdleTimeout:     e.getEnvDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		ShutdownTimeout: e.getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		EnableHSTS:      e.getEnvBool("ENABLE_HSTS", false),
		ServerDebugMode: e.getEnvBool("SERVER_DEBUG_MODE", false),
		WorkerDebugMode: e.getEnvBool("WORKER_DEBUG_MODE", false),
		LogFile:         e.getEnv("LOG_FILE", ""),

		LocalDBPath:   e.getEnv("LOCAL_DB_PATH", ""),
		DatabaseURL:   e.getEnv("DATABASE_URL", ""),
		RedisURL:      e.getEnv("REDIS_URL", ""),
		RemoteStore:   strings.ToLower(e.getEnv("REMOTE_STORE", "")),
		RemoteTimeout: e.getEnvDuration("REMOTE_TIMEOUT", 10*time.Second),

		RabbitMQURL:      e.getEnv("RABBITMQ_URL", ""),
		RabbitMQPrefetch: e.getEnvInt("RABBITMQ_PREFETCH", 1),

		OpenAIKey: e.getEnv("OPENAI_API_KEY", ""),
		AIModel:   e.getEnv("AI_MODEL", ""),
		AIBaseURL: e.getEnv("AI_BASE_URL", ""),

		OIDCIssuer:       e.getEnv("OIDC_ISSUER", ""),
		OIDCJWKSURL:      e.getEnv("OIDC_JWKS_URL", ""),
		OIDCClientID:     e.getEnv("OIDC_CLIENT_ID", ""),
		OIDCClientSecret: e.getEnv("OIDC_CLIENT_SECRET", ""),
		OIDCRedirectURI:  e.getEnv("OIDC_REDIRECT_URI", ""),
		OIDCAudience:     e.getEnv("OIDC_AUDIENCE", ""),

		Timezone:           e.getEnv("PLANNER_TIMEZONE", "Local"),
		TargetDays:         e.getEnvInt("TARGET_DAYS", 24),
		ReminderInterval:   e.getEnvDuration("REMINDER_INTERVAL", time.Minute),
		ReminderWebhookURL: e.getEnv("REMINDER_WEBHOOK_URL", ""),
		ReminderTTL:        e.getEnvDuration("REMINDER_TTL", 6*time.Hour),
		DLQRetention:       e.getEnvDuration("DLQ_RETENTION", 7*24*time.Hour),
		DLQGCInterval:      e.getEnvDuration("DLQ_GC_INTERVAL", time.Hour),

		CORSOrigins:      e.getEnvList("CORS_ORIGINS", []string{"http://localhost:3000"}),
		RateLimitEnabled: e.getEnvBool("RATE_LIMIT_ENABLED", true),
		RateLimit:        e.getEnv("RATE_LIMIT", "10-M"),

		OTELEnabled:  e.getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint: e.getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	if cfg.OIDCRedirectURI == "" {
		cfg.OIDCRedirectURI = strings.TrimSuffix(cfg.BaseURL, "/") + "/auth/callback"
	}
	if cfg.RemoteStore == "" {
		cfg.RemoteStore = defaultRemoteStore(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultRemoteStore(cfg *Config) string {
	switch {
	case cfg.DatabaseURL != "":
		return RemoteStorePostgres
	case cfg.RedisURL != "":
		return RemoteStoreRedis
	default:
		return RemoteStoreNone
	}
}

// Validate checks cross-field consistency.
func (c *Config) Validate() error {
	var errs []error

	if port, err := strconv.Atoi(c.ServerPort); err != nil || port <= 0 || port > 65535 {
		errs = append(errs, fmt.Errorf("SERVER_PORT must be a port number, got %q", c.ServerPort))
	}

	switch c.RemoteStore {
	case RemoteStoreNone:
	case RemoteStorePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when REMOTE_STORE=postgres"))
		}
	case RemoteStoreRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required when REMOTE_STORE=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("REMOTE_STORE must be none, postgres or redis, got %q", c.RemoteStore))
	}

	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if c.TargetDays <= 0 {
		errs = append(errs, fmt.Errorf("TARGET_DAYS must be positive, got %d", c.TargetDays))
	}
	if c.ReminderInterval <= 0 {
		errs = append(errs, errors.New("REMINDER_INTERVAL must be positive"))
	}
	if c.ReminderWebhookURL != "" {
		if u, err := url.Parse(c.ReminderWebhookURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("REMINDER_WEBHOOK_URL must be an http(s) URL, got %q", c.ReminderWebhookURL))
		}
	}
	if c.RateLimitEnabled {
		if _, err := limiter.NewRateFromFormatted(c.RateLimit); err != nil {
			errs = append(errs, fmt.Errorf("RATE_LIMIT %q: %w", c.RateLimit, err))
		}
	}
	if c.OIDCIssuer != "" && c.OIDCClientID == "" {
		errs = append(errs, errors.New("OIDC_CLIENT_ID is required when OIDC_ISSUER is set"))
	}
	if c.RabbitMQPrefetch <= 0 {
		errs = append(errs, errors.New("RABBITMQ_PREFETCH must be positive"))
	}

	return errors.Join(errs...)
}

// Location resolves the planner timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("PLANNER_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// OIDC returns the identity provider settings.
func (c *Config) OIDC() oidc.Config {
	return oidc.Config{
		Issuer:       c.OIDCIssuer,
		JWKSURL:      c.OIDCJWKSURL,
		ClientID:     c.OIDCClientID,
		ClientSecret: c.OIDCClientSecret,
		RedirectURI:  c.OIDCRedirectURI,
		Audience:     c.OIDCAudience,
	}
}

type env func(string) string

func (e env) getEnv(key, defaultValue string) string {
	if value := e(key); value != "" {
		return value
	}
	return defaultValue
}

func (e env) getEnvBool(key string, defaultValue bool) bool {
	if value := e(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func (e env) getEnvInt(key string, defaultValue int) int {
	if value := e(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func (e env) getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := e(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated value, dropping blanks.
func (e env) getEnvList(key string, defaultValue []string) []string {
	value := e(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
