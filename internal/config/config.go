package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Environment string
	ServerPort  string
	LogLevel    string

	// Database
	DatabaseType string
	DatabaseURL  string
	DatabasePath string

	// Identity provider
	AuthURL       string
	AuthAPIKey    string
	AuthJWTSecret string
	AuthTimeout   time.Duration

	// Google Calendar
	GoogleClientID     string
	GoogleClientSecret string
	PublicBaseURL      string
	TokenSealingKey    string
	CalendarTimeout    time.Duration

	// Cache
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Stripe
	StripeSecretKey     string
	StripeWebhookSecret string
	StripePriceID       string

	// Inbound message webhook; empty disables signature checks
	MessageWebhookSecret string

	// Observability and edge
	SentryDSN          string
	CORSAllowedOrigins []string
	RateLimitRPM       int
	// Read client IPs from X-Forwarded-For/X-Real-IP; only safe behind a proxy that overwrites them
	TrustProxyHeaders bool
}

// ErrMissingIdentityProvider is returned when no way to verify bearer tokens is configured.
var ErrMissingIdentityProvider = errors.New("identity provider not configured: set AUTH_URL and AUTH_API_KEY, or AUTH_JWT_SECRET")

// Load reads configuration from the environment (and an optional .env file).
// The service must not start without identity-provider credentials.
func Load() (*Config, error) {
	cfg := fromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadForTools reads the same settings as Load but only requires the database
// ones. Offline tools never verify bearer tokens.
func LoadForTools() (*Config, error) {
	cfg := fromEnv()
	if err := cfg.validateDatabase(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromEnv() *Config {
	_ = godotenv.Load()

	return &Config{
		Environment: getEnv("APP_ENV", "development"),
		ServerPort:  getEnv("PORT", "8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		DatabaseType: getEnv("DATABASE_TYPE", "sqlite"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabasePath: getEnv("DB_PATH", "./familyhub.db"),

		AuthURL:       strings.TrimRight(os.Getenv("AUTH_URL"), "/"),
		AuthAPIKey:    os.Getenv("AUTH_API_KEY"),
		AuthJWTSecret: os.Getenv("AUTH_JWT_SECRET"),
		AuthTimeout:   getDuration("AUTH_TIMEOUT", 5*time.Second),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		PublicBaseURL:      strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		TokenSealingKey:    os.Getenv("TOKEN_SEALING_KEY"),
		CalendarTimeout:    getDuration("CALENDAR_TIMEOUT", 10*time.Second),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getInt("REDIS_DB", 0),

		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		StripePriceID:       os.Getenv("STRIPE_PRICE_ID"),

		MessageWebhookSecret: os.Getenv("MESSAGE_WEBHOOK_SECRET"),

		SentryDSN:          os.Getenv("SENTRY_DSN"),
		CORSAllowedOrigins: getList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		RateLimitRPM:       getInt("RATE_LIMIT_RPM", 120),
		TrustProxyHeaders:  getBool("TRUST_PROXY_HEADERS", false),
	}
}

// Validate checks the settings that have no usable default.
func (c *Config) Validate() error {
	remote := c.AuthURL != "" && c.AuthAPIKey != ""
	if !remote && c.AuthJWTSecret == "" {
		return ErrMissingIdentityProvider
	}
	if c.AuthTimeout <= 0 {
		return errors.New("AUTH_TIMEOUT must be positive")
	}
	return c.validateDatabase()
}

func (c *Config) validateDatabase() error {
	switch strings.ToLower(c.DatabaseType) {
	case "postgres", "postgresql", "pgx", "mysql":
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for " + c.DatabaseType)
		}
	}
	return nil
}

// IsDevelopment reports whether the service runs in a local development environment.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// CalendarEnabled reports whether Google Calendar sync is configured.
func (c *Config) CalendarEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// PaymentsEnabled reports whether Stripe is configured.
func (c *Config) PaymentsEnabled() bool {
	return c.StripeSecretKey != ""
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getList(key string, def []string) []string {
	if v, ok := os.LookupEnv(key); ok {
		var cleaned []string
		for _, p := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				cleaned = append(cleaned, trimmed)
			}
		}
		if len(cleaned) > 0 {
			return cleaned
		}
	}
	return def
}
