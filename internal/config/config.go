package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	CORS      CORSConfig
	Email     EmailConfig
	Webhook   WebhookConfig
	RateLimit RateLimitConfig
	Redis     RedisConfig
	Events    EventsConfig
	Intake    IntakeConfig
}

// AppConfig holds application-level configuration
type AppConfig struct {
	Name    string
	Version string
	Debug   bool
	Port    string
	Host    string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// AuthConfig holds staff authentication configuration
type AuthConfig struct {
	SecretKey          string
	TokenExpiryMinutes int
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         int
}

// EmailConfig holds staff notification email configuration
type EmailConfig struct {
	Enabled           bool
	SMTPHost          string
	SMTPPort          int
	Username          string
	Password          string
	FromEmail         string
	FromName          string
	NotificationEmail string
}

// WebhookConfig holds the messenger hub webhook configuration
type WebhookConfig struct {
	MessengerHubURL string
	Timeout         time.Duration
}

// RateLimitConfig holds form submission rate limiting configuration
type RateLimitConfig struct {
	Backend       string // "memory" or "redis"
	Window        time.Duration
	MaxPerWindow  int
	SweepInterval time.Duration
}

// RedisConfig holds the redis connection used by the shared rate limiter
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// EventsConfig holds the lead event stream configuration
type EventsConfig struct {
	Enabled      bool
	KafkaBrokers []string
	LeadsTopic   string
}

// IntakeConfig holds form validation switches
type IntakeConfig struct {
	EnforceSolutionEnum bool
}

var globalConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		App: AppConfig{
			Name:    getEnv("APP_NAME", "BMAsia API"),
			Version: getEnv("APP_VERSION", "1.0.0"),
			Debug:   getEnvAsBool("DEBUG", false),
			Port:    getEnv("PORT", "8000"),
			Host:    getEnv("HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", "sqlite:///./bmasia.db"),
		},
		Auth: AuthConfig{
			SecretKey:          getEnv("SECRET_KEY", ""),
			TokenExpiryMinutes: getEnvAsInt("ACCESS_TOKEN_EXPIRE_MINUTES", 30),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("ALLOWED_HOSTS", []string{"*"}),
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
			MaxAge:         86400,
		},
		Email: EmailConfig{
			Enabled:           getEnvAsBool("EMAIL_ENABLED", false),
			SMTPHost:          getEnv("SMTP_HOST", "smtp.gmail.com"),
			SMTPPort:          getEnvAsInt("SMTP_PORT", 587),
			Username:          getEnv("SMTP_USERNAME", ""),
			Password:          getEnv("SMTP_PASSWORD", ""),
			FromEmail:         getEnv("EMAIL_FROM", getEnv("SMTP_USERNAME", "")),
			FromName:          getEnv("EMAIL_FROM_NAME", "BMAsia Website"),
			NotificationEmail: getEnv("NOTIFICATION_EMAIL", "info@bmasiamusic.com"),
		},
		Webhook: WebhookConfig{
			MessengerHubURL: strings.TrimRight(getEnv("MESSENGER_HUB_URL", "https://bma-messenger-hub-ooyy.onrender.com"), "/"),
			Timeout:         getEnvAsDuration("MESSENGER_HUB_TIMEOUT", 10*time.Second),
		},
		RateLimit: RateLimitConfig{
			Backend:       strings.ToLower(getEnv("RATE_LIMIT_BACKEND", "memory")),
			Window:        getEnvAsDuration("RATE_LIMIT_WINDOW", time.Hour),
			MaxPerWindow:  getEnvAsInt("RATE_LIMIT_MAX", 5),
			SweepInterval: getEnvAsDuration("RATE_LIMIT_SWEEP_INTERVAL", 10*time.Minute),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Events: EventsConfig{
			Enabled:      getEnvAsBool("EVENTS_ENABLED", false),
			KafkaBrokers: getEnvAsSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			LeadsTopic:   getEnv("KAFKA_LEADS_TOPIC", "website.leads"),
		},
		Intake: IntakeConfig{
			EnforceSolutionEnum: getEnvAsBool("ENFORCE_SOLUTION_ENUM", false),
		},
	}

	// Validate configuration
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	globalConfig = config
	return config, nil
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if cfg.App.Port == "" {
		return fmt.Errorf("PORT must be set")
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL must be set")
	}
	if cfg.Auth.TokenExpiryMinutes <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be greater than 0")
	}
	if cfg.RateLimit.Window <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be greater than 0")
	}
	if cfg.RateLimit.MaxPerWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_MAX must be greater than 0")
	}
	switch cfg.RateLimit.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("RATE_LIMIT_BACKEND must be memory or redis, got %q", cfg.RateLimit.Backend)
	}
	if cfg.Email.Enabled && cfg.Email.NotificationEmail == "" {
		return fmt.Errorf("NOTIFICATION_EMAIL must be set when EMAIL_ENABLED is true")
	}
	if cfg.Events.Enabled && (len(cfg.Events.KafkaBrokers) == 0 || cfg.Events.LeadsTopic == "") {
		return fmt.Errorf("KAFKA_BROKERS and KAFKA_LEADS_TOPIC must be set when EVENTS_ENABLED is true")
	}
	return nil
}

// Get returns the global configuration
func Get() *Config {
	if globalConfig == nil {
		// Load default config if not loaded
		config, _ := Load()
		return config
	}
	return globalConfig
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	return values
}

// IsPostgres checks if the database URL is for PostgreSQL
func (c *DatabaseConfig) IsPostgres() bool {
	return strings.HasPrefix(c.URL, "postgresql://") || strings.HasPrefix(c.URL, "postgres://") ||
		strings.Contains(c.URL, "host=")
}

// GetPostgresDSN returns the connection string handed to the postgres driver.
// pgx accepts both URL and key=value forms, so the URL is passed through untouched.
func (c *DatabaseConfig) GetPostgresDSN() string {
	return c.URL
}

// GetSQLitePath extracts SQLite database path from URL
func (c *DatabaseConfig) GetSQLitePath() string {
	return strings.TrimPrefix(c.URL, "sqlite:///")
}
