package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	MongoDB  MongoDBConfig
	Redis    RedisConfig
	S3       S3Config
	OTEL     OTELConfig
	Log      LogConfig
	Paystack PaystackConfig
	WhatsApp WhatsAppConfig
	Email    EmailConfig
	Report   ReportConfig
	Analysis AnalysisConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string
	MaxUploadSizeMB int64
	CORSOrigins     string
}

// MongoDBConfig holds MongoDB connection configuration
type MongoDBConfig struct {
	URI      string
	Database string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr       string
	Password   string
	SessionTTL time.Duration
}

// S3Config holds S3-compatible object storage configuration.
// Photo upload is disabled when Endpoint is empty.
type S3Config struct {
	Endpoint  string
	PublicURL string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

// Enabled reports whether photos should be uploaded to object storage
func (c S3Config) Enabled() bool {
	return c.Endpoint != ""
}

// OTELConfig holds OpenTelemetry export configuration
type OTELConfig struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	Environment    string
	Endpoint       string
	InstanceID     string
	Token          string
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json or console
}

// PaystackConfig holds Paystack API configuration
type PaystackConfig struct {
	SecretKey   string // empty selects the mock provider
	BaseURL     string
	CallbackURL string
	ReportPrice int64 // kobo
	Currency    string
}

// WhatsAppConfig holds wa.me link configuration
type WhatsAppConfig struct {
	DefaultCountryCode string // prefixed to local numbers starting with 0
}

// EmailConfig holds SES configuration. The email is logged instead of sent when Region or From is empty.
type EmailConfig struct {
	Region string
	From   string
}

// ReportConfig holds signed report link configuration
type ReportConfig struct {
	LinkSecret     string
	LinkTTL        time.Duration
	BaseURL        string
	RequirePayment bool
}

// AnalysisConfig holds image analysis tuning
type AnalysisConfig struct {
	Resolution int
	SampleStep int
}

// Load reads configuration from environment variables
// It attempts to load from .env file first, then falls back to system env vars
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			MaxUploadSizeMB: getEnvAsInt64("MAX_UPLOAD_SIZE_MB", 10),
			CORSOrigins:     getEnv("CORS_ORIGINS", "*"),
		},
		MongoDB: MongoDBConfig{
			URI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGODB_DATABASE", "skinsight"),
		},
		Redis: RedisConfig{
			Addr:       getEnv("REDIS_ADDR", "localhost:6379"),
			Password:   getEnv("REDIS_PASSWORD", ""),
			SessionTTL: getEnvAsDuration("SESSION_CACHE_TTL", 24*time.Hour),
		},
		S3: S3Config{
			Endpoint:  getEnv("S3_ENDPOINT", ""),
			PublicURL: getEnv("S3_PUBLIC_URL", ""),
			Region:    getEnv("S3_REGION", "us-east-1"),
			Bucket:    getEnv("S3_BUCKET", "skinsight-photos"),
			AccessKey: getEnv("S3_ACCESS_KEY", "any"),
			SecretKey: getEnv("S3_SECRET_KEY", "any"),
		},
		OTEL: OTELConfig{
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "skinsight-api"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "0.1.0"),
			Environment:    getEnv("OTEL_ENVIRONMENT", "development"),
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			InstanceID:     getEnv("OTEL_INSTANCE_ID", ""),
			Token:          getEnv("OTEL_TOKEN", ""),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Paystack: PaystackConfig{
			SecretKey:   getEnv("PAYSTACK_SECRET_KEY", ""),
			BaseURL:     getEnv("PAYSTACK_BASE_URL", "https://api.paystack.co"),
			CallbackURL: getEnv("PAYSTACK_CALLBACK_URL", ""),
			ReportPrice: getEnvAsInt64("REPORT_PRICE_KOBO", 250000),
			Currency:    getEnv("REPORT_CURRENCY", "NGN"),
		},
		WhatsApp: WhatsAppConfig{
			DefaultCountryCode: getEnv("WHATSAPP_DEFAULT_COUNTRY_CODE", "234"),
		},
		Email: EmailConfig{
			Region: getEnv("SES_REGION", ""),
			From:   getEnv("EMAIL_FROM", ""),
		},
		Report: ReportConfig{
			LinkSecret:     getEnv("REPORT_LINK_SECRET", ""),
			LinkTTL:        getEnvAsDuration("REPORT_LINK_TTL", 7*24*time.Hour),
			BaseURL:        strings.TrimRight(getEnv("REPORT_BASE_URL", "http://localhost:8080"), "/"),
			RequirePayment: getEnvAsBool("REPORT_REQUIRE_PAYMENT", true),
		},
		Analysis: AnalysisConfig{
			Resolution: int(getEnvAsInt64("ANALYSIS_RESOLUTION", 256)),
			SampleStep: int(getEnvAsInt64("ANALYSIS_SAMPLE_STEP", 2)),
		},
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration is present
func (c *Config) Validate() error {
	if c.Report.LinkSecret == "" {
		return fmt.Errorf("REPORT_LINK_SECRET is required")
	}
	if c.Server.MaxUploadSizeMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE_MB must be positive")
	}
	if c.Analysis.Resolution <= 0 {
		return fmt.Errorf("ANALYSIS_RESOLUTION must be positive")
	}
	if c.Analysis.SampleStep <= 0 {
		return fmt.Errorf("ANALYSIS_SAMPLE_STEP must be positive")
	}
	if c.Paystack.ReportPrice <= 0 {
		return fmt.Errorf("REPORT_PRICE_KOBO must be positive")
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt64 retrieves an environment variable as int64 or returns a default value
func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool retrieves an environment variable as bool or returns a default value
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

// getEnvAsDuration accepts Go durations ("36h") and falls back on parse errors
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
