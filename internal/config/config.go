package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config carries every runtime setting; it is loaded once in main and
// injected into components at construction.
type Config struct {
	AppEnv   string
	LogLevel string

	HTTPListenAddr   string
	MetricsNamespace string

	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTLS      bool

	JWTSecret string
	TokenTTL  time.Duration

	// Domain segregation. Role claims in the bearer token are the
	// authoritative boundary; these hosts are defense-in-depth only.
	APIHost       string
	OwnerHost     string
	TenantHost    string
	TenantBaseURL string

	WahaBaseURL string
	WahaSession string
	WahaAPIKey  string
	WahaTimeout time.Duration

	// OwnerWhatsApp receives new-ticket alerts when set.
	OwnerWhatsApp string

	S3Endpoint     string
	S3Region       string
	S3Bucket       string
	S3AccessKey    string
	S3SecretKey    string
	S3UsePathStyle bool

	SchedulerTimezone string
	BillingCronSpec   string
	MeterCronSpec     string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	tokenTTL, err := getEnvDuration("TOKEN_TTL", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}
	wahaTimeout, err := getEnvDuration("WAHA_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid WAHA_TIMEOUT: %w", err)
	}

	cfg := &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		HTTPListenAddr:   getEnv("HTTP_LISTEN_ADDR", ":8080"),
		MetricsNamespace: getEnv("METRICS_NAMESPACE", "indekost"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       redisDB,
		RedisTLS:      getEnvBool("REDIS_TLS", false),

		JWTSecret: getEnv("JWT_SECRET", ""),
		TokenTTL:  tokenTTL,

		APIHost:       getEnv("API_HOST", ""),
		OwnerHost:     getEnv("OWNER_HOST", ""),
		TenantHost:    getEnv("TENANT_HOST", ""),
		TenantBaseURL: getEnv("TENANT_BASE_URL", "http://localhost:8080"),

		WahaBaseURL: getEnv("WAHA_BASE_URL", "http://localhost:3000"),
		WahaSession: getEnv("WAHA_SESSION", "default"),
		WahaAPIKey:  getEnv("WAHA_API_KEY", ""),
		WahaTimeout: wahaTimeout,

		OwnerWhatsApp: getEnv("OWNER_WHATSAPP", ""),

		S3Endpoint:     getEnv("S3_ENDPOINT", ""),
		S3Region:       getEnv("S3_REGION", "us-east-1"),
		S3Bucket:       getEnv("S3_BUCKET", "indekost"),
		S3AccessKey:    getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:    getEnv("S3_SECRET_KEY", ""),
		S3UsePathStyle: getEnvBool("S3_USE_PATH_STYLE", true),

		SchedulerTimezone: getEnv("SCHEDULER_TZ", "Asia/Jakarta"),
		BillingCronSpec:   getEnv("BILLING_CRON", "0 9 1 * *"),
		MeterCronSpec:     getEnv("METER_CRON", "0 8 * * *"),
	}

	return cfg, nil
}

// Validate reports missing required settings.
func (c *Config) Validate() error {
	var missing []string
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return time.ParseDuration(v)
}
