package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Server         ServerConfig
	Database       DatabaseConfig
	Redis          RedisConfig
	NewRelic       NewRelicConfig
	Log            LogConfig
	Auth           AuthConfig
	Gateway        GatewayConfig
	Reconciliation ReconciliationConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Driver   string // "postgres" or "memory"
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Env   string // "production" selects JSON output
	Level string
}

// AuthConfig holds admin API authentication settings.
type AuthConfig struct {
	JWTSecret string
	Disabled  bool
}

// GatewayConfig holds payment gateway settings.
type GatewayConfig struct {
	Driver                  string // "sslcommerz" or "mock"
	SSLCommerzBaseURL       string
	SSLCommerzStoreID       string
	SSLCommerzStorePassword string
	StripeSecretKey         string // Optional: enables the card gateway
	StatusMapPath           string
	Timeout                 time.Duration
	RateLimit               float64 // Requests per second, 0 disables throttling
	Burst                   int
}

// ReconciliationConfig holds write path settings.
type ReconciliationConfig struct {
	LockWaitTimeout   time.Duration
	LockTTL           time.Duration
	StoreWriteTimeout time.Duration
	StatsCacheTTL     time.Duration
}

// Load loads configuration from environment variables, after reading a
// .env file if one is present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("STORE_DRIVER", "postgres"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "academy_payments"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Enabled:  getBoolEnv("REDIS_ENABLED", true),
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "payment-reconciliation-service"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
		Log: LogConfig{
			Env:   getEnv("APP_ENV", "development"),
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			Disabled:  getBoolEnv("AUTH_DISABLED", false),
		},
		Gateway: GatewayConfig{
			Driver:                  getEnv("GATEWAY_DRIVER", "sslcommerz"),
			SSLCommerzBaseURL:       getEnv("SSLCOMMERZ_BASE_URL", "https://sandbox.sslcommerz.com"),
			SSLCommerzStoreID:       getEnv("SSLCOMMERZ_STORE_ID", ""),
			SSLCommerzStorePassword: getEnv("SSLCOMMERZ_STORE_PASSWORD", ""),
			StripeSecretKey:         getEnv("STRIPE_SECRET_KEY", ""),
			StatusMapPath:           getEnv("GATEWAY_STATUS_MAP", "configs/gateway_status.yaml"),
			Timeout:                 getDurationEnv("GATEWAY_TIMEOUT", 10*time.Second),
			RateLimit:               getFloatEnv("GATEWAY_RATE_LIMIT", 5),
			Burst:                   getIntEnv("GATEWAY_BURST", 5),
		},
		Reconciliation: ReconciliationConfig{
			LockWaitTimeout:   getDurationEnv("LOCK_WAIT_TIMEOUT", 5*time.Second),
			LockTTL:           getDurationEnv("LOCK_TTL", 30*time.Second),
			StoreWriteTimeout: getDurationEnv("STORE_WRITE_TIMEOUT", 5*time.Second),
			StatsCacheTTL:     getDurationEnv("STATS_CACHE_TTL", 15*time.Second),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
