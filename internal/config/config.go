package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Server
	Env  string
	Port string

	// Database
	DBDriver   string
	DBPath     string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Quote provider
	QuoteBaseURL   string
	RequestTimeout time.Duration

	// Sync engine
	SyncWorkers      int
	SyncInterval     time.Duration
	SyncMaxRetries   int
	SyncRetryBackoff time.Duration

	// Quote cache (disabled when RedisAddr is empty)
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	QuoteCacheTTL time.Duration
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "8080"),

		DBDriver:   getEnv("DB_DRIVER", "sqlite"),
		DBPath:     getEnv("DB_PATH", "stocks.db"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "screener"),
		DBPassword: getEnv("DB_PASSWORD", "screener"),
		DBName:     getEnv("DB_NAME", "screener"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		QuoteBaseURL:   getEnv("QUOTE_BASE_URL", ""),
		RequestTimeout: getDuration("REQUEST_TIMEOUT", 10*time.Second),

		SyncWorkers:      getInt("SYNC_WORKERS", 4),
		SyncInterval:     getDuration("SYNC_INTERVAL", 15*time.Minute),
		SyncMaxRetries:   getInt("SYNC_MAX_RETRIES", 2),
		SyncRetryBackoff: getDuration("SYNC_RETRY_BACKOFF", 2*time.Second),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getInt("REDIS_DB", 0),
		QuoteCacheTTL: getDuration("QUOTE_CACHE_TTL", time.Minute),
	}

	if config.SyncWorkers < 1 {
		log.Printf("Warning: SYNC_WORKERS must be at least 1, got %d; using 1\n", config.SyncWorkers)
		config.SyncWorkers = 1
	}

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDuration parses a duration variable, falling back to the default on a bad value.
func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		log.Printf("Warning: invalid %s value '%s', falling back to %s\n", key, raw, defaultValue)
		return defaultValue
	}
	return d
}

func getInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %d\n", key, raw, defaultValue)
		return defaultValue
	}
	return n
}
