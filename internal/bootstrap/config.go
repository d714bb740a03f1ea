package bootstrap

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	ServerAddr string
	LogLevel   string

	HMACKey []byte

	DatabaseDSN string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// DefaultPeriod, when set, substitutes for unrecognized period tokens.
	// Left unset, an unknown token is rejected as invalid.
	DefaultPeriod string

	// LoadCapacity is the active-conversation count treated as full system
	// load in live metrics.
	LoadCapacity int

	FeedInterval     time.Duration
	FeedMaxRetries   int
	FeedRetryBackoff time.Duration
}

func LoadConfig() *Config {
	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),

		HMACKey: []byte(getEnv("HMAC_KEY", "change-me-in-production")),

		DatabaseDSN: getEnv("DATABASE_DSN", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		DefaultPeriod: getEnv("DEFAULT_PERIOD", ""),
		LoadCapacity:  getEnvInt("LOAD_CAPACITY", 100),

		FeedInterval:     getEnvDuration("FEED_INTERVAL", 5*time.Second),
		FeedMaxRetries:   getEnvInt("FEED_MAX_RETRIES", 3),
		FeedRetryBackoff: getEnvDuration("FEED_RETRY_BACKOFF", 200*time.Millisecond),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
