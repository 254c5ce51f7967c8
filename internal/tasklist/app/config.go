package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Secret     string // Optional: HMAC signing secret; loaded from SecretFile when unset
	SecretFile string // Optional: path to the persisted signing secret (default: ./secret)

	DatabaseFile   string        // Optional: path to the SQLite database file (default: ./tasklist.db)
	BcryptCost     int           // Optional: password hashing work factor (default: 10)
	SessionTTL     time.Duration // Optional: session token lifetime; 0 disables expiry (default: 0)
	MinPasswordLen int           // Optional: signup password policy (default: 6)

	HousekeepingInterval time.Duration // Optional: expired-session sweep interval (default: 1h)

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	return Config{
		Secret:     os.Getenv("TASKLIST_SECRET"),
		SecretFile: getEnvOrDefault("TASKLIST_SECRET_FILE", "secret"),

		DatabaseFile:   getEnvOrDefault("TASKLIST_DATABASE_FILE", "tasklist.db"),
		BcryptCost:     getEnvIntOrDefault("TASKLIST_BCRYPT_COST", 0),
		SessionTTL:     getEnvDurationOrDefault("TASKLIST_SESSION_TTL", 0),
		MinPasswordLen: getEnvIntOrDefault("TASKLIST_MIN_PASSWORD_LEN", 0),

		HousekeepingInterval: getEnvDurationOrDefault("TASKLIST_HOUSEKEEPING_INTERVAL", time.Hour),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}
	return defaultValue
}
