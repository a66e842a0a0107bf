package app

import (
	"os"
	"strconv"
	"time"

	"github.com/quorumlabs/minute/pkg/jwtx"
	"github.com/quorumlabs/minute/pkg/otpx"
)

type Config struct {
	Issuer         string // Issuer claim for session tokens and TOTP labels
	SigningKey     string // HMAC key material; prefer SigningKeyFile in prod
	SigningKeyFile string // Path to a file holding the HMAC key

	DatabaseFile string // Path to SQLite database file (default: ./minute.db)
	PepperFile   string // Path to pepper file for password hashing (default: ./pepper)

	SessionTTL   time.Duration // Full session lifetime (default: 24h)
	PartialTTL   time.Duration // Partial (pre-MFA) token lifetime (default: 5m)
	OTPTolerance uint          // TOTP clock-drift allowance in seconds (default: one step)

	SeedAdminEmail    string // Optional: credentials for first-run SUPER_ADMIN seeding
	SeedAdminPassword string

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:         getEnvOrDefault("AUTH_ISSUER", "minute-auth"),
		SigningKey:     os.Getenv("AUTH_SIGNING_KEY"),
		SigningKeyFile: os.Getenv("AUTH_SIGNING_KEY_FILE"),

		DatabaseFile: getEnvOrDefault("AUTH_DATABASE_FILE", "minute.db"),
		PepperFile:   getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),

		SessionTTL:   getEnvDurationOrDefault("AUTH_SESSION_TTL", jwtx.DefaultSessionTTL),
		PartialTTL:   getEnvDurationOrDefault("AUTH_PARTIAL_TTL", jwtx.DefaultPartialTTL),
		OTPTolerance: uint(getEnvIntOrDefault("AUTH_OTP_TOLERANCE_SEC", otpx.Period)),

		SeedAdminEmail:    os.Getenv("AUTH_SEED_ADMIN_EMAIL"),
		SeedAdminPassword: os.Getenv("AUTH_SEED_ADMIN_PASSWORD"),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	return cfg
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

	// Durations like "1h", "30m", "90s"
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are taken as minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
