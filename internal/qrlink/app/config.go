package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	QRIssuer      string // Optional: issuer claim in signed QR payloads (default: qrlink)
	MasterKeyFile string // Optional: path to master key file for QR signing key derivation

	DatabaseFile         string        // Optional: path to SQLite database file (default: ./qrlink.db)
	SessionTTL           time.Duration // Optional: handshake lifetime (default: 5m)
	TokenTTL             time.Duration // Optional: one-time token lifetime (default: 5m)
	ConfirmSources       []string      // Optional: allow-listed confirmation sources (default: mobile-app)
	RecheckBansOnConfirm bool          // Optional: re-run ban checks at confirm time (default: false)
	HandshakeRetention   time.Duration // Optional: how long resolved handshakes are kept (default: 24h)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	cfg := Config{
		QRIssuer:             getEnvOrDefault("QR_ISSUER", "qrlink"),
		MasterKeyFile:        os.Getenv("MASTER_KEY_FILE"), // Optional
		DatabaseFile:         getEnvOrDefault("DATABASE_FILE", "qrlink.db"),
		SessionTTL:           getEnvDurationOrDefault("SESSION_TTL", 5*time.Minute),
		TokenTTL:             getEnvDurationOrDefault("TOKEN_TTL", 5*time.Minute),
		RecheckBansOnConfirm: getEnvBoolOrDefault("RECHECK_BANS_ON_CONFIRM", false),
		HandshakeRetention:   getEnvDurationOrDefault("HANDSHAKE_RETENTION", 24*time.Hour),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	// Comma-separated allow-list of confirmation sources
	for _, source := range strings.Split(getEnvOrDefault("CONFIRM_SOURCES", "mobile-app"), ",") {
		if source = strings.TrimSpace(source); source != "" {
			cfg.ConfirmSources = append(cfg.ConfirmSources, source)
		}
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

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer seconds
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
