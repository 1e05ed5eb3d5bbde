// Package config loads and validates application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/pkordes/carpool/internal/domain"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// LogLevel is the minimum level logged. Defaults to info.
	// Set LOG_LEVEL to one of debug, info, warn, error.
	LogLevel slog.Level

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"]. Set CORS_ORIGINS to a
	// comma-separated list to override.
	CORSOrigins []string

	// JWTSecret is the HS256 key bearer tokens are verified with. Required.
	JWTSecret []byte

	// SeatPolicy is what accepting and rejecting a pending booking does to the
	// trip's seats. Defaults to hold.
	SeatPolicy domain.SeatPolicy

	// TxMaxRetries bounds how often a transaction that hit a serialization
	// failure or deadlock is re-run. Defaults to 3.
	TxMaxRetries uint64

	// MaxBodyBytes caps request body size. Defaults to 1 MiB.
	MaxBodyBytes int64

	// AutoMigrate applies pending migrations on start. Defaults to true.
	AutoMigrate bool
}

// Load reads configuration from environment variables and returns a Config.
// Returns an error listing any required variables that are not set, or the
// first variable whose value cannot be parsed.
func Load() (Config, error) {
	cfg := Config{
		Port:        getEnv("PORT", "8080"),
		CORSOrigins: splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
	}

	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.JWTSecret = []byte(os.Getenv("JWT_SECRET"))
	if len(cfg.JWTSecret) == 0 {
		missing = append(missing, "JWT_SECRET")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	var errs []error

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}

	policy, err := domain.ParseSeatPolicy(getEnv("SEAT_POLICY", string(domain.SeatPolicyHold)))
	if err != nil {
		errs = append(errs, fmt.Errorf("SEAT_POLICY: %w", err))
	}
	cfg.SeatPolicy = policy

	cfg.TxMaxRetries, err = strconv.ParseUint(getEnv("TX_MAX_RETRIES", "3"), 10, 8)
	if err != nil {
		errs = append(errs, fmt.Errorf("TX_MAX_RETRIES: %w", err))
	}

	cfg.MaxBodyBytes, err = strconv.ParseInt(getEnv("MAX_BODY_BYTES", "1048576"), 10, 64)
	if err == nil && cfg.MaxBodyBytes <= 0 {
		err = errors.New("must be positive")
	}
	if err != nil {
		errs = append(errs, fmt.Errorf("MAX_BODY_BYTES: %w", err))
	}

	cfg.AutoMigrate, err = strconv.ParseBool(getEnv("AUTO_MIGRATE", "true"))
	if err != nil {
		errs = append(errs, fmt.Errorf("AUTO_MIGRATE: %w", err))
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
