// Package config loads server configuration from the environment.
// A .env file is honored when present (godotenv); real env vars win.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     int
	DBPath   string
	LogLevel string
	JWT      JWTConfig
}

type JWTConfig struct {
	Secret   string
	TokenTTL time.Duration
}

// Load reads configuration from the environment with sane defaults.
// The JWT secret default exists for local development only.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:     getEnvInt("PORT", 8080),
		DBPath:   getEnv("DB_PATH", "./data/inventory.db"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		JWT: JWTConfig{
			Secret:   getEnv("JWT_SECRET", "dev-only-insecure-secret"),
			TokenTTL: getEnvDuration("JWT_TOKEN_TTL", 24*time.Hour),
		},
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
