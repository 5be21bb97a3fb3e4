package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	AppPort    string
	AppEnv     string
	JWTSecret  string

	// Payment window durations and the sweep cadence. Defaults match the
	// counter's policy: 15 minutes for self-service checkout, 30 minutes
	// for staff-entered non-cash orders, sweep every 30 seconds.
	CheckoutWindow time.Duration
	ManualWindow   time.Duration
	SweepInterval  time.Duration
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:         os.Getenv("DB_HOST"),
		DBUser:         os.Getenv("DB_USER"),
		DBPassword:     os.Getenv("DB_PASSWORD"),
		DBName:         os.Getenv("DB_NAME"),
		DBPort:         os.Getenv("DB_PORT"),
		AppPort:        os.Getenv("APP_PORT"),
		AppEnv:         os.Getenv("APP_ENV"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		CheckoutWindow: durationEnv("CHECKOUT_WINDOW_MINUTES", 15*time.Minute),
		ManualWindow:   durationEnv("MANUAL_WINDOW_MINUTES", 30*time.Minute),
		SweepInterval:  durationEnv("SWEEP_INTERVAL_SECONDS", 30*time.Second),
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	return cfg
}

// durationEnv reads a positive integer env var scaled by the default's
// unit (minutes or seconds), falling back to the default when unset or
// malformed.
func durationEnv(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}

	unit := time.Minute
	if def < time.Minute {
		unit = time.Second
	}
	return time.Duration(n) * unit
}
