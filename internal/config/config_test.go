package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Success loading from env", func(t *testing.T) {
		t.Setenv("DB_HOST", "localhost")
		t.Setenv("DB_USER", "testuser")
		t.Setenv("DB_PASSWORD", "testpass")
		t.Setenv("DB_NAME", "testdb")
		t.Setenv("DB_PORT", "5432")
		t.Setenv("APP_PORT", "8080")
		t.Setenv("APP_ENV", "test")
		t.Setenv("JWT_SECRET", "jwt_secret")

		cfg := LoadConfig()

		assert.NotNil(t, cfg)
		assert.Equal(t, "localhost", cfg.DBHost)
		assert.Equal(t, "testuser", cfg.DBUser)
		assert.Equal(t, "testpass", cfg.DBPassword)
		assert.Equal(t, "testdb", cfg.DBName)
		assert.Equal(t, "5432", cfg.DBPort)
		assert.Equal(t, "8080", cfg.AppPort)
		assert.Equal(t, "test", cfg.AppEnv)
		assert.Equal(t, "jwt_secret", cfg.JWTSecret)
	})

	t.Run("Window defaults", func(t *testing.T) {
		t.Setenv("DB_HOST", "localhost")

		cfg := LoadConfig()

		assert.Equal(t, 15*time.Minute, cfg.CheckoutWindow)
		assert.Equal(t, 30*time.Minute, cfg.ManualWindow)
		assert.Equal(t, 30*time.Second, cfg.SweepInterval)
	})

	t.Run("Window overrides", func(t *testing.T) {
		t.Setenv("DB_HOST", "localhost")
		t.Setenv("CHECKOUT_WINDOW_MINUTES", "10")
		t.Setenv("MANUAL_WINDOW_MINUTES", "45")
		t.Setenv("SWEEP_INTERVAL_SECONDS", "60")

		cfg := LoadConfig()

		assert.Equal(t, 10*time.Minute, cfg.CheckoutWindow)
		assert.Equal(t, 45*time.Minute, cfg.ManualWindow)
		assert.Equal(t, 60*time.Second, cfg.SweepInterval)
	})

	t.Run("Malformed window falls back", func(t *testing.T) {
		t.Setenv("DB_HOST", "localhost")
		t.Setenv("CHECKOUT_WINDOW_MINUTES", "soon")
		t.Setenv("SWEEP_INTERVAL_SECONDS", "-5")

		cfg := LoadConfig()

		assert.Equal(t, 15*time.Minute, cfg.CheckoutWindow)
		assert.Equal(t, 30*time.Second, cfg.SweepInterval)
	})
}
