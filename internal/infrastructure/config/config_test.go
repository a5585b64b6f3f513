package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Save original env vars and restore after tests
	originalEnv := map[string]string{
		"HOSTPANEL_APP_NAME":                    os.Getenv("HOSTPANEL_APP_NAME"),
		"HOSTPANEL_APP_ENV":                     os.Getenv("HOSTPANEL_APP_ENV"),
		"HOSTPANEL_APP_PORT":                    os.Getenv("HOSTPANEL_APP_PORT"),
		"HOSTPANEL_DATABASE_HOST":               os.Getenv("HOSTPANEL_DATABASE_HOST"),
		"HOSTPANEL_DATABASE_PORT":               os.Getenv("HOSTPANEL_DATABASE_PORT"),
		"HOSTPANEL_DATABASE_PASSWORD":           os.Getenv("HOSTPANEL_DATABASE_PASSWORD"),
		"HOSTPANEL_BILLING_FALLBACK_HOURLY_RATE": os.Getenv("HOSTPANEL_BILLING_FALLBACK_HOURLY_RATE"),
		"HOSTPANEL_BILLING_SWEEP_INTERVAL":      os.Getenv("HOSTPANEL_BILLING_SWEEP_INTERVAL"),
		"HOSTPANEL_BILLING_SWEEP_WORKERS":       os.Getenv("HOSTPANEL_BILLING_SWEEP_WORKERS"),
		"HOSTPANEL_JWT_SECRET":                  os.Getenv("HOSTPANEL_JWT_SECRET"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv()

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "hostpanel-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "hostpanel", cfg.Database.DBName)
		assert.Equal(t, "0.05", cfg.Billing.FallbackHourlyRate.String())
		assert.Equal(t, time.Hour, cfg.Billing.SweepInterval)
		assert.Equal(t, 4, cfg.Billing.SweepWorkers)
		assert.Equal(t, 5*time.Minute, cfg.Billing.PlanCacheTTL)
	})

	t.Run("loads values from environment variables with HOSTPANEL prefix", func(t *testing.T) {
		clearEnv()
		os.Setenv("HOSTPANEL_APP_NAME", "test-app")
		os.Setenv("HOSTPANEL_DATABASE_HOST", "testdb.local")
		os.Setenv("HOSTPANEL_DATABASE_PORT", "5433")
		os.Setenv("HOSTPANEL_BILLING_FALLBACK_HOURLY_RATE", "0.0274")
		os.Setenv("HOSTPANEL_BILLING_SWEEP_INTERVAL", "30m")
		os.Setenv("HOSTPANEL_BILLING_SWEEP_WORKERS", "8")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "0.0274", cfg.Billing.FallbackHourlyRate.String())
		assert.Equal(t, 30*time.Minute, cfg.Billing.SweepInterval)
		assert.Equal(t, 8, cfg.Billing.SweepWorkers)
	})

	t.Run("rejects malformed fallback rate", func(t *testing.T) {
		clearEnv()
		os.Setenv("HOSTPANEL_BILLING_FALLBACK_HOURLY_RATE", "not-a-number")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("rejects sweep interval below one minute", func(t *testing.T) {
		clearEnv()
		os.Setenv("HOSTPANEL_BILLING_SWEEP_INTERVAL", "5s")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("production requires jwt secret and database password", func(t *testing.T) {
		clearEnv()
		os.Setenv("HOSTPANEL_APP_ENV", "production")

		_, err := Load()
		assert.Error(t, err)
	})
}

func TestDatabaseConfigDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db.internal",
		Port:     5432,
		User:     "billing",
		Password: "p@ss/word",
		DBName:   "hostpanel",
		SSLMode:  "require",
	}

	dsn := cfg.DSN()
	assert.Contains(t, dsn, "postgres://")
	assert.Contains(t, dsn, "db.internal:5432")
	assert.Contains(t, dsn, "sslmode=require")
	// special characters must be escaped
	assert.NotContains(t, dsn, "p@ss/word")
}

func TestRedisAddr(t *testing.T) {
	cfg := RedisConfig{Host: "cache.internal", Port: 6380}
	assert.Equal(t, "cache.internal:6380", cfg.RedisAddr())
}
