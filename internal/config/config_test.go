package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigMethods(t *testing.T) {
	t.Run("Addr returns formatted port", func(t *testing.T) {
		cfg := &Config{Port: 3000}
		assert.Equal(t, ":3000", cfg.Addr())
	})

	t.Run("TokenTTL converts minutes to duration", func(t *testing.T) {
		cfg := &Config{TokenTTLMinutes: 30}
		assert.Equal(t, 30*time.Minute, cfg.TokenTTL())
	})
}

func TestLoad(t *testing.T) {
	originalEnv := map[string]string{
		"PORT":              os.Getenv("PORT"),
		"DATABASE_URL":      os.Getenv("DATABASE_URL"),
		"REDIS_URL":         os.Getenv("REDIS_URL"),
		"JWT_SECRET":        os.Getenv("JWT_SECRET"),
		"TOKEN_TTL_MINUTES": os.Getenv("TOKEN_TTL_MINUTES"),
		"ORG_TIMEZONE":      os.Getenv("ORG_TIMEZONE"),
		"LOG_LEVEL":         os.Getenv("LOG_LEVEL"),
		"SEED_SAMPLE_DATA":  os.Getenv("SEED_SAMPLE_DATA"),
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

	t.Run("loads config with defaults", func(t *testing.T) {
		os.Setenv("DATABASE_URL", "postgres://localhost/test")
		os.Setenv("REDIS_URL", "redis://localhost:6379")
		os.Setenv("JWT_SECRET", "test-secret")
		os.Unsetenv("PORT")
		os.Unsetenv("TOKEN_TTL_MINUTES")
		os.Unsetenv("ORG_TIMEZONE")
		os.Unsetenv("LOG_LEVEL")
		os.Unsetenv("SEED_SAMPLE_DATA")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 8080, cfg.Port)
		assert.Equal(t, "postgres://localhost/test", cfg.DatabaseURL)
		assert.Equal(t, 30, cfg.TokenTTLMinutes)
		assert.Equal(t, "", cfg.OrgTimezone)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.False(t, cfg.SeedSampleData)
	})

	t.Run("fails without required values", func(t *testing.T) {
		os.Unsetenv("DATABASE_URL")
		os.Setenv("REDIS_URL", "redis://localhost:6379")
		os.Setenv("JWT_SECRET", "test-secret")

		_, err := Load()
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	t.Run("rejects non-positive token ttl", func(t *testing.T) {
		cfg := &Config{TokenTTLMinutes: 0, JWTSecret: "x"}
		assert.Error(t, cfg.Validate(false))
	})

	t.Run("accepts short secret outside production", func(t *testing.T) {
		cfg := &Config{TokenTTLMinutes: 30, JWTSecret: "dev"}
		assert.NoError(t, cfg.Validate(false))
	})

	t.Run("rejects short secret in production", func(t *testing.T) {
		cfg := &Config{TokenTTLMinutes: 30, JWTSecret: "short"}
		assert.Error(t, cfg.Validate(true))
	})

	t.Run("rejects known weak secret in production", func(t *testing.T) {
		cfg := &Config{TokenTTLMinutes: 30, JWTSecret: "change-me-change-me-change-me-change-me"}
		assert.NoError(t, cfg.Validate(true))

		cfg.JWTSecret = "password"
		assert.Error(t, cfg.Validate(true))
	})
}
