package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.False(t, cfg.Database.Enabled())
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, 5, cfg.Checkout.MaxAttempts)
	assert.Equal(t, 50*time.Millisecond, cfg.Checkout.BackoffStep)
	assert.Equal(t, "allow_negative", cfg.Checkout.StockPolicy)
	assert.Equal(t, "optimistic", cfg.Checkout.NumberStrategy)
	assert.Equal(t, 12*time.Hour, cfg.Redis.CartTTL)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.HTTP.CORSOrigins)
}

func TestLoad_EnvFileAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(
		"REDIS_ADDR=localhost:6379\nSTOCK_POLICY=reject_negative\nAPP_PORT=9000\n"), 0o600))
	t.Setenv("APP_PORT", "9100")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "reject_negative", cfg.Checkout.StockPolicy)
	assert.Equal(t, "9100", cfg.App.Port, "environment wins over the file")
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.HTTP.CORSOrigins)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"UnknownPolicy", map[string]string{"STOCK_POLICY": "clamp"}},
		{"NoAttempts", map[string]string{"CHECKOUT_MAX_ATTEMPTS": "0"}},
		{"AuthWithoutSecret", map[string]string{"AUTH_REQUIRED": "true"}},
		{"UnknownNumbering", map[string]string{"CHECKOUT_NUMBER_STRATEGY": "uuid"}},
		{"SequenceWithoutDatabase", map[string]string{"CHECKOUT_NUMBER_STRATEGY": "sequence"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoad_SequenceNumberingWithDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://pos@localhost/pos")
	t.Setenv("CHECKOUT_NUMBER_STRATEGY", "sequence")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sequence", cfg.Checkout.NumberStrategy)
}

func TestAppConfig_Location(t *testing.T) {
	loc, err := AppConfig{Timezone: "Asia/Jakarta"}.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Jakarta", loc.String())

	_, err = AppConfig{Timezone: "Mars/Base"}.Location()
	assert.Error(t, err)
}
