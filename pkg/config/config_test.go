package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, int64(25<<20), cfg.Server.MaxUploadBytes())
	assert.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "position", cfg.Fluctuation.YoYStrategy)
	assert.Equal(t, 0.4, cfg.Fluctuation.AmountDensity)
	assert.Equal(t, 2025, cfg.Fluctuation.YearThreshold)
	assert.Equal(t, "0 3 * * *", cfg.Storage.RetentionCron)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("AUTH_ENABLED", "false")
	t.Setenv("SERVER_ALLOWED_ORIGINS", "https://dash.example.com, https://admin.example.com,")
	t.Setenv("OI_YOY_STRATEGY", "date")
	t.Setenv("OI_AMOUNT_DENSITY", "0.6")
	t.Setenv("POSTGRES_PORT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"https://dash.example.com", "https://admin.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "date", cfg.Fluctuation.YoYStrategy)
	assert.Equal(t, 0.6, cfg.Fluctuation.AmountDensity)
	assert.Equal(t, 5432, cfg.Database.Port, "invalid numbers keep the default")
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing jwt secret", map[string]string{"AUTH_ENABLED": "true", "JWT_SECRET": ""}},
		{"unknown yoy strategy", map[string]string{"AUTH_ENABLED": "false", "OI_YOY_STRATEGY": "magic"}},
		{"density above one", map[string]string{"AUTH_ENABLED": "false", "OI_AMOUNT_DENSITY": "1.5"}},
		{"zero upload size", map[string]string{"AUTH_ENABLED": "false", "SERVER_MAX_UPLOAD_MB": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestDSN(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "sig", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=sig sslmode=disable", db.DSN())
}
