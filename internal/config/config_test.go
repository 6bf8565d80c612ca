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

	assert.Equal(t, "50051", cfg.GRPC.Port)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, []string{"*"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, int32(25), cfg.Database.MaxConns)
	assert.Equal(t, int32(5), cfg.Database.MinConns)
	assert.Equal(t, "payment.network", cfg.RabbitMQ.Exchange)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, 5*time.Minute, cfg.Redis.BankTTL)
	assert.Zero(t, cfg.Network.StageTimeout)
	assert.Equal(t, 2*time.Second, cfg.Network.PublishTimeout)
	assert.False(t, cfg.Network.CompensateCaptureFailure)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("GRPC_PORT", "6000")
	t.Setenv("DATABASE_MAX_CONNS", "40")
	t.Setenv("NETWORK_STAGE_TIMEOUT", "750ms")
	t.Setenv("NETWORK_COMPENSATE_CAPTURE_FAILURE", "true")
	t.Setenv("HTTP_CORS_ORIGINS", "https://a.example, ,https://b.example")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "6000", cfg.GRPC.Port)
	assert.Equal(t, int32(40), cfg.Database.MaxConns)
	assert.Equal(t, 750*time.Millisecond, cfg.Network.StageTimeout)
	assert.True(t, cfg.Network.CompensateCaptureFailure)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.CORSOrigins)
}

func TestLoad_EnvFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(file, []byte("HTTP_ADDR=:9999\nREDIS_ADDR=localhost:6379\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("HTTP_ADDR")
		os.Unsetenv("REDIS_ADDR")
	})

	cfg, err := Load(file)
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.HTTP.Addr)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{key: "DATABASE_MAX_CONNS", value: "many"},
		{key: "REDIS_DB", value: "x"},
		{key: "REDIS_BANK_TTL", value: "soon"},
		{key: "NETWORK_STAGE_TIMEOUT", value: "10"},
		{key: "NETWORK_COMPENSATE_CAPTURE_FAILURE", value: "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}
