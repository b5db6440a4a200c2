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
	assert.Equal(t, "clover-api", cfg.AppName)
	assert.Equal(t, 3004, cfg.Port)
	assert.Equal(t, time.Hour, cfg.RunLockTTL)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Empty(t, cfg.Products)
	assert.Empty(t, cfg.OTLP().Endpoint)
	assert.Equal(t, "grpc", cfg.OTLP().Protocol)

	opts := cfg.RunOptions()
	assert.True(t, opts.StrictEmail)
	assert.True(t, opts.Individuals.OnlyEmployees)
	assert.False(t, opts.Individuals.OnlyPhysisch)
	assert.NoError(t, opts.Validate())
}

func TestLoad_Environment(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("KAFKA_BROKERS=k1:9092,k2:9092\nPARTNER_PATHS=BAFU:bafu.csv,BFE:bfe.csv\n"), 0o600))
	t.Setenv("PRODUCTS", "FDA,Einzelnummer")
	t.Setenv("ONLY_PHYSISCH", "true")
	t.Setenv("KAFKA_BATCH_TIMEOUT_MS", "250")
	t.Cleanup(func() {
		os.Unsetenv("KAFKA_BROKERS")
		os.Unsetenv("PARTNER_PATHS")
	})

	cfg, err := Load(envFile)

	require.NoError(t, err)
	assert.Equal(t, []string{"FDA", "Einzelnummer"}, cfg.Products)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka().Brokers)
	assert.Equal(t, 250*time.Millisecond, cfg.Kafka().BatchTimeout)
	assert.Equal(t, map[string]string{"BAFU": "bafu.csv", "BFE": "bfe.csv"}, cfg.Tables().Partners)
	assert.True(t, cfg.RunOptions().Individuals.OnlyPhysisch)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("LOG_LEVEL", "loud")

	_, err := Load()
	assert.ErrorContains(t, err, "invalid config")
}
