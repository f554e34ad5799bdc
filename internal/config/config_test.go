package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithNoConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 1<<16, cfg.RingCapacity)
	assert.Equal(t, 1<<14, cfg.QueueCapacity)
	assert.Contains(t, cfg.Venues, "binance")
	assert.Contains(t, cfg.Venues, "okx")
	assert.Equal(t, 30, cfg.Venues["binance"].PingIntervalSec)
}

func TestLoad_EnvOverridesCredentials(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("BINANCE_API_KEY", "test-key")
	t.Setenv("BINANCE_SECRET_KEY", "test-secret")
	t.Setenv("BINANCE_TESTNET", "true")

	cfg, err := Load(dir)
	require.NoError(t, err)

	bn := cfg.Venues["binance"]
	assert.Equal(t, "test-key", bn.APIKey)
	assert.Equal(t, "test-secret", bn.SecretKey)
	assert.True(t, bn.Testnet)
}

func TestLoad_GlobalTestnetAppliesToAllVenues(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TESTNET", "true")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.True(t, cfg.Venues["binance"].Testnet)
	assert.True(t, cfg.Venues["okx"].Testnet)
}

func TestLoad_ConfigFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	content := []byte("ring_capacity: 1024\nqueue_capacity: 512\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 1024, cfg.RingCapacity)
	assert.Equal(t, 512, cfg.QueueCapacity)
}

func TestSplitProxyURL(t *testing.T) {
	host, port := splitProxyURL("http://localhost:7890")
	assert.Equal(t, "localhost", host)
	assert.Equal(t, 7890, port)
}
