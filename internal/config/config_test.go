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
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 0, cfg.BreakerThreshold)
	assert.Equal(t, "apiblocks.runs", cfg.NATSSubject)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigin)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("REQUEST_TIMEOUT", "2s")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.HTTPAddr)
	assert.Equal(t, 2*time.Second, cfg.RequestTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigin)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apiblocks.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http_addr: \":7000\"\nlog_level: debug\n"), 0o644))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	t.Setenv("LOG_LEVEL", "verbose")
	_, err := Load("")
	require.Error(t, err)
}

func TestValidate_APIKeyMustBeBcrypt(t *testing.T) {
	t.Parallel()
	cfg := Config{HTTPAddr: ":1", LogLevel: "info", MaxBodyBytes: 1, APIKeyHash: "plain"}
	assert.Error(t, cfg.Validate())
	cfg.APIKeyHash = "$2a$10$abcdefghijklmnopqrstuv"
	assert.NoError(t, cfg.Validate())
}
