package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/YallaPapi/pubscrape-sub002/internal/domain/errors"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "basic", cfg.Validation.Level)
	assert.True(t, cfg.Validation.EnableDNSCheck)
	assert.Equal(t, 5*time.Second, cfg.Validation.DNSTimeout)
	assert.Equal(t, 10, cfg.Validation.Concurrency)
	assert.Contains(t, cfg.Validation.TLDWhitelist, "co.uk")
	assert.Equal(t, 100*time.Millisecond, cfg.Verifier.RateLimitDelay)
	assert.Equal(t, 100, cfg.Verifier.BatchSize)
	assert.Equal(t, 0.8, cfg.Dedup.SimilarityThreshold)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
environment: production
log_level: warn
validation:
  validation_level: full
  concurrency: 25
  enable_dns_check: false
verifier:
  base_url: https://verify.example.com
  api_key: secret
dedup:
  similarity_threshold: 0.9
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "full", cfg.Validation.Level)
	assert.Equal(t, 25, cfg.Validation.Concurrency)
	assert.False(t, cfg.Validation.EnableDNSCheck)
	assert.Equal(t, "https://verify.example.com", cfg.Verifier.BaseURL)
	assert.Equal(t, 0.9, cfg.Dedup.SimilarityThreshold)

	// Untouched keys keep their defaults
	assert.Equal(t, 3, cfg.Verifier.MaxRetries)
	assert.Equal(t, time.Hour, cfg.Validation.CacheTTL)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, "log_level: warn\n")

	t.Setenv("PUBSCRAPE_LOG_LEVEL", "debug")
	t.Setenv("PUBSCRAPE_VALIDATION__CONCURRENCY", "4")
	t.Setenv("PUBSCRAPE_DEDUP__SIMILARITY_THRESHOLD", "0.75")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 4, cfg.Validation.Concurrency)
	assert.Equal(t, 0.75, cfg.Dedup.SimilarityThreshold)
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "unknown validation level",
			yaml: "validation:\n  validation_level: extreme\n",
		},
		{
			name: "zero concurrency",
			yaml: "validation:\n  concurrency: 0\n",
		},
		{
			name: "threshold above one",
			yaml: "dedup:\n  similarity_threshold: 1.5\n",
		},
		{
			name: "empty tld whitelist",
			yaml: "validation:\n  tld_whitelist: []\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfigFile(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "validating config")
			assert.True(t, domainerrors.IsType(err, domainerrors.ErrorTypeConfig))
		})
	}
}

func TestLoad_MissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestTLDSet_Lowercases(t *testing.T) {
	set := ValidationConfig{TLDWhitelist: []string{"COM", "co.UK"}}.TLDSet()
	_, ok := set["com"]
	assert.True(t, ok)
	_, ok = set["co.uk"]
	assert.True(t, ok)
	assert.Len(t, set, 2)
}
