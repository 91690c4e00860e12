package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseFile_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"endpoint_addr_grpc":              "www.example:9000",
		"metrics_addr":                    "",
		"database_dsn":                    "postgres://db",
		"secret_key":                      "my_secret_key",
		"issuer":                          "iss",
		"audience":                        "aud",
		"access_token_validity_duration":  "1m",
		"refresh_token_validity_duration": "72h",
		"sweep_interval":                  "30m",
		"sweep_retry_interval":            int64(time.Minute),
		"redis_addr":                      "redis:6379",
		"nats_url":                        "nats://nats:4222",
		"log_level":                       "warn",
		"log_format":                      "json",
	})

	t.Run("loads from json", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathFlag}

		cfg := &Config{MetricsAddr: ":9090"}
		require.NoError(t, parseFile(cfg))

		assert.Equal(t, "www.example:9000", cfg.EndpointAddrGRPC)
		assert.Empty(t, cfg.MetricsAddr)
		assert.Equal(t, "postgres://db", cfg.DatabaseDSN)
		assert.Equal(t, "my_secret_key", cfg.SecretKey)
		assert.Equal(t, "iss", cfg.Issuer)
		assert.Equal(t, "aud", cfg.Audience)
		assert.Equal(t, 1*time.Minute, cfg.AccessTokenValidityDuration)
		assert.Equal(t, 72*time.Hour, cfg.RefreshTokenValidityDuration)
		assert.Equal(t, 30*time.Minute, cfg.SweepInterval)
		assert.Equal(t, time.Minute, cfg.SweepRetryInterval)
		assert.Equal(t, "redis:6379", cfg.RedisAddr)
		assert.Equal(t, "nats://nats:4222", cfg.NatsURL)
		assert.Equal(t, "warn", cfg.LogLevel)
		assert.Equal(t, "json", cfg.LogFormat)
	})

	t.Run("no config flag, no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{}
		cfg.LoadDefaults()
		want := *cfg
		require.NoError(t, parseFile(cfg))
		assert.Equal(t, want, *cfg)
	})

	t.Run("partial file keeps other values", func(t *testing.T) {
		p := writeTempJSON(t, dir, "partial.json", map[string]any{"secret_key": "only"})
		os.Args = []string{"testbin", "-c", p}

		cfg := &Config{}
		cfg.LoadDefaults()
		require.NoError(t, parseFile(cfg))
		assert.Equal(t, "only", cfg.SecretKey)
		assert.Equal(t, time.Hour, cfg.SweepInterval)
		assert.Equal(t, ":9090", cfg.MetricsAddr)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		os.Args = []string{"testbin", "-config", bad}
		assert.Error(t, parseFile(&Config{}))
	})

	t.Run("missing file", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", filepath.Join(dir, "nope.json")}
		assert.ErrorContains(t, parseFile(&Config{}), "error reading config file")
	})
}

func Test_parseFile_YAML(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := filepath.Join(t.TempDir(), "bankauth.yaml")
	yml := `
endpoint_addr_grpc: ":6000"
database_dsn: memory
secret_key: yaml-secret
access_token_validity_duration: 20m
refresh_token_validity_duration: 240h
sweep_interval: 2h
sweep_retry_interval: 10m
log_format: json
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))
	os.Args = []string{"bankauth", "serve", "--config=" + path, "-s", "flag-secret"}

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":6000", cfg.EndpointAddrGRPC)
	assert.True(t, cfg.UsesMemoryStorage())
	assert.Equal(t, "flag-secret", cfg.SecretKey, "flags override the file")
	assert.Equal(t, 20*time.Minute, cfg.AccessTokenValidityDuration)
	assert.Equal(t, 240*time.Hour, cfg.RefreshTokenValidityDuration)
	assert.Equal(t, 2*time.Hour, cfg.SweepInterval)
	assert.Equal(t, 10*time.Minute, cfg.SweepRetryInterval)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.NoError(t, cfg.Validate())
}
