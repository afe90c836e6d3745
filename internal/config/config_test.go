package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/form-scanner/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)

	assert.Equal(t, config.DefaultPort, cfg.Service.Port)
	assert.Equal(t, 3*time.Second, cfg.Scanner.ProbeTimeout)
	assert.Equal(t, 5*time.Second, cfg.Scanner.FetchTimeout)
	assert.Equal(t, int64(5*1024*1024), cfg.Scanner.MaxHTMLBytes)
	assert.Equal(t, 3, cfg.Scanner.MaxNeighborPages)
	assert.Equal(t, 500*time.Millisecond, cfg.Scanner.Debounce)
	assert.Equal(t, config.StoreBackendMemory, cfg.Store.Backend)
	assert.Equal(t, 7*24*time.Hour, cfg.Store.TTL)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_YAMLValues(t *testing.T) {
	path := writeConfig(t, `
service:
  port: 9000
scanner:
  probe_timeout: 1s
  max_neighbor_pages: 2
fetcher:
  respect_robots: true
store:
  backend: redis
  redis:
    address: redis:6379
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Service.Port)
	assert.Equal(t, time.Second, cfg.Scanner.ProbeTimeout)
	assert.Equal(t, 2, cfg.Scanner.MaxNeighborPages)
	assert.True(t, cfg.Fetcher.RespectRobots)
	assert.Equal(t, "redis:6379", cfg.Store.Redis.Address)
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	path := writeConfig(t, "scanner:\n  probe_timeout: 1s\n")
	t.Setenv("SCANNER_PROBE_TIMEOUT", "250ms")
	t.Setenv("FETCHER_ALLOW_PRIVATE_HOSTS", "yes")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, cfg.Scanner.ProbeTimeout)
	assert.True(t, cfg.Fetcher.AllowPrivateHosts)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_BadEnvValue(t *testing.T) {
	t.Setenv("SCANNER_DEBOUNCE", "soon")
	t.Setenv("REDIS_DB", "zero")

	_, err := config.Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SCANNER_DEBOUNCE")
	assert.Contains(t, err.Error(), "REDIS_DB")
}

func TestLoad_EnvFileOnly(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), "scanner.env")
	require.NoError(t, os.WriteFile(envFile, []byte("STORE_BACKEND=redis\nREDIS_ADDRESS=cache:6379\n"), 0o600))
	t.Setenv("ENV_FILE", envFile)
	t.Cleanup(func() {
		os.Unsetenv("STORE_BACKEND")
		os.Unsetenv("REDIS_ADDRESS")
	})

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.StoreBackendRedis, cfg.Store.Backend)
	assert.Equal(t, "cache:6379", cfg.Store.Redis.Address)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "service: [unclosed")

	_, err := config.Load(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*config.Config) {}},
		{name: "bad port", mutate: func(c *config.Config) { c.Service.Port = 70000 }, wantErr: true},
		{name: "unknown backend", mutate: func(c *config.Config) { c.Store.Backend = "disk" }, wantErr: true},
		{name: "redis without address", mutate: func(c *config.Config) {
			c.Store.Backend = config.StoreBackendRedis
			c.Store.Redis.Address = ""
		}, wantErr: true},
		{name: "negative pages", mutate: func(c *config.Config) { c.Scanner.MaxNeighborPages = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestGetConfigPath(t *testing.T) {
	assert.Equal(t, "config.yml", config.GetConfigPath("config.yml"))

	t.Setenv("CONFIG_PATH", "/etc/scanner.yml")
	assert.Equal(t, "/etc/scanner.yml", config.GetConfigPath("config.yml"))
}
