package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "zero max pages",
			mutate:  func(cfg *Config) { cfg.Feed.MaxPages = 0 },
			wantErr: "max pages",
		},
		{
			name:    "empty base url",
			mutate:  func(cfg *Config) { cfg.Feed.BaseURL = "" },
			wantErr: "base URL",
		},
		{
			name:    "invalid url format",
			mutate:  func(cfg *Config) { cfg.Feed.BaseURL = "http://" },
			wantErr: "base URL",
		},
		{
			name:    "negative page delay",
			mutate:  func(cfg *Config) { cfg.Feed.PageDelay = -time.Second },
			wantErr: "page delay",
		},
		{
			name:    "zero feed timeout",
			mutate:  func(cfg *Config) { cfg.Feed.Timeout = 0 },
			wantErr: "timeout",
		},
		{
			name:    "port out of range",
			mutate:  func(cfg *Config) { cfg.Service.Port = 70000 },
			wantErr: "port",
		},
		{
			name:    "non http pinger target",
			mutate:  func(cfg *Config) { cfg.Pinger.Targets = []string{"ftp://hooks.test/x"} },
			wantErr: "http or https",
		},
		{
			name:    "empty pinger schedule",
			mutate:  func(cfg *Config) { cfg.Pinger.Schedule = " " },
			wantErr: "schedule",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
	assert.Equal(t, 20, cfg.Feed.MaxPages)
	assert.Equal(t, 1500*time.Millisecond, cfg.Feed.PageDelay)
}

func TestLoadMergesFileAndEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yml")
	yml := `
service:
  port: 8080
feed:
  max_pages: 5
  page_delay: 250ms
pinger:
  targets:
    - https://hooks.test/a
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))
	t.Setenv("PORT", "9090")
	t.Setenv("PINGER_TARGETS", "https://hooks.test/b, https://hooks.test/c")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Service.Port)
	assert.Equal(t, 5, cfg.Feed.MaxPages)
	assert.Equal(t, 250*time.Millisecond, cfg.Feed.PageDelay)
	assert.Equal(t, []string{"https://hooks.test/b", "https://hooks.test/c"}, cfg.Pinger.Targets)
	assert.Equal(t, "24677475", cfg.Feed.AppKey, "untouched fields keep defaults")
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Feed, cfg.Feed)
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("FEED_MAX_PAGES=7\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("FEED_MAX_PAGES") })

	cfg, err := Load("config.yml")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Feed.MaxPages)
}

func TestDatabaseDSN(t *testing.T) {
	db := DatabaseConfig{URL: "postgres://u:p@db.test:5432/flash"}
	assert.Equal(t, "postgres://u:p@db.test:5432/flash?sslmode=require", db.DSN())

	db.URL = "postgres://u:p@db.test:5432/flash?sslmode=disable"
	assert.Equal(t, "postgres://u:p@db.test:5432/flash?sslmode=disable", db.DSN())

	db = DefaultConfig().Database
	assert.Equal(t, "host=localhost port=5432 user=postgres password= dbname=flashsale sslmode=disable", db.DSN())
}
