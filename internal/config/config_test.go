package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "that-schedule.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, DefaultScheduleURL, cfg.ScheduleURL)
	assert.Equal(t, ".cache", cfg.CachePath)
	assert.Equal(t, "build", cfg.OutputDir)
	assert.Equal(t, InvalidateAll, cfg.Invalidate)
	assert.Equal(t, "h2.text-2xl", cfg.Selectors.Title)
	require.NoError(t, cfg.Validate())
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultOutputDir, cfg.OutputDir)
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, `
schedule_url: https://that.us/events/tx/2024/schedule/
cache_path: /tmp/that-cache
invalidate: changed
description_format: Markdown
timeout: 10s
selectors:
  description: .prose
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://that.us/events/tx/2024/schedule/", cfg.ScheduleURL)
	assert.Equal(t, "/tmp/that-cache", cfg.CachePath)
	assert.Equal(t, InvalidateChanged, cfg.Invalidate)
	assert.Equal(t, DescriptionMarkdown, cfg.DescriptionFormat)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, ".prose", cfg.Selectors.Description)
	// Unset values keep their defaults
	assert.Equal(t, "h2.text-2xl", cfg.Selectors.Title)
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	require.NoError(t, cfg.Validate())
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "reading config file")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "selectors: [unclosed"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parsing config file")
	})
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("THAT_OUTPUT_DIR", "public")
	t.Setenv("THAT_CACHE_PATH", "  ")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "public", cfg.OutputDir)
	assert.Equal(t, DefaultCachePath, cfg.CachePath, "blank env values are ignored")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(c *Config) {}},
		{name: "bad schedule url", mutate: func(c *Config) { c.ScheduleURL = "not a url" }, wantErr: "ScheduleURL"},
		{name: "unknown invalidation", mutate: func(c *Config) { c.Invalidate = "some" }, wantErr: "Invalidate"},
		{name: "unknown sort", mutate: func(c *Config) { c.Sort = "room" }, wantErr: "Sort"},
		{name: "empty cache path", mutate: func(c *Config) { c.CachePath = "" }, wantErr: "CachePath"},
		{name: "empty cache path without cache", mutate: func(c *Config) { c.CachePath = ""; c.NoCache = true }},
		{name: "empty output dir", mutate: func(c *Config) { c.OutputDir = "" }, wantErr: "OutputDir"},
		{name: "zero timeout", mutate: func(c *Config) { c.Timeout = 0 }, wantErr: "Timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateCron(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.ValidateCron())

	cfg.Cron = "*/15 * * * *"
	assert.NoError(t, cfg.ValidateCron())

	cfg.Cron = "every hour"
	assert.Error(t, cfg.ValidateCron())
}
