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

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "askql.db", cfg.Database.Path)
	assert.Equal(t, "30s", cfg.Database.QueryTimeout)
	assert.True(t, cfg.Database.Seed)
	assert.Equal(t, 3, cfg.Database.SampleRows)
	assert.Equal(t, "http://localhost:6333", cfg.Vector.URL)
	assert.Equal(t, "database_schema", cfg.Vector.Collection)
	assert.Equal(t, 384, cfg.Vector.Dimensions)
	assert.Equal(t, "http://localhost:8001", cfg.Generator.URL)
	assert.Equal(t, 3, cfg.Generator.MaxRetries)
	assert.Equal(t, 10, cfg.Retriever.Limit)
	assert.InDelta(t, 0.01, cfg.Retriever.ScoreFloor, 1e-9)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "127.0.0.1:8000", cfg.Server.Addr())
}

func TestLoadConfigFromFile(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.json")

	testConfig := map[string]interface{}{
		"database": map[string]interface{}{
			"path":          "/custom/path/app.db",
			"query_timeout": "60s",
		},
		"vector": map[string]interface{}{
			"url":        "http://qdrant:6333",
			"collection": "schema_v2",
		},
		"logging": map[string]interface{}{
			"level":  "debug",
			"format": "json",
		},
	}

	data, err := json.MarshalIndent(testConfig, "", "  ")
	require.NoError(t, err)

	err = os.WriteFile(configPath, data, 0600)
	require.NoError(t, err)

	config := DefaultConfig()
	err = loadConfigFromFile(config, configPath)
	require.NoError(t, err)

	assert.Equal(t, "/custom/path/app.db", config.Database.Path)
	assert.Equal(t, "60s", config.Database.QueryTimeout)
	assert.Equal(t, "http://qdrant:6333", config.Vector.URL)
	assert.Equal(t, "schema_v2", config.Vector.Collection)
	assert.Equal(t, "debug", config.Logging.Level)
	assert.Equal(t, "json", config.Logging.Format)
	// Untouched values keep their defaults.
	assert.Equal(t, 384, config.Vector.Dimensions)
	assert.Equal(t, "http://localhost:8001", config.Generator.URL)
}

func TestLoadConfigFromFileInvalidJSON(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.json")

	err := os.WriteFile(configPath, []byte("{not valid json"), 0600)
	require.NoError(t, err)

	config := DefaultConfig()
	err = loadConfigFromFile(config, configPath)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ASKQL_DB_PATH", "/tmp/env.db")
	t.Setenv("ASKQL_VECTOR_COLLECTION", "env_schema")
	t.Setenv("ASKQL_GENERATOR_MAX_RETRIES", "5")
	t.Setenv("ASKQL_LOG_LEVEL", "warn")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/env.db", cfg.Database.Path)
	assert.Equal(t, "env_schema", cfg.Vector.Collection)
	assert.Equal(t, 5, cfg.Generator.MaxRetries)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "valid defaults",
			mutate:  func(*Config) {},
			wantErr: "",
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "invalid log level",
		},
		{
			name:    "invalid log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "invalid log format",
		},
		{
			name:    "invalid timeout",
			mutate:  func(c *Config) { c.Generator.Timeout = "30 seconds" },
			wantErr: "invalid generator timeout",
		},
		{
			name:    "zero dimensions",
			mutate:  func(c *Config) { c.Vector.Dimensions = 0 },
			wantErr: "vector dimensions must be positive",
		},
		{
			name:    "zero retriever limit",
			mutate:  func(c *Config) { c.Retriever.Limit = 0 },
			wantErr: "retriever limit must be positive",
		},
		{
			name:    "negative retries",
			mutate:  func(c *Config) { c.Generator.MaxRetries = -1 },
			wantErr: "generator max retries cannot be negative",
		},
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "invalid server port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := validateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 30*time.Second, cfg.Database.QueryTimeoutDuration())
	assert.Equal(t, 30*time.Second, cfg.Generator.TimeoutDuration())
	assert.Equal(t, 60*time.Second, cfg.Generator.TrainingTimeoutDuration())
	assert.Equal(t, 10*time.Second, cfg.Vector.TimeoutDuration())

	// Unparseable strings fall back to defaults rather than panicking.
	cfg.Generator.Timeout = "bogus"
	assert.Equal(t, 30*time.Second, cfg.Generator.TimeoutDuration())
}
