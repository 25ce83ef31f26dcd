package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `json:"server"    envPrefix:"ASKQL_"`
	Database  DatabaseConfig  `json:"database"  envPrefix:"ASKQL_"`
	Vector    VectorConfig    `json:"vector"    envPrefix:"ASKQL_"`
	Generator GeneratorConfig `json:"generator" envPrefix:"ASKQL_"`
	Retriever RetrieverConfig `json:"retriever" envPrefix:"ASKQL_"`
	Logging   LoggingConfig   `json:"logging"   envPrefix:"ASKQL_"`
}

// ServerConfig represents the inbound HTTP API configuration
type ServerConfig struct {
	Host            string `json:"host"             env:"HOST"             envDefault:"127.0.0.1"`
	Port            int    `json:"port"             env:"PORT"             envDefault:"8000"`
	ShutdownTimeout string `json:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// DatabaseConfig represents the demo relational database configuration
type DatabaseConfig struct {
	Path         string `json:"path"          env:"DB_PATH"       envDefault:"askql.db"`
	QueryTimeout string `json:"query_timeout" env:"DB_TIMEOUT"    envDefault:"30s"`
	Seed         bool   `json:"seed"          env:"DB_SEED"       envDefault:"true"`
	SampleRows   int    `json:"sample_rows"   env:"DB_SAMPLE_ROWS" envDefault:"3"`
}

// VectorConfig represents the vector store (Qdrant) configuration
type VectorConfig struct {
	URL        string `json:"url"        env:"VECTOR_URL"        envDefault:"http://localhost:6333"`
	Collection string `json:"collection" env:"VECTOR_COLLECTION" envDefault:"database_schema"`
	Dimensions int    `json:"dimensions" env:"VECTOR_DIMENSIONS" envDefault:"384"`
	Timeout    string `json:"timeout"    env:"VECTOR_TIMEOUT"    envDefault:"10s"`
}

// GeneratorConfig represents the external SQL generation service configuration
type GeneratorConfig struct {
	URL             string `json:"url"              env:"GENERATOR_URL"              envDefault:"http://localhost:8001"`
	Timeout         string `json:"timeout"          env:"GENERATOR_TIMEOUT"          envDefault:"30s"`
	TrainingTimeout string `json:"training_timeout" env:"GENERATOR_TRAINING_TIMEOUT" envDefault:"60s"`
	MaxRetries      int    `json:"max_retries"      env:"GENERATOR_MAX_RETRIES"      envDefault:"3"`
}

// RetrieverConfig represents context retrieval tuning
type RetrieverConfig struct {
	Limit int `json:"limit" env:"RETRIEVER_LIMIT" envDefault:"10"`
	// ScoreFloor is intentionally near zero: the heuristic embedding is
	// weak, and a strict threshold would starve the generator of context.
	ScoreFloor float64 `json:"score_floor" env:"RETRIEVER_SCORE_FLOOR" envDefault:"0.01"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `json:"level"  env:"LOG_LEVEL"  envDefault:"info"`   // debug, info, warn, error
	Format string `json:"format" env:"LOG_FORMAT" envDefault:"text"`   // text, json
	Output string `json:"output" env:"LOG_OUTPUT" envDefault:"stdout"` // stdout, stderr
}

// DefaultConfig returns the configuration with all defaults applied
// and no file or environment overrides.
func DefaultConfig() *Config {
	config := &Config{}
	if err := env.ParseWithOptions(config, env.Options{
		Environment: map[string]string{},
	}); err != nil {
		// Defaults are static struct tags; parsing them cannot fail.
		panic(fmt.Sprintf("config defaults: %v", err))
	}

	return config
}

// LoadConfig loads configuration from file then environment variables
func LoadConfig() (*Config, error) {
	config := &Config{}

	configPath := getConfigPath()
	if _, err := os.Stat(configPath); err == nil {
		if err := loadConfigFromFile(config, configPath); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// Environment overrides and defaults come from the env library.
	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// loadConfigFromFile loads configuration from a JSON file
func loadConfigFromFile(config *Config, configPath string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fileConfig Config
	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	mergeConfigs(config, &fileConfig)

	return nil
}

// mergeConfigs merges source configuration into target configuration
func mergeConfigs(target, source *Config) {
	var mergeValues func(t, s reflect.Value)
	mergeValues = func(t, s reflect.Value) {
		if t.Kind() != s.Kind() {
			return
		}

		if t.Kind() == reflect.Struct {
			for i := 0; i < s.NumField(); i++ {
				mergeValues(t.Field(i), s.Field(i))
			}
		} else if s.Kind() == reflect.Bool {
			t.Set(s)
		} else if !s.IsZero() {
			t.Set(s)
		}
	}

	mergeValues(reflect.ValueOf(target).Elem(), reflect.ValueOf(source).Elem())
}

// validateConfig validates the configuration for common errors
func validateConfig(config *Config) error {
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf(
			"invalid log level: %s (must be debug, info, warn, or error)",
			config.Logging.Level,
		)
	}

	validLogFormats := map[string]bool{
		"text": true, "json": true,
	}
	if !validLogFormats[strings.ToLower(config.Logging.Format)] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", config.Logging.Format)
	}

	validLogOutputs := map[string]bool{
		"stdout": true, "stderr": true,
	}
	if !validLogOutputs[strings.ToLower(config.Logging.Output)] {
		return fmt.Errorf("invalid log output: %s (must be stdout or stderr)", config.Logging.Output)
	}

	for name, value := range map[string]string{
		"database query timeout":     config.Database.QueryTimeout,
		"vector store timeout":       config.Vector.Timeout,
		"generator timeout":          config.Generator.Timeout,
		"generator training timeout": config.Generator.TrainingTimeout,
		"server shutdown timeout":    config.Server.ShutdownTimeout,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s: %s", name, value)
		}
	}

	if config.Vector.Dimensions <= 0 {
		return fmt.Errorf("vector dimensions must be positive: %d", config.Vector.Dimensions)
	}

	if config.Retriever.Limit <= 0 {
		return fmt.Errorf("retriever limit must be positive: %d", config.Retriever.Limit)
	}

	if config.Generator.MaxRetries < 0 {
		return fmt.Errorf("generator max retries cannot be negative: %d", config.Generator.MaxRetries)
	}

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	return nil
}

// getConfigPath returns the path to the configuration file
func getConfigPath() string {
	if configPath := os.Getenv("ASKQL_CONFIG"); configPath != "" {
		return configPath
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}

	return filepath.Join(homeDir, ".config", "askql", "config.json")
}

// QueryTimeout returns the parsed database query timeout
func (c *DatabaseConfig) QueryTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.QueryTimeout)
	if err != nil {
		return 30 * time.Second
	}

	return d
}

// TimeoutDuration returns the parsed generation call timeout
func (c *GeneratorConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}

	return d
}

// TrainingTimeoutDuration returns the parsed one-time training timeout
func (c *GeneratorConfig) TrainingTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.TrainingTimeout)
	if err != nil {
		return 60 * time.Second
	}

	return d
}

// TimeoutDuration returns the parsed vector store call timeout
func (c *VectorConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 10 * time.Second
	}

	return d
}

// Addr returns the host:port pair the HTTP server binds to
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
