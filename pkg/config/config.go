package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the collector.
type Config struct {
	// Remote API settings
	API APIConfig `yaml:"api" json:"api"`

	// Search and pagination settings
	Search SearchConfig `yaml:"search" json:"search"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// APIConfig holds remote API configuration.
type APIConfig struct {
	BaseURL string `yaml:"base_url" json:"base_url"`
	// Archive selects the full-archive search endpoint instead of recent search.
	Archive bool          `yaml:"archive" json:"archive"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
	// BearerToken, when set, overrides the credential store.
	BearerToken string `yaml:"bearer_token" json:"bearer_token"`
}

// SearchConfig holds pagination and retry configuration.
type SearchConfig struct {
	// PageSize is the max_results value sent per request. Must be in [10, 500].
	PageSize int `yaml:"page_size" json:"page_size"`
	// Perseverance is the retry budget per request. 0 means unbounded.
	Perseverance int `yaml:"perseverance" json:"perseverance"`
	// SafetyMargin is subtracted from "now" when a window has no end time,
	// so queries never ask for data the remote has not indexed yet.
	SafetyMargin time.Duration `yaml:"safety_margin" json:"safety_margin"`
}

// OutputConfig holds persisted-store configuration.
type OutputConfig struct {
	// DataDirectory is where per-job CSV stores live.
	DataDirectory string `yaml:"data_directory" json:"data_directory"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "https://api.twitter.com",
			Archive: false,
			Timeout: 30 * time.Second,
		},
		Search: SearchConfig{
			PageSize:     500,
			Perseverance: 10,
			SafetyMargin: 30 * time.Second,
		},
		Output: OutputConfig{
			DataDirectory: "./data",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables.
func (c *Config) LoadFromEnv() error {
	if token := os.Getenv("TWEETARC_BEARER_TOKEN"); token != "" {
		c.API.BearerToken = token
	}
	if baseURL := os.Getenv("TWEETARC_BASE_URL"); baseURL != "" {
		c.API.BaseURL = baseURL
	}
	if pageSize := os.Getenv("TWEETARC_PAGE_SIZE"); pageSize != "" {
		if val, err := strconv.Atoi(pageSize); err == nil && val > 0 {
			c.Search.PageSize = val
		}
	}
	if perseverance := os.Getenv("TWEETARC_PERSEVERANCE"); perseverance != "" {
		if val, err := strconv.Atoi(perseverance); err == nil && val >= 0 {
			c.Search.Perseverance = val
		}
	}
	if dataDir := os.Getenv("TWEETARC_DATA_DIR"); dataDir != "" {
		c.Output.DataDirectory = dataDir
	}
	if logLevel := os.Getenv("TWEETARC_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file.
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // no config file, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for a config file in standard locations.
func (c *Config) findConfigFile() string {
	locations := []string{
		".tweetarc.yaml",
		".tweetarc.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "tweetarc", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".tweetarc.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []error

	if c.API.BaseURL == "" {
		errs = append(errs, errors.New("API base URL is required"))
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, errors.New("API timeout must be positive"))
	}

	if c.Search.PageSize < 10 || c.Search.PageSize > 500 {
		errs = append(errs, errors.New("page size must be between 10 and 500"))
	}
	if c.Search.Perseverance < 0 {
		errs = append(errs, errors.New("perseverance cannot be negative"))
	}
	if c.Search.SafetyMargin < 0 {
		errs = append(errs, errors.New("safety margin cannot be negative"))
	}

	if c.Output.DataDirectory == "" {
		errs = append(errs, errors.New("data directory is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeFlags merges command line flag values into the configuration.
func (c *Config) MergeFlags(flags map[string]interface{}) {
	if pageSize, ok := flags["page-size"].(int); ok && pageSize > 0 {
		c.Search.PageSize = pageSize
	}
	if perseverance, ok := flags["perseverance"].(int); ok && perseverance >= 0 {
		c.Search.Perseverance = perseverance
	}
	if dataDir, ok := flags["data-dir"].(string); ok && dataDir != "" {
		c.Output.DataDirectory = dataDir
	}
	if archive, ok := flags["archive"].(bool); ok {
		c.API.Archive = archive
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: flags > environment variables > .env file > config file > defaults.
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".tweetarc.env"))

	cfg := DefaultConfig()

	if err := cfg.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := cfg.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg.MergeFlags(flags)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}
