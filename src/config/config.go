package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"trading-backend/src/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the YAML file
const (
	EnvIexToken   = "IEX_PUB_TOKEN"
	EnvIexBaseURL = "IEX_BASE_URL"
	EnvDBType     = "DB_TYPE"
	EnvDBPath     = "DB_PATH"
	EnvDBConnStr  = "DB_CONNECTION_STRING"
)

const defaultIexBaseURL = "https://cloud.iexapis.com/v1"

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new MConfig instance from YAML file.
// A .env file next to the working directory is loaded first when present.
func NewConfig(configPath string) (*Config, error) {
	// 1. Load .env (optional)
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	// 2. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	return Parse(data)
}

// -----------------------------------------------------------------------------

// Parse builds a validated Config from YAML bytes and the process environment.
func Parse(data []byte) (*Config, error) {
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}
	config.applyEnv()
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvIexToken); v != "" {
		c.MarketData.Token = v
	}
	if v := os.Getenv(EnvIexBaseURL); v != "" {
		c.MarketData.BaseURL = v
	}
	if v := os.Getenv(EnvDBType); v != "" {
		c.Storage.DBType = v
	}
	if v := os.Getenv(EnvDBPath); v != "" {
		c.Storage.DBPath = v
	}
	if v := os.Getenv(EnvDBConnStr); v != "" {
		c.Storage.DBConnectionString = v
	}
}

// -----------------------------------------------------------------------------

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "INFO"
	}
	c.Logging.Level = c.LogLevel

	if c.MarketData.BaseURL == "" {
		c.MarketData.BaseURL = defaultIexBaseURL
	}
	c.MarketData.BaseURL = strings.TrimRight(c.MarketData.BaseURL, "/")
	if c.MarketData.CalendarMIC == "" {
		c.MarketData.CalendarMIC = "xnys"
	}
	if c.Storage.DBType == "postgres" && c.Storage.Schema == "" {
		c.Storage.Schema = "public"
	}
	if c.Network.BreakerMaxFailures == 0 {
		c.Network.BreakerMaxFailures = 5
	}
	if c.Network.BreakerCooldownSecs == 0 {
		c.Network.BreakerCooldownSecs = 30
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	// Validate App configuration (Flattened)
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	// Validate Server configuration (Flattened)
	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}
	if c.GrpcPort != 0 && (c.GrpcPort <= 1024 || c.GrpcPort > 65535 || c.GrpcPort == c.Port) {
		return fmt.Errorf("invalid grpc port number: %d", c.GrpcPort)
	}

	// Validate Storage configuration
	switch c.Storage.DBType {
	case "sqlite":
		if c.Storage.DBPath == "" {
			return fmt.Errorf("database path cannot be empty for sqlite")
		}
	case "postgres":
		if c.Storage.DBConnectionString == "" {
			return fmt.Errorf("database connection string cannot be empty for postgres")
		}
	case "":
		return fmt.Errorf("database type cannot be empty")
	default:
		return fmt.Errorf("unsupported database type: %s", c.Storage.DBType)
	}

	// Validate Network configuration
	if c.Network.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be greater than 0")
	}
	if c.Network.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.Network.BreakerMaxFailures < 0 || c.Network.BreakerCooldownSecs < 0 {
		return fmt.Errorf("circuit breaker settings cannot be negative")
	}

	// Validate MarketData configuration
	if c.MarketData.Token == "" {
		return fmt.Errorf("market data token cannot be empty (set %s)", EnvIexToken)
	}
	if c.MarketData.UpdateIntervalSeconds <= 0 {
		return fmt.Errorf("update interval must be greater than 0")
	}
	for i, ticker := range c.MarketData.DailyList {
		if strings.TrimSpace(ticker) == "" {
			return fmt.Errorf("daily list entry %d cannot be empty", i)
		}
	}

	return nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	// 1. Marshal the struct to YAML
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	// 2. Write to file (0644 permissions)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
