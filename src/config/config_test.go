package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const validYAML = `
name: trading-backend
host: 127.0.0.1
port: 8080
grpc_port: 9090
storage:
  db_type: sqlite
  db_path: ":memory:"
network:
  timeout: 5
  retries: 2
market_data:
  token: yaml-token
  update_interval_seconds: 60
  daily_list: [AAPL, MSFT]
`

func TestParseAppliesDefaults(t *testing.T) {
	// Act
	cfg, err := Parse([]byte(validYAML))

	// Assert
	require.NoError(t, err)
	require.Equal(t, "INFO", cfg.LogLevel)
	require.Equal(t, "INFO", cfg.Logging.Level)
	require.Equal(t, defaultIexBaseURL, cfg.MarketData.BaseURL)
	require.Equal(t, "xnys", cfg.MarketData.CalendarMIC)
	require.Equal(t, 5, cfg.Network.BreakerMaxFailures)
	require.Equal(t, []string{"AAPL", "MSFT"}, cfg.MarketData.DailyList)
}

func TestParseEnvironmentOverrides(t *testing.T) {
	// Arrange
	t.Setenv(EnvIexToken, "env-token")
	t.Setenv(EnvIexBaseURL, "http://localhost:9999/")
	t.Setenv(EnvDBType, "postgres")
	t.Setenv(EnvDBConnStr, "postgres://u:p@localhost/db?sslmode=disable")

	// Act
	cfg, err := Parse([]byte(validYAML))

	// Assert
	require.NoError(t, err)
	require.Equal(t, "env-token", cfg.MarketData.Token)
	require.Equal(t, "http://localhost:9999", cfg.MarketData.BaseURL)
	require.Equal(t, "postgres", cfg.Storage.DBType)
	require.Equal(t, "public", cfg.Storage.Schema)
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(c *Config){
		"empty name":        func(c *Config) { c.Name = "" },
		"low port":          func(c *Config) { c.Port = 80 },
		"grpc on http port": func(c *Config) { c.GrpcPort = c.Port },
		"unknown db":        func(c *Config) { c.Storage.DBType = "oracle" },
		"sqlite no path":    func(c *Config) { c.Storage.DBPath = "" },
		"no timeout":        func(c *Config) { c.Network.RequestTimeout = 0 },
		"negative retries":  func(c *Config) { c.Network.MaxRetries = -1 },
		"no token":          func(c *Config) { c.MarketData.Token = "" },
		"no interval":       func(c *Config) { c.MarketData.UpdateIntervalSeconds = 0 },
		"blank ticker":      func(c *Config) { c.MarketData.DailyList = []string{"AAPL", " "} },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg, err := Parse([]byte(validYAML))
			require.NoError(t, err)

			mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestNewConfigAndSaveRoundTrip(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validYAML), 0644))

	// Act
	cfg, err := NewConfig(path)
	require.NoError(t, err)
	cfg.MarketData.DailyList = append(cfg.MarketData.DailyList, "AMZN")
	require.NoError(t, cfg.Save(path))
	reloaded, err := NewConfig(path)

	// Assert
	require.NoError(t, err)
	require.Equal(t, []string{"AAPL", "MSFT", "AMZN"}, reloaded.MarketData.DailyList)
}

func TestNewConfigMissingFile(t *testing.T) {
	_, err := NewConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
