package models

// MConfig Structure
type MConfig struct {
	Name       string            `yaml:"name"`
	Host       string            `yaml:"host"`
	Port       int               `yaml:"port"`
	LogLevel   string            `yaml:"log_level"`
	GrpcHost   string            `yaml:"grpc_host"`
	GrpcPort   int               `yaml:"grpc_port"`
	Logging    MLoggingConfig    `yaml:"logging"`
	Storage    MStorageConfig    `yaml:"storage"`
	Network    MNetworkConfig    `yaml:"network"`
	MarketData MMarketDataConfig `yaml:"market_data"`
}

type MLoggingConfig struct {
	Level      string `yaml:"-"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type"`
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
	Schema             string `yaml:"schema"`
}

type MNetworkConfig struct {
	RequestTimeout      int    `yaml:"timeout"`
	MaxRetries          int    `yaml:"retries"`
	UserAgent           string `yaml:"user_agent"`
	BreakerMaxFailures  int    `yaml:"breaker_max_failures"`
	BreakerCooldownSecs int    `yaml:"breaker_cooldown_seconds"`
}

type MMarketDataConfig struct {
	BaseURL               string   `yaml:"base_url"`
	Token                 string   `yaml:"token"`
	UpdateIntervalSeconds int      `yaml:"update_interval_seconds"`
	OnlyWhenMarketOpen    bool     `yaml:"only_when_market_open"`
	CalendarMIC           string   `yaml:"calendar_mic"`
	DailyList             []string `yaml:"daily_list"`
}
