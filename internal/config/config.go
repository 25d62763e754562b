package config

import "time"

type Config interface {
	EnvConfig
	ClientConfig
	StoreConfig
}

type EnvConfig interface {
	GetEnv() string
	GetAppName() string
	GetLogLevel() string
	GetMetricsEnabled() bool
}

type ClientConfig interface {
	GetBaseURL() string
	GetTimeout() time.Duration
	GetSingleFlightRefresh() bool
}

type StoreConfig interface {
	GetStoreBackend() string
	GetStorePath() string
	GetStorePassphrase() string
	GetRedisAddr() string
	GetRedisPrefix() string
	GetRefreshTokenTTL() time.Duration
	GetSQLitePath() string
}

// Settings is the on-disk / environment shape of the configuration.
type Settings struct {
	Env      string          `mapstructure:"env" validate:"required"`
	AppName  string          `mapstructure:"app_name"`
	LogLevel string          `mapstructure:"log_level" validate:"omitempty,oneof=trace debug info warn error"`
	API      APISettings     `mapstructure:"api"`
	Store    StoreSettings   `mapstructure:"store"`
	Metrics  MetricsSettings `mapstructure:"metrics"`
}

type APISettings struct {
	BaseURL             string        `mapstructure:"base_url" validate:"required,url"`
	Timeout             time.Duration `mapstructure:"timeout" validate:"gte=0"`
	SingleFlightRefresh bool          `mapstructure:"single_flight_refresh"`
}

type StoreSettings struct {
	Backend     string        `mapstructure:"backend" validate:"required,oneof=file redis sqlite memory"`
	Path        string        `mapstructure:"path" validate:"required_if=Backend file"`
	Passphrase  string        `mapstructure:"passphrase"`
	RedisAddr   string        `mapstructure:"redis_addr" validate:"required_if=Backend redis"`
	RedisPrefix string        `mapstructure:"redis_prefix"`
	RefreshTTL  time.Duration `mapstructure:"refresh_ttl" validate:"gte=0"`
	SQLitePath  string        `mapstructure:"sqlite_path" validate:"required_if=Backend sqlite"`
}

type MetricsSettings struct {
	Enabled bool `mapstructure:"enabled"`
}

type mainConfig struct {
	settings Settings
}

var _ Config = mainConfig{}

// New wraps already validated settings.
func New(s Settings) Config {
	return mainConfig{settings: s}
}

func (c mainConfig) GetEnv() string                    { return c.settings.Env }
func (c mainConfig) GetAppName() string                { return c.settings.AppName }
func (c mainConfig) GetLogLevel() string               { return c.settings.LogLevel }
func (c mainConfig) GetMetricsEnabled() bool           { return c.settings.Metrics.Enabled }
func (c mainConfig) GetBaseURL() string                { return c.settings.API.BaseURL }
func (c mainConfig) GetTimeout() time.Duration         { return c.settings.API.Timeout }
func (c mainConfig) GetSingleFlightRefresh() bool      { return c.settings.API.SingleFlightRefresh }
func (c mainConfig) GetStoreBackend() string           { return c.settings.Store.Backend }
func (c mainConfig) GetStorePath() string              { return c.settings.Store.Path }
func (c mainConfig) GetStorePassphrase() string        { return c.settings.Store.Passphrase }
func (c mainConfig) GetRedisAddr() string              { return c.settings.Store.RedisAddr }
func (c mainConfig) GetRedisPrefix() string            { return c.settings.Store.RedisPrefix }
func (c mainConfig) GetRefreshTokenTTL() time.Duration { return c.settings.Store.RefreshTTL }
func (c mainConfig) GetSQLitePath() string             { return c.settings.Store.SQLitePath }
