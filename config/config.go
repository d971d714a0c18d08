// Package config loads runtime settings from flags, environment and defaults.
//
// Environment variables use the TODOS_ prefix with dots replaced by
// underscores, so database.dsn is read from TODOS_DATABASE_DSN. DATABASE_URL
// is accepted as a fallback for the store DSN.
package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/goliatone/go-todos/cache"
	"github.com/goliatone/go-todos/logging"
	"github.com/goliatone/go-todos/store"
)

// EnvPrefix is prepended to every environment variable.
const EnvPrefix = "TODOS"

// Keys recognized by Load.
const (
	KeyDatabaseDSN   = "database.dsn"
	KeyServerAddr    = "server.addr"
	KeyLogLevel      = "log.level"
	KeyLogFormat     = "log.format"
	KeyCacheEnabled  = "cache.enabled"
	KeyCacheCapacity = "cache.capacity"
	KeyCacheShards   = "cache.shards"
)

// Config is the resolved application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Cache    CacheConfig    `mapstructure:"cache"`
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type CacheConfig struct {
	Enabled  bool `mapstructure:"enabled"`
	Capacity int  `mapstructure:"capacity"`
	Shards   int  `mapstructure:"shards"`
}

// New returns a viper instance with defaults and environment binding set up.
// Callers may bind flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()

	cacheDefaults := cache.DefaultConfig()
	v.SetDefault(KeyDatabaseDSN, store.DefaultDSN)
	v.SetDefault(KeyServerAddr, ":8080")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, logging.FormatJSON)
	v.SetDefault(KeyCacheEnabled, true)
	v.SetDefault(KeyCacheCapacity, cacheDefaults.Capacity)
	v.SetDefault(KeyCacheShards, cacheDefaults.NumShards)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// BindEnv with explicit names replaces the prefixed default, so list both.
	_ = v.BindEnv(KeyDatabaseDSN, EnvPrefix+"_DATABASE_DSN", "DATABASE_URL")

	return v
}

// Load decodes v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the fields that cannot be defaulted.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.DSN) == "" {
		return errors.New("config: database.dsn is required")
	}
	if c.Server.Addr == "" {
		return errors.New("config: server.addr is required")
	}
	if !logging.KnownLevel(c.Log.Level) {
		return errors.Errorf("config: unknown log.level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case logging.FormatJSON, logging.FormatText:
	default:
		return errors.Errorf("config: unknown log.format %q", c.Log.Format)
	}
	if c.Cache.Enabled {
		if err := c.CacheSettings().Validate(); err != nil {
			return errors.Wrap(err, "config: cache")
		}
	}
	return nil
}

// CacheSettings maps the cache section onto cache.Config. The entry TTL stays
// at its default.
func (c *Config) CacheSettings() cache.Config {
	cfg := cache.DefaultConfig()
	cfg.Capacity = c.Cache.Capacity
	cfg.NumShards = c.Cache.Shards
	return cfg
}

// LogSettings maps the log section onto logging.Config.
func (c *Config) LogSettings() logging.Config {
	return logging.Config{Level: c.Log.Level, Format: c.Log.Format}
}
