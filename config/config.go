// Package config loads application settings from an optional file and
// NOVELBIT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// NOVELBIT_SERVER_PORT or NOVELBIT_STORAGE_DSN.
const EnvPrefix = "NOVELBIT"

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Log         LogConfig         `mapstructure:"log"`
	RateLimit   RateLimitConfig   `mapstructure:"ratelimit"`
	Autosave    AutosaveConfig    `mapstructure:"autosave"`
	Fingerprint FingerprintConfig `mapstructure:"fingerprint"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string `mapstructure:"host"` // default: "127.0.0.1"
	Port int    `mapstructure:"port"` // default: 3000
	Mode string `mapstructure:"mode"` // "debug", "release", "test"; default: "release"
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StorageConfig selects the backing store.
type StorageConfig struct {
	Dialect  string        `mapstructure:"dialect"`  // sqlite, postgres or mongodb
	DSN      string        `mapstructure:"dsn"`      // driver DSN or MongoDB URI
	Database string        `mapstructure:"database"` // MongoDB only
	Timeout  time.Duration `mapstructure:"timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json or text
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"rps"`
	Burst             int     `mapstructure:"burst"`
}

type AutosaveConfig struct {
	Workers int `mapstructure:"workers"`
	Queue   int `mapstructure:"queue"`
}

type FingerprintConfig struct {
	Base         float64 `mapstructure:"base"`
	Buckets      int     `mapstructure:"buckets"`
	LegacyPrefix bool    `mapstructure:"legacy_prefix"`
	MaxRunes     int     `mapstructure:"max_runes"` // default: 10000; 0 disables the limit
	// Remote, when set, is the base URL of a novelbit server that computes
	// fingerprints instead of this process.
	Remote string `mapstructure:"remote"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.mode", "release")

	v.SetDefault("storage.dialect", "sqlite")
	v.SetDefault("storage.dsn", "file:novelbit.db")
	v.SetDefault("storage.database", "novelbit")
	v.SetDefault("storage.timeout", 10*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("ratelimit.rps", 20.0)
	v.SetDefault("ratelimit.burst", 40)

	v.SetDefault("autosave.workers", 4)
	v.SetDefault("autosave.queue", 256)

	v.SetDefault("fingerprint.base", 5.5)
	v.SetDefault("fingerprint.buckets", 50)
	v.SetDefault("fingerprint.legacy_prefix", false)
	v.SetDefault("fingerprint.max_runes", 10000)
	v.SetDefault("fingerprint.remote", "")
}

// Load reads configPath when given, otherwise looks for novelbit.{yaml,toml,json}
// in the working directory. A missing default file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	} else {
		v.SetConfigName("novelbit")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch strings.ToLower(c.Storage.Dialect) {
	case "sqlite", "postgres", "mongodb":
	default:
		return fmt.Errorf("storage.dialect must be sqlite, postgres or mongodb, got %q", c.Storage.Dialect)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text, got %q", c.Log.Format)
	}
	if c.Fingerprint.Buckets <= 0 {
		return fmt.Errorf("fingerprint.buckets must be positive, got %d", c.Fingerprint.Buckets)
	}
	if c.Fingerprint.MaxRunes < 0 {
		return fmt.Errorf("fingerprint.max_runes must not be negative, got %d", c.Fingerprint.MaxRunes)
	}
	if c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0 {
		return errors.New("ratelimit.rps and ratelimit.burst must be positive")
	}
	return nil
}
