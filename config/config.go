package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

/* Config is read from a .env file (TOML) in the working directory, overridden by environment variables
 * A missing .env is fine, the defaults below and the environment are enough to run
 */

type Config struct {
	Port                 string `mapstructure:"PORT"`
	RedisAddr            string `mapstructure:"REDIS_ADDR"`
	RedisPassword        string `mapstructure:"REDIS_PASSWORD"`
	RedisDB              int    `mapstructure:"REDIS_DB"`
	PresetsFile          string `mapstructure:"PRESETS_FILE"`
	ProbeURL             string `mapstructure:"PROBE_URL"`
	ProbeIntervalSeconds int    `mapstructure:"PROBE_INTERVAL_SECONDS"`
	CachePrefix          string `mapstructure:"CACHE_PREFIX"`
	PricesTTLSeconds     int    `mapstructure:"PRICES_TTL_SECONDS"`
	LogLevel             string `mapstructure:"LOG_LEVEL"`
}

var defaults = map[string]any{
	"PORT":                   "8080",
	"REDIS_ADDR":             "localhost:6379",
	"REDIS_PASSWORD":         "",
	"REDIS_DB":               0,
	"PRESETS_FILE":           "presets.yaml",
	"PROBE_URL":              "https://api.coingecko.com/api/v3/ping",
	"PROBE_INTERVAL_SECONDS": 30,
	"CACHE_PREFIX":           "dmccrypto_cache_",
	"PRICES_TTL_SECONDS":     300,
	"LOG_LEVEL":              "info",
}

func GetConfig() (*Config, error) {
	return load(".")
}

func load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("toml")
	v.AddConfigPath(path)
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("parsing config data: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate rejects values the services cannot start with
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.ProbeIntervalSeconds < 1 {
		return fmt.Errorf("PROBE_INTERVAL_SECONDS must be at least 1 (got %d)", c.ProbeIntervalSeconds)
	}
	if c.PricesTTLSeconds < 1 {
		return fmt.Errorf("PRICES_TTL_SECONDS must be at least 1 (got %d)", c.PricesTTLSeconds)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	return nil
}

func (c *Config) ProbeInterval() time.Duration {
	return time.Duration(c.ProbeIntervalSeconds) * time.Second
}

func (c *Config) PricesTTL() time.Duration {
	return time.Duration(c.PricesTTLSeconds) * time.Second
}

// Level returns the configured zerolog level
func (c *Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
