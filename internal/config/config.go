package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/viper"
)

type Config struct {
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
	Source struct {
		Kind       string `mapstructure:"kind"`
		Dir        string `mapstructure:"dir"`
		Image      string `mapstructure:"image"`
		CacheTiles int    `mapstructure:"cacheTiles"`
	} `mapstructure:"source"`
	Fetch struct {
		Workers int `mapstructure:"workers"`
	} `mapstructure:"fetch"`
	View struct {
		ThrottleMs int `mapstructure:"throttleMs"`
		IdleMs     int `mapstructure:"idleMs"`
	} `mapstructure:"view"`
	Vips struct {
		Concurrency int `mapstructure:"concurrency"`
		MaxCacheMB  int `mapstructure:"maxCacheMB"`
	} `mapstructure:"vips"`
}

// Load reads the TOML config at path, with environment variables
// overriding file values. A missing file is not fatal: defaults apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("toml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("tileview")
		v.AddConfigPath(".")
	}
	v.AutomaticEnv()

	v.SetDefault("log.level", "info")
	v.SetDefault("source.kind", "synthetic")
	v.SetDefault("source.cacheTiles", 0)
	v.SetDefault("fetch.workers", 4)
	v.SetDefault("view.throttleMs", 34)
	v.SetDefault("view.idleMs", 250)
	v.SetDefault("vips.concurrency", 1)
	v.SetDefault("vips.maxCacheMB", 256)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", v.ConfigFileUsed(), err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}
