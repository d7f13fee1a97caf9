// Package config provides configuration loading from the environment and an
// optional YAML file.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	DiscordToken string `yaml:"-" validate:"required"`

	Prefix       string `yaml:"prefix" default:"!"`
	CacheDir     string `yaml:"cache_dir" default:"cache"`
	DatabasePath string `yaml:"database_path" default:"hatsune.db"`
	LogLevel     string `yaml:"log_level" default:"info"`

	DefaultVolumePercent int `yaml:"default_volume" default:"50" validate:"gte=0,lte=200"`
	InactivityTimeoutSec int `yaml:"inactivity_timeout_sec" default:"300" validate:"gt=0"`
	AloneGraceSec        int `yaml:"alone_grace_sec" default:"900" validate:"gt=0"`
}

// Load reads the optional YAML file at path, applies defaults, pulls
// secrets from the environment (a .env file is honored when present) and
// validates the result.
func Load(path string) (*Config, error) {
	// Missing .env is fine; the token may come from the real environment.
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrap(err, "failed to read config file")
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, errors.Wrap(err, "failed to parse config file")
			}
		}
	}

	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	cfg.DiscordToken = os.Getenv("DISCORD_TOKEN")

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}
	return &cfg, nil
}

// InactivityTimeout returns the queue-wait timeout as a duration.
func (c *Config) InactivityTimeout() time.Duration {
	return time.Duration(c.InactivityTimeoutSec) * time.Second
}

// AloneGrace returns how long the bot stays alone in a voice channel before
// leaving.
func (c *Config) AloneGrace() time.Duration {
	return time.Duration(c.AloneGraceSec) * time.Second
}
