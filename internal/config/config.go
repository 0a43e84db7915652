package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	BotToken string `envconfig:"BOT_TOKEN" required:"true"`
	DBPath   string `envconfig:"DB_PATH" default:"./data/birthdays.db"`
	TZ       string `envconfig:"TZ" default:"Europe/Moscow"` // reference timezone for all dates and reminder times
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`   // debug|info|warn|error
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`  // healthz + metrics
}

// Load reads environment variables into Config.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Location resolves the configured reference timezone.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.TZ)
}
