package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	BotToken    string `env:"BOT_TOKEN,required"`
	DatabaseURL string `env:"DATABASE_URL"`

	AdminIDs     []int64 `env:"ADMIN_IDS" envSeparator:","`
	LogChannelID int64   `env:"LOG_CHANNEL_ID" envDefault:"0"`

	// Зона, в которой читаются дата и время размещения.
	Timezone      string        `env:"TIMEZONE" envDefault:"Europe/Moscow"`
	MaturityDelay time.Duration `env:"MATURITY_DELAY" envDefault:"24h"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"15m"`

	Redis RedisConfig `envPrefix:"REDIS_"`
	Log   LogConfig   `envPrefix:"LOG_"`

	MetricsAddr string `env:"METRICS_ADDR"`
	LockFile    string `env:"LOCK_FILE" envDefault:"bot.lock"`
}

type RedisConfig struct {
	Addr     string `env:"ADDR"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

type LogConfig struct {
	Level       string `env:"LEVEL" envDefault:"info"`
	Encoding    string `env:"ENCODING" envDefault:"json"`
	Development bool   `env:"DEVELOPMENT" envDefault:"false"`
}

// Load читает конфигурацию из окружения.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c *Config) IsAdmin(userID int64) bool {
	return slices.Contains(c.AdminIDs, userID)
}
