// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	engine "github.com/jason-s-yu/klondike/engine"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config holds the service settings, read from the environment after an
// optional .env file has been loaded.
type Config struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"` // "text" or "json".

	DatabaseURL string `mapstructure:"database_url"` // Empty selects the in-memory store.

	RedisAddr     string        `mapstructure:"redis_addr"` // Empty selects the in-memory history.
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	HistoryTTL    time.Duration `mapstructure:"history_ttl"`

	DefaultDraw engine.DrawMode `mapstructure:"-"`

	SimGames int    `mapstructure:"sim_games"`
	SimSeed  uint64 `mapstructure:"sim_seed"`
}

var keys = []string{
	"log_level",
	"log_format",
	"database_url",
	"redis_addr",
	"redis_password",
	"redis_db",
	"history_ttl",
	"default_draw",
	"sim_games",
	"sim_seed",
}

// Load reads envFile if it exists and then the process environment.
// Environment variables use the upper-case key names, e.g. DATABASE_URL.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("redis_db", 0)
	v.SetDefault("history_ttl", 24*time.Hour)
	v.SetDefault("default_draw", "1")
	v.SetDefault("sim_games", 100)
	v.SetDefault("sim_seed", 1)
	v.AutomaticEnv()
	// AutomaticEnv only applies to keys viper already knows about when
	// unmarshalling, so bind each one explicitly.
	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	draw, err := engine.ParseDrawMode(v.GetString("default_draw"))
	if err != nil {
		return nil, fmt.Errorf("DEFAULT_DRAW: %w", err)
	}
	cfg.DefaultDraw = draw

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT: unknown format %q", c.LogFormat)
	}
	if c.DefaultDraw != engine.DrawOne && c.DefaultDraw != engine.DrawThree {
		return fmt.Errorf("DEFAULT_DRAW: must be 1 or 3, got %d", c.DefaultDraw)
	}
	if c.HistoryTTL < 0 {
		return errors.New("HISTORY_TTL: must not be negative")
	}
	if c.SimGames < 0 {
		return errors.New("SIM_GAMES: must not be negative")
	}
	return nil
}

// NewLogger builds the process logger described by c.
func NewLogger(c *Config) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	if lvl, err := logrus.ParseLevel(c.LogLevel); err == nil {
		log.SetLevel(lvl)
	}
	if c.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}
