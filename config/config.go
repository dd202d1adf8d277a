// Package config loads the debated process configuration from the
// environment, with an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/xraph/debate/entitlement"
	"github.com/xraph/debate/types"
)

// Config holds every setting of the debated binary.
type Config struct {
	// HTTP
	HTTPAddr          string        `env:"DEBATE_HTTP_ADDR" envDefault:":8080"`
	AllowedOrigins    []string      `env:"DEBATE_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	CreditSecret      string        `env:"DEBATE_CREDIT_SECRET"`
	ReadHeaderTimeout time.Duration `env:"DEBATE_READ_HEADER_TIMEOUT" envDefault:"5s"`
	ShutdownTimeout   time.Duration `env:"DEBATE_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Logging
	LogLevel  string `env:"DEBATE_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"DEBATE_LOG_FORMAT" envDefault:"text"`

	// Engine
	MatchCacheTTL   time.Duration `env:"DEBATE_MATCH_CACHE_TTL" envDefault:"10m"`
	SessionLifetime time.Duration `env:"DEBATE_SESSION_LIFETIME"`
	PluginTimeout   time.Duration `env:"DEBATE_PLUGIN_TIMEOUT" envDefault:"5s"`
	SnowflakeNode   int64         `env:"DEBATE_SNOWFLAKE_NODE" envDefault:"1"`

	// Prices in credits
	PriceMatchTop3       int64 `env:"DEBATE_PRICE_MATCH_TOP3" envDefault:"2"`
	PriceMatchAll        int64 `env:"DEBATE_PRICE_MATCH_ALL" envDefault:"5"`
	PriceQuestionLimit10 int64 `env:"DEBATE_PRICE_QUESTION_LIMIT_10" envDefault:"3"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads the given .env files (".env" when none are named) if they
// exist, then parses and validates the environment.
func Load(files ...string) (*Config, error) {
	// Missing .env files are fine.
	_ = godotenv.Load(files...)

	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges env tags cannot express.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.HTTPAddr) == "" {
		errs = append(errs, errors.New("DEBATE_HTTP_ADDR is required"))
	}
	if c.SnowflakeNode < 0 || c.SnowflakeNode > 1023 {
		errs = append(errs, fmt.Errorf("DEBATE_SNOWFLAKE_NODE must be in [0, 1023], got %d", c.SnowflakeNode))
	}
	if c.PriceMatchTop3 < 0 || c.PriceMatchAll < 0 || c.PriceQuestionLimit10 < 0 {
		errs = append(errs, errors.New("prices must not be negative"))
	}
	if c.SessionLifetime < 0 {
		errs = append(errs, errors.New("DEBATE_SESSION_LIFETIME must not be negative"))
	}
	if _, err := c.level(); err != nil {
		errs = append(errs, err)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("DEBATE_LOG_FORMAT must be text or json, got %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

// Prices returns the configured price table.
func (c *Config) Prices() map[entitlement.Feature]types.Credits {
	return map[entitlement.Feature]types.Credits{
		entitlement.FeatureMatchTop3:       types.Credits(c.PriceMatchTop3),
		entitlement.FeatureMatchAll:        types.Credits(c.PriceMatchAll),
		entitlement.FeatureQuestionLimit10: types.Credits(c.PriceQuestionLimit10),
	}
}

func (c *Config) level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("DEBATE_LOG_LEVEL: %w", err)
	}
	return level, nil
}

// Logger builds the process logger writing to w.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, err := c.level()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
