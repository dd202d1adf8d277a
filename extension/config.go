package extension

import "time"

// Config holds the debate extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.debate" or "debate" keys).
type Config struct {
	// DisableRouter skips registering the websocket router in the container.
	DisableRouter bool `json:"disable_router" mapstructure:"disable_router" yaml:"disable_router"`

	// MatchCacheTTL controls how long a ranked match list is reused
	// (default: 10m).
	MatchCacheTTL time.Duration `json:"match_cache_ttl" mapstructure:"match_cache_ttl" yaml:"match_cache_ttl"`

	// SessionLifetime overrides the calendar three-month session lifetime
	// when non-zero.
	SessionLifetime time.Duration `json:"session_lifetime" mapstructure:"session_lifetime" yaml:"session_lifetime"`

	// PluginTimeout bounds each plugin hook call (default: 5s).
	PluginTimeout time.Duration `json:"plugin_timeout" mapstructure:"plugin_timeout" yaml:"plugin_timeout"`

	// Prices maps feature names (MATCH_TOP3, MATCH_ALL, QUESTION_LIMIT_10)
	// to their cost in credits. Missing features keep the default price.
	Prices map[string]int64 `json:"prices" mapstructure:"prices" yaml:"prices"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MatchCacheTTL: 10 * time.Minute,
		PluginTimeout: 5 * time.Second,
	}
}
