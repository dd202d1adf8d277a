package extension

import (
	"time"

	"github.com/xraph/debate"
	"github.com/xraph/debate/observability"
	"github.com/xraph/debate/plugin"
	"github.com/xraph/debate/store"
)

// Option configures the debate Forge extension.
type Option func(*Extension)

// WithStore sets the store for the debate engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithEngineOption passes a debate.Option through to the underlying engine.
func WithEngineOption(opt debate.Option) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, opt)
	}
}

// WithPlugin registers a debate plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, debate.WithPlugin(p))
	}
}

// WithMetrics registers the observability plugin backed by factory.
func WithMetrics(factory observability.MetricFactory) Option {
	return WithPlugin(observability.NewMetricsExtension(factory))
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableRouter skips registering the websocket router.
func WithDisableRouter() Option {
	return func(e *Extension) { e.config.DisableRouter = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithMatchCacheTTL sets how long ranked match lists are cached.
func WithMatchCacheTTL(d time.Duration) Option {
	return func(e *Extension) { e.config.MatchCacheTTL = d }
}

// WithSessionLifetime sets a fixed session lifetime.
func WithSessionLifetime(d time.Duration) Option {
	return func(e *Extension) { e.config.SessionLifetime = d }
}

// WithPluginTimeout bounds each plugin hook call.
func WithPluginTimeout(d time.Duration) Option {
	return func(e *Extension) { e.config.PluginTimeout = d }
}

// WithPrice overrides the price of one feature.
func WithPrice(feature string, credits int64) Option {
	return func(e *Extension) {
		if e.config.Prices == nil {
			e.config.Prices = make(map[string]int64)
		}
		e.config.Prices[feature] = credits
	}
}
