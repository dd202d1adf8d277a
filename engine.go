package debate

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/debate/entitlement"
	"github.com/xraph/debate/plugin"
	"github.com/xraph/debate/session"
	"github.com/xraph/debate/store"
	"github.com/xraph/debate/types"
)

const (
	// DefaultMatchCacheTTL is how long a computed ranking stays reusable.
	DefaultMatchCacheTTL = 10 * time.Minute

	// DefaultQuestionLimit is the number of questions an owner may publish
	// without QUESTION_LIMIT_10.
	DefaultQuestionLimit = 3

	// UpgradedQuestionLimit is the limit with QUESTION_LIMIT_10.
	UpgradedQuestionLimit = 10
)

// Engine runs quiz sessions, match lookups and the credit economy on top of
// a store. It is safe for concurrent use.
type Engine struct {
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger
	locks   *keyLocks

	// Configuration
	now           func() time.Time
	matchCacheTTL time.Duration
	expiry        func(created time.Time) time.Time
	prices        map[entitlement.Feature]types.Credits
}

// New creates a new Engine instance.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:         s,
		plugins:       plugin.NewRegistry(),
		logger:        slog.Default(),
		locks:         newKeyLocks(),
		now:           time.Now,
		matchCacheTTL: DefaultMatchCacheTTL,
		expiry:        session.DefaultExpiry,
		prices:        DefaultPrices(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Option configures an Engine instance.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		_ = e.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithPluginTimeout bounds each plugin hook call.
func WithPluginTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.plugins.WithTimeout(d)
	}
}

// WithClock sets the time source. Tests use it to move time forward.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithMatchCacheTTL sets how long rankings are cached.
func WithMatchCacheTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		if ttl > 0 {
			e.matchCacheTTL = ttl
		}
	}
}

// WithSessionLifetime replaces the default three-month session lifetime.
func WithSessionLifetime(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.expiry = func(created time.Time) time.Time { return created.UTC().Add(d) }
		}
	}
}

// WithPrices overrides the price of the given features.
func WithPrices(prices map[entitlement.Feature]types.Credits) Option {
	return func(e *Engine) {
		for f, p := range prices {
			e.prices[f] = p
		}
	}
}

// Start checks the store and initializes plugins.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.store.Ping(ctx); err != nil {
		return err
	}

	e.plugins.EmitInit(ctx, e)

	e.logger.Info("debate engine started",
		"match_cache_ttl", e.matchCacheTTL,
		"plugins", e.plugins.Count(),
	)

	return nil
}

// Stop shuts down plugins and closes the store.
func (e *Engine) Stop() error {
	e.plugins.EmitShutdown(context.Background())
	return e.store.Close()
}

// Plugins returns the plugin registry.
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

// Ping reports whether the store is usable.
func (e *Engine) Ping(ctx context.Context) error { return e.store.Ping(ctx) }
