// Package extension provides the Forge extension adapter for the debate
// engine.
//
// It implements the forge.Extension interface to integrate the engine and
// its websocket router into a Forge application with DI registration and
// lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.debate" or "debate" keys.
package extension

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/debate"
	"github.com/xraph/debate/entitlement"
	"github.com/xraph/debate/router"
	"github.com/xraph/debate/store"
	"github.com/xraph/debate/store/memory"
	"github.com/xraph/debate/types"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "debate"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Debate quiz sessions, answer matching and credit billing"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts the debate engine as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *debate.Engine
	router     *router.Router
	store      store.Store
	engineOpts []debate.Option
}

// New creates a new debate Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying engine.
// This is nil until Register is called.
func (e *Extension) Engine() *debate.Engine { return e.engine }

// Router returns the websocket router, or nil when disabled or before
// Register.
func (e *Extension) Router() *router.Router { return e.router }

// Register implements [forge.Extension]. It loads configuration,
// initializes the engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	if e.store == nil {
		e.store = memory.New()
	}

	opts, err := e.buildEngineOpts()
	if err != nil {
		return err
	}

	e.engine = debate.New(e.store, opts...)

	if err := vessel.Provide(fapp.Container(), func() (*debate.Engine, error) {
		return e.engine, nil
	}); err != nil {
		return err
	}

	if e.config.DisableRouter {
		return nil
	}

	e.router = router.New(e.engine)
	return vessel.Provide(fapp.Container(), func() (*router.Router, error) {
		return e.router, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("debate: extension not initialized")
	}

	if err := e.engine.Start(ctx); err != nil {
		return err
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("debate: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildEngineOpts constructs debate.Option values from the resolved config.
func (e *Extension) buildEngineOpts() ([]debate.Option, error) {
	prices, err := parsePrices(e.config.Prices)
	if err != nil {
		return nil, err
	}

	opts := make([]debate.Option, 0, len(e.engineOpts)+4)
	if e.config.MatchCacheTTL > 0 {
		opts = append(opts, debate.WithMatchCacheTTL(e.config.MatchCacheTTL))
	}
	if e.config.SessionLifetime > 0 {
		opts = append(opts, debate.WithSessionLifetime(e.config.SessionLifetime))
	}
	if e.config.PluginTimeout > 0 {
		opts = append(opts, debate.WithPluginTimeout(e.config.PluginTimeout))
	}
	if len(prices) > 0 {
		opts = append(opts, debate.WithPrices(prices))
	}

	// Append any pass-through engine options.
	opts = append(opts, e.engineOpts...)

	return opts, nil
}

func parsePrices(raw map[string]int64) (map[entitlement.Feature]types.Credits, error) {
	prices := make(map[entitlement.Feature]types.Credits, len(raw))
	for name, credits := range raw {
		f := entitlement.Feature(strings.ToUpper(strings.TrimSpace(name)))
		if !f.Valid() {
			return nil, fmt.Errorf("debate: unknown feature %q in prices", name)
		}
		if credits < 0 {
			return nil, fmt.Errorf("debate: negative price %d for %s", credits, f)
		}
		prices[f] = types.Credits(credits)
	}
	return prices, nil
}

// --- Config Loading ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("debate: configuration is required but not found in config files; " +
				"ensure 'extensions.debate' or 'debate' key exists in your config")
		}

		e.config = e.mergeWithDefaults(programmaticConfig)
	} else {
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("debate: configuration loaded",
		forge.F("disable_router", e.config.DisableRouter),
		forge.F("match_cache_ttl", e.config.MatchCacheTTL),
		forge.F("session_lifetime", e.config.SessionLifetime),
		forge.F("plugin_timeout", e.config.PluginTimeout),
		forge.F("prices", e.config.Prices),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()

	for _, key := range []string{"extensions.debate", "debate"} {
		if !cm.IsSet(key) {
			continue
		}
		var cfg Config
		if err := cm.Bind(key, &cfg); err == nil {
			e.Logger().Debug("debate: loaded config from file",
				forge.F("key", key),
			)
			return cfg, true
		}
		e.Logger().Warn("debate: failed to bind config",
			forge.F("key", key),
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func (e *Extension) mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.MatchCacheTTL == 0 {
		cfg.MatchCacheTTL = defaults.MatchCacheTTL
	}
	if cfg.PluginTimeout == 0 {
		cfg.PluginTimeout = defaults.PluginTimeout
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence; programmatic values fill gaps.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	if programmaticConfig.DisableRouter {
		yamlConfig.DisableRouter = true
	}

	if yamlConfig.MatchCacheTTL == 0 && programmaticConfig.MatchCacheTTL != 0 {
		yamlConfig.MatchCacheTTL = programmaticConfig.MatchCacheTTL
	}
	if yamlConfig.SessionLifetime == 0 && programmaticConfig.SessionLifetime != 0 {
		yamlConfig.SessionLifetime = programmaticConfig.SessionLifetime
	}
	if yamlConfig.PluginTimeout == 0 && programmaticConfig.PluginTimeout != 0 {
		yamlConfig.PluginTimeout = programmaticConfig.PluginTimeout
	}

	if len(programmaticConfig.Prices) > 0 {
		merged := maps.Clone(programmaticConfig.Prices)
		maps.Copy(merged, yamlConfig.Prices)
		yamlConfig.Prices = merged
	}

	return e.mergeWithDefaults(yamlConfig)
}
