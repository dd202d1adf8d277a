package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/debate/credit"
	"github.com/xraph/debate/entitlement"
	"github.com/xraph/debate/match"
	"github.com/xraph/debate/session"
	"github.com/xraph/debate/types"
)

// DefaultTimeout bounds a single hook call.
const DefaultTimeout = 5 * time.Second

// Registry manages registered plugins and dispatches events to them.
// Each hook keeps its own slice so dispatch does no type assertions.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	onInit                 []OnInit
	onShutdown             []OnShutdown
	onSessionCreated       []OnSessionCreated
	onParticipantJoined    []OnParticipantJoined
	onParticipantLeft      []OnParticipantLeft
	onQuestionAdded        []OnQuestionAdded
	onQuestionLimitReached []OnQuestionLimitReached
	onResponseRecorded     []OnResponseRecorded
	onMatchesComputed      []OnMatchesComputed
	onCreditsRecorded      []OnCreditsRecorded
	onGrantCreated         []OnGrantCreated
	onPurchaseCompleted    []OnPurchaseCompleted
	onPurchaseDenied       []OnPurchaseDenied
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-hook timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds a plugin to the registry and caches its hooks.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	var hooks []string
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
		hooks = append(hooks, "OnInit")
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
		hooks = append(hooks, "OnShutdown")
	}
	if v, ok := p.(OnSessionCreated); ok {
		r.onSessionCreated = append(r.onSessionCreated, v)
		hooks = append(hooks, "OnSessionCreated")
	}
	if v, ok := p.(OnParticipantJoined); ok {
		r.onParticipantJoined = append(r.onParticipantJoined, v)
		hooks = append(hooks, "OnParticipantJoined")
	}
	if v, ok := p.(OnParticipantLeft); ok {
		r.onParticipantLeft = append(r.onParticipantLeft, v)
		hooks = append(hooks, "OnParticipantLeft")
	}
	if v, ok := p.(OnQuestionAdded); ok {
		r.onQuestionAdded = append(r.onQuestionAdded, v)
		hooks = append(hooks, "OnQuestionAdded")
	}
	if v, ok := p.(OnQuestionLimitReached); ok {
		r.onQuestionLimitReached = append(r.onQuestionLimitReached, v)
		hooks = append(hooks, "OnQuestionLimitReached")
	}
	if v, ok := p.(OnResponseRecorded); ok {
		r.onResponseRecorded = append(r.onResponseRecorded, v)
		hooks = append(hooks, "OnResponseRecorded")
	}
	if v, ok := p.(OnMatchesComputed); ok {
		r.onMatchesComputed = append(r.onMatchesComputed, v)
		hooks = append(hooks, "OnMatchesComputed")
	}
	if v, ok := p.(OnCreditsRecorded); ok {
		r.onCreditsRecorded = append(r.onCreditsRecorded, v)
		hooks = append(hooks, "OnCreditsRecorded")
	}
	if v, ok := p.(OnGrantCreated); ok {
		r.onGrantCreated = append(r.onGrantCreated, v)
		hooks = append(hooks, "OnGrantCreated")
	}
	if v, ok := p.(OnPurchaseCompleted); ok {
		r.onPurchaseCompleted = append(r.onPurchaseCompleted, v)
		hooks = append(hooks, "OnPurchaseCompleted")
	}
	if v, ok := p.(OnPurchaseDenied); ok {
		r.onPurchaseDenied = append(r.onPurchaseDenied, v)
		hooks = append(hooks, "OnPurchaseDenied")
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"hooks", hooks,
	)

	return nil
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// emit calls fn for every plugin in list. Failures are logged, never returned.
func emit[T Plugin](ctx context.Context, r *Registry, hook string, list func() []T, fn func(T) error) {
	r.mu.RLock()
	plugins := list()
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return fn(p)
		}); err != nil {
			r.logger.Warn("plugin "+hook+" failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine interface{}) {
	emit(ctx, r, "OnInit", func() []OnInit { return r.onInit }, func(p OnInit) error {
		return p.OnInit(ctx, engine)
	})
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	emit(ctx, r, "OnShutdown", func() []OnShutdown { return r.onShutdown }, func(p OnShutdown) error {
		return p.OnShutdown(ctx)
	})
}

// EmitSessionCreated emits a session created event.
func (r *Registry) EmitSessionCreated(ctx context.Context, s *session.Session) {
	emit(ctx, r, "OnSessionCreated", func() []OnSessionCreated { return r.onSessionCreated }, func(p OnSessionCreated) error {
		return p.OnSessionCreated(ctx, s)
	})
}

// EmitParticipantJoined emits a participant joined event.
func (r *Registry) EmitParticipantJoined(ctx context.Context, sessionID string, part *session.Participant) {
	emit(ctx, r, "OnParticipantJoined", func() []OnParticipantJoined { return r.onParticipantJoined }, func(p OnParticipantJoined) error {
		return p.OnParticipantJoined(ctx, sessionID, part)
	})
}

// EmitParticipantLeft emits a participant left event.
func (r *Registry) EmitParticipantLeft(ctx context.Context, sessionID, participantID string) {
	emit(ctx, r, "OnParticipantLeft", func() []OnParticipantLeft { return r.onParticipantLeft }, func(p OnParticipantLeft) error {
		return p.OnParticipantLeft(ctx, sessionID, participantID)
	})
}

// EmitQuestionAdded emits a question added event.
func (r *Registry) EmitQuestionAdded(ctx context.Context, sessionID string, q *session.Question) {
	emit(ctx, r, "OnQuestionAdded", func() []OnQuestionAdded { return r.onQuestionAdded }, func(p OnQuestionAdded) error {
		return p.OnQuestionAdded(ctx, sessionID, q)
	})
}

// EmitQuestionLimitReached emits a question limit event.
func (r *Registry) EmitQuestionLimitReached(ctx context.Context, sessionID string, current, limit int) {
	emit(ctx, r, "OnQuestionLimitReached", func() []OnQuestionLimitReached { return r.onQuestionLimitReached }, func(p OnQuestionLimitReached) error {
		return p.OnQuestionLimitReached(ctx, sessionID, current, limit)
	})
}

// EmitResponseRecorded emits a response recorded event.
func (r *Registry) EmitResponseRecorded(ctx context.Context, resp *session.Response) {
	emit(ctx, r, "OnResponseRecorded", func() []OnResponseRecorded { return r.onResponseRecorded }, func(p OnResponseRecorded) error {
		return p.OnResponseRecorded(ctx, resp)
	})
}

// EmitMatchesComputed emits a matches computed event.
func (r *Registry) EmitMatchesComputed(ctx context.Context, key match.Key, tier match.Tier, count int, cached bool) {
	emit(ctx, r, "OnMatchesComputed", func() []OnMatchesComputed { return r.onMatchesComputed }, func(p OnMatchesComputed) error {
		return p.OnMatchesComputed(ctx, key, tier, count, cached)
	})
}

// EmitCreditsRecorded emits a ledger entry event.
func (r *Registry) EmitCreditsRecorded(ctx context.Context, e *credit.Entry) {
	emit(ctx, r, "OnCreditsRecorded", func() []OnCreditsRecorded { return r.onCreditsRecorded }, func(p OnCreditsRecorded) error {
		return p.OnCreditsRecorded(ctx, e)
	})
}

// EmitGrantCreated emits a grant created event.
func (r *Registry) EmitGrantCreated(ctx context.Context, g *entitlement.Grant) {
	emit(ctx, r, "OnGrantCreated", func() []OnGrantCreated { return r.onGrantCreated }, func(p OnGrantCreated) error {
		return p.OnGrantCreated(ctx, g)
	})
}

// EmitPurchaseCompleted emits a purchase completed event.
func (r *Registry) EmitPurchaseCompleted(ctx context.Context, participantID, resourceID string, f entitlement.Feature, charged types.Credits) {
	emit(ctx, r, "OnPurchaseCompleted", func() []OnPurchaseCompleted { return r.onPurchaseCompleted }, func(p OnPurchaseCompleted) error {
		return p.OnPurchaseCompleted(ctx, participantID, resourceID, f, charged)
	})
}

// EmitPurchaseDenied emits a purchase denied event.
func (r *Registry) EmitPurchaseDenied(ctx context.Context, participantID, resourceID string, f entitlement.Feature, required, current types.Credits) {
	emit(ctx, r, "OnPurchaseDenied", func() []OnPurchaseDenied { return r.onPurchaseDenied }, func(p OnPurchaseDenied) error {
		return p.OnPurchaseDenied(ctx, participantID, resourceID, f, required, current)
	})
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the session pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
