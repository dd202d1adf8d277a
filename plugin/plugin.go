// Package plugin provides an extensible plugin system for the debate engine.
// Plugins hook into session, matching and billing events.
package plugin

import (
	"context"

	"github.com/xraph/debate/credit"
	"github.com/xraph/debate/entitlement"
	"github.com/xraph/debate/match"
	"github.com/xraph/debate/session"
	"github.com/xraph/debate/types"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the engine starts.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine interface{}) error
}

// OnShutdown is called when the engine stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Session hooks
// ──────────────────────────────────────────────────

// OnSessionCreated is called after a session is created.
type OnSessionCreated interface {
	Plugin
	OnSessionCreated(ctx context.Context, s *session.Session) error
}

// OnParticipantJoined is called after a participant joins or rejoins.
type OnParticipantJoined interface {
	Plugin
	OnParticipantJoined(ctx context.Context, sessionID string, p *session.Participant) error
}

// OnParticipantLeft is called after a participant is marked inactive.
type OnParticipantLeft interface {
	Plugin
	OnParticipantLeft(ctx context.Context, sessionID, participantID string) error
}

// OnQuestionAdded is called after a question is appended.
type OnQuestionAdded interface {
	Plugin
	OnQuestionAdded(ctx context.Context, sessionID string, q *session.Question) error
}

// OnQuestionLimitReached is called when the owner is refused a question.
type OnQuestionLimitReached interface {
	Plugin
	OnQuestionLimitReached(ctx context.Context, sessionID string, current, limit int) error
}

// OnResponseRecorded is called after a response is stored.
type OnResponseRecorded interface {
	Plugin
	OnResponseRecorded(ctx context.Context, r *session.Response) error
}

// ──────────────────────────────────────────────────
// Matching hooks
// ──────────────────────────────────────────────────

// OnMatchesComputed is called after a tiered match lookup.
type OnMatchesComputed interface {
	Plugin
	OnMatchesComputed(ctx context.Context, key match.Key, tier match.Tier, count int, cached bool) error
}

// ──────────────────────────────────────────────────
// Billing hooks
// ──────────────────────────────────────────────────

// OnCreditsRecorded is called after any ledger entry is appended.
type OnCreditsRecorded interface {
	Plugin
	OnCreditsRecorded(ctx context.Context, e *credit.Entry) error
}

// OnGrantCreated is called when a new grant is stored.
type OnGrantCreated interface {
	Plugin
	OnGrantCreated(ctx context.Context, g *entitlement.Grant) error
}

// OnPurchaseCompleted is called when a purchase-or-verify call ends with access.
type OnPurchaseCompleted interface {
	Plugin
	OnPurchaseCompleted(ctx context.Context, participantID, resourceID string, f entitlement.Feature, charged types.Credits) error
}

// OnPurchaseDenied is called when a purchase fails for lack of balance.
type OnPurchaseDenied interface {
	Plugin
	OnPurchaseDenied(ctx context.Context, participantID, resourceID string, f entitlement.Feature, required, current types.Credits) error
}
