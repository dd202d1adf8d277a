// Package store defines the composite storage interface used by the engine.
package store

import (
	"context"
	"time"

	"github.com/xraph/debate/credit"
	"github.com/xraph/debate/entitlement"
	"github.com/xraph/debate/match"
	"github.com/xraph/debate/session"
	"github.com/xraph/debate/types"
)

// Store is the unified storage interface for all debate entities.
// Methods are listed explicitly rather than embedded so each backend's
// surface is visible in one place.
type Store interface {
	// Session methods
	CreateSession(ctx context.Context, s *session.Session) error
	GetSession(ctx context.Context, sessionID string) (*session.Session, error)
	UpdateSession(ctx context.Context, sessionID string, fn func(*session.Session) error) (*session.Session, error)

	// Ledger methods
	AppendEntry(ctx context.Context, e *credit.Entry) error
	AppendIfCovered(ctx context.Context, e *credit.Entry) (types.Credits, bool, error)
	Balance(ctx context.Context, participantID string) (types.Credits, error)
	ListEntries(ctx context.Context, participantID string, opts credit.ListOpts) ([]*credit.Entry, error)

	// Entitlement methods
	CreateGrant(ctx context.Context, g *entitlement.Grant) (*entitlement.Grant, bool, error)
	ListGrants(ctx context.Context, participantID, resourceID string) ([]*entitlement.Grant, error)

	// Match cache methods
	GetCached(ctx context.Context, key match.Key) ([]match.Match, error)
	SetCached(ctx context.Context, key match.Key, ranked []match.Match, ttl time.Duration) error

	// Core methods
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ session.Store     = Store(nil)
	_ credit.Store      = Store(nil)
	_ entitlement.Store = Store(nil)
	_ match.Cache       = Store(nil)
)
