// Package memory implements store.Store in process memory. Nothing survives
// a restart.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/xraph/debate"
	"github.com/xraph/debate/credit"
	"github.com/xraph/debate/entitlement"
	"github.com/xraph/debate/match"
	"github.com/xraph/debate/session"
	"github.com/xraph/debate/store"
	"github.com/xraph/debate/types"
)

var _ store.Store = (*Store)(nil)

// sessionSlot serializes all mutations of one session.
type sessionSlot struct {
	mu sync.Mutex
	s  *session.Session
}

type cacheEntry struct {
	signature string
	ranked    []match.Match
	expiresAt time.Time
}

type Store struct {
	mu     sync.RWMutex
	closed atomic.Bool
	now    func() time.Time
	node   *snowflake.Node

	// Session storage
	sessions map[string]*sessionSlot

	// Ledger storage
	entries  map[string][]*credit.Entry
	balances map[string]types.Credits

	// Entitlement storage, keyed by entitlement.Key
	grants map[string]*entitlement.Grant

	// Match cache, keyed by participant and session. Only the latest
	// signature is kept per key.
	matchCache map[string]cacheEntry
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source used for cache expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithNode sets the snowflake node number used for ledger entry ids.
// It panics if n is outside the snowflake node range.
func WithNode(n int64) Option {
	return func(s *Store) { s.node = mustNode(n) }
}

func New(opts ...Option) *Store {
	s := &Store{
		now:        time.Now,
		sessions:   make(map[string]*sessionSlot),
		entries:    make(map[string][]*credit.Entry),
		balances:   make(map[string]types.Credits),
		grants:     make(map[string]*entitlement.Grant),
		matchCache: make(map[string]cacheEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.node == nil {
		s.node = mustNode(1)
	}
	return s
}

func mustNode(n int64) *snowflake.Node {
	node, err := snowflake.NewNode(n)
	if err != nil {
		panic(fmt.Sprintf("memory: snowflake node %d: %v", n, err))
	}
	return node
}

// Session Store implementation
func (s *Store) CreateSession(_ context.Context, sess *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := sess.ID.String()
	if _, exists := s.sessions[key]; exists {
		return fmt.Errorf("memory: session %s already exists", key)
	}
	s.sessions[key] = &sessionSlot{s: sess.Clone()}
	return nil
}

func (s *Store) slot(sessionID string) (*sessionSlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if slot, ok := s.sessions[sessionID]; ok {
		return slot, nil
	}
	return nil, debate.ErrSessionNotFound
}

func (s *Store) GetSession(_ context.Context, sessionID string) (*session.Session, error) {
	slot, err := s.slot(sessionID)
	if err != nil {
		return nil, err
	}

	slot.mu.Lock()
	defer slot.mu.Unlock()
	return slot.s.Clone(), nil
}

// UpdateSession applies fn to a working copy and commits it only if fn
// succeeds, so a rejected mutation leaves no trace.
func (s *Store) UpdateSession(_ context.Context, sessionID string, fn func(*session.Session) error) (*session.Session, error) {
	slot, err := s.slot(sessionID)
	if err != nil {
		return nil, err
	}

	slot.mu.Lock()
	defer slot.mu.Unlock()

	working := slot.s.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	slot.s = working
	return working.Clone(), nil
}

// Ledger Store implementation
func (s *Store) AppendEntry(_ context.Context, e *credit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.appendLocked(e)
}

func (s *Store) AppendIfCovered(_ context.Context, e *credit.Entry) (types.Credits, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.balances[e.ParticipantID]
	if e.Amount.IsNegative() && !current.Covers(e.Amount.Negate()) {
		return current, false, nil
	}
	if err := s.appendLocked(e); err != nil {
		return current, false, err
	}
	return s.balances[e.ParticipantID], true, nil
}

// appendLocked refuses entries whose amount would overflow the balance.
func (s *Store) appendLocked(e *credit.Entry) error {
	balance, ok := s.balances[e.ParticipantID].CheckedAdd(e.Amount)
	if !ok {
		return debate.ErrBalanceOverflow
	}
	e.ID = s.node.Generate()
	s.entries[e.ParticipantID] = append(s.entries[e.ParticipantID], e)
	s.balances[e.ParticipantID] = balance
	return nil
}

func (s *Store) Balance(_ context.Context, participantID string) (types.Credits, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.balances[participantID], nil
}

func (s *Store) ListEntries(_ context.Context, participantID string, opts credit.ListOpts) ([]*credit.Entry, error) {
	s.mu.RLock()
	result := make([]*credit.Entry, 0, len(s.entries[participantID]))
	for _, e := range s.entries[participantID] {
		cp := *e
		result = append(result, &cp)
	}
	s.mu.RUnlock()

	// Newest first; entries written at the same instant keep reverse
	// insertion order via their increasing ids.
	slices.SortStableFunc(result, func(a, b *credit.Entry) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})

	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[:opts.Limit]
	}
	return result, nil
}

// Entitlement Store implementation
func (s *Store) CreateGrant(_ context.Context, g *entitlement.Grant) (*entitlement.Grant, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := g.Key()
	if existing, ok := s.grants[key]; ok {
		cp := *existing
		return &cp, false, nil
	}
	stored := *g
	s.grants[key] = &stored
	cp := stored
	return &cp, true, nil
}

func (s *Store) ListGrants(_ context.Context, participantID, resourceID string) ([]*entitlement.Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*entitlement.Grant, 0)
	for _, f := range entitlement.Features() {
		if g, ok := s.grants[entitlement.Key(participantID, resourceID, f)]; ok {
			cp := *g
			result = append(result, &cp)
		}
	}
	return result, nil
}

// Match cache implementation
func cacheKey(k match.Key) string {
	return k.ParticipantID + ":" + k.SessionID
}

func (s *Store) GetCached(_ context.Context, key match.Key) ([]match.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.matchCache[cacheKey(key)]
	if !ok || entry.signature != key.Signature || !s.now().Before(entry.expiresAt) {
		return nil, debate.ErrCacheMiss
	}
	return append([]match.Match{}, entry.ranked...), nil
}

func (s *Store) SetCached(_ context.Context, key match.Key, ranked []match.Match, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.matchCache[cacheKey(key)] = cacheEntry{
		signature: key.Signature,
		ranked:    append([]match.Match{}, ranked...),
		expiresAt: s.now().Add(ttl),
	}
	return nil
}

// Store management
func (s *Store) Ping(_ context.Context) error {
	if s.closed.Load() {
		return debate.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.closed.Store(true)
	return nil
}
