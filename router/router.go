// Package router binds live connections to quiz sessions and translates
// command frames into engine calls. Every state change is followed by a
// full per-participant snapshot pushed to the session's connections.
package router

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/xraph/debate"
	"github.com/xraph/debate/credit"
	"github.com/xraph/debate/id"
	"github.com/xraph/debate/match"
	"github.com/xraph/debate/session"
	"github.com/xraph/debate/types"
)

// Engine is the part of *debate.Engine the router drives.
type Engine interface {
	CreateSession(ctx context.Context, ownerID, ownerName string) (*session.Session, error)
	GetSession(ctx context.Context, sessionID string) (*session.Session, error)
	JoinSession(ctx context.Context, sessionID, participantID, name string) (*session.Session, error)
	LeaveSession(ctx context.Context, sessionID, participantID string) (*session.Session, error)
	PublishQuestion(ctx context.Context, sessionID, participantID string, d debate.QuestionDraft) (*debate.PublishResult, error)
	RecordResponse(ctx context.Context, sessionID string, r session.Response) (*session.Response, error)
	RevealMatches(ctx context.Context, sessionID, participantID string, tier match.Tier) (*debate.MatchResult, error)
	UnlockQuestionLimit(ctx context.Context, sessionID, participantID string) (int, *debate.PurchaseResult, error)
	SessionView(ctx context.Context, sessionID, participantID string) (*session.View, error)
	SessionViews(ctx context.Context, s *session.Session) (map[string]*session.View, error)
	Balance(ctx context.Context, participantID string) (types.Credits, error)
	History(ctx context.Context, participantID string, limit int) ([]*credit.Entry, error)
}

var _ Engine = (*debate.Engine)(nil)

// Conn is one live client connection. Writes are serialized; the binding
// to a session is owned by the Router.
type Conn struct {
	id          string
	anonymousID string

	mu      sync.Mutex
	encoder *json.Encoder

	// guarded by Router.mu
	sessionID     string
	participantID string
}

// NewConn wraps w as a connection. Frames are written as JSON values.
func NewConn(w io.Writer) *Conn {
	return &Conn{
		id:          id.NewConnectionID().String(),
		anonymousID: uuid.NewString(),
		encoder:     json.NewEncoder(w),
	}
}

// ID returns the connection id.
func (c *Conn) ID() string { return c.id }

func (c *Conn) writeFrame(f Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.encoder.Encode(f)
}

type binding struct {
	sessionID     string
	participantID string
}

// Router tracks connections per session and per participant.
type Router struct {
	engine Engine
	logger *slog.Logger

	mu            sync.RWMutex
	bySession     map[string]map[*Conn]struct{}
	byParticipant map[string]map[*Conn]struct{}
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) { r.logger = logger }
}

// New creates a Router over engine.
func New(engine Engine, opts ...Option) *Router {
	r := &Router{
		engine:        engine,
		logger:        slog.Default(),
		bySession:     make(map[string]map[*Conn]struct{}),
		byParticipant: make(map[string]map[*Conn]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Router) binding(c *Conn) (binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return binding{c.sessionID, c.participantID}, c.sessionID != ""
}

// identity is the participant id a connection acts as: its bound
// participant, or its anonymous id before it joins anything.
func (r *Router) identity(c *Conn) string {
	if b, ok := r.binding(c); ok {
		return b.participantID
	}
	return c.anonymousID
}

// bind attaches c to (sessionID, participantID) and returns the previous
// binding, if any.
func (r *Router) bind(c *Conn, sessionID, participantID string) (binding, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := binding{c.sessionID, c.participantID}
	hadPrev := r.unbindLocked(c)

	c.sessionID = sessionID
	c.participantID = participantID
	addConn(r.bySession, sessionID, c)
	addConn(r.byParticipant, participantID, c)
	return prev, hadPrev
}

func (r *Router) unbindLocked(c *Conn) bool {
	if c.sessionID == "" {
		return false
	}
	removeConn(r.bySession, c.sessionID, c)
	removeConn(r.byParticipant, c.participantID, c)
	c.sessionID = ""
	c.participantID = ""
	return true
}

func addConn(index map[string]map[*Conn]struct{}, key string, c *Conn) {
	set, ok := index[key]
	if !ok {
		set = make(map[*Conn]struct{})
		index[key] = set
	}
	set[c] = struct{}{}
}

func removeConn(index map[string]map[*Conn]struct{}, key string, c *Conn) {
	set := index[key]
	delete(set, c)
	if len(set) == 0 {
		delete(index, key)
	}
}

// stillPresent reports whether participantID has another connection bound
// to sessionID.
func (r *Router) stillPresent(sessionID, participantID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for c := range r.byParticipant[participantID] {
		if c.sessionID == sessionID {
			return true
		}
	}
	return false
}

func (r *Router) sessionConns(sessionID string) []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Conn, 0, len(r.bySession[sessionID]))
	for c := range r.bySession[sessionID] {
		out = append(out, c)
	}
	return out
}

func (r *Router) participantConns(participantID string) []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Conn, 0, len(r.byParticipant[participantID]))
	for c := range r.byParticipant[participantID] {
		out = append(out, c)
	}
	return out
}

// Connections returns how many connections are bound to sessionID.
func (r *Router) Connections(sessionID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bySession[sessionID])
}

// Disconnect releases c. If it was the participant's last connection to
// its session, the participant is marked inactive and the rest of the
// session is told.
func (r *Router) Disconnect(ctx context.Context, c *Conn) {
	r.mu.Lock()
	prev := binding{c.sessionID, c.participantID}
	bound := r.unbindLocked(c)
	r.mu.Unlock()

	if bound {
		r.leave(ctx, prev)
	}
}

func (r *Router) leave(ctx context.Context, b binding) {
	if r.stillPresent(b.sessionID, b.participantID) {
		return
	}

	s, err := r.engine.LeaveSession(ctx, b.sessionID, b.participantID)
	if err != nil {
		r.logger.Warn("leave session failed",
			"session_id", b.sessionID,
			"participant_id", b.participantID,
			"error", err,
		)
		return
	}

	r.broadcast(b.sessionID, nil, Frame{
		Type:    EvtParticipantLeft,
		Payload: mustJSON(r.logger, participantEnvelope{SessionID: b.sessionID, ParticipantID: b.participantID}),
	})
	r.broadcastState(ctx, s)
}

// broadcast sends f to every connection of sessionID except skip.
func (r *Router) broadcast(sessionID string, skip *Conn, f Frame) {
	for _, c := range r.sessionConns(sessionID) {
		if c == skip {
			continue
		}
		r.send(c, f)
	}
}

// broadcastState pushes each bound participant their own projection of s.
func (r *Router) broadcastState(ctx context.Context, s *session.Session) {
	views, err := r.engine.SessionViews(ctx, s)
	if err != nil {
		r.logger.Error("build session views failed",
			"session_id", s.ID.String(),
			"error", err,
		)
		return
	}

	sessionID := s.ID.String()
	r.mu.RLock()
	targets := make(map[*Conn]*session.View, len(r.bySession[sessionID]))
	for c := range r.bySession[sessionID] {
		if v, ok := views[c.participantID]; ok {
			targets[c] = v
		}
	}
	r.mu.RUnlock()

	for c, v := range targets {
		r.send(c, Frame{Type: EvtQuizState, Payload: mustJSON(r.logger, stateEnvelope{State: v})})
	}
}

// Notify pushes a balance update and a message to every connection of
// participantID. It returns how many connections were reached.
func (r *Router) Notify(participantID string, balance types.Credits, message string) int {
	conns := r.participantConns(participantID)
	for _, c := range conns {
		r.send(c, Frame{
			Type:    EvtCreditsBalance,
			Payload: mustJSON(r.logger, balanceEnvelope{ParticipantID: participantID, Balance: balance}),
		})
		if message != "" {
			r.send(c, Frame{
				Type:    EvtNotification,
				Payload: mustJSON(r.logger, notificationEnvelope{Message: message}),
			})
		}
	}
	return len(conns)
}

func (r *Router) send(c *Conn, f Frame) {
	if err := c.writeFrame(f); err != nil {
		r.logger.Debug("write frame failed",
			"conn_id", c.id,
			"type", f.Type,
			"error", err,
		)
	}
}

func mustJSON(logger *slog.Logger, v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		logger.Error("marshal frame payload failed", "error", err)
		return nil
	}
	return b
}
