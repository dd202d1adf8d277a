package router

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/xraph/debate"
	"github.com/xraph/debate/match"
	"github.com/xraph/debate/session"
)

// HandleFrame runs one inbound command for c. Failures are reported to c
// only.
func (r *Router) HandleFrame(ctx context.Context, c *Conn, f Frame) {
	switch f.Type {
	case CmdSessionCreate:
		r.handleCreate(ctx, c, f)
	case CmdSessionJoin:
		r.handleJoin(ctx, c, f)
	case CmdQuestionAdd:
		r.handleQuestionAdd(ctx, c, f)
	case CmdQuestionUnlock:
		r.handleQuestionUnlock(ctx, c, f)
	case CmdResponseSubmit:
		r.handleResponse(ctx, c, f)
	case CmdMatchesGet:
		r.handleMatches(ctx, c, f)
	case CmdCreditsBalance:
		r.handleBalance(ctx, c, f)
	case CmdCreditsHistory:
		r.handleHistory(ctx, c, f)
	case CmdPing:
		r.reply(c, f, EvtPong, pong(time.Now()))
	default:
		r.writeError(c, f.RequestID, CodeUnsupported, "unsupported frame type")
	}
}

func (r *Router) reply(c *Conn, req Frame, typ string, payload any) {
	r.send(c, Frame{Type: typ, RequestID: req.RequestID, Payload: mustJSON(r.logger, payload)})
}

func decode(f Frame, v any) error {
	if len(f.Payload) == 0 {
		return nil
	}
	return json.Unmarshal(f.Payload, v)
}

func (r *Router) bound(c *Conn, f Frame) (binding, bool) {
	b, ok := r.binding(c)
	if !ok {
		r.writeError(c, f.RequestID, CodeNotJoined, "join a session first")
	}
	return b, ok
}

func (r *Router) handleCreate(ctx context.Context, c *Conn, f Frame) {
	var p createPayload
	if err := decode(f, &p); err != nil {
		r.writeError(c, f.RequestID, CodeInvalidArgument, "invalid session:create payload")
		return
	}
	pid := strings.TrimSpace(p.ParticipantID)
	if pid == "" {
		pid = r.identity(c)
	}

	s, err := r.engine.CreateSession(ctx, pid, p.Name)
	if err != nil {
		r.fail(c, f, err)
		return
	}
	sid := s.ID.String()
	if s, err = r.engine.JoinSession(ctx, sid, pid, p.Name); err != nil {
		r.fail(c, f, err)
		return
	}

	r.rebind(ctx, c, sid, pid)
	r.logger.Info("session opened over connection",
		"conn_id", c.id,
		"session_id", sid,
		"participant_id", pid,
	)

	r.replySession(ctx, c, f, EvtSessionCreated, s, pid)
}

func (r *Router) handleJoin(ctx context.Context, c *Conn, f Frame) {
	var p joinPayload
	if err := decode(f, &p); err != nil {
		r.writeError(c, f.RequestID, CodeInvalidArgument, "invalid session:join payload")
		return
	}
	sid := strings.TrimSpace(p.SessionID)
	if sid == "" {
		r.writeError(c, f.RequestID, CodeInvalidArgument, "sessionId is required")
		return
	}
	pid := strings.TrimSpace(p.ParticipantID)
	if pid == "" {
		pid = r.identity(c)
	}

	s, err := r.engine.JoinSession(ctx, sid, pid, p.Name)
	if err != nil {
		r.fail(c, f, err)
		return
	}

	r.rebind(ctx, c, sid, pid)

	name := p.Name
	if joined, ok := s.Participants.Get(pid); ok {
		name = joined.Name
	}
	r.broadcast(sid, c, Frame{
		Type:    EvtParticipantJoined,
		Payload: mustJSON(r.logger, participantEnvelope{SessionID: sid, ParticipantID: pid, Name: name}),
	})

	r.replySession(ctx, c, f, EvtSessionJoined, s, pid)
}

// rebind moves c to a new session, leaving the old one if this was the
// participant's last connection there.
func (r *Router) rebind(ctx context.Context, c *Conn, sessionID, participantID string) {
	prev, had := r.bind(c, sessionID, participantID)
	if had && (prev.sessionID != sessionID || prev.participantID != participantID) {
		r.leave(ctx, prev)
	}
}

func (r *Router) replySession(ctx context.Context, c *Conn, f Frame, typ string, s *session.Session, pid string) {
	sid := s.ID.String()
	view, err := r.engine.SessionView(ctx, sid, pid)
	if err != nil {
		r.fail(c, f, err)
		return
	}
	r.reply(c, f, typ, sessionEnvelope{SessionID: sid, ParticipantID: pid, State: view})
	r.broadcastState(ctx, s)
}

func (r *Router) handleQuestionAdd(ctx context.Context, c *Conn, f Frame) {
	b, ok := r.bound(c, f)
	if !ok {
		return
	}
	var p questionPayload
	if err := decode(f, &p); err != nil {
		r.writeError(c, f.RequestID, CodeInvalidArgument, "invalid question:add payload")
		return
	}

	res, err := r.engine.PublishQuestion(ctx, b.sessionID, b.participantID, debate.QuestionDraft{
		Prompt:        p.Prompt,
		Options:       p.Options,
		TimerSeconds:  p.TimerSeconds,
		OwnerResponse: p.OwnerResponse,
	})
	if err != nil {
		r.fail(c, f, err)
		return
	}

	r.reply(c, f, EvtQuestionAdded, questionEnvelope{Question: res.Question, Response: res.Response})
	r.broadcast(b.sessionID, c, Frame{
		Type:    EvtQuestionAdded,
		Payload: mustJSON(r.logger, questionEnvelope{Question: res.Question}),
	})
	r.broadcastState(ctx, res.Session)
}

func (r *Router) handleQuestionUnlock(ctx context.Context, c *Conn, f Frame) {
	b, ok := r.bound(c, f)
	if !ok {
		return
	}

	limit, res, err := r.engine.UnlockQuestionLimit(ctx, b.sessionID, b.participantID)
	if err != nil {
		r.fail(c, f, err)
		return
	}

	r.reply(c, f, EvtQuestionLimitUnlocked, limitUnlockedEnvelope{
		NewLimit: limit,
		Charged:  res.Charged,
		Balance:  res.Balance,
	})
	if res.Charged {
		r.Notify(b.participantID, res.Balance, "")
	}
	r.pushState(ctx, c, b)
}

func (r *Router) handleResponse(ctx context.Context, c *Conn, f Frame) {
	b, ok := r.bound(c, f)
	if !ok {
		return
	}
	var p responsePayload
	if err := decode(f, &p); err != nil {
		r.writeError(c, f.RequestID, CodeInvalidArgument, "invalid response:submit payload")
		return
	}

	resp, err := r.engine.RecordResponse(ctx, b.sessionID, session.Response{
		ParticipantID: b.participantID,
		QuestionID:    p.QuestionID,
		OptionChosen:  p.OptionChosen,
	})
	if err != nil {
		r.fail(c, f, err)
		return
	}

	r.reply(c, f, EvtResponseRecorded, responseEnvelope{Response: resp})
	r.pushSessionState(ctx, b.sessionID)
}

func (r *Router) handleMatches(ctx context.Context, c *Conn, f Frame) {
	b, ok := r.bound(c, f)
	if !ok {
		return
	}
	var p matchesPayload
	if err := decode(f, &p); err != nil {
		r.writeError(c, f.RequestID, CodeInvalidArgument, "invalid matches:get payload")
		return
	}
	tier, ok := match.ParseTier(p.Tier)
	if !ok {
		r.writeError(c, f.RequestID, CodeInvalidArgument, "unknown tier "+p.Tier)
		return
	}

	res, err := r.engine.RevealMatches(ctx, b.sessionID, b.participantID, tier)
	if err != nil {
		r.fail(c, f, err)
		return
	}

	r.reply(c, f, EvtMatchesResult, matchesEnvelope{Tier: res.Tier, Matches: res.Matches, Cost: res.Cost})
	if res.Cost.IsPositive() {
		if balance, err := r.engine.Balance(ctx, b.participantID); err == nil {
			r.Notify(b.participantID, balance, "")
		}
	}
}

func (r *Router) handleBalance(ctx context.Context, c *Conn, f Frame) {
	pid := r.identity(c)
	balance, err := r.engine.Balance(ctx, pid)
	if err != nil {
		r.fail(c, f, err)
		return
	}
	r.reply(c, f, EvtCreditsBalance, balanceEnvelope{ParticipantID: pid, Balance: balance})
}

func (r *Router) handleHistory(ctx context.Context, c *Conn, f Frame) {
	var p historyPayload
	if err := decode(f, &p); err != nil {
		r.writeError(c, f.RequestID, CodeInvalidArgument, "invalid credits:history payload")
		return
	}
	if p.Limit <= 0 {
		p.Limit = defaultHistoryLimit
	}
	p.Limit = min(p.Limit, maxHistoryLimit)

	pid := r.identity(c)
	entries, err := r.engine.History(ctx, pid, p.Limit)
	if err != nil {
		r.fail(c, f, err)
		return
	}
	r.reply(c, f, EvtCreditsHistory, historyEnvelope{ParticipantID: pid, Entries: entries})
}

// pushState sends c's participant a fresh view without touching the rest
// of the session.
func (r *Router) pushState(ctx context.Context, c *Conn, b binding) {
	view, err := r.engine.SessionView(ctx, b.sessionID, b.participantID)
	if err != nil {
		r.logger.Warn("session view failed", "session_id", b.sessionID, "error", err)
		return
	}
	r.send(c, Frame{Type: EvtQuizState, Payload: mustJSON(r.logger, stateEnvelope{State: view})})
}

func (r *Router) pushSessionState(ctx context.Context, sessionID string) {
	s, err := r.engine.GetSession(ctx, sessionID)
	if err != nil {
		r.logger.Warn("load session failed", "session_id", sessionID, "error", err)
		return
	}
	r.broadcastState(ctx, s)
}

// fail maps an engine error to the event the client expects.
func (r *Router) fail(c *Conn, f Frame, err error) {
	if ib, ok := debate.AsInsufficientBalance(err); ok {
		r.reply(c, f, EvtCreditsInsufficient, insufficientEnvelope{
			Feature:  ib.Feature,
			Required: ib.Required,
			Current:  ib.Current,
		})
		return
	}
	if ql, ok := debate.AsQuestionLimit(err); ok {
		r.reply(c, f, EvtQuestionLimitReached, limitReachedEnvelope{
			Current:     ql.Current,
			Max:         ql.Max,
			UpgradeCost: ql.UpgradeCost,
		})
		return
	}

	code := errorCode(err)
	if code == CodeInternal {
		r.logger.Error("command failed",
			"conn_id", c.id,
			"type", f.Type,
			"error", err,
		)
		r.writeError(c, f.RequestID, code, "internal error")
		return
	}
	r.writeError(c, f.RequestID, code, err.Error())
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, debate.ErrSessionExpired):
		return CodeSessionExpired
	case debate.IsValidation(err):
		return CodeInvalidArgument
	case debate.IsNotFound(err):
		return CodeNotFound
	case debate.IsDuplicate(err):
		return CodeAlreadyExists
	case debate.IsPermission(err):
		return CodeForbidden
	default:
		return CodeInternal
	}
}

func (r *Router) writeError(c *Conn, requestID, code, message string) {
	r.send(c, Frame{
		Type:      EvtError,
		RequestID: requestID,
		Payload:   mustJSON(r.logger, errorEnvelope{Code: code, Message: message}),
	})
}
