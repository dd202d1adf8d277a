package debate

import (
	"context"
	"strings"

	"github.com/xraph/debate/entitlement"
	"github.com/xraph/debate/id"
	"github.com/xraph/debate/session"
)

// QuestionDraft is a question as submitted by the session owner.
type QuestionDraft struct {
	Prompt       string
	Options      []string
	TimerSeconds int

	// OwnerResponse, when set, is recorded as the owner's own answer in the
	// same step as the question.
	OwnerResponse string
}

// PublishResult is the outcome of PublishQuestion.
type PublishResult struct {
	Question session.Question
	Response *session.Response
	Session  *session.Session
}

// ──────────────────────────────────────────────────
// Session lifecycle
// ──────────────────────────────────────────────────

// CreateSession creates a live session with ownerID as its first and only
// owner.
func (e *Engine) CreateSession(ctx context.Context, ownerID, ownerName string) (*session.Session, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, invalid("ownerId", "must not be empty")
	}

	now := e.now().UTC()
	s := session.New(id.NewSessionID(), ownerID, now, e.expiry(now))
	s.Participants.Put(session.Participant{
		ID:           ownerID,
		Name:         ownerName,
		IsOwner:      true,
		IsActive:     true,
		JoinedAt:     now,
		LastActiveAt: now,
	})

	if err := e.store.CreateSession(ctx, s); err != nil {
		return nil, err
	}

	e.plugins.EmitSessionCreated(ctx, s)
	e.logger.Info("session created",
		"session_id", s.ID.String(),
		"owner_id", ownerID,
		"expires_at", s.ExpiresAt,
	)

	return s, nil
}

// GetSession returns a snapshot of the session.
func (e *Engine) GetSession(ctx context.Context, sessionID string) (*session.Session, error) {
	return e.store.GetSession(ctx, sessionID)
}

// AddParticipant inserts p into the roster, or overwrites the entry with the
// same id. A second, different owner is rejected.
func (e *Engine) AddParticipant(ctx context.Context, sessionID string, p session.Participant) (*session.Session, error) {
	if strings.TrimSpace(p.ID) == "" {
		return nil, invalid("participantId", "must not be empty")
	}

	return e.store.UpdateSession(ctx, sessionID, func(s *session.Session) error {
		return putParticipant(s, p)
	})
}

func putParticipant(s *session.Session, p session.Participant) error {
	if p.IsOwner {
		if owner, ok := s.Participants.Owner(); ok && owner.ID != p.ID {
			return ErrDuplicateOwner
		}
	}
	s.Participants.Put(p)
	return nil
}

// JoinSession adds participantID to the session as active and connected. A
// participant rejoining under the same id keeps their owner flag and join
// time.
func (e *Engine) JoinSession(ctx context.Context, sessionID, participantID, name string) (*session.Session, error) {
	participantID = strings.TrimSpace(participantID)
	if participantID == "" {
		return nil, invalid("participantId", "must not be empty")
	}

	now := e.now().UTC()
	var joined session.Participant
	s, err := e.store.UpdateSession(ctx, sessionID, func(s *session.Session) error {
		if s.IsExpired(now) {
			return ErrSessionExpired
		}

		p := session.Participant{ID: participantID, Name: name, JoinedAt: now}
		if existing, ok := s.Participants.Get(participantID); ok {
			p = *existing
			if name != "" {
				p.Name = name
			}
		}
		p.IsActive = true
		p.Connected = true
		p.LastActiveAt = now
		s.Touch(now)

		joined = p
		return putParticipant(s, p)
	})
	if err != nil {
		return nil, err
	}

	e.plugins.EmitParticipantJoined(ctx, sessionID, &joined)
	e.logger.Info("participant joined",
		"session_id", sessionID,
		"participant_id", participantID,
		"participants", s.Participants.Len(),
	)

	return s, nil
}

// LeaveSession marks the participant inactive and disconnected. They stay
// in the roster and their responses keep counting.
func (e *Engine) LeaveSession(ctx context.Context, sessionID, participantID string) (*session.Session, error) {
	now := e.now().UTC()
	s, err := e.store.UpdateSession(ctx, sessionID, func(s *session.Session) error {
		p, ok := s.Participants.Get(participantID)
		if !ok {
			return ErrParticipantNotFound
		}
		p.IsActive = false
		p.Connected = false
		p.LastActiveAt = now
		s.Touch(now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.plugins.EmitParticipantLeft(ctx, sessionID, participantID)
	e.logger.Info("participant left",
		"session_id", sessionID,
		"participant_id", participantID,
	)

	return s, nil
}

// ──────────────────────────────────────────────────
// Questions and responses
// ──────────────────────────────────────────────────

func validateQuestion(q *session.Question) error {
	if strings.TrimSpace(q.ID) == "" {
		return invalid("id", "must not be empty")
	}
	if strings.TrimSpace(q.Prompt) == "" {
		return invalid("prompt", "must not be empty")
	}
	if len(q.Options) != 2 {
		return invalid("options", "exactly two options are required")
	}
	for _, o := range q.Options {
		if strings.TrimSpace(o) == "" {
			return invalid("options", "options must not be empty")
		}
	}
	if q.Options[0] == q.Options[1] {
		return invalid("options", "options must differ")
	}
	if q.TimerSeconds < 0 {
		return invalid("timerSeconds", "must not be negative")
	}
	return nil
}

func appendQuestion(s *session.Session, q session.Question) error {
	if _, exists := s.FindQuestion(q.ID); exists {
		return ErrDuplicateQuestion
	}
	s.Questions = append(s.Questions, q)
	s.QuestionOrder = append(s.QuestionOrder, q.ID)
	return nil
}

// AddQuestion appends q to the session without owner or quota checks.
// Callers acting for a participant should use PublishQuestion.
func (e *Engine) AddQuestion(ctx context.Context, sessionID string, q session.Question) (*session.Question, error) {
	if err := validateQuestion(&q); err != nil {
		return nil, err
	}
	q.Options = append([]string(nil), q.Options...)
	if q.AddedAt.IsZero() {
		q.AddedAt = e.now().UTC()
	}

	if _, err := e.store.UpdateSession(ctx, sessionID, func(s *session.Session) error {
		if err := appendQuestion(s, q); err != nil {
			return err
		}
		s.Touch(q.AddedAt)
		return nil
	}); err != nil {
		return nil, err
	}

	e.plugins.EmitQuestionAdded(ctx, sessionID, &q)
	return &q, nil
}

// PublishQuestion adds a question on behalf of participantID. Only the
// owner may publish, and only while under their question limit. The
// optional owner answer is validated before anything is written.
func (e *Engine) PublishQuestion(ctx context.Context, sessionID, participantID string, d QuestionDraft) (*PublishResult, error) {
	now := e.now().UTC()
	q := session.Question{
		ID:           id.NewQuestionID().String(),
		Prompt:       strings.TrimSpace(d.Prompt),
		Options:      append([]string(nil), d.Options...),
		TimerSeconds: d.TimerSeconds,
		AddedAt:      now,
	}
	if err := validateQuestion(&q); err != nil {
		return nil, err
	}
	if d.OwnerResponse != "" && !q.HasOption(d.OwnerResponse) {
		return nil, ErrInvalidOption
	}

	limit, err := e.QuestionLimit(ctx, participantID, entitlement.SessionResource(sessionID))
	if err != nil {
		return nil, err
	}

	var resp *session.Response
	var limitErr *QuestionLimitError
	s, err := e.store.UpdateSession(ctx, sessionID, func(s *session.Session) error {
		if s.IsExpired(now) {
			return ErrSessionExpired
		}
		p, ok := s.Participants.Get(participantID)
		if !ok || !p.IsOwner {
			return ErrNotOwner
		}
		if count := len(s.Questions); !canAddQuestion(count, limit, p.IsOwner) {
			limitErr = &QuestionLimitError{Current: count, Max: limit}
			if limit < UpgradedQuestionLimit {
				limitErr.UpgradeCost = e.Price(entitlement.FeatureQuestionLimit10)
			}
			return limitErr
		}
		if err := appendQuestion(s, q); err != nil {
			return err
		}
		if d.OwnerResponse != "" {
			r := session.Response{
				ID:            id.NewResponseID().String(),
				ParticipantID: participantID,
				QuestionID:    q.ID,
				SessionID:     sessionID,
				OptionChosen:  d.OwnerResponse,
				AnsweredAt:    now,
			}
			s.Responses = append(s.Responses, r)
			resp = &r
		}
		p.LastActiveAt = now
		s.Touch(now)
		return nil
	})
	if err != nil {
		if limitErr != nil {
			e.plugins.EmitQuestionLimitReached(ctx, sessionID, limitErr.Current, limitErr.Max)
			e.logger.Info("question limit reached",
				"session_id", sessionID,
				"current", limitErr.Current,
				"limit", limitErr.Max,
			)
		}
		return nil, err
	}

	e.plugins.EmitQuestionAdded(ctx, sessionID, &q)
	if resp != nil {
		e.plugins.EmitResponseRecorded(ctx, resp)
	}
	e.logger.Info("question added",
		"session_id", sessionID,
		"question_id", q.ID,
		"questions", len(s.Questions),
		"limit", limit,
	)

	return &PublishResult{Question: q, Response: resp, Session: s}, nil
}

// RecordResponse stores a participant's answer. Each participant may answer
// each question once, with one of its two options.
func (e *Engine) RecordResponse(ctx context.Context, sessionID string, r session.Response) (*session.Response, error) {
	switch {
	case strings.TrimSpace(r.ParticipantID) == "":
		return nil, invalid("participantId", "must not be empty")
	case strings.TrimSpace(r.QuestionID) == "":
		return nil, invalid("questionId", "must not be empty")
	case r.OptionChosen == "":
		return nil, invalid("optionChosen", "must not be empty")
	}

	now := e.now().UTC()
	r.ID = id.NewResponseID().String()
	r.SessionID = sessionID
	r.AnsweredAt = now

	if _, err := e.store.UpdateSession(ctx, sessionID, func(s *session.Session) error {
		if s.IsExpired(now) {
			return ErrSessionExpired
		}
		p, ok := s.Participants.Get(r.ParticipantID)
		if !ok {
			return ErrParticipantNotFound
		}
		q, ok := s.FindQuestion(r.QuestionID)
		if !ok {
			return ErrQuestionNotFound
		}
		if !q.HasOption(r.OptionChosen) {
			return ErrInvalidOption
		}
		if s.HasResponded(r.ParticipantID, r.QuestionID) {
			return ErrDuplicateResponse
		}
		s.Responses = append(s.Responses, r)
		p.LastActiveAt = now
		s.Touch(now)
		return nil
	}); err != nil {
		return nil, err
	}

	e.plugins.EmitResponseRecorded(ctx, &r)
	e.logger.Debug("response recorded",
		"session_id", sessionID,
		"participant_id", r.ParticipantID,
		"question_id", r.QuestionID,
	)

	return &r, nil
}

// SessionView returns the session as participantID sees it. The owner's
// view also carries their current question limit.
func (e *Engine) SessionView(ctx context.Context, sessionID, participantID string) (*session.View, error) {
	s, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return e.viewOf(ctx, s, participantID)
}

func (e *Engine) viewOf(ctx context.Context, s *session.Session, participantID string) (*session.View, error) {
	v := s.ViewFor(participantID)
	if p, ok := s.Participants.Get(participantID); ok && p.IsOwner {
		limit, err := e.QuestionLimit(ctx, participantID, entitlement.SessionResource(s.ID.String()))
		if err != nil {
			return nil, err
		}
		v.QuestionLimit = limit
	}
	return &v, nil
}

// SessionViews builds the view of every active participant of s.
func (e *Engine) SessionViews(ctx context.Context, s *session.Session) (map[string]*session.View, error) {
	views := make(map[string]*session.View)
	for _, p := range s.Participants.All() {
		if !p.IsActive {
			continue
		}
		v, err := e.viewOf(ctx, s, p.ID)
		if err != nil {
			return nil, err
		}
		views[p.ID] = v
	}
	return views, nil
}
