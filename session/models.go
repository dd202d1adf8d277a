// Package session defines the quiz session aggregate: questions, responses
// and the participant roster, plus the read-only projections derived from it.
package session

import (
	"fmt"
	"time"

	"github.com/xraph/debate/id"
	"github.com/xraph/debate/types"
)

// Status is the stored lifecycle status of a session.
type Status string

const (
	StatusLive    Status = "live"
	StatusActive  Status = "active"
	StatusExpired Status = "expired"
)

// Question is a two-option prompt published by the session owner.
type Question struct {
	ID           string    `json:"id"`
	Prompt       string    `json:"prompt"`
	Options      []string  `json:"options"`
	TimerSeconds int       `json:"timerSeconds,omitempty"`
	AddedAt      time.Time `json:"addedAt"`
}

// HasOption reports whether option is one of the question's options.
func (q *Question) HasOption(option string) bool {
	for _, o := range q.Options {
		if o == option {
			return true
		}
	}
	return false
}

// Response is a participant's answer to one question.
type Response struct {
	ID            string    `json:"id"`
	ParticipantID string    `json:"participantId"`
	QuestionID    string    `json:"questionId"`
	SessionID     string    `json:"sessionId"`
	OptionChosen  string    `json:"optionChosen"`
	AnsweredAt    time.Time `json:"answeredAt"`
}

// Participant is a member of a session's roster. Connected mirrors whether
// the router currently holds a live connection for the participant; the
// connection itself is owned by the router.
type Participant struct {
	ID           string    `json:"id"`
	Name         string    `json:"name,omitempty"`
	Connected    bool      `json:"connected"`
	IsOwner      bool      `json:"isOwner"`
	IsActive     bool      `json:"isActive"`
	JoinedAt     time.Time `json:"joinedAt"`
	LastActiveAt time.Time `json:"lastActiveAt"`
}

// Session is the aggregate root. QuestionOrder is the canonical order of
// answer vectors and always matches the order of Questions.
type Session struct {
	types.Entity

	ID            id.ID      `json:"id"`
	OwnerID       string     `json:"ownerId"`
	Status        Status     `json:"status"`
	Questions     []Question `json:"questions"`
	QuestionOrder []string   `json:"questionOrder"`
	Responses     []Response `json:"responses"`
	Participants  *Roster    `json:"participants"`
	ExpiresAt     time.Time  `json:"expiresAt"`
}

// DefaultExpiry returns the expiry of a session created at now: three
// calendar months later.
func DefaultExpiry(now time.Time) time.Time {
	return now.UTC().AddDate(0, 3, 0)
}

// New creates a live session owned by ownerID, created at now.
func New(sessionID id.ID, ownerID string, now, expiresAt time.Time) *Session {
	return &Session{
		Entity:        types.NewEntityAt(now),
		ID:            sessionID,
		OwnerID:       ownerID,
		Status:        StatusLive,
		Questions:     []Question{},
		QuestionOrder: []string{},
		Responses:     []Response{},
		Participants:  NewRoster(),
		ExpiresAt:     expiresAt.UTC(),
	}
}

// IsExpired reports whether the session is past its expiry at now.
// The stored Status is not changed.
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// FindQuestion returns the question with the given id.
func (s *Session) FindQuestion(questionID string) (*Question, bool) {
	for i := range s.Questions {
		if s.Questions[i].ID == questionID {
			return &s.Questions[i], true
		}
	}
	return nil, false
}

// HasResponded reports whether participantID already answered questionID.
func (s *Session) HasResponded(participantID, questionID string) bool {
	for i := range s.Responses {
		r := &s.Responses[i]
		if r.ParticipantID == participantID && r.QuestionID == questionID {
			return true
		}
	}
	return false
}

// ResponseVector returns the participant's chosen option for every question
// in canonical order, with "" where they have not answered.
func (s *Session) ResponseVector(participantID string) []string {
	chosen := make(map[string]string)
	for i := range s.Responses {
		r := &s.Responses[i]
		if r.ParticipantID == participantID {
			chosen[r.QuestionID] = r.OptionChosen
		}
	}

	vector := make([]string, len(s.QuestionOrder))
	for i, qid := range s.QuestionOrder {
		vector[i] = chosen[qid]
	}
	return vector
}

// AnsweredCount returns how many questions the participant has answered.
func (s *Session) AnsweredCount(participantID string) int {
	n := 0
	for i := range s.Responses {
		if s.Responses[i].ParticipantID == participantID {
			n++
		}
	}
	return n
}

// HasCompleted reports whether the participant answered every question of a
// non-empty session.
func (s *Session) HasCompleted(participantID string) bool {
	total := len(s.QuestionOrder)
	return total > 0 && s.AnsweredCount(participantID) == total
}

// Signature summarizes the session's size as "questions:responses:participants".
// Two states with equal counts share a signature even if their contents differ.
func (s *Session) Signature() string {
	return fmt.Sprintf("%d:%d:%d", len(s.Questions), len(s.Responses), s.Participants.Len())
}

// Clone returns a deep copy that shares no mutable state with s.
func (s *Session) Clone() *Session {
	c := *s
	c.Questions = make([]Question, len(s.Questions))
	for i, q := range s.Questions {
		q.Options = append([]string(nil), q.Options...)
		c.Questions[i] = q
	}
	c.QuestionOrder = append([]string{}, s.QuestionOrder...)
	c.Responses = append([]Response{}, s.Responses...)
	c.Participants = s.Participants.Clone()
	return &c
}
