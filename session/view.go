package session

import "time"

// View is what one participant sees of a session: every question, the
// roster, and their own answers. It is pushed whole after each change.
type View struct {
	SessionID     string            `json:"sessionId"`
	Status        Status            `json:"status"`
	OwnerID       string            `json:"ownerId"`
	ExpiresAt     time.Time         `json:"expiresAt"`
	Questions     []Question        `json:"questions"`
	Participants  []ParticipantView `json:"participants"`
	Answers       []string          `json:"answers"`
	Completed     bool              `json:"completed"`
	QuestionLimit int               `json:"questionLimit,omitempty"`
}

// ParticipantView is the roster entry exposed to other participants.
type ParticipantView struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	IsOwner   bool   `json:"isOwner"`
	IsActive  bool   `json:"isActive"`
	Answered  int    `json:"answered"`
	Completed bool   `json:"completed"`
}

// ViewFor builds the projection for participantID.
func (s *Session) ViewFor(participantID string) View {
	v := View{
		SessionID:    s.ID.String(),
		Status:       s.Status,
		OwnerID:      s.OwnerID,
		ExpiresAt:    s.ExpiresAt,
		Questions:    append([]Question{}, s.Questions...),
		Participants: make([]ParticipantView, 0, s.Participants.Len()),
		Answers:      s.ResponseVector(participantID),
		Completed:    s.HasCompleted(participantID),
	}
	for _, p := range s.Participants.All() {
		v.Participants = append(v.Participants, ParticipantView{
			ID:        p.ID,
			Name:      p.Name,
			IsOwner:   p.IsOwner,
			IsActive:  p.IsActive,
			Answered:  s.AnsweredCount(p.ID),
			Completed: s.HasCompleted(p.ID),
		})
	}
	return v
}
