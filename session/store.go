package session

import "context"

// Store persists sessions.
type Store interface {
	CreateSession(ctx context.Context, s *Session) error

	// GetSession returns a copy of the stored session.
	GetSession(ctx context.Context, sessionID string) (*Session, error)

	// UpdateSession runs fn against the stored session while holding that
	// session's lock. If fn returns an error the session must be left as it
	// was. On success a copy of the updated session is returned.
	UpdateSession(ctx context.Context, sessionID string, fn func(*Session) error) (*Session, error)
}
