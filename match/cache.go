package match

import (
	"context"
	"time"
)

// Key identifies one cached ranking. Signature is the session's count
// signature at computation time, so any change to the number of questions,
// responses or participants misses the cache.
type Key struct {
	ParticipantID string
	SessionID     string
	Signature     string
}

// String renders the key as "participant:session:signature".
func (k Key) String() string {
	return k.ParticipantID + ":" + k.SessionID + ":" + k.Signature
}

// Cache memoizes full rankings.
type Cache interface {
	// GetCached returns the ranking for key, or ErrCacheMiss when absent,
	// superseded or past its TTL.
	GetCached(ctx context.Context, key Key) ([]Match, error)
	SetCached(ctx context.Context, key Key, ranked []Match, ttl time.Duration) error
}
