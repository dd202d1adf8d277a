package debate

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/debate/entitlement"
	"github.com/xraph/debate/match"
	"github.com/xraph/debate/session"
	"github.com/xraph/debate/types"
)

// MatchResult is a tier slice of a participant's ranking.
type MatchResult struct {
	Tier    match.Tier    `json:"tier"`
	Matches []match.Match `json:"matches"`
	Cost    types.Credits `json:"cost"`
}

// TierFeature returns the entitlement that unlocks tier.
func TierFeature(t match.Tier) (entitlement.Feature, error) {
	switch t {
	case match.TierPreview:
		return entitlement.FeatureMatchPreview, nil
	case match.TierTop3:
		return entitlement.FeatureMatchTop3, nil
	case match.TierAll:
		return entitlement.FeatureMatchAll, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownTier, t)
	}
}

// MatchesFor returns participantID's full ranking in sessionID, from the
// cache when the session has not changed shape since it was computed.
func (e *Engine) MatchesFor(ctx context.Context, sessionID, participantID string) ([]match.Match, bool, error) {
	s, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}
	return e.rank(ctx, s, participantID)
}

func (e *Engine) rank(ctx context.Context, s *session.Session, participantID string) ([]match.Match, bool, error) {
	key := match.Key{
		ParticipantID: participantID,
		SessionID:     s.ID.String(),
		Signature:     s.Signature(),
	}

	ranked, err := e.store.GetCached(ctx, key)
	if err == nil {
		return ranked, true, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		return nil, false, fmt.Errorf("match cache: %w", err)
	}

	ranked = match.For(s, participantID)
	if err := e.store.SetCached(ctx, key, ranked, e.matchCacheTTL); err != nil {
		e.logger.Warn("match cache write failed",
			"key", key.String(),
			"error", err,
		)
	}
	return ranked, false, nil
}

// MatchesByTier returns the tier slice of participantID's ranking without
// any entitlement check.
func (e *Engine) MatchesByTier(ctx context.Context, sessionID, participantID string, tier match.Tier) ([]match.Match, error) {
	if _, err := TierFeature(tier); err != nil {
		return nil, err
	}

	s, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	ranked, cached, err := e.rank(ctx, s, participantID)
	if err != nil {
		return nil, err
	}
	out := match.Slice(ranked, tier)

	e.plugins.EmitMatchesComputed(ctx, match.Key{
		ParticipantID: participantID,
		SessionID:     sessionID,
		Signature:     s.Signature(),
	}, tier, len(out), cached)

	return out, nil
}

// RevealMatches buys the feature behind tier if needed and returns the tier
// slice. The cost is zero when participantID already had access.
func (e *Engine) RevealMatches(ctx context.Context, sessionID, participantID string, tier match.Tier) (*MatchResult, error) {
	f, err := TierFeature(tier)
	if err != nil {
		return nil, err
	}

	s, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if _, ok := s.Participants.Get(participantID); !ok {
		return nil, ErrParticipantNotFound
	}

	res, err := e.Purchase(ctx, participantID, sessionID, f)
	if err != nil {
		return nil, err
	}

	matches, err := e.MatchesByTier(ctx, sessionID, participantID, tier)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("matches revealed",
		"session_id", sessionID,
		"participant_id", participantID,
		"tier", string(tier),
		"count", len(matches),
		"charged", res.Charged,
	)

	var cost types.Credits
	if res.Charged {
		cost = res.Cost
	}
	return &MatchResult{Tier: tier, Matches: matches, Cost: cost}, nil
}
