package debate

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"

	"github.com/xraph/debate/credit"
	"github.com/xraph/debate/entitlement"
	"github.com/xraph/debate/types"
)

// DefaultPrices returns the built-in feature price table.
func DefaultPrices() map[entitlement.Feature]types.Credits {
	return map[entitlement.Feature]types.Credits{
		entitlement.FeatureMatchPreview:    0,
		entitlement.FeatureMatchTop3:       2,
		entitlement.FeatureMatchAll:        5,
		entitlement.FeatureQuestionLimit10: 3,
	}
}

// Prices returns a copy of the engine's price table.
func (e *Engine) Prices() map[entitlement.Feature]types.Credits {
	return maps.Clone(e.prices)
}

// Price returns the configured cost of f.
func (e *Engine) Price(f entitlement.Feature) types.Credits {
	return e.prices[f]
}

// ReasonFor maps a feature to the ledger reason written when it is bought.
func ReasonFor(f entitlement.Feature) credit.Reason {
	switch f {
	case entitlement.FeatureMatchTop3:
		return credit.ReasonMatchTop3
	case entitlement.FeatureMatchAll:
		return credit.ReasonMatchAll
	case entitlement.FeatureQuestionLimit10:
		return credit.ReasonQuestionLimit
	default:
		return credit.ReasonFeature
	}
}

// PurchaseResult is the outcome of PurchaseOrVerify.
type PurchaseResult struct {
	// Granted is always true on a nil error.
	Granted bool `json:"granted"`

	// Charged reports whether this call debited the ledger.
	Charged bool          `json:"charged"`
	Cost    types.Credits `json:"cost"`
	Balance types.Credits `json:"balance"`

	Grant *entitlement.Grant `json:"grant,omitempty"`
}

// PurchaseOrVerify makes sure participantID can use f on resourceID,
// charging cost only when they do not already have access. Concurrent calls
// for the same participant, resource and feature charge at most once.
//
// When the balance does not cover cost the error is an
// *InsufficientBalanceError and nothing is written.
func (e *Engine) PurchaseOrVerify(ctx context.Context, participantID, resourceID string, f entitlement.Feature, cost types.Credits) (*PurchaseResult, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFeature, f)
	}
	if strings.TrimSpace(participantID) == "" {
		return nil, invalid("participantId", "must not be empty")
	}
	if strings.TrimSpace(resourceID) == "" {
		return nil, invalid("resourceId", "must not be empty")
	}
	if cost.IsNegative() {
		return nil, invalid("cost", "must not be negative")
	}

	unlock := e.locks.Lock(entitlement.Key(participantID, resourceID, f))
	defer unlock()

	has, err := e.HasAccess(ctx, participantID, resourceID, f)
	if err != nil {
		return nil, err
	}
	if has {
		balance, err := e.store.Balance(ctx, participantID)
		if err != nil {
			return nil, err
		}
		e.plugins.EmitPurchaseCompleted(ctx, participantID, resourceID, f, 0)
		return &PurchaseResult{Granted: true, Balance: balance}, nil
	}

	if cost.IsZero() {
		g, err := e.Grant(ctx, participantID, resourceID, f)
		if err != nil {
			return nil, err
		}
		balance, err := e.store.Balance(ctx, participantID)
		if err != nil {
			return nil, err
		}
		e.plugins.EmitPurchaseCompleted(ctx, participantID, resourceID, f, 0)
		return &PurchaseResult{Granted: true, Balance: balance, Grant: g}, nil
	}

	entry := e.newEntry(participantID, cost.Negate(), ReasonFor(f))
	balance, ok, err := e.store.AppendIfCovered(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("debit: %w", err)
	}
	if !ok {
		e.plugins.EmitPurchaseDenied(ctx, participantID, resourceID, f, cost, balance)
		e.logger.Info("purchase denied",
			"participant_id", participantID,
			"resource_id", resourceID,
			"feature", string(f),
			"required", int64(cost),
			"current", int64(balance),
		)
		return nil, &InsufficientBalanceError{Feature: string(f), Required: cost, Current: balance}
	}
	e.recorded(ctx, entry)

	g, err := e.Grant(ctx, participantID, resourceID, f)
	if err != nil {
		return nil, err
	}

	e.plugins.EmitPurchaseCompleted(ctx, participantID, resourceID, f, cost)
	e.logger.Info("purchase completed",
		"participant_id", participantID,
		"resource_id", resourceID,
		"feature", string(f),
		"cost", int64(cost),
		"balance", int64(balance),
	)

	return &PurchaseResult{Granted: true, Charged: true, Cost: cost, Balance: balance, Grant: g}, nil
}

// Purchase buys f for participantID within sessionID at the configured
// price. The buyer must be on the session's roster, and only the owner may
// buy QUESTION_LIMIT_10.
func (e *Engine) Purchase(ctx context.Context, participantID, sessionID string, f entitlement.Feature) (*PurchaseResult, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFeature, f)
	}
	if strings.TrimSpace(participantID) == "" {
		return nil, invalid("participantId", "must not be empty")
	}

	s, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	p, ok := s.Participants.Get(participantID)
	if !ok {
		return nil, ErrParticipantNotFound
	}
	if f == entitlement.FeatureQuestionLimit10 && !p.IsOwner {
		return nil, ErrNotOwner
	}

	return e.PurchaseOrVerify(ctx, participantID, entitlement.SessionResource(sessionID), f, e.Price(f))
}

// UnlockQuestionLimit buys QUESTION_LIMIT_10 for the session owner and
// returns the new limit.
func (e *Engine) UnlockQuestionLimit(ctx context.Context, sessionID, participantID string) (int, *PurchaseResult, error) {
	s, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return 0, nil, err
	}
	if s.IsExpired(e.now()) {
		return 0, nil, ErrSessionExpired
	}
	if p, ok := s.Participants.Get(participantID); !ok || !p.IsOwner {
		return 0, nil, ErrNotOwner
	}

	res, err := e.Purchase(ctx, participantID, sessionID, entitlement.FeatureQuestionLimit10)
	if err != nil {
		return 0, nil, err
	}
	return UpgradedQuestionLimit, res, nil
}

// AsInsufficientBalance unwraps err into an *InsufficientBalanceError.
func AsInsufficientBalance(err error) (*InsufficientBalanceError, bool) {
	var ib *InsufficientBalanceError
	ok := errors.As(err, &ib)
	return ib, ok
}

// AsQuestionLimit unwraps err into a *QuestionLimitError.
func AsQuestionLimit(err error) (*QuestionLimitError, bool) {
	var ql *QuestionLimitError
	ok := errors.As(err, &ql)
	return ql, ok
}
