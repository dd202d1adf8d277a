package debate

import (
	"context"
	"fmt"
	"strings"

	"github.com/xraph/debate/credit"
	"github.com/xraph/debate/types"
)

// Record appends a signed ledger entry for participantID.
func (e *Engine) Record(ctx context.Context, participantID string, amount types.Credits, reason credit.Reason) (*credit.Entry, error) {
	if strings.TrimSpace(participantID) == "" {
		return nil, invalid("participantId", "must not be empty")
	}
	if !reason.Valid() {
		return nil, invalid("reason", fmt.Sprintf("unknown reason %q", reason))
	}

	entry := e.newEntry(participantID, amount, reason)
	if err := e.store.AppendEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("append entry: %w", err)
	}

	e.recorded(ctx, entry)
	return entry, nil
}

// Credit adds a non-negative amount to participantID's balance.
func (e *Engine) Credit(ctx context.Context, participantID string, amount types.Credits, reason credit.Reason) (*credit.Entry, error) {
	if amount.IsNegative() {
		return nil, invalid("amount", "credit amount must not be negative")
	}
	return e.Record(ctx, participantID, amount, reason)
}

// Debit removes a positive amount from participantID's balance. It does not
// check the balance; PurchaseOrVerify does.
func (e *Engine) Debit(ctx context.Context, participantID string, amount types.Credits, reason credit.Reason) (*credit.Entry, error) {
	if !amount.IsPositive() {
		return nil, invalid("amount", "debit amount must be positive")
	}
	return e.Record(ctx, participantID, amount.Negate(), reason)
}

// Balance returns the sum of participantID's ledger entries.
func (e *Engine) Balance(ctx context.Context, participantID string) (types.Credits, error) {
	return e.store.Balance(ctx, participantID)
}

// History returns participantID's ledger newest-first. A limit of zero or
// less returns every entry.
func (e *Engine) History(ctx context.Context, participantID string, limit int) ([]*credit.Entry, error) {
	return e.store.ListEntries(ctx, participantID, credit.ListOpts{Limit: limit})
}

func (e *Engine) newEntry(participantID string, amount types.Credits, reason credit.Reason) *credit.Entry {
	return &credit.Entry{
		ParticipantID: participantID,
		Amount:        amount,
		Reason:        reason,
		CreatedAt:     e.now().UTC(),
	}
}

func (e *Engine) recorded(ctx context.Context, entry *credit.Entry) {
	e.plugins.EmitCreditsRecorded(ctx, entry)
	e.logger.Info("ledger entry recorded",
		"participant_id", entry.ParticipantID,
		"amount", int64(entry.Amount),
		"reason", string(entry.Reason),
		"entry_id", entry.ID.String(),
	)
}
