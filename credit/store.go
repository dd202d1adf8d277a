package credit

import (
	"context"

	"github.com/xraph/debate/types"
)

// Store persists ledger entries. Implementations assign Entry.ID.
type Store interface {
	AppendEntry(ctx context.Context, e *Entry) error

	// AppendIfCovered appends a debit entry only if the participant's
	// balance stays non-negative. It returns the balance after the append
	// or, when refused, the unchanged balance with ok == false.
	AppendIfCovered(ctx context.Context, e *Entry) (balance types.Credits, ok bool, err error)

	Balance(ctx context.Context, participantID string) (types.Credits, error)

	// ListEntries returns the participant's entries newest-first.
	ListEntries(ctx context.Context, participantID string, opts ListOpts) ([]*Entry, error)
}
