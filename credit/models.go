// Package credit defines the append-only currency ledger entries.
package credit

import (
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/xraph/debate/types"
)

// Reason explains why a ledger entry was written.
type Reason string

const (
	ReasonPurchase      Reason = "purchase"       // credits bought through the payment provider
	ReasonBonus         Reason = "bonus"          // promotional grant
	ReasonRefund        Reason = "refund"         // money returned
	ReasonAdjustment    Reason = "adjustment"     // manual correction
	ReasonMatchTop3     Reason = "match_top3"     // spent on MATCH_TOP3
	ReasonMatchAll      Reason = "match_all"      // spent on MATCH_ALL
	ReasonQuestionLimit Reason = "question_limit" // spent on QUESTION_LIMIT_10
	ReasonFeature       Reason = "feature"        // spent on any other feature
)

// Valid reports whether r is a known reason.
func (r Reason) Valid() bool {
	switch r {
	case ReasonPurchase, ReasonBonus, ReasonRefund, ReasonAdjustment,
		ReasonMatchTop3, ReasonMatchAll, ReasonQuestionLimit, ReasonFeature:
		return true
	}
	return false
}

// Entry is one immutable ledger line. A participant's balance is the sum
// of their entry amounts.
type Entry struct {
	// ID is assigned by the store and increases with insertion order.
	ID            snowflake.ID  `json:"id"`
	ParticipantID string        `json:"participantId"`
	Amount        types.Credits `json:"amount"`
	Reason        Reason        `json:"reason"`
	CreatedAt     time.Time     `json:"createdAt"`
}

// IsDebit reports whether the entry spends credits.
func (e *Entry) IsDebit() bool { return e.Amount.IsNegative() }

// ListOpts bounds a history query.
type ListOpts struct {
	// Limit caps the number of entries returned; zero means no cap.
	Limit int
}
