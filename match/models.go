// Package match computes pairwise answer compatibility between session
// participants and slices the ranked result into purchasable tiers.
package match

import (
	"cmp"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/xraph/debate/session"
)

// Tier selects which slice of the ranked match list is returned.
type Tier string

const (
	TierPreview Tier = "PREVIEW"
	TierTop3    Tier = "TOP3"
	TierAll     Tier = "ALL"
)

// ParseTier parses a tier name case-insensitively. An empty string is the
// free preview tier.
func ParseTier(s string) (Tier, bool) {
	switch Tier(strings.ToUpper(strings.TrimSpace(s))) {
	case "", TierPreview:
		return TierPreview, true
	case TierTop3:
		return TierTop3, true
	case TierAll:
		return TierAll, true
	default:
		return "", false
	}
}

// Preview covers ranks [previewStart, previewEnd) of the list, the middle of
// the ranking rather than the top.
const (
	previewStart = 5
	previewEnd   = 7
	top3Size     = 3
)

// Match is one other participant and how closely their answers agree.
type Match struct {
	ParticipantID string  `json:"participantId"`
	Name          string  `json:"name,omitempty"`
	Percentage    float64 `json:"percentage"`
}

var hundred = decimal.NewFromInt(100)

// Compatibility returns the percentage of agreeing answers over the
// positions both vectors answered, rounded to two decimals. It is 0 when
// there is no such position.
func Compatibility(a, b []string) float64 {
	var compared, matches int64
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] == "" || b[i] == "" {
			continue
		}
		compared++
		if a[i] == b[i] {
			matches++
		}
	}
	if compared == 0 {
		return 0
	}
	return decimal.NewFromInt(matches).
		Mul(hundred).
		DivRound(decimal.NewFromInt(compared), 2).
		InexactFloat64()
}

// For ranks every other participant of s against participantID. Participants
// who answered nothing are left out. Ties on percentage are ordered by
// participant id.
func For(s *session.Session, participantID string) []Match {
	self := s.ResponseVector(participantID)

	out := make([]Match, 0, s.Participants.Len())
	for _, p := range s.Participants.All() {
		if p.ID == participantID {
			continue
		}
		other := s.ResponseVector(p.ID)
		if isEmpty(other) {
			continue
		}
		out = append(out, Match{
			ParticipantID: p.ID,
			Name:          p.Name,
			Percentage:    Compatibility(self, other),
		})
	}

	slices.SortStableFunc(out, func(a, b Match) int {
		if c := cmp.Compare(b.Percentage, a.Percentage); c != 0 {
			return c
		}
		return strings.Compare(a.ParticipantID, b.ParticipantID)
	})
	return out
}

// Slice returns the part of a ranked list the tier reveals.
func Slice(ranked []Match, tier Tier) []Match {
	switch tier {
	case TierAll:
		return clip(ranked, 0, len(ranked))
	case TierTop3:
		return clip(ranked, 0, top3Size)
	case TierPreview:
		return clip(ranked, previewStart, previewEnd)
	default:
		return []Match{}
	}
}

func clip(list []Match, start, end int) []Match {
	start = min(start, len(list))
	end = min(end, len(list))
	return append([]Match{}, list[start:end]...)
}

func isEmpty(vector []string) bool {
	for _, v := range vector {
		if v != "" {
			return false
		}
	}
	return true
}
