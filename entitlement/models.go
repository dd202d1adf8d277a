// Package entitlement defines purchasable features, their tier hierarchy and
// the grants that unlock them for a participant on a resource.
package entitlement

import (
	"slices"
	"strings"
	"time"

	"github.com/xraph/debate/id"
)

// Feature names a purchasable capability.
type Feature string

const (
	FeatureMatchPreview    Feature = "MATCH_PREVIEW"
	FeatureMatchTop3       Feature = "MATCH_TOP3"
	FeatureMatchAll        Feature = "MATCH_ALL"
	FeatureQuestionLimit10 Feature = "QUESTION_LIMIT_10"
)

// hierarchy lists, for each granted feature, every feature it unlocks.
// QUESTION_LIMIT_10 sits outside the match tiers.
var hierarchy = map[Feature][]Feature{
	FeatureMatchAll:        {FeatureMatchAll, FeatureMatchTop3, FeatureMatchPreview},
	FeatureMatchTop3:       {FeatureMatchTop3, FeatureMatchPreview},
	FeatureMatchPreview:    {FeatureMatchPreview},
	FeatureQuestionLimit10: {FeatureQuestionLimit10},
}

// Features returns every known feature.
func Features() []Feature {
	return []Feature{FeatureMatchPreview, FeatureMatchTop3, FeatureMatchAll, FeatureQuestionLimit10}
}

// Valid reports whether f is a known feature.
func (f Feature) Valid() bool {
	_, ok := hierarchy[f]
	return ok
}

// Unlocks returns the features a grant of f gives access to, f included.
func (f Feature) Unlocks() []Feature {
	return hierarchy[f]
}

// Includes reports whether a grant of f gives access to requested.
func (f Feature) Includes(requested Feature) bool {
	return slices.Contains(f.Unlocks(), requested)
}

// Grant records that a participant owns a feature on a resource.
type Grant struct {
	ID            id.ID     `json:"id"`
	ParticipantID string    `json:"participantId"`
	ResourceID    string    `json:"resourceId"`
	Feature       Feature   `json:"feature"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Key returns the uniqueness key of the grant's triple.
func (g *Grant) Key() string {
	return Key(g.ParticipantID, g.ResourceID, g.Feature)
}

// Key joins a (participant, resource, feature) triple.
func Key(participantID, resourceID string, f Feature) string {
	return participantID + "|" + resourceID + "|" + string(f)
}

const sessionResourcePrefix = "session:"

// SessionResource returns the resource id that scopes grants to a session.
func SessionResource(sessionID string) string {
	return sessionResourcePrefix + sessionID
}

// SessionFromResource extracts the session id from a session resource id.
func SessionFromResource(resourceID string) (string, bool) {
	return strings.CutPrefix(resourceID, sessionResourcePrefix)
}
