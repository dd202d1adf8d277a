package debate

import (
	"context"
	"fmt"
	"strings"

	"github.com/xraph/debate/entitlement"
	"github.com/xraph/debate/id"
)

// Grant gives participantID the feature on resourceID. Granting a feature
// twice is a no-op that returns the original grant.
func (e *Engine) Grant(ctx context.Context, participantID, resourceID string, f entitlement.Feature) (*entitlement.Grant, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFeature, f)
	}
	if strings.TrimSpace(participantID) == "" {
		return nil, invalid("participantId", "must not be empty")
	}
	if strings.TrimSpace(resourceID) == "" {
		return nil, invalid("resourceId", "must not be empty")
	}

	g, created, err := e.store.CreateGrant(ctx, &entitlement.Grant{
		ID:            id.NewGrantID(),
		ParticipantID: participantID,
		ResourceID:    resourceID,
		Feature:       f,
		CreatedAt:     e.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("create grant: %w", err)
	}

	if created {
		e.plugins.EmitGrantCreated(ctx, g)
		e.logger.Info("feature granted",
			"participant_id", participantID,
			"resource_id", resourceID,
			"feature", string(f),
		)
	}

	return g, nil
}

// HasAccess reports whether participantID holds a grant on resourceID that
// includes f. MATCH_PREVIEW is always available.
func (e *Engine) HasAccess(ctx context.Context, participantID, resourceID string, f entitlement.Feature) (bool, error) {
	if f == entitlement.FeatureMatchPreview {
		return true, nil
	}

	grants, err := e.store.ListGrants(ctx, participantID, resourceID)
	if err != nil {
		return false, fmt.Errorf("list grants: %w", err)
	}
	for _, g := range grants {
		if g.Feature.Includes(f) {
			return true, nil
		}
	}
	return false, nil
}

// Grants lists participantID's grants on resourceID.
func (e *Engine) Grants(ctx context.Context, participantID, resourceID string) ([]*entitlement.Grant, error) {
	return e.store.ListGrants(ctx, participantID, resourceID)
}
