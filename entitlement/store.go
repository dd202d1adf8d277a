package entitlement

import "context"

// Store persists feature grants.
type Store interface {
	// CreateGrant stores g unless a grant for the same triple exists. It
	// returns the stored grant and whether it was newly created.
	CreateGrant(ctx context.Context, g *Grant) (*Grant, bool, error)
	ListGrants(ctx context.Context, participantID, resourceID string) ([]*Grant, error)
}
