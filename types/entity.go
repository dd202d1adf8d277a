package types

import "time"

// Entity carries creation and modification timestamps.
// Embed it in mutable domain types.
type Entity struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewEntity creates a new Entity stamped with the current time.
func NewEntity() Entity {
	return NewEntityAt(time.Now())
}

// NewEntityAt creates a new Entity stamped with t.
func NewEntityAt(t time.Time) Entity {
	t = t.UTC()
	return Entity{
		CreatedAt: t,
		UpdatedAt: t,
	}
}

// Touch sets UpdatedAt to t.
func (e *Entity) Touch(t time.Time) {
	e.UpdatedAt = t.UTC()
}

// Age returns how long before now the entity was created.
func (e Entity) Age(now time.Time) time.Duration {
	return now.Sub(e.CreatedAt)
}
