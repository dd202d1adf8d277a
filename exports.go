package debate

import "github.com/xraph/debate/types"

// Re-export common types for convenience so users don't have to import types package.

// Credits is re-exported from types package.
type Credits = types.Credits

// Entity is re-exported from types package.
type Entity = types.Entity

// Sum is re-exported from types package.
var Sum = types.Sum

// NewEntity is re-exported from types package.
var NewEntity = types.NewEntity
