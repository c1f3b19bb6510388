package audit

import (
	"context"

	domain "atelier/internal/domain/audit"
)

// Store persists audit events.
type Store interface {
	Record(ctx context.Context, event domain.Event)
	List(ctx context.Context, filter ListFilter) ([]domain.Event, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	Limit    int
	Offset   int
	Category domain.Category
	ActorID  string
}
