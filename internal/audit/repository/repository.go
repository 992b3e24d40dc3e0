package repository

import (
	"context"

	"door-access-control-plane/backend/internal/audit/domain"
)

// Repository defines persistence for decision logs.
type Repository interface {
	// Create persists the decision log. The log must have ID set.
	Create(ctx context.Context, d *domain.DecisionLog) error

	// ListByUser returns decision logs for the user, newest first, paginated by
	// limit and offset. Returns (nil, error) only on database errors.
	ListByUser(ctx context.Context, userID string, limit, offset int32) ([]*domain.DecisionLog, error)
}
