package repository

import (
	"context"

	"door-access-control-plane/backend/internal/user/domain"
)

// Repository defines persistence for facility users.
type Repository interface {
	// GetByID returns the user for id, or nil if not found.
	// It returns an error only for database failures, not for missing rows.
	GetByID(ctx context.Context, id string) (*domain.User, error)
}
