package repository

import (
	"context"

	"door-access-control-plane/backend/internal/multiperson/domain"
)

// Repository defines persistence for co-authentication sessions.
type Repository interface {
	// GetWaiting returns the WAITING session for the area and device, or nil
	// when none exists. It returns an error only for database failures.
	GetWaiting(ctx context.Context, areaID, deviceID string) (*domain.Session, error)

	// Insert stores a new session.
	Insert(ctx context.Context, s *domain.Session) error

	// Update rewrites a session's participants, status and completion time.
	Update(ctx context.Context, s *domain.Session) error
}
