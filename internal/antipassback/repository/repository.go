package repository

import (
	"context"

	"door-access-control-plane/backend/internal/antipassback/domain"
)

// Repository defines persistence for passage records.
type Repository interface {
	// GetLatest returns the most recent passage record for the user at the
	// device, or nil when none exists. It returns an error only for database
	// failures, not for missing rows.
	GetLatest(ctx context.Context, userID, deviceID string) (*domain.Record, error)

	// Insert appends a passage record.
	Insert(ctx context.Context, rec *domain.Record) error
}
