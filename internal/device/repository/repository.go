package repository

import (
	"context"

	"door-access-control-plane/backend/internal/device/domain"
)

// Repository defines persistence for door devices.
type Repository interface {
	// GetByID returns the device for id, or nil if not registered.
	// It returns an error only for database failures, not for missing rows.
	GetByID(ctx context.Context, id string) (*domain.Device, error)
}
