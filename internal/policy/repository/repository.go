package repository

import "context"

// Repository defines persistence for area policy configuration blobs.
type Repository interface {
	// GetExtConfig returns the raw ext_config JSON for the area, or "" when the
	// area has no stored configuration. It returns an error only for database
	// failures, not for missing rows.
	GetExtConfig(ctx context.Context, areaID string) (string, error)
}
