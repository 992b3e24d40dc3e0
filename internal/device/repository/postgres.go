package repository

import (
	"context"
	"database/sql"
	"errors"

	"door-access-control-plane/backend/internal/device/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a device repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the device for id, or nil if not registered.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Device, error) {
	var d domain.Device
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, area_id, enabled, created_at FROM access_devices WHERE id = $1`, id,
	).Scan(&d.ID, &d.Name, &d.AreaID, &d.Enabled, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}
