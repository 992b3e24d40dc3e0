package repository

import (
	"context"
	"database/sql"
	"errors"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an area config repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetExtConfig returns the raw ext_config JSON for the area, or "" if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetExtConfig(ctx context.Context, areaID string) (string, error) {
	var raw sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT ext_config FROM area_access_ext WHERE area_id = $1`, areaID,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	if !raw.Valid {
		return "", nil
	}
	return raw.String, nil
}
