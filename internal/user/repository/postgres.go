package repository

import (
	"context"
	"database/sql"
	"errors"

	"door-access-control-plane/backend/internal/user/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a user repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the user for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var (
		u         domain.User
		expiresAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, status, expires_at, created_at, updated_at FROM facility_users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Name, &u.Status, &expiresAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if expiresAt.Valid {
		u.ExpiresAt = &expiresAt.Time
	}
	return &u, nil
}
