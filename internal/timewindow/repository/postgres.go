// Package repository loads per-user area permission grants.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	policydomain "door-access-control-plane/backend/internal/policy/domain"
	"door-access-control-plane/backend/internal/timewindow"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a permission grant repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetGrant returns the user's grant for the area, or nil when the user has no
// explicit grant. It returns an error only for database failures.
func (r *PostgresRepository) GetGrant(ctx context.Context, userID, areaID string) (*timewindow.Grant, error) {
	var windows []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT time_windows FROM access_permissions WHERE user_id = $1 AND area_id = $2`,
		userID, areaID,
	).Scan(&windows)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	grant := &timewindow.Grant{}
	if len(windows) > 0 {
		var tw []policydomain.TimeWindow
		if err := json.Unmarshal(windows, &tw); err != nil {
			return nil, err
		}
		grant.TimeWindows = tw
	}
	return grant, nil
}
