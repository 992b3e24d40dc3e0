package repository

import (
	"context"
	"database/sql"

	"door-access-control-plane/backend/internal/audit/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a decision log repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the decision log to the database. The log must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, d *domain.DecisionLog) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO access_decision_logs
		   (id, user_id, device_id, area_id, direction, verify_method, granted, reason_code, reason, decided_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		d.ID, d.UserID, d.DeviceID, d.AreaID, d.Direction, d.VerifyMethod, d.Granted, d.ReasonCode, d.Reason, d.DecidedAt,
	)
	return err
}

// ListByUser returns decision logs for the given user, newest first, paginated by limit and offset.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, limit, offset int32) ([]*domain.DecisionLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, device_id, area_id, direction, verify_method, granted, reason_code, reason, decided_at
		   FROM access_decision_logs
		  WHERE user_id = $1
		  ORDER BY decided_at DESC
		  LIMIT $2 OFFSET $3`, userID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.DecisionLog
	for rows.Next() {
		var d domain.DecisionLog
		if err := rows.Scan(&d.ID, &d.UserID, &d.DeviceID, &d.AreaID, &d.Direction, &d.VerifyMethod,
			&d.Granted, &d.ReasonCode, &d.Reason, &d.DecidedAt); err != nil {
			return nil, err
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}
