package repository

import (
	"context"
	"database/sql"
	"errors"

	"door-access-control-plane/backend/internal/antipassback/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a passage record repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetLatest(ctx context.Context, userID, deviceID string) (*domain.Record, error) {
	var rec domain.Record
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, device_id, area_id, direction, verify_method, record_time
		   FROM anti_passback_records
		  WHERE user_id = $1 AND device_id = $2
		  ORDER BY record_time DESC
		  LIMIT 1`, userID, deviceID,
	).Scan(&rec.ID, &rec.UserID, &rec.DeviceID, &rec.AreaID, &rec.Direction, &rec.VerifyMethod, &rec.RecordTime)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (r *PostgresRepository) Insert(ctx context.Context, rec *domain.Record) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO anti_passback_records (id, user_id, device_id, area_id, direction, verify_method, record_time)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, rec.UserID, rec.DeviceID, rec.AreaID, rec.Direction, rec.VerifyMethod, rec.RecordTime,
	)
	return err
}
