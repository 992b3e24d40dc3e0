package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"door-access-control-plane/backend/internal/multiperson/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a session repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetWaiting(ctx context.Context, areaID, deviceID string) (*domain.Session, error) {
	var (
		s            domain.Session
		participants []byte
		completeTime sql.NullTime
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, area_id, device_id, required_count, participant_user_ids, status, start_time, expire_time, complete_time
		   FROM multi_person_sessions
		  WHERE area_id = $1 AND device_id = $2 AND status = $3
		  ORDER BY start_time DESC
		  LIMIT 1`, areaID, deviceID, domain.StatusWaiting,
	).Scan(&s.SessionID, &s.AreaID, &s.DeviceID, &s.RequiredCount, &participants, &s.Status, &s.StartTime, &s.ExpireTime, &completeTime)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(participants, &s.ParticipantUserIDs); err != nil {
		return nil, err
	}
	if completeTime.Valid {
		s.CompleteTime = &completeTime.Time
	}
	return &s, nil
}

func (r *PostgresRepository) Insert(ctx context.Context, s *domain.Session) error {
	participants, err := json.Marshal(s.ParticipantUserIDs)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO multi_person_sessions (id, area_id, device_id, required_count, participant_user_ids, status, start_time, expire_time)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		s.SessionID, s.AreaID, s.DeviceID, s.RequiredCount, participants, s.Status, s.StartTime, s.ExpireTime,
	)
	return err
}

func (r *PostgresRepository) Update(ctx context.Context, s *domain.Session) error {
	participants, err := json.Marshal(s.ParticipantUserIDs)
	if err != nil {
		return err
	}
	var completeTime sql.NullTime
	if s.CompleteTime != nil {
		completeTime = sql.NullTime{Time: *s.CompleteTime, Valid: true}
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE multi_person_sessions
		    SET participant_user_ids = $2, status = $3, complete_time = $4
		  WHERE id = $1`,
		s.SessionID, participants, s.Status, completeTime,
	)
	return err
}
