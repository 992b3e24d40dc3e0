package repository

import (
	"context"
	"database/sql"
	"time"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an interlock audit repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, a *Acquisition) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO interlock_audit (id, area_id, group_id, device_id, acquired_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		a.ID, a.AreaID, a.GroupID, a.DeviceID, a.AcquiredAt,
	)
	return err
}

func (r *PostgresRepository) MarkReleased(ctx context.Context, areaID, groupID, deviceID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE interlock_audit SET released_at = $4
		  WHERE id = (
			SELECT id FROM interlock_audit
			 WHERE area_id = $1 AND group_id = $2 AND device_id = $3 AND released_at IS NULL
			 ORDER BY acquired_at DESC
			 LIMIT 1
		  )`,
		areaID, groupID, deviceID, at,
	)
	return err
}

func (r *PostgresRepository) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM interlock_audit WHERE released_at IS NULL AND acquired_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
