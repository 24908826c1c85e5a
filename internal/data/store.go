package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"aimlab/internal/aimlab"

	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS performance_records (
	mode               TEXT PRIMARY KEY,
	id                 TEXT NOT NULL,
	time_to_eliminate  BIGINT NOT NULL,
	shots_fired        INTEGER NOT NULL,
	accuracy           DOUBLE PRECISION NOT NULL,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// Store persists performance records in Postgres, one row per mode.
type Store struct {
	db *sql.DB
}

// NewStore accepts an existing DB handle and makes sure the table exists.
func NewStore(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("create performance_records: %w", err)
	}
	return s, nil
}

// NewStoreFromDB builds the store from a connection string (e.g. os.Getenv("DATABASE_URL")).
func NewStoreFromDB(connStr string) (*Store, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return NewStore(db)
}

func (s *Store) Close() error { return s.db.Close() }

// Put inserts rec, replacing any earlier record for the same mode.
func (s *Store) Put(ctx context.Context, rec aimlab.PerformanceRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO performance_records (mode, id, time_to_eliminate, shots_fired, accuracy, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (mode) DO UPDATE
		SET id = EXCLUDED.id,
		    time_to_eliminate = EXCLUDED.time_to_eliminate,
		    shots_fired = EXCLUDED.shots_fired,
		    accuracy = EXCLUDED.accuracy,
		    created_at = EXCLUDED.created_at
	`, string(rec.Mode), rec.ID, rec.TimeToEliminateMs, rec.ShotsFired, rec.Accuracy, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert record %s: %w", rec.Mode, err)
	}
	return nil
}

// List returns the stored records in mode display order.
func (s *Store) List(ctx context.Context) ([]aimlab.PerformanceRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, mode, time_to_eliminate, shots_fired, accuracy, created_at
		FROM performance_records
		ORDER BY CASE mode
			WHEN $1 THEN 0
			WHEN $2 THEN 1
			WHEN $3 THEN 2
			ELSE 3
		END
	`, string(aimlab.ModeManual), string(aimlab.ModeAimAssist), string(aimlab.ModeAimlock))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []aimlab.PerformanceRecord
	for rows.Next() {
		var rec aimlab.PerformanceRecord
		var mode string
		if err := rows.Scan(&rec.ID, &mode, &rec.TimeToEliminateMs, &rec.ShotsFired, &rec.Accuracy, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Mode = aimlab.Mode(mode)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM performance_records`)
	return err
}
