// Package simulator pkg/simulator/store.go is a stand-in backend for
// development and end-to-end testing: it serves the same REST and push
// surface the real backend exposes, backed by SQLite.
package simulator

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	// SQLite driver.
	_ "github.com/mattn/go-sqlite3"

	"github.com/omnisense/raindash/pkg/models"
)

const dbOperationTimeout = 5 * time.Second

var (
	errFailedOpenDB  = errors.New("failed to open database")
	errFailedToInit  = errors.New("failed to initialize schema")
	errSaveReading   = errors.New("failed to save reading")
	errQueryReadings = errors.New("failed to query readings")
	errScanRow       = errors.New("failed to scan row")
)

// Store persists generated readings so REST refetches see a consistent
// window regardless of when a client connects.
type Store struct {
	db *sql.DB
}

// NewStore opens (and initializes, if needed) the reading store at path.
// Use ":memory:" for an ephemeral store.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errFailedOpenDB, err)
	}

	store := &Store{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *Store) initSchema() error {
	const schema = `
        CREATE TABLE IF NOT EXISTS readings (
            device_id   INTEGER NOT NULL,
            ts          INTEGER NOT NULL,
            rainfall_mm REAL NOT NULL
        );
        CREATE INDEX IF NOT EXISTS idx_readings_device_ts
            ON readings (device_id, ts);
    `

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("%w: %w", errFailedToInit, err)
	}

	return nil
}

// SaveReading appends one reading for a device.
func (s *Store) SaveReading(ctx context.Context, id models.DeviceID, r models.Reading) error {
	ctx, cancel := context.WithTimeout(ctx, dbOperationTimeout)
	defer cancel()

	const query = `INSERT INTO readings (device_id, ts, rainfall_mm) VALUES (?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query, int64(id), r.Timestamp.UnixMilli(), r.RainfallMM)
	if err != nil {
		return fmt.Errorf("%w: %w", errSaveReading, err)
	}

	return nil
}

// ReadingsSince returns a device's readings at or after since, ordered
// ascending by timestamp.
func (s *Store) ReadingsSince(ctx context.Context, id models.DeviceID, since time.Time) ([]models.Reading, error) {
	ctx, cancel := context.WithTimeout(ctx, dbOperationTimeout)
	defer cancel()

	const query = `
        SELECT ts, rainfall_mm FROM readings
        WHERE device_id = ? AND ts >= ?
        ORDER BY ts ASC
    `

	rows, err := s.db.QueryContext(ctx, query, int64(id), since.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errQueryReadings, err)
	}
	defer rows.Close()

	readings := make([]models.Reading, 0)

	for rows.Next() {
		var (
			ts int64
			mm float64
		)

		if err := rows.Scan(&ts, &mm); err != nil {
			return nil, fmt.Errorf("%w: %w", errScanRow, err)
		}

		readings = append(readings, models.Reading{
			Timestamp:  time.UnixMilli(ts),
			RainfallMM: mm,
		})
	}

	return readings, rows.Err()
}

// Prune deletes readings older than age, keeping the store bounded.
func (s *Store) Prune(ctx context.Context, age time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, dbOperationTimeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx,
		`DELETE FROM readings WHERE ts < ?`, time.Now().Add(-age).UnixMilli())

	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
