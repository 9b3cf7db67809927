package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/chrissnell/tidalvariance/internal/tide"
	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS series_observations (
	station TEXT NOT NULL,
	product TEXT NOT NULL,
	datum TEXT NOT NULL,
	units TEXT NOT NULL,
	ts INTEGER NOT NULL,
	height REAL NOT NULL,
	type TEXT NOT NULL,
	PRIMARY KEY (station, product, datum, units, ts)
);
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	station TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	start_year INTEGER NOT NULL,
	end_year INTEGER NOT NULL,
	day_start_hour INTEGER NOT NULL,
	day_end_hour INTEGER NOT NULL,
	tidepool_tide REAL NOT NULL,
	monthly BLOB
);
CREATE INDEX IF NOT EXISTS runs_station_created ON runs (station, created_at);
`

// SQLiteArchive is an Archive backed by a local SQLite file
type SQLiteArchive struct {
	db     *sql.DB
	path   string
	logger *zap.SugaredLogger
}

// OpenSQLite opens (creating if needed) the SQLite archive at path
func OpenSQLite(ctx context.Context, path string, logger *zap.SugaredLogger) (*SQLiteArchive, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// SQLite allows a single writer
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create archive schema: %w", err)
	}

	logger.Infof("opened SQLite archive at %s", path)
	return &SQLiteArchive{db: db, path: path, logger: logger}, nil
}

// SaveObservations implements Archive
func (s *SQLiteArchive) SaveObservations(ctx context.Context, series Series, obs []tide.Observation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO series_observations (station, product, datum, units, ts, height, type) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (station, product, datum, units, ts) DO UPDATE SET height = excluded.height, type = excluded.type`)
	if err != nil {
		return fmt.Errorf("preparing observation insert: %w", err)
	}
	defer stmt.Close()

	for _, o := range obs {
		if _, err := stmt.ExecContext(ctx, series.Station, series.Product, series.Datum, series.Units, o.Time.Unix(), o.Height, o.Type.Code()); err != nil {
			return fmt.Errorf("storing observation at %s: %w", o.Time.Format(time.RFC3339), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	s.logger.Debugf("archived %d observations for series %s", len(obs), series)
	return nil
}

// LoadObservations implements Archive
func (s *SQLiteArchive) LoadObservations(ctx context.Context, series Series, from, to time.Time) ([]tide.Observation, error) {
	query := `SELECT ts, height, type FROM series_observations
		WHERE station = ? AND product = ? AND datum = ? AND units = ?`
	args := []any{series.Station, series.Product, series.Datum, series.Units}
	if !from.IsZero() {
		query += ` AND ts >= ?`
		args = append(args, from.Unix())
	}
	if !to.IsZero() {
		query += ` AND ts <= ?`
		args = append(args, to.Unix())
	}
	query += ` ORDER BY ts`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying observations: %w", err)
	}
	defer rows.Close()

	var obs []tide.Observation
	for rows.Next() {
		var (
			ts     int64
			height float64
			code   string
		)
		if err := rows.Scan(&ts, &height, &code); err != nil {
			return nil, err
		}
		obs = append(obs, tide.Observation{
			Time:   time.Unix(ts, 0).UTC(),
			Height: height,
			Type:   tide.ParseTideType(code),
		})
	}
	return obs, rows.Err()
}

// SaveRun implements Archive
func (s *SQLiteArchive) SaveRun(ctx context.Context, run *Run) error {
	monthly, err := encodeMonthly(run.Monthly)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, station, created_at, start_year, end_year, day_start_hour, day_end_hour, tidepool_tide, monthly)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID.String(), run.Station, run.CreatedAt.UnixMicro(), run.StartYear, run.EndYear,
		run.DayStartHour, run.DayEndHour, run.TidepoolTide, monthly)
	if err != nil {
		return fmt.Errorf("storing run %s: %w", run.ID, err)
	}
	return nil
}

const runColumns = `id, station, created_at, start_year, end_year, day_start_hour, day_end_hour, tidepool_tide, monthly`

// GetRun implements Archive
func (s *SQLiteArchive) GetRun(ctx context.Context, id uuid.UUID) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id.String())
	return scanRun(row)
}

// LatestRun implements Archive
func (s *SQLiteArchive) LatestRun(ctx context.Context, station string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE station = ? ORDER BY created_at DESC LIMIT 1`, station)
	return scanRun(row)
}

func scanRun(row *sql.Row) (*Run, error) {
	var (
		run     Run
		id      string
		created int64
		monthly []byte
	)
	err := row.Scan(&id, &run.Station, &created, &run.StartYear, &run.EndYear,
		&run.DayStartHour, &run.DayEndHour, &run.TidepoolTide, &monthly)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if run.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid run id %q: %w", id, err)
	}
	run.CreatedAt = time.UnixMicro(created).UTC()
	if run.Monthly, err = decodeMonthly(monthly); err != nil {
		return nil, err
	}
	return &run, nil
}

// Ping implements Archive
func (s *SQLiteArchive) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close implements Archive
func (s *SQLiteArchive) Close() error {
	return s.db.Close()
}
