package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chrissnell/tidalvariance/internal/log"
	"github.com/chrissnell/tidalvariance/internal/tide"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// observationRow is the observations table, keyed by series and time
type observationRow struct {
	Station string    `gorm:"primaryKey;type:text"`
	Product string    `gorm:"primaryKey;type:text"`
	Datum   string    `gorm:"primaryKey;type:text"`
	Units   string    `gorm:"primaryKey;type:text"`
	Time    time.Time `gorm:"primaryKey;column:ts"`
	Height  float64   `gorm:"not null"`
	Type    string    `gorm:"type:varchar(2);not null"`
}

func (observationRow) TableName() string { return "tide_series_observations" }

// runRow is the runs table
type runRow struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Station      string    `gorm:"index:idx_runs_station_created,priority:1;not null"`
	CreatedAt    time.Time `gorm:"index:idx_runs_station_created,priority:2;not null"`
	StartYear    int
	EndYear      int
	DayStartHour int
	DayEndHour   int
	TidepoolTide float64
	Monthly      []byte `gorm:"type:bytea"`
}

func (runRow) TableName() string { return "tide_runs" }

// PostgresArchive is an Archive backed by PostgreSQL through gorm
type PostgresArchive struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// OpenPostgres connects to PostgreSQL and migrates the archive tables
func OpenPostgres(ctx context.Context, dsn string, logger *zap.SugaredLogger) (*PostgresArchive, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	dbLogger := gormlogger.New(
		zap.NewStdLog(log.GetZapLogger()),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	logger.Info("connecting to PostgreSQL archive...")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: dbLogger})
	if err != nil {
		return nil, fmt.Errorf("unable to connect to PostgreSQL: %w", err)
	}

	if err := db.WithContext(ctx).AutoMigrate(&observationRow{}, &runRow{}); err != nil {
		return nil, fmt.Errorf("migrating archive tables: %w", err)
	}
	logger.Info("PostgreSQL archive ready")

	return &PostgresArchive{db: db, logger: logger}, nil
}

// SaveObservations implements Archive
func (p *PostgresArchive) SaveObservations(ctx context.Context, series Series, obs []tide.Observation) error {
	if len(obs) == 0 {
		return nil
	}
	rows := make([]observationRow, len(obs))
	for i, o := range obs {
		rows[i] = observationRow{
			Station: series.Station,
			Product: series.Product,
			Datum:   series.Datum,
			Units:   series.Units,
			Time:    o.Time,
			Height:  o.Height,
			Type:    o.Type.Code(),
		}
	}

	err := p.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "station"}, {Name: "product"}, {Name: "datum"}, {Name: "units"}, {Name: "ts"}},
			DoUpdates: clause.AssignmentColumns([]string{"height", "type"}),
		}).
		CreateInBatches(rows, 500).Error
	if err != nil {
		return fmt.Errorf("storing observations: %w", err)
	}
	p.logger.Debugf("archived %d observations for series %s", len(obs), series)
	return nil
}

// LoadObservations implements Archive
func (p *PostgresArchive) LoadObservations(ctx context.Context, series Series, from, to time.Time) ([]tide.Observation, error) {
	q := p.db.WithContext(ctx).Where("station = ? AND product = ? AND datum = ? AND units = ?",
		series.Station, series.Product, series.Datum, series.Units)
	if !from.IsZero() {
		q = q.Where("ts >= ?", from)
	}
	if !to.IsZero() {
		q = q.Where("ts <= ?", to)
	}

	var rows []observationRow
	if err := q.Order("ts").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("querying observations: %w", err)
	}

	obs := make([]tide.Observation, len(rows))
	for i, r := range rows {
		obs[i] = tide.Observation{Time: r.Time.UTC(), Height: r.Height, Type: tide.ParseTideType(r.Type)}
	}
	return obs, nil
}

// SaveRun implements Archive
func (p *PostgresArchive) SaveRun(ctx context.Context, run *Run) error {
	monthly, err := encodeMonthly(run.Monthly)
	if err != nil {
		return err
	}
	row := runRow{
		ID:           run.ID,
		Station:      run.Station,
		CreatedAt:    run.CreatedAt,
		StartYear:    run.StartYear,
		EndYear:      run.EndYear,
		DayStartHour: run.DayStartHour,
		DayEndHour:   run.DayEndHour,
		TidepoolTide: run.TidepoolTide,
		Monthly:      monthly,
	}
	if err := p.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("storing run %s: %w", run.ID, err)
	}
	return nil
}

// GetRun implements Archive
func (p *PostgresArchive) GetRun(ctx context.Context, id uuid.UUID) (*Run, error) {
	var row runRow
	err := p.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	return rowToRun(row, err)
}

// LatestRun implements Archive
func (p *PostgresArchive) LatestRun(ctx context.Context, station string) (*Run, error) {
	var row runRow
	err := p.db.WithContext(ctx).Where("station = ?", station).Order("created_at DESC").First(&row).Error
	return rowToRun(row, err)
}

func rowToRun(row runRow, err error) (*Run, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	monthly, err := decodeMonthly(row.Monthly)
	if err != nil {
		return nil, err
	}
	return &Run{
		ID:           row.ID,
		Station:      row.Station,
		CreatedAt:    row.CreatedAt.UTC(),
		StartYear:    row.StartYear,
		EndYear:      row.EndYear,
		DayStartHour: row.DayStartHour,
		DayEndHour:   row.DayEndHour,
		TidepoolTide: row.TidepoolTide,
		Monthly:      monthly,
	}, nil
}

// Ping implements Archive
func (p *PostgresArchive) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close implements Archive
func (p *PostgresArchive) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
