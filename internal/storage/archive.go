// Package storage archives tide observations and analysis runs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chrissnell/tidalvariance/internal/tide"
	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested run does not exist
var ErrNotFound = errors.New("not found")

// Series identifies one observation stream. Heights from different
// products, datums or units are not comparable, so each is stored apart.
type Series struct {
	Station string
	Product string
	Datum   string
	Units   string
}

func (s Series) String() string {
	return fmt.Sprintf("%s/%s/%s/%s", s.Station, s.Product, s.Datum, s.Units)
}

// Archive is a persistent store of observations and analysis runs
type Archive interface {
	// SaveObservations upserts observations keyed by series and time
	SaveObservations(ctx context.Context, series Series, obs []tide.Observation) error

	// LoadObservations returns a series' observations in [from, to],
	// oldest first. Zero bounds are open.
	LoadObservations(ctx context.Context, series Series, from, to time.Time) ([]tide.Observation, error)

	SaveRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id uuid.UUID) (*Run, error)
	LatestRun(ctx context.Context, station string) (*Run, error)

	Ping(ctx context.Context) error
	Close() error
}

// Run records the parameters and monthly output of one analysis
type Run struct {
	ID           uuid.UUID               `json:"id"`
	Station      string                  `json:"station"`
	CreatedAt    time.Time               `json:"created_at"`
	StartYear    int                     `json:"start_year"`
	EndYear      int                     `json:"end_year"`
	DayStartHour int                     `json:"day_start_hour"`
	DayEndHour   int                     `json:"day_end_hour"`
	TidepoolTide float64                 `json:"tidepool_tide"`
	Monthly      []tide.MonthlyAggregate `json:"monthly"`
}

// NewRun builds a run record with a fresh ID
func NewRun(station string, p tide.Params, result *tide.Result, now time.Time) *Run {
	return &Run{
		ID:           uuid.New(),
		Station:      station,
		CreatedAt:    now.UTC(),
		StartYear:    result.FirstYear,
		EndYear:      result.LastYear,
		DayStartHour: p.Window.StartHour,
		DayEndHour:   p.Window.EndHour,
		TidepoolTide: p.TidepoolTide,
		Monthly:      result.Monthly,
	}
}

// Source reads one archived series as a tide.ObservationSource
type Source struct {
	Archive Archive
	Series  Series
	From    time.Time
	To      time.Time
}

// LoadObservations implements tide.ObservationSource
func (s Source) LoadObservations(ctx context.Context) ([]tide.Observation, error) {
	return s.Archive.LoadObservations(ctx, s.Series, s.From, s.To)
}
