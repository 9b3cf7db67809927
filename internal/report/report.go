// Package report shapes analysis results into export datasets.
package report

import (
	"time"

	"github.com/chrissnell/tidalvariance/internal/export"
	"github.com/chrissnell/tidalvariance/internal/tide"
	"github.com/chrissnell/tidalvariance/pkg/lunar"
	"github.com/chrissnell/tidalvariance/pkg/solar"
	"gonum.org/v1/gonum/floats/scalar"
)

// Base file names, before the period suffix and format extension
const (
	MonthlyName     = "monthly_lower_low_summary"
	DetailedName    = "detailed_low_tide_data"
	ClimatologyName = "monthly_climatology"
)

const detailedTimeLayout = "2006-01-02 15:04"

// Station locates observations in space and time. Observation timestamps
// are wall-clock times in Location; Latitude and Longitude may be nil.
type Station struct {
	Location  *time.Location
	Latitude  *float64
	Longitude *float64
}

// instant maps a station wall-clock time onto the real instant
func (s Station) instant(t time.Time) time.Time {
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}

func (s Station) hasCoordinates() bool {
	return s.Latitude != nil && s.Longitude != nil
}

func round(v float64, precision int) float64 {
	return scalar.Round(v, precision)
}

func roundPtr(v *float64, precision int) *float64 {
	if v == nil {
		return nil
	}
	r := round(*v, precision)
	return &r
}

// cell turns an optional value into an export cell, nil staying empty
func cell(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

// MonthlyDataset renders monthly aggregates with heights rounded to precision
func MonthlyDataset(monthly []tide.MonthlyAggregate, precision int) export.Dataset {
	rows := make([][]any, len(monthly))
	records := make([]tide.MonthlyAggregate, len(monthly))
	for i, m := range monthly {
		m.MinHeight = roundPtr(m.MinHeight, precision)
		m.MaxHeightAmongLows = roundPtr(m.MaxHeightAmongLows, precision)
		m.MeanHeight = roundPtr(m.MeanHeight, precision)
		records[i] = m
		rows[i] = []any{
			m.Year, m.Month, m.LowerLowCount,
			cell(m.MinHeight), cell(m.MaxHeightAmongLows), cell(m.MeanHeight),
			m.TidepoolEligibleCount,
		}
	}

	return export.Dataset{
		Name: MonthlyName,
		Columns: []string{
			"year", "month", "lower_low_count", "min_height",
			"max_height_among_lows", "mean_height", "tidepool_eligible_count",
		},
		Rows:    rows,
		Records: records,
	}
}

// DetailedLow is one classified low with its daytime, lunar and solar context
type DetailedLow struct {
	Time             string  `json:"t"`
	Height           float64 `json:"v"`
	Type             string  `json:"type"`
	IsLowerLow       bool    `json:"is_lower_low"`
	IsDaytime        bool    `json:"is_daytime"`
	MoonPhase        string  `json:"moon_phase"`
	MoonIllumination float64 `json:"moon_illumination"`
	SpringTide       bool    `json:"spring_tide"`
	Daylight         *bool   `json:"daylight"`
}

// DetailLows annotates every classified low
func DetailLows(classified []tide.ClassifiedLowTide, w tide.Window, st Station, precision int) []DetailedLow {
	out := make([]DetailedLow, len(classified))
	for i, c := range classified {
		at := st.instant(c.Time)
		moon := lunar.Calculate(at)

		d := DetailedLow{
			Time:             c.Time.Format(detailedTimeLayout),
			Height:           round(c.Height, precision),
			Type:             c.Type.Code(),
			IsLowerLow:       c.IsLowerLow,
			IsDaytime:        w.Contains(c.Time),
			MoonPhase:        moon.PhaseName,
			MoonIllumination: round(moon.Illumination, precision),
			SpringTide:       moon.IsSpringTide(),
		}
		if st.hasCoordinates() {
			daylight := solar.IsDaylight(at, *st.Latitude, *st.Longitude)
			d.Daylight = &daylight
		}
		out[i] = d
	}
	return out
}

// DetailedDataset renders DetailLows output
func DetailedDataset(lows []DetailedLow) export.Dataset {
	rows := make([][]any, len(lows))
	for i, d := range lows {
		var daylight any
		if d.Daylight != nil {
			daylight = *d.Daylight
		}
		rows[i] = []any{
			d.Time, d.Height, d.Type, d.IsLowerLow, d.IsDaytime,
			d.MoonPhase, d.MoonIllumination, d.SpringTide, daylight,
		}
	}

	return export.Dataset{
		Name: DetailedName,
		Columns: []string{
			"t", "v", "type", "is_lower_low", "is_daytime",
			"moon_phase", "moon_illumination", "spring_tide", "daylight",
		},
		Rows:    rows,
		Records: lows,
	}
}

// ClimatologyDataset renders the twelve month-of-year rows
func ClimatologyDataset(clim []tide.MonthClimatology, precision int) export.Dataset {
	rows := make([][]any, len(clim))
	records := make([]tide.MonthClimatology, len(clim))
	for i, c := range clim {
		c.MeanLowerLow = roundPtr(c.MeanLowerLow, precision)
		c.MeanDaytimeLowerLow = roundPtr(c.MeanDaytimeLowerLow, precision)
		c.MeanEligibleCount = round(c.MeanEligibleCount, precision)
		records[i] = c
		rows[i] = []any{
			c.Month, c.MonthName, cell(c.MeanLowerLow), cell(c.MeanDaytimeLowerLow),
			c.MeanEligibleCount, c.Years,
		}
	}

	return export.Dataset{
		Name: ClimatologyName,
		Columns: []string{
			"month", "month_name", "mean_lower_low", "mean_daytime_lower_low",
			"mean_eligible_count", "years",
		},
		Rows:    rows,
		Records: records,
	}
}
