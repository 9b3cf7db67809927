// Package tide holds the low-tide analysis pipeline: low-tide extraction,
// lower-low classification, daytime filtering and monthly aggregation.
//
// Timestamps are station-local wall clock values. They are compared and
// grouped by their calendar fields only, so callers should construct them
// in a single location (time.UTC is what the loaders use).
package tide

import (
	"strings"
	"time"
)

// TideType is the high/low flag carried by a tide event
type TideType string

const (
	TideTypeHigh    TideType = "HIGH"
	TideTypeLow     TideType = "LOW"
	TideTypeUnknown TideType = "UNKNOWN"
)

// ParseTideType maps a raw source code to a TideType. NOAA uses "H"/"L" for
// predictions and "HH"/"H"/"L"/"LL" for observed high/low water.
func ParseTideType(code string) TideType {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "L", "LL":
		return TideTypeLow
	case "H", "HH":
		return TideTypeHigh
	default:
		return TideTypeUnknown
	}
}

// Code returns the single-character source code for the type
func (t TideType) Code() string {
	switch t {
	case TideTypeLow:
		return "L"
	case TideTypeHigh:
		return "H"
	default:
		return ""
	}
}

// Observation is a single water level reading
type Observation struct {
	Time   time.Time `json:"t"`
	Height float64   `json:"v"`
	Type   TideType  `json:"type"`
}

// ClassifiedLowTide is a low tide flagged as lower-low or higher-low
type ClassifiedLowTide struct {
	Observation
	IsLowerLow bool `json:"is_lower_low"`
}

// MonthlyAggregate summarizes the daytime low tides of one calendar month.
// The height fields are nil when the month has no lower-low tides.
type MonthlyAggregate struct {
	Year                  int      `json:"year"`
	Month                 int      `json:"month"`
	LowerLowCount         int      `json:"lower_low_count"`
	MinHeight             *float64 `json:"min_height"`
	MaxHeightAmongLows    *float64 `json:"max_height_among_lows"`
	MeanHeight            *float64 `json:"mean_height"`
	TidepoolEligibleCount int      `json:"tidepool_eligible_count"`
}

// YearMonth identifies a calendar month
type YearMonth struct {
	Year  int
	Month time.Month
}

// YearMonthOf returns the calendar month that t falls in
func YearMonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// Before reports whether ym is earlier than other
func (ym YearMonth) Before(other YearMonth) bool {
	if ym.Year != other.Year {
		return ym.Year < other.Year
	}
	return ym.Month < other.Month
}

// Next returns the following calendar month
func (ym YearMonth) Next() YearMonth {
	if ym.Month == time.December {
		return YearMonth{Year: ym.Year + 1, Month: time.January}
	}
	return YearMonth{Year: ym.Year, Month: ym.Month + 1}
}
