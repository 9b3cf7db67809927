package tide

import (
	"fmt"
	"math"
	"time"
)

// EmptyMonthPolicy decides whether months without daytime low tides get a row
type EmptyMonthPolicy string

const (
	// EmptyMonthsOmit emits rows only for months present in the input
	EmptyMonthsOmit EmptyMonthPolicy = "omit"

	// EmptyMonthsFill emits a zero-valued row for every month of the range
	EmptyMonthsFill EmptyMonthPolicy = "fill"
)

// DefaultMaxNeighborGap is the widest gap between a lone low tide and the
// neighbour it is compared against
const DefaultMaxNeighborGap = 16 * time.Hour

// Params carries every tunable the pipeline uses. Nothing in this package
// falls back to a hidden default; build Params with NewParams.
type Params struct {
	Window         Window
	TidepoolTide   float64
	MaxNeighborGap time.Duration
	EmptyMonths    EmptyMonthPolicy

	// From and To bound the month range used by EmptyMonthsFill. When both
	// are zero the range spans the months present in the input.
	From YearMonth
	To   YearMonth
}

// NewParams validates and assembles pipeline parameters
func NewParams(dayStartHour, dayEndHour int, tidepoolTide float64, maxNeighborGap time.Duration, empty EmptyMonthPolicy) (Params, error) {
	window, err := NewWindow(dayStartHour, dayEndHour)
	if err != nil {
		return Params{}, err
	}

	p := Params{
		Window:         window,
		TidepoolTide:   tidepoolTide,
		MaxNeighborGap: maxNeighborGap,
		EmptyMonths:    empty,
	}
	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

// WithRange returns a copy of p whose fill range is [from, to]
func (p Params) WithRange(from, to YearMonth) Params {
	p.From = from
	p.To = to
	return p
}

// Validate checks every field and returns a *ConfigurationError for the
// first one that is unusable
func (p Params) Validate() error {
	if err := p.Window.Validate(); err != nil {
		return err
	}
	if math.IsNaN(p.TidepoolTide) || math.IsInf(p.TidepoolTide, 0) {
		return &ConfigurationError{Field: "tidepool_tide", Reason: fmt.Sprintf("must be a finite number, got %v", p.TidepoolTide)}
	}
	if p.MaxNeighborGap <= 0 {
		return &ConfigurationError{Field: "max_neighbor_gap", Reason: fmt.Sprintf("must be positive, got %s", p.MaxNeighborGap)}
	}
	switch p.EmptyMonths {
	case EmptyMonthsOmit, EmptyMonthsFill:
	default:
		return &ConfigurationError{Field: "empty_months", Reason: fmt.Sprintf("unknown policy %q (want %q or %q)", p.EmptyMonths, EmptyMonthsOmit, EmptyMonthsFill)}
	}
	if p.From != (YearMonth{}) || p.To != (YearMonth{}) {
		if p.From.Month < time.January || p.From.Month > time.December || p.To.Month < time.January || p.To.Month > time.December {
			return &ConfigurationError{Field: "range", Reason: "months must be between 1 and 12"}
		}
		if p.To.Before(p.From) {
			return &ConfigurationError{Field: "range", Reason: fmt.Sprintf("end %d-%02d precedes start %d-%02d", p.To.Year, p.To.Month, p.From.Year, p.From.Month)}
		}
	}
	return nil
}
