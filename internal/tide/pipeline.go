package tide

import (
	"context"
)

// ObservationSource supplies a chronological series of observations
type ObservationSource interface {
	LoadObservations(ctx context.Context) ([]Observation, error)
}

// Result holds the output of every pipeline stage
type Result struct {
	Lows        []Observation
	Classified  []ClassifiedLowTide
	Daytime     []ClassifiedLowTide
	Monthly     []MonthlyAggregate
	Climatology []MonthClimatology
	FirstYear   int
	LastYear    int
}

// Analyze runs extraction, classification, daytime filtering and monthly
// aggregation over obs. Parameters are validated before any data is touched,
// then the series itself, so a malformed record is reported by its index in obs.
func Analyze(obs []Observation, p Params) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := CheckSeries(obs); err != nil {
		return nil, err
	}

	lows := ExtractLowTides(obs)
	classified, err := ClassifyLowTides(lows, p.MaxNeighborGap)
	if err != nil {
		return nil, err
	}
	daytime := FilterDaytime(classified, p.Window)
	monthly := AggregateMonthly(daytime, p.AggregateOptions())

	first, last, _ := YearRange(obs)
	return &Result{
		Lows:        lows,
		Classified:  classified,
		Daytime:     daytime,
		Monthly:     monthly,
		Climatology: Climatology(classified, monthly, p.Window),
		FirstYear:   first,
		LastYear:    last,
	}, nil
}

// YearRange returns the smallest and largest year in obs. ok is false for
// an empty series.
func YearRange(obs []Observation) (first, last int, ok bool) {
	for i, o := range obs {
		y := o.Time.Year()
		if i == 0 || y < first {
			first = y
		}
		if i == 0 || y > last {
			last = y
		}
	}
	return first, last, len(obs) > 0
}
