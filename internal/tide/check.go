package tide

import (
	"math"
	"strconv"
	"time"
)

// CheckHeight returns ErrNonFiniteHeight for NaN and infinite heights
func CheckHeight(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ErrNonFiniteHeight
	}
	return nil
}

// CheckSeries verifies that obs is chronological and every height is
// finite. The Index of a returned error is the position in obs.
func CheckSeries(obs []Observation) error {
	for i, o := range obs {
		if err := checkObservation(i, o); err != nil {
			return err
		}
		if i > 0 && o.Time.Before(obs[i-1].Time) {
			return outOfOrder(i, o)
		}
	}
	return nil
}

func checkObservation(index int, o Observation) error {
	if err := CheckHeight(o.Height); err != nil {
		return &MalformedObservationError{Index: index, Field: "v", Value: strconv.FormatFloat(o.Height, 'g', -1, 64), Err: err}
	}
	return nil
}

func outOfOrder(index int, o Observation) error {
	return &MalformedObservationError{Index: index, Field: "t", Value: o.Time.Format(time.DateTime), Err: ErrOutOfOrder}
}
