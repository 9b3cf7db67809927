package tide

import (
	"time"

	"gonum.org/v1/gonum/stat"
)

// MonthClimatology describes one month of the year averaged across every
// year in the series
type MonthClimatology struct {
	Month               int      `json:"month"`
	MonthName           string   `json:"month_name"`
	MeanLowerLow        *float64 `json:"mean_lower_low"`
	MeanDaytimeLowerLow *float64 `json:"mean_daytime_lower_low"`
	MeanEligibleCount   float64  `json:"mean_eligible_count"`
	Years               int      `json:"years"`
}

// Climatology folds the classified lows and the monthly aggregates into
// twelve month-of-year rows. Every month is present; months never observed
// carry nil means and a zero eligible count.
func Climatology(classified []ClassifiedLowTide, monthly []MonthlyAggregate, w Window) []MonthClimatology {
	var allLowerLows, daytimeLowerLows [12][]float64
	var eligible [12][]float64

	for _, c := range classified {
		if !c.IsLowerLow {
			continue
		}
		m := int(c.Time.Month()) - 1
		allLowerLows[m] = append(allLowerLows[m], c.Height)
		if w.Contains(c.Time) {
			daytimeLowerLows[m] = append(daytimeLowerLows[m], c.Height)
		}
	}
	for _, agg := range monthly {
		if agg.Month < 1 || agg.Month > 12 {
			continue
		}
		eligible[agg.Month-1] = append(eligible[agg.Month-1], float64(agg.TidepoolEligibleCount))
	}

	out := make([]MonthClimatology, 12)
	for i := range out {
		row := MonthClimatology{
			Month:     i + 1,
			MonthName: time.Month(i + 1).String(),
			Years:     len(eligible[i]),
		}
		if len(allLowerLows[i]) > 0 {
			row.MeanLowerLow = float64Ptr(stat.Mean(allLowerLows[i], nil))
		}
		if len(daytimeLowerLows[i]) > 0 {
			row.MeanDaytimeLowerLow = float64Ptr(stat.Mean(daytimeLowerLows[i], nil))
		}
		if len(eligible[i]) > 0 {
			row.MeanEligibleCount = stat.Mean(eligible[i], nil)
		}
		out[i] = row
	}
	return out
}
