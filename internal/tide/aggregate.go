package tide

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// AggregateOptions controls monthly aggregation
type AggregateOptions struct {
	TidepoolTide float64
	EmptyMonths  EmptyMonthPolicy

	// From and To bound the months filled in under EmptyMonthsFill. Zero
	// values fall back to the first and last month present in the input.
	From YearMonth
	To   YearMonth
}

// AggregateOptions derives aggregation options from pipeline parameters
func (p Params) AggregateOptions() AggregateOptions {
	return AggregateOptions{
		TidepoolTide: p.TidepoolTide,
		EmptyMonths:  p.EmptyMonths,
		From:         p.From,
		To:           p.To,
	}
}

type monthAccumulator struct {
	lowerLows []float64
	eligible  int
}

// AggregateMonthly groups candidates by calendar month. Height statistics
// cover the lower-low subset only; the eligible count covers every candidate
// at or below the tidepool threshold. Results are sorted by year and month.
func AggregateMonthly(candidates []ClassifiedLowTide, opts AggregateOptions) []MonthlyAggregate {
	groups := make(map[YearMonth]*monthAccumulator)

	for _, c := range candidates {
		key := YearMonthOf(c.Time)
		acc, ok := groups[key]
		if !ok {
			acc = &monthAccumulator{}
			groups[key] = acc
		}
		if c.IsLowerLow {
			acc.lowerLows = append(acc.lowerLows, c.Height)
		}
		if c.Height <= opts.TidepoolTide {
			acc.eligible++
		}
	}

	if opts.EmptyMonths == EmptyMonthsFill {
		fillMonths(groups, opts.From, opts.To)
	}

	keys := make([]YearMonth, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	out := make([]MonthlyAggregate, 0, len(keys))
	for _, k := range keys {
		acc := groups[k]
		agg := MonthlyAggregate{
			Year:                  k.Year,
			Month:                 int(k.Month),
			LowerLowCount:         len(acc.lowerLows),
			TidepoolEligibleCount: acc.eligible,
		}
		if len(acc.lowerLows) > 0 {
			agg.MinHeight = float64Ptr(floats.Min(acc.lowerLows))
			agg.MaxHeightAmongLows = float64Ptr(floats.Max(acc.lowerLows))
			agg.MeanHeight = float64Ptr(stat.Mean(acc.lowerLows, nil))
		}
		out = append(out, agg)
	}
	return out
}

func fillMonths(groups map[YearMonth]*monthAccumulator, from, to YearMonth) {
	if from == (YearMonth{}) && to == (YearMonth{}) {
		if len(groups) == 0 {
			return
		}
		first := true
		for k := range groups {
			if first || k.Before(from) {
				from = k
			}
			if first || to.Before(k) {
				to = k
			}
			first = false
		}
	}

	for ym := from; !to.Before(ym); ym = ym.Next() {
		if _, ok := groups[ym]; !ok {
			groups[ym] = &monthAccumulator{}
		}
	}
}

func float64Ptr(v float64) *float64 {
	return &v
}
