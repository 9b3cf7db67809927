package tide

import (
	"time"
)

// Classifier marks lower-low tides in a chronological stream of low tides.
//
// Lows are grouped by local calendar day. A day holding two or more lows is
// one group and its minimum-height member(s) are lower-low. A day holding a
// single low is compared against the nearer of its adjacent lows, provided
// that neighbour is closer than MaxNeighborGap; with no such neighbour the
// low is left as higher-low.
//
// The classifier holds only the open day and the last low of the previous
// day, so memory stays bounded regardless of series length.
type Classifier struct {
	maxGap time.Duration

	day  []Observation
	last *Observation
	seen int
}

// NewClassifier returns a classifier comparing lone lows against neighbours
// at most maxGap away
func NewClassifier(maxGap time.Duration) *Classifier {
	return &Classifier{maxGap: maxGap}
}

// Push feeds the next observation and returns the lows whose classification
// is now final. Non-low observations are ignored but counted, so the Index of
// a returned *MalformedObservationError is the position of o in the pushed
// stream. A low with a non-finite height or one earlier than the previous low
// is rejected.
func (c *Classifier) Push(o Observation) ([]ClassifiedLowTide, error) {
	index := c.seen
	c.seen++
	if o.Type != TideTypeLow {
		return nil, nil
	}
	if err := checkObservation(index, o); err != nil {
		return nil, err
	}

	var prev *Observation
	if n := len(c.day); n > 0 {
		prev = &c.day[n-1]
	} else {
		prev = c.last
	}
	if prev != nil && o.Time.Before(prev.Time) {
		return nil, outOfOrder(index, o)
	}

	var done []ClassifiedLowTide
	if len(c.day) > 0 && !sameDay(c.day[0].Time, o.Time) {
		done = c.closeDay(&o)
	}
	c.day = append(c.day, o)
	return done, nil
}

// Flush classifies the open day. The classifier can be reused afterwards.
func (c *Classifier) Flush() []ClassifiedLowTide {
	if len(c.day) == 0 {
		return nil
	}
	done := c.closeDay(nil)
	c.last = nil
	c.seen = 0
	return done
}

func (c *Classifier) closeDay(next *Observation) []ClassifiedLowTide {
	out := make([]ClassifiedLowTide, len(c.day))

	if len(c.day) == 1 {
		lone := c.day[0]
		out[0] = ClassifiedLowTide{Observation: lone}
		if n := c.nearestNeighbor(lone, next); n != nil {
			out[0].IsLowerLow = lone.Height <= n.Height
		}
	} else {
		lowest := c.day[0].Height
		for _, o := range c.day[1:] {
			if o.Height < lowest {
				lowest = o.Height
			}
		}
		for i, o := range c.day {
			out[i] = ClassifiedLowTide{Observation: o, IsLowerLow: o.Height == lowest}
		}
	}

	last := c.day[len(c.day)-1]
	c.last = &last
	c.day = c.day[:0]
	return out
}

// nearestNeighbor picks the closer of the previous and next lows, preferring
// the previous one on a tie. Neighbours at or beyond the gap limit are ignored.
func (c *Classifier) nearestNeighbor(lone Observation, next *Observation) *Observation {
	var best *Observation
	var bestGap time.Duration

	if c.last != nil {
		if gap := lone.Time.Sub(c.last.Time); gap < c.maxGap {
			best, bestGap = c.last, gap
		}
	}
	if next != nil {
		if gap := next.Time.Sub(lone.Time); gap < c.maxGap && (best == nil || gap < bestGap) {
			best = next
		}
	}
	return best
}

// ClassifyLowTides runs a fresh Classifier over lows and returns every low
// with its lower-low flag, in input order. Error indexes are positions in lows.
func ClassifyLowTides(lows []Observation, maxGap time.Duration) ([]ClassifiedLowTide, error) {
	c := NewClassifier(maxGap)
	out := make([]ClassifiedLowTide, 0, len(lows))
	for _, o := range lows {
		done, err := c.Push(o)
		if err != nil {
			return nil, err
		}
		out = append(out, done...)
	}
	return append(out, c.Flush()...), nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
