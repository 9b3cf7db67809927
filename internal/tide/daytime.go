package tide

import (
	"fmt"
	"time"
)

// Window is a half-open range of local clock hours, [StartHour, EndHour)
type Window struct {
	StartHour int
	EndHour   int
}

// NewWindow returns a validated daytime window
func NewWindow(startHour, endHour int) (Window, error) {
	w := Window{StartHour: startHour, EndHour: endHour}
	if err := w.Validate(); err != nil {
		return Window{}, err
	}
	return w, nil
}

// Validate requires 0 <= StartHour < EndHour <= 24
func (w Window) Validate() error {
	if w.StartHour < 0 || w.StartHour > 23 {
		return &ConfigurationError{Field: "day_start_hour", Reason: fmt.Sprintf("must be between 0 and 23, got %d", w.StartHour)}
	}
	if w.EndHour < 1 || w.EndHour > 24 {
		return &ConfigurationError{Field: "day_end_hour", Reason: fmt.Sprintf("must be between 1 and 24, got %d", w.EndHour)}
	}
	if w.StartHour >= w.EndHour {
		return &ConfigurationError{Field: "day_end_hour", Reason: fmt.Sprintf("must be after day_start_hour (%d), got %d", w.StartHour, w.EndHour)}
	}
	return nil
}

// Contains reports whether the clock hour of t lies inside the window
func (w Window) Contains(t time.Time) bool {
	h := t.Hour()
	return h >= w.StartHour && h < w.EndHour
}

// FilterDaytime keeps the low tides that fall inside the window
func FilterDaytime(lows []ClassifiedLowTide, w Window) []ClassifiedLowTide {
	out := make([]ClassifiedLowTide, 0, len(lows))
	for _, l := range lows {
		if w.Contains(l.Time) {
			out = append(out, l)
		}
	}
	return out
}
