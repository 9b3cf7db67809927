package lunar

import (
	"testing"
	"time"
)

func TestCalculate(t *testing.T) {
	tests := []struct {
		name      string
		time      time.Time
		phaseName string
		minIllum  float64
		maxIllum  float64
		isWaxing  bool
		spring    bool
	}{
		{
			name:      "new moon 2023-01-21",
			time:      time.Date(2023, 1, 21, 20, 53, 0, 0, time.UTC),
			phaseName: "New Moon",
			minIllum:  0.0,
			maxIllum:  0.05,
			isWaxing:  true,
			spring:    true,
		},
		{
			name:      "full moon 2023-02-05",
			time:      time.Date(2023, 2, 5, 18, 29, 0, 0, time.UTC),
			phaseName: "Full Moon",
			minIllum:  0.95,
			maxIllum:  1.0,
			isWaxing:  false,
			spring:    true,
		},
		{
			name:      "waning gibbous 2023-02-09",
			time:      time.Date(2023, 2, 9, 12, 0, 0, 0, time.UTC),
			phaseName: "Waning Gibbous",
			minIllum:  0.6,
			maxIllum:  0.95,
			isWaxing:  false,
			spring:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Calculate(tt.time)

			if m.PhaseName != tt.phaseName {
				t.Errorf("PhaseName = %q, expected %q", m.PhaseName, tt.phaseName)
			}
			if m.Illumination < tt.minIllum || m.Illumination > tt.maxIllum {
				t.Errorf("Illumination = %.3f, expected in [%.2f, %.2f]", m.Illumination, tt.minIllum, tt.maxIllum)
			}
			if m.IsWaxing != tt.isWaxing {
				t.Errorf("IsWaxing = %v, expected %v", m.IsWaxing, tt.isWaxing)
			}
			if m.IsSpringTide() != tt.spring {
				t.Errorf("IsSpringTide() = %v, expected %v (age %.2f days)", m.IsSpringTide(), tt.spring, m.AgeDays)
			}
		})
	}
}

func TestCalculateBounds(t *testing.T) {
	for year := 2019; year <= 2024; year++ {
		for month := time.January; month <= time.December; month++ {
			ts := time.Date(year, month, 15, 12, 0, 0, 0, time.UTC)
			m := Calculate(ts)

			if m.Illumination < 0 || m.Illumination > 1 {
				t.Errorf("Illumination %.3f out of range for %v", m.Illumination, ts)
			}
			if m.Phase < 0 || m.Phase >= 1 {
				t.Errorf("Phase %.3f out of range for %v", m.Phase, ts)
			}
			if m.AgeDays < 0 || m.AgeDays >= SynodicMonth {
				t.Errorf("AgeDays %.3f out of range for %v", m.AgeDays, ts)
			}
		}
	}
}

func TestCalculateLocalTimeMatchesUTC(t *testing.T) {
	loc, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	utc := time.Date(2021, 6, 1, 18, 0, 0, 0, time.UTC)
	if a, b := Calculate(utc), Calculate(utc.In(loc)); a != b {
		t.Errorf("Calculate differs by zone: %+v vs %+v", a, b)
	}
}

func TestWaxingWaning(t *testing.T) {
	newMoon := time.Date(2023, 1, 21, 20, 53, 0, 0, time.UTC)
	if !Calculate(newMoon.Add(7 * 24 * time.Hour)).IsWaxing {
		t.Error("expected waxing moon a week after new moon")
	}

	fullMoon := time.Date(2023, 2, 5, 18, 29, 0, 0, time.UTC)
	if Calculate(fullMoon.Add(7 * 24 * time.Hour)).IsWaxing {
		t.Error("expected waning moon a week after full moon")
	}
}

func BenchmarkCalculate(b *testing.B) {
	ts := time.Date(2023, 1, 28, 15, 19, 0, 0, time.UTC)
	for i := 0; i < b.N; i++ {
		Calculate(ts)
	}
}
