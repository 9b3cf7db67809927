// Package lunar computes the moon phase from the ecliptic longitudes of the
// Sun and Moon. Illumination is typically within 1% and phase timing within
// a couple of hours, which is plenty for labelling tide extremes.
package lunar

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// SynodicMonth is the average length of the lunar cycle in days
const SynodicMonth = 29.530588853

// springWindowDays is how close to new or full moon a tide counts as a spring tide
const springWindowDays = 2.0

// MoonPhase describes the moon at one instant
type MoonPhase struct {
	Phase        float64 // [0,1): 0=new, 0.5=full
	Elongation   float64 // Sun to Moon angle in degrees [0,360)
	Illumination float64 // illuminated fraction [0,1]
	AgeDays      float64 // days since new moon
	IsWaxing     bool
	PhaseName    string
}

// Calculate computes the moon phase for t
func Calculate(t time.Time) MoonPhase {
	T := julianCenturies(julian.TimeToJD(t.UTC()))

	elongation := normalizeAngle(moonEclipticLongitude(T) - sunEclipticLongitude(T))
	phase := elongation / 360.0
	illumination := (1 - math.Cos(degToRad(elongation))) / 2
	isWaxing := elongation < 180

	return MoonPhase{
		Phase:        phase,
		Elongation:   elongation,
		Illumination: illumination,
		AgeDays:      phase * SynodicMonth,
		IsWaxing:     isWaxing,
		PhaseName:    phaseName(illumination, isWaxing),
	}
}

// IsSpringTide reports whether the moon is within two days of new or full,
// when the tidal range is largest
func (m MoonPhase) IsSpringTide() bool {
	fromNew := math.Min(m.AgeDays, SynodicMonth-m.AgeDays)
	fromFull := math.Abs(m.AgeDays - SynodicMonth/2)
	return fromNew <= springWindowDays || fromFull <= springWindowDays
}

func phaseName(illumination float64, isWaxing bool) string {
	switch {
	case illumination < 0.01:
		return "New Moon"
	case illumination > 0.99:
		return "Full Moon"
	case illumination >= 0.49 && illumination <= 0.51:
		if isWaxing {
			return "First Quarter"
		}
		return "Third Quarter"
	case illumination < 0.50:
		if isWaxing {
			return "Waxing Crescent"
		}
		return "Waning Crescent"
	default:
		if isWaxing {
			return "Waxing Gibbous"
		}
		return "Waning Gibbous"
	}
}

// julianCenturies returns Julian centuries since J2000.0
func julianCenturies(jd float64) float64 {
	return (jd - 2451545.0) / 36525.0
}

func normalizeAngle(angle float64) float64 {
	angle = math.Mod(angle, 360)
	if angle < 0 {
		angle += 360
	}
	return angle
}

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// sunEclipticLongitude computes the Sun's ecliptic longitude in degrees
func sunEclipticLongitude(T float64) float64 {
	L0 := 280.46646 + 36000.76983*T + 0.0003032*T*T
	M := degToRad(normalizeAngle(357.52911 + 35999.05029*T - 0.0001537*T*T))

	// equation of center
	C := (1.914602-0.004817*T-0.000014*T*T)*math.Sin(M) +
		(0.019993-0.000101*T)*math.Sin(2*M) +
		0.000289*math.Sin(3*M)

	return normalizeAngle(L0 + C)
}

// moonEclipticLongitude computes the Moon's ecliptic longitude in degrees
// from the dominant periodic terms (Meeus ch. 47)
func moonEclipticLongitude(T float64) float64 {
	L := 218.3164477 + 481267.88123421*T - 0.0015786*T*T + T*T*T/538841 - T*T*T*T/65194000
	D := degToRad(normalizeAngle(297.8501921 + 445267.1114034*T - 0.0018819*T*T + T*T*T/545868 - T*T*T*T/113065000))
	Mp := degToRad(normalizeAngle(134.9633964 + 477198.8675055*T + 0.0087414*T*T + T*T*T/69699 - T*T*T*T/14712000))

	return normalizeAngle(L +
		6.289*math.Sin(Mp) +
		1.274*math.Sin(2*D-Mp) +
		0.658*math.Sin(2*D) +
		0.214*math.Sin(2*Mp) +
		0.110*math.Sin(D))
}
