package solar

import (
	"math"
	"time"
)

type polarState int

const (
	notPolar polarState = iota
	polarDay
	polarNight
)

// sunEvents returns sunrise and sunset in minutes from 00:00 UTC of the given
// date. Values may fall outside [0, 1440) when an event lands on the
// neighbouring UTC day.
func sunEvents(year, dayOfYear int, latitude, longitude float64) (rise, set float64, polar polarState) {
	cosH := -math.Tan(degToRad(latitude)) * math.Tan(declination(dayOfYear))
	switch {
	case cosH < -1.0:
		return 0, 0, polarDay
	case cosH > 1.0:
		return 0, 0, polarNight
	}

	hourAngleMinutes := radToDeg(math.Acos(cosH)) / 15.0 * 60.0

	noonRef := time.Date(year, time.January, 1, 12, 0, 0, 0, time.UTC).AddDate(0, 0, dayOfYear-1)
	solarNoon := 720.0 - longitude*4.0 - equationOfTime(noonRef)

	return solarNoon - hourAngleMinutes, solarNoon + hourAngleMinutes, notPolar
}

// CalculateSunriseSunset returns sunrise and sunset as minutes from midnight UTC
// for the given day. Returns (-1, -1) during polar day or polar night.
func CalculateSunriseSunset(year, dayOfYear int, latitude, longitude float64) (sunriseMinutes, sunsetMinutes int) {
	rise, set, polar := sunEvents(year, dayOfYear, latitude, longitude)
	if polar != notPolar {
		return -1, -1
	}
	rise = math.Mod(rise+1440, 1440)
	set = math.Mod(set+1440, 1440)
	return int(math.Round(rise)), int(math.Round(set))
}

// SunTimes returns the sunrise and sunset instants for the calendar day of
// date in date's location. ok is false during polar day or night.
func SunTimes(date time.Time, latitude, longitude float64) (sunrise, sunset time.Time, ok bool) {
	y, m, d := date.Date()
	rise, set, polar := sunEvents(y, date.YearDay(), latitude, longitude)
	if polar != notPolar {
		return time.Time{}, time.Time{}, false
	}

	midnight := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	sunrise = midnight.Add(time.Duration(rise * float64(time.Minute))).In(date.Location())
	sunset = midnight.Add(time.Duration(set * float64(time.Minute))).In(date.Location())
	return sunrise, sunset, true
}

// IsDaylight reports whether the sun is above the horizon at t
func IsDaylight(t time.Time, latitude, longitude float64) bool {
	sunrise, sunset, ok := SunTimes(t, latitude, longitude)
	if !ok {
		_, _, polar := sunEvents(t.Year(), t.YearDay(), latitude, longitude)
		return polar == polarDay
	}
	return !t.Before(sunrise) && t.Before(sunset)
}

// FormatSunTime renders t as a short clock time in loc, or "" for the zero time
func FormatSunTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format("3:04 PM")
}
