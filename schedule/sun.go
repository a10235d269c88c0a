package schedule

import (
	"errors"
	"time"

	"github.com/nathan-osman/go-sunrise"
)

// ErrNoSunEvent is returned for dates on which the sun does not rise or set
// at the configured location.
var ErrNoSunEvent = errors.New("no sunrise or sunset on this date")

// Sun supplies sunrise and sunset for a date.
type Sun interface {
	SunTimes(date time.Time) (rise, set time.Time, err error)
}

// Location computes sun times for a fixed point on earth.
type Location struct {
	latitude  float64
	longitude float64
	tz        *time.Location
}

// NewLocation creates a Location. Dates are interpreted, and results
// returned, in tz.
func NewLocation(latitude, longitude float64, tz *time.Location) *Location {
	if tz == nil {
		tz = time.Local
	}
	return &Location{latitude: latitude, longitude: longitude, tz: tz}
}

// SunTimes implements Sun.
func (l *Location) SunTimes(date time.Time) (time.Time, time.Time, error) {
	d := date.In(l.tz)
	rise, set := sunrise.SunriseSunset(l.latitude, l.longitude, d.Year(), d.Month(), d.Day())
	if rise.IsZero() || set.IsZero() {
		return time.Time{}, time.Time{}, ErrNoSunEvent
	}
	return rise.In(l.tz), set.In(l.tz), nil
}
