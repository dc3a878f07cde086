// Package units converts the SI values gpsd reports (meters, meters per
// second) into the units people usually read them in.
package units

import (
	"fmt"

	"github.com/gear6io/gpsd4go/pkg/errors"
)

var ErrUnknownSpeedUnit = errors.MustNewCode("units.unknown_speed_unit")

const (
	KilometersInMile         = 1.609344
	KilometersInNauticalMile = 1.852
	MetersInFoot             = 0.3048
	MetersInKilometer        = 1000
	SecondsInMinute          = 60

	// KilometersPerHourInMeterPerSecond is the km/h value of 1 m/s.
	KilometersPerHourInMeterPerSecond = 3.6
)

func MetersPerSecondToKilometersPerHour(mps float64) float64 {
	return mps * KilometersPerHourInMeterPerSecond
}

func MetersPerSecondToMilesPerHour(mps float64) float64 {
	return MetersPerSecondToKilometersPerHour(mps) / KilometersInMile
}

func MetersPerSecondToKnots(mps float64) float64 {
	return MetersPerSecondToKilometersPerHour(mps) / KilometersInNauticalMile
}

func MetersPerSecondToFeetPerMinute(mps float64) float64 {
	return mps * SecondsInMinute / MetersInFoot
}

func MetersToNauticalMiles(meters float64) float64 {
	return meters / MetersInKilometer / KilometersInNauticalMile
}

func MetersToFeet(meters float64) float64 {
	return meters / MetersInFoot
}

// SpeedUnit selects how Speed is rendered.
type SpeedUnit string

const (
	KilometersPerHour SpeedUnit = "km/h"
	MilesPerHour      SpeedUnit = "mph"
	Knots             SpeedUnit = "kn"
	FeetPerMinute     SpeedUnit = "ft/min"
	MetersPerSecond   SpeedUnit = "m/s"
)

// ParseSpeedUnit accepts the unit symbols above.
func ParseSpeedUnit(s string) (SpeedUnit, error) {
	switch u := SpeedUnit(s); u {
	case KilometersPerHour, MilesPerHour, Knots, FeetPerMinute, MetersPerSecond:
		return u, nil
	case "kmh", "kph":
		return KilometersPerHour, nil
	case "knots", "kt":
		return Knots, nil
	case "mps":
		return MetersPerSecond, nil
	}
	return "", errors.Newf(ErrUnknownSpeedUnit, "unknown speed unit %q", s)
}

// Speed is a speed in meters per second, as gpsd reports it.
type Speed float64

func (s Speed) In(unit SpeedUnit) float64 {
	mps := float64(s)
	switch unit {
	case KilometersPerHour:
		return MetersPerSecondToKilometersPerHour(mps)
	case MilesPerHour:
		return MetersPerSecondToMilesPerHour(mps)
	case Knots:
		return MetersPerSecondToKnots(mps)
	case FeetPerMinute:
		return MetersPerSecondToFeetPerMinute(mps)
	default:
		return mps
	}
}

// Format renders the speed with one decimal, e.g. "36.0 km/h".
func (s Speed) Format(unit SpeedUnit) string {
	if unit == "" {
		unit = MetersPerSecond
	}
	return fmt.Sprintf("%.1f %s", s.In(unit), unit)
}
