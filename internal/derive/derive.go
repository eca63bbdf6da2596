// Package derive computes values derived from decoded reports: relative
// humidity, unit conversions, and true-to-magnetic wind direction at the
// station. Nothing here feeds back into the decoder.
package derive

import (
	"math"
	"time"

	"github.com/westphae/geomag/pkg/egm96"
	"github.com/westphae/geomag/pkg/wmm"
)

// Constants
const (
	FeetToMeters = 0.3048
	KnotsToMs    = 0.514444 // Conversion factor from Knots to m/s
	MsToKnots    = 1.94384  // Conversion factor from m/s to Knots

	// Magnus formula coefficients (over water, -40..50 degC range)
	magnusA = 17.625
	magnusB = 243.04 // degC
)

// RelativeHumidity returns the relative humidity in percent (0-100) for a
// temperature/dewpoint pair in Celsius, using the Magnus approximation.
// Dewpoint above temperature is clamped to 100.
func RelativeHumidity(tempC, dewC float64) float64 {
	gamma := func(t float64) float64 {
		return (magnusA * t) / (magnusB + t)
	}

	rh := 100 * math.Exp(gamma(dewC)-gamma(tempC))
	if rh > 100 {
		rh = 100
	}
	if rh < 0 {
		rh = 0
	}
	return rh
}

// KnotsToMetersPerSecond converts a wind speed in knots to m/s
func KnotsToMetersPerSecond(kt float64) float64 {
	return kt * KnotsToMs
}

// MagneticVariation calculates the magnetic declination for a given position
// and time. Returns declination in degrees (+East, -West), 0.0 on failure.
func MagneticVariation(lat, lon, altFt float64, date time.Time) float64 {
	altM := altFt * FeetToMeters

	loc := egm96.NewLocationGeodetic(lat, lon, altM)

	mag, err := wmm.CalculateWMMMagneticField(loc, date)
	if err != nil {
		return 0.0
	}

	return mag.D()
}

// MagneticWindDirection converts a true wind direction (degrees, as reported
// in a METAR) to the magnetic direction used in tower wind calls, applying
// the WMM declination at the station. Result is normalized to [0, 360).
func MagneticWindDirection(trueDeg float64, lat, lon, elevFt float64, t time.Time) float64 {
	magDeg := trueDeg - MagneticVariation(lat, lon, elevFt, t)

	for magDeg < 0 {
		magDeg += 360
	}
	for magDeg >= 360 {
		magDeg -= 360
	}

	return magDeg
}
