// Package units provides the unit conversions and derived quantities used
// when normalising humidity and temperature readings.
package units

import "math"

// Magnus-form saturation vapour pressure coefficients (kPa, degrees C).
const (
	magnusA = 0.611
	magnusB = 17.502
	magnusC = 240.97

	waterMolarMass = 18.02 // g/mol
	gasConstant    = 8.314 // J/(mol K)
	kelvinOffset   = 273.15
)

// FahrenheitToCelsius converts a temperature reported in degrees Fahrenheit.
func FahrenheitToCelsius(f float64) float64 {
	return (f - 32) / 1.8
}

// SaturationVapourPressure returns the saturation vapour pressure in kPa at
// the given temperature in degrees Celsius.
func SaturationVapourPressure(tempC float64) float64 {
	return magnusA * math.Exp(magnusB*tempC/(magnusC+tempC))
}

// AbsoluteHumidity derives the water vapour density in g/m³ from relative
// humidity (percent) and temperature (degrees Celsius).
func AbsoluteHumidity(rh, tempC float64) float64 {
	vapourKPa := (rh / 100) * SaturationVapourPressure(tempC)
	return (waterMolarMass / (gasConstant * (tempC + kelvinOffset))) * vapourKPa * 1000
}

// MagnusPole is the temperature at which the Magnus term diverges. Readings
// at or below it have no defined saturation vapour pressure.
const MagnusPole = -magnusC

// ValidTemperature reports whether tempC is finite and above MagnusPole, so
// AbsoluteHumidity yields a finite value.
func ValidTemperature(tempC float64) bool {
	return !math.IsNaN(tempC) && !math.IsInf(tempC, 0) && tempC > MagnusPole
}

// ValidRelativeHumidity reports whether rh is a physically possible reading.
func ValidRelativeHumidity(rh float64) bool {
	return rh >= 0 && rh <= 100
}
