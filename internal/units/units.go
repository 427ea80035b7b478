// Package units converts length, mass and power values to the canonical units used by
// the estimator: centimeters, kilograms and kilowatts.
package units

import "strings"

// LengthUnits lists every recognized length token. Extractors match them in this
// order, so a token must come before any token it ends with.
var LengthUnits = []string{"mm", "cm", "m", "毫米", "厘米", "米"}

// MassUnits lists every recognized mass token, in matching order.
var MassUnits = []string{"kg", "g", "斤", "千克", "公斤", "克"}

var lengthScale = map[string]float64{
	"mm": 0.1,
	"毫米": 0.1,
	"cm": 1,
	"厘米": 1,
	"m":  100,
	"米":  100,
}

var massScale = map[string]float64{
	"g":  0.001,
	"克":  0.001,
	"斤":  0.5,
	"kg": 1,
	"千克": 1,
	"公斤": 1,
}

var powerScale = map[string]float64{
	"w":  0.001,
	"kw": 1,
}

// LengthToCm converts value in unit to centimeters. Unknown units are taken as centimeters.
func LengthToCm(value float64, unit string) float64 {
	return convert(value, unit, lengthScale)
}

// MassToKg converts value in unit to kilograms. Unknown units are taken as kilograms.
func MassToKg(value float64, unit string) float64 {
	return convert(value, unit, massScale)
}

// PowerToKW converts value in unit (w or kw) to kilowatts. Unknown units are taken as kilowatts.
func PowerToKW(value float64, unit string) float64 {
	return convert(value, unit, powerScale)
}

// cmFromLength is the inverse of LengthToCm for a known unit.
func cmFromLength(cm float64, unit string) float64 {
	scale, ok := lengthScale[normalizeUnit(unit)]
	if !ok {
		return cm
	}
	return cm / scale
}

func convert(value float64, unit string, table map[string]float64) float64 {
	scale, ok := table[normalizeUnit(unit)]
	if !ok {
		return value
	}
	return value * scale
}

func normalizeUnit(unit string) string {
	return strings.ToLower(strings.TrimSpace(unit))
}
