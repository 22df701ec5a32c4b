package normalize

import "strings"

// Unit systems accepted by the OpenWeatherMap units parameter.
const (
	UnitsImperial = "imperial"
	UnitsMetric   = "metric"
	UnitsStandard = "standard"
)

// Letter returns the display letter for units: F for imperial, C for metric
// and K for anything else, including the empty string.
func Letter(units string) string {
	switch units {
	case UnitsImperial:
		return "F"
	case UnitsMetric:
		return "C"
	default:
		return "K"
	}
}

// ResolveUnits lowercases units and substitutes metric when it is blank.
func ResolveUnits(units string) string {
	units = strings.ToLower(strings.TrimSpace(units))
	if units == "" {
		return UnitsMetric
	}
	return units
}
