package output

import "math"

// RoundFloat rounds a float to max 6 decimal places
func RoundFloat(f float64) float64 {
	multiplier := math.Pow(10, 6)
	return math.Round(f*multiplier) / multiplier
}
