package grading

import (
	"math"
	"strconv"
	"strings"
)

// parseMarks reads a non-negative decimal captured by one of the scheme
// patterns. Anything else reports ok=false.
func parseMarks(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// round2 rounds half away from zero to two decimals.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// formatMarks prints marks without trailing zeros: 2, 1.5, 0.33.
func formatMarks(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
