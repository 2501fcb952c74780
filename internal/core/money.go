// Package core provides the receipt domain types and money helpers.
//
// This file contains the rounding rule shared by every monetary output and
// the lenient number parsing used when reading raw receipt fields.
package core

import (
	"math"
	"strconv"
	"strings"
)

// roundingEpsilon counters float drift such as 1.005 being stored as 1.00499...
const roundingEpsilon = 2.220446049250313e-16

// Round2 rounds half-up to two decimals after adding a small epsilon.
//
// Examples:
//
//	Round2(1.005) -> 1.01
//	Round2(7.125) -> 7.13
//	Round2(0.1+0.2) -> 0.3
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return math.Round((v+roundingEpsilon)*100) / 100
}

// ParseAmount reads a monetary value from a loosely formatted string.
//
// Currency symbols, spaces and thousands separators are dropped; a single
// comma with no dot is treated as a decimal comma. The boolean is false when
// nothing numeric remains or the result is not finite.
func ParseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	var b strings.Builder
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		case r == '-' && b.Len() == 0 && i < len(s)-1:
			b.WriteRune(r)
		}
	}
	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
