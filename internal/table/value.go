package table

import (
	"math"
	"strconv"
	"strings"
)

// Float is a nullable float64. The zero value is null.
// NaN and ±Inf never appear as valid values: Num normalizes them to Null.
type Float struct {
	V     float64
	Valid bool
}

// Null is the undefined numeric value
var Null = Float{}

// Num wraps v, mapping non-finite values to Null
func Num(v float64) Float {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Null
	}
	return Float{V: v, Valid: true}
}

// Or returns the value, or fallback when null
func (f Float) Or(fallback float64) float64 {
	if !f.Valid {
		return fallback
	}
	return f.V
}

// String formats the value for text output; null formats as ""
func (f Float) String() string {
	if !f.Valid {
		return ""
	}
	return strconv.FormatFloat(f.V, 'f', -1, 64)
}

// ParseFloat coerces a raw cell to a number.
// Empty or unparseable input yields Null (errors="coerce" semantics).
func ParseFloat(s string) Float {
	s = strings.TrimSpace(s)
	if s == "" {
		return Null
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Null
	}
	return Num(v)
}

// Floats builds a slice of valid values, handy for literals in tests and fixtures
func Floats(vs ...float64) []Float {
	out := make([]Float, len(vs))
	for i, v := range vs {
		out[i] = Num(v)
	}
	return out
}
