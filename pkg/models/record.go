// Package models defines the core data structures used throughout healthscatter.
package models

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

// Column names the renderer reads from the dataset header.
const (
	ColState      = "state"
	ColAbbr       = "abbr"
	ColPoverty    = "poverty"
	ColHealthcare = "healthcare"
)

// RequiredColumns lists the header columns every dataset must carry.
func RequiredColumns() []string {
	return []string{ColState, ColAbbr, ColPoverty, ColHealthcare}
}

// Record is one row of the dataset.
type Record struct {
	State      string            `json:"state"`      // e.g., "Ohio"
	Abbr       string            `json:"abbr"`       // e.g., "OH"
	Poverty    float64           `json:"poverty"`    // % in poverty
	Healthcare float64           `json:"healthcare"` // % lacking healthcare
	Fields     map[string]string `json:"fields,omitempty"`
}

// MarshalJSON encodes NaN percentages as null.
func (r Record) MarshalJSON() ([]byte, error) {
	type alias Record
	return json.Marshal(struct {
		alias
		Poverty    Float `json:"poverty"`
		Healthcare Float `json:"healthcare"`
	}{alias(r), Float(r.Poverty), Float(r.Healthcare)})
}

// Float is a float64 that encodes NaN and ±Inf as JSON null.
type Float float64

// MarshalJSON implements json.Marshaler.
func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

// Dataset is the ordered sequence of records loaded from one CSV.
type Dataset []Record

// Len returns the number of records.
func (d Dataset) Len() int { return len(d) }

// Poverty returns the poverty column in row order.
func (d Dataset) Poverty() []float64 {
	out := make([]float64, len(d))
	for i, r := range d {
		out[i] = r.Poverty
	}
	return out
}

// Healthcare returns the healthcare column in row order.
func (d Dataset) Healthcare() []float64 {
	out := make([]float64, len(d))
	for i, r := range d {
		out[i] = r.Healthcare
	}
	return out
}

// Extent returns the minimum and maximum of values, skipping NaN.
// ok is false when no comparable value exists.
func Extent(values []float64) (lo, hi float64, ok bool) {
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if !ok {
			lo, hi, ok = v, v, true
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if !ok {
		return math.NaN(), math.NaN(), false
	}
	return lo, hi, true
}

// Coerce converts a CSV text field to a number the way a unary plus does:
// blank is zero, unsigned 0x/0b/0o integers and Infinity are accepted, values
// too large for a float64 become ±Inf, anything else is NaN.
func Coerce(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	if len(s) > 2 && s[0] == '0' {
		if base, ok := radixPrefix[s[1]]; ok {
			n, err := strconv.ParseUint(s[2:], base, 64)
			if errors.Is(err, strconv.ErrRange) {
				return parseBigUint(s[2:], base)
			}
			if err != nil {
				return math.NaN()
			}
			return float64(n)
		}
	}
	// ParseFloat is more lenient than a unary plus for these spellings.
	lower := strings.ToLower(strings.TrimLeft(s, "+-"))
	if strings.HasPrefix(lower, "inf") || strings.HasPrefix(lower, "nan") || strings.Contains(lower, "_") ||
		strings.HasPrefix(lower, "0x") || strings.HasPrefix(lower, "0b") || strings.HasPrefix(lower, "0o") {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if errors.Is(err, strconv.ErrRange) {
		return v
	}
	if err != nil {
		return math.NaN()
	}
	return v
}

var radixPrefix = map[byte]int{'x': 16, 'X': 16, 'b': 2, 'B': 2, 'o': 8, 'O': 8}

// parseBigUint accumulates digits that overflow uint64; the caller has
// already validated them.
func parseBigUint(digits string, base int) float64 {
	var v float64
	for _, c := range strings.ToLower(digits) {
		d := strings.IndexRune("0123456789abcdef", c)
		v = v*float64(base) + float64(d)
	}
	return v
}

// FormatNumber renders v in its shortest round-trip form, as a script would
// when interpolating a number into text: plain decimal for magnitudes in
// [1e-6, 1e21), exponent notation such as "1e+21" or "1.5e-7" outside it.
func FormatNumber(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case v == 0:
		return "0"
	}
	if a := math.Abs(v); a >= 1e21 || a < 1e-6 {
		return jsExponent(strconv.FormatFloat(v, 'e', -1, 64))
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// jsExponent drops the leading zeros Go pads exponents with ("1e-07").
func jsExponent(s string) string {
	i := strings.IndexByte(s, 'e')
	if i < 0 || i+2 > len(s) {
		return s
	}
	exp := strings.TrimLeft(s[i+2:], "0")
	if exp == "" {
		exp = "0"
	}
	return s[:i+2] + exp
}
