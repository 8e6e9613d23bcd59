package chart

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/seenimoa/healthscatter/pkg/models"
)

// Linear maps a continuous domain onto a pixel range.
type Linear struct {
	Domain [2]float64 `json:"domain"`
	Range  [2]float64 `json:"range"`
}

// NewLinear creates a linear scale.
func NewLinear(domain, rng [2]float64) Linear {
	return Linear{Domain: domain, Range: rng}
}

// MarshalJSON encodes an undefined domain as nulls.
func (s Linear) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Domain [2]models.Float `json:"domain"`
		Range  [2]float64      `json:"range"`
	}{[2]models.Float{models.Float(s.Domain[0]), models.Float(s.Domain[1])}, s.Range})
}

// PaddedDomain returns [min*low, max*high] over values, ignoring NaN.
// Both bounds are NaN when values holds no number.
func PaddedDomain(values []float64, p Padding) [2]float64 {
	lo, hi, ok := models.Extent(values)
	if !ok {
		return [2]float64{math.NaN(), math.NaN()}
	}
	return [2]float64{lo * p.Low, hi * p.High}
}

// Map returns the pixel position of v. A zero-width domain maps everything
// to the middle of the range; NaN propagates.
func (s Linear) Map(v float64) float64 {
	d0, d1 := s.Domain[0], s.Domain[1]
	r0, r1 := s.Range[0], s.Range[1]
	if d1 < d0 {
		d0, d1 = d1, d0
		r0, r1 = r1, r0
	}

	var t float64
	switch w := d1 - d0; {
	case math.IsNaN(w):
		t = math.NaN()
	case w == 0:
		t = 0.5
	default:
		t = (v - d0) / w
	}
	return r0*(1-t) + r1*t
}

// Ticks returns roughly count evenly spaced, human-friendly values inside
// the domain, in domain order.
func (s Linear) Ticks(count int) []float64 {
	return ticks(s.Domain[0], s.Domain[1], float64(count))
}

// TickStep returns the spacing Ticks(count) uses.
func (s Linear) TickStep(count int) float64 {
	start, stop := s.Domain[0], s.Domain[1]
	reverse := stop < start
	var inc float64
	if reverse {
		_, _, inc = tickSpec(stop, start, float64(count))
	} else {
		_, _, inc = tickSpec(start, stop, float64(count))
	}
	step := inc
	if inc < 0 {
		step = 1 / -inc
	}
	if reverse {
		step = -step
	}
	return step
}

// TickFormat returns a formatter with just enough decimals to tell the
// ticks of Ticks(count) apart.
func (s Linear) TickFormat(count int) func(float64) string {
	precision := precisionFixed(s.TickStep(count))
	return func(v float64) string { return formatFixed(v, precision) }
}

var (
	e10 = math.Sqrt(50)
	e5  = math.Sqrt(10)
	e2  = math.Sqrt(2)
)

// jsRound rounds half up, matching Math.round.
func jsRound(x float64) float64 { return math.Floor(x + 0.5) }

func tickSpec(start, stop, count float64) (i1, i2, inc float64) {
	step := (stop - start) / math.Max(0, count)
	power := math.Floor(math.Log10(step))
	err := step / math.Pow(10, power)
	factor := 1.0
	switch {
	case err >= e10:
		factor = 10
	case err >= e5:
		factor = 5
	case err >= e2:
		factor = 2
	}

	if power < 0 {
		inc = math.Pow(10, -power) / factor
		i1 = jsRound(start * inc)
		i2 = jsRound(stop * inc)
		if i1/inc < start {
			i1++
		}
		if i2/inc > stop {
			i2--
		}
		inc = -inc
	} else {
		inc = math.Pow(10, power) * factor
		i1 = jsRound(start / inc)
		i2 = jsRound(stop / inc)
		if i1*inc < start {
			i1++
		}
		if i2*inc > stop {
			i2--
		}
	}
	if i2 < i1 && 0.5 <= count && count < 2 {
		return tickSpec(start, stop, count*2)
	}
	return i1, i2, inc
}

func ticks(start, stop, count float64) []float64 {
	if !(count > 0) || !isFinite(start) || !isFinite(stop) {
		return nil
	}
	if start == stop {
		return []float64{start}
	}
	reverse := stop < start
	var i1, i2, inc float64
	if reverse {
		i1, i2, inc = tickSpec(stop, start, count)
	} else {
		i1, i2, inc = tickSpec(start, stop, count)
	}
	if !(i2 >= i1) {
		return nil
	}

	n := int(i2-i1) + 1
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		k := i1 + float64(i)
		if reverse {
			k = i2 - float64(i)
		}
		if inc < 0 {
			out[i] = k / -inc
		} else {
			out[i] = k * inc
		}
	}
	return out
}

// precisionFixed is the number of decimals needed to show multiples of step.
func precisionFixed(step float64) int {
	step = math.Abs(step)
	if step == 0 || !isFinite(step) {
		return 0
	}
	s := strconv.FormatFloat(step, 'e', -1, 64)
	exp, err := strconv.Atoi(s[strings.IndexByte(s, 'e')+1:])
	if err != nil || exp >= 0 {
		return 0
	}
	return -exp
}

// formatFixed prints v with the given decimals, comma thousands grouping
// and a U+2212 minus sign. Values that round to zero print unsigned.
func formatFixed(v float64, precision int) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	if math.IsInf(v, 0) {
		if v < 0 {
			return "−Infinity"
		}
		return "Infinity"
	}
	body := strconv.FormatFloat(math.Abs(v), 'f', precision, 64)
	neg := v < 0
	if neg {
		if z, _ := strconv.ParseFloat(body, 64); z == 0 {
			neg = false
		}
	}

	intPart, frac := body, ""
	if dot := strings.IndexByte(body, '.'); dot >= 0 {
		intPart, frac = body[:dot], body[dot:]
	}

	var sb strings.Builder
	if neg {
		sb.WriteString("−")
	}
	for i, ch := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(ch)
	}
	sb.WriteString(frac)
	return sb.String()
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
