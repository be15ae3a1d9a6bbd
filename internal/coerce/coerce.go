// Package coerce turns loosely typed values, as found in scraped records
// and decoded JSON, into decimals, integers and text. Every helper reports
// absence with a false second return instead of an error.
package coerce

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// DecimalPlaces is the scale every decimal is rounded to.
const DecimalPlaces = 5

// maxIntegerDigits is the widest integer part a kept decimal can have.
const maxIntegerDigits = 10

var (
	// decimalLimit is the smallest magnitude that no longer fits ten
	// integer digits.
	decimalLimit = decimal.New(1, maxIntegerDigits)
	lessThanStep = decimal.New(1, -4)
)

// ToDecimal converts v to a decimal rounded half away from zero to five
// places. Strings of the form "<N" yield N - 0.0001. Values that cannot be
// parsed, are not finite, or reach 10^10 in magnitude are absent.
func ToDecimal(v any) (decimal.Decimal, bool) {
	var s string
	switch t := v.(type) {
	case nil:
		return decimal.Decimal{}, false
	case decimal.Decimal:
		return bound(t)
	case string:
		s = t
	case json.Number:
		s = string(t)
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return decimal.Decimal{}, false
		}
		return bound(decimal.NewFromFloat(t))
	case float32:
		if math.IsNaN(float64(t)) || math.IsInf(float64(t), 0) {
			return decimal.Decimal{}, false
		}
		return bound(decimal.NewFromFloat32(t))
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		str, err := cast.ToStringE(t)
		if err != nil {
			return decimal.Decimal{}, false
		}
		s = str
	default:
		return decimal.Decimal{}, false
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, false
	}

	if rest, ok := strings.CutPrefix(s, "<"); ok {
		d, err := decimal.NewFromString(strings.TrimSpace(rest))
		if err != nil {
			return decimal.Decimal{}, false
		}
		d, ok := clampMagnitude(d)
		if !ok {
			return decimal.Decimal{}, false
		}
		return bound(d.Sub(lessThanStep))
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return bound(d)
}

// clampMagnitude sorts d by exponent alone, before any rescaling. Values
// far past the limit are absent and values below the rounding scale are
// zero.
func clampMagnitude(d decimal.Decimal) (decimal.Decimal, bool) {
	if d.IsZero() {
		return decimal.Zero, true
	}
	// |d| < 10^magnitude
	magnitude := int64(d.Exponent()) + int64(d.NumDigits())
	switch {
	case magnitude > maxIntegerDigits+1:
		return decimal.Decimal{}, false
	case magnitude <= -(DecimalPlaces + 1):
		return decimal.Zero, true
	}
	return d, true
}

func bound(d decimal.Decimal) (decimal.Decimal, bool) {
	d, ok := clampMagnitude(d)
	if !ok {
		return decimal.Decimal{}, false
	}
	d = d.Round(DecimalPlaces)
	if d.Abs().GreaterThanOrEqual(decimalLimit) {
		return decimal.Decimal{}, false
	}
	return d, true
}

// ToInt converts v to an integer, truncating any fraction toward zero.
// Strings are trimmed first, so " 3.7 " yields 3.
func ToInt(v any) (int64, bool) {
	var f float64
	switch t := v.(type) {
	case nil:
		return 0, false
	case int64:
		return t, true
	case int:
		return int64(t), true
	case uint64:
		if t > math.MaxInt64 {
			return 0, false
		}
		return int64(t), true
	case uint:
		if uint64(t) > math.MaxInt64 {
			return 0, false
		}
		return int64(t), true
	case decimal.Decimal:
		f = t.InexactFloat64()
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := cast.ToFloat64E(strings.TrimSpace(t))
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		parsed, err := cast.ToFloat64E(v)
		if err != nil {
			return 0, false
		}
		f = parsed
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	f = math.Trunc(f)
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

// ToText returns v trimmed when it is a non-blank string.
func ToText(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}
