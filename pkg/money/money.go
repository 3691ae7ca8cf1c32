// Package money normalizes loosely typed monetary input into two-decimal
// decimal.Decimal values.
//
// Every amount that leaves this package has been rounded to two decimal
// places with round-half-away-from-zero, so sums of normalized values never
// accumulate binary floating point drift.
package money

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Places is the number of fractional digits kept for monetary values.
const Places = 2

// Zero is the normalized zero amount.
var Zero = decimal.Zero

const (
	// maxIntDigits is the widest integer part a float64 can hold.
	maxIntDigits = 309
	// minMagnitude: values below 10^minMagnitude round to zero.
	minMagnitude = -32
	// maxDigits bounds the coefficient kept from textual input.
	maxDigits = 64
)

func init() {
	// Amounts travel as JSON numbers on the wire and in stored snapshots.
	decimal.MarshalJSONWithoutQuotes = true
}

// ToMoney coerces v to a two-decimal amount. Values that are absent or not a
// finite number yield fallback (which is itself rounded).
func ToMoney(v any, fallback decimal.Decimal) decimal.Decimal {
	d, ok := Coerce(v)
	if !ok {
		return Round(fallback)
	}
	return Round(d)
}

// ToNullableMoney is ToMoney without a fallback: it returns nil when the input
// is absent or not a finite number, so callers can tell "unknown" from zero.
func ToNullableMoney(v any) *decimal.Decimal {
	d, ok := Coerce(v)
	if !ok {
		return nil
	}
	r := Round(d)
	return &r
}

// Round rounds d to two decimal places, half away from zero.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// Mul returns round2(d * n).
func Mul(d decimal.Decimal, n int) decimal.Decimal {
	return Round(d.Mul(decimal.NewFromInt(int64(n))))
}

// Coerce converts a decoded JSON value (or a Go numeric) to a decimal. The
// boolean is false for nil, NaN, infinities, booleans and strings that do not
// parse as a number.
func Coerce(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case nil:
		return decimal.Zero, false
	case decimal.Decimal:
		return bounded(n)
	case *decimal.Decimal:
		if n == nil {
			return decimal.Zero, false
		}
		return bounded(*n)
	case float64:
		return fromFloat(n)
	case float32:
		return fromFloat(float64(n))
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int32:
		return decimal.NewFromInt32(n), true
	case int64:
		return decimal.NewFromInt(n), true
	case uint:
		return fromString(strconv.FormatUint(uint64(n), 10))
	case uint32:
		return decimal.NewFromInt(int64(n)), true
	case uint64:
		return fromString(strconv.FormatUint(n, 10))
	case json.Number:
		return fromString(string(n))
	case string:
		return fromString(n)
	case *float64:
		if n == nil {
			return decimal.Zero, false
		}
		return fromFloat(*n)
	default:
		return decimal.Zero, false
	}
}

func fromFloat(f float64) (decimal.Decimal, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(f), true
}

func fromString(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	// Magnitude is checked as a float64 first: the decimal parser accepts
	// exponents far beyond it and every later operation would expand them.
	f, err := strconv.ParseFloat(s, 64)
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return decimal.Zero, false
	}
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return decimal.Zero, false
	}
	if len(s) > maxDigits {
		return fromFloat(f)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return bounded(d)
}

// bounded rejects values outside the float64 range and collapses values
// too small to survive rounding, so Round never rescales by a huge power.
func bounded(d decimal.Decimal) (decimal.Decimal, bool) {
	if d.IsZero() {
		return decimal.Zero, true
	}
	digits := d.NumDigits()
	if digits > maxDigits {
		return decimal.Zero, false
	}
	mag := int64(digits) + int64(d.Exponent())
	switch {
	case mag > maxIntDigits:
		return decimal.Zero, false
	case mag < minMagnitude:
		return decimal.Zero, true
	}
	return d, true
}
