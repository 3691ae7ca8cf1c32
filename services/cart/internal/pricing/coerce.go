package pricing

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/jtpk2168/deskly-mobile-app-sub000/pkg/money"
)

var (
	maxInt = decimal.NewFromInt(math.MaxInt32)
	minInt = decimal.NewFromInt(math.MinInt32)
)

// Integer returns v as an int when it is a finite number without a
// fractional part (numeric strings included).
func Integer(v any) (int, bool) {
	d, ok := money.Coerce(v)
	if !ok || !d.Equal(d.Truncate(0)) || outOfRange(d) {
		return 0, false
	}
	return int(d.IntPart()), true
}

// RoundedInteger returns v rounded half away from zero when it is a finite
// number.
func RoundedInteger(v any) (int, bool) {
	d, ok := money.Coerce(v)
	if !ok {
		return 0, false
	}
	d = d.Round(0)
	if outOfRange(d) {
		return 0, false
	}
	return int(d.IntPart()), true
}

func outOfRange(d decimal.Decimal) bool {
	return d.GreaterThan(maxInt) || d.LessThan(minInt)
}
