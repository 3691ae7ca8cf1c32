// Package pricing resolves the monthly rental price of a product from its
// pricing mode, its duration tier ladder and a rental duration.
package pricing

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jtpk2168/deskly-mobile-app-sub000/pkg/money"
)

// Mode selects whether tiers are consulted when pricing a product.
type Mode string

// Pricing modes.
const (
	ModeFixed  Mode = "fixed"
	ModeTiered Mode = "tiered"
)

// MinTierMonths is the shortest commitment a tier may start at; one month is
// always the base price.
const MinTierMonths = 2

// NormalizeMode maps the literal "tiered" to ModeTiered and everything else,
// including absent or malformed values, to ModeFixed.
func NormalizeMode(v any) Mode {
	switch m := v.(type) {
	case string:
		if m == string(ModeTiered) {
			return ModeTiered
		}
	case Mode:
		if m == ModeTiered {
			return ModeTiered
		}
	}
	return ModeFixed
}

// Tier is a discount breakpoint: from MinMonths onward the monthly price
// becomes MonthlyPrice.
type Tier struct {
	MinMonths    int             `json:"min_months"`
	MonthlyPrice decimal.Decimal `json:"monthly_price"`
}

// RawTier is a tier as received from the catalog API or a stored snapshot,
// before validation.
type RawTier struct {
	MinMonths    any
	MonthlyPrice any
}

// UnmarshalJSON accepts snake_case and camelCase keys. Anything that is not a
// JSON object decodes to an empty RawTier, which normalization drops.
func (t *RawTier) UnmarshalJSON(b []byte) error {
	var fields map[string]any
	if err := decodeNumbers(b, &fields); err != nil {
		*t = RawTier{}
		return nil
	}
	*t = RawTier{
		MinMonths:    firstPresent(fields, "min_months", "minMonths"),
		MonthlyPrice: firstPresent(fields, "monthly_price", "monthlyPrice", "price"),
	}
	return nil
}

// MarshalJSON writes the snake_case form read back by UnmarshalJSON.
func (t RawTier) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		MinMonths    any `json:"min_months"`
		MonthlyPrice any `json:"monthly_price"`
	}{t.MinMonths, t.MonthlyPrice})
}

// RawTiers is a tolerant tier list: a non-array value decodes to nil.
type RawTiers []RawTier

// UnmarshalJSON implements json.Unmarshaler.
func (ts *RawTiers) UnmarshalJSON(b []byte) error {
	var elems []json.RawMessage
	if err := json.Unmarshal(b, &elems); err != nil {
		*ts = nil
		return nil
	}
	out := make(RawTiers, 0, len(elems))
	for _, e := range elems {
		var t RawTier
		_ = t.UnmarshalJSON(e)
		out = append(out, t)
	}
	*ts = out
	return nil
}

// NormalizeTiers keeps the tiers whose min_months is an integer >= 2 and whose
// monthly price is a finite amount > 0, and returns them sorted ascending by
// min_months. Duplicate breakpoints collapse to the cheapest price. The
// result never aliases the input and normalizing it again is a no-op.
func NormalizeTiers(raw []RawTier) []Tier {
	byMonths := make(map[int]decimal.Decimal, len(raw))
	for _, r := range raw {
		months, ok := Integer(r.MinMonths)
		if !ok || months < MinTierMonths {
			continue
		}
		price := money.ToNullableMoney(r.MonthlyPrice)
		if price == nil || !price.IsPositive() {
			continue
		}
		if cur, seen := byMonths[months]; seen && cur.LessThanOrEqual(*price) {
			continue
		}
		byMonths[months] = *price
	}

	tiers := make([]Tier, 0, len(byMonths))
	for months, price := range byMonths {
		tiers = append(tiers, Tier{MinMonths: months, MonthlyPrice: price})
	}
	sort.Slice(tiers, func(i, j int) bool {
		return tiers[i].MinMonths < tiers[j].MinMonths
	})
	return tiers
}

// Sanitize re-normalizes an already typed tier list.
func Sanitize(tiers []Tier) []Tier {
	raw := make([]RawTier, len(tiers))
	for i, t := range tiers {
		raw[i] = t.Raw()
	}
	return NormalizeTiers(raw)
}

// Raw converts t back to its unvalidated form.
func (t Tier) Raw() RawTier {
	return RawTier{MinMonths: t.MinMonths, MonthlyPrice: t.MonthlyPrice}
}

// IsMonotonic reports whether the ladder never charges more for a longer
// commitment: each tier is no more expensive than the base price and than
// every shorter tier. Tiers must already be normalized.
func IsMonotonic(basePrice decimal.Decimal, tiers []Tier) bool {
	prev := money.Round(basePrice)
	for _, t := range tiers {
		if t.MonthlyPrice.GreaterThan(prev) {
			return false
		}
		prev = t.MonthlyPrice
	}
	return true
}

func firstPresent(fields map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := fields[k]; ok {
			return v
		}
	}
	return nil
}

func decodeNumbers(b []byte, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	return dec.Decode(dst)
}
