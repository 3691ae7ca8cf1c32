// Package codec converts the cart to and from the blob kept in the snapshot
// slot.
//
// Encoded snapshots are JSON objects of the form
//
//	{"items": [...], "cartDurationMonths": 12}
//
// Decoding additionally accepts a bare item array written by older app
// builds, and falls back to an empty cart for anything it cannot parse.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/jtpk2168/deskly-mobile-app-sub000/services/cart/internal/domain"
	"github.com/jtpk2168/deskly-mobile-app-sub000/services/cart/internal/pricing"
)

// ErrMalformed is reported by DecodeStrict when the blob is not a cart.
var ErrMalformed = errors.New("malformed cart snapshot")

type snapshot struct {
	Items              []storedItem `json:"items"`
	CartDurationMonths int          `json:"cartDurationMonths"`
}

type storedItem struct {
	ID               string           `json:"id"`
	ProductID        string           `json:"productId"`
	Name             string           `json:"name"`
	Category         *string          `json:"category"`
	ImageURL         *string          `json:"imageUrl"`
	BaseMonthlyPrice any              `json:"baseMonthlyPrice"`
	PricingMode      any              `json:"pricingMode"`
	PricingTiers     pricing.RawTiers `json:"pricingTiers"`
	MonthlyPrice     any              `json:"monthlyPrice"`
	DurationMonths   any              `json:"durationMonths"`
	Quantity         any              `json:"quantity"`
}

// Encode serializes the cart.
func Encode(c *domain.Cart) ([]byte, error) {
	snap := snapshot{
		Items:              make([]storedItem, 0, len(c.Items)),
		CartDurationMonths: c.DurationMonths,
	}
	for _, li := range c.Items {
		tiers := make(pricing.RawTiers, 0, len(li.PricingTiers))
		for _, t := range li.PricingTiers {
			tiers = append(tiers, t.Raw())
		}
		snap.Items = append(snap.Items, storedItem{
			ID:               li.ID,
			ProductID:        li.ProductID,
			Name:             li.Name,
			Category:         li.Category,
			ImageURL:         li.ImageURL,
			BaseMonthlyPrice: li.BaseMonthlyPrice,
			PricingMode:      li.PricingMode,
			PricingTiers:     tiers,
			MonthlyPrice:     li.MonthlyPrice,
			DurationMonths:   li.DurationMonths,
			Quantity:         li.Quantity,
		})
	}
	return json.Marshal(snap)
}

// Decode rebuilds a cart from a stored blob. It never fails: a blob that
// cannot be parsed yields an empty cart with the default duration.
func Decode(blob []byte) *domain.Cart {
	c, err := DecodeStrict(blob)
	if err != nil {
		return domain.New(domain.DefaultDurationMonths)
	}
	return c
}

// DecodeStrict is Decode that reports unparsable blobs instead of hiding
// them, so callers can log the reset. Individual items that are not objects
// or lack a product id are still skipped silently.
//
// When the blob carries no usable duration it is inferred as the largest of
// the default term and every item's stored duration. Duplicate product
// entries are merged and every line is repriced for the resolved duration.
func DecodeStrict(blob []byte) (*domain.Cart, error) {
	trimmed := bytes.TrimSpace(blob)
	if len(trimmed) == 0 {
		return nil, ErrMalformed
	}

	var (
		rawItems []json.RawMessage
		duration any
	)
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &rawItems); err != nil {
			return nil, ErrMalformed
		}
	case '{':
		var obj struct {
			Items              json.RawMessage `json:"items"`
			CartDurationMonths any             `json:"cartDurationMonths"`
		}
		if err := decodeNumbers(trimmed, &obj); err != nil {
			return nil, ErrMalformed
		}
		// A non-array items field is treated as no items.
		_ = json.Unmarshal(obj.Items, &rawItems)
		duration = obj.CartDurationMonths
	default:
		return nil, ErrMalformed
	}

	items := make([]storedItem, 0, len(rawItems))
	for _, raw := range rawItems {
		var it storedItem
		if err := decodeNumbers(raw, &it); err != nil {
			continue
		}
		if it.ProductID == "" {
			it.ProductID = it.ID
		}
		if it.ProductID == "" {
			continue
		}
		items = append(items, it)
	}

	months := domain.NormalizeDuration(duration, inferDuration(items))
	c := domain.New(months)
	for _, it := range items {
		in, ok := it.payload().ToLineInput()
		if !ok {
			continue
		}
		c.Add(in)
	}
	return c, nil
}

// inferDuration returns max(default, every stored item duration).
func inferDuration(items []storedItem) int {
	months := domain.DefaultDurationMonths
	for _, it := range items {
		if n := domain.NormalizeDuration(it.DurationMonths, 0); n > months {
			months = n
		}
	}
	return months
}

func (it storedItem) payload() domain.AddToCartPayload {
	return domain.AddToCartPayload{
		ProductID:        it.ProductID,
		Name:             it.Name,
		Category:         it.Category,
		ImageURL:         it.ImageURL,
		BaseMonthlyPrice: it.BaseMonthlyPrice,
		MonthlyPrice:     it.MonthlyPrice,
		PricingMode:      it.PricingMode,
		PricingTiers:     it.PricingTiers,
		Quantity:         it.Quantity,
	}
}

func decodeNumbers(b []byte, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	return dec.Decode(dst)
}
