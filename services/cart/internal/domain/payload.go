package domain

import (
	"strings"

	"github.com/jtpk2168/deskly-mobile-app-sub000/pkg/money"
	"github.com/jtpk2168/deskly-mobile-app-sub000/services/cart/internal/pricing"
)

// AddToCartPayload is the loosely typed add-to-cart request as it arrives
// from the app or from a catalog product. Numeric fields hold whatever the
// JSON decoder produced; ToLineInput is the only way into the cart.
type AddToCartPayload struct {
	ProductID        string           `json:"product_id"`
	Name             string           `json:"name"`
	Category         *string          `json:"category,omitempty"`
	ImageURL         *string          `json:"image_url,omitempty"`
	BaseMonthlyPrice any              `json:"base_monthly_price,omitempty"`
	MonthlyPrice     any              `json:"monthly_price,omitempty"`
	PricingMode      any              `json:"pricing_mode,omitempty"`
	PricingTiers     pricing.RawTiers `json:"pricing_tiers,omitempty"`
	Quantity         any              `json:"quantity,omitempty"`
}

// ToLineInput validates the payload with defaults. It returns false only when
// the product id is missing, since a line cannot exist without identity.
//
// The base price falls back to MonthlyPrice when absent and is never
// negative. Quantity defaults to one.
func (p AddToCartPayload) ToLineInput() (LineInput, bool) {
	id := strings.TrimSpace(p.ProductID)
	if id == "" {
		return LineInput{}, false
	}

	base := money.ToNullableMoney(p.BaseMonthlyPrice)
	if base == nil {
		base = money.ToNullableMoney(p.MonthlyPrice)
	}
	price := money.Zero
	if base != nil && base.IsPositive() {
		price = *base
	}

	return LineInput{
		ProductID:        id,
		Name:             p.Name,
		Category:         nonEmpty(p.Category),
		ImageURL:         nonEmpty(p.ImageURL),
		BaseMonthlyPrice: price,
		PricingMode:      pricing.NormalizeMode(p.PricingMode),
		PricingTiers:     pricing.NormalizeTiers(p.PricingTiers),
		Quantity:         NormalizeQuantity(p.Quantity),
	}, true
}

// NormalizeQuantity coerces v to an integer >= 1. Values that are not a
// finite number become 1.
func NormalizeQuantity(v any) int {
	n, ok := pricing.RoundedInteger(v)
	if !ok || n < 1 {
		return 1
	}
	return n
}

// NormalizeDuration coerces v to a whole number of months >= 1, or returns
// fallback when v is absent, not finite or below one.
func NormalizeDuration(v any, fallback int) int {
	n, ok := pricing.RoundedInteger(v)
	if !ok || n < 1 {
		return fallback
	}
	return n
}

func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
