package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/jtpk2168/deskly-mobile-app-sub000/services/cart/internal/domain"
	"github.com/jtpk2168/deskly-mobile-app-sub000/services/cart/internal/pricing"
)

// Product is a catalog product as served by the remote API. Pricing fields
// are left loosely typed; Payload is the way into the cart and pricing.
type Product struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Description  string           `json:"description,omitempty"`
	Category     *string          `json:"category,omitempty"`
	ImageURL     *string          `json:"image_url,omitempty"`
	MonthlyPrice any              `json:"monthly_price"`
	PricingMode  any              `json:"pricing_mode,omitempty"`
	PricingTiers pricing.RawTiers `json:"pricing_tiers,omitempty"`
}

// Payload converts the product into an add-to-cart request for quantity.
func (p Product) Payload(quantity any) domain.AddToCartPayload {
	return domain.AddToCartPayload{
		ProductID:        p.ID,
		Name:             p.Name,
		Category:         p.Category,
		ImageURL:         p.ImageURL,
		BaseMonthlyPrice: p.MonthlyPrice,
		PricingMode:      p.PricingMode,
		PricingTiers:     p.PricingTiers,
		Quantity:         quantity,
	}
}

// PriceView is the validated pricing shown next to a product.
type PriceView struct {
	pricing.Listing
	PricingMode  pricing.Mode   `json:"pricing_mode"`
	PricingTiers []pricing.Tier `json:"pricing_tiers"`

	// Set only when a rental duration was requested.
	DurationMonths *int             `json:"duration_months,omitempty"`
	MonthlyPrice   *decimal.Decimal `json:"monthly_price_for_duration,omitempty"`
}

// DecoratedProduct is a product with its resolved pricing.
type DecoratedProduct struct {
	Product
	Pricing PriceView `json:"pricing"`
}

// Decorate resolves the product's listing price and, when durationMonths is
// positive, its monthly price for that term. The client never returns
// products without an id, so the pricing fields always validate.
func Decorate(p Product, durationMonths int) DecoratedProduct {
	in, _ := p.Payload(1).ToLineInput()

	view := PriceView{
		Listing:      pricing.ResolveListingPrice(in.BaseMonthlyPrice, in.PricingMode, in.PricingTiers),
		PricingMode:  in.PricingMode,
		PricingTiers: in.PricingTiers,
	}
	if durationMonths > 0 {
		months := durationMonths
		price := pricing.ResolveMonthlyPrice(in.BaseMonthlyPrice, in.PricingMode, in.PricingTiers, months)
		view.DurationMonths = &months
		view.MonthlyPrice = &price
	}
	return DecoratedProduct{Product: p, Pricing: view}
}

// DecorateAll decorates every product in order.
func DecorateAll(products []Product, durationMonths int) []DecoratedProduct {
	out := make([]DecoratedProduct, 0, len(products))
	for _, p := range products {
		out = append(out, Decorate(p, durationMonths))
	}
	return out
}
