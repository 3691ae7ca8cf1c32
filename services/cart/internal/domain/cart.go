package domain

import (
	"github.com/shopspring/decimal"

	"github.com/jtpk2168/deskly-mobile-app-sub000/pkg/money"
	"github.com/jtpk2168/deskly-mobile-app-sub000/services/cart/internal/pricing"
)

// DefaultDurationMonths is the rental term a cart starts with and the floor
// used when a stored cart carries no duration.
const DefaultDurationMonths = 12

// Cart is the single rental cart of an app session. Every line item is priced
// for the cart-wide DurationMonths.
type Cart struct {
	Items          []LineItem `json:"items"`
	DurationMonths int        `json:"cart_duration_months"`
}

// LineItem is one product's presence in the cart. ID always equals ProductID.
type LineItem struct {
	ID               string          `json:"id"`
	ProductID        string          `json:"product_id"`
	Name             string          `json:"name"`
	Category         *string         `json:"category"`
	ImageURL         *string         `json:"image_url"`
	BaseMonthlyPrice decimal.Decimal `json:"base_monthly_price"`
	PricingMode      pricing.Mode    `json:"pricing_mode"`
	PricingTiers     []pricing.Tier  `json:"pricing_tiers"`
	MonthlyPrice     decimal.Decimal `json:"monthly_price"`
	DurationMonths   int             `json:"duration_months"`
	Quantity         int             `json:"quantity"`
}

// LineInput is a validated request to put a product in the cart. Values are
// expected to be normalized already; see AddToCartPayload.
type LineInput struct {
	ProductID        string
	Name             string
	Category         *string
	ImageURL         *string
	BaseMonthlyPrice decimal.Decimal
	PricingMode      pricing.Mode
	PricingTiers     []pricing.Tier
	Quantity         int
}

// New returns an empty cart for the given term.
func New(durationMonths int) *Cart {
	if durationMonths < 1 {
		durationMonths = DefaultDurationMonths
	}
	return &Cart{Items: []LineItem{}, DurationMonths: durationMonths}
}

// Reprice recomputes MonthlyPrice for the given duration.
func (li *LineItem) Reprice(durationMonths int) {
	li.DurationMonths = durationMonths
	li.MonthlyPrice = pricing.ResolveMonthlyPrice(li.BaseMonthlyPrice, li.PricingMode, li.PricingTiers, durationMonths)
}

// LineTotal returns round2(MonthlyPrice * Quantity).
func (li LineItem) LineTotal() decimal.Decimal {
	return money.Mul(li.MonthlyPrice, li.Quantity)
}

// Add puts a product in the cart. When the product is already present its
// quantity grows by in.Quantity and its pricing fields are replaced with the
// incoming ones before repricing. The resulting line is returned.
func (c *Cart) Add(in LineInput) LineItem {
	qty := in.Quantity
	if qty < 1 {
		qty = 1
	}
	tiers := pricing.Sanitize(in.PricingTiers)

	if idx := c.FindItemIndex(in.ProductID); idx >= 0 {
		li := &c.Items[idx]
		li.Quantity += qty
		li.BaseMonthlyPrice = in.BaseMonthlyPrice
		li.PricingMode = in.PricingMode
		li.PricingTiers = tiers
		li.Reprice(c.DurationMonths)
		return *li
	}

	li := LineItem{
		ID:               in.ProductID,
		ProductID:        in.ProductID,
		Name:             in.Name,
		Category:         in.Category,
		ImageURL:         in.ImageURL,
		BaseMonthlyPrice: in.BaseMonthlyPrice,
		PricingMode:      in.PricingMode,
		PricingTiers:     tiers,
		Quantity:         qty,
	}
	li.Reprice(c.DurationMonths)
	c.Items = append(c.Items, li)
	return li
}

// Remove deletes the line with the given id. It reports whether a line was
// removed.
func (c *Cart) Remove(itemID string) bool {
	idx := c.FindItemIndex(itemID)
	if idx < 0 {
		return false
	}
	c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
	return true
}

// SetQuantity sets the quantity of a line, clamped to at least one.
func (c *Cart) SetQuantity(itemID string, quantity int) bool {
	idx := c.FindItemIndex(itemID)
	if idx < 0 {
		return false
	}
	if quantity < 1 {
		quantity = 1
	}
	c.Items[idx].Quantity = quantity
	return true
}

// SetDuration changes the cart-wide term and reprices every line.
func (c *Cart) SetDuration(months int) {
	if months < 1 {
		return
	}
	c.DurationMonths = months
	for i := range c.Items {
		c.Items[i].Reprice(months)
	}
}

// Clear removes every line. The duration is kept.
func (c *Cart) Clear() {
	c.Items = []LineItem{}
}

// ItemCount returns the total number of units in the cart.
func (c *Cart) ItemCount() int {
	var count int
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// MonthlyTotal returns round2 of the sum of every line's monthly price times
// its quantity.
func (c *Cart) MonthlyTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.MonthlyPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return money.Round(total)
}

// FindItemIndex returns the index of the line for productID, or -1.
func (c *Cart) FindItemIndex(productID string) int {
	for i := range c.Items {
		if c.Items[i].ID == productID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy safe to hand to another goroutine.
func (c *Cart) Clone() Cart {
	out := Cart{Items: make([]LineItem, len(c.Items)), DurationMonths: c.DurationMonths}
	for i, li := range c.Items {
		tiers := make([]pricing.Tier, len(li.PricingTiers))
		copy(tiers, li.PricingTiers)
		li.PricingTiers = tiers
		li.Category = cloneString(li.Category)
		li.ImageURL = cloneString(li.ImageURL)
		out.Items[i] = li
	}
	return out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
