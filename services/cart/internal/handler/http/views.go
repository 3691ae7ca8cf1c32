package http

import (
	"github.com/shopspring/decimal"

	"github.com/jtpk2168/deskly-mobile-app-sub000/services/cart/internal/domain"
)

// CartView is the cart as returned by every cart endpoint.
type CartView struct {
	Items          []ItemView      `json:"items"`
	DurationMonths int             `json:"cart_duration_months"`
	ItemCount      int             `json:"item_count"`
	MonthlyTotal   decimal.Decimal `json:"monthly_total"`
}

// ItemView is a line item with its monthly line total.
type ItemView struct {
	domain.LineItem
	LineTotal decimal.Decimal `json:"line_total"`
}

func newCartView(c domain.Cart) CartView {
	items := make([]ItemView, len(c.Items))
	for i, li := range c.Items {
		items[i] = ItemView{LineItem: li, LineTotal: li.LineTotal()}
	}
	return CartView{
		Items:          items,
		DurationMonths: c.DurationMonths,
		ItemCount:      c.ItemCount(),
		MonthlyTotal:   c.MonthlyTotal(),
	}
}
