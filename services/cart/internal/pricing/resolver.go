package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/jtpk2168/deskly-mobile-app-sub000/pkg/money"
)

// Listing is the price shown on catalog cards. When the cheapest tier beats
// the base price the card shows "From <ListingPrice>".
type Listing struct {
	BasePrice    decimal.Decimal `json:"base_price"`
	ListingPrice decimal.Decimal `json:"listing_price"`
	HasDiscount  bool            `json:"has_discount"`
}

// ResolveMonthlyPrice returns the monthly price for a rental of
// durationMonths. Fixed-mode products and products without tiers always cost
// basePrice. Otherwise the qualifying tier (min_months <= duration) with the
// largest min_months wins, so a 24 month commitment gets the best breakpoint
// it satisfies rather than the first one listed. With no qualifying tier the
// base price applies.
//
// The result is always basePrice or exactly one tier's monthly price.
func ResolveMonthlyPrice(basePrice decimal.Decimal, mode Mode, tiers []Tier, durationMonths int) decimal.Decimal {
	base := money.Round(basePrice)
	if mode != ModeTiered || len(tiers) == 0 {
		return base
	}

	best := -1
	for i, t := range tiers {
		if t.MinMonths > durationMonths {
			continue
		}
		if best < 0 || t.MinMonths > tiers[best].MinMonths {
			best = i
		}
	}
	if best < 0 {
		return base
	}
	return money.Round(tiers[best].MonthlyPrice)
}

// LowestTieredPrice returns the cheapest monthly price reachable with any
// commitment: the minimum of the base price and every tier price.
func LowestTieredPrice(basePrice decimal.Decimal, tiers []Tier) decimal.Decimal {
	lowest := money.Round(basePrice)
	for _, t := range tiers {
		if p := money.Round(t.MonthlyPrice); p.LessThan(lowest) {
			lowest = p
		}
	}
	return lowest
}

// ResolveListingPrice decides whether a "From" badge applies. Only tiered
// products whose lowest tier undercuts the base price are discounted.
func ResolveListingPrice(basePrice decimal.Decimal, mode Mode, tiers []Tier) Listing {
	base := money.Round(basePrice)
	listing := Listing{BasePrice: base, ListingPrice: base}
	if mode != ModeTiered {
		return listing
	}
	if lowest := LowestTieredPrice(base, tiers); lowest.LessThan(base) {
		listing.ListingPrice = lowest
		listing.HasDiscount = true
	}
	return listing
}
