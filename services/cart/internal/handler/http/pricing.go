package http

import (
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/jtpk2168/deskly-mobile-app-sub000/pkg/httputil"
	"github.com/jtpk2168/deskly-mobile-app-sub000/pkg/money"
	"github.com/jtpk2168/deskly-mobile-app-sub000/services/cart/internal/domain"
	"github.com/jtpk2168/deskly-mobile-app-sub000/services/cart/internal/pricing"
)

// PricingHandler quotes rental prices without touching the cart.
type PricingHandler struct {
	defaultDuration int
	logger          *slog.Logger
}

// NewPricingHandler creates a pricing handler. Quotes without a usable
// duration are priced at defaultDuration months.
func NewPricingHandler(defaultDuration int, logger *slog.Logger) *PricingHandler {
	if defaultDuration < 1 {
		defaultDuration = domain.DefaultDurationMonths
	}
	return &PricingHandler{defaultDuration: defaultDuration, logger: logger}
}

type quoteRequest struct {
	BasePrice      any              `json:"base_price"`
	PricingMode    any              `json:"pricing_mode"`
	PricingTiers   pricing.RawTiers `json:"pricing_tiers"`
	DurationMonths any              `json:"duration_months"`
}

// Quote is the resolved price of a product for one rental term.
type Quote struct {
	MonthlyPrice   decimal.Decimal `json:"monthly_price"`
	DurationMonths int             `json:"duration_months"`
	PricingMode    pricing.Mode    `json:"pricing_mode"`
	PricingTiers   []pricing.Tier  `json:"pricing_tiers"`
	Listing        pricing.Listing `json:"listing"`
}

// Quote handles POST /api/v1/pricing/quote. Inputs are normalized the same
// way the cart normalizes them, so a quote always matches what the cart
// would charge.
func (h *PricingHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	base := money.ToMoney(req.BasePrice, money.Zero)
	if base.IsNegative() {
		base = money.Zero
	}
	mode := pricing.NormalizeMode(req.PricingMode)
	tiers := pricing.NormalizeTiers(req.PricingTiers)
	months := domain.NormalizeDuration(req.DurationMonths, h.defaultDuration)

	httputil.WriteData(w, http.StatusOK, Quote{
		MonthlyPrice:   pricing.ResolveMonthlyPrice(base, mode, tiers, months),
		DurationMonths: months,
		PricingMode:    mode,
		PricingTiers:   tiers,
		Listing:        pricing.ResolveListingPrice(base, mode, tiers),
	}, nil)
}
