package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/jtpk2168/deskly-mobile-app-sub000/pkg/errors"
	"github.com/jtpk2168/deskly-mobile-app-sub000/pkg/httputil"
	"github.com/jtpk2168/deskly-mobile-app-sub000/pkg/logger"
	"github.com/jtpk2168/deskly-mobile-app-sub000/pkg/middleware"
	"github.com/jtpk2168/deskly-mobile-app-sub000/services/cart/internal/domain"
	"github.com/jtpk2168/deskly-mobile-app-sub000/services/cart/internal/service"
)

// CartHandler serves the cart endpoints.
type CartHandler struct {
	service  *service.CartService
	products ProductCatalog
	logger   *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(svc *service.CartService, products ProductCatalog, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		service:  svc,
		products: products,
		logger:   logger,
	}
}

// quantityRequest is the body of PUT /cart/items/{itemId} and, optionally,
// POST /cart/products/{productId}. Quantity is coerced by the cart.
type quantityRequest struct {
	Quantity any `json:"quantity"`
}

type durationRequest struct {
	DurationMonths any `json:"duration_months"`
}

// GetCart handles GET /api/v1/cart.
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, newCartView(h.service.Cart(r.Context())), nil)
}

// AddItem handles POST /api/v1/cart/items with a raw add-to-cart payload.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var payload domain.AddToCartPayload
	if err := httputil.DecodeJSON(r, &payload); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	cart, ok := h.service.AddToCart(r.Context(), payload)
	if !ok {
		httputil.WriteError(w, r, apperrors.InvalidInput("product_id is required"), h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, newCartView(cart), nil)
}

// AddProduct handles POST /api/v1/cart/products/{productId}. The product is
// read from the catalog so its pricing is authoritative.
func (h *CartHandler) AddProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")

	var req quantityRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	product, err := h.products.GetProduct(r.Context(), productID, forwardToken(r))
	if err != nil {
		logger.FromContext(r.Context()).WarnContext(r.Context(), "catalog lookup failed",
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	cart, ok := h.service.AddToCart(r.Context(), product.Payload(req.Quantity))
	if !ok {
		httputil.WriteError(w, r, apperrors.Internal(fmt.Errorf("catalog product %q has no id", productID)), h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, newCartView(cart), nil)
}

// UpdateItemQuantity handles PUT /api/v1/cart/items/{itemId}.
func (h *CartHandler) UpdateItemQuantity(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	cart := h.service.UpdateQuantity(r.Context(), chi.URLParam(r, "itemId"), req.Quantity)
	httputil.WriteData(w, http.StatusOK, newCartView(cart), nil)
}

// RemoveItem handles DELETE /api/v1/cart/items/{itemId}.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	cart := h.service.RemoveFromCart(r.Context(), chi.URLParam(r, "itemId"))
	httputil.WriteData(w, http.StatusOK, newCartView(cart), nil)
}

// SetDuration handles PUT /api/v1/cart/duration.
func (h *CartHandler) SetDuration(w http.ResponseWriter, r *http.Request) {
	var req durationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	cart := h.service.SetCartDuration(r.Context(), req.DurationMonths)
	httputil.WriteData(w, http.StatusOK, newCartView(cart), nil)
}

// ClearCart handles DELETE /api/v1/cart.
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, newCartView(h.service.ClearCart(r.Context())), nil)
}

// forwardToken returns the caller's bearer token for the catalog, whether or
// not this service verified it.
func forwardToken(r *http.Request) string {
	if token := middleware.TokenFromContext(r.Context()); token != "" {
		return token
	}
	token, _ := middleware.BearerToken(r)
	return token
}
