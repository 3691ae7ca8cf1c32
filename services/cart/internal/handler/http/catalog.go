package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/jtpk2168/deskly-mobile-app-sub000/pkg/errors"
	"github.com/jtpk2168/deskly-mobile-app-sub000/pkg/httputil"
	"github.com/jtpk2168/deskly-mobile-app-sub000/pkg/pagination"
	"github.com/jtpk2168/deskly-mobile-app-sub000/pkg/validator"
	"github.com/jtpk2168/deskly-mobile-app-sub000/services/cart/internal/catalog"
)

// ProductCatalog reads products from the catalog API. *catalog.Client
// implements it.
type ProductCatalog interface {
	GetProduct(ctx context.Context, id, token string) (*catalog.Product, error)
	ListProducts(ctx context.Context, q catalog.ListQuery, token string) ([]catalog.Product, pagination.Meta, error)
}

// CatalogHandler serves catalog products decorated with rental pricing.
type CatalogHandler struct {
	products ProductCatalog
	logger   *slog.Logger
}

// NewCatalogHandler creates a new catalog HTTP handler.
func NewCatalogHandler(products ProductCatalog, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{products: products, logger: logger}
}

// listParams are the filters accepted by GET /catalog/products.
type listParams struct {
	Category       string `json:"category" validate:"max=64"`
	Search         string `json:"search" validate:"max=200"`
	DurationMonths int    `json:"duration" validate:"gte=0,lte=120"`
}

// ListProducts handles GET /api/v1/catalog/products.
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	duration, err := durationParam(q.Get("duration"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	params := listParams{
		Category:       strings.TrimSpace(q.Get("category")),
		Search:         strings.TrimSpace(q.Get("search")),
		DurationMonths: duration,
	}
	if err := validator.Validate(params); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	products, meta, err := h.products.ListProducts(r.Context(), catalog.ListQuery{
		Params:   pagination.FromRequest(r),
		Category: params.Category,
		Search:   params.Search,
	}, forwardToken(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, catalog.DecorateAll(products, params.DurationMonths), meta)
}

// GetProduct handles GET /api/v1/catalog/products/{productId}.
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	duration, err := durationParam(r.URL.Query().Get("duration"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	product, err := h.products.GetProduct(r.Context(), chi.URLParam(r, "productId"), forwardToken(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, catalog.Decorate(*product, duration), nil)
}

// durationParam parses the optional ?duration=N query value. Absent means 0,
// which skips the duration price.
func durationParam(v string) (int, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, apperrors.InvalidInput("duration must be a whole number of months")
	}
	return n, nil
}
