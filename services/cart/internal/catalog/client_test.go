package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/jtpk2168/deskly-mobile-app-sub000/pkg/errors"
	"github.com/jtpk2168/deskly-mobile-app-sub000/pkg/httpclient"
	"github.com/jtpk2168/deskly-mobile-app-sub000/pkg/pagination"
	"github.com/jtpk2168/deskly-mobile-app-sub000/services/cart/internal/pricing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)

	doer := httpclient.New(httpclient.Config{Timeout: 2 * time.Second, MaxRetries: 0, MaxConnsPerHost: 4})
	return NewClient(doer, server.URL+"/api/v1/", testLogger())
}

const chairJSON = `{
	"id": "chair-1",
	"name": "Ergonomic Chair",
	"category": "chairs",
	"image_url": "https://cdn.deskly.app/chair.png",
	"monthly_price": 100,
	"pricing_mode": "tiered",
	"pricing_tiers": [
		{"min_months": 12, "monthly_price": 75},
		{"min_months": 6, "monthly_price": 90}
	]
}`

// ---------------------------------------------------------------------------
// GetProduct
// ---------------------------------------------------------------------------

func TestGetProduct_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/products/chair-1", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"data": ` + chairJSON + `}`))
	})

	p, err := client.GetProduct(context.Background(), "chair-1", "tok-123")
	require.NoError(t, err)

	assert.Equal(t, "chair-1", p.ID)
	require.NotNil(t, p.Category)
	assert.Equal(t, "chairs", *p.Category)
	assert.Equal(t, json.Number("100"), p.MonthlyPrice)
	assert.Len(t, p.PricingTiers, 2)

	in, ok := p.Payload(2).ToLineInput()
	require.True(t, ok)
	assert.Equal(t, pricing.ModeTiered, in.PricingMode)
	assert.Equal(t, 2, in.Quantity)
	require.Len(t, in.PricingTiers, 2)
	assert.Equal(t, 6, in.PricingTiers[0].MinMonths)
}

func TestGetProduct_NoTokenNoAuthHeader(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"data": ` + chairJSON + `}`))
	})

	_, err := client.GetProduct(context.Background(), "chair-1", "")
	require.NoError(t, err)
}

func TestGetProduct_EmptyID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("catalog should not be called")
	})

	_, err := client.GetProduct(context.Background(), "  ", "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestGetProduct_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": {"code": "NOT_FOUND", "message": "no such product"}}`))
	})

	_, err := client.GetProduct(context.Background(), "ghost", "")
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusNotFound, appErr.Status)
	assert.Equal(t, "product with id ghost not found", appErr.Message)
}

func TestGetProduct_ServerErrorIsUnavailable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"code": "INTERNAL_ERROR", "message": "boom"}}`))
	})

	_, err := client.GetProduct(context.Background(), "chair-1", "")
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusServiceUnavailable, appErr.Status)
	assert.Equal(t, "catalog is unavailable, please try again", appErr.Message)
}

func TestGetProduct_TimeoutIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	doer := httpclient.New(httpclient.Config{Timeout: 20 * time.Millisecond, MaxRetries: 0, MaxConnsPerHost: 4})
	client := NewClient(doer, server.URL, testLogger())

	_, err := client.GetProduct(context.Background(), "chair-1", "")
	assert.ErrorIs(t, err, apperrors.ErrServiceUnavail)
}

func TestGetProduct_OpenCircuitIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	base := httpclient.New(httpclient.Config{Timeout: time.Second, MaxRetries: 0, MaxConnsPerHost: 4})
	cbCfg := httpclient.DefaultCircuitBreakerConfig("catalog-test-open")
	cbCfg.MinRequests = 2
	client := NewClient(httpclient.NewCircuitBreakerClient(base, cbCfg, testLogger()), server.URL, testLogger())

	for i := 0; i < 3; i++ {
		_, _ = client.GetProduct(context.Background(), "chair-1", "")
	}
	_, err := client.GetProduct(context.Background(), "chair-1", "")
	assert.ErrorIs(t, err, apperrors.ErrServiceUnavail)
	assert.ErrorIs(t, err, httpclient.ErrCircuitOpen)
}

func TestGetProduct_MalformedData(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": {"name": "no id"}}`))
	})

	_, err := client.GetProduct(context.Background(), "chair-1", "")
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
}

func TestGetProduct_EnvelopeError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": null, "error": {"code": "SUSPENDED", "message": "product suspended"}}`))
	})

	_, err := client.GetProduct(context.Background(), "chair-1", "")
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "SUSPENDED", appErr.Code)
	assert.Contains(t, appErr.Message, "product suspended")
}

// ---------------------------------------------------------------------------
// ListProducts
// ---------------------------------------------------------------------------

func TestListProducts_ForwardsQueryAndMeta(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/products", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "10", r.URL.Query().Get("per_page"))
		assert.Equal(t, "chairs", r.URL.Query().Get("category"))
		assert.Empty(t, r.URL.Query().Get("search"))
		_, _ = w.Write([]byte(`{
			"data": [` + chairJSON + `, {"name": "missing id"}, 7, {"id": "lamp-1", "monthly_price": "20"}],
			"meta": {"page": 2, "per_page": 10, "total": 12, "total_pages": 2, "has_next": false, "has_prev": true}
		}`))
	})

	q := ListQuery{Params: pagination.Params{Page: 2, PerPage: 10}, Category: "chairs"}
	products, meta, err := client.ListProducts(context.Background(), q, "")
	require.NoError(t, err)

	require.Len(t, products, 2)
	assert.Equal(t, "chair-1", products[0].ID)
	assert.Equal(t, "lamp-1", products[1].ID)
	assert.Equal(t, 12, meta.Total)
	assert.True(t, meta.HasPrev)
}

func TestListProducts_MissingMetaIsComputed(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": [` + chairJSON + `]}`))
	})

	_, meta, err := client.ListProducts(context.Background(), ListQuery{Params: pagination.DefaultParams()}, "")
	require.NoError(t, err)
	assert.Equal(t, 1, meta.Total)
	assert.Equal(t, 1, meta.TotalPages)
}

func TestListProducts_Unauthorized(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"code": "UNAUTHORIZED", "message": "token expired"}}`))
	})

	_, _, err := client.ListProducts(context.Background(), ListQuery{Params: pagination.DefaultParams()}, "old")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

// ---------------------------------------------------------------------------
// Decorate
// ---------------------------------------------------------------------------

func decodeProduct(t *testing.T, s string) Product {
	t.Helper()
	var p Product
	require.NoError(t, decodeNumbers([]byte(s), &p))
	return p
}

func TestDecorate_TieredShowsFromPrice(t *testing.T) {
	d := Decorate(decodeProduct(t, chairJSON), 0)

	assert.True(t, d.Pricing.HasDiscount)
	assert.True(t, decimal.NewFromInt(75).Equal(d.Pricing.ListingPrice))
	assert.True(t, decimal.NewFromInt(100).Equal(d.Pricing.BasePrice))
	assert.Nil(t, d.Pricing.DurationMonths)
	assert.Nil(t, d.Pricing.MonthlyPrice)
}

func TestDecorate_WithDuration(t *testing.T) {
	p := decodeProduct(t, chairJSON)

	tests := []struct {
		months int
		want   int64
	}{
		{1, 100}, {6, 90}, {11, 90}, {12, 75}, {36, 75},
	}
	for _, tt := range tests {
		d := Decorate(p, tt.months)
		require.NotNil(t, d.Pricing.MonthlyPrice)
		assert.True(t, decimal.NewFromInt(tt.want).Equal(*d.Pricing.MonthlyPrice), "months %d", tt.months)
		assert.Equal(t, tt.months, *d.Pricing.DurationMonths)
	}
}

func TestDecorate_FixedModeIgnoresTiers(t *testing.T) {
	p := decodeProduct(t, `{"id": "desk-1", "monthly_price": 40, "pricing_mode": "fixed",
		"pricing_tiers": [{"min_months": 6, "monthly_price": 10}]}`)

	d := Decorate(p, 12)
	assert.False(t, d.Pricing.HasDiscount)
	assert.True(t, decimal.NewFromInt(40).Equal(*d.Pricing.MonthlyPrice))
}

func TestDecorate_JSONShape(t *testing.T) {
	d := Decorate(decodeProduct(t, chairJSON), 6)

	blob, err := json.Marshal(d)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(blob, &out))
	assert.Equal(t, "chair-1", out["id"])
	pr, ok := out["pricing"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(75), pr["listing_price"])
	assert.Equal(t, true, pr["has_discount"])
	assert.Equal(t, float64(90), pr["monthly_price_for_duration"])
	assert.Equal(t, float64(6), pr["duration_months"])
}

func TestDecorateAll_KeepsOrder(t *testing.T) {
	out := DecorateAll([]Product{{ID: "b", MonthlyPrice: 2}, {ID: "a", MonthlyPrice: 1}}, 0)
	require.Len(t, out, 2)
	assert.Equal(t, "b", out[0].ID)
	assert.Equal(t, "a", out[1].ID)
}
