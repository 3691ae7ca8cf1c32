package pagination

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromRequest(t *testing.T) {
	tests := []struct {
		query string
		want  Params
	}{
		{"", Params{Page: 1, PerPage: 20}},
		{"page=3&per_page=50", Params{Page: 3, PerPage: 50}},
		{"page=0", Params{Page: 1, PerPage: 20}},
		{"page=-2&per_page=-1", Params{Page: 1, PerPage: 20}},
		{"page=two&per_page=ten", Params{Page: 1, PerPage: 20}},
		{"per_page=100", Params{Page: 1, PerPage: 100}},
		{"per_page=250", Params{Page: 1, PerPage: 100}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products?"+tt.query, nil)
			assert.Equal(t, tt.want, FromRequest(req))
		})
	}
}

func TestParams_Encode(t *testing.T) {
	q := url.Values{"category": {"chairs"}, "page": {"9"}}
	Params{Page: 2, PerPage: 10}.Encode(q)

	assert.Equal(t, "category=chairs&page=2&per_page=10", q.Encode())
}

func TestNewMeta(t *testing.T) {
	tests := []struct {
		name  string
		total int
		p     Params
		want  Meta
	}{
		{"empty", 0, Params{Page: 1, PerPage: 20}, Meta{Page: 1, PerPage: 20}},
		{"exact pages", 40, Params{Page: 1, PerPage: 20}, Meta{Page: 1, PerPage: 20, Total: 40, TotalPages: 2, HasNext: true}},
		{"partial last page", 12, Params{Page: 2, PerPage: 10}, Meta{Page: 2, PerPage: 10, Total: 12, TotalPages: 2, HasPrev: true}},
		{"middle", 55, Params{Page: 3, PerPage: 10}, Meta{Page: 3, PerPage: 10, Total: 55, TotalPages: 6, HasNext: true, HasPrev: true}},
		{"zero per page", 5, Params{Page: 1}, Meta{Page: 1, PerPage: 20, Total: 5, TotalPages: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewMeta(tt.total, tt.p))
		})
	}
}
