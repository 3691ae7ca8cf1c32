// Package pagination reads page/per_page query parameters and builds the
// meta block of paginated responses.
package pagination

import (
	"net/http"
	"net/url"
	"strconv"
)

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// Params is a requested page.
type Params struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// DefaultParams returns the first page of DefaultPerPage.
func DefaultParams() Params {
	return Params{Page: 1, PerPage: DefaultPerPage}
}

// FromRequest reads page and per_page. Missing or unparsable values use the
// defaults; per_page above MaxPerPage is clamped.
func FromRequest(r *http.Request) Params {
	q := r.URL.Query()
	p := DefaultParams()
	if v := positive(q.Get("page")); v > 0 {
		p.Page = v
	}
	if v := positive(q.Get("per_page")); v > 0 {
		p.PerPage = min(v, MaxPerPage)
	}
	return p
}

func positive(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return 0
	}
	return v
}

// Encode sets the parameters on q for forwarding to another API.
func (p Params) Encode(q url.Values) {
	q.Set("page", strconv.Itoa(p.Page))
	q.Set("per_page", strconv.Itoa(p.PerPage))
}

// Meta is the meta block of a paginated response.
type Meta struct {
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// NewMeta describes page p of total items.
func NewMeta(total int, p Params) Meta {
	perPage := p.PerPage
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	pages := (total + perPage - 1) / perPage
	return Meta{
		Page:       p.Page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: pages,
		HasNext:    p.Page < pages,
		HasPrev:    p.Page > 1,
	}
}
