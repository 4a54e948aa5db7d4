// Package pagination implements the page/limit query convention shared by
// every list endpoint: page >= 1 (default 1), limit default 10, and a
// response block of {page, limit, total, pages} with pages = ceil(total/limit).
package pagination

import (
	"net/http"
	"strconv"
)

const (
	// DefaultLimit is the page size used when the client sends none
	DefaultLimit = 10

	// MaxLimit caps the page size a client may request
	MaxLimit = 100
)

// Params holds the normalized pagination inputs of a list request.
type Params struct {
	Page  int
	Limit int
}

// Offset returns the row offset for the current page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// FromRequest parses page and limit query parameters, applying defaults
// and clamping out-of-range values instead of failing the request.
func FromRequest(r *http.Request) Params {
	params := Params{Page: 1, Limit: DefaultLimit}

	if raw := r.URL.Query().Get("page"); raw != "" {
		if page, err := strconv.Atoi(raw); err == nil && page >= 1 {
			params.Page = page
		}
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit >= 1 {
			if limit > MaxLimit {
				limit = MaxLimit
			}
			params.Limit = limit
		}
	}

	return params
}

// Meta describes one page of a larger result set.
type Meta struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// NewMeta builds the pagination block for a total row count.
func NewMeta(params Params, total int) Meta {
	pages := 0
	if total > 0 {
		pages = (total + params.Limit - 1) / params.Limit
	}
	return Meta{
		Page:  params.Page,
		Limit: params.Limit,
		Total: total,
		Pages: pages,
	}
}
