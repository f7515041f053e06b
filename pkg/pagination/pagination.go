package pagination

import (
	"math"
	"net/http"
	"strconv"
)

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// Params holds normalized pagination parameters.
type Params struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Offset  int `json:"-"`
}

// New normalizes page and perPage: a page below one becomes 1, a
// non-positive perPage becomes DefaultPerPage and anything above
// MaxPerPage is clamped. Pages whose offset would overflow int are clamped
// to the last representable page.
func New(page, perPage int) Params {
	if page < 1 {
		page = 1
	}
	switch {
	case perPage <= 0:
		perPage = DefaultPerPage
	case perPage > MaxPerPage:
		perPage = MaxPerPage
	}
	if maxPage := math.MaxInt/perPage + 1; page > maxPage {
		page = maxPage
	}
	return Params{Page: page, PerPage: perPage, Offset: (page - 1) * perPage}
}

// FromRequest extracts page and per_page from the query string. Values that
// do not parse fall back to the defaults.
func FromRequest(r *http.Request) Params {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	return New(page, perPage)
}

// TotalPages returns the number of pages needed for total items.
func (p Params) TotalPages(total int) int {
	if total <= 0 {
		return 0
	}
	return (total + p.PerPage - 1) / p.PerPage
}

// HasNext reports whether a page follows the current one.
func (p Params) HasNext(total int) bool {
	return p.Page < p.TotalPages(total)
}

// Slice returns the window of items selected by p. A page past the end
// yields an empty, non-nil slice.
func Slice[T any](items []T, p Params) []T {
	if p.Offset < 0 || p.Offset >= len(items) {
		return []T{}
	}
	end := min(p.Offset+p.PerPage, len(items))
	return items[p.Offset:end]
}
