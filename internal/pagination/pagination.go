// ABOUTME: Derives the (page, limit) pair for list views from query parameters
// ABOUTME: Values are passed through unvalidated; the backend owns range checks

package pagination

import (
	"net/url"
	"strconv"
)

// Query parameter names
const (
	PageParam  = "page"
	LimitParam = "limit"
)

// DefaultLimit is the page size used when the request names no page
const DefaultLimit = 20

// PageRequest identifies one page of a collection.
// Fields hold the raw parameter text so malformed input reaches the backend as-is.
type PageRequest struct {
	Page  string `json:"page"`
	Limit string `json:"limit"`
}

// Default is the first page at the default size
var Default = PageRequest{Page: "1", Limit: strconv.Itoa(DefaultLimit)}

// WithLimit returns the first page at the given size
func WithLimit(limit int) PageRequest {
	return PageRequest{Page: "1", Limit: strconv.Itoa(limit)}
}

// FromQuery returns the page and limit named by q when a page parameter is
// present, and def otherwise. A present page with no limit yields an empty
// Limit, which callers omit from the backend request.
func FromQuery(q url.Values, def PageRequest) PageRequest {
	if !q.Has(PageParam) {
		return def
	}
	return PageRequest{
		Page:  q.Get(PageParam),
		Limit: q.Get(LimitParam),
	}
}

// Query renders the request as query parameters, skipping empty values
func (p PageRequest) Query() url.Values {
	q := url.Values{}
	if p.Page != "" {
		q.Set(PageParam, p.Page)
	}
	if p.Limit != "" {
		q.Set(LimitParam, p.Limit)
	}
	return q
}

// Next returns the following page when Page is numeric; ok is false otherwise
func (p PageRequest) Next() (PageRequest, bool) {
	n, err := strconv.Atoi(p.Page)
	if err != nil {
		return p, false
	}
	return PageRequest{Page: strconv.Itoa(n + 1), Limit: p.Limit}, true
}

// Prev returns the preceding page; ok is false on the first page or for non-numeric pages
func (p PageRequest) Prev() (PageRequest, bool) {
	n, err := strconv.Atoi(p.Page)
	if err != nil || n <= 1 {
		return p, false
	}
	return PageRequest{Page: strconv.Itoa(n - 1), Limit: p.Limit}, true
}

// Number returns the numeric page, or 1 when the page text is not a number
func (p PageRequest) Number() int {
	n, err := strconv.Atoi(p.Page)
	if err != nil || n < 1 {
		return 1
	}
	return n
}
