// internal/app/system/paging/paging.go
package paging

import (
	"math"
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

const (
	// DefaultLimit is the page size used when the client sends none.
	DefaultLimit = 10
	// MaxLimit caps client-supplied page sizes.
	MaxLimit = 50

	// MaxPage caps the page number so Skip stays positive.
	MaxPage = math.MaxInt32

	// DefaultCategoryLimit is the page size of the category picker.
	DefaultCategoryLimit = 7
)

// Page is a 1-based page request.
type Page struct {
	Number int
	Limit  int
}

// New normalizes a page request: number < 1 becomes 1 and is capped at
// MaxPage, limit < 1 becomes DefaultLimit, and limit is capped at MaxLimit.
func New(number, limit int) Page {
	if number < 1 {
		number = 1
	}
	if number > MaxPage {
		number = MaxPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Page{Number: number, Limit: limit}
}

// Parse reads ?page= and ?limit= from the request.
func Parse(r *http.Request) Page {
	return New(atoi(query.Get(r, "page")), atoi(query.Get(r, "limit")))
}

// Skip is the number of documents before this page.
func (p Page) Skip() int64 {
	return int64(p.Number-1) * int64(p.Limit)
}

// TotalPages returns ceil(total/limit).
func (p Page) TotalPages(total int64) int64 {
	if total <= 0 || p.Limit <= 0 {
		return 0
	}
	l := int64(p.Limit)
	return (total + l - 1) / l
}

// Window is a raw skip/limit request as used by the category picker.
type Window struct {
	Skip  int64
	Limit int64
}

// ParseWindow reads ?skip= and ?limit= with the given default limit.
func ParseWindow(r *http.Request, defLimit int) Window {
	skip := atoi(query.Get(r, "skip"))
	if skip < 0 {
		skip = 0
	}
	limit := atoi(query.Get(r, "limit"))
	if limit < 1 {
		limit = defLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Window{Skip: int64(skip), Limit: int64(limit)}
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
