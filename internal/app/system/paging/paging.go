// internal/app/system/paging/paging.go
package paging

import (
	"math"
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

// DefaultLimit is the page size used when the caller does not ask for one.
const DefaultLimit = 10

// MaxLimit caps caller-supplied page sizes.
const MaxLimit = 50

// MaxPage caps caller-supplied page numbers. Pages past the data come back
// empty, so clamping only keeps Skip from overflowing.
const MaxPage = math.MaxInt32

// Page is a 1-indexed page request.
type Page struct {
	Number int // 1-based
	Limit  int
}

// Skip returns the number of documents to skip: (page-1)*limit.
// Out-of-range values saturate instead of wrapping negative.
func (p Page) Skip() int64 {
	if p.Number < 1 || p.Limit < 1 {
		return 0
	}
	n, l := int64(p.Number-1), int64(p.Limit)
	if n > math.MaxInt64/l {
		return math.MaxInt64
	}
	return n * l
}

// Limit64 returns the limit as int64 for Mongo FindOptions.
func (p Page) Limit64() int64 { return int64(p.Limit) }

// TotalPages returns the number of pages needed to show total items.
func (p Page) TotalPages(total int64) int64 {
	if total <= 0 || p.Limit <= 0 {
		return 0
	}
	return (total + int64(p.Limit) - 1) / int64(p.Limit)
}

// Parse reads "page" and "limit" from the query string. Invalid or missing
// values fall back to page 1 and defaultLimit; limit is capped at MaxLimit
// and page at MaxPage.
func Parse(r *http.Request, defaultLimit int) Page {
	return Page{
		Number: clampPage(parsePositive(query.Get(r, "page"), 1)),
		Limit:  clampLimit(parsePositive(query.Get(r, "limit"), defaultLimit)),
	}
}

func parsePositive(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	return n
}

func clampPage(n int) int {
	if n > MaxPage {
		return MaxPage
	}
	return n
}

func clampLimit(n int) int {
	if n > MaxLimit {
		return MaxLimit
	}
	return n
}
