// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PageSize is the default number of rows in a paged list.
const PageSize = 50

// MaxPageSize caps the limit a caller may ask for.
const MaxPageSize = 200

// ParseLimit reads the "limit" query parameter, falling back to PageSize
// when it is absent or invalid and clamping to MaxPageSize.
func ParseLimit(r *http.Request) int {
	s := query.Get(r, "limit")
	if s == "" {
		return PageSize
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return PageSize
	}
	return Clamp(n)
}

// Clamp bounds a requested limit to [1, MaxPageSize], treating zero as
// PageSize.
func Clamp(n int) int {
	switch {
	case n <= 0:
		return PageSize
	case n > MaxPageSize:
		return MaxPageSize
	}
	return n
}

// ParseBefore reads the "before" cursor query parameter.
func ParseBefore(r *http.Request) string {
	return query.Get(r, "before")
}

// DecodeCursor parses a cursor produced by TrimPage. Empty means the
// first page.
func DecodeCursor(s string) (*primitive.ObjectID, bool) {
	if s == "" {
		return nil, true
	}
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return nil, false
	}
	return &id, true
}

// LimitPlusOne returns limit+1 for look-ahead pagination (fetch one extra
// document to detect a next page).
func LimitPlusOne(limit int) int64 { return int64(limit + 1) }

// Page is one page of a newest-first list. Next is the cursor for the
// following page, empty on the last one.
type Page[T any] struct {
	Items []T    `json:"items"`
	Next  string `json:"next,omitempty"`
}

// TrimPage builds a Page from rows fetched with LimitPlusOne. idFn
// extracts the ObjectID the list is sorted on.
func TrimPage[T any](rows []T, limit int, idFn func(T) primitive.ObjectID) Page[T] {
	if rows == nil {
		rows = []T{}
	}
	if len(rows) <= limit {
		return Page[T]{Items: rows}
	}
	rows = rows[:limit]
	return Page[T]{Items: rows, Next: idFn(rows[limit-1]).Hex()}
}
