package pagination

import (
	"bytes"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultLimit = 25
	MaxLimit     = 100
)

// Page is the list envelope returned by every list endpoint.
type Page[T any] struct {
	Items      []T        `json:"items"`
	NextCursor *uuid.UUID `json:"nextCursor"`
}

// ClampLimit applies the default for non-positive limits and caps the rest.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Paginate trims a limit+1 fetch down to one page. When the fetch overflowed,
// the id of the last kept row becomes the cursor for the next call.
func Paginate[T any](rows []T, limit int, id func(T) uuid.UUID) Page[T] {
	if limit < 1 {
		limit = 1
	}
	if len(rows) <= limit {
		items := rows
		if items == nil {
			items = []T{}
		}
		return Page[T]{Items: items}
	}
	items := rows[:limit]
	next := id(items[limit-1])
	return Page[T]{Items: items, NextCursor: &next}
}

// Map converts page items while keeping the cursor.
func Map[T, U any](p Page[T], fn func(T) U) Page[U] {
	out := make([]U, 0, len(p.Items))
	for _, item := range p.Items {
		out = append(out, fn(item))
	}
	return Page[U]{Items: out, NextCursor: p.NextCursor}
}

// SortBy selects the primary ordering column. SortByScore means vote score
// for posts and report count for users.
type SortBy string

const (
	SortByDate  SortBy = "date"
	SortByScore SortBy = "score"
)

// ParseSortBy falls back to date ordering for unknown input.
func ParseSortBy(s string) SortBy {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "votes", "reportcount", "score":
		return SortByScore
	}
	return SortByDate
}

// Order describes a keyset ordering. Ties on the primary column are broken by
// id in the same direction.
type Order struct {
	By  SortBy
	Asc bool
}

// NewestFirst is (createdAt DESC, id DESC).
var NewestFirst = Order{By: SortByDate}

// ParseOrder reads "asc"/"desc"; anything else is descending.
func ParseOrder(by, order string) Order {
	return Order{By: ParseSortBy(by), Asc: strings.EqualFold(order, "asc")}
}

// Key is the position of one row inside an ordering.
type Key struct {
	At    time.Time
	Score int
	ID    uuid.UUID
}

// CompareIDs orders ids bytewise, which matches postgres uuid comparison.
func CompareIDs(a, b uuid.UUID) int {
	return bytes.Compare(a[:], b[:])
}

func (o Order) primary(a, b Key) int {
	if o.By == SortByScore {
		switch {
		case a.Score < b.Score:
			return -1
		case a.Score > b.Score:
			return 1
		}
		return 0
	}
	return a.At.Compare(b.At)
}

// Less reports whether a is listed before b.
func (o Order) Less(a, b Key) bool {
	c := o.primary(a, b)
	if c == 0 {
		c = CompareIDs(a.ID, b.ID)
	}
	if o.Asc {
		return c < 0
	}
	return c > 0
}

// After reports whether k comes strictly after the cursor row.
func (o Order) After(cursor, k Key) bool {
	return o.Less(cursor, k)
}
