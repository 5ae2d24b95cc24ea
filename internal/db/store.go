package db

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"ourcity/internal/pagination"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate key")
)

// translate maps gorm sentinels onto the package's own.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}

// PostFilter selects a page of the public feed. Fetch is the row count to
// read, usually limit+1.
type PostFilter struct {
	Search          string
	TagIDs          []uuid.UUID
	IncludeHidden   bool
	ReportThreshold int
	Order           pagination.Order
	Cursor          *uuid.UUID
	Fetch           int
}

// UserFilter selects a page of users. Nil pointers disable a filter.
type UserFilter struct {
	MinReports *int
	IsBanned   *bool
	Order      pagination.Order
	Cursor     *uuid.UUID
	Fetch      int
}

type CommentFilter struct {
	PostID uuid.UUID
	Cursor *uuid.UUID
	Fetch  int
}

type BookmarkFilter struct {
	UserID uuid.UUID
	Cursor *uuid.UUID
	Fetch  int
}

// Window is a half-open time range [From, To).
type Window struct {
	From time.Time
	To   time.Time
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && t.Before(w.To)
}

// Totals counts activity inside a window.
type Totals struct {
	Posts     int64
	Upvotes   int64
	Downvotes int64
	Comments  int64
}

type TagCount struct {
	TagID     uuid.UUID
	TagName   string
	PostCount int64
}
