package models

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

const MaxTagNameLength = 20

var ErrInvalidTagName = errors.New("tag name must be 1 to 20 characters")

type Tag struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name string    `gorm:"size:20;not null;uniqueIndex" json:"name"`
}

// NewTag validates the name before building the tag.
func NewTag(id uuid.UUID, name string) (Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" || len([]rune(name)) > MaxTagNameLength {
		return Tag{}, ErrInvalidTagName
	}
	return Tag{ID: id, Name: name}, nil
}
