package models

import (
	"time"

	"github.com/google/uuid"
)

// Bookmark is a user saving a post for later.
type Bookmark struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_user_post" json:"userId"`
	PostID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_post" json:"postId"`
	Post         Post      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	BookmarkedAt time.Time `gorm:"not null;index" json:"bookmarkedAt"`
}
