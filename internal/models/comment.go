package models

import (
	"time"

	"github.com/google/uuid"

	"ourcity/internal/voting"
)

const MaxCommentLength = 500

type Comment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PostID    uuid.UUID `gorm:"type:uuid;not null;index" json:"postId"`
	Post      Post      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	AuthorID  uuid.UUID `gorm:"type:uuid;not null;index" json:"authorId"`
	Author    User      `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Content   string    `gorm:"size:500;not null" json:"content"`
	IsDeleted bool      `gorm:"not null;default:false" json:"isDeleted"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// filled by FillCommentStats
	Votes      voting.Tally    `gorm:"-" json:"-"`
	ViewerVote voting.VoteType `gorm:"-" json:"-"`
}
