package models

import (
	"time"

	"github.com/google/uuid"

	"ourcity/internal/voting"
)

const (
	MaxTitleLength          = 50
	MaxDescriptionLength    = 500
	MaxLocationLength       = 50
	MaxLocationUpdateLength = 150
)

type PostVisibility string

const (
	Published PostVisibility = "Published"
	Hidden    PostVisibility = "Hidden"
)

func (v PostVisibility) Valid() bool {
	return v == Published || v == Hidden
}

type Post struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	AuthorID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"authorId"`
	Author      User           `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Title       string         `gorm:"size:50;not null" json:"title"`
	Description string         `gorm:"size:500;not null" json:"description"`
	Location    *string        `gorm:"size:150" json:"location"`
	Latitude    *float64       `json:"latitude"`
	Longitude   *float64       `json:"longitude"`
	Visibility  PostVisibility `gorm:"size:20;not null;default:'Published'" json:"visibility"`
	IsDeleted   bool           `gorm:"not null;default:false;index" json:"isDeleted"`
	Tags        []Tag          `gorm:"many2many:post_tags;constraint:OnDelete:CASCADE;" json:"tags"`
	CreatedAt   time.Time      `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`

	// filled by FillPostStats
	Votes        voting.Tally    `gorm:"-" json:"-"`
	CommentCount int             `gorm:"-" json:"-"`
	ViewerVote   voting.VoteType `gorm:"-" json:"-"`
	Bookmarked   bool            `gorm:"-" json:"-"`
}
