package models

import (
	"time"

	"github.com/google/uuid"

	"ourcity/internal/voting"
)

// One row per (subject, voter). NoVote is represented by the absence of a row.
type PostVote struct {
	ID       uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	PostID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_post_voter" json:"postId"`
	Post     Post            `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	VoterID  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_post_voter;index" json:"voterId"`
	VoteType voting.VoteType `gorm:"not null" json:"voteType"`
	VotedAt  time.Time       `gorm:"not null;index" json:"votedAt"`
}

type CommentVote struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	CommentID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_comment_voter" json:"commentId"`
	Comment   Comment         `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	VoterID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_comment_voter;index" json:"voterId"`
	VoteType  voting.VoteType `gorm:"not null" json:"voteType"`
	VotedAt   time.Time       `gorm:"not null;index" json:"votedAt"`
}
