package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"ourcity/internal/db"
	"ourcity/internal/models"
	"ourcity/internal/voting"
)

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
	ListUsers(ctx context.Context, f db.UserFilter) ([]models.User, error)

	CountReports(ctx context.Context, targetID uuid.UUID) (int, error)
	FindReport(ctx context.Context, reporterID, targetID uuid.UUID) (*models.UserReport, error)
	CreateReport(ctx context.Context, rep *models.UserReport) error
	DeleteReport(ctx context.Context, id uuid.UUID) error
}

type TagStore interface {
	ListTags(ctx context.Context) ([]models.Tag, error)
	GetTags(ctx context.Context, ids []uuid.UUID) ([]models.Tag, error)
	EnsureTags(ctx context.Context, tags []models.Tag) (int, error)
}

type VoteStore interface {
	CastVote(ctx context.Context, s voting.Subject, voterID uuid.UUID, requested voting.VoteType, at time.Time) (voting.Action, error)
}

type PostStore interface {
	TagStore
	VoteStore
	CreatePost(ctx context.Context, p *models.Post) error
	GetPost(ctx context.Context, id uuid.UUID) (*models.Post, error)
	UpdatePost(ctx context.Context, p *models.Post, tags []models.Tag) error
	ListPosts(ctx context.Context, f db.PostFilter) ([]models.Post, error)
	FillPostStats(ctx context.Context, posts []*models.Post, viewer *uuid.UUID) error

	ToggleBookmark(ctx context.Context, userID, postID uuid.UUID, at time.Time) (bool, error)
	ListBookmarks(ctx context.Context, f db.BookmarkFilter) ([]models.Bookmark, error)
}

type CommentStore interface {
	VoteStore
	GetPost(ctx context.Context, id uuid.UUID) (*models.Post, error)
	CreateComment(ctx context.Context, c *models.Comment) error
	GetComment(ctx context.Context, id uuid.UUID) (*models.Comment, error)
	UpdateComment(ctx context.Context, c *models.Comment) error
	ListComments(ctx context.Context, f db.CommentFilter) ([]models.Comment, error)
	FillCommentStats(ctx context.Context, comments []*models.Comment, viewer *uuid.UUID) error
}

type AnalyticsStore interface {
	Totals(ctx context.Context, w db.Window) (db.Totals, error)
	PostTimes(ctx context.Context, w db.Window) ([]time.Time, error)
	TagCounts(ctx context.Context, w db.Window) ([]db.TagCount, error)
}

// Store is everything the API needs from persistence.
type Store interface {
	UserStore
	PostStore
	CommentStore
	AnalyticsStore
}

var (
	_ Store = (*db.Repository)(nil)
	_ Store = (*db.Memory)(nil)
)
