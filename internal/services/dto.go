package services

import (
	"time"

	"github.com/google/uuid"

	"ourcity/internal/models"
	"ourcity/internal/policy"
	"ourcity/internal/utils"
	"ourcity/internal/voting"
)

type TagResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type PostResponse struct {
	ID              uuid.UUID             `json:"id"`
	AuthorID        uuid.UUID             `json:"authorId"`
	Title           string                `json:"title"`
	Description     string                `json:"description"`
	DescriptionHTML string                `json:"descriptionHtml"`
	Location        *string               `json:"location"`
	Latitude        *float64              `json:"latitude"`
	Longitude       *float64              `json:"longitude"`
	UpvoteCount     int                   `json:"upvoteCount"`
	DownvoteCount   int                   `json:"downvoteCount"`
	CommentCount    int                   `json:"commentCount"`
	Visibility      models.PostVisibility `json:"visibility"`
	Tags            []TagResponse         `json:"tags"`
	VoteStatus      voting.VoteType       `json:"voteStatus"`
	IsBookmarked    bool                  `json:"isBookmarked"`
	CanMutate       bool                  `json:"canMutate"`
	IsDeleted       bool                  `json:"isDeleted"`
	CreatedAt       time.Time             `json:"createdAt"`
	UpdatedAt       time.Time             `json:"updatedAt"`
}

type CommentResponse struct {
	ID            uuid.UUID       `json:"id"`
	PostID        uuid.UUID       `json:"postId"`
	AuthorID      uuid.UUID       `json:"authorId"`
	AuthorName    *string         `json:"authorName"`
	Content       string          `json:"content"`
	ContentHTML   string          `json:"contentHtml"`
	UpvoteCount   int             `json:"upvoteCount"`
	DownvoteCount int             `json:"downvoteCount"`
	VoteStatus    voting.VoteType `json:"voteStatus"`
	CanMutate     bool            `json:"canMutate"`
	IsDeleted     bool            `json:"isDeleted"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

type UserResponse struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	IsAdmin     bool      `json:"isAdmin"`
	IsBanned    bool      `json:"isBanned"`
	ReportCount *int      `json:"reportCount,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toTagResponses(tags []models.Tag) []TagResponse {
	out := make([]TagResponse, 0, len(tags))
	for _, t := range tags {
		out = append(out, TagResponse{ID: t.ID, Name: t.Name})
	}
	return out
}

// toPostResponse expects stats to be filled already.
func toPostResponse(p *models.Post, viewer *models.User) PostResponse {
	return PostResponse{
		ID:              p.ID,
		AuthorID:        p.AuthorID,
		Title:           p.Title,
		Description:     p.Description,
		DescriptionHTML: utils.RenderMarkdown(p.Description),
		Location:        p.Location,
		Latitude:        p.Latitude,
		Longitude:       p.Longitude,
		UpvoteCount:     p.Votes.Upvotes,
		DownvoteCount:   p.Votes.Downvotes,
		CommentCount:    p.CommentCount,
		Visibility:      p.Visibility,
		Tags:            toTagResponses(p.Tags),
		VoteStatus:      p.ViewerVote,
		IsBookmarked:    p.Bookmarked,
		CanMutate:       policy.CanMutatePost(viewer, p),
		IsDeleted:       p.IsDeleted,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func toCommentResponse(c *models.Comment, viewer *models.User) CommentResponse {
	resp := CommentResponse{
		ID:            c.ID,
		PostID:        c.PostID,
		AuthorID:      c.AuthorID,
		Content:       c.Content,
		ContentHTML:   utils.RenderMarkdown(c.Content),
		UpvoteCount:   c.Votes.Upvotes,
		DownvoteCount: c.Votes.Downvotes,
		VoteStatus:    c.ViewerVote,
		CanMutate:     policy.CanMutateComment(viewer, c),
		IsDeleted:     c.IsDeleted,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
	if c.Author.ID != uuid.Nil && !c.Author.IsDeleted {
		name := c.Author.Username
		resp.AuthorName = &name
	}
	return resp
}

// toUserResponse shows report counts to admins only.
func toUserResponse(u *models.User, viewer *models.User) UserResponse {
	resp := UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		IsAdmin:   u.IsAdmin,
		IsBanned:  u.IsBanned,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if policy.CanAdministrate(viewer) {
		n := u.ReportCount
		resp.ReportCount = &n
	}
	return resp
}
