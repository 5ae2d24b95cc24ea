package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"ourcity/internal/apperr"
	"ourcity/internal/db"
	"ourcity/internal/logger"
	"ourcity/internal/models"
	"ourcity/internal/pagination"
	"ourcity/internal/policy"
	"ourcity/internal/voting"
)

type CommentRequest struct {
	Content string `json:"content"`
}

type CommentService struct {
	store CommentStore
	now   func() time.Time
}

func NewCommentService(store CommentStore) *CommentService {
	return &CommentService{store: store, now: utcNow}
}

func validateContent(content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", apperr.New(apperr.ValidationFailed, MsgContentRequired)
	}
	if runeLen(content) > models.MaxCommentLength {
		return "", apperr.New(apperr.ValidationFailed, MsgContentTooLong)
	}
	return content, nil
}

func (s *CommentService) respond(ctx context.Context, viewer *models.User, comments []models.Comment) ([]CommentResponse, error) {
	ptrs := make([]*models.Comment, len(comments))
	for i := range comments {
		ptrs[i] = &comments[i]
	}
	if err := s.store.FillCommentStats(ctx, ptrs, viewerID(viewer)); err != nil {
		return nil, storeErr(err, "fill comment stats", "")
	}
	out := make([]CommentResponse, 0, len(comments))
	for _, c := range ptrs {
		out = append(out, toCommentResponse(c, viewer))
	}
	return out, nil
}

func (s *CommentService) respondOne(ctx context.Context, viewer *models.User, c *models.Comment) (CommentResponse, error) {
	out, err := s.respond(ctx, viewer, []models.Comment{*c})
	if err != nil {
		return CommentResponse{}, err
	}
	return out[0], nil
}

func (s *CommentService) visiblePost(ctx context.Context, viewer *models.User, postID uuid.UUID) (*models.Post, error) {
	p, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return nil, storeErr(err, "get post", MsgPostNotFound)
	}
	if !policy.CanSeePost(viewer, p) {
		return nil, apperr.New(apperr.NotFound, MsgPostNotFound)
	}
	return p, nil
}

// liveComment loads a comment that is not deleted and whose post is visible.
func (s *CommentService) liveComment(ctx context.Context, viewer *models.User, id uuid.UUID) (*models.Comment, error) {
	c, err := s.store.GetComment(ctx, id)
	if err != nil {
		return nil, storeErr(err, "get comment", MsgCommentNotFound)
	}
	if c.IsDeleted {
		return nil, apperr.New(apperr.NotFound, MsgCommentNotFound)
	}
	if _, err := s.visiblePost(ctx, viewer, c.PostID); err != nil {
		if apperr.Is(err, apperr.NotFound) {
			return nil, apperr.New(apperr.NotFound, MsgCommentNotFound)
		}
		return nil, err
	}
	return c, nil
}

func (s *CommentService) mutableComment(ctx context.Context, viewer *models.User, id uuid.UUID) (*models.Comment, error) {
	if err := requireUser(viewer); err != nil {
		return nil, err
	}
	c, err := s.liveComment(ctx, viewer, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanMutateComment(viewer, c) {
		return nil, apperr.New(apperr.Forbidden, MsgCommentUnauthorized)
	}
	return c, nil
}

// GetComments pages through a post's comments, newest first.
func (s *CommentService) GetComments(ctx context.Context, viewer *models.User, postID uuid.UUID, cursor *uuid.UUID, limit int) (pagination.Page[CommentResponse], error) {
	if _, err := s.visiblePost(ctx, viewer, postID); err != nil {
		return pagination.Page[CommentResponse]{}, err
	}
	limit = pagination.ClampLimit(limit)
	rows, err := s.store.ListComments(ctx, db.CommentFilter{PostID: postID, Cursor: cursor, Fetch: limit + 1})
	if err != nil {
		return pagination.Page[CommentResponse]{}, storeErr(err, "list comments", "")
	}
	page := pagination.Paginate(rows, limit, func(c models.Comment) uuid.UUID { return c.ID })
	items, err := s.respond(ctx, viewer, page.Items)
	if err != nil {
		return pagination.Page[CommentResponse]{}, err
	}
	return pagination.Page[CommentResponse]{Items: items, NextCursor: page.NextCursor}, nil
}

func (s *CommentService) CreateComment(ctx context.Context, viewer *models.User, postID uuid.UUID, req CommentRequest) (CommentResponse, error) {
	if err := requireParticipant(viewer); err != nil {
		return CommentResponse{}, err
	}
	if _, err := s.visiblePost(ctx, viewer, postID); err != nil {
		return CommentResponse{}, err
	}
	content, err := validateContent(req.Content)
	if err != nil {
		return CommentResponse{}, err
	}

	now := s.now()
	c := &models.Comment{
		PostID:    postID,
		AuthorID:  viewer.ID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateComment(ctx, c); err != nil {
		return CommentResponse{}, storeErr(err, "create comment", MsgPostNotFound)
	}
	c.Author = *viewer
	return s.respondOne(ctx, viewer, c)
}

func (s *CommentService) UpdateComment(ctx context.Context, viewer *models.User, id uuid.UUID, req CommentRequest) (CommentResponse, error) {
	c, err := s.mutableComment(ctx, viewer, id)
	if err != nil {
		return CommentResponse{}, err
	}
	if c.Content, err = validateContent(req.Content); err != nil {
		return CommentResponse{}, err
	}
	c.UpdatedAt = s.now()
	if err := s.store.UpdateComment(ctx, c); err != nil {
		return CommentResponse{}, storeErr(err, "update comment", MsgCommentNotFound)
	}
	return s.respondOne(ctx, viewer, c)
}

// DeleteComment soft deletes the comment.
func (s *CommentService) DeleteComment(ctx context.Context, viewer *models.User, id uuid.UUID) (CommentResponse, error) {
	c, err := s.mutableComment(ctx, viewer, id)
	if err != nil {
		return CommentResponse{}, err
	}
	c.IsDeleted = true
	c.UpdatedAt = s.now()
	if err := s.store.UpdateComment(ctx, c); err != nil {
		return CommentResponse{}, storeErr(err, "delete comment", MsgCommentNotFound)
	}
	return s.respondOne(ctx, viewer, c)
}

func (s *CommentService) VoteComment(ctx context.Context, viewer *models.User, id uuid.UUID, vote voting.VoteType) (CommentResponse, error) {
	if err := requireParticipant(viewer); err != nil {
		return CommentResponse{}, err
	}
	if !vote.Valid() {
		return CommentResponse{}, apperr.New(apperr.ValidationFailed, MsgInvalidVoteType)
	}
	if _, err := s.liveComment(ctx, viewer, id); err != nil {
		return CommentResponse{}, err
	}

	action, err := s.store.CastVote(ctx, voting.Comment(id), viewer.ID, vote, s.now())
	if err != nil {
		return CommentResponse{}, storeErr(err, "vote comment", MsgCommentNotFound)
	}
	logger.Log.WithFields(logrus.Fields{
		"comment_id": id, "voter_id": viewer.ID, "action": action.String(),
	}).Debug("comment vote")

	c, err := s.liveComment(ctx, viewer, id)
	if err != nil {
		return CommentResponse{}, err
	}
	return s.respondOne(ctx, viewer, c)
}
