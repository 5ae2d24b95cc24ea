package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"ourcity/internal/apperr"
	"ourcity/internal/config"
	"ourcity/internal/db"
	"ourcity/internal/geo"
	"ourcity/internal/logger"
	"ourcity/internal/models"
	"ourcity/internal/pagination"
	"ourcity/internal/policy"
	"ourcity/internal/voting"
)

// PostQuery is the feed request. SortBy is "date" or "votes", SortOrder is
// "asc" or "desc".
type PostQuery struct {
	Cursor    *uuid.UUID
	Limit     int
	Search    string
	TagIDs    []uuid.UUID
	SortBy    string
	SortOrder string
}

type PostCreateRequest struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Location    *string     `json:"location"`
	Latitude    *float64    `json:"latitude"`
	Longitude   *float64    `json:"longitude"`
	TagIDs      []uuid.UUID `json:"tagIds"`
}

// PostUpdateRequest is a partial update. Nil fields are left alone; a
// non-nil TagIDs replaces the tag set.
type PostUpdateRequest struct {
	Title       *string      `json:"title"`
	Description *string      `json:"description"`
	Location    *string      `json:"location"`
	Latitude    *float64     `json:"latitude"`
	Longitude   *float64     `json:"longitude"`
	TagIDs      *[]uuid.UUID `json:"tagIds"`
}

type PostService struct {
	store           PostStore
	fence           geo.Fence
	reportThreshold int
	now             func() time.Time
}

func NewPostService(store PostStore, cfg *config.Config) *PostService {
	return &PostService{
		store: store,
		fence: geo.Fence{
			Center:   geo.Point{Lat: cfg.GeofenceLat, Lng: cfg.GeofenceLng},
			RadiusKm: cfg.GeofenceRadiusKm,
		},
		reportThreshold: cfg.ReportThreshold,
		now:             utcNow,
	}
}

func postID(p models.Post) uuid.UUID { return p.ID }

// respond fills stats for a batch and maps it to responses.
func (s *PostService) respond(ctx context.Context, viewer *models.User, posts []models.Post) ([]PostResponse, error) {
	ptrs := make([]*models.Post, len(posts))
	for i := range posts {
		ptrs[i] = &posts[i]
	}
	if err := s.store.FillPostStats(ctx, ptrs, viewerID(viewer)); err != nil {
		return nil, storeErr(err, "fill post stats", "")
	}
	out := make([]PostResponse, 0, len(posts))
	for _, p := range ptrs {
		out = append(out, toPostResponse(p, viewer))
	}
	return out, nil
}

func (s *PostService) respondOne(ctx context.Context, viewer *models.User, p *models.Post) (PostResponse, error) {
	out, err := s.respond(ctx, viewer, []models.Post{*p})
	if err != nil {
		return PostResponse{}, err
	}
	return out[0], nil
}

// GetPosts returns one page of the public feed. Admins also see hidden
// posts.
func (s *PostService) GetPosts(ctx context.Context, viewer *models.User, q PostQuery) (pagination.Page[PostResponse], error) {
	limit := pagination.ClampLimit(q.Limit)
	rows, err := s.store.ListPosts(ctx, db.PostFilter{
		Search:          q.Search,
		TagIDs:          q.TagIDs,
		IncludeHidden:   policy.CanAdministrate(viewer),
		ReportThreshold: s.reportThreshold,
		Order:           pagination.ParseOrder(q.SortBy, q.SortOrder),
		Cursor:          q.Cursor,
		Fetch:           limit + 1,
	})
	if err != nil {
		return pagination.Page[PostResponse]{}, storeErr(err, "list posts", "")
	}

	page := pagination.Paginate(rows, limit, postID)
	items, err := s.respond(ctx, viewer, page.Items)
	if err != nil {
		return pagination.Page[PostResponse]{}, err
	}
	return pagination.Page[PostResponse]{Items: items, NextCursor: page.NextCursor}, nil
}

// loadVisible returns the post if the viewer may see it, NotFound otherwise.
func (s *PostService) loadVisible(ctx context.Context, viewer *models.User, id uuid.UUID) (*models.Post, error) {
	p, err := s.store.GetPost(ctx, id)
	if err != nil {
		return nil, storeErr(err, "get post", MsgPostNotFound)
	}
	if !policy.CanSeePost(viewer, p) {
		return nil, apperr.New(apperr.NotFound, MsgPostNotFound)
	}
	return p, nil
}

// loadMutable applies the not-found check before the ownership check.
func (s *PostService) loadMutable(ctx context.Context, viewer *models.User, id uuid.UUID) (*models.Post, error) {
	if err := requireUser(viewer); err != nil {
		return nil, err
	}
	p, err := s.loadVisible(ctx, viewer, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanMutatePost(viewer, p) {
		return nil, apperr.New(apperr.Forbidden, MsgPostUnauthorized)
	}
	return p, nil
}

func (s *PostService) GetPost(ctx context.Context, viewer *models.User, id uuid.UUID) (PostResponse, error) {
	p, err := s.loadVisible(ctx, viewer, id)
	if err != nil {
		return PostResponse{}, err
	}
	return s.respondOne(ctx, viewer, p)
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", apperr.New(apperr.ValidationFailed, MsgTitleRequired)
	}
	if runeLen(title) > models.MaxTitleLength {
		return "", apperr.New(apperr.ValidationFailed, MsgTitleTooLong)
	}
	return title, nil
}

func validateDescription(desc string) (string, error) {
	if strings.TrimSpace(desc) == "" {
		return "", apperr.New(apperr.ValidationFailed, MsgDescriptionRequired)
	}
	if runeLen(desc) > models.MaxDescriptionLength {
		return "", apperr.New(apperr.ValidationFailed, MsgDescriptionTooLong)
	}
	return desc, nil
}

// normalizeLocation strips postal codes and drops blank values.
func normalizeLocation(loc *string, max int) (*string, error) {
	if loc == nil {
		return nil, nil
	}
	if runeLen(*loc) > max {
		return nil, apperr.Newf(apperr.ValidationFailed, MsgLocationTooLong, max)
	}
	cleaned := strings.TrimSpace(geo.StripPostalCode(*loc))
	if cleaned == "" {
		return nil, nil
	}
	return &cleaned, nil
}

func (s *PostService) checkCoordinates(lat, lng *float64) error {
	if lat == nil && lng == nil {
		return nil
	}
	if lat == nil || lng == nil {
		return apperr.New(apperr.ValidationFailed, MsgCoordinatesPaired)
	}
	p := geo.Point{Lat: *lat, Lng: *lng}
	if !p.Valid() {
		return apperr.New(apperr.ValidationFailed, MsgCoordinatesRange)
	}
	if !s.fence.Contains(p) {
		return apperr.Newf(apperr.ValidationFailed, MsgOutsideGeofence, s.fence.Distance(p), s.fence.RadiusKm)
	}
	return nil
}

// resolveTags loads the named tags. Any unknown id fails validation.
func resolveTags(ctx context.Context, store TagStore, ids []uuid.UUID) ([]models.Tag, error) {
	seen := map[uuid.UUID]bool{}
	unique := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	tags, err := store.GetTags(ctx, unique)
	if err != nil {
		return nil, storeErr(err, "get tags", "")
	}
	if len(tags) != len(unique) {
		return nil, apperr.New(apperr.ValidationFailed, MsgTagNotFound)
	}
	if tags == nil {
		tags = []models.Tag{}
	}
	return tags, nil
}

func (s *PostService) CreatePost(ctx context.Context, viewer *models.User, req PostCreateRequest) (PostResponse, error) {
	if err := requireParticipant(viewer); err != nil {
		return PostResponse{}, err
	}
	title, err := validateTitle(req.Title)
	if err != nil {
		return PostResponse{}, err
	}
	desc, err := validateDescription(req.Description)
	if err != nil {
		return PostResponse{}, err
	}
	loc, err := normalizeLocation(req.Location, models.MaxLocationLength)
	if err != nil {
		return PostResponse{}, err
	}
	if err := s.checkCoordinates(req.Latitude, req.Longitude); err != nil {
		return PostResponse{}, err
	}
	tags, err := resolveTags(ctx, s.store, req.TagIDs)
	if err != nil {
		return PostResponse{}, err
	}

	now := s.now()
	p := &models.Post{
		AuthorID:    viewer.ID,
		Title:       title,
		Description: desc,
		Location:    loc,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Visibility:  models.Published,
		Tags:        tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreatePost(ctx, p); err != nil {
		return PostResponse{}, storeErr(err, "create post", MsgUserNotFound)
	}
	logger.Log.WithField("post_id", p.ID).WithField("author_id", viewer.ID).Debug("post created")
	return s.respondOne(ctx, viewer, p)
}

func (s *PostService) UpdatePost(ctx context.Context, viewer *models.User, id uuid.UUID, req PostUpdateRequest) (PostResponse, error) {
	p, err := s.loadMutable(ctx, viewer, id)
	if err != nil {
		return PostResponse{}, err
	}

	if req.Title != nil {
		if p.Title, err = validateTitle(*req.Title); err != nil {
			return PostResponse{}, err
		}
	}
	if req.Description != nil {
		if p.Description, err = validateDescription(*req.Description); err != nil {
			return PostResponse{}, err
		}
	}
	if req.Location != nil {
		if p.Location, err = normalizeLocation(req.Location, models.MaxLocationUpdateLength); err != nil {
			return PostResponse{}, err
		}
	}
	if req.Latitude != nil || req.Longitude != nil {
		if err := s.checkCoordinates(req.Latitude, req.Longitude); err != nil {
			return PostResponse{}, err
		}
		p.Latitude, p.Longitude = req.Latitude, req.Longitude
	}
	var tags []models.Tag
	if req.TagIDs != nil {
		if tags, err = resolveTags(ctx, s.store, *req.TagIDs); err != nil {
			return PostResponse{}, err
		}
	}

	p.UpdatedAt = s.now()
	if err := s.store.UpdatePost(ctx, p, tags); err != nil {
		return PostResponse{}, storeErr(err, "update post", MsgPostNotFound)
	}
	return s.respondOne(ctx, viewer, p)
}

// DeletePost soft deletes the post.
func (s *PostService) DeletePost(ctx context.Context, viewer *models.User, id uuid.UUID) (PostResponse, error) {
	p, err := s.loadMutable(ctx, viewer, id)
	if err != nil {
		return PostResponse{}, err
	}
	p.IsDeleted = true
	p.UpdatedAt = s.now()
	if err := s.store.UpdatePost(ctx, p, nil); err != nil {
		return PostResponse{}, storeErr(err, "delete post", MsgPostNotFound)
	}
	return s.respondOne(ctx, viewer, p)
}

// VotePost casts, changes or clears the viewer's vote.
func (s *PostService) VotePost(ctx context.Context, viewer *models.User, id uuid.UUID, vote voting.VoteType) (PostResponse, error) {
	if err := requireParticipant(viewer); err != nil {
		return PostResponse{}, err
	}
	if !vote.Valid() {
		return PostResponse{}, apperr.New(apperr.ValidationFailed, MsgInvalidVoteType)
	}
	if _, err := s.loadVisible(ctx, viewer, id); err != nil {
		return PostResponse{}, err
	}

	action, err := s.store.CastVote(ctx, voting.Post(id), viewer.ID, vote, s.now())
	if err != nil {
		return PostResponse{}, storeErr(err, "vote post", MsgPostNotFound)
	}
	logger.Log.WithFields(logrus.Fields{
		"post_id": id, "voter_id": viewer.ID, "action": action.String(),
	}).Debug("post vote")

	p, err := s.loadVisible(ctx, viewer, id)
	if err != nil {
		return PostResponse{}, err
	}
	return s.respondOne(ctx, viewer, p)
}

// BookmarkPost toggles the viewer's bookmark on a post.
func (s *PostService) BookmarkPost(ctx context.Context, viewer *models.User, id uuid.UUID) (PostResponse, error) {
	if err := requireParticipant(viewer); err != nil {
		return PostResponse{}, err
	}
	p, err := s.loadVisible(ctx, viewer, id)
	if err != nil {
		return PostResponse{}, err
	}
	if _, err := s.store.ToggleBookmark(ctx, viewer.ID, id, s.now()); err != nil {
		return PostResponse{}, storeErr(err, "toggle bookmark", MsgPostNotFound)
	}
	return s.respondOne(ctx, viewer, p)
}

// GetBookmarkedPosts pages through the viewer's bookmarks, newest first.
// The cursor is a bookmark id.
func (s *PostService) GetBookmarkedPosts(ctx context.Context, viewer *models.User, cursor *uuid.UUID, limit int) (pagination.Page[PostResponse], error) {
	if err := requireParticipant(viewer); err != nil {
		return pagination.Page[PostResponse]{}, err
	}
	limit = pagination.ClampLimit(limit)
	rows, err := s.store.ListBookmarks(ctx, db.BookmarkFilter{UserID: viewer.ID, Cursor: cursor, Fetch: limit + 1})
	if err != nil {
		return pagination.Page[PostResponse]{}, storeErr(err, "list bookmarks", "")
	}

	page := pagination.Paginate(rows, limit, func(b models.Bookmark) uuid.UUID { return b.ID })
	posts := make([]models.Post, 0, len(page.Items))
	for _, b := range page.Items {
		// hidden posts drop out of the list but still advance the cursor
		if policy.CanSeePost(viewer, &b.Post) {
			posts = append(posts, b.Post)
		}
	}
	items, err := s.respond(ctx, viewer, posts)
	if err != nil {
		return pagination.Page[PostResponse]{}, err
	}
	return pagination.Page[PostResponse]{Items: items, NextCursor: page.NextCursor}, nil
}

// SetPostVisibility lets admins hide or republish a post.
func (s *PostService) SetPostVisibility(ctx context.Context, viewer *models.User, id uuid.UUID, visibility models.PostVisibility) (PostResponse, error) {
	if err := requireAdmin(viewer); err != nil {
		return PostResponse{}, err
	}
	if !visibility.Valid() {
		return PostResponse{}, apperr.New(apperr.ValidationFailed, MsgInvalidVisibility)
	}
	p, err := s.loadVisible(ctx, viewer, id)
	if err != nil {
		return PostResponse{}, err
	}
	if p.Visibility != visibility {
		p.Visibility = visibility
		p.UpdatedAt = s.now()
		if err := s.store.UpdatePost(ctx, p, nil); err != nil {
			return PostResponse{}, storeErr(err, "set post visibility", MsgPostNotFound)
		}
		logger.Log.WithField("post_id", id).WithField("visibility", visibility).Info("post visibility changed")
	}
	return s.respondOne(ctx, viewer, p)
}

// CanCreatePosts reports whether the viewer may publish.
func (s *PostService) CanCreatePosts(viewer *models.User) bool {
	return policy.CanParticipate(viewer)
}

// CanMutatePost reports whether the viewer owns a post they can see.
func (s *PostService) CanMutatePost(ctx context.Context, viewer *models.User, id uuid.UUID) (bool, error) {
	p, err := s.loadVisible(ctx, viewer, id)
	if err != nil {
		return false, err
	}
	return policy.CanMutatePost(viewer, p), nil
}
