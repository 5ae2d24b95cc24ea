package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ourcity/internal/models"
	"ourcity/internal/pagination"
	"ourcity/internal/voting"
)

const (
	reportCountSQL   = "(SELECT COUNT(*) FROM user_reports ur WHERE ur.target_user_id = users.id)"
	authorReportsSQL = "(SELECT COUNT(*) FROM user_reports ur WHERE ur.target_user_id = posts.author_id)"
	postScoreSQL     = "(SELECT COALESCE(SUM(pv.vote_type), 0) FROM post_votes pv WHERE pv.post_id = posts.id)"
)

// Repository is the postgres-backed store.
type Repository struct {
	db *gorm.DB
}

func NewRepository(gdb *gorm.DB) *Repository {
	return &Repository{db: gdb}
}

func (r *Repository) conn(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

// keysetWhere builds the "strictly after the cursor" predicate for a column
// pair. scoreExpr is used when ordering by score.
func keysetWhere(q *gorm.DB, o pagination.Order, dateCol, scoreExpr, idCol string, k pagination.Key) *gorm.DB {
	cmp := "<"
	if o.Asc {
		cmp = ">"
	}
	if o.By == pagination.SortByScore {
		return q.Where(fmt.Sprintf("(%s %s ? OR (%s = ? AND %s %s ?))", scoreExpr, cmp, scoreExpr, idCol, cmp), k.Score, k.Score, k.ID)
	}
	return q.Where(fmt.Sprintf("(%s %s ? OR (%s = ? AND %s %s ?))", dateCol, cmp, dateCol, idCol, cmp), k.At, k.At, k.ID)
}

func keysetOrder(q *gorm.DB, o pagination.Order, dateCol, scoreExpr, idCol string) *gorm.DB {
	dir := "DESC"
	if o.Asc {
		dir = "ASC"
	}
	if o.By == pagination.SortByScore {
		return q.Order(scoreExpr + " " + dir).Order(idCol + " " + dir)
	}
	return q.Order(dateCol + " " + dir).Order(idCol + " " + dir)
}

type keyRow struct {
	ID        uuid.UUID
	CreatedAt time.Time
	Score     int
}

func (k keyRow) key() pagination.Key {
	return pagination.Key{At: k.CreatedAt, Score: k.Score, ID: k.ID}
}

// Users

func (r *Repository) CreateUser(ctx context.Context, u *models.User) error {
	return translate(r.conn(ctx).Create(u).Error)
}

func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := r.conn(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := r.conn(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *Repository) UpdateUser(ctx context.Context, u *models.User) error {
	err := r.conn(ctx).Model(u).Select("username", "is_admin", "is_banned", "is_deleted", "updated_at").Updates(u).Error
	return translate(err)
}

func (r *Repository) ListUsers(ctx context.Context, f UserFilter) ([]models.User, error) {
	q := r.conn(ctx).Model(&models.User{}).
		Select("users.*, "+reportCountSQL+" AS report_count").
		Where("users.is_deleted = ?", false)

	if f.IsBanned != nil {
		q = q.Where("users.is_banned = ?", *f.IsBanned)
	}
	if f.MinReports != nil {
		q = q.Where(reportCountSQL+" >= ?", *f.MinReports)
	}
	if f.Cursor != nil {
		var k keyRow
		res := r.conn(ctx).Model(&models.User{}).
			Select("users.id, users.created_at, "+reportCountSQL+" AS score").
			Where("users.id = ? AND users.is_deleted = ?", *f.Cursor, false).Limit(1).Scan(&k)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected > 0 {
			q = keysetWhere(q, f.Order, "users.created_at", reportCountSQL, "users.id", k.key())
		}
	}

	var users []models.User
	err := keysetOrder(q, f.Order, "users.created_at", reportCountSQL, "users.id").
		Limit(f.Fetch).Find(&users).Error
	return users, err
}

// Reports

func (r *Repository) CountReports(ctx context.Context, targetID uuid.UUID) (int, error) {
	var n int64
	err := r.conn(ctx).Model(&models.UserReport{}).Where("target_user_id = ?", targetID).Count(&n).Error
	return int(n), err
}

func (r *Repository) FindReport(ctx context.Context, reporterID, targetID uuid.UUID) (*models.UserReport, error) {
	var rep models.UserReport
	err := r.conn(ctx).Where("reporter_id = ? AND target_user_id = ?", reporterID, targetID).First(&rep).Error
	if err != nil {
		return nil, translate(err)
	}
	return &rep, nil
}

func (r *Repository) CreateReport(ctx context.Context, rep *models.UserReport) error {
	return translate(r.conn(ctx).Create(rep).Error)
}

func (r *Repository) DeleteReport(ctx context.Context, id uuid.UUID) error {
	return r.conn(ctx).Where("id = ?", id).Delete(&models.UserReport{}).Error
}

// Tags

func (r *Repository) ListTags(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	err := r.conn(ctx).Order("name ASC").Find(&tags).Error
	return tags, err
}

func (r *Repository) GetTags(ctx context.Context, ids []uuid.UUID) ([]models.Tag, error) {
	if len(ids) == 0 {
		return []models.Tag{}, nil
	}
	var tags []models.Tag
	err := r.conn(ctx).Where("id IN ?", ids).Order("name ASC").Find(&tags).Error
	return tags, err
}

// EnsureTags inserts the tags that do not exist yet and reports how many
// were created.
func (r *Repository) EnsureTags(ctx context.Context, tags []models.Tag) (int, error) {
	if len(tags) == 0 {
		return 0, nil
	}
	res := r.conn(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&tags)
	return int(res.RowsAffected), res.Error
}

// Posts

func (r *Repository) CreatePost(ctx context.Context, p *models.Post) error {
	return translate(r.conn(ctx).Create(p).Error)
}

// GetPost loads a post with its tags and author. Soft-deleted posts are
// returned; callers decide visibility.
func (r *Repository) GetPost(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	var p models.Post
	err := r.conn(ctx).Preload("Tags", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("tags.name ASC")
	}).Preload("Author").Where("id = ?", id).First(&p).Error
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// UpdatePost saves scalar fields. A nil tags slice keeps the current tags.
func (r *Repository) UpdatePost(ctx context.Context, p *models.Post, tags []models.Tag) error {
	return r.conn(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(p).
			Select("title", "description", "location", "latitude", "longitude", "visibility", "is_deleted", "updated_at").
			Updates(p).Error
		if err != nil {
			return err
		}
		if tags == nil {
			return nil
		}
		if err := tx.Model(p).Association("Tags").Replace(tags); err != nil {
			return err
		}
		p.Tags = tags
		return nil
	})
}

func (r *Repository) ListPosts(ctx context.Context, f PostFilter) ([]models.Post, error) {
	q := r.conn(ctx).Model(&models.Post{}).
		Select("posts.*").
		Joins("JOIN users ON users.id = posts.author_id").
		Where("posts.is_deleted = ?", false).
		Where("users.is_banned = ?", false)

	if !f.IncludeHidden {
		q = q.Where("posts.visibility = ?", models.Published)
	}
	if f.ReportThreshold > 0 {
		q = q.Where(authorReportsSQL+" < ?", f.ReportThreshold)
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		like := "%" + escapeLike(strings.ToLower(term)) + "%"
		q = q.Where("(LOWER(posts.title) LIKE ? OR LOWER(posts.description) LIKE ?)", like, like)
	}
	if len(f.TagIDs) > 0 {
		q = q.Where("EXISTS (SELECT 1 FROM post_tags pt WHERE pt.post_id = posts.id AND pt.tag_id IN ?)", f.TagIDs)
	}
	if f.Cursor != nil {
		var k keyRow
		res := r.conn(ctx).Model(&models.Post{}).
			Select("posts.id, posts.created_at, "+postScoreSQL+" AS score").
			Where("posts.id = ? AND posts.is_deleted = ?", *f.Cursor, false).Limit(1).Scan(&k)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected > 0 {
			q = keysetWhere(q, f.Order, "posts.created_at", postScoreSQL, "posts.id", k.key())
		}
	}

	var posts []models.Post
	err := keysetOrder(q, f.Order, "posts.created_at", postScoreSQL, "posts.id").
		Preload("Tags", func(tx *gorm.DB) *gorm.DB { return tx.Order("tags.name ASC") }).
		Limit(f.Fetch).Find(&posts).Error
	return posts, err
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// FillPostStats loads vote tallies, comment counts and the viewer's own
// vote and bookmark state for a batch of posts.
func (r *Repository) FillPostStats(ctx context.Context, posts []*models.Post, viewer *uuid.UUID) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(posts))
	byID := make(map[uuid.UUID]*models.Post, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
		byID[p.ID] = p
		p.Votes, p.CommentCount, p.ViewerVote, p.Bookmarked = voting.Tally{}, 0, voting.NoVote, false
	}

	var tallies []struct {
		SubjectID uuid.UUID
		VoteType  int
		N         int
	}
	err := r.conn(ctx).Model(&models.PostVote{}).
		Select("post_id AS subject_id, vote_type, COUNT(*) AS n").
		Where("post_id IN ?", ids).
		Group("post_id, vote_type").
		Scan(&tallies).Error
	if err != nil {
		return err
	}
	for _, t := range tallies {
		p := byID[t.SubjectID]
		if p == nil {
			continue
		}
		switch {
		case t.VoteType > 0:
			p.Votes.Upvotes += t.N
		case t.VoteType < 0:
			p.Votes.Downvotes += t.N
		}
	}

	var counts []struct {
		PostID uuid.UUID
		N      int
	}
	err = r.conn(ctx).Model(&models.Comment{}).
		Select("post_id, COUNT(*) AS n").
		Where("post_id IN ? AND is_deleted = ?", ids, false).
		Group("post_id").
		Scan(&counts).Error
	if err != nil {
		return err
	}
	for _, c := range counts {
		if p := byID[c.PostID]; p != nil {
			p.CommentCount = c.N
		}
	}

	if viewer == nil {
		return nil
	}

	var mine []models.PostVote
	if err := r.conn(ctx).Where("voter_id = ? AND post_id IN ?", *viewer, ids).Find(&mine).Error; err != nil {
		return err
	}
	for _, v := range mine {
		if p := byID[v.PostID]; p != nil {
			p.ViewerVote = v.VoteType
		}
	}

	var saved []uuid.UUID
	err = r.conn(ctx).Model(&models.Bookmark{}).
		Where("user_id = ? AND post_id IN ?", *viewer, ids).
		Pluck("post_id", &saved).Error
	if err != nil {
		return err
	}
	for _, id := range saved {
		if p := byID[id]; p != nil {
			p.Bookmarked = true
		}
	}
	return nil
}

// Comments

func (r *Repository) CreateComment(ctx context.Context, c *models.Comment) error {
	return translate(r.conn(ctx).Create(c).Error)
}

func (r *Repository) GetComment(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	var c models.Comment
	if err := r.conn(ctx).Preload("Author").Where("id = ?", id).First(&c).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *Repository) UpdateComment(ctx context.Context, c *models.Comment) error {
	return r.conn(ctx).Model(c).Select("content", "is_deleted", "updated_at").Updates(c).Error
}

func (r *Repository) ListComments(ctx context.Context, f CommentFilter) ([]models.Comment, error) {
	q := r.conn(ctx).Model(&models.Comment{}).
		Where("comments.post_id = ? AND comments.is_deleted = ?", f.PostID, false)

	if f.Cursor != nil {
		var k keyRow
		res := r.conn(ctx).Model(&models.Comment{}).
			Select("id, created_at").
			Where("id = ? AND is_deleted = ?", *f.Cursor, false).Limit(1).Scan(&k)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected > 0 {
			q = keysetWhere(q, pagination.NewestFirst, "comments.created_at", "", "comments.id", k.key())
		}
	}

	var comments []models.Comment
	err := keysetOrder(q, pagination.NewestFirst, "comments.created_at", "", "comments.id").
		Preload("Author").
		Limit(f.Fetch).Find(&comments).Error
	return comments, err
}

func (r *Repository) FillCommentStats(ctx context.Context, comments []*models.Comment, viewer *uuid.UUID) error {
	if len(comments) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(comments))
	byID := make(map[uuid.UUID]*models.Comment, len(comments))
	for i, c := range comments {
		ids[i] = c.ID
		byID[c.ID] = c
		c.Votes, c.ViewerVote = voting.Tally{}, voting.NoVote
	}

	var tallies []struct {
		SubjectID uuid.UUID
		VoteType  int
		N         int
	}
	err := r.conn(ctx).Model(&models.CommentVote{}).
		Select("comment_id AS subject_id, vote_type, COUNT(*) AS n").
		Where("comment_id IN ?", ids).
		Group("comment_id, vote_type").
		Scan(&tallies).Error
	if err != nil {
		return err
	}
	for _, t := range tallies {
		c := byID[t.SubjectID]
		if c == nil {
			continue
		}
		switch {
		case t.VoteType > 0:
			c.Votes.Upvotes += t.N
		case t.VoteType < 0:
			c.Votes.Downvotes += t.N
		}
	}

	if viewer == nil {
		return nil
	}
	var mine []models.CommentVote
	if err := r.conn(ctx).Where("voter_id = ? AND comment_id IN ?", *viewer, ids).Find(&mine).Error; err != nil {
		return err
	}
	for _, v := range mine {
		if c := byID[v.CommentID]; c != nil {
			c.ViewerVote = v.VoteType
		}
	}
	return nil
}

// Bookmarks

// ToggleBookmark removes the bookmark if present, otherwise adds it. It
// returns whether the post is bookmarked afterwards.
func (r *Repository) ToggleBookmark(ctx context.Context, userID, postID uuid.UUID, at time.Time) (bool, error) {
	var saved bool
	err := r.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Post{}).Where("id = ? AND is_deleted = ?", postID, false).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}

		res := tx.Where("user_id = ? AND post_id = ?", userID, postID).Delete(&models.Bookmark{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			saved = false
			return nil
		}

		b := models.Bookmark{UserID: userID, PostID: postID, BookmarkedAt: at}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&b).Error; err != nil {
			return err
		}
		saved = true
		return nil
	})
	return saved, err
}

// ListBookmarks returns a user's bookmarks newest first with posts and tags
// loaded. Bookmarks of deleted posts are skipped.
func (r *Repository) ListBookmarks(ctx context.Context, f BookmarkFilter) ([]models.Bookmark, error) {
	q := r.conn(ctx).Model(&models.Bookmark{}).
		Select("bookmarks.*").
		Joins("JOIN posts ON posts.id = bookmarks.post_id AND posts.is_deleted = ?", false).
		Where("bookmarks.user_id = ?", f.UserID)

	if f.Cursor != nil {
		var cur models.Bookmark
		res := r.conn(ctx).Where("id = ? AND user_id = ?", *f.Cursor, f.UserID).Limit(1).Find(&cur)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected > 0 {
			k := pagination.Key{At: cur.BookmarkedAt, ID: cur.ID}
			q = keysetWhere(q, pagination.NewestFirst, "bookmarks.bookmarked_at", "", "bookmarks.id", k)
		}
	}

	var bookmarks []models.Bookmark
	err := keysetOrder(q, pagination.NewestFirst, "bookmarks.bookmarked_at", "", "bookmarks.id").
		Preload("Post.Tags").
		Limit(f.Fetch).Find(&bookmarks).Error
	return bookmarks, err
}

// Analytics

func (r *Repository) Totals(ctx context.Context, w Window) (Totals, error) {
	var t Totals
	err := r.conn(ctx).Model(&models.Post{}).
		Where("is_deleted = ? AND created_at >= ? AND created_at < ?", false, w.From, w.To).
		Count(&t.Posts).Error
	if err != nil {
		return t, err
	}
	err = r.conn(ctx).Model(&models.Comment{}).
		Where("is_deleted = ? AND created_at >= ? AND created_at < ?", false, w.From, w.To).
		Count(&t.Comments).Error
	if err != nil {
		return t, err
	}

	var votes struct {
		Up   int64
		Down int64
	}
	err = r.conn(ctx).Raw(`
		SELECT
			COUNT(*) FILTER (WHERE vote_type > 0) AS up,
			COUNT(*) FILTER (WHERE vote_type < 0) AS down
		FROM (
			SELECT vote_type, voted_at FROM post_votes
			UNION ALL
			SELECT vote_type, voted_at FROM comment_votes
		) v
		WHERE v.voted_at >= ? AND v.voted_at < ?`, w.From, w.To).Scan(&votes).Error
	t.Upvotes, t.Downvotes = votes.Up, votes.Down
	return t, err
}

func (r *Repository) PostTimes(ctx context.Context, w Window) ([]time.Time, error) {
	var times []time.Time
	err := r.conn(ctx).Model(&models.Post{}).
		Where("is_deleted = ? AND created_at >= ? AND created_at < ?", false, w.From, w.To).
		Order("created_at ASC").
		Pluck("created_at", &times).Error
	return times, err
}

func (r *Repository) TagCounts(ctx context.Context, w Window) ([]TagCount, error) {
	var counts []TagCount
	err := r.conn(ctx).Table("tags").
		Select("tags.id AS tag_id, tags.name AS tag_name, COUNT(posts.id) AS post_count").
		Joins("LEFT JOIN post_tags ON post_tags.tag_id = tags.id").
		Joins("LEFT JOIN posts ON posts.id = post_tags.post_id AND posts.is_deleted = ? AND posts.created_at >= ? AND posts.created_at < ?", false, w.From, w.To).
		Group("tags.id, tags.name").
		Order("post_count DESC, tags.name ASC").
		Scan(&counts).Error
	return counts, err
}
