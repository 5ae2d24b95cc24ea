package db

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ourcity/internal/models"
	"ourcity/internal/pagination"
	"ourcity/internal/voting"
)

// store is the surface both implementations share.
type store interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
	ListUsers(ctx context.Context, f UserFilter) ([]models.User, error)
	CreateReport(ctx context.Context, rep *models.UserReport) error
	CountReports(ctx context.Context, targetID uuid.UUID) (int, error)
	EnsureTags(ctx context.Context, tags []models.Tag) (int, error)
	CreatePost(ctx context.Context, p *models.Post) error
	GetPost(ctx context.Context, id uuid.UUID) (*models.Post, error)
	UpdatePost(ctx context.Context, p *models.Post, tags []models.Tag) error
	ListPosts(ctx context.Context, f PostFilter) ([]models.Post, error)
	FillPostStats(ctx context.Context, posts []*models.Post, viewer *uuid.UUID) error
	CreateComment(ctx context.Context, c *models.Comment) error
	ListComments(ctx context.Context, f CommentFilter) ([]models.Comment, error)
	CastVote(ctx context.Context, s voting.Subject, voterID uuid.UUID, requested voting.VoteType, at time.Time) (voting.Action, error)
	ToggleBookmark(ctx context.Context, userID, postID uuid.UUID, at time.Time) (bool, error)
	ListBookmarks(ctx context.Context, f BookmarkFilter) ([]models.Bookmark, error)
	Totals(ctx context.Context, w Window) (Totals, error)
	TagCounts(ctx context.Context, w Window) ([]TagCount, error)
}

var (
	_ store = (*Memory)(nil)
	_ store = (*Repository)(nil)
)

// stores lists the implementations under test. Postgres joins when
// TEST_DATABASE_URL is set; `make test-postgres` starts one with docker compose.
func stores(t *testing.T) map[string]func(t *testing.T) store {
	out := map[string]func(t *testing.T) store{
		"memory": func(t *testing.T) store { return NewMemory() },
	}
	if dsn := os.Getenv("TEST_DATABASE_URL"); dsn != "" {
		out["postgres"] = func(t *testing.T) store {
			gdb, err := Open(dsn)
			require.NoError(t, err)
			require.NoError(t, gdb.Migrator().DropTable(
				&models.Bookmark{}, &models.UserReport{}, &models.CommentVote{}, &models.PostVote{},
				&models.Comment{}, "post_tags", &models.Post{}, &models.Tag{}, &models.User{},
			))
			require.NoError(t, Migrate(gdb))
			return NewRepository(gdb)
		}
	} else {
		t.Log("TEST_DATABASE_URL not set, postgres store skipped (see make test-postgres)")
	}
	return out
}

func eachStore(t *testing.T, fn func(t *testing.T, s store)) {
	for name, open := range stores(t) {
		t.Run(name, func(t *testing.T) { fn(t, open(t)) })
	}
}

func mkUser(t *testing.T, s store, name string) *models.User {
	u := &models.User{Username: name, Password: "x"}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func mkPost(t *testing.T, s store, author uuid.UUID, title string, at time.Time, tags ...models.Tag) *models.Post {
	p := &models.Post{AuthorID: author, Title: title, Description: title + " details", Visibility: models.Published, CreatedAt: at, UpdatedAt: at, Tags: tags}
	require.NoError(t, s.CreatePost(context.Background(), p))
	return p
}

func newestFirst(fetch int, cursor *uuid.UUID) PostFilter {
	return PostFilter{Order: pagination.NewestFirst, Cursor: cursor, Fetch: fetch}
}

func TestDuplicateUsername(t *testing.T) {
	eachStore(t, func(t *testing.T, s store) {
		mkUser(t, s, "alice")
		err := s.CreateUser(context.Background(), &models.User{Username: "alice", Password: "y"})
		assert.ErrorIs(t, err, ErrDuplicate)
	})
}

func TestListPostsCursor(t *testing.T) {
	eachStore(t, func(t *testing.T, s store) {
		ctx := context.Background()
		alice := mkUser(t, s, "alice")
		base := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
		for i := 0; i < 26; i++ {
			mkPost(t, s, alice.ID, "post", base.Add(time.Duration(i)*time.Minute))
		}

		rows, err := s.ListPosts(ctx, newestFirst(26, nil))
		require.NoError(t, err)
		first := pagination.Paginate(rows, 25, func(p models.Post) uuid.UUID { return p.ID })
		require.Len(t, first.Items, 25)
		require.NotNil(t, first.NextCursor)

		rows, err = s.ListPosts(ctx, newestFirst(26, first.NextCursor))
		require.NoError(t, err)
		second := pagination.Paginate(rows, 25, func(p models.Post) uuid.UUID { return p.ID })
		assert.Len(t, second.Items, 1)
		assert.Nil(t, second.NextCursor)
		assert.True(t, second.Items[0].CreatedAt.Equal(base))
	})
}

func TestListPostsTiesAreStable(t *testing.T) {
	eachStore(t, func(t *testing.T, s store) {
		ctx := context.Background()
		alice := mkUser(t, s, "alice")
		at := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
		for i := 0; i < 6; i++ {
			mkPost(t, s, alice.ID, "tie", at)
		}

		var walked []uuid.UUID
		var cursor *uuid.UUID
		for {
			rows, err := s.ListPosts(ctx, newestFirst(3, cursor))
			require.NoError(t, err)
			page := pagination.Paginate(rows, 2, func(p models.Post) uuid.UUID { return p.ID })
			for _, p := range page.Items {
				walked = append(walked, p.ID)
			}
			if page.NextCursor == nil {
				break
			}
			cursor = page.NextCursor
		}
		require.Len(t, walked, 6)
		for i := 1; i < len(walked); i++ {
			assert.Equal(t, 1, pagination.CompareIDs(walked[i-1], walked[i]))
		}
	})
}

func TestListPostsMissingCursorRestarts(t *testing.T) {
	eachStore(t, func(t *testing.T, s store) {
		ctx := context.Background()
		alice := mkUser(t, s, "alice")
		base := time.Now().UTC()
		var posts []*models.Post
		for i := 0; i < 3; i++ {
			posts = append(posts, mkPost(t, s, alice.ID, "p", base.Add(time.Duration(i)*time.Second)))
		}
		gone := uuid.New()
		rows, err := s.ListPosts(ctx, newestFirst(10, &gone))
		require.NoError(t, err)
		assert.Len(t, rows, 3)

		// A soft-deleted cursor row behaves like a missing one.
		posts[2].IsDeleted = true
		require.NoError(t, s.UpdatePost(ctx, posts[2], nil))
		rows, err = s.ListPosts(ctx, newestFirst(10, &posts[2].ID))
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})
}

func TestListPostsFilters(t *testing.T) {
	eachStore(t, func(t *testing.T, s store) {
		ctx := context.Background()
		tags := []models.Tag{
			{ID: uuid.New(), Name: "Safety"},
			{ID: uuid.New(), Name: "Housing"},
		}
		_, err := s.EnsureTags(ctx, tags)
		require.NoError(t, err)

		alice := mkUser(t, s, "alice")
		bob := mkUser(t, s, "bob")
		now := time.Now().UTC()
		lamp := mkPost(t, s, alice.ID, "Broken streetlamp", now, tags[0])
		mkPost(t, s, alice.ID, "Rent is up", now.Add(time.Second), tags[1])
		hidden := mkPost(t, s, alice.ID, "Hidden lamp", now.Add(2*time.Second))
		hidden.Visibility = models.Hidden
		require.NoError(t, s.UpdatePost(ctx, hidden, nil))
		mkPost(t, s, bob.ID, "Bob's lamp", now.Add(3*time.Second))

		rows, err := s.ListPosts(ctx, PostFilter{Search: "LAMP", Order: pagination.NewestFirst, Fetch: 10})
		require.NoError(t, err)
		assert.Len(t, rows, 2)

		rows, err = s.ListPosts(ctx, PostFilter{Search: "lamp", IncludeHidden: true, Order: pagination.NewestFirst, Fetch: 10})
		require.NoError(t, err)
		assert.Len(t, rows, 3)

		rows, err = s.ListPosts(ctx, PostFilter{TagIDs: []uuid.UUID{tags[0].ID}, Order: pagination.NewestFirst, Fetch: 10})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, lamp.ID, rows[0].ID)
		require.Len(t, rows[0].Tags, 1)
		assert.Equal(t, "Safety", rows[0].Tags[0].Name)

		// Bob gets reported twice and drops out once the threshold is two.
		for _, name := range []string{"carol", "dave"} {
			reporter := mkUser(t, s, name)
			require.NoError(t, s.CreateReport(ctx, &models.UserReport{TargetUserID: bob.ID, ReporterID: reporter.ID, Reason: "spam", ReportedAt: now}))
		}
		rows, err = s.ListPosts(ctx, PostFilter{ReportThreshold: 2, Order: pagination.NewestFirst, Fetch: 10})
		require.NoError(t, err)
		assert.Len(t, rows, 2)

		alice.IsBanned = true
		require.NoError(t, s.UpdateUser(ctx, alice))
		rows, err = s.ListPosts(ctx, PostFilter{Order: pagination.NewestFirst, Fetch: 10})
		require.NoError(t, err)
		assert.Len(t, rows, 1)
	})
}

func TestListPostsByScore(t *testing.T) {
	eachStore(t, func(t *testing.T, s store) {
		ctx := context.Background()
		alice := mkUser(t, s, "alice")
		voters := []*models.User{mkUser(t, s, "v1"), mkUser(t, s, "v2")}
		now := time.Now().UTC()
		low := mkPost(t, s, alice.ID, "low", now)
		high := mkPost(t, s, alice.ID, "high", now.Add(time.Second))
		mid := mkPost(t, s, alice.ID, "mid", now.Add(2*time.Second))

		for _, v := range voters {
			_, err := s.CastVote(ctx, voting.Post(high.ID), v.ID, voting.Upvote, now)
			require.NoError(t, err)
		}
		_, err := s.CastVote(ctx, voting.Post(low.ID), voters[0].ID, voting.Downvote, now)
		require.NoError(t, err)

		order := pagination.Order{By: pagination.SortByScore}
		rows, err := s.ListPosts(ctx, PostFilter{Order: order, Fetch: 2})
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, high.ID, rows[0].ID)
		assert.Equal(t, mid.ID, rows[1].ID)

		rows, err = s.ListPosts(ctx, PostFilter{Order: order, Cursor: &mid.ID, Fetch: 2})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, low.ID, rows[0].ID)
	})
}

func TestCastVote(t *testing.T) {
	eachStore(t, func(t *testing.T, s store) {
		ctx := context.Background()
		alice := mkUser(t, s, "alice")
		bob := mkUser(t, s, "bob")
		created := time.Now().UTC().Add(-time.Hour).Truncate(time.Millisecond)
		post := mkPost(t, s, alice.ID, "vote on me", created)

		at := created.Add(30 * time.Minute)
		action, err := s.CastVote(ctx, voting.Post(post.ID), bob.ID, voting.Upvote, at)
		require.NoError(t, err)
		assert.Equal(t, voting.Insert, action)

		action, err = s.CastVote(ctx, voting.Post(post.ID), bob.ID, voting.Upvote, at.Add(time.Minute))
		require.NoError(t, err)
		assert.Equal(t, voting.Noop, action)

		reloaded, err := s.GetPost(ctx, post.ID)
		require.NoError(t, err)
		assert.True(t, reloaded.UpdatedAt.After(created))

		require.NoError(t, s.FillPostStats(ctx, []*models.Post{reloaded}, &bob.ID))
		assert.Equal(t, 1, reloaded.Votes.Upvotes)
		assert.Equal(t, voting.Upvote, reloaded.ViewerVote)

		action, err = s.CastVote(ctx, voting.Post(post.ID), bob.ID, voting.Downvote, at)
		require.NoError(t, err)
		assert.Equal(t, voting.Update, action)

		action, err = s.CastVote(ctx, voting.Post(post.ID), bob.ID, voting.NoVote, at)
		require.NoError(t, err)
		assert.Equal(t, voting.Delete, action)

		require.NoError(t, s.FillPostStats(ctx, []*models.Post{reloaded}, &bob.ID))
		assert.Equal(t, voting.Tally{}, reloaded.Votes)
		assert.Equal(t, voting.NoVote, reloaded.ViewerVote)

		_, err = s.CastVote(ctx, voting.Post(uuid.New()), bob.ID, voting.Upvote, at)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestCastVoteConcurrentSameVoter(t *testing.T) {
	eachStore(t, func(t *testing.T, s store) {
		ctx := context.Background()
		alice := mkUser(t, s, "alice")
		bob := mkUser(t, s, "bob")
		now := time.Now().UTC()
		post := mkPost(t, s, alice.ID, "race", now)

		const voters = 16
		var wg sync.WaitGroup
		errs := make(chan error, voters)
		for i := 0; i < voters; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.CastVote(ctx, voting.Post(post.ID), bob.ID, voting.Upvote, now)
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		if m, ok := s.(*Memory); ok {
			assert.Equal(t, 1, m.VoteRows(voting.Post(post.ID), bob.ID))
		}
		require.NoError(t, s.FillPostStats(ctx, []*models.Post{post}, &bob.ID))
		assert.Equal(t, 1, post.Votes.Upvotes)
		assert.Equal(t, 1, post.Votes.Score())
		assert.Equal(t, voting.Upvote, post.ViewerVote)
	})
}

func TestCommentVotesAndListing(t *testing.T) {
	eachStore(t, func(t *testing.T, s store) {
		ctx := context.Background()
		alice := mkUser(t, s, "alice")
		post := mkPost(t, s, alice.ID, "thread", time.Now().UTC())

		base := time.Now().UTC()
		var ids []uuid.UUID
		for i := 0; i < 3; i++ {
			c := &models.Comment{PostID: post.ID, AuthorID: alice.ID, Content: "hi", CreatedAt: base.Add(time.Duration(i) * time.Second)}
			require.NoError(t, s.CreateComment(ctx, c))
			ids = append(ids, c.ID)
		}

		action, err := s.CastVote(ctx, voting.Comment(ids[0]), alice.ID, voting.Downvote, base)
		require.NoError(t, err)
		assert.Equal(t, voting.Insert, action)

		rows, err := s.ListComments(ctx, CommentFilter{PostID: post.ID, Fetch: 2})
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, ids[2], rows[0].ID)

		rows, err = s.ListComments(ctx, CommentFilter{PostID: post.ID, Cursor: &rows[1].ID, Fetch: 2})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, ids[0], rows[0].ID)
	})
}

func TestBookmarks(t *testing.T) {
	eachStore(t, func(t *testing.T, s store) {
		ctx := context.Background()
		alice := mkUser(t, s, "alice")
		now := time.Now().UTC()
		p1 := mkPost(t, s, alice.ID, "one", now)
		p2 := mkPost(t, s, alice.ID, "two", now)

		saved, err := s.ToggleBookmark(ctx, alice.ID, p1.ID, now)
		require.NoError(t, err)
		assert.True(t, saved)
		saved, err = s.ToggleBookmark(ctx, alice.ID, p2.ID, now.Add(time.Second))
		require.NoError(t, err)
		assert.True(t, saved)

		rows, err := s.ListBookmarks(ctx, BookmarkFilter{UserID: alice.ID, Fetch: 1})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, p2.ID, rows[0].PostID)
		assert.Equal(t, "two", rows[0].Post.Title)

		rows, err = s.ListBookmarks(ctx, BookmarkFilter{UserID: alice.ID, Cursor: &rows[0].ID, Fetch: 5})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, p1.ID, rows[0].PostID)

		saved, err = s.ToggleBookmark(ctx, alice.ID, p1.ID, now)
		require.NoError(t, err)
		assert.False(t, saved)

		_, err = s.ToggleBookmark(ctx, alice.ID, uuid.New(), now)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestListUsersByReports(t *testing.T) {
	eachStore(t, func(t *testing.T, s store) {
		ctx := context.Background()
		alice := mkUser(t, s, "alice")
		bob := mkUser(t, s, "bob")
		carol := mkUser(t, s, "carol")
		now := time.Now().UTC()
		require.NoError(t, s.CreateReport(ctx, &models.UserReport{TargetUserID: bob.ID, ReporterID: alice.ID, Reason: "r", ReportedAt: now}))
		require.NoError(t, s.CreateReport(ctx, &models.UserReport{TargetUserID: bob.ID, ReporterID: carol.ID, Reason: "r", ReportedAt: now}))
		require.NoError(t, s.CreateReport(ctx, &models.UserReport{TargetUserID: carol.ID, ReporterID: alice.ID, Reason: "r", ReportedAt: now}))

		err := s.CreateReport(ctx, &models.UserReport{TargetUserID: bob.ID, ReporterID: alice.ID, Reason: "again", ReportedAt: now})
		assert.ErrorIs(t, err, ErrDuplicate)

		n, err := s.CountReports(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		min := 1
		rows, err := s.ListUsers(ctx, UserFilter{MinReports: &min, Order: pagination.Order{By: pagination.SortByScore}, Fetch: 10})
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, bob.ID, rows[0].ID)
		assert.Equal(t, 2, rows[0].ReportCount)
		assert.Equal(t, carol.ID, rows[1].ID)
	})
}

func TestListUsersDeletedCursorRestarts(t *testing.T) {
	eachStore(t, func(t *testing.T, s store) {
		ctx := context.Background()
		base := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
		var users []*models.User
		for i, name := range []string{"alice", "bob", "carol"} {
			u := &models.User{Username: name, Password: "x", CreatedAt: base.Add(time.Duration(i) * time.Minute)}
			require.NoError(t, s.CreateUser(ctx, u))
			users = append(users, u)
		}
		// The oldest user is the cursor, so honouring it would return nothing.
		alice := users[0]
		alice.IsDeleted = true
		require.NoError(t, s.UpdateUser(ctx, alice))

		rows, err := s.ListUsers(ctx, UserFilter{Order: pagination.NewestFirst, Cursor: &alice.ID, Fetch: 10})
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, users[2].ID, rows[0].ID)
		assert.Equal(t, users[1].ID, rows[1].ID)
	})
}

func TestListPostsThresholdZeroDisabled(t *testing.T) {
	eachStore(t, func(t *testing.T, s store) {
		ctx := context.Background()
		alice := mkUser(t, s, "alice")
		mkPost(t, s, alice.ID, "never reported", time.Now().UTC())

		rows, err := s.ListPosts(ctx, PostFilter{ReportThreshold: 0, Order: pagination.NewestFirst, Fetch: 10})
		require.NoError(t, err)
		assert.Len(t, rows, 1)
	})
}

func TestAnalytics(t *testing.T) {
	eachStore(t, func(t *testing.T, s store) {
		ctx := context.Background()
		tags := []models.Tag{{ID: uuid.New(), Name: "Parks"}, {ID: uuid.New(), Name: "Safety"}}
		_, err := s.EnsureTags(ctx, tags)
		require.NoError(t, err)
		n, err := s.EnsureTags(ctx, tags)
		require.NoError(t, err)
		assert.Equal(t, 0, n)

		alice := mkUser(t, s, "alice")
		now := time.Now().UTC()
		recent := mkPost(t, s, alice.ID, "recent", now.Add(-time.Hour), tags[0])
		mkPost(t, s, alice.ID, "old", now.Add(-72*time.Hour), tags[1])
		_, err = s.CastVote(ctx, voting.Post(recent.ID), alice.ID, voting.Upvote, now.Add(-time.Minute))
		require.NoError(t, err)

		w := Window{From: now.Add(-24 * time.Hour), To: now}
		totals, err := s.Totals(ctx, w)
		require.NoError(t, err)
		assert.Equal(t, Totals{Posts: 1, Upvotes: 1}, totals)

		counts, err := s.TagCounts(ctx, w)
		require.NoError(t, err)
		require.Len(t, counts, 2)
		assert.Equal(t, "Parks", counts[0].TagName)
		assert.EqualValues(t, 1, counts[0].PostCount)
		assert.EqualValues(t, 0, counts[1].PostCount)
	})
}
