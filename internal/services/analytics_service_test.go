package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ourcity/internal/apperr"
	"ourcity/internal/voting"
)

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("")
	require.NoError(t, err)
	assert.Equal(t, PeriodDay, p)
	p, err = ParsePeriod(" Month ")
	require.NoError(t, err)
	assert.Equal(t, PeriodMonth, p)
	_, err = ParsePeriod("decade")
	assert.Equal(t, apperr.ValidationFailed, apperr.KindOf(err))
}

func TestBuckets(t *testing.T) {
	now := time.Date(2025, 6, 10, 15, 42, 0, 0, time.UTC)

	day := buckets(PeriodDay, now)
	require.Len(t, day, 24)
	assert.Equal(t, time.Date(2025, 6, 9, 16, 0, 0, 0, time.UTC), day[0].BucketStart)
	assert.Equal(t, time.Date(2025, 6, 10, 16, 0, 0, 0, time.UTC), day[23].BucketEnd)

	week := buckets(PeriodWeek, now)
	require.Len(t, week, 8)
	assert.Equal(t, time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC), week[0].BucketStart)
	assert.Equal(t, time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC), week[7].BucketEnd)
}

func TestAnalyticsRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice")

	_, err := f.analytics.Summary(ctx, nil, PeriodDay)
	assert.Equal(t, apperr.Unauthorized, apperr.KindOf(err))
	_, err = f.analytics.TimeSeries(ctx, alice, PeriodDay)
	assert.Equal(t, apperr.Forbidden, apperr.KindOf(err))
	_, err = f.analytics.TagBreakdown(ctx, alice, PeriodDay)
	assert.Equal(t, apperr.Forbidden, apperr.KindOf(err))
}

func TestAnalyticsCounts(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	admin := f.admin(t)

	now := time.Now().UTC()
	f.analytics.now = func() time.Time { return now }
	f.posts.now = func() time.Time { return now.Add(-30 * time.Minute) }
	f.comments.now = f.posts.now

	p, err := f.posts.CreatePost(ctx, alice, PostCreateRequest{
		Title: "Bus shelter", Description: "Glass broken", TagIDs: []uuid.UUID{tagID(t, safetyTag)},
	})
	require.NoError(t, err)
	_, err = f.posts.VotePost(ctx, bob, p.ID, voting.Downvote)
	require.NoError(t, err)
	_, err = f.comments.CreateComment(ctx, bob, p.ID, CommentRequest{Content: "Seen it"})
	require.NoError(t, err)

	f.posts.now = func() time.Time { return now.Add(-72 * time.Hour) }
	f.post(t, alice, "Old news")

	summary, err := f.analytics.Summary(ctx, admin, PeriodDay)
	require.NoError(t, err)
	assert.EqualValues(t, 1, summary.TotalPosts)
	assert.EqualValues(t, 0, summary.TotalUpvotes)
	assert.EqualValues(t, 1, summary.TotalDownvotes)
	assert.EqualValues(t, 1, summary.TotalComments)
	assert.True(t, summary.End.Equal(now))

	week, err := f.analytics.Summary(ctx, admin, PeriodWeek)
	require.NoError(t, err)
	assert.EqualValues(t, 2, week.TotalPosts)

	series, err := f.analytics.TimeSeries(ctx, admin, PeriodDay)
	require.NoError(t, err)
	total := 0
	for _, b := range series.Buckets {
		total += b.PostCount
	}
	assert.Equal(t, 1, total)

	tags, err := f.analytics.TagBreakdown(ctx, admin, PeriodDay)
	require.NoError(t, err)
	require.Len(t, tags.TagBuckets, 18)
	assert.Equal(t, "Safety", tags.TagBuckets[0].TagName)
	assert.EqualValues(t, 1, tags.TagBuckets[0].PostCount)

	// answers are cached for a minute
	f.posts.now = func() time.Time { return now.Add(-time.Minute) }
	f.post(t, alice, "Fresh")
	cached, err := f.analytics.Summary(ctx, admin, PeriodDay)
	require.NoError(t, err)
	assert.EqualValues(t, 1, cached.TotalPosts)
}
