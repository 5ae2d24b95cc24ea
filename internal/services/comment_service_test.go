package services

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ourcity/internal/apperr"
	"ourcity/internal/voting"
)

func TestCommentLifecycle(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	p := f.post(t, alice, "Flooded lane")

	f.comments.now = ticking(time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC))
	first, err := f.comments.CreateComment(ctx, bob, p.ID, CommentRequest{Content: "Same on my street"})
	require.NoError(t, err)
	require.NotNil(t, first.AuthorName)
	assert.Equal(t, "bob", *first.AuthorName)
	assert.True(t, first.CanMutate)
	second, err := f.comments.CreateComment(ctx, alice, p.ID, CommentRequest{Content: "Reported to 311"})
	require.NoError(t, err)

	page, err := f.comments.GetComments(ctx, alice, p.ID, nil, 1)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, second.ID, page.Items[0].ID)
	assert.True(t, page.Items[0].CanMutate)
	require.NotNil(t, page.NextCursor)

	page, err = f.comments.GetComments(ctx, alice, p.ID, page.NextCursor, 1)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, first.ID, page.Items[0].ID)
	assert.False(t, page.Items[0].CanMutate)
	assert.Nil(t, page.NextCursor)

	post, err := f.posts.GetPost(ctx, nil, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, post.CommentCount)

	_, err = f.comments.UpdateComment(ctx, alice, first.ID, CommentRequest{Content: "edited"})
	assert.Equal(t, apperr.Forbidden, apperr.KindOf(err))
	assert.Equal(t, MsgCommentUnauthorized, apperr.DetailOf(err))

	updated, err := f.comments.UpdateComment(ctx, bob, first.ID, CommentRequest{Content: "Same on **my** street"})
	require.NoError(t, err)
	assert.Contains(t, updated.ContentHTML, "<strong>my</strong>")

	deleted, err := f.comments.DeleteComment(ctx, bob, first.ID)
	require.NoError(t, err)
	assert.True(t, deleted.IsDeleted)

	page, err = f.comments.GetComments(ctx, nil, p.ID, nil, 10)
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)

	_, err = f.comments.UpdateComment(ctx, bob, first.ID, CommentRequest{Content: "again"})
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestCommentValidation(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice")
	p := f.post(t, alice, "Post")

	_, err := f.comments.CreateComment(ctx, alice, p.ID, CommentRequest{Content: "  "})
	assert.Equal(t, apperr.ValidationFailed, apperr.KindOf(err))
	_, err = f.comments.CreateComment(ctx, alice, p.ID, CommentRequest{Content: strings.Repeat("a", 501)})
	assert.Equal(t, MsgContentTooLong, apperr.DetailOf(err))
	_, err = f.comments.CreateComment(ctx, alice, uuid.New(), CommentRequest{Content: "hi"})
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
	_, err = f.comments.CreateComment(ctx, nil, p.ID, CommentRequest{Content: "hi"})
	assert.Equal(t, apperr.Unauthorized, apperr.KindOf(err))
	_, err = f.comments.GetComments(ctx, nil, uuid.New(), nil, 10)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestVoteCommentCycle(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	p := f.post(t, alice, "Post")
	c, err := f.comments.CreateComment(ctx, alice, p.ID, CommentRequest{Content: "hi"})
	require.NoError(t, err)
	subject := voting.Comment(c.ID)

	got, err := f.comments.VoteComment(ctx, bob, c.ID, voting.Upvote)
	require.NoError(t, err)
	assert.Equal(t, 1, got.UpvoteCount)
	assert.Equal(t, voting.Upvote, got.VoteStatus)

	got, err = f.comments.VoteComment(ctx, bob, c.ID, voting.Upvote)
	require.NoError(t, err)
	assert.Equal(t, 1, got.UpvoteCount)
	assert.Equal(t, 1, f.store.VoteRows(subject, bob.ID))

	got, err = f.comments.VoteComment(ctx, bob, c.ID, voting.Downvote)
	require.NoError(t, err)
	assert.Equal(t, 0, got.UpvoteCount)
	assert.Equal(t, 1, got.DownvoteCount)

	got, err = f.comments.VoteComment(ctx, bob, c.ID, voting.NoVote)
	require.NoError(t, err)
	assert.Equal(t, 0, got.DownvoteCount)
	assert.Equal(t, 0, f.store.VoteRows(subject, bob.ID))

	_, err = f.comments.VoteComment(ctx, bob, uuid.New(), voting.Upvote)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
	_, err = f.comments.VoteComment(ctx, bob, c.ID, voting.VoteType(-2))
	assert.Equal(t, apperr.ValidationFailed, apperr.KindOf(err))
}
