package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"ourcity/internal/config"
	"ourcity/internal/db"
	"ourcity/internal/models"
	"ourcity/internal/utils"
)

var ctx = context.Background()

type fixture struct {
	cfg       *config.Config
	store     *db.Memory
	posts     *PostService
	comments  *CommentService
	users     *UserService
	auth      *AuthService
	tags      *TagService
	analytics *AnalyticsService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := &config.Config{
		GeofenceLat:      49.8951,
		GeofenceLng:      -97.1384,
		GeofenceRadiusKm: 25,
		ReportThreshold:  2,
		AdminUsername:    "admin",
		AdminPassword:    "adminpass1",
	}
	store := db.NewMemory()
	cache := utils.NewTTLCache(16)
	require.NoError(t, Bootstrap(ctx, store, cfg, cache))

	return &fixture{
		cfg:       cfg,
		store:     store,
		posts:     NewPostService(store, cfg),
		comments:  NewCommentService(store),
		users:     NewUserService(store),
		auth:      NewAuthService(store),
		tags:      NewTagService(store, cache),
		analytics: NewAnalyticsService(store, utils.NewTTLCache(16)),
	}
}

func (f *fixture) register(t *testing.T, name string) *models.User {
	t.Helper()
	u, err := f.auth.Register(ctx, Credentials{Username: name, Password: "password1"})
	require.NoError(t, err)
	return u
}

// reload fetches the current row, as the session middleware would.
func (f *fixture) reload(t *testing.T, u *models.User) *models.User {
	t.Helper()
	fresh, err := f.store.GetUser(ctx, u.ID)
	require.NoError(t, err)
	return fresh
}

func (f *fixture) admin(t *testing.T) *models.User {
	t.Helper()
	u, err := f.store.GetUserByUsername(ctx, f.cfg.AdminUsername)
	require.NoError(t, err)
	return u
}

func (f *fixture) post(t *testing.T, author *models.User, title string) PostResponse {
	t.Helper()
	p, err := f.posts.CreatePost(ctx, author, PostCreateRequest{Title: title, Description: title + " needs attention"})
	require.NoError(t, err)
	return p
}

// ticking returns a clock that advances one second per call.
func ticking(start time.Time) func() time.Time {
	n := 0
	return func() time.Time {
		n++
		return start.Add(time.Duration(n) * time.Second)
	}
}

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }
func intPtr(n int) *int           { return &n }
func tagID(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(s)
	require.NoError(t, err)
	return id
}
