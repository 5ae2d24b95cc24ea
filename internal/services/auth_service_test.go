package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ourcity/internal/apperr"
)

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)

	u, err := f.auth.Register(ctx, Credentials{Username: " alice ", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.NotEqual(t, "password1", u.Password)

	_, err = f.auth.Register(ctx, Credentials{Username: "alice", Password: "password2"})
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))
	_, err = f.auth.Register(ctx, Credentials{Username: "bob", Password: "short1"})
	assert.Equal(t, apperr.ValidationFailed, apperr.KindOf(err))
	assert.Equal(t, MsgWeakPassword, apperr.DetailOf(err))
	_, err = f.auth.Register(ctx, Credentials{Username: "", Password: "password1"})
	assert.Equal(t, apperr.ValidationFailed, apperr.KindOf(err))

	got, err := f.auth.Login(ctx, Credentials{Username: "alice", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = f.auth.Login(ctx, Credentials{Username: "alice", Password: "wrong-password1"})
	assert.Equal(t, apperr.ValidationFailed, apperr.KindOf(err))
	assert.Equal(t, MsgInvalidCredentials, apperr.DetailOf(err))
	_, err = f.auth.Login(ctx, Credentials{Username: "nobody", Password: "password1"})
	assert.Equal(t, MsgInvalidCredentials, apperr.DetailOf(err))
}

func TestBannedUserCannotLogin(t *testing.T) {
	f := newFixture(t)
	f.register(t, "bob")
	_, err := f.users.BanUser(ctx, f.admin(t), "bob")
	require.NoError(t, err)

	_, err = f.auth.Login(ctx, Credentials{Username: "bob", Password: "password1"})
	assert.Equal(t, apperr.Forbidden, apperr.KindOf(err))
}

func TestResolveAndMe(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice")

	u, err := f.auth.Resolve(ctx, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, u)

	me, err := f.auth.Me(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, "alice", me.Username)
	assert.Nil(t, me.ReportCount)
	_, err = f.auth.Me(ctx, nil)
	assert.Equal(t, apperr.Unauthorized, apperr.KindOf(err))

	u, err = f.auth.Resolve(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, u)

	require.NoError(t, f.users.DeleteUser(ctx, alice, "alice"))
	u, err = f.auth.Resolve(ctx, alice.ID)
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestMeShowsAdminReportCount(t *testing.T) {
	f := newFixture(t)
	admin := f.admin(t)
	for _, name := range []string{"alice", "bob"} {
		reporter := f.register(t, name)
		_, err := f.users.ReportUser(ctx, reporter, admin.Username, ReportRequest{Reason: "abuse"})
		require.NoError(t, err)
	}

	me, err := f.auth.Me(ctx, f.reload(t, admin))
	require.NoError(t, err)
	require.NotNil(t, me.ReportCount)
	assert.Equal(t, 2, *me.ReportCount)
}
