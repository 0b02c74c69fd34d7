package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vaultmedia/vaultmedia-backend/internal/data/repos/testutil"
	"github.com/vaultmedia/vaultmedia-backend/internal/data/repos/users"
	"github.com/vaultmedia/vaultmedia-backend/internal/domain"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/apierr"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/dbctx"
)

func newAuthServiceForTest(t *testing.T, tx *gorm.DB) AuthService {
	t.Helper()
	t.Setenv("JWT_SECRET_KEY", "test-secret-do-not-use")
	log := testutil.Logger(t)
	return NewAuthService(tx, log, users.NewUserRepo(tx, log), users.NewUserTokenRepo(tx, log))
}

func TestRegisterValidatesAndHashes(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	svc := newAuthServiceForTest(t, tx)

	_, err := svc.Register(dbc, Credentials{Email: "not-an-email", Password: "longenough"})
	assert.Equal(t, apierr.CodeValidation, apierr.From(err).Code)

	_, err = svc.Register(dbc, Credentials{Email: "a@test.dev", Password: "short"})
	assert.Equal(t, apierr.CodeValidation, apierr.From(err).Code)

	user, err := svc.Register(dbc, Credentials{
		Email:     "  Alice@Test.Dev  ",
		Password:  "correct horse",
		FirstName: "Alice",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@test.dev", user.Email)
	assert.Equal(t, domain.RoleMember, user.Role)
	assert.NotEqual(t, "correct horse", user.Password, "password must be stored hashed")

	_, err = svc.Register(dbc, Credentials{Email: "alice@test.dev", Password: "correct horse"})
	assert.Equal(t, apierr.CodeConflict, apierr.From(err).Code)
}

func TestLoginAndVerifyAccessToken(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	svc := newAuthServiceForTest(t, tx)

	registered, err := svc.Register(dbc, Credentials{Email: "bob@test.dev", Password: "hunter2hunter2"})
	require.NoError(t, err)

	_, err = svc.Login(dbc, "bob@test.dev", "wrong password")
	assert.Equal(t, apierr.CodeUnauthorized, apierr.From(err).Code)

	_, err = svc.Login(dbc, "nobody@test.dev", "hunter2hunter2")
	assert.Equal(t, apierr.CodeUnauthorized, apierr.From(err).Code)

	pair, err := svc.Login(dbc, "bob@test.dev", "hunter2hunter2")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	caller, err := svc.VerifyAccessToken(dbc, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, caller.ID)

	_, err = svc.VerifyAccessToken(dbc, pair.AccessToken+"tampered")
	assert.Equal(t, apierr.CodeUnauthorized, apierr.From(err).Code)
}

func TestRefreshRotatesToken(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	svc := newAuthServiceForTest(t, tx)

	_, err := svc.Register(dbc, Credentials{Email: "carol@test.dev", Password: "hunter2hunter2"})
	require.NoError(t, err)
	pair, err := svc.Login(dbc, "carol@test.dev", "hunter2hunter2")
	require.NoError(t, err)

	rotated, err := svc.Refresh(dbc, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	// The old refresh token was consumed by the rotation.
	_, err = svc.Refresh(dbc, pair.RefreshToken)
	assert.Equal(t, apierr.CodeUnauthorized, apierr.From(err).Code)

	require.NoError(t, svc.Logout(dbc, rotated.RefreshToken))
	_, err = svc.Refresh(dbc, rotated.RefreshToken)
	assert.Equal(t, apierr.CodeUnauthorized, apierr.From(err).Code)
}
