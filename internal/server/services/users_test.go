package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/basicsite/internal/common"
	"github.com/dmitrijs2005/basicsite/internal/dbx"
	"github.com/dmitrijs2005/basicsite/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/basicsite/internal/server/repositories/sessions"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignup_CreatesUserAndSession(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	u, s, err := e.users.Signup(ctx, "alice", "Secr3tPass", t0, "1.2.3.4", "UA/1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, s.UserID)
	assert.NotEqual(t, "Secr3tPass", u.PasswordHash)
	assert.True(t, e.hasher.Verify("Secr3tPass", u.PasswordHash))

	got, err := e.auth.AuthenticateSession(ctx, s.ID.String(), true, t0)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "alice", got.UserName)
}

func TestSignup_DuplicateIsConflict(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, _, err := e.users.Signup(ctx, "bobby", "Secr3tPass", t0, "", "")
	require.NoError(t, err)

	_, _, err = e.users.Signup(ctx, "bobby", "OtherPass1", t0, "", "")
	assert.ErrorIs(t, err, common.ErrorConflict)

	var n int
	require.NoError(t, e.db.QueryRow(`SELECT COUNT(*) FROM users WHERE username = ?`, "bobby").Scan(&n))
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, e.countSessions(t), "rolled back signup leaves no session")
}

func TestSignup_Validation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, _, err := e.users.Signup(ctx, "bob", "Secr3tPass", t0, "", "")
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, _, err = e.users.Signup(ctx, "robert", "short", t0, "", "")
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestChangeUsername(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice, _ := e.signup(t, "alice", "Secr3tPass")
	e.signup(t, "carol", "Secr3tPass")

	require.NoError(t, e.users.ChangeUsername(ctx, alice.ID, "alice2"))
	got, err := e.users.GetByUsername(ctx, "alice2")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	assert.ErrorIs(t, e.users.ChangeUsername(ctx, alice.ID, "carol"), common.ErrorConflict)
	assert.ErrorIs(t, e.users.ChangeUsername(ctx, alice.ID, "no"), common.ErrorValidation)

	_, err = e.users.GetByUsername(ctx, "alice")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestChangePassword(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice, keep := e.signup(t, "alice", "Secr3tPass")
	other, err := e.sessions.Login(ctx, "alice", "Secr3tPass", t0, "", "")
	require.NoError(t, err)

	err = e.users.ChangePassword(ctx, alice.ID, "wrong", "NewPass123", keep.ID)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	err = e.users.ChangePassword(ctx, alice.ID, "Secr3tPass", "short", keep.ID)
	assert.ErrorIs(t, err, common.ErrorValidation)

	require.NoError(t, e.users.ChangePassword(ctx, alice.ID, "Secr3tPass", "NewPass123", keep.ID))

	s, err := e.sessions.Login(ctx, "alice", "Secr3tPass", t0, "", "")
	require.NoError(t, err)
	assert.Nil(t, s, "old password no longer works")

	s, err = e.sessions.Login(ctx, "alice", "NewPass123", t0, "", "")
	require.NoError(t, err)
	assert.NotNil(t, s)

	u, err := e.auth.AuthenticateSession(ctx, other.ID.String(), true, t0)
	require.NoError(t, err)
	assert.Nil(t, u, "other devices are signed out")

	u, err = e.auth.AuthenticateSession(ctx, keep.ID.String(), true, t0)
	require.NoError(t, err)
	assert.NotNil(t, u)
}

// revokeFailingManager serves the real repositories but fails session
// revocation, so a password change has to roll back.
type revokeFailingManager struct {
	repomanager.RepositoryManager
}

func (m revokeFailingManager) Sessions(db dbx.DBTX) sessions.Repository {
	return revokeFailingSessions{m.RepositoryManager.Sessions(db)}
}

type revokeFailingSessions struct {
	sessions.Repository
}

func (revokeFailingSessions) DeleteByUserExcept(context.Context, uuid.UUID, uuid.UUID) (int64, error) {
	return 0, errStore
}

func TestChangePassword_RollsBackWhenRevokeFails(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice, keep := e.signup(t, "alice", "Secr3tPass")
	other, err := e.sessions.Login(ctx, "alice", "Secr3tPass", t0, "", "")
	require.NoError(t, err)

	failing := newEnvWith(e.db, revokeFailingManager{e.rm})
	err = failing.users.ChangePassword(ctx, alice.ID, "Secr3tPass", "NewPass123", keep.ID)
	assert.ErrorIs(t, err, errStore)

	s, err := e.sessions.Login(ctx, "alice", "Secr3tPass", t0, "", "")
	require.NoError(t, err)
	assert.NotNil(t, s, "password hash update is rolled back")

	u, err := e.auth.AuthenticateSession(ctx, other.ID.String(), true, t0)
	require.NoError(t, err)
	assert.NotNil(t, u)
}

func TestUpdateEmail(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice, _ := e.signup(t, "alice", "Secr3tPass")

	require.NoError(t, e.users.UpdateEmail(ctx, alice.ID, " alice@example.com "))
	got, err := e.users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got.Email)
	assert.Equal(t, "alice@example.com", *got.Email)

	assert.ErrorIs(t, e.users.UpdateEmail(ctx, alice.ID, "not an email"), common.ErrorValidation)
	assert.ErrorIs(t, e.users.UpdateEmail(ctx, alice.ID, "Alice <alice@example.com>"), common.ErrorValidation)

	require.NoError(t, e.users.UpdateEmail(ctx, alice.ID, ""))
	got, err = e.users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, got.Email)
}

func TestDeleteAccount_Cascades(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice, s := e.signup(t, "alice", "Secr3tPass")

	require.NoError(t, e.users.DeleteAccount(ctx, alice.ID))

	u, err := e.auth.AuthenticateSession(ctx, s.ID.String(), true, t0)
	require.NoError(t, err)
	assert.Nil(t, u)

	list, err := e.rm.Sessions(e.db).ListByUser(ctx, alice.ID, t0)
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.ErrorIs(t, e.users.DeleteAccount(ctx, alice.ID), common.ErrorNotFound)
}

func TestRegister_CreatesUserWithoutSession(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	u, err := e.users.Register(ctx, "operator", "Secr3tPass", t0)
	require.NoError(t, err)
	assert.Equal(t, 0, e.countSessions(t))

	s, err := e.sessions.Login(ctx, "operator", "Secr3tPass", t0, "", "")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, u.ID, s.UserID)

	_, err = e.users.Register(ctx, "operator", "Secr3tPass", t0)
	assert.ErrorIs(t, err, common.ErrorConflict)
}
