package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/basicsite/internal/common"
	"github.com/dmitrijs2005/basicsite/internal/dbx"
	"github.com/dmitrijs2005/basicsite/internal/logging"
	"github.com/dmitrijs2005/basicsite/internal/server/models"
	"github.com/dmitrijs2005/basicsite/internal/server/password"
	"github.com/dmitrijs2005/basicsite/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/basicsite/internal/server/repositories/repotest"
	"github.com/dmitrijs2005/basicsite/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/basicsite/internal/server/repositories/users"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var t0 = time.UnixMicro(1_700_000_000_000_000)

// cheap argon2 parameters keep the suite fast
var testParams = password.Params{Memory: 64, Iterations: 1, Parallelism: 1}

type env struct {
	db       *sql.DB
	rm       repomanager.RepositoryManager
	hasher   *password.Hasher
	auth     *Authenticator
	sessions *SessionService
	users    *UserService
	clock    *fakeClock
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newEnv(t *testing.T) *env {
	t.Helper()

	db := repotest.NewSQLite(t)
	rm := repomanager.NewSQLiteRepositoryManager(logging.Nop{})
	return newEnvWith(db, rm)
}

func newEnvWith(db *sql.DB, rm repomanager.RepositoryManager) *env {
	hasher := password.NewHasher(testParams)
	clock := &fakeClock{t: t0}
	ss := NewSessionService(db, rm, hasher, logging.Nop{})
	return &env{
		db:       db,
		rm:       rm,
		hasher:   hasher,
		auth:     NewAuthenticator(db, rm, logging.Nop{}, clock.Now),
		sessions: ss,
		users:    NewUserService(db, rm, hasher, ss, logging.Nop{}),
		clock:    clock,
	}
}

func (e *env) signup(t *testing.T, name, pw string) (*models.User, *models.Session) {
	t.Helper()
	u, s, err := e.users.Signup(context.Background(), name, pw, t0, "127.0.0.1", "test")
	require.NoError(t, err)
	return u, s
}

func (e *env) countSessions(t *testing.T) int {
	t.Helper()
	var n int
	require.NoError(t, e.db.QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&n))
	return n
}

// --- fakes for failure paths ---

var errStore = errors.New("store is down")

type fakeManager struct {
	users    *fakeUsers
	sessions *fakeSessions
}

func (m *fakeManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeManager) Users(dbx.DBTX) users.Repository            { return m.users }
func (m *fakeManager) Sessions(dbx.DBTX) sessions.Repository      { return m.sessions }

type fakeUsers struct {
	byID      map[uuid.UUID]*models.User
	getErr    error
	updateErr error
	updated   int
}

func (f *fakeUsers) Create(context.Context, *models.User) error { return nil }

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsers) GetByUsername(_ context.Context, name string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.byID {
		if u.UserName == name {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsers) UpdateUsername(context.Context, uuid.UUID, string) error { return nil }

func (f *fakeUsers) UpdatePasswordHash(context.Context, uuid.UUID, string) error {
	f.updated++
	return f.updateErr
}

func (f *fakeUsers) UpdateEmail(context.Context, uuid.UUID, *string) error { return nil }
func (f *fakeUsers) Delete(context.Context, uuid.UUID) (int64, error)    { return 0, nil }

type fakeSessions struct {
	byID      map[uuid.UUID]*models.Session
	getErr    error
	deleteErr error
	insertErr error
	listErr   error
	deleted   []uuid.UUID
}

func (f *fakeSessions) Insert(_ context.Context, s *models.Session) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	if f.byID == nil {
		f.byID = map[uuid.UUID]*models.Session{}
	}
	f.byID[s.ID] = s
	return nil
}

func (f *fakeSessions) GetByID(_ context.Context, id uuid.UUID) (*models.Session, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.byID[id], nil
}

func (f *fakeSessions) DeleteByID(_ context.Context, id uuid.UUID) (int64, error) {
	f.deleted = append(f.deleted, id)
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	return 1, nil
}

func (f *fakeSessions) ListByUser(context.Context, uuid.UUID, time.Time) ([]models.Session, error) {
	return nil, f.listErr
}

func (f *fakeSessions) DeleteByUserExcept(context.Context, uuid.UUID, uuid.UUID) (int64, error) {
	return 0, f.deleteErr
}

func (f *fakeSessions) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, f.deleteErr
}
