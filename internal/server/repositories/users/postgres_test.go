package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/basicsite/internal/common"
	"github.com/dmitrijs2005/basicsite/internal/server/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

func newRepoWithMock(t *testing.T) (*SQLRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

const (
	qInsert     = `(?s)^INSERT\s+INTO\s+users\s*\(id,\s*username,\s*password_hash,\s*email,\s*created_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5\)$`
	qByUsername = `(?s)^SELECT\s+id,\s*username,\s*password_hash,\s*email,\s*created_at\s+FROM\s+users\s+WHERE\s+username\s*=\s*\$1$`
	qByID       = `(?s)^SELECT\s+id,\s*username,\s*password_hash,\s*email,\s*created_at\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1$`
	qUpdName    = `^UPDATE\s+users\s+SET\s+username\s*=\s*\$1\s+WHERE\s+id\s*=\s*\$2$`
	qUpdEmail   = `^UPDATE\s+users\s+SET\s+email\s*=\s*\$1\s+WHERE\s+id\s*=\s*\$2$`
	qDelete     = `^DELETE\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1$`
)

var userColumns = []string{"id", "username", "password_hash", "email", "created_at"}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	id := uuid.New()
	created := time.UnixMicro(1_700_000_000_000_000)

	mock.ExpectExec(qInsert).
		WithArgs(id.String(), "alice", "$argon2id$hash", nil, created.UnixMicro()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	u := &models.User{ID: id, UserName: "alice", PasswordHash: "$argon2id$hash", CreatedAt: created}
	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_DuplicateUsername(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(qInsert).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"})

	err := repo.Create(context.Background(), &models.User{ID: uuid.New(), UserName: "bob"})
	if !errors.Is(err, common.ErrorConflict) {
		t.Fatalf("want common.ErrorConflict, got %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(qInsert).WillReturnError(errors.New("db down"))

	err := repo.Create(context.Background(), &models.User{ID: uuid.New(), UserName: "alice"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetByUsername_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	id := uuid.New()
	rows := sqlmock.NewRows(userColumns).
		AddRow(id.String(), "alice", "hash", "a@example.com", int64(1_700_000_000_000_000))
	mock.ExpectQuery(qByUsername).WithArgs("alice").WillReturnRows(rows)

	got, err := repo.GetByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetByUsername error: %v", err)
	}
	if got.ID != id || got.UserName != "alice" || got.PasswordHash != "hash" {
		t.Fatalf("unexpected user: %+v", got)
	}
	if got.Email == nil || *got.Email != "a@example.com" {
		t.Fatalf("unexpected email: %v", got.Email)
	}
	if got.CreatedAt.UnixMicro() != 1_700_000_000_000_000 {
		t.Fatalf("unexpected created_at: %v", got.CreatedAt)
	}
}

func TestGetByID_NullEmail(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	id := uuid.New()
	rows := sqlmock.NewRows(userColumns).AddRow(id.String(), "alice", "hash", nil, int64(1))
	mock.ExpectQuery(qByID).WithArgs(id.String()).WillReturnRows(rows)

	got, err := repo.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if got.Email != nil {
		t.Fatalf("expected nil email, got %q", *got.Email)
	}
}

func TestGetByUsername_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(qByUsername).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByUsername(context.Background(), "ghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestGetByID_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(qByID).WillReturnError(errors.New("db err"))

	_, err := repo.GetByID(context.Background(), uuid.New())
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestUpdateUsername(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	id := uuid.New()

	mock.ExpectExec(qUpdName).WithArgs("alice2", id.String()).WillReturnResult(sqlmock.NewResult(0, 1))
	if err := repo.UpdateUsername(context.Background(), id, "alice2"); err != nil {
		t.Fatalf("UpdateUsername error: %v", err)
	}

	mock.ExpectExec(qUpdName).WithArgs("alice3", id.String()).WillReturnResult(sqlmock.NewResult(0, 0))
	if err := repo.UpdateUsername(context.Background(), id, "alice3"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}

	mock.ExpectExec(qUpdName).WillReturnError(&pgconn.PgError{Code: "23505"})
	if err := repo.UpdateUsername(context.Background(), id, "taken"); !errors.Is(err, common.ErrorConflict) {
		t.Fatalf("want common.ErrorConflict, got %v", err)
	}
}

func TestUpdateEmail_Clear(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	id := uuid.New()
	mock.ExpectExec(qUpdEmail).WithArgs(nil, id.String()).WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdateEmail(context.Background(), id, nil); err != nil {
		t.Fatalf("UpdateEmail error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDelete(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	id := uuid.New()
	mock.ExpectExec(qDelete).WithArgs(id.String()).WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := repo.Delete(context.Background(), id)
	if err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if n != 1 {
		t.Fatalf("want 1 row, got %d", n)
	}
}
