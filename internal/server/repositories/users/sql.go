package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/basicsite/internal/common"
	"github.com/dmitrijs2005/basicsite/internal/dbx"
	"github.com/dmitrijs2005/basicsite/internal/server/models"
	"github.com/dmitrijs2005/basicsite/internal/server/repositories/dberr"
	"github.com/google/uuid"
)

type queries struct {
	create             string
	getByID            string
	getByUsername      string
	updateUsername     string
	updatePasswordHash string
	updateEmail        string
	delete             string
}

// SQLRepository implements Repository over dbx.DBTX (satisfied by *sql.DB or
// *sql.Tx). The dialect-specific constructors pick the SQL text and the
// constraint error classifier.
type SQLRepository struct {
	db       dbx.DBTX
	q        *queries
	classify dberr.Classifier
}

func (r *SQLRepository) Create(ctx context.Context, user *models.User) error {
	_, err := r.db.ExecContext(ctx, r.q.create,
		user.ID.String(), user.UserName, user.PasswordHash, user.Email, common.ToMicros(user.CreatedAt))
	if err != nil {
		return dberr.Wrap(r.classify, err)
	}
	return nil
}

func (r *SQLRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.getOne(ctx, r.q.getByID, id.String())
}

func (r *SQLRepository) GetByUsername(ctx context.Context, userName string) (*models.User, error) {
	return r.getOne(ctx, r.q.getByUsername, userName)
}

func (r *SQLRepository) UpdateUsername(ctx context.Context, id uuid.UUID, userName string) error {
	return r.updateOne(ctx, r.q.updateUsername, userName, id.String())
}

func (r *SQLRepository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	return r.updateOne(ctx, r.q.updatePasswordHash, hash, id.String())
}

func (r *SQLRepository) UpdateEmail(ctx context.Context, id uuid.UUID, email *string) error {
	return r.updateOne(ctx, r.q.updateEmail, email, id.String())
}

func (r *SQLRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.q.delete, id.String())
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *SQLRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var (
		user      models.User
		email     sql.NullString
		createdAt int64
	)

	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&user.ID, &user.UserName, &user.PasswordHash, &email, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if email.Valid {
		e := email.String
		user.Email = &e
	}
	user.CreatedAt = common.FromMicros(createdAt)

	return &user, nil
}

func (r *SQLRepository) updateOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return dberr.Wrap(r.classify, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
