package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/basicsite/internal/common"
	"github.com/dmitrijs2005/basicsite/internal/dbx"
	"github.com/dmitrijs2005/basicsite/internal/server/models"
	"github.com/dmitrijs2005/basicsite/internal/server/repositories/dberr"
	"github.com/google/uuid"
)

type queries struct {
	insert             string
	getByID            string
	deleteByID         string
	listByUser         string
	deleteByUserExcept string
	deleteExpired      string
}

// SQLRepository implements Repository over dbx.DBTX (satisfied by *sql.DB or
// *sql.Tx).
type SQLRepository struct {
	db       dbx.DBTX
	q        *queries
	classify dberr.Classifier
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*models.Session, error) {
	var (
		s                    models.Session
		createdAt, expiresAt int64
	)
	if err := row.Scan(&s.ID, &s.UserID, &s.IPAddress, &s.UserAgent, &createdAt, &expiresAt); err != nil {
		return nil, err
	}
	s.CreatedAt = common.FromMicros(createdAt)
	s.ExpiresAt = common.FromMicros(expiresAt)
	return &s, nil
}

func (r *SQLRepository) Insert(ctx context.Context, s *models.Session) error {
	_, err := r.db.ExecContext(ctx, r.q.insert,
		s.ID.String(), s.UserID.String(), s.IPAddress, s.UserAgent,
		common.ToMicros(s.CreatedAt), common.ToMicros(s.ExpiresAt))
	if err != nil {
		return dberr.Wrap(r.classify, err)
	}
	return nil
}

func (r *SQLRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	s, err := scanSession(r.db.QueryRowContext(ctx, r.q.getByID, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *SQLRepository) DeleteByID(ctx context.Context, id uuid.UUID) (int64, error) {
	return r.exec(ctx, r.q.deleteByID, id.String())
}

func (r *SQLRepository) ListByUser(ctx context.Context, userID uuid.UUID, now time.Time) ([]models.Session, error) {
	rows, err := r.db.QueryContext(ctx, r.q.listByUser, userID.String(), now.UnixMicro())
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.Session, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *SQLRepository) DeleteByUserExcept(ctx context.Context, userID uuid.UUID, keep uuid.UUID) (int64, error) {
	return r.exec(ctx, r.q.deleteByUserExcept, userID.String(), keep.String())
}

func (r *SQLRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return r.exec(ctx, r.q.deleteExpired, now.UnixMicro())
}

func (r *SQLRepository) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
