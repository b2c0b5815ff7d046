// Package sessions declares the session store: persistence of login
// sessions keyed by their opaque identifier.
package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/basicsite/internal/server/models"
	"github.com/google/uuid"
)

// Repository defines operations on session records. The store never judges
// expiry on point lookups; that belongs to the authenticator.
type Repository interface {
	// Insert persists a new session. A duplicate id yields common.ErrorConflict,
	// an unknown owner yields common.ErrorForeignKey.
	Insert(ctx context.Context, session *models.Session) error

	// GetByID returns (nil, nil) when no session has the given id. Expired rows
	// are returned as they are.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error)

	// DeleteByID removes one session and reports how many rows went away.
	// Deleting an absent id returns 0 and no error.
	DeleteByID(ctx context.Context, id uuid.UUID) (int64, error)

	// ListByUser returns the user's sessions with expires_at = 0 or
	// expires_at > now, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID, now time.Time) ([]models.Session, error)

	// DeleteByUserExcept removes all of the user's sessions other than keep.
	DeleteByUserExcept(ctx context.Context, userID uuid.UUID, keep uuid.UUID) (int64, error)

	// DeleteExpired removes every session with expires_at <= now, including
	// rows carrying the reserved zero expiry.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
