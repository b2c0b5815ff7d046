// Package users declares the credential store: persistence of user records
// with username uniqueness enforced by the database.
package users

import (
	"context"

	"github.com/dmitrijs2005/basicsite/internal/server/models"
	"github.com/google/uuid"
)

// Repository defines operations on user records.
//
// Lookups return common.ErrorNotFound when no row matches. Writes that would
// duplicate a username return an error wrapping common.ErrorConflict.
type Repository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, userName string) (*models.User, error)
	UpdateUsername(ctx context.Context, id uuid.UUID, userName string) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
	// UpdateEmail sets or, with a nil email, clears the address on file.
	UpdateEmail(ctx context.Context, id uuid.UUID, email *string) error
	// Delete removes the user; the schema cascades the delete to its sessions.
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
}
