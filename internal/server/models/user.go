// Package models defines server-side data models persisted in the database.
package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered account. UserName is unique across all users.
type User struct {
	ID           uuid.UUID
	UserName     string
	PasswordHash string
	// Email is optional; nil means no address on file.
	Email     *string
	CreatedAt time.Time
}
