package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is a server-side login record addressed by the opaque cookie value.
//
// A session is Active until ExpiresAt, Expired afterwards, and Deleted once
// its row is gone. A zero ExpiresAt never comes out of session creation and
// is treated as invalid by the authenticator.
type Session struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	IPAddress string
	UserAgent string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// ExpiredAt reports whether the session can no longer authenticate at now.
// Expiry is exclusive: a session with ExpiresAt == now is already expired.
func (s *Session) ExpiredAt(now time.Time) bool {
	if s.ExpiresAt.IsZero() {
		return true
	}
	return !now.Before(s.ExpiresAt)
}

// SessionView is what account management pages show for each active session.
type SessionView struct {
	ID        uuid.UUID `json:"id"`
	IPAddress string    `json:"ip_address"`
	UserAgent string    `json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	IsCurrent bool      `json:"is_current"`
}

// View projects s for display; current is the id of the requesting session.
func (s *Session) View(current uuid.UUID) SessionView {
	return SessionView{
		ID:        s.ID,
		IPAddress: s.IPAddress,
		UserAgent: s.UserAgent,
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
		IsCurrent: s.ID == current,
	}
}
