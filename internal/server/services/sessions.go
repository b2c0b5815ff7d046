package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/basicsite/internal/common"
	"github.com/dmitrijs2005/basicsite/internal/dbx"
	"github.com/dmitrijs2005/basicsite/internal/logging"
	"github.com/dmitrijs2005/basicsite/internal/server/models"
	"github.com/dmitrijs2005/basicsite/internal/server/password"
	"github.com/dmitrijs2005/basicsite/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// SessionService creates, lists and ends sessions.
type SessionService struct {
	db     *sql.DB
	rm     repomanager.RepositoryManager
	hasher *password.Hasher
	logger logging.Logger
}

// NewSessionService constructs a SessionService.
func NewSessionService(db *sql.DB, rm repomanager.RepositoryManager, hasher *password.Hasher, logger logging.Logger) *SessionService {
	return &SessionService{db: db, rm: rm, hasher: hasher, logger: logger}
}

// CreateSession inserts a new session for userID valid for common.SessionTTL
// from now. db may be a transaction so that signup can create the user and
// its first session atomically.
func (s *SessionService) CreateSession(ctx context.Context, db dbx.DBTX, userID uuid.UUID, now time.Time, ip, userAgent string) (*models.Session, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("error generating session id: %w", err)
	}

	now = common.TruncateMicros(now)
	session := &models.Session{
		ID:        id,
		UserID:    userID,
		IPAddress: ip,
		UserAgent: userAgent,
		CreatedAt: now,
		ExpiresAt: now.Add(common.SessionTTL),
	}

	if err := s.rm.Sessions(db).Insert(ctx, session); err != nil {
		return nil, fmt.Errorf("error creating session: %w", err)
	}
	return session, nil
}

// Login checks the credentials and opens a session. An unknown username and
// a wrong password both yield a nil session and a nil error; callers cannot
// tell them apart.
func (s *SessionService) Login(ctx context.Context, userName, plaintext string, now time.Time, ip, userAgent string) (*models.Session, error) {
	log := logging.FromContext(ctx, s.logger)

	user, err := s.rm.Users(s.db).GetByUsername(ctx, userName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.DummyVerify(plaintext)
			return nil, nil
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	if !s.hasher.Verify(plaintext, user.PasswordHash) {
		log.Info(ctx, "login rejected", "user_id", user.ID)
		return nil, nil
	}

	if s.hasher.NeedsRehash(user.PasswordHash) {
		s.rehash(ctx, user, plaintext)
	}

	session, err := s.CreateSession(ctx, s.db, user.ID, now, ip, userAgent)
	if err != nil {
		return nil, err
	}
	log.Info(ctx, "user logged in", "user_id", user.ID, "session_id", session.ID)
	return session, nil
}

// rehash upgrades a hash made with outdated parameters. Failure is not fatal
// to the login.
func (s *SessionService) rehash(ctx context.Context, user *models.User, plaintext string) {
	log := logging.FromContext(ctx, s.logger)

	hash, err := s.hasher.Hash(plaintext)
	if err == nil {
		err = s.rm.Users(s.db).UpdatePasswordHash(ctx, user.ID, hash)
	}
	if err != nil {
		log.Warn(ctx, "failed to upgrade password hash", "user_id", user.ID, "error", err)
		return
	}
	user.PasswordHash = hash
	log.Info(ctx, "upgraded password hash", "user_id", user.ID)
}

// Logout deletes the session named by rawID. It never fails: malformed ids
// are ignored and store errors are only logged.
func (s *SessionService) Logout(ctx context.Context, rawID string) {
	log := logging.FromContext(ctx, s.logger)

	id, err := uuid.Parse(rawID)
	if err != nil {
		return
	}
	if _, err := s.rm.Sessions(s.db).DeleteByID(ctx, id); err != nil {
		log.Warn(ctx, "failed to delete session on logout", "session_id", id, "error", err)
	}
}

// ListSessions returns the user's unexpired sessions, newest first, with the
// one identified by current flagged.
func (s *SessionService) ListSessions(ctx context.Context, user *models.User, current uuid.UUID, now time.Time) ([]models.SessionView, error) {
	sessions, err := s.rm.Sessions(s.db).ListByUser(ctx, user.ID, now)
	if err != nil {
		return nil, fmt.Errorf("error listing sessions: %w", err)
	}

	views := make([]models.SessionView, 0, len(sessions))
	for i := range sessions {
		views = append(views, sessions[i].View(current))
	}
	return views, nil
}

// Revoke deletes sessionID on behalf of actingUserID. It returns
// common.ErrorNotFound when the session does not exist and
// common.ErrorForbidden when it belongs to another user.
func (s *SessionService) Revoke(ctx context.Context, sessionID, actingUserID uuid.UUID) error {
	repo := s.rm.Sessions(s.db)

	session, err := repo.GetByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("error loading session: %w", err)
	}
	if session == nil {
		return common.ErrorNotFound
	}
	if session.UserID != actingUserID {
		logging.FromContext(ctx, s.logger).Warn(ctx, "refused to revoke foreign session",
			"session_id", sessionID, "user_id", actingUserID)
		return common.ErrorForbidden
	}

	if _, err := repo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("error deleting session: %w", err)
	}
	return nil
}

// RevokeOthers deletes every session of userID except keep. db may be a
// transaction so the deletion commits together with a password change.
func (s *SessionService) RevokeOthers(ctx context.Context, db dbx.DBTX, userID, keep uuid.UUID) (int64, error) {
	n, err := s.rm.Sessions(db).DeleteByUserExcept(ctx, userID, keep)
	if err != nil {
		return 0, fmt.Errorf("error revoking sessions: %w", err)
	}
	return n, nil
}
