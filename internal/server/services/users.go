package services

import (
	"context"
	"database/sql"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/dmitrijs2005/basicsite/internal/common"
	"github.com/dmitrijs2005/basicsite/internal/dbx"
	"github.com/dmitrijs2005/basicsite/internal/logging"
	"github.com/dmitrijs2005/basicsite/internal/server/models"
	"github.com/dmitrijs2005/basicsite/internal/server/password"
	"github.com/dmitrijs2005/basicsite/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// UserService provides account operations:
// - Signup: create a user together with its first session
// - Register: create a user only
// - ChangeUsername / ChangePassword / UpdateEmail: account settings
// - DeleteAccount: remove the user and, by cascade, all its sessions
type UserService struct {
	db       *sql.DB
	rm       repomanager.RepositoryManager
	hasher   *password.Hasher
	sessions *SessionService
	logger   logging.Logger
}

// NewUserService constructs a UserService. Sessions are created through ss.
func NewUserService(db *sql.DB, rm repomanager.RepositoryManager, hasher *password.Hasher, ss *SessionService, logger logging.Logger) *UserService {
	return &UserService{db: db, rm: rm, hasher: hasher, sessions: ss, logger: logger}
}

// Signup registers userName and logs it in. A taken name yields an error
// wrapping common.ErrorConflict; invalid input wraps common.ErrorValidation.
func (s *UserService) Signup(ctx context.Context, userName, plaintext string, now time.Time, ip, userAgent string) (*models.User, *models.Session, error) {
	user, err := s.newUser(userName, plaintext, now)
	if err != nil {
		return nil, nil, err
	}

	var session *models.Session
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.rm.Users(tx).Create(ctx, user); err != nil {
			return fmt.Errorf("error creating user: %w", err)
		}
		var err error
		session, err = s.sessions.CreateSession(ctx, tx, user.ID, now, ip, userAgent)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	logging.FromContext(ctx, s.logger).Info(ctx, "user signed up", "user_id", user.ID)
	return user, session, nil
}

// Register creates an account without logging it in. Used by the useradd
// command.
func (s *UserService) Register(ctx context.Context, userName, plaintext string, now time.Time) (*models.User, error) {
	user, err := s.newUser(userName, plaintext, now)
	if err != nil {
		return nil, err
	}
	if err := s.rm.Users(s.db).Create(ctx, user); err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	logging.FromContext(ctx, s.logger).Info(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

func (s *UserService) newUser(userName, plaintext string, now time.Time) (*models.User, error) {
	if err := password.ValidateUsername(userName); err != nil {
		return nil, err
	}
	if err := password.ValidatePassword(plaintext); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(plaintext)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	return &models.User{
		ID:           uuid.New(),
		UserName:     userName,
		PasswordHash: hash,
		CreatedAt:    common.TruncateMicros(now),
	}, nil
}

// GetByUsername returns the public profile owner or common.ErrorNotFound.
func (s *UserService) GetByUsername(ctx context.Context, userName string) (*models.User, error) {
	return s.rm.Users(s.db).GetByUsername(ctx, userName)
}

// ChangeUsername renames the account.
func (s *UserService) ChangeUsername(ctx context.Context, userID uuid.UUID, userName string) error {
	if err := password.ValidateUsername(userName); err != nil {
		return err
	}
	if err := s.rm.Users(s.db).UpdateUsername(ctx, userID, userName); err != nil {
		return fmt.Errorf("error updating username: %w", err)
	}
	return nil
}

// ChangePassword replaces the password after checking the current one and
// signs out every session except keep. A wrong current password yields
// common.ErrorUnauthorized.
func (s *UserService) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string, keep uuid.UUID) error {
	user, err := s.rm.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("error loading user: %w", err)
	}
	if !s.hasher.Verify(current, user.PasswordHash) {
		return common.ErrorUnauthorized
	}
	if err := password.ValidatePassword(next); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}

	var revoked int64
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.rm.Users(tx).UpdatePasswordHash(ctx, userID, hash); err != nil {
			return fmt.Errorf("error updating password: %w", err)
		}
		var err error
		revoked, err = s.sessions.RevokeOthers(ctx, tx, userID, keep)
		return err
	})
	if err != nil {
		return err
	}

	logging.FromContext(ctx, s.logger).Info(ctx, "password changed", "user_id", userID, "revoked_sessions", revoked)
	return nil
}

// UpdateEmail sets the contact address; an empty or blank address clears it.
func (s *UserService) UpdateEmail(ctx context.Context, userID uuid.UUID, email string) error {
	var value *string
	if email = strings.TrimSpace(email); email != "" {
		addr, err := mail.ParseAddress(email)
		if err != nil || addr.Address != email {
			return fmt.Errorf("%w: invalid email address", common.ErrorValidation)
		}
		value = &email
	}
	if err := s.rm.Users(s.db).UpdateEmail(ctx, userID, value); err != nil {
		return fmt.Errorf("error updating email: %w", err)
	}
	return nil
}

// DeleteAccount removes the user. Its sessions go with it.
func (s *UserService) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	n, err := s.rm.Users(s.db).Delete(ctx, userID)
	if err != nil {
		return fmt.Errorf("error deleting user: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	logging.FromContext(ctx, s.logger).Info(ctx, "account deleted", "user_id", userID)
	return nil
}
