package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/basicsite/internal/common"
	"github.com/dmitrijs2005/basicsite/internal/logging"
	"github.com/dmitrijs2005/basicsite/internal/server/models"
	"github.com/dmitrijs2005/basicsite/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// Authenticator turns a session cookie value into the user it belongs to.
//
// Every way a cookie can fail to identify someone (missing, malformed,
// unknown, expired) is a soft failure reported as a nil user with a nil
// error. Only store failures produce an error.
type Authenticator struct {
	db     *sql.DB
	rm     repomanager.RepositoryManager
	logger logging.Logger
	now    func() time.Time
}

// NewAuthenticator constructs an Authenticator. A nil now defaults to time.Now.
func NewAuthenticator(db *sql.DB, rm repomanager.RepositoryManager, logger logging.Logger, now func() time.Time) *Authenticator {
	if now == nil {
		now = time.Now
	}
	return &Authenticator{db: db, rm: rm, logger: logger, now: now}
}

// AuthenticateSession resolves rawID at the instant now. present reports
// whether the request carried a session cookie at all.
func (a *Authenticator) AuthenticateSession(ctx context.Context, rawID string, present bool, now time.Time) (*models.User, error) {
	user, _, err := a.resolve(ctx, rawID, present, now)
	return user, err
}

// Authenticate reads the session cookie from r and resolves it at the
// current time. On success it also returns the id of the session used, so
// callers can mark it as the current one.
func (a *Authenticator) Authenticate(r *http.Request) (*models.User, *uuid.UUID, error) {
	var (
		raw     string
		present bool
	)
	if c, err := r.Cookie(common.SessionCookieName); err == nil {
		raw, present = c.Value, true
	}

	user, session, err := a.resolve(r.Context(), raw, present, a.now())
	if err != nil || user == nil {
		return nil, nil, err
	}
	id := session.ID
	return user, &id, nil
}

func (a *Authenticator) resolve(ctx context.Context, rawID string, present bool, now time.Time) (*models.User, *models.Session, error) {
	log := logging.FromContext(ctx, a.logger)

	if !present {
		return nil, nil, nil
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		log.Debug(ctx, "malformed session cookie")
		return nil, nil, nil
	}

	session, err := a.rm.Sessions(a.db).GetByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("error loading session: %w", err)
	}
	if session == nil {
		return nil, nil, nil
	}

	if session.ExpiredAt(now) {
		if _, err := a.rm.Sessions(a.db).DeleteByID(ctx, id); err != nil {
			log.Warn(ctx, "failed to delete expired session", "session_id", id, "error", err)
		} else {
			log.Debug(ctx, "deleted expired session", "session_id", id)
		}
		return nil, nil, nil
	}

	user, err := a.rm.Users(a.db).GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("error loading session user: %w", err)
	}

	return user, session, nil
}
