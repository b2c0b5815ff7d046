package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/basicsite/internal/common"
	"github.com/dmitrijs2005/basicsite/internal/logging"
	"github.com/dmitrijs2005/basicsite/internal/server/models"
	"github.com/dmitrijs2005/basicsite/internal/server/services"
	"github.com/google/uuid"
)

// Handlers serves the account and session endpoints.
type Handlers struct {
	auth          *services.Authenticator
	sessions      *services.SessionService
	users         *services.UserService
	logger        logging.Logger
	secureCookies bool
	now           func() time.Time
}

// NewHandlers wires the services into HTTP handlers. secureCookies controls
// the Secure attribute of the session cookie; a nil now defaults to time.Now.
func NewHandlers(a *services.Authenticator, ss *services.SessionService, us *services.UserService,
	l logging.Logger, secureCookies bool, now func() time.Time) *Handlers {
	if now == nil {
		now = time.Now
	}
	return &Handlers{
		auth:          a,
		sessions:      ss,
		users:         us,
		logger:        l.With("module", "web"),
		secureCookies: secureCookies,
		now:           now,
	}
}

// Routes returns the complete handler tree.
func (h *Handlers) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /signup", h.signup)
	mux.HandleFunc("POST /session", h.login)
	mux.HandleFunc("DELETE /session", h.logout)
	mux.HandleFunc("GET /sessions", h.listSessions)
	mux.HandleFunc("DELETE /sessions/{id}", h.revokeSession)
	mux.HandleFunc("GET /me", h.me)
	mux.HandleFunc("GET /users/{username}", h.profile)
	mux.HandleFunc("POST /settings/username", h.updateUsername)
	mux.HandleFunc("POST /settings/password", h.updatePassword)
	mux.HandleFunc("POST /settings/email", h.updateEmail)
	mux.HandleFunc("GET /api/v1/time", h.serverTime)

	return h.withRequestLogger(mux)
}

type credentialsRequest struct {
	UserName string `json:"username"`
	Password string `json:"password"`
}

type userResponse struct {
	ID        uuid.UUID `json:"id"`
	UserName  string    `json:"username"`
	Email     *string   `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{ID: u.ID, UserName: u.UserName, Email: u.Email, CreatedAt: u.CreatedAt}
}

func (h *Handlers) signup(w http.ResponseWriter, r *http.Request) {
	var in credentialsRequest
	if err := decodeJSON(w, r, &in); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid json")
		return
	}

	user, session, err := h.users.Signup(r.Context(), in.UserName, in.Password, h.now(), r.RemoteAddr, r.UserAgent())
	switch {
	case err == nil:
	case errors.Is(err, common.ErrorValidation):
		errorJSON(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, common.ErrorConflict):
		errorJSON(w, http.StatusConflict, "username is already taken")
		return
	default:
		h.internalError(w, r, err)
		return
	}

	h.setSessionCookie(w, session)
	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	var in credentialsRequest
	if err := decodeJSON(w, r, &in); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid json")
		return
	}

	session, err := h.sessions.Login(r.Context(), in.UserName, in.Password, h.now(), r.RemoteAddr, r.UserAgent())
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	if session == nil {
		errorJSON(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	h.setSessionCookie(w, session)
	writeJSON(w, http.StatusOK, map[string]time.Time{"expires_at": session.ExpiresAt})
}

func (h *Handlers) logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(common.SessionCookieName); err == nil {
		h.sessions.Logout(r.Context(), c.Value)
	}
	h.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) listSessions(w http.ResponseWriter, r *http.Request) {
	user, current, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	views, err := h.sessions.ListSessions(r.Context(), user, current, h.now())
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handlers) revokeSession(w http.ResponseWriter, r *http.Request) {
	user, current, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid session id")
		return
	}

	switch err := h.sessions.Revoke(r.Context(), id, user.ID); {
	case err == nil:
	case errors.Is(err, common.ErrorNotFound):
		errorJSON(w, http.StatusNotFound, "session not found")
		return
	case errors.Is(err, common.ErrorForbidden):
		errorJSON(w, http.StatusForbidden, "forbidden")
		return
	default:
		h.internalError(w, r, err)
		return
	}

	if id == current {
		h.clearSessionCookie(w)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) me(w http.ResponseWriter, r *http.Request) {
	user, _, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *Handlers) profile(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetByUsername(r.Context(), r.PathValue("username"))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			errorJSON(w, http.StatusNotFound, "user not found")
			return
		}
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"username": user.UserName})
}

func (h *Handlers) updateUsername(w http.ResponseWriter, r *http.Request) {
	user, _, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var in struct {
		UserName string `json:"username"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid json")
		return
	}

	h.settingsResult(w, r, h.users.ChangeUsername(r.Context(), user.ID, in.UserName))
}

func (h *Handlers) updatePassword(w http.ResponseWriter, r *http.Request) {
	user, current, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var in struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid json")
		return
	}

	h.settingsResult(w, r, h.users.ChangePassword(r.Context(), user.ID, in.CurrentPassword, in.NewPassword, current))
}

func (h *Handlers) updateEmail(w http.ResponseWriter, r *http.Request) {
	user, _, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var in struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid json")
		return
	}

	h.settingsResult(w, r, h.users.UpdateEmail(r.Context(), user.ID, in.Email))
}

func (h *Handlers) serverTime(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int64{"timestamp": h.now().UnixMicro()})
}

// requireUser authenticates the request once and writes 401 or 500 when it
// cannot proceed.
func (h *Handlers) requireUser(w http.ResponseWriter, r *http.Request) (*models.User, uuid.UUID, bool) {
	user, sid, err := h.auth.Authenticate(r)
	if err != nil {
		h.internalError(w, r, err)
		return nil, uuid.Nil, false
	}
	if user == nil {
		errorJSON(w, http.StatusUnauthorized, "unauthorized")
		return nil, uuid.Nil, false
	}
	return user, *sid, true
}

func (h *Handlers) settingsResult(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, common.ErrorValidation):
		errorJSON(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrorConflict):
		errorJSON(w, http.StatusConflict, "username is already taken")
	case errors.Is(err, common.ErrorUnauthorized):
		errorJSON(w, http.StatusForbidden, "current password is incorrect")
	default:
		h.internalError(w, r, err)
	}
}

func (h *Handlers) internalError(w http.ResponseWriter, r *http.Request, err error) {
	logging.FromContext(r.Context(), h.logger).Error(r.Context(), "request failed", "error", err)
	errorJSON(w, http.StatusInternalServerError, "internal error")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func errorJSON(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
