package web

import (
	"net/http"

	"github.com/dmitrijs2005/basicsite/internal/common"
	"github.com/dmitrijs2005/basicsite/internal/server/models"
)

func (h *Handlers) setSessionCookie(w http.ResponseWriter, s *models.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    s.ID.String(),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   h.secureCookies,
		MaxAge:   int(common.SessionTTL.Seconds()),
	})
}

func (h *Handlers) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   h.secureCookies,
		MaxAge:   -1,
	})
}
