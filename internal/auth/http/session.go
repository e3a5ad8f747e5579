package http

import (
	"net/http"
	"time"

	"github.com/AlibekovAA/sessionauth/internal/account/domain"
	"github.com/AlibekovAA/sessionauth/internal/auth/service"
)

type sessionHandlerFunc func(w http.ResponseWriter, r *http.Request, account domain.Account)

// requireSession resolves the session cookie to its account. A missing,
// rotated or unknown token all answer 401.
func (h *Handler) requireSession(next sessionHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := h.cookies.read(r)
		if token == "" {
			h.errors.HandleError(w, r, service.ErrInvalidSession)
			return
		}

		account, err := h.auth.ResolveSession(r.Context(), token)
		if err != nil {
			h.cookies.clear(w)
			h.errors.HandleError(w, r, err)
			return
		}

		next(w, r, account)
	}
}

type cookieJar struct {
	name   string
	secure bool
}

func (c cookieJar) read(r *http.Request) string {
	cookie, err := r.Cookie(c.name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (c cookieJar) set(w http.ResponseWriter, token string) {
	if token == "" {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   c.secure,
	})
}

func (c cookieJar) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   c.secure,
	})
}
