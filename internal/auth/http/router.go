package http

import (
	"net/http"

	"github.com/AlibekovAA/sessionauth/internal/account/domain"
	"github.com/AlibekovAA/sessionauth/internal/auth/service"
	"github.com/AlibekovAA/sessionauth/internal/common/config"
	"github.com/AlibekovAA/sessionauth/internal/common/constants"
	commonhttp "github.com/AlibekovAA/sessionauth/internal/common/http"
	"github.com/AlibekovAA/sessionauth/internal/common/logger"
)

type credentialsRequest struct {
	Username string  `json:"username"`
	Password *string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type rotateResponse struct {
	Rotated bool `json:"rotated"`
}

type Handler struct {
	auth    *service.AuthService
	cookies cookieJar
	errors  *commonhttp.ErrorHandler
	log     *logger.Logger
}

// NewHandler mounts the account and session routes. health may be nil.
func NewHandler(auth *service.AuthService, cfg config.AuthConfig, health commonhttp.Pinger, log *logger.Logger) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = constants.DefaultAuthRequestTimeout
	}
	if cfg.SessionCookieName == "" {
		cfg.SessionCookieName = constants.DefaultSessionCookieName
	}

	h := &Handler{
		auth:    auth,
		cookies: cookieJar{name: cfg.SessionCookieName, secure: cfg.SessionCookieSecure},
		errors:  commonhttp.NewErrorHandler(log),
		log:     log,
	}
	timeout := commonhttp.WithTimeout(cfg.RequestTimeout)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", commonhttp.HealthHandler(log, health))
	mux.HandleFunc("POST /api/users", timeout(h.register))
	mux.HandleFunc("PUT /api/users/password", timeout(h.requireSession(h.changePassword)))
	mux.HandleFunc("POST /api/session", timeout(h.login))
	mux.HandleFunc("GET /api/session", timeout(h.requireSession(h.current)))
	mux.HandleFunc("DELETE /api/session", timeout(h.requireSession(h.logout)))
	mux.HandleFunc("POST /api/session/rotate", timeout(h.requireSession(h.rotate)))
	return mux
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := commonhttp.DecodeJSON(r, &req); err != nil {
		h.log.WithFields(r.Context(), logger.Fields{
			"action": "register_invalid_json",
		}).Warnf("register failed: invalid json: %v", err)
		commonhttp.WriteDecodeError(w, r, err)
		return
	}

	account, err := h.auth.Register(r.Context(), service.RegisterInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	h.cookies.set(w, account.SessionToken)
	commonhttp.WriteJSON(w, http.StatusCreated, account.Summary())
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := commonhttp.DecodeJSON(r, &req); err != nil {
		h.log.WithFields(r.Context(), logger.Fields{
			"action": "login_invalid_json",
		}).Warnf("login failed: invalid json: %v", err)
		commonhttp.WriteDecodeError(w, r, err)
		return
	}

	password := ""
	if req.Password != nil {
		password = *req.Password
	}

	account, err := h.auth.Authenticate(r.Context(), req.Username, password)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	h.cookies.set(w, account.SessionToken)
	commonhttp.WriteJSON(w, http.StatusOK, account.Summary())
}

func (h *Handler) current(w http.ResponseWriter, r *http.Request, account domain.Account) {
	commonhttp.WriteJSON(w, http.StatusOK, account.Summary())
}

// logout rotates the token so every session of the account ends, not only
// this browser's.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request, account domain.Account) {
	if _, err := h.auth.RotateSession(r.Context(), account.ID); err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	h.cookies.clear(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) rotate(w http.ResponseWriter, r *http.Request, account domain.Account) {
	token, err := h.auth.RotateSession(r.Context(), account.ID)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	h.cookies.set(w, token)
	commonhttp.WriteJSON(w, http.StatusOK, rotateResponse{Rotated: true})
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request, account domain.Account) {
	var req changePasswordRequest
	if err := commonhttp.DecodeJSON(r, &req); err != nil {
		commonhttp.WriteDecodeError(w, r, err)
		return
	}

	err := h.auth.ChangePassword(r.Context(), service.ChangePasswordInput{
		AccountID:       account.ID,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
