package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/arjeninventory/admin-gateway/internal/auth"
	"github.com/arjeninventory/admin-gateway/internal/backend"
	"github.com/arjeninventory/admin-gateway/internal/middleware"
)

// CodeExchanger trades an OAuth authorization code for a Google profile.
type CodeExchanger interface {
	Exchange(ctx context.Context, code string) (*auth.GoogleProfile, error)
}

// BackendLogin exchanges a Google profile for a backend session token.
type BackendLogin interface {
	Login(ctx context.Context, req backend.LoginRequest) (string, error)
}

// SessionConfig holds the cookie and redirect settings for sign-in.
type SessionConfig struct {
	CookieName   string
	CookieMaxAge int
	// AppURL is where the browser lands after sign-in.
	AppURL string
	// Secure marks the session cookie; off only for local development.
	Secure bool
}

// SessionHandler serves sign-in, sign-out, and the current-user route.
type SessionHandler struct {
	google  CodeExchanger
	backend BackendLogin
	cfg     SessionConfig
	log     *slog.Logger
}

// NewSessionHandler creates a session handler.
func NewSessionHandler(google CodeExchanger, login BackendLogin, cfg SessionConfig, log *slog.Logger) *SessionHandler {
	return &SessionHandler{
		google:  google,
		backend: login,
		cfg:     cfg,
		log:     log,
	}
}

// Me handles GET /api/me: returns the verified session user. Accounts
// whose role cannot hold a dashboard session get 403 and their cookie
// cleared.
func (h *SessionHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "Unauthorized", h.log)
		return
	}

	if !auth.SessionRoles[user.Role] {
		h.clearCookie(w)
		WriteError(w, http.StatusForbidden, "Forbidden", h.log)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"user": user}, h.log)
}

// GoogleCallback handles GET /api/auth/google/callback: exchanges the
// authorization code, logs into the backend, sets the session cookie, and
// sends the browser to the dashboard.
func (h *SessionHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		h.redirectWithError(w, r, "missing_code")
		return
	}

	profile, err := h.google.Exchange(r.Context(), code)
	if err != nil {
		h.log.Error("google code exchange failed", "error", err)
		h.redirectWithError(w, r, "google_auth_failed")
		return
	}

	token, err := h.backend.Login(r.Context(), backend.LoginRequest{
		Fullname: profile.Name,
		Email:    profile.Email,
		GoogleID: profile.ID,
	})
	if err != nil {
		h.log.Error("backend login failed", "email", profile.Email, "error", err)
		h.redirectWithError(w, r, "login_failed")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   h.cfg.CookieMaxAge,
		HttpOnly: true,
		Secure:   h.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.cfg.AppURL+"/dashboard", http.StatusFound)
}

// Logout handles GET and POST /api/auth/logout: clears the session
// cookie. GET redirects to the sign-in page, POST answers JSON.
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearCookie(w)

	if r.Method == http.MethodGet {
		http.Redirect(w, r, h.cfg.AppURL+"/", http.StatusFound)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"success": true}, h.log)
}

func (h *SessionHandler) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *SessionHandler) redirectWithError(w http.ResponseWriter, r *http.Request, reason string) {
	http.Redirect(w, r, h.cfg.AppURL+"/?error="+reason, http.StatusFound)
}
