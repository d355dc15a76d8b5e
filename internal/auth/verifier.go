// Package auth resolves session tokens to users. Tokens are issued by the
// products backend after Google sign-in and carried in an HTTP-only
// cookie; the gateway never issues tokens of its own.
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/arjeninventory/admin-gateway/internal/apperr"
	"github.com/arjeninventory/admin-gateway/internal/cache"
	"github.com/arjeninventory/admin-gateway/internal/models"
)

// SessionRoles are the roles allowed to hold a dashboard session. The
// backend also knows an admin role, but admin accounts cannot log into
// this dashboard.
var SessionRoles = map[string]bool{
	"owner":    true,
	"partner":  true,
	"seller":   true,
	"reseller": true,
}

// TokenVerifier resolves a raw token to a user. Implemented by the
// backend client.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*models.User, error)
}

// Verifier validates session tokens, locally when a shared JWT secret is
// configured and via the backend otherwise, caching successes.
type Verifier struct {
	secret   []byte
	remote   TokenVerifier
	sessions cache.Store
	ttl      time.Duration
	log      *slog.Logger
}

// NewVerifier creates a Verifier. secret may be empty, in which case all
// verification is remote.
func NewVerifier(secret string, remote TokenVerifier, sessions cache.Store, ttl time.Duration, log *slog.Logger) *Verifier {
	return &Verifier{
		secret:   []byte(secret),
		remote:   remote,
		sessions: sessions,
		ttl:      ttl,
		log:      log,
	}
}

type sessionClaims struct {
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Verify resolves a token to its user or fails with ErrUnauthenticated.
func (v *Verifier) Verify(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, apperr.ErrUnauthenticated
	}

	if user, ok := v.cached(ctx, token); ok {
		return user, nil
	}

	var user *models.User
	var err error

	if len(v.secret) > 0 {
		user, err = v.verifyLocal(token)
	} else {
		user, err = v.remote.VerifyToken(ctx, token)
	}
	if err != nil {
		return nil, err
	}

	v.store(ctx, token, user)
	return user, nil
}

func (v *Verifier) verifyLocal(token string) (*models.User, error) {
	claims := &sessionClaims{}

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, apperr.ErrUnauthenticated
	}

	if claims.Subject == "" || claims.Role == "" {
		return nil, apperr.ErrUnauthenticated
	}

	return &models.User{
		ID:       claims.Subject,
		Fullname: claims.Fullname,
		Email:    claims.Email,
		Role:     claims.Role,
	}, nil
}

func (v *Verifier) cached(ctx context.Context, token string) (*models.User, bool) {
	if v.sessions == nil {
		return nil, false
	}

	raw, ok, err := v.sessions.Get(ctx, sessionKey(token))
	if err != nil {
		v.log.Warn("session cache read failed", "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, false
	}
	return &user, true
}

func (v *Verifier) store(ctx context.Context, token string, user *models.User) {
	if v.sessions == nil {
		return
	}

	raw, err := json.Marshal(user)
	if err != nil {
		return
	}

	if err := v.sessions.Set(ctx, sessionKey(token), string(raw), v.ttl); err != nil {
		v.log.Warn("session cache write failed", "error", err)
	}
}

// sessionKey hashes the token so raw credentials never land in the cache.
func sessionKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "session:" + hex.EncodeToString(sum[:])
}

// TokenFromRequest extracts the session token from the named cookie,
// falling back to a bearer Authorization header.
func TokenFromRequest(r *http.Request, cookieName string) string {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}

	const prefix = "Bearer "
	if h := r.Header.Get("Authorization"); len(h) > len(prefix) && h[:len(prefix)] == prefix {
		return h[len(prefix):]
	}

	return ""
}
