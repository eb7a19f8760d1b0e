package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"ms-parking/internal/logger"
	"ms-parking/internal/models"
	"ms-parking/internal/utils"
)

type contextKey string

const (
	userKey   contextKey = "user"
	claimsKey contextKey = "claims"
)

var (
	ErrInvalidCredentials = errors.New("Invalid credentials")
	ErrSessionRevoked     = errors.New("session revoked")
)

// UserSource looks users up for login and token verification.
type UserSource interface {
	FindUserByUsername(username string) (*models.User, bool)
	GetUser(userID string) (*models.User, bool)
}

// LoginResult is returned to the dashboard after a successful login.
type LoginResult struct {
	User  models.User `json:"user"`
	Token string      `json:"token"`
}

// Authenticator ties token issuing, session storage and user lookup
// together.
type Authenticator struct {
	users    UserSource
	issuer   *Issuer
	sessions SessionStore
	logger   *logger.Logger
}

func NewAuthenticator(users UserSource, issuer *Issuer, sessions SessionStore, log *logger.Logger) *Authenticator {
	return &Authenticator{users: users, issuer: issuer, sessions: sessions, logger: log}
}

// Login checks the password and records a new session.
func (a *Authenticator) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, ok := a.users.FindUserByUsername(username)
	if !ok || !CheckPassword(user.PasswordHash, password) {
		a.logger.LogSecurity("LOGIN_FAILED", fmt.Sprintf("Failed login for %q", username))
		return nil, ErrInvalidCredentials
	}

	token, claims, err := a.issuer.Issue(*user)
	if err != nil {
		return nil, err
	}
	if err := a.sessions.Save(ctx, claims.ID, user.ID, a.issuer.TTL()); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	a.logger.LogSecurity("LOGIN", fmt.Sprintf("User %s (%s) logged in", user.Username, user.Role))
	return &LoginResult{User: *user, Token: token}, nil
}

// Logout revokes the session behind the request's token.
func (a *Authenticator) Logout(ctx context.Context) error {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	if !ok {
		return ErrMissingToken
	}
	if err := a.sessions.Revoke(ctx, claims.ID); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	a.logger.LogSecurity("LOGOUT", fmt.Sprintf("User %s logged out", claims.Subject))
	return nil
}

// Verify resolves a raw token to its user. The session must still be live.
func (a *Authenticator) Verify(ctx context.Context, raw string) (*models.User, *Claims, error) {
	claims, err := a.issuer.Parse(raw)
	if err != nil {
		return nil, nil, err
	}
	live, err := a.sessions.Exists(ctx, claims.ID)
	if err != nil {
		return nil, nil, err
	}
	if !live {
		return nil, nil, ErrSessionRevoked
	}
	user, ok := a.users.GetUser(claims.Subject)
	if !ok {
		return nil, nil, fmt.Errorf("%w: unknown user", ErrInvalidToken)
	}
	return user, claims, nil
}

// Authenticate attaches the caller to the request context when a valid
// bearer token is present. Anonymous requests pass through; a bad token is
// rejected with 401.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := ExtractTokenFromRequest(r)
		if errors.Is(err, ErrMissingToken) {
			next.ServeHTTP(w, r)
			return
		}
		if err != nil {
			utils.WriteError(w, http.StatusUnauthorized, err.Error())
			return
		}

		user, claims, err := a.Verify(r.Context(), raw)
		if err != nil {
			a.logger.LogSecurity("TOKEN_REJECTED", fmt.Sprintf("%s %s: %v", r.Method, r.URL.Path, err))
			utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		ctx = context.WithValue(ctx, claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole rejects anonymous callers with 401 and callers whose role is
// not listed with 403.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			utils.WriteError(w, http.StatusForbidden, "Forbidden")
		})
	}
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userKey).(*models.User)
	return user, ok && user != nil
}

// UserID returns the authenticated user's id or "".
func UserID(ctx context.Context) string {
	if user, ok := UserFromContext(ctx); ok {
		return user.ID
	}
	return ""
}
