package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/fitlog/workout-tracker/internal/core/domain"
)

// SessionCookie carries the session token for browser clients.
const SessionCookie = "session"

// Context keys set by Authenticate.
const (
	principalKey = "principal"
	tokenKey     = "session_token"
)

// PrincipalResolver turns a session token into the signed-in user.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, token string) (*domain.Principal, error)
}

// Authenticate resolves the caller from the Authorization header or the
// session cookie. Requests without a live session pass through anonymously
// and RequirePrincipal decides whether that is enough. A malformed header is
// rejected with 401.
func Authenticate(resolver PrincipalResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := sessionToken(c)
			if err != nil {
				return err
			}
			if token == "" {
				return next(c)
			}

			p, err := resolver.ResolvePrincipal(c.Request().Context(), token)
			if errors.Is(err, domain.ErrStoreUnavailable) {
				return err
			}
			if err != nil {
				return next(c)
			}

			c.Set(principalKey, p)
			c.Set(tokenKey, token)
			return next(c)
		}
	}
}

// sessionToken prefers the bearer header over the cookie.
func sessionToken(c echo.Context) (string, error) {
	if authHeader := c.Request().Header.Get(echo.HeaderAuthorization); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
		}
		return strings.TrimSpace(parts[1]), nil
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}
	return "", nil
}

// Principal returns the caller set by Authenticate, or nil when anonymous.
func Principal(c echo.Context) *domain.Principal {
	p, _ := c.Get(principalKey).(*domain.Principal)
	return p
}

// Token returns the session token the caller authenticated with.
func Token(c echo.Context) string {
	t, _ := c.Get(tokenKey).(string)
	return t
}
