package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequirePrincipal rejects anonymous callers. It must run after Authenticate.
func RequirePrincipal() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if Principal(c) == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			return next(c)
		}
	}
}
