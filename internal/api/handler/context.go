package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fitlog/workout-tracker/internal/api/middleware"
	"github.com/fitlog/workout-tracker/internal/core/domain"
)

// ctxPrincipal returns the caller set by the Authenticate middleware and
// fails fast with 401 before any service call when there is none.
func ctxPrincipal(c echo.Context) (*domain.Principal, error) {
	p := middleware.Principal(c)
	if p == nil || p.UserID == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return p, nil
}
