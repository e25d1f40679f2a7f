package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/fitlog/workout-tracker/internal/api/middleware"
	"github.com/fitlog/workout-tracker/internal/core/domain"
	"github.com/fitlog/workout-tracker/internal/core/ports"
	"github.com/fitlog/workout-tracker/internal/pkg/metrics"
)

// FederatedProvider is an OAuth identity provider such as GitHub.
type FederatedProvider interface {
	Name() string
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (domain.FederatedProfile, error)
}

// StateStore issues and redeems single-use OAuth state values.
type StateStore interface {
	Issue(ctx context.Context) (string, error)
	Consume(ctx context.Context, state string) error
}

type AuthHandler struct {
	identity     ports.IdentityService
	provider     FederatedProvider
	states       StateStore
	cookieSecure bool
	log          zerolog.Logger
}

// NewAuthHandler returns an AuthHandler. provider and states may be nil, in
// which case the federated routes answer 404.
func NewAuthHandler(identity ports.IdentityService, provider FederatedProvider, states StateStore, cookieSecure bool, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		identity:     identity,
		provider:     provider,
		states:       states,
		cookieSecure: cookieSecure,
		log:          log,
	}
}

// Register creates a local account and signs it in.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  sessionResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	if _, err := h.identity.Register(ctx, req.Username, req.Email, req.Password); err != nil {
		return err
	}
	sess, err := h.identity.Login(ctx, req.Username, req.Password)
	if err != nil {
		return err
	}

	h.setSessionCookie(c, sess)
	return c.JSON(http.StatusCreated, toSessionResponse(sess))
}

// Login authenticates a local user and opens a session.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	sess, err := h.identity.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues(string(domain.AuthLocal), "failure").Inc()
		return err
	}
	metrics.LoginsTotal.WithLabelValues(string(domain.AuthLocal), "success").Inc()

	h.setSessionCookie(c, sess)
	return c.JSON(http.StatusOK, toSessionResponse(sess))
}

// Logout revokes the caller's session and clears the cookie.
//
// @Summary      Logout
// @Tags         auth
// @Security     BearerAuth
// @Success      204
// @Failure      401  {object}  errorResponse
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if _, err := ctxPrincipal(c); err != nil {
		return err
	}
	if err := h.identity.Logout(c.Request().Context(), middleware.Token(c)); err != nil {
		return err
	}

	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return c.NoContent(http.StatusNoContent)
}

// Me returns the signed-in caller.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  principalResponse
// @Failure      401  {object}  errorResponse
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, principalResponse{UserID: p.UserID, Username: p.Username})
}

// GitHubStart redirects to the provider's consent page.
//
// @Summary      Start GitHub sign-in
// @Tags         auth
// @Success      302
// @Failure      404  {object}  errorResponse
// @Router       /auth/github [get]
func (h *AuthHandler) GitHubStart(c echo.Context) error {
	if h.provider == nil || h.states == nil {
		return echo.NewHTTPError(http.StatusNotFound, "federated sign-in is not configured")
	}

	state, err := h.states.Issue(c.Request().Context())
	if err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, h.provider.AuthCodeURL(state))
}

// GitHubCallback completes the OAuth flow and opens a session.
//
// @Summary      GitHub sign-in callback
// @Tags         auth
// @Produce      json
// @Param        code   query     string  true  "Authorization code"
// @Param        state  query     string  true  "State issued by /auth/github"
// @Success      200    {object}  sessionResponse
// @Failure      401    {object}  errorResponse
// @Failure      404    {object}  errorResponse
// @Router       /auth/github/callback [get]
func (h *AuthHandler) GitHubCallback(c echo.Context) error {
	if h.provider == nil || h.states == nil {
		return echo.NewHTTPError(http.StatusNotFound, "federated sign-in is not configured")
	}

	ctx := c.Request().Context()
	if err := h.states.Consume(ctx, c.QueryParam("state")); err != nil {
		return err
	}

	code := c.QueryParam("code")
	if code == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization code")
	}

	profile, err := h.provider.Exchange(ctx, code)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues(h.provider.Name(), "failure").Inc()
		h.log.Warn().Err(err).Str("provider", h.provider.Name()).Msg("oauth exchange failed")
		return echo.NewHTTPError(http.StatusUnauthorized, "federated sign-in failed")
	}

	sess, err := h.identity.FederatedLogin(ctx, profile)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues(h.provider.Name(), "failure").Inc()
		return err
	}
	metrics.LoginsTotal.WithLabelValues(h.provider.Name(), "success").Inc()

	h.setSessionCookie(c, sess)
	return c.JSON(http.StatusOK, toSessionResponse(sess))
}

func (h *AuthHandler) setSessionCookie(c echo.Context, sess *domain.Session) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		MaxAge:   int(time.Until(sess.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
