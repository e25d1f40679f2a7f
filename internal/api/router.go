package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/fitlog/workout-tracker/docs"
	"github.com/fitlog/workout-tracker/internal/api/handler"
	"github.com/fitlog/workout-tracker/internal/api/middleware"
	"github.com/fitlog/workout-tracker/internal/core/ports"
)

// Deps is everything the HTTP layer needs. Provider and States are optional;
// without them the GitHub routes answer 404.
type Deps struct {
	Identity     ports.IdentityService
	Workouts     ports.WorkoutService
	Provider     handler.FederatedProvider
	States       handler.StateStore
	Checks       map[string]handler.DependencyCheck
	CookieSecure bool
	Log          zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("workouts_http"))
	e.Use(middleware.Authenticate(d.Identity))
	e.Use(middleware.RequestLogger(d.Log))

	authHandler := handler.NewAuthHandler(d.Identity, d.Provider, d.States, d.CookieSecure, d.Log)
	workoutHandler := handler.NewWorkoutHandler(d.Workouts)
	requireAuth := middleware.RequirePrincipal()

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/logout", authHandler.Logout, requireAuth)
	e.GET("/auth/me", authHandler.Me, requireAuth)
	e.GET("/auth/github", authHandler.GitHubStart)
	e.GET("/auth/github/callback", authHandler.GitHubCallback)

	// --- Workout routes ---
	v1 := e.Group("/v1")
	v1.GET("/workouts/public", workoutHandler.Public)
	v1.GET("/workouts/search", workoutHandler.Search)

	v1.GET("/workouts", workoutHandler.List, requireAuth)
	v1.POST("/workouts", workoutHandler.Create, requireAuth)
	v1.GET("/workouts/:id", workoutHandler.Get, requireAuth)
	v1.PUT("/workouts/:id", workoutHandler.Update, requireAuth)
	v1.DELETE("/workouts/:id", workoutHandler.Delete, requireAuth)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(d.Checks)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
