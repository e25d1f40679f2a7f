package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/fitlog/workout-tracker/internal/api/middleware"
	"github.com/fitlog/workout-tracker/internal/core/domain"
	"github.com/fitlog/workout-tracker/internal/core/ports"
	"github.com/fitlog/workout-tracker/internal/pkg/metrics"
)

// IdempotencyHeader lets clients retry a create without duplicating it.
const IdempotencyHeader = "Idempotency-Key"

// WorkoutHandler handles HTTP requests for workout operations.
type WorkoutHandler struct {
	service ports.WorkoutService
}

func NewWorkoutHandler(service ports.WorkoutService) *WorkoutHandler {
	return &WorkoutHandler{service: service}
}

// Create handles POST /v1/workouts.
//
// @Summary      Log a workout
// @Tags         workouts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string          false  "Replays the first create made with this key"
// @Param        body             body      workoutRequest  true   "Workout details"
// @Success      201              {object}  workoutResponse
// @Success      200              {object}  workoutResponse  "replayed create"
// @Failure      400              {object}  errorResponse
// @Failure      401              {object}  errorResponse
// @Failure      422              {object}  errorResponse
// @Failure      503              {object}  errorResponse
// @Router       /v1/workouts [post]
func (h *WorkoutHandler) Create(c echo.Context) error {
	principal, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req workoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	fields, err := toWorkoutFields(req)
	if err != nil {
		return err
	}

	result, err := h.service.Create(c.Request().Context(), principal, ports.CreateWorkoutInput{
		Fields:         fields,
		IdempotencyKey: c.Request().Header.Get(IdempotencyHeader),
	})
	if err != nil {
		return err
	}

	if result.Replayed {
		metrics.IdempotentReplaysTotal.Inc()
		return c.JSON(http.StatusOK, toWorkoutResponse(result.Workout))
	}
	metrics.WorkoutMutationsTotal.WithLabelValues(string(domain.WorkoutCreated)).Inc()
	return c.JSON(http.StatusCreated, toWorkoutResponse(result.Workout))
}

// Get handles GET /v1/workouts/:id.
//
// @Summary      Get one of your workouts
// @Tags         workouts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Workout id"
// @Success      200  {object}  workoutResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/workouts/{id} [get]
func (h *WorkoutHandler) Get(c echo.Context) error {
	principal, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	w, err := h.service.Get(c.Request().Context(), principal, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toWorkoutResponse(w))
}

// Update handles PUT /v1/workouts/:id. The body replaces every mutable field.
//
// @Summary      Replace one of your workouts
// @Tags         workouts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string          true  "Workout id"
// @Param        body  body      workoutRequest  true  "Workout details"
// @Success      200   {object}  workoutResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/workouts/{id} [put]
func (h *WorkoutHandler) Update(c echo.Context) error {
	principal, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req workoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	fields, err := toWorkoutFields(req)
	if err != nil {
		return err
	}

	w, err := h.service.Update(c.Request().Context(), principal, c.Param("id"), fields)
	if err != nil {
		return err
	}
	metrics.WorkoutMutationsTotal.WithLabelValues(string(domain.WorkoutUpdated)).Inc()
	return c.JSON(http.StatusOK, toWorkoutResponse(w))
}

// Delete handles DELETE /v1/workouts/:id.
//
// @Summary      Delete one of your workouts
// @Tags         workouts
// @Security     BearerAuth
// @Param        id   path  string  true  "Workout id"
// @Success      204
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/workouts/{id} [delete]
func (h *WorkoutHandler) Delete(c echo.Context) error {
	principal, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), principal, c.Param("id")); err != nil {
		return err
	}
	metrics.WorkoutMutationsTotal.WithLabelValues(string(domain.WorkoutDeleted)).Inc()
	return c.NoContent(http.StatusNoContent)
}

// List handles GET /v1/workouts.
//
// @Summary      List your workouts
// @Tags         workouts
// @Produce      json
// @Security     BearerAuth
// @Param        q      query     string  false  "Free-text query"
// @Param        page   query     int     false  "Page number (default 1)"
// @Param        limit  query     int     false  "Page size (default 20, max 100)"
// @Success      200    {object}  listWorkoutsResponse
// @Failure      400    {object}  errorResponse
// @Failure      401    {object}  errorResponse
// @Router       /v1/workouts [get]
func (h *WorkoutHandler) List(c echo.Context) error {
	principal, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	in, err := listInput(c)
	if err != nil {
		return err
	}

	result, err := h.service.List(c.Request().Context(), principal, in)
	if err != nil {
		return err
	}
	countSearch(domain.ScopeMine, in)
	return c.JSON(http.StatusOK, toListResponse(result))
}

// Public handles GET /v1/workouts/public.
//
// @Summary      Search workouts across all users
// @Tags         workouts
// @Produce      json
// @Param        q      query     string  false  "Free-text query"
// @Param        page   query     int     false  "Page number (default 1)"
// @Param        limit  query     int     false  "Page size (default 20, max 100)"
// @Success      200    {object}  listWorkoutsResponse
// @Failure      400    {object}  errorResponse
// @Router       /v1/workouts/public [get]
func (h *WorkoutHandler) Public(c echo.Context) error {
	return h.search(c, domain.ScopePublic)
}

// Search handles GET /v1/workouts/search. Without an explicit scope a
// signed-in caller searches their own workouts and anyone else searches
// the public set.
//
// @Summary      Search workouts
// @Tags         workouts
// @Produce      json
// @Param        scope  query     string  false  "mine or public"
// @Param        q      query     string  false  "Free-text query"
// @Param        page   query     int     false  "Page number (default 1)"
// @Param        limit  query     int     false  "Page size (default 20, max 100)"
// @Success      200    {object}  listWorkoutsResponse
// @Failure      401    {object}  errorResponse
// @Failure      422    {object}  errorResponse
// @Router       /v1/workouts/search [get]
func (h *WorkoutHandler) Search(c echo.Context) error {
	scope := domain.SearchScope(c.QueryParam("scope"))
	if scope == "" {
		scope = domain.ScopePublic
		if middleware.Principal(c) != nil {
			scope = domain.ScopeMine
		}
	}
	return h.search(c, scope)
}

func (h *WorkoutHandler) search(c echo.Context, scope domain.SearchScope) error {
	in, err := listInput(c)
	if err != nil {
		return err
	}

	result, err := h.service.Search(c.Request().Context(), middleware.Principal(c), scope, in)
	if err != nil {
		return err
	}
	countSearch(scope, in)
	return c.JSON(http.StatusOK, toListResponse(result))
}

func listInput(c echo.Context) (ports.ListWorkoutsInput, error) {
	in := ports.ListWorkoutsInput{Query: c.QueryParam("q")}
	err := echo.QueryParamsBinder(c).
		Int("page", &in.Page).
		Int("limit", &in.Limit).
		BindError()
	if err != nil {
		return in, echo.NewHTTPError(http.StatusBadRequest, "page and limit must be integers")
	}
	return in, nil
}

func countSearch(scope domain.SearchScope, in ports.ListWorkoutsInput) {
	metrics.WorkoutSearchesTotal.WithLabelValues(string(scope), strconv.FormatBool(in.Query != "")).Inc()
}
