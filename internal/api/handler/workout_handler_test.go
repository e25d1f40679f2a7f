package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fitlog/workout-tracker/internal/core/domain"
	"github.com/fitlog/workout-tracker/internal/core/ports"
)

type stubWorkoutService struct {
	ports.WorkoutService

	createFn func(ctx context.Context, p *domain.Principal, in ports.CreateWorkoutInput) (*ports.CreateWorkoutResult, error)
	getFn    func(ctx context.Context, p *domain.Principal, id string) (*domain.Workout, error)
	updateFn func(ctx context.Context, p *domain.Principal, id string, f domain.WorkoutFields) (*domain.Workout, error)
	deleteFn func(ctx context.Context, p *domain.Principal, id string) error
	listFn   func(ctx context.Context, p *domain.Principal, in ports.ListWorkoutsInput) (*ports.ListWorkoutsResult, error)
	searchFn func(ctx context.Context, p *domain.Principal, scope domain.SearchScope, in ports.ListWorkoutsInput) (*ports.ListWorkoutsResult, error)
}

func (s *stubWorkoutService) Create(ctx context.Context, p *domain.Principal, in ports.CreateWorkoutInput) (*ports.CreateWorkoutResult, error) {
	return s.createFn(ctx, p, in)
}

func (s *stubWorkoutService) Get(ctx context.Context, p *domain.Principal, id string) (*domain.Workout, error) {
	return s.getFn(ctx, p, id)
}

func (s *stubWorkoutService) Update(ctx context.Context, p *domain.Principal, id string, f domain.WorkoutFields) (*domain.Workout, error) {
	return s.updateFn(ctx, p, id, f)
}

func (s *stubWorkoutService) Delete(ctx context.Context, p *domain.Principal, id string) error {
	return s.deleteFn(ctx, p, id)
}

func (s *stubWorkoutService) List(ctx context.Context, p *domain.Principal, in ports.ListWorkoutsInput) (*ports.ListWorkoutsResult, error) {
	return s.listFn(ctx, p, in)
}

func (s *stubWorkoutService) Search(ctx context.Context, p *domain.Principal, scope domain.SearchScope, in ports.ListWorkoutsInput) (*ports.ListWorkoutsResult, error) {
	return s.searchFn(ctx, p, scope, in)
}

var caller = &domain.Principal{UserID: "u1", Username: "alice"}

func sampleWorkout() *domain.Workout {
	return &domain.Workout{
		ID:              "w1",
		Title:           "Morning run",
		Category:        domain.CategoryCardio,
		DurationMinutes: 30,
		Intensity:       domain.IntensityMedium,
		Date:            time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		OwnerID:         "u1",
	}
}

func signedIn(c echo.Context) echo.Context {
	c.Set("principal", caller)
	return c
}

const workoutBody = `{"title":"Morning run","category":"Cardio","duration_minutes":30,"date":"2025-02-01"}`

func TestWorkoutHandler_Create(t *testing.T) {
	e := newEcho()
	var got ports.CreateWorkoutInput
	stub := &stubWorkoutService{
		createFn: func(ctx context.Context, p *domain.Principal, in ports.CreateWorkoutInput) (*ports.CreateWorkoutResult, error) {
			if p != caller {
				t.Fatalf("principal not forwarded")
			}
			got = in
			return &ports.CreateWorkoutResult{Workout: sampleWorkout()}, nil
		},
	}
	handler := NewWorkoutHandler(stub)

	req := jsonRequest(http.MethodPost, "/v1/workouts", workoutBody)
	req.Header.Set(IdempotencyHeader, "key-1")
	rec := httptest.NewRecorder()
	c := signedIn(e.NewContext(req, rec))

	if err := handler.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if got.IdempotencyKey != "key-1" || got.Fields.DurationMinutes != 30 || got.Fields.Category != domain.CategoryCardio {
		t.Fatalf("unexpected input: %+v", got)
	}
	if !got.Fields.Date.Equal(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("plain date not parsed: %v", got.Fields.Date)
	}

	var resp workoutResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.ID != "w1" || resp.Links.Self != "/v1/workouts/w1" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestWorkoutHandler_Create_Replayed(t *testing.T) {
	e := newEcho()
	stub := &stubWorkoutService{
		createFn: func(ctx context.Context, p *domain.Principal, in ports.CreateWorkoutInput) (*ports.CreateWorkoutResult, error) {
			return &ports.CreateWorkoutResult{Workout: sampleWorkout(), Replayed: true}, nil
		},
	}
	rec := httptest.NewRecorder()
	c := signedIn(e.NewContext(jsonRequest(http.MethodPost, "/v1/workouts", workoutBody), rec))

	if err := NewWorkoutHandler(stub).Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for replay, got %d", rec.Code)
	}
}

func TestWorkoutHandler_Create_BadDate(t *testing.T) {
	e := newEcho()
	stub := &stubWorkoutService{
		createFn: func(ctx context.Context, p *domain.Principal, in ports.CreateWorkoutInput) (*ports.CreateWorkoutResult, error) {
			t.Fatalf("service must not be called")
			return nil, nil
		},
	}
	c := signedIn(e.NewContext(jsonRequest(http.MethodPost, "/v1/workouts", `{"title":"x","date":"yesterday"}`), httptest.NewRecorder()))

	err := NewWorkoutHandler(stub).Create(c)
	var ve *domain.ValidationError
	if !errors.As(err, &ve) || ve.Fields[0].Field != "date" {
		t.Fatalf("expected date validation error, got %v", err)
	}
}

func TestWorkoutHandler_Create_Anonymous(t *testing.T) {
	e := newEcho()
	c := e.NewContext(jsonRequest(http.MethodPost, "/v1/workouts", workoutBody), httptest.NewRecorder())

	var he *echo.HTTPError
	if err := NewWorkoutHandler(&stubWorkoutService{}).Create(c); !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestWorkoutHandler_Get_PassesIDAndErrors(t *testing.T) {
	e := newEcho()
	stub := &stubWorkoutService{
		getFn: func(ctx context.Context, p *domain.Principal, id string) (*domain.Workout, error) {
			if id == "w1" {
				return sampleWorkout(), nil
			}
			return nil, domain.ErrWorkoutNotFound
		},
	}
	handler := NewWorkoutHandler(stub)

	rec := httptest.NewRecorder()
	c := signedIn(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec))
	c.SetParamNames("id")
	c.SetParamValues("w1")
	if err := handler.Get(c); err != nil || rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %v", rec.Code, err)
	}

	c = signedIn(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder()))
	c.SetParamNames("id")
	c.SetParamValues("w2")
	if err := handler.Get(c); !errors.Is(err, domain.ErrWorkoutNotFound) {
		t.Fatalf("expected ErrWorkoutNotFound, got %v", err)
	}
}

func TestWorkoutHandler_UpdateAndDelete(t *testing.T) {
	e := newEcho()
	var updatedID, deletedID string
	stub := &stubWorkoutService{
		updateFn: func(ctx context.Context, p *domain.Principal, id string, f domain.WorkoutFields) (*domain.Workout, error) {
			updatedID = id
			w := sampleWorkout()
			f.Apply(w)
			return w, nil
		},
		deleteFn: func(ctx context.Context, p *domain.Principal, id string) error {
			deletedID = id
			return nil
		},
	}
	handler := NewWorkoutHandler(stub)

	rec := httptest.NewRecorder()
	c := signedIn(e.NewContext(jsonRequest(http.MethodPut, "/", `{"title":"Evening run","category":"Cardio","duration_minutes":40}`), rec))
	c.SetParamNames("id")
	c.SetParamValues("w1")
	if err := handler.Update(c); err != nil || rec.Code != http.StatusOK {
		t.Fatalf("update: %d %v", rec.Code, err)
	}
	if updatedID != "w1" {
		t.Fatalf("id not forwarded to update")
	}

	rec = httptest.NewRecorder()
	c = signedIn(e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), rec))
	c.SetParamNames("id")
	c.SetParamValues("w1")
	if err := handler.Delete(c); err != nil || rec.Code != http.StatusNoContent {
		t.Fatalf("delete: %d %v", rec.Code, err)
	}
	if deletedID != "w1" {
		t.Fatalf("id not forwarded to delete")
	}
}

func TestWorkoutHandler_List_ParsesQuery(t *testing.T) {
	e := newEcho()
	var got ports.ListWorkoutsInput
	stub := &stubWorkoutService{
		listFn: func(ctx context.Context, p *domain.Principal, in ports.ListWorkoutsInput) (*ports.ListWorkoutsResult, error) {
			got = in
			return &ports.ListWorkoutsResult{Items: []*domain.Workout{sampleWorkout()}, Total: 1, Page: 2, Limit: 5, TotalPages: 1}, nil
		},
	}
	handler := NewWorkoutHandler(stub)

	rec := httptest.NewRecorder()
	c := signedIn(e.NewContext(httptest.NewRequest(http.MethodGet, "/v1/workouts?q=run&page=2&limit=5", nil), rec))
	if err := handler.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if got.Query != "run" || got.Page != 2 || got.Limit != 5 {
		t.Fatalf("unexpected input: %+v", got)
	}

	var resp listWorkoutsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp.Data) != 1 || resp.Pagination.Total != 1 || resp.Pagination.Limit != 5 {
		t.Fatalf("unexpected response: %+v", resp)
	}

	c = signedIn(e.NewContext(httptest.NewRequest(http.MethodGet, "/v1/workouts?page=two", nil), httptest.NewRecorder()))
	var he *echo.HTTPError
	if err := handler.List(c); !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad page, got %v", err)
	}
}

func TestWorkoutHandler_Search_DefaultScope(t *testing.T) {
	e := newEcho()
	var scopes []domain.SearchScope
	stub := &stubWorkoutService{
		searchFn: func(ctx context.Context, p *domain.Principal, scope domain.SearchScope, in ports.ListWorkoutsInput) (*ports.ListWorkoutsResult, error) {
			scopes = append(scopes, scope)
			return &ports.ListWorkoutsResult{Items: []*domain.Workout{}, Page: 1, Limit: 20}, nil
		},
	}
	handler := NewWorkoutHandler(stub)

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/v1/workouts/search?q=run", nil), httptest.NewRecorder())
	if err := handler.Search(c); err != nil {
		t.Fatalf("anonymous search: %v", err)
	}
	c = signedIn(e.NewContext(httptest.NewRequest(http.MethodGet, "/v1/workouts/search?q=run", nil), httptest.NewRecorder()))
	if err := handler.Search(c); err != nil {
		t.Fatalf("signed-in search: %v", err)
	}
	c = signedIn(e.NewContext(httptest.NewRequest(http.MethodGet, "/v1/workouts/search?scope=public", nil), httptest.NewRecorder()))
	if err := handler.Search(c); err != nil {
		t.Fatalf("explicit public search: %v", err)
	}
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/v1/workouts/public", nil), httptest.NewRecorder())
	if err := handler.Public(c); err != nil {
		t.Fatalf("public: %v", err)
	}

	want := []domain.SearchScope{domain.ScopePublic, domain.ScopeMine, domain.ScopePublic, domain.ScopePublic}
	if len(scopes) != len(want) {
		t.Fatalf("unexpected scopes: %v", scopes)
	}
	for i := range want {
		if scopes[i] != want[i] {
			t.Fatalf("call %d: got scope %q want %q", i, scopes[i], want[i])
		}
	}
}
